package starbind

import (
	"fmt"
	"strconv"

	"go.starlark.net/starlark"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/session"
)

// registerValue exposes a register of the inspected thread to scripts.
type registerValue struct {
	reg *session.Register
}

var _ starlark.HasAttrs = registerValue{}

var registerAttrNames = []string{"name", "regnum", "type", "size", "available", "value", "hex", "natural", "bytes"}

func (v registerValue) String() string        { return v.reg.String() }
func (v registerValue) Type() string          { return "register" }
func (v registerValue) Freeze()               {}
func (v registerValue) Truth() starlark.Bool  { return starlark.Bool(v.reg.Available()) }
func (v registerValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: register") }
func (v registerValue) AttrNames() []string   { return registerAttrNames }

func (v registerValue) Attr(name string) (starlark.Value, error) {
	reg := v.reg
	switch name {
	case "name":
		return starlark.String(reg.Name), nil
	case "regnum":
		return starlark.MakeInt(reg.Regnum), nil
	case "type":
		if reg.Type == nil {
			return starlark.None, nil
		}
		return typeValue{reg.Type}, nil
	case "size":
		return starlark.MakeInt(len(reg.Bytes)), nil
	case "available":
		return starlark.Bool(reg.Available()), nil
	case "value":
		return registerToStarlarkValue(reg), nil
	case "hex":
		if !reg.Available() {
			return starlark.None, nil
		}
		return starlark.String(reg.Hex()), nil
	case "natural":
		return starlark.String(reg.Natural()), nil
	case "bytes":
		if !reg.Available() {
			return starlark.None, nil
		}
		return starlark.Bytes(reg.Bytes), nil
	}
	return nil, nil
}

// registerToStarlarkValue returns the contents of reg as a number, None if
// it is unavailable. Registers that do not fit a number are returned
// formatted.
func registerToStarlarkValue(reg *session.Register) starlark.Value {
	if !reg.Available() {
		return starlark.None
	}
	if reg.Type != nil && reg.Type.Code == gdbtypes.TypeFloat && reg.Type.Format != nil {
		return starlark.Float(reg.Type.Format.ToFloat64(reg.Bytes[:reg.Type.Format.Len()]))
	}
	if len(reg.Bytes) > 8 {
		return starlark.String(reg.String())
	}
	return starlark.MakeUint64(reg.Uint64())
}

// typeValue exposes the type of a register.
type typeValue struct {
	typ *gdbtypes.Type
}

var _ starlark.HasAttrs = typeValue{}

var typeAttrNames = []string{"name", "code", "size", "unsigned", "target", "fields"}

func (v typeValue) String() string        { return v.typ.Name }
func (v typeValue) Type() string          { return "type" }
func (v typeValue) Freeze()               {}
func (v typeValue) Truth() starlark.Bool  { return true }
func (v typeValue) Hash() (uint32, error) { return starlark.String(v.typ.Name).Hash() }
func (v typeValue) AttrNames() []string   { return typeAttrNames }

func (v typeValue) Attr(name string) (starlark.Value, error) {
	typ := v.typ
	switch name {
	case "name":
		return starlark.String(typ.Name), nil
	case "code":
		return starlark.String(typ.Code.String()), nil
	case "size":
		return starlark.MakeInt(typ.Length), nil
	case "unsigned":
		return starlark.Bool(typ.Unsigned), nil
	case "target":
		if typ.Target == nil {
			return starlark.None, nil
		}
		return typeValue{typ.Target}, nil
	case "fields":
		r := starlark.NewDict(len(typ.Fields))
		for _, f := range typ.Fields {
			r.SetKey(starlark.String(f.Name), typeValue{f.Type})
		}
		return r, nil
	}
	return nil, nil
}

// archValue exposes the architecture of the inspected thread.
type archValue struct {
	a *gdbarch.Gdbarch
}

var _ starlark.HasAttrs = archValue{}

var archAttrNames = []string{"name", "byte_order", "osabi", "ptr_bit", "addr_bit", "num_regs", "num_pseudo_regs", "pc", "sp", "reggroups"}

func (v archValue) String() string        { return v.a.String() }
func (v archValue) Type() string          { return "arch" }
func (v archValue) Freeze()               {}
func (v archValue) Truth() starlark.Bool  { return true }
func (v archValue) Hash() (uint32, error) { return starlark.String(v.a.String()).Hash() }
func (v archValue) AttrNames() []string   { return archAttrNames }

func (v archValue) Attr(name string) (starlark.Value, error) {
	a := v.a
	regName := func(regnum int) starlark.Value {
		if regnum < 0 {
			return starlark.None
		}
		return starlark.String(a.RegisterName(regnum))
	}
	switch name {
	case "name":
		return starlark.String(a.ArchInfo().Name), nil
	case "byte_order":
		return starlark.String(a.ByteOrder().String()), nil
	case "osabi":
		return starlark.String(string(a.OSABI())), nil
	case "ptr_bit":
		return starlark.MakeInt(a.PtrBit()), nil
	case "addr_bit":
		return starlark.MakeInt(a.AddrBit()), nil
	case "num_regs":
		return starlark.MakeInt(a.NumRegs()), nil
	case "num_pseudo_regs":
		return starlark.MakeInt(a.NumPseudoRegs()), nil
	case "pc":
		return regName(a.PCRegnum()), nil
	case "sp":
		return regName(a.SPRegnum()), nil
	case "reggroups":
		groups := gdbarch.Reggroups(a)
		r := make([]starlark.Value, len(groups))
		for i, g := range groups {
			r[i] = starlark.String(g.Name)
		}
		return starlark.NewList(r), nil
	}
	return nil, nil
}

// valueToRegisterString converts the value passed to write_register into
// the textual form accepted by the register parser.
func valueToRegisterString(val starlark.Value) (string, error) {
	switch val := val.(type) {
	case starlark.Int:
		return val.String(), nil
	case starlark.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case starlark.String:
		return string(val), nil
	case registerValue:
		if !val.reg.Available() {
			return "", fmt.Errorf("value of %s is not available", val.reg.Name)
		}
		if f, ok := registerToStarlarkValue(val.reg).(starlark.Float); ok {
			return valueToRegisterString(f)
		}
		return val.reg.Hex(), nil
	}
	return "", fmt.Errorf("can not assign a %s to a register", val.Type())
}
