package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/regcache"
)

// Register is the value of a register of the inspected thread.
type Register struct {
	Name   string
	Regnum int
	Type   *gdbtypes.Type
	Bytes  []byte
	Status gdbarch.RegisterStatus

	order gdbarch.ByteOrder
}

// Available reports whether the value of r could be read.
func (r *Register) Available() bool {
	return r.Status == gdbarch.RegValid
}

// Uint64 returns the contents of r as an unsigned integer. Registers
// larger than 8 bytes are truncated.
func (r *Register) Uint64() uint64 {
	buf := r.Bytes
	if len(buf) > 8 {
		if r.order == gdbarch.BigEndian {
			buf = buf[len(buf)-8:]
		} else {
			buf = buf[:8]
		}
	}
	return gdbtypes.ExtractUnsigned(buf, r.order.Binary())
}

// Hex returns the contents of r as a hexadecimal number.
func (r *Register) Hex() string {
	return regcache.HexValue(r.Bytes, r.order)
}

// Natural formats r according to its type, integers are printed in
// decimal.
func (r *Register) Natural() string {
	if r.Status != gdbarch.RegValid || r.Type.Code != gdbtypes.TypeInt || len(r.Bytes) > 8 {
		return r.String()
	}
	if r.Type.Unsigned {
		return strconv.FormatUint(gdbtypes.ExtractUnsigned(r.Bytes, r.order.Binary()), 10)
	}
	return strconv.FormatInt(gdbtypes.ExtractSigned(r.Bytes, r.order.Binary()), 10)
}

// String formats r according to its type.
func (r *Register) String() string {
	switch r.Status {
	case gdbarch.RegUnavailable:
		return "<unavailable>"
	case gdbarch.RegUnknown:
		return "<unknown>"
	}
	return r.Type.FormatValue(r.Bytes, r.order.Binary())
}

// lookupRegister returns the register number of name, a leading '$' is
// ignored.
func lookupRegister(a *gdbarch.Gdbarch, name string) (int, error) {
	name = strings.TrimPrefix(name, "$")
	regnum := gdbarch.UserRegMapNameToRegnum(a, name)
	if regnum < 0 {
		return -1, fmt.Errorf("invalid register %q", name)
	}
	return regnum, nil
}

// ReadRegister reads register name of the inspected thread. Name can be a
// raw, pseudo or user register.
func (s *Session) ReadRegister(name string) (*Register, error) {
	rc, err := s.Regcache()
	if err != nil {
		return nil, err
	}
	regnum, err := lookupRegister(s.arch, name)
	if err != nil {
		return nil, err
	}
	buf, cooked, status, err := gdbarch.UserRegValue(rc, regnum)
	if err != nil {
		return nil, err
	}
	return &Register{
		Name:   strings.TrimPrefix(name, "$"),
		Regnum: cooked,
		Type:   s.arch.RegisterType(cooked),
		Bytes:  buf,
		Status: status,
		order:  s.arch.ByteOrder(),
	}, nil
}

// Registers reads the registers of the inspected thread belonging to
// group.
func (s *Session) Registers(group *gdbarch.Reggroup) ([]*Register, error) {
	rc, err := s.Regcache()
	if err != nil {
		return nil, err
	}
	a := s.arch
	var r []*Register
	for regnum := 0; regnum < a.NumCookedRegs(); regnum++ {
		name := a.RegisterName(regnum)
		if name == "" || !a.RegisterReggroupP(regnum, group) {
			continue
		}
		typ := a.RegisterType(regnum)
		buf := make([]byte, typ.Length)
		status, err := rc.CookedRead(regnum, buf)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", name, err)
		}
		r = append(r, &Register{Name: name, Regnum: regnum, Type: typ, Bytes: buf, Status: status, order: a.ByteOrder()})
	}
	return r, nil
}

// WriteRegister assigns value to register name of the inspected thread.
// Value is parsed as a floating point number for floating point
// registers and as an integer otherwise.
func (s *Session) WriteRegister(name, value string) error {
	rc, err := s.Regcache()
	if err != nil {
		return err
	}
	regnum, err := lookupRegister(s.arch, name)
	if err != nil {
		return err
	}
	regnum, err = gdbarch.UserRegResolve(s.arch, regnum)
	if err != nil {
		return err
	}
	buf, err := encodeRegisterValue(s.arch.RegisterType(regnum), s.arch.ByteOrder(), strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("can not assign %q to %s: %w", value, name, err)
	}
	s.log.Debugf("write %s = %s", name, value)
	return rc.CookedWrite(regnum, buf)
}

func encodeRegisterValue(typ *gdbtypes.Type, order gdbarch.ByteOrder, value string) ([]byte, error) {
	buf := make([]byte, typ.Length)
	if typ.Code == gdbtypes.TypeFloat && typ.Format != nil && (typ.Format.TotalBits == 32 || typ.Format.TotalBits == 64) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if typ.Format.TotalBits == 32 {
			gdbtypes.StoreUnsigned(buf[:4], typ.Format.ByteOrder, uint64(math.Float32bits(float32(f))))
		} else {
			gdbtypes.StoreUnsigned(buf[:8], typ.Format.ByteOrder, math.Float64bits(f))
		}
		return buf, nil
	}
	if typ.Length > 8 {
		return nil, fmt.Errorf("register of %d bytes", typ.Length)
	}
	var v uint64
	if strings.HasPrefix(value, "-") {
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return nil, err
		}
		v = uint64(n)
	} else {
		n, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, err
		}
		v = n
	}
	if typ.Length < 8 && v>>(8*uint(typ.Length)) != 0 && !strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("value does not fit in %d bytes", typ.Length)
	}
	gdbtypes.StoreUnsigned(buf, order.Binary(), v)
	return buf, nil
}
