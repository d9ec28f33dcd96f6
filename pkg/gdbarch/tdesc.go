package gdbarch

import (
	"fmt"

	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// TdescRegisterType returns the type of register r using the predefined
// types of target descriptions. It returns nil for type names the
// architecture is expected to define (flags and unions for example).
// Must be called on an initialized architecture.
func TdescRegisterType(a *Gdbarch, r *tdesc.Reg) *gdbtypes.Type {
	bt := BuiltinTypes(a)
	if bt == nil {
		InternalError("register %s: types requested before %s was initialized", r.Name, a)
	}
	size := r.Size()
	var t *gdbtypes.Type
	switch r.Type {
	case "int8":
		t = bt.Int8
	case "int16":
		t = bt.Int16
	case "int32":
		t = bt.Int32
	case "int64":
		t = bt.Int64
	case "int128":
		t = bt.Int128
	case "uint8":
		t = bt.Uint8
	case "uint16":
		t = bt.Uint16
	case "uint32":
		t = bt.Uint32
	case "uint64":
		t = bt.Uint64
	case "uint128":
		t = bt.Uint128
	case "bool":
		t = bt.Bool
	case "ieee_half":
		t = gdbtypes.NewFloat("ieee_half", 2, gdbtypes.DefaultFloatFormat(16, a.ByteOrder() == BigEndian))
	case "ieee_single":
		t = bt.IEEESingle
	case "ieee_double":
		t = bt.IEEEDouble
	case "code_ptr":
		t = bt.FuncPtr
		if t.Length != size {
			t = gdbtypes.NewPointer(bt.Void, size, true)
		}
	case "data_ptr":
		t = bt.DataPtr
		if t.Length != size {
			t = gdbtypes.NewPointer(bt.Void, size, false)
		}
	case "int":
		t = intOfSize(bt, size)
	default:
		return nil
	}
	if t.Length != size {
		return intOfSize(bt, size)
	}
	return t
}

func intOfSize(bt *gdbtypes.Builtin, size int) *gdbtypes.Type {
	switch size {
	case 1:
		return bt.Int8
	case 2:
		return bt.Int16
	case 4:
		return bt.Int32
	case 8:
		return bt.Int64
	case 16:
		return bt.Int128
	}
	return gdbtypes.NewInt(fmt.Sprintf("int%d_t", size*8), size)
}

// TdescReggroupP classifies register r using the group attribute of the
// target description. The second return value is false when the
// description does not say anything about group.
func TdescReggroupP(r *tdesc.Reg, group *Reggroup) (bool, bool) {
	switch group {
	case AllReggroup:
		return true, true
	case SaveReggroup, RestoreReggroup:
		if !r.SaveRestore {
			return false, true
		}
		return false, false
	}
	if r.Group == "" {
		return false, false
	}
	return r.Group == group.Name, true
}
