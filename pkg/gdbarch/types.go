package gdbarch

import "github.com/go-delve/dbgcore/pkg/gdbtypes"

var builtinTypesData = NewPostInitData(func(a *Gdbarch) *gdbtypes.Builtin {
	return gdbtypes.NewBuiltin(gdbtypes.Widths{
		Char:          targetCharBit,
		Short:         a.shortBit,
		Int:           a.intBit,
		Long:          a.longBit,
		LongLong:      a.longLongBit,
		Ptr:           a.ptrBit,
		Half:          a.halfBit,
		Float:         a.floatBit,
		Double:        a.doubleBit,
		LongDouble:    a.longDoubleBit,
		HalfFmt:       a.halfFormat,
		FloatFmt:      a.floatFormat,
		DoubleFmt:     a.doubleFormat,
		LongDoubleFmt: a.longDoubleFormat,
	})
})

// BuiltinTypes returns the primitive types of a. They are only available
// once a has been initialized, hooks called during the construction of a
// get nil.
func BuiltinTypes(a *Gdbarch) *gdbtypes.Builtin {
	return builtinTypesData.Get(a)
}
