package gdbtypes

// Widths collects the scalar widths (in bits) of an architecture that the
// builtin types depend on.
type Widths struct {
	Char, Short, Int, Long, LongLong, Ptr int

	Half, Float, Double, LongDouble             int
	HalfFmt, FloatFmt, DoubleFmt, LongDoubleFmt *FloatFormat
}

// Builtin holds the primitive types of one architecture.
type Builtin struct {
	Void *Type

	Int0, Int8, Int16, Int32, Int64, Int128      *Type
	Uint8, Uint16, Uint32, Uint64, Uint128       *Type
	Char, Short, Int, Long, LongLong             *Type
	UnsignedShort, UnsignedInt, UnsignedLong     *Type
	Half, Float, Double, LongDouble              *Type
	IEEESingle, IEEEDouble                       *Type
	Bool                                         *Type
	DataPtr, FuncPtr                             *Type
}

// NewBuiltin builds the primitive types for an architecture with widths w.
// Floating point formats left nil default to the IEEE format matching the
// width, little endian.
func NewBuiltin(w Widths) *Builtin {
	bt := &Builtin{}
	bt.Void = &Type{Name: "void", Code: TypeInt, Length: 1}

	bt.Int0 = NewInt("int0_t", 0)
	bt.Int8 = NewInt("int8_t", 1)
	bt.Int16 = NewInt("int16_t", 2)
	bt.Int32 = NewInt("int32_t", 4)
	bt.Int64 = NewInt("int64_t", 8)
	bt.Int128 = NewInt("int128_t", 16)
	bt.Uint8 = NewUnsigned("uint8_t", 1)
	bt.Uint16 = NewUnsigned("uint16_t", 2)
	bt.Uint32 = NewUnsigned("uint32_t", 4)
	bt.Uint64 = NewUnsigned("uint64_t", 8)
	bt.Uint128 = NewUnsigned("uint128_t", 16)

	bt.Char = NewInt("char", w.Char/8)
	bt.Short = NewInt("short", w.Short/8)
	bt.Int = NewInt("int", w.Int/8)
	bt.Long = NewInt("long", w.Long/8)
	bt.LongLong = NewInt("long long", w.LongLong/8)
	bt.UnsignedShort = NewUnsigned("unsigned short", w.Short/8)
	bt.UnsignedInt = NewUnsigned("unsigned int", w.Int/8)
	bt.UnsignedLong = NewUnsigned("unsigned long", w.Long/8)
	bt.Bool = &Type{Name: "bool", Code: TypeBool, Length: 1, Unsigned: true}

	fmtOr := func(f *FloatFormat, bits int) *FloatFormat {
		if f != nil {
			return f
		}
		return DefaultFloatFormat(bits, false)
	}
	newFloat := func(name string, bits int, f *FloatFormat) *Type {
		f = fmtOr(f, bits)
		if f == nil {
			return NewUnsigned(name, bits/8)
		}
		return NewFloat(name, bits/8, f)
	}
	bt.Half = newFloat("half", w.Half, w.HalfFmt)
	bt.Float = newFloat("float", w.Float, w.FloatFmt)
	bt.Double = newFloat("double", w.Double, w.DoubleFmt)
	bt.LongDouble = newFloat("long double", w.LongDouble, w.LongDoubleFmt)
	bt.IEEESingle = NewFloat("ieee_single", 4, IEEESingleLittle)
	bt.IEEEDouble = NewFloat("ieee_double", 8, IEEEDoubleLittle)

	bt.DataPtr = NewPointer(bt.Void, w.Ptr/8, false)
	bt.DataPtr.Name = "data_ptr"
	bt.FuncPtr = NewPointer(bt.Void, w.Ptr/8, true)
	bt.FuncPtr.Name = "code_ptr"
	return bt
}
