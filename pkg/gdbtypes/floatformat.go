package gdbtypes

import (
	"encoding/binary"
	"math"
)

// FloatFormat describes the bit layout of a floating point encoding.
// Bit positions are counted from the most significant bit of the value once
// its bytes have been arranged in big endian order, bit 0 being the sign bit
// of every format we know about.
type FloatFormat struct {
	Name      string
	ByteOrder binary.ByteOrder
	TotalBits int

	SignStart int
	ExpStart  int
	ExpLen    int
	ExpBias   int
	// ExpNaN is the exponent value reserved for infinities and NaNs.
	ExpNaN   uint64
	ManStart int
	ManLen   int
	// IntBit is true when the integer bit of the significand is stored
	// explicitly (i387 extended precision).
	IntBit bool
}

// Len returns the size in bytes of a value encoded with f.
func (f *FloatFormat) Len() int {
	return (f.TotalBits + 7) / 8
}

var (
	IEEEHalfBig = &FloatFormat{
		Name: "ieee_half_big", ByteOrder: binary.BigEndian, TotalBits: 16,
		SignStart: 0, ExpStart: 1, ExpLen: 5, ExpBias: 15, ExpNaN: 31, ManStart: 6, ManLen: 10,
	}
	IEEEHalfLittle = &FloatFormat{
		Name: "ieee_half_little", ByteOrder: binary.LittleEndian, TotalBits: 16,
		SignStart: 0, ExpStart: 1, ExpLen: 5, ExpBias: 15, ExpNaN: 31, ManStart: 6, ManLen: 10,
	}
	BFloat16Big = &FloatFormat{
		Name: "bfloat16_big", ByteOrder: binary.BigEndian, TotalBits: 16,
		SignStart: 0, ExpStart: 1, ExpLen: 8, ExpBias: 127, ExpNaN: 255, ManStart: 9, ManLen: 7,
	}
	BFloat16Little = &FloatFormat{
		Name: "bfloat16_little", ByteOrder: binary.LittleEndian, TotalBits: 16,
		SignStart: 0, ExpStart: 1, ExpLen: 8, ExpBias: 127, ExpNaN: 255, ManStart: 9, ManLen: 7,
	}
	IEEESingleBig = &FloatFormat{
		Name: "ieee_single_big", ByteOrder: binary.BigEndian, TotalBits: 32,
		SignStart: 0, ExpStart: 1, ExpLen: 8, ExpBias: 127, ExpNaN: 255, ManStart: 9, ManLen: 23,
	}
	IEEESingleLittle = &FloatFormat{
		Name: "ieee_single_little", ByteOrder: binary.LittleEndian, TotalBits: 32,
		SignStart: 0, ExpStart: 1, ExpLen: 8, ExpBias: 127, ExpNaN: 255, ManStart: 9, ManLen: 23,
	}
	IEEEDoubleBig = &FloatFormat{
		Name: "ieee_double_big", ByteOrder: binary.BigEndian, TotalBits: 64,
		SignStart: 0, ExpStart: 1, ExpLen: 11, ExpBias: 1023, ExpNaN: 2047, ManStart: 12, ManLen: 52,
	}
	IEEEDoubleLittle = &FloatFormat{
		Name: "ieee_double_little", ByteOrder: binary.LittleEndian, TotalBits: 64,
		SignStart: 0, ExpStart: 1, ExpLen: 11, ExpBias: 1023, ExpNaN: 2047, ManStart: 12, ManLen: 52,
	}
	IEEEQuadBig = &FloatFormat{
		Name: "ieee_quad_big", ByteOrder: binary.BigEndian, TotalBits: 128,
		SignStart: 0, ExpStart: 1, ExpLen: 15, ExpBias: 16383, ExpNaN: 0x7fff, ManStart: 16, ManLen: 112,
	}
	IEEEQuadLittle = &FloatFormat{
		Name: "ieee_quad_little", ByteOrder: binary.LittleEndian, TotalBits: 128,
		SignStart: 0, ExpStart: 1, ExpLen: 15, ExpBias: 16383, ExpNaN: 0x7fff, ManStart: 16, ManLen: 112,
	}
	I387Ext = &FloatFormat{
		Name: "i387_ext", ByteOrder: binary.LittleEndian, TotalBits: 80,
		SignStart: 0, ExpStart: 1, ExpLen: 15, ExpBias: 0x3fff, ExpNaN: 0x7fff, ManStart: 16, ManLen: 64,
		IntBit: true,
	}
	ARMExtBig = &FloatFormat{
		Name: "arm_ext_big", ByteOrder: binary.BigEndian, TotalBits: 96,
		SignStart: 0, ExpStart: 17, ExpLen: 15, ExpBias: 0x3fff, ExpNaN: 0x7fff, ManStart: 32, ManLen: 64,
		IntBit: true,
	}
)

// DefaultFloatFormat returns the IEEE format for a floating point type of
// the given width, nil if there isn't one.
func DefaultFloatFormat(bits int, bigEndian bool) *FloatFormat {
	pick := func(big, little *FloatFormat) *FloatFormat {
		if bigEndian {
			return big
		}
		return little
	}
	switch bits {
	case 16:
		return pick(IEEEHalfBig, IEEEHalfLittle)
	case 32:
		return pick(IEEESingleBig, IEEESingleLittle)
	case 64:
		return pick(IEEEDoubleBig, IEEEDoubleLittle)
	case 128:
		return pick(IEEEQuadBig, IEEEQuadLittle)
	}
	return nil
}

// canonical returns the first Len() bytes of buf arranged in big endian
// order.
func (f *FloatFormat) canonical(buf []byte) []byte {
	n := f.Len()
	out := make([]byte, n)
	copy(out, buf[:n])
	if f.ByteOrder == binary.LittleEndian {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// field extracts length bits (at most 64) starting at bit start of the
// canonical representation data.
func field(data []byte, start, length int) uint64 {
	var v uint64
	for i := 0; i < length; i++ {
		bit := start + i
		b := data[bit/8] >> (7 - uint(bit%8)) & 1
		v = v<<1 | uint64(b)
	}
	return v
}

// IsNaN reports whether buf holds a NaN encoded with f.
func (f *FloatFormat) IsNaN(buf []byte) bool {
	data := f.canonical(buf)
	if field(data, f.ExpStart, f.ExpLen) != f.ExpNaN {
		return false
	}
	man, _ := f.mantissa(data)
	return man != 0
}

// mantissa returns the (possibly truncated) stored significand and the
// number of bits it holds.
func (f *FloatFormat) mantissa(data []byte) (uint64, int) {
	start, length := f.ManStart, f.ManLen
	if f.IntBit {
		// the integer bit is not part of the fraction
		start++
		length--
	}
	if length > 64 {
		length = 64
	}
	return field(data, start, length), length
}

// ToFloat64 decodes buf, which must be at least f.Len() bytes long.
// Precision beyond that of a float64 is lost.
func (f *FloatFormat) ToFloat64(buf []byte) float64 {
	data := f.canonical(buf)
	sign := 1.0
	if field(data, f.SignStart, 1) != 0 {
		sign = -1.0
	}
	exp := field(data, f.ExpStart, f.ExpLen)
	man, manLen := f.mantissa(data)

	if exp == f.ExpNaN {
		if man == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}

	frac := math.Ldexp(float64(man), -manLen)
	if exp == 0 {
		// denormal
		return sign * math.Ldexp(frac, 1-f.ExpBias)
	}
	if f.IntBit && field(data, f.ManStart, 1) == 0 {
		// unnormal numbers are invalid operands on the i387
		return math.NaN()
	}
	return sign * math.Ldexp(1+frac, int(exp)-f.ExpBias)
}
