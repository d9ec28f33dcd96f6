package gdbtypes

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestFloatFormatIEEE(t *testing.T) {
	buf := make([]byte, 8)
	for _, v := range []float64{0, 1, -2.5, 3.1415926, 1e300, -1e-300} {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if got := IEEEDoubleLittle.ToFloat64(buf); got != v {
			t.Errorf("double little %g: got %g", v, got)
		}
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		if got := IEEEDoubleBig.ToFloat64(buf); got != v {
			t.Errorf("double big %g: got %g", v, got)
		}
	}

	sbuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sbuf, math.Float32bits(-0.75))
	if got := IEEESingleLittle.ToFloat64(sbuf); got != -0.75 {
		t.Errorf("single: got %g", got)
	}

	binary.LittleEndian.PutUint32(sbuf, math.Float32bits(float32(math.Inf(-1))))
	if got := IEEESingleLittle.ToFloat64(sbuf); !math.IsInf(got, -1) {
		t.Errorf("single -inf: got %g", got)
	}
	binary.LittleEndian.PutUint32(sbuf, 0x7fc00000)
	if !IEEESingleLittle.IsNaN(sbuf) {
		t.Errorf("expected NaN")
	}
}

func TestFloatFormatI387(t *testing.T) {
	// 1.0 in extended precision: exponent 0x3fff, significand 0x8000000000000000
	buf := make([]byte, 10)
	binary.LittleEndian.PutUint64(buf[:8], 1<<63)
	binary.LittleEndian.PutUint16(buf[8:], 0x3fff)
	if got := I387Ext.ToFloat64(buf); got != 1.0 {
		t.Errorf("i387 1.0: got %g", got)
	}

	// -3.0: exponent 0x4000, significand 0xc000000000000000
	binary.LittleEndian.PutUint64(buf[:8], 3<<62)
	binary.LittleEndian.PutUint16(buf[8:], 0xc000)
	if got := I387Ext.ToFloat64(buf); got != -3.0 {
		t.Errorf("i387 -3.0: got %g", got)
	}
}

func TestTypeFormat(t *testing.T) {
	u32 := NewUnsigned("uint32_t", 4)
	if s := u32.FormatValue([]byte{0x78, 0x56, 0x34, 0x12}, binary.LittleEndian); s != "0x12345678" {
		t.Errorf("unsigned: got %q", s)
	}
	i16 := NewInt("int16_t", 2)
	if s := i16.FormatValue([]byte{0xfe, 0xff}, binary.LittleEndian); s != "-2" {
		t.Errorf("signed: got %q", s)
	}
	v := NewVector("v2_int16", i16, 2)
	if s := v.FormatValue([]byte{1, 0, 2, 0}, binary.LittleEndian); s != "{1, 2}" {
		t.Errorf("vector: got %q", s)
	}
	fl := NewFlags("flags", 4, FlagField{Name: "CF", Start: 0}, FlagField{Name: "ZF", Start: 6})
	if s := fl.FormatValue([]byte{0x41, 0, 0, 0}, binary.LittleEndian); s != "0x41\t[ CF ZF ]" {
		t.Errorf("flags: got %q", s)
	}
	wide := NewUnsigned("uint128_t", 16)
	buf := make([]byte, 16)
	buf[0] = 1
	buf[15] = 0xab
	if s := wide.FormatValue(buf, binary.LittleEndian); s != "0xab000000000000000000000000000001" {
		t.Errorf("uint128: got %q", s)
	}
}

func TestExtractSigned(t *testing.T) {
	if v := ExtractSigned([]byte{0x80}, binary.LittleEndian); v != -128 {
		t.Errorf("got %d", v)
	}
	buf := make([]byte, 4)
	StoreUnsigned(buf, binary.BigEndian, 0xdeadbeef)
	if buf[0] != 0xde || buf[3] != 0xef {
		t.Errorf("big endian store: %x", buf)
	}
	if v := ExtractUnsigned(buf, binary.BigEndian); v != 0xdeadbeef {
		t.Errorf("got %#x", v)
	}
}
