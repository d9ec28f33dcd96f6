package starbind

import (
	"encoding/binary"
	"math"
	"testing"

	"go.starlark.net/starlark"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/session"
)

func TestValueToRegisterString(t *testing.T) {
	f32 := make([]byte, 4)
	binary.LittleEndian.PutUint32(f32, math.Float32bits(1.5))
	for _, tc := range []struct {
		in  starlark.Value
		out string
	}{
		{starlark.MakeInt(42), "42"},
		{starlark.MakeInt(-1), "-1"},
		{starlark.Float(1.5), "1.5"},
		{starlark.String("0x10"), "0x10"},
		{registerValue{&session.Register{Name: "rax", Type: gdbtypes.NewUnsigned("uint64", 8), Bytes: []byte{5, 0, 0, 0, 0, 0, 0, 0}, Status: gdbarch.RegValid}}, "0x0000000000000005"},
		{registerValue{&session.Register{Name: "s0", Type: gdbtypes.NewFloat("ieee_single", 4, gdbtypes.IEEESingleLittle), Bytes: f32, Status: gdbarch.RegValid}}, "1.5"},
	} {
		s, err := valueToRegisterString(tc.in)
		if err != nil || s != tc.out {
			t.Errorf("%v: got %q %v", tc.in, s, err)
		}
	}

	for _, in := range []starlark.Value{
		starlark.NewList(nil),
		starlark.None,
		registerValue{&session.Register{Name: "rcx", Type: gdbtypes.NewUnsigned("uint64", 8), Bytes: make([]byte, 8), Status: gdbarch.RegUnavailable}},
	} {
		if s, err := valueToRegisterString(in); err == nil {
			t.Errorf("%v converted to %q", in, s)
		}
	}
}

func TestRegisterValue(t *testing.T) {
	reg := &session.Register{Name: "eflags", Regnum: 9, Type: gdbtypes.NewInt("int32", 4), Bytes: []byte{0x46, 0x02, 0, 0}, Status: gdbarch.RegValid}
	globals := starlark.StringDict{
		"r":    registerValue{reg},
		"gone": registerValue{&session.Register{Name: "rcx", Type: gdbtypes.NewInt("int64", 8), Bytes: make([]byte, 8), Status: gdbarch.RegUnavailable}},
	}
	for _, tc := range []struct {
		expr string
		want starlark.Value
	}{
		{"r.name", starlark.String("eflags")},
		{"r.regnum", starlark.MakeInt(9)},
		{"r.size", starlark.MakeInt(4)},
		{"r.value", starlark.MakeInt(0x246)},
		{"r.hex", starlark.String("0x00000246")},
		{"r.natural", starlark.String("582")},
		{"r.type.name", starlark.String("int32")},
		{"r.type.size", starlark.MakeInt(4)},
		{"r.available", starlark.True},
		{"bool(gone)", starlark.False},
		{"gone.value", starlark.None},
		{"gone.hex", starlark.None},
	} {
		v, err := starlark.Eval(&starlark.Thread{}, "test.star", tc.expr, globals)
		if err != nil {
			t.Errorf("%s: %v", tc.expr, err)
			continue
		}
		if eq, err := starlark.Equal(v, tc.want); err != nil || !eq {
			t.Errorf("%s: got %v, want %v", tc.expr, v, tc.want)
		}
	}
	if _, err := starlark.Eval(&starlark.Thread{}, "test.star", "r.missing", globals); err == nil {
		t.Errorf("missing attribute found")
	}
	if n := len(registerValue{reg}.AttrNames()); n != 9 {
		t.Errorf("%d attributes", n)
	}
}

func TestArchValue(t *testing.T) {
	a := gdbarch.Alloc(&gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo("arm64"), ByteOrder: gdbarch.LittleEndian, OSABI: gdbarch.OSABILinux}, nil)
	a.SetPtrBit(64)
	v := archValue{a}
	for _, tc := range []struct {
		attr string
		want starlark.Value
	}{
		{"name", starlark.String("aarch64")},
		{"byte_order", starlark.String("little")},
		{"osabi", starlark.String("GNU/Linux")},
		{"ptr_bit", starlark.MakeInt(64)},
		{"pc", starlark.None},
	} {
		got, err := v.Attr(tc.attr)
		if err != nil {
			t.Errorf("%s: %v", tc.attr, err)
			continue
		}
		if eq, _ := starlark.Equal(got, tc.want); !eq {
			t.Errorf("%s: got %v, want %v", tc.attr, got, tc.want)
		}
	}
	if got, err := v.Attr("Name"); got != nil || err != nil {
		t.Errorf("Name: %v %v", got, err)
	}
}
