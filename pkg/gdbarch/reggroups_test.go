package gdbarch

import (
	"reflect"
	"testing"
)

func TestDefaultReggroups(t *testing.T) {
	r := newTestRegistry(&testFamily{})
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("i386")})
	groups := Reggroups(a)
	if len(groups) != 7 || groups[0] != GeneralReggroup || groups[6] != RestoreReggroup {
		t.Errorf("wrong default groups %v", groups)
	}
	if ReggroupByName(a, "vector") != VectorReggroup || ReggroupByName(a, "sse") != nil {
		t.Errorf("ReggroupByName")
	}

	members := func(g *Reggroup) []int {
		var r []int
		for i := 0; i < a.NumCookedRegs(); i++ {
			if a.RegisterReggroupP(i, g) {
				r = append(r, i)
			}
		}
		return r
	}
	for _, tc := range []struct {
		g    *Reggroup
		want []int
	}{
		{GeneralReggroup, []int{0, 1, 4}},
		{FloatReggroup, []int{2}},
		{VectorReggroup, []int{3}},
		{AllReggroup, []int{0, 1, 2, 3, 4}},
		{SaveReggroup, []int{0, 1, 2, 3, 4}},
		{SystemReggroup, nil},
	} {
		if got := members(tc.g); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("group %s: got %v expected %v", tc.g, got, tc.want)
		}
	}
}

func TestArchReggroups(t *testing.T) {
	sse := NewReggroup("sse")
	r := newTestRegistry(&testFamily{setup: func(a *Gdbarch) {
		setupTestArch(a)
		AddReggroup(a, sse)
		AddReggroup(a, GeneralReggroup)
		AddReggroup(a, sse)
	}})
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("i386")})
	groups := Reggroups(a)
	if len(groups) != 2 || groups[0] != sse || groups[1] != GeneralReggroup {
		t.Errorf("wrong groups %v", groups)
	}
	if ReggroupByName(a, "sse") != sse {
		t.Errorf("sse not found")
	}
}
