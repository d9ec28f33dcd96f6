package regnum

import "testing"

func TestNames(t *testing.T) {
	tests := []struct {
		f    func(int) string
		num  int
		name string
	}{
		{AMD64ToName, AMD64_Rip, "rip"},
		{AMD64ToName, AMD64_R8 + 7, "r15"},
		{AMD64ToName, AMD64_ST0 + 3, "st3"},
		{AMD64ToName, AMD64_XMM0 + 15, "xmm15"},
		{AMD64ToName, 200, ""},
		{I386ToName, I386_Esp, "esp"},
		{I386ToName, I386_XMM0 + 7, "xmm7"},
		{ARM64ToName, ARM64_LR, "x30"},
		{ARM64ToName, ARM64_SP, "sp"},
		{ARM64ToName, ARM64_V0 + 31, "v31"},
		{ARM64ToName, 40, ""},
	}
	for _, tc := range tests {
		if got := tc.f(tc.num); got != tc.name {
			t.Errorf("%d: got %q expected %q", tc.num, got, tc.name)
		}
	}
	if AMD64NameToDwarf["eflags"] != AMD64_Rflags {
		t.Errorf("eflags maps to %d", AMD64NameToDwarf["eflags"])
	}
	if I386NameToDwarf["ebx"] != I386_Ebx {
		t.Errorf("ebx maps to %d", I386NameToDwarf["ebx"])
	}
}
