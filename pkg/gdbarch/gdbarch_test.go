package gdbarch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

var (
	testU32   = gdbtypes.NewUnsigned("uint32_t", 4)
	testFloat = gdbtypes.NewFloat("float", 4, gdbtypes.IEEESingleLittle)
	testVec   = gdbtypes.NewVector("v4i8", gdbtypes.NewInt("int8_t", 1), 4)
)

var testRegNames = []string{"r0", "r1", "f0", "v0", "pc"}

// setupTestArch fills a with a small architecture: r0, r1, f0 (float),
// v0 (vector) and pc.
func setupTestArch(a *Gdbarch) {
	a.SetNumRegs(len(testRegNames))
	a.SetPCRegnum(4)
	a.SetSPRegnum(1)
	a.SetRegisterName(func(a *Gdbarch, regnum int) string { return testRegNames[regnum] })
	a.SetRegisterType(func(a *Gdbarch, regnum int) *gdbtypes.Type {
		switch regnum {
		case 2:
			return testFloat
		case 3:
			return testVec
		}
		return testU32
	})
	a.SetBreakpointFromPC(func(a *Gdbarch, pc uint64) (uint64, []byte) { return pc, []byte{0xcc} })
	a.SetSkipPrologue(func(a *Gdbarch, mem MemoryReader, pc uint64) uint64 { return pc })
	a.SetInnerThan(CoreAddrLessThan)
}

type testFamily struct {
	builds int
	reject bool
	setup  func(a *Gdbarch)
	tdep   DumpTdepFunc
}

func (f *testFamily) init(info Info, arches *List) *Gdbarch {
	if f.reject {
		return nil
	}
	if a := arches.Lookup(info); a != nil {
		return a
	}
	f.builds++
	a := Alloc(&info, f)
	if f.setup != nil {
		f.setup(a)
	} else {
		setupTestArch(a)
	}
	return a
}

func newTestRegistry(f *testFamily) *Registry {
	r := NewRegistry()
	r.Register(ArchI386, f.init, f.tdep)
	return r
}

func mustFind(t *testing.T, r *Registry, info Info) *Gdbarch {
	t.Helper()
	a, err := r.FindByInfo(info)
	if err != nil {
		t.Fatalf("FindByInfo(%v): %v", info, err)
	}
	if a == nil {
		t.Fatalf("FindByInfo(%v): no architecture", info)
	}
	return a
}

func expectMisuse(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		ierr := recover()
		if ierr == nil {
			t.Errorf("%s: expected panic", what)
			return
		}
		if _, ok := ierr.(*MisuseError); !ok {
			t.Errorf("%s: expected *MisuseError, got %T %v", what, ierr, ierr)
		}
	}()
	fn()
}

func TestFindByInfoMRU(t *testing.T) {
	f := &testFamily{}
	r := newTestRegistry(f)
	k1 := Info{ArchInfo: LookupArchInfo("i386")}
	k2 := Info{ArchInfo: LookupArchInfo("amd64")}

	a1 := mustFind(t, r, k1)
	a2 := mustFind(t, r, k2)
	if a1 == a2 {
		t.Fatalf("same architecture returned for %v and %v", k1, k2)
	}
	if arches := r.Arches(ArchI386); arches[0] != a2 || arches[1] != a1 {
		t.Errorf("wrong order after k1, k2: %v", arches)
	}

	a3 := mustFind(t, r, k1)
	if a3 != a1 {
		t.Errorf("k1 returned %p then %p", a1, a3)
	}
	arches := r.Arches(ArchI386)
	if len(arches) != 2 || arches[0] != a1 || arches[1] != a2 {
		t.Errorf("wrong order after k1, k2, k1: %v", arches)
	}
}

func TestFindByInfoSingleConstruction(t *testing.T) {
	f := &testFamily{}
	r := newTestRegistry(f)
	info := Info{ArchInfo: LookupArchInfo("x86-64"), OSABI: OSABILinux}
	a1 := mustFind(t, r, info)
	a2 := mustFind(t, r, info)
	if a1 != a2 {
		t.Errorf("different architectures for the same key")
	}
	if f.builds != 1 {
		t.Errorf("constructor built %d architectures", f.builds)
	}
	if !a1.Initialized() {
		t.Errorf("architecture not initialized")
	}
}

func TestFindByInfoExactMatch(t *testing.T) {
	f := &testFamily{}
	r := newTestRegistry(f)
	ai := LookupArchInfo("i386")
	td1, td2 := tdesc.New("i386"), tdesc.New("i386")

	keys := []Info{
		{ArchInfo: ai},
		{ArchInfo: ai, ByteOrder: BigEndian},
		{ArchInfo: ai, OSABI: OSABILinux},
		{ArchInfo: ai, Tdesc: td1},
		{ArchInfo: ai, Tdesc: td2},
	}
	seen := map[*Gdbarch]bool{}
	for _, k := range keys {
		seen[mustFind(t, r, k)] = true
	}
	if len(seen) != len(keys) || f.builds != len(keys) {
		t.Errorf("expected %d architectures, got %d (%d builds)", len(keys), len(seen), f.builds)
	}
}

func TestFindByInfoDefaults(t *testing.T) {
	f := &testFamily{}
	r := newTestRegistry(f)
	r.SetDefaults(Info{ArchInfo: LookupArchInfo("amd64"), OSABI: OSABILinux})

	a := mustFind(t, r, Info{})
	if a.ArchInfo().Name != "i386:x86-64" {
		t.Errorf("wrong default architecture %s", a.ArchInfo().Name)
	}
	if a.ByteOrder() != LittleEndian || a.ByteOrderForCode() != LittleEndian {
		t.Errorf("wrong byte order %v/%v", a.ByteOrder(), a.ByteOrderForCode())
	}
	if a.OSABI() != OSABILinux {
		t.Errorf("wrong osabi %q", a.OSABI())
	}

	td := tdesc.New("aarch64")
	td.OSABI = "GNU/Linux"
	if a, err := r.FindByInfo(Info{Tdesc: td}); a != nil || err != nil {
		t.Errorf("aarch64 description selected %v %v without a registered family", a, err)
	}
}

func TestFindByInfoNoMatch(t *testing.T) {
	f := &testFamily{}
	r := newTestRegistry(f)
	a, err := r.FindByInfo(Info{ArchInfo: LookupArchInfo("riscv64")})
	if a != nil || err != nil {
		t.Errorf("unknown family: %v %v", a, err)
	}
	a, err = r.FindByInfo(Info{})
	if a != nil || err != nil {
		t.Errorf("no architecture: %v %v", a, err)
	}

	f.reject = true
	a, err = r.FindByInfo(Info{ArchInfo: LookupArchInfo("i386")})
	if a != nil || err != nil {
		t.Errorf("rejected: %v %v", a, err)
	}

	if _, err := r.MustFindByInfo(Info{ArchInfo: LookupArchInfo("i386")}); err == nil {
		t.Errorf("MustFindByInfo succeeded")
	}
}

func TestVerifyAggregatesMissingFields(t *testing.T) {
	f := &testFamily{setup: func(a *Gdbarch) {}}
	r := newTestRegistry(f)
	a, err := r.FindByInfo(Info{ArchInfo: LookupArchInfo("i386")})
	if a != nil {
		t.Fatalf("incomplete architecture returned")
	}
	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConstructionError, got %T %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "could not select an architecture for this target") {
		t.Errorf("wrong message %q", err.Error())
	}
	var verr *VerifyError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a *VerifyError, got %T", cerr.Err)
	}
	want := []string{"num_regs", "register_name", "breakpoint_from_pc", "skip_prologue", "inner_than"}
	if strings.Join(verr.Missing, ",") != strings.Join(want, ",") {
		t.Errorf("missing fields %v, expected %v", verr.Missing, want)
	}
	for _, m := range want {
		if !strings.Contains(err.Error(), "\n\t"+m) {
			t.Errorf("message does not mention %s: %q", m, err.Error())
		}
	}
	if n := len(r.Arches(ArchI386)); n != 0 {
		t.Errorf("failed architecture registered (%d)", n)
	}
}

func TestVerifyPseudoRegisters(t *testing.T) {
	f := &testFamily{setup: func(a *Gdbarch) {
		setupTestArch(a)
		a.SetNumPseudoRegs(1)
	}}
	r := newTestRegistry(f)
	_, err := r.FindByInfo(Info{ArchInfo: LookupArchInfo("i386")})
	var verr *VerifyError
	if !errors.As(err, &verr) || len(verr.Missing) != 1 || verr.Missing[0] != "pseudo_register_read" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDefaultsFilledByVerify(t *testing.T) {
	r := newTestRegistry(&testFamily{setup: func(a *Gdbarch) {
		setupTestArch(a)
		a.SetPtrBit(64)
		a.SetLongBit(64)
	}})
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("amd64")})
	if a.AddrBit() != 64 || a.Dwarf2AddrSize() != 8 {
		t.Errorf("addr_bit %d dwarf2_addr_size %d", a.AddrBit(), a.Dwarf2AddrSize())
	}
	if !a.CharSigned() || !a.WcharSigned() {
		t.Errorf("char_signed and wchar_signed should default to true")
	}
	if a.FloatFormat() != gdbtypes.IEEESingleLittle || a.DoubleFormat() != gdbtypes.IEEEDoubleLittle {
		t.Errorf("float formats %v %v", a.FloatFormat(), a.DoubleFormat())
	}
	if a.NumPseudoRegs() != 0 || a.FP0Regnum() != -1 || a.PSRegnum() != -1 {
		t.Errorf("wrong register defaults")
	}
	if a.CannotStoreRegister(0) || a.CannotFetchRegister(0) {
		t.Errorf("cannot_{fetch,store}_register should default to false")
	}
	if a.Dwarf2RegToRegnum(2) != 2 || a.StabRegToRegnum(100) != -1 {
		t.Errorf("wrong default register mapping")
	}
	if a.AddrBitsRemove(0xff00000000001000) != 0xff00000000001000 {
		t.Errorf("addr_bits_remove should be the identity")
	}
	if regnum, off := a.VirtualFramePointer(0); regnum != 1 || off != 0 {
		t.Errorf("virtual frame pointer %d %d", regnum, off)
	}

	buf := make([]byte, 8)
	a.AddressToPointer(BuiltinTypes(a).DataPtr, buf, 0x1122334455667788)
	if buf[0] != 0x88 || a.PointerToAddress(BuiltinTypes(a).DataPtr, buf) != 0x1122334455667788 {
		t.Errorf("pointer conversion %x", buf)
	}
	if BuiltinTypes(a).Long.Length != 8 {
		t.Errorf("long is %d bytes", BuiltinTypes(a).Long.Length)
	}
}

func TestInitializedIsImmutable(t *testing.T) {
	r := newTestRegistry(&testFamily{})
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("i386")})
	expectMisuse(t, "SetNumRegs", func() { a.SetNumRegs(3) })
	expectMisuse(t, "SetRegisterName", func() { a.SetRegisterName(nil) })
	expectMisuse(t, "AddReggroup", func() { AddReggroup(a, NewReggroup("mine")) })
	if a.NumRegs() != len(testRegNames) {
		t.Errorf("num_regs changed")
	}
}

func TestUnsetHooks(t *testing.T) {
	r := newTestRegistry(&testFamily{})
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("i386")})
	if a.HasReadPC() || a.HasPseudoRegisterRead() || a.HasReturnValue() || a.HasSoftwareSingleStep() {
		t.Errorf("unexpected hooks")
	}
	expectMisuse(t, "ReadPC", func() { a.ReadPC(nil) })
	expectMisuse(t, "PseudoRegisterRead", func() { a.PseudoRegisterRead(nil, 5, nil) })
	expectMisuse(t, "FrameAlign", func() { a.FrameAlign(0) })
	expectMisuse(t, "RegisterName", func() { a.RegisterName(len(testRegNames)) })
	expectMisuse(t, "RegisterType", func() { a.RegisterType(-1) })
}

func TestRegisterMisuse(t *testing.T) {
	r := NewRegistry()
	f := &testFamily{}
	r.Register(ArchAArch64, f.init, nil)
	expectMisuse(t, "duplicate", func() { r.Register(ArchAArch64, f.init, nil) })
	expectMisuse(t, "unknown", func() { r.Register(Arch(200), f.init, nil) })
	if fam := r.Families(); len(fam) != 1 || fam[0] != ArchAArch64 {
		t.Errorf("families %v", fam)
	}
}

func TestDump(t *testing.T) {
	f := &testFamily{tdep: func(a *Gdbarch, w io.Writer) {
		fmt.Fprintf(w, "test_dump_tdep: builds = %d\n", a.Tdep().(*testFamily).builds)
	}}
	r := newTestRegistry(f)
	a := mustFind(t, r, Info{ArchInfo: LookupArchInfo("i386")})
	var buf bytes.Buffer
	a.Dump(&buf)
	out := buf.String()
	for _, s := range []string{
		"gdbarch_dump: bfd_arch_info = i386\n",
		"gdbarch_dump: num_regs = 5\n",
		"gdbarch_dump: pc_regnum = 4\n",
		"gdbarch_dump: gdbarch_register_type_p() = 1\n",
		"gdbarch_dump: gdbarch_read_pc_p() = 0\n",
		"gdbarch_dump: read_pc = <nil>\n",
		"gdbarch_dump: float_format = ieee_single_little\n",
		"test_dump_tdep: builds = 1\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("dump does not contain %q", s)
		}
	}
	if !strings.Contains(out, "gdbarch_dump: register_name = <0x") {
		t.Errorf("register_name hook not rendered")
	}
}
