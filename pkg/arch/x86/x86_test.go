package x86

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-delve/dbgcore/pkg/dwarf/regnum"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/target"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

func newRegistry() *gdbarch.Registry {
	r := gdbarch.NewRegistry()
	Register(r)
	return r
}

func findArch(t *testing.T, r *gdbarch.Registry, info gdbarch.Info) *gdbarch.Gdbarch {
	t.Helper()
	a, err := r.MustFindByInfo(info)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func amd64Arch(t *testing.T) *gdbarch.Gdbarch {
	return findArch(t, newRegistry(), gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo("amd64"), OSABI: gdbarch.OSABILinux})
}

func i386Arch(t *testing.T) *gdbarch.Gdbarch {
	return findArch(t, newRegistry(), gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo("i386"), OSABI: gdbarch.OSABILinux})
}

func regnumOf(t *testing.T, a *gdbarch.Gdbarch, name string) int {
	t.Helper()
	n := gdbarch.UserRegMapNameToRegnum(a, name)
	if n < 0 {
		t.Fatalf("no register %s in %s", name, a)
	}
	return n
}

// fakeTarget holds the registers of a single thread.
type fakeTarget struct {
	values map[int][]byte
	stores []int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{values: map[int][]byte{}}
}

func (ft *fakeTarget) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	if regnum < 0 {
		for n, v := range ft.values {
			rb.RawSupply(n, v)
		}
		return nil
	}
	if v, ok := ft.values[regnum]; ok {
		rb.RawSupply(regnum, v)
	}
	return nil
}

func (ft *fakeTarget) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	ft.stores = append(ft.stores, regnum)
	v := make([]byte, regcache.RegisterSize(rb.Arch(), regnum))
	rb.RawCollect(regnum, v)
	ft.values[regnum] = v
	return nil
}

func (ft *fakeTarget) PrepareToStore(rb target.RegisterBuffer) error { return nil }

func (ft *fakeTarget) String() string { return "fake" }

func (ft *fakeTarget) set(a *gdbarch.Gdbarch, regnum int, v uint64) {
	buf := make([]byte, regcache.RegisterSize(a, regnum))
	gdbtypes.StoreUnsigned(buf, binary.LittleEndian, v)
	ft.values[regnum] = buf
}

func (ft *fakeTarget) get(regnum int) uint64 {
	return gdbtypes.ExtractUnsigned(ft.values[regnum], binary.LittleEndian)
}

// fakeMemory is a sparse little endian memory.
type fakeMemory map[uint64]byte

func (m fakeMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	for i := range buf {
		buf[i] = m[addr+uint64(i)]
	}
	return len(buf), nil
}

func (m fakeMemory) WriteMemory(addr uint64, data []byte) (int, error) {
	for i, b := range data {
		m[addr+uint64(i)] = b
	}
	return len(data), nil
}

func (m fakeMemory) load(addr uint64, data []byte) {
	m.WriteMemory(addr, data)
}

func (m fakeMemory) word(addr uint64, size int) uint64 {
	buf := make([]byte, size)
	m.ReadMemory(buf, addr)
	return gdbtypes.ExtractUnsigned(buf, binary.LittleEndian)
}

func TestLayout(t *testing.T) {
	tests := []struct {
		arch       string
		numRegs    int
		numPseudo  int
		pc, sp, ps string
		names      []string
	}{
		{"amd64", 60, 51, "rip", "rsp", "eflags", []string{"rax", "r15", "xmm15", "orig_rax", "fs_base", "eax", "r8d", "r15w", "sil", "r9l", "ah"}},
		{"i386", 42, 15, "eip", "esp", "eflags", []string{"eax", "edi", "xmm7", "orig_eax", "ax", "di", "bl", "dh"}},
	}
	for _, tc := range tests {
		a := findArch(t, newRegistry(), gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo(tc.arch)})
		if a.NumRegs() != tc.numRegs || a.NumPseudoRegs() != tc.numPseudo {
			t.Errorf("%s: %d raw and %d pseudo registers, expected %d and %d", tc.arch, a.NumRegs(), a.NumPseudoRegs(), tc.numRegs, tc.numPseudo)
		}
		if name := a.RegisterName(a.PCRegnum()); name != tc.pc {
			t.Errorf("%s: pc is %s", tc.arch, name)
		}
		if name := a.RegisterName(a.SPRegnum()); name != tc.sp {
			t.Errorf("%s: sp is %s", tc.arch, name)
		}
		if name := a.RegisterName(a.PSRegnum()); name != tc.ps {
			t.Errorf("%s: ps is %s", tc.arch, name)
		}
		for _, name := range tc.names {
			if gdbarch.UserRegMapNameToRegnum(a, name) < 0 {
				t.Errorf("%s: missing register %s", tc.arch, name)
			}
		}
		// the 16 bit view of the stack pointer would hide $sp
		sp, err := gdbarch.UserRegResolve(a, gdbarch.UserRegMapNameToRegnum(a, "sp"))
		if err != nil || sp != a.SPRegnum() {
			t.Errorf("%s: $sp resolves to %d %v", tc.arch, sp, err)
		}
		if a.RegisterType(a.FP0Regnum()).Length != 10 {
			t.Errorf("%s: st0 is %d bytes long", tc.arch, a.RegisterType(a.FP0Regnum()).Length)
		}
	}
}

func TestPseudoRegisters(t *testing.T) {
	a := amd64Arch(t)
	ft := newFakeTarget()
	rax := regnumOf(t, a, "rax")
	rbx := regnumOf(t, a, "rbx")
	ft.set(a, rax, 0x1122334455667788)
	ft.set(a, rbx, 0xaabbccdd)
	rc := regcache.New(ft, a, target.Ptid{Pid: 1, Lwp: 1}, nil)

	for _, tc := range []struct {
		name string
		v    uint64
	}{
		{"eax", 0x55667788},
		{"ax", 0x7788},
		{"al", 0x88},
		{"ah", 0x77},
		{"bh", 0xcc},
		{"ebx", 0xaabbccdd},
	} {
		v, status, err := rc.CookedReadUnsigned(regnumOf(t, a, tc.name))
		if err != nil || status != regcache.Valid || v != tc.v {
			t.Errorf("%s: %#x %v %v, expected %#x", tc.name, v, status, err, tc.v)
		}
	}

	if err := rc.CookedWriteUnsigned(regnumOf(t, a, "eax"), 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if got := ft.get(rax); got != 0x11223344deadbeef {
		t.Errorf("rax after writing eax: %#x", got)
	}
	if err := rc.CookedWriteUnsigned(regnumOf(t, a, "ah"), 0x42); err != nil {
		t.Fatal(err)
	}
	if got := ft.get(rax); got != 0x11223344dead42ef {
		t.Errorf("rax after writing ah: %#x", got)
	}

	// r12 is not supplied by the target
	if _, status, _ := rc.CookedReadUnsigned(regnumOf(t, a, "r12d")); status != regcache.Unavailable {
		t.Errorf("r12d: %v", status)
	}
	stores := len(ft.stores)
	if err := rc.CookedWriteUnsigned(regnumOf(t, a, "r12w"), 1); err == nil {
		t.Errorf("r12w written while r12 is unavailable")
	}
	if len(ft.stores) != stores {
		t.Errorf("r12 stored: %v", ft.stores[stores:])
	}
}

func TestReggroups(t *testing.T) {
	a := amd64Arch(t)
	tests := []struct {
		name string
		in   []*gdbarch.Reggroup
		out  []*gdbarch.Reggroup
	}{
		{"rax", []*gdbarch.Reggroup{gdbarch.GeneralReggroup, gdbarch.AllReggroup, gdbarch.SaveReggroup}, []*gdbarch.Reggroup{gdbarch.FloatReggroup, SSEReggroup}},
		{"eflags", []*gdbarch.Reggroup{gdbarch.GeneralReggroup}, []*gdbarch.Reggroup{gdbarch.VectorReggroup}},
		{"st0", []*gdbarch.Reggroup{gdbarch.FloatReggroup, gdbarch.AllReggroup}, []*gdbarch.Reggroup{gdbarch.GeneralReggroup}},
		{"fctrl", []*gdbarch.Reggroup{gdbarch.FloatReggroup}, []*gdbarch.Reggroup{gdbarch.GeneralReggroup}},
		{"xmm3", []*gdbarch.Reggroup{gdbarch.VectorReggroup, SSEReggroup, gdbarch.RestoreReggroup}, []*gdbarch.Reggroup{gdbarch.GeneralReggroup, gdbarch.FloatReggroup}},
		{"mxcsr", []*gdbarch.Reggroup{gdbarch.VectorReggroup, SSEReggroup}, []*gdbarch.Reggroup{gdbarch.GeneralReggroup}},
		{"orig_rax", []*gdbarch.Reggroup{gdbarch.SystemReggroup, gdbarch.SaveReggroup}, []*gdbarch.Reggroup{gdbarch.GeneralReggroup}},
		{"eax", nil, []*gdbarch.Reggroup{gdbarch.GeneralReggroup, gdbarch.AllReggroup, gdbarch.SaveReggroup}},
	}
	for _, tc := range tests {
		n := regnumOf(t, a, tc.name)
		for _, g := range tc.in {
			if !a.RegisterReggroupP(n, g) {
				t.Errorf("%s should be in %s", tc.name, g)
			}
		}
		for _, g := range tc.out {
			if a.RegisterReggroupP(n, g) {
				t.Errorf("%s should not be in %s", tc.name, g)
			}
		}
	}
	if gdbarch.ReggroupByName(a, "sse") != SSEReggroup {
		t.Errorf("sse group not registered")
	}
}

func TestCannotStoreOrigRax(t *testing.T) {
	a := amd64Arch(t)
	ft := newFakeTarget()
	orig := regnumOf(t, a, "orig_rax")
	ft.set(a, orig, 0x3c)
	rc := regcache.New(ft, a, target.Ptid{Pid: 1, Lwp: 1}, nil)
	if err := rc.CookedWriteUnsigned(orig, 1); err != nil {
		t.Fatal(err)
	}
	if len(ft.stores) != 0 || ft.get(orig) != 0x3c {
		t.Errorf("orig_rax was stored: %v %#x", ft.stores, ft.get(orig))
	}
}

func TestDwarfRegisters(t *testing.T) {
	a := amd64Arch(t)
	for dwarfReg, name := range map[int]string{
		regnum.AMD64_Rsp:      "rsp",
		regnum.AMD64_Rdx:      "rdx",
		regnum.AMD64_Rip:      "rip",
		regnum.AMD64_XMM0 + 2: "xmm2",
		regnum.AMD64_ST0 + 1:  "st1",
		regnum.AMD64_Fs_base:  "fs_base",
	} {
		if got := a.Dwarf2RegToRegnum(dwarfReg); got != regnumOf(t, a, name) {
			t.Errorf("DWARF register %d maps to %d, expected %s", dwarfReg, got, name)
		}
	}
	if got := a.Dwarf2RegToRegnum(1000); got != -1 {
		t.Errorf("unknown DWARF register maps to %d", got)
	}

	i := i386Arch(t)
	if got := i.Dwarf2RegToRegnum(regnum.I386_Esp); got != i.SPRegnum() {
		t.Errorf("i386 esp maps to %d", got)
	}
}

func TestSkipPrologue(t *testing.T) {
	const pc = 0x401000
	tests := []struct {
		name string
		code []byte
		skip uint64
	}{
		{"full", []byte{0x55, 0x48, 0x89, 0xe5, 0x48, 0x83, 0xec, 0x10, 0x90}, 8},
		{"no sub", []byte{0x55, 0x48, 0x89, 0xe5, 0x90}, 4},
		{"endbr64", []byte{0xf3, 0x0f, 0x1e, 0xfa, 0x55, 0x48, 0x89, 0xe5, 0x90}, 8},
		{"push only", []byte{0x55, 0x90}, 1},
		{"none", []byte{0x90, 0x55}, 0},
	}
	a := amd64Arch(t)
	for _, tc := range tests {
		mem := fakeMemory{}
		mem.load(pc, tc.code)
		if got := a.SkipPrologue(mem, pc); got != pc+tc.skip {
			t.Errorf("%s: got %#x expected %#x", tc.name, got, pc+tc.skip)
		}
	}

	mem := fakeMemory{}
	mem.load(pc, []byte{0x55, 0x89, 0xe5, 0x83, 0xec, 0x18})
	if got := i386Arch(t).SkipPrologue(mem, pc); got != pc+6 {
		t.Errorf("i386: got %#x", got)
	}
}

func TestBreakpoint(t *testing.T) {
	a := amd64Arch(t)
	addr, insn := a.BreakpointFromPC(0x1000)
	if addr != 0x1000 || !bytes.Equal(insn, []byte{0xcc}) || a.DecrPCAfterBreak() != 1 {
		t.Errorf("breakpoint %#x %x decr %d", addr, insn, a.DecrPCAfterBreak())
	}
}

func TestTargetDescription(t *testing.T) {
	const xml = `<?xml version="1.0"?>
<target>
  <architecture>i386:x86-64</architecture>
  <feature name="org.gnu.gdb.i386.core">
    <reg name="rax" bitsize="64" type="int64"/>
    <reg name="rbx" bitsize="64" type="int64"/>
    <reg name="rbp" bitsize="64" type="data_ptr"/>
    <reg name="rsp" bitsize="64" type="data_ptr"/>
    <reg name="rip" bitsize="64" type="code_ptr"/>
    <reg name="eflags" bitsize="32" type="i386_eflags"/>
  </feature>
</target>`
	desc, err := tdesc.Parse([]byte(xml), nil)
	if err != nil {
		t.Fatal(err)
	}
	r := newRegistry()
	a := findArch(t, r, gdbarch.Info{Tdesc: desc})
	if a.ArchInfo().Name != "i386:x86-64" || a.NumRegs() != 6 {
		t.Fatalf("got %s with %d registers", a.ArchInfo(), a.NumRegs())
	}
	if a.PCRegnum() != 4 || a.RegisterType(4).Code != gdbtypes.TypeCodePtr {
		t.Errorf("pc is %d", a.PCRegnum())
	}
	// eax, ebx, ebp, esp; ax, bx, bp; al, bl, bpl, spl; ah, bh
	if a.NumPseudoRegs() != 13 {
		t.Errorf("%d pseudo registers", a.NumPseudoRegs())
	}
	if !strings.HasPrefix(a.RegisterType(a.PSRegnum()).FormatValue([]byte{0x46, 0x02, 0, 0}, binary.LittleEndian), "0x246\t[ PF ZF IF ]") {
		t.Errorf("eflags: %s", a.RegisterType(a.PSRegnum()).FormatValue([]byte{0x46, 0x02, 0, 0}, binary.LittleEndian))
	}

	noCore, err := tdesc.Parse([]byte(`<target><architecture>i386:x86-64</architecture><feature name="org.gnu.gdb.i386.sse"><reg name="xmm0" bitsize="128" type="vec128"/></feature></target>`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if a, err := r.FindByInfo(gdbarch.Info{Tdesc: noCore}); a != nil || err != nil {
		t.Errorf("description without core registers accepted: %v %v", a, err)
	}
}

func TestReturnValue(t *testing.T) {
	a := amd64Arch(t)
	bt := gdbarch.BuiltinTypes(a)
	ft := newFakeTarget()
	ft.set(a, regnumOf(t, a, "rax"), 42)
	xmm0 := make([]byte, 16)
	binary.LittleEndian.PutUint64(xmm0, math.Float64bits(2.5))
	ft.values[regnumOf(t, a, "xmm0")] = xmm0
	rc := regcache.New(ft, a, target.Ptid{Pid: 1, Lwp: 1}, nil)

	buf := make([]byte, 8)
	conv, err := a.ReturnValue(bt.Long, rc, buf, nil)
	if err != nil || conv != gdbarch.ReturnValueRegisterConvention || binary.LittleEndian.Uint64(buf) != 42 {
		t.Errorf("long: %v %v %x", conv, err, buf)
	}
	conv, err = a.ReturnValue(bt.Double, rc, buf, nil)
	if err != nil || conv != gdbarch.ReturnValueRegisterConvention || math.Float64frombits(binary.LittleEndian.Uint64(buf)) != 2.5 {
		t.Errorf("double: %v %v %x", conv, err, buf)
	}
	big := gdbtypes.NewUnion("big", gdbtypes.Field{Name: "a", Type: gdbtypes.NewVector("v", bt.Int64, 4)})
	if conv, _ := a.ReturnValue(big, rc, make([]byte, big.Length), nil); conv != gdbarch.ReturnValueABIReturnsAddress {
		t.Errorf("32 byte union: %v", conv)
	}

	i := i386Arch(t)
	ibt := gdbarch.BuiltinTypes(i)
	irc := regcache.New(newFakeTarget(), i, target.Ptid{Pid: 1, Lwp: 1}, nil)
	in := make([]byte, 8)
	binary.LittleEndian.PutUint64(in, math.Float64bits(-0.75))
	if _, err := i.ReturnValue(ibt.Double, irc, nil, in); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 8)
	if _, err := i.ReturnValue(ibt.Double, irc, out, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out) {
		t.Errorf("i386 double through st0: %x %x", in, out)
	}
}

func TestFloat64ToI387(t *testing.T) {
	for _, v := range []float64{0, 1, -1.5, 3.141592653589793, 1e300, 5e-324, math.Inf(1), math.Inf(-1)} {
		if got := gdbtypes.I387Ext.ToFloat64(float64ToI387(v)); got != v {
			t.Errorf("%g: got %g", v, got)
		}
	}
	if !gdbtypes.I387Ext.IsNaN(float64ToI387(math.NaN())) {
		t.Errorf("NaN not encoded as NaN")
	}
}

func TestPushDummyCall(t *testing.T) {
	a := amd64Arch(t)
	ft := newFakeTarget()
	rc := regcache.New(ft, a, target.Ptid{Pid: 1, Lwp: 1}, nil)
	mem := fakeMemory{}
	args := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	sp, err := a.PushDummyCall(rc, mem, 0x5000, args, 0x7fff0110)
	if err != nil {
		t.Fatal(err)
	}
	// 16 bytes of stack arguments, aligned, then the return address
	if sp != 0x7fff00f8 {
		t.Errorf("sp %#x", sp)
	}
	for i, name := range amd64ArgRegs {
		if got := ft.get(regnumOf(t, a, name)); got != args[i] {
			t.Errorf("%s = %d", name, got)
		}
	}
	if mem.word(sp, 8) != 0x5000 || mem.word(sp+8, 8) != 7 || mem.word(sp+16, 8) != 8 {
		t.Errorf("stack: %#x %d %d", mem.word(sp, 8), mem.word(sp+8, 8), mem.word(sp+16, 8))
	}
	if ft.get(a.SPRegnum()) != sp {
		t.Errorf("rsp %#x", ft.get(a.SPRegnum()))
	}

	v, err := a.FetchPointerArgument(rc, 1, gdbarch.BuiltinTypes(a).DataPtr)
	if err != nil || v != 2 {
		t.Errorf("second argument: %d %v", v, err)
	}
}

func TestLongjmpTarget(t *testing.T) {
	a := amd64Arch(t)
	if !a.HasGetLongjmpTarget() {
		t.Fatal("linux x86-64 should know where longjmp goes")
	}
	ft := newFakeTarget()
	ft.set(a, regnumOf(t, a, "rdi"), 0x9000)
	mem := fakeMemory{}
	pc := make([]byte, 8)
	binary.LittleEndian.PutUint64(pc, 0x401234)
	mem.load(0x9000+7*8, pc)
	rc := regcache.New(ft, a, target.Ptid{Pid: 1, Lwp: 1}, nil)
	got, err := a.GetLongjmpTarget(rc, mem)
	if err != nil || got != 0x401234 {
		t.Errorf("got %#x %v", got, err)
	}

	noOS := findArch(t, newRegistry(), gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo("amd64")})
	if noOS.HasGetLongjmpTarget() {
		t.Errorf("longjmp target without an OS ABI")
	}
}

func TestUserRegAlias(t *testing.T) {
	a := amd64Arch(t)
	n, err := gdbarch.UserRegResolve(a, gdbarch.UserRegMapNameToRegnum(a, "ip"))
	if err != nil || n != a.PCRegnum() {
		t.Errorf("$ip resolves to %d %v", n, err)
	}
	fp, err := gdbarch.UserRegResolve(a, gdbarch.UserRegMapNameToRegnum(a, "fp"))
	if err != nil || a.RegisterName(fp) != "rbp" {
		t.Errorf("$fp resolves to %d %v", fp, err)
	}
}

func TestDumpTdep(t *testing.T) {
	var buf bytes.Buffer
	amd64Arch(t).Dump(&buf)
	out := buf.String()
	for _, s := range []string{"x86_dump_tdep: bits = 64", "x86_dump_tdep: feature = org.gnu.gdb.i386.sse (17 registers)", "x86_dump_tdep: orig_ax_regnum = 57"} {
		if !strings.Contains(out, s) {
			t.Errorf("dump does not contain %q", s)
		}
	}
}
