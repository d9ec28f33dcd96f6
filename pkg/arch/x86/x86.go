// Package x86 builds the architectures of the i386 family: i386 and
// i386:x86-64.
package x86

import (
	"fmt"
	"io"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// Feature names of x86 target descriptions.
const (
	FeatureCore     = "org.gnu.gdb.i386.core"
	FeatureSSE      = "org.gnu.gdb.i386.sse"
	FeatureLinux    = "org.gnu.gdb.i386.linux"
	FeatureSegments = "org.gnu.gdb.i386.segments"
)

// SSEReggroup contains the xmm registers and mxcsr.
var SSEReggroup = gdbarch.NewReggroup("sse")

// Register adds the i386 family to reg.
func Register(reg *gdbarch.Registry) {
	reg.Register(gdbarch.ArchI386, initArch, dumpTdep)
}

// Tdep is the private data of x86 architectures.
type Tdep struct {
	bits int
	desc *tdesc.Description

	regs   []*tdesc.Reg // indexed by register number, nil for holes
	byName map[string]int
	pseudo []pseudoReg

	pc, sp, fp, eflags int
	origAX             int
}

func tdepOf(a *gdbarch.Gdbarch) *Tdep {
	return a.Tdep().(*Tdep)
}

// Bits returns 64 for x86-64 architectures and 32 for i386.
func (td *Tdep) Bits() int { return td.bits }

// Regnum returns the number of the raw register called name, or -1.
func (td *Tdep) Regnum(name string) int {
	if n, ok := td.byName[name]; ok {
		return n
	}
	return -1
}

func newTdep(desc *tdesc.Description, bits int) (*Tdep, error) {
	if desc.FindFeature(FeatureCore) == nil {
		return nil, fmt.Errorf("missing feature %s", FeatureCore)
	}
	td := &Tdep{
		bits:   bits,
		desc:   desc,
		regs:   make([]*tdesc.Reg, desc.NumRegs()),
		byName: make(map[string]int),
	}
	for _, r := range desc.Registers() {
		if td.regs[r.Regnum] != nil {
			return nil, fmt.Errorf("register number %d used by both %s and %s", r.Regnum, td.regs[r.Regnum].Name, r.Name)
		}
		td.regs[r.Regnum] = r
		td.byName[r.Name] = r.Regnum
	}

	names := i386Names
	if bits == 64 {
		names = amd64Names
	}
	for _, req := range []struct {
		name string
		p    *int
	}{{names.pc, &td.pc}, {names.sp, &td.sp}, {names.fp, &td.fp}, {"eflags", &td.eflags}} {
		n := td.Regnum(req.name)
		if n < 0 {
			return nil, fmt.Errorf("missing register %s", req.name)
		}
		*req.p = n
	}
	td.origAX = td.Regnum(names.origAX)
	td.pseudo = pseudoRegs(td, bits)
	return td, nil
}

func initArch(info gdbarch.Info, arches *gdbarch.List) *gdbarch.Gdbarch {
	if info.ByteOrder != gdbarch.LittleEndian {
		return nil
	}
	if a := arches.Lookup(info); a != nil {
		return a
	}

	bits := 32
	if info.ArchInfo.Mach == gdbarch.MachX8664 {
		bits = 64
	}
	desc := info.Tdesc
	if desc == nil {
		desc = defaultDescription(bits)
	}
	td, err := newTdep(desc, bits)
	if err != nil {
		if logflags.Gdbarch() {
			logflags.GdbarchLogger().Debugf("%s: rejecting target description: %v", info.ArchInfo, err)
		}
		return nil
	}

	a := gdbarch.Alloc(&info, td)

	if bits == 64 {
		a.SetLongBit(64)
		a.SetPtrBit(64)
		a.SetLongDoubleBit(128)
		a.SetFrameRedZoneSize(128)
	} else {
		a.SetLongDoubleBit(96)
	}
	a.SetLongDoubleFormat(gdbtypes.I387Ext)

	a.SetNumRegs(len(td.regs))
	a.SetNumPseudoRegs(len(td.pseudo))
	a.SetPCRegnum(td.pc)
	a.SetSPRegnum(td.sp)
	a.SetPSRegnum(td.eflags)
	if st0 := td.Regnum("st0"); st0 >= 0 {
		a.SetFP0Regnum(st0)
	}

	a.SetRegisterName(registerName)
	a.SetRegisterType(registerType)
	a.SetRegisterReggroupP(registerReggroupP)
	a.SetCannotStoreRegister(cannotStoreRegister)
	a.SetDwarf2RegToRegnum(dwarf2RegToRegnum)
	a.SetPseudoRegisterRead(pseudoRegisterRead)
	a.SetPseudoRegisterWrite(pseudoRegisterWrite)
	a.SetVirtualFramePointer(func(a *gdbarch.Gdbarch, pc uint64) (int, int64) {
		return tdepOf(a).fp, 0
	})

	a.SetBreakpointFromPC(breakpointFromPC)
	a.SetDecrPCAfterBreak(1)
	a.SetMaxInsnLength(maxInstructionLength)

	a.SetSkipPrologue(skipPrologue)
	a.SetInnerThan(gdbarch.CoreAddrLessThan)
	a.SetFrameAlign(func(a *gdbarch.Gdbarch, addr uint64) uint64 { return addr &^ 0xf })

	if bits == 64 {
		a.SetReturnValue(amd64ReturnValue)
		a.SetPushDummyCall(amd64PushDummyCall)
		a.SetFetchPointerArgument(amd64FetchPointerArgument)
	} else {
		a.SetReturnValue(i386ReturnValue)
		a.SetPushDummyCall(i386PushDummyCall)
	}
	if info.OSABI == gdbarch.OSABILinux {
		a.SetGetLongjmpTarget(getLongjmpTarget)
	}

	for _, g := range []*gdbarch.Reggroup{
		gdbarch.GeneralReggroup,
		gdbarch.FloatReggroup,
		SSEReggroup,
		gdbarch.VectorReggroup,
		gdbarch.SystemReggroup,
		gdbarch.AllReggroup,
		gdbarch.SaveReggroup,
		gdbarch.RestoreReggroup,
	} {
		gdbarch.AddReggroup(a, g)
	}
	gdbarch.AddUserReg(a, "ip", func(a *gdbarch.Gdbarch) int { return a.PCRegnum() })
	return a
}

func dumpTdep(a *gdbarch.Gdbarch, w io.Writer) {
	td := tdepOf(a)
	fmt.Fprintf(w, "x86_dump_tdep: bits = %d\n", td.bits)
	for _, f := range td.desc.Features {
		fmt.Fprintf(w, "x86_dump_tdep: feature = %s (%d registers)\n", f.Name, len(f.Regs))
	}
	fmt.Fprintf(w, "x86_dump_tdep: num_pseudo = %d\n", len(td.pseudo))
	fmt.Fprintf(w, "x86_dump_tdep: orig_ax_regnum = %d\n", td.origAX)
}
