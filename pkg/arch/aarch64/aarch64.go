// Package aarch64 builds the architectures of the AArch64 family.
package aarch64

import (
	"fmt"
	"io"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// Feature names of AArch64 target descriptions.
const (
	FeatureCore = "org.gnu.gdb.aarch64.core"
	FeatureFPU  = "org.gnu.gdb.aarch64.fpu"
)

// Register adds the AArch64 family to reg.
func Register(reg *gdbarch.Registry) {
	reg.Register(gdbarch.ArchAArch64, initArch, dumpTdep)
}

// Tdep is the private data of AArch64 architectures.
type Tdep struct {
	desc *tdesc.Description

	regs   []*tdesc.Reg
	byName map[string]int
	pseudo []pseudoReg

	x0, fp, lr int
	sp, pc, ps int
	v0         int // -1 without floating point registers
}

func tdepOf(a *gdbarch.Gdbarch) *Tdep {
	return a.Tdep().(*Tdep)
}

// Regnum returns the number of the raw register called name, or -1.
func (td *Tdep) Regnum(name string) int {
	if n, ok := td.byName[name]; ok {
		return n
	}
	return -1
}

func newTdep(desc *tdesc.Description) (*Tdep, error) {
	if desc.FindFeature(FeatureCore) == nil {
		return nil, fmt.Errorf("missing feature %s", FeatureCore)
	}
	td := &Tdep{
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
	for _, req := range []struct {
		name string
		p    *int
	}{{"x0", &td.x0}, {"x29", &td.fp}, {"x30", &td.lr}, {"sp", &td.sp}, {"pc", &td.pc}, {"cpsr", &td.ps}} {
		n := td.Regnum(req.name)
		if n < 0 {
			return nil, fmt.Errorf("missing register %s", req.name)
		}
		*req.p = n
	}
	td.v0 = td.Regnum("v0")
	td.pseudo = pseudoRegs(td)
	return td, nil
}

func initArch(info gdbarch.Info, arches *gdbarch.List) *gdbarch.Gdbarch {
	if info.ByteOrder != gdbarch.LittleEndian {
		return nil
	}
	if a := arches.Lookup(info); a != nil {
		return a
	}

	desc := info.Tdesc
	if desc == nil {
		desc = defaultDescription
	}
	td, err := newTdep(desc)
	if err != nil {
		if logflags.Gdbarch() {
			logflags.GdbarchLogger().Debugf("%s: rejecting target description: %v", info.ArchInfo, err)
		}
		return nil
	}

	a := gdbarch.Alloc(&info, td)
	a.SetLongBit(64)
	a.SetPtrBit(64)
	a.SetLongDoubleBit(128)
	a.SetLongDoubleFormat(gdbtypes.IEEEQuadLittle)
	a.SetCharSigned(false)
	a.SetWcharSigned(false)

	a.SetNumRegs(len(td.regs))
	a.SetNumPseudoRegs(len(td.pseudo))
	a.SetPCRegnum(td.pc)
	a.SetSPRegnum(td.sp)
	a.SetPSRegnum(td.ps)
	if td.v0 >= 0 {
		a.SetFP0Regnum(td.v0)
	}

	a.SetRegisterName(registerName)
	a.SetRegisterType(registerType)
	a.SetRegisterReggroupP(registerReggroupP)
	a.SetDwarf2RegToRegnum(dwarf2RegToRegnum)
	a.SetPseudoRegisterRead(pseudoRegisterRead)
	a.SetPseudoRegisterWrite(pseudoRegisterWrite)
	a.SetVirtualFramePointer(func(a *gdbarch.Gdbarch, pc uint64) (int, int64) {
		return tdepOf(a).fp, 0
	})

	a.SetBreakpointFromPC(breakpointFromPC)
	a.SetMaxInsnLength(4)
	a.SetCannotStepBreakpoint(true)
	a.SetHaveNonsteppableWatchpoint(true)

	a.SetSkipPrologue(skipPrologue)
	a.SetInnerThan(gdbarch.CoreAddrLessThan)
	a.SetFrameAlign(func(a *gdbarch.Gdbarch, addr uint64) uint64 { return addr &^ 0xf })
	a.SetReturnValue(returnValue)
	a.SetPushDummyCall(pushDummyCall)
	a.SetFetchPointerArgument(fetchPointerArgument)
	a.SetAddrBitsRemove(addrBitsRemove)
	if info.OSABI == gdbarch.OSABILinux {
		a.SetGetLongjmpTarget(getLongjmpTarget)
	}

	gdbarch.AddUserReg(a, "lr", func(a *gdbarch.Gdbarch) int { return tdepOf(a).lr })
	return a
}

func dumpTdep(a *gdbarch.Gdbarch, w io.Writer) {
	td := tdepOf(a)
	for _, f := range td.desc.Features {
		fmt.Fprintf(w, "aarch64_dump_tdep: feature = %s (%d registers)\n", f.Name, len(f.Regs))
	}
	fmt.Fprintf(w, "aarch64_dump_tdep: num_pseudo = %d\n", len(td.pseudo))
	fmt.Fprintf(w, "aarch64_dump_tdep: lr_regnum = %d\n", td.lr)
}
