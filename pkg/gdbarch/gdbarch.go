package gdbarch

import (
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

const targetCharBit = 8

// Gdbarch describes one architecture variant. See the package
// documentation for its life cycle.
type Gdbarch struct {
	info        Info
	tdep        interface{}
	dumpTdep    DumpTdepFunc
	initialized bool

	// per architecture values of Data slots, indexed by slot
	data     []interface{}
	dataInit []bool

	bitsBigEndian  bool
	shortBit       int
	intBit         int
	longBit        int
	longLongBit    int
	halfBit        int
	floatBit       int
	doubleBit      int
	longDoubleBit  int
	ptrBit         int
	addrBit        int
	dwarf2AddrSize int
	charSigned     int
	wcharBit       int
	wcharSigned    int

	halfFormat       *gdbtypes.FloatFormat
	floatFormat      *gdbtypes.FloatFormat
	doubleFormat     *gdbtypes.FloatFormat
	longDoubleFormat *gdbtypes.FloatFormat

	numRegs       int
	numPseudoRegs int
	spRegnum      int
	pcRegnum      int
	psRegnum      int
	fp0Regnum     int

	decrPCAfterBreak           uint64
	maxInsnLength              int
	frameRedZoneSize           int
	cannotStepBreakpoint       bool
	haveNonsteppableWatchpoint bool

	hooks
}

// Alloc returns a new architecture for info with every field set to its
// default value. The family constructor overrides fields and hooks using
// the Set methods before returning it to the registry, which verifies it.
// Tdep is the family private data, returned by Tdep.
func Alloc(info *Info, tdep interface{}) *Gdbarch {
	a := &Gdbarch{
		info: *info,
		tdep: tdep,

		shortBit:      2 * targetCharBit,
		intBit:        4 * targetCharBit,
		longBit:       4 * targetCharBit,
		longLongBit:   2 * 4 * targetCharBit,
		halfBit:       2 * targetCharBit,
		floatBit:      4 * targetCharBit,
		doubleBit:     8 * targetCharBit,
		longDoubleBit: 8 * targetCharBit,
		ptrBit:        4 * targetCharBit,
		charSigned:    -1,
		wcharBit:      4 * targetCharBit,
		wcharSigned:   -1,

		numRegs:   -1,
		spRegnum:  -1,
		pcRegnum:  -1,
		psRegnum:  -1,
		fp0Regnum: -1,
	}
	if a.info.ByteOrderForCode == ByteOrderUnknown {
		a.info.ByteOrderForCode = a.info.ByteOrder
	}
	a.setDefaultHooks()
	return a
}

// mutable panics if a has already been initialized.
func (a *Gdbarch) mutable(field string) {
	if a.initialized {
		InternalError("gdbarch: %s set on an initialized architecture (%s)", field, a)
	}
}

func (a *Gdbarch) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.info.ArchInfo.String()
}

// Initialized reports whether a has been verified and registered.
func (a *Gdbarch) Initialized() bool { return a.initialized }

// Info returns the selection key a was built for.
func (a *Gdbarch) Info() Info { return a.info }

// ArchInfo returns the machine of a.
func (a *Gdbarch) ArchInfo() *ArchInfo { return a.info.ArchInfo }

// ByteOrder returns the data byte order of a.
func (a *Gdbarch) ByteOrder() ByteOrder { return a.info.ByteOrder }

// ByteOrderForCode returns the byte order of instructions.
func (a *Gdbarch) ByteOrderForCode() ByteOrder { return a.info.ByteOrderForCode }

// OSABI returns the OS ABI of a.
func (a *Gdbarch) OSABI() OSABI { return a.info.OSABI }

// Tdesc returns the target description a was built from, or nil.
func (a *Gdbarch) Tdesc() *tdesc.Description { return a.info.Tdesc }

// Tdep returns the family private data of a.
func (a *Gdbarch) Tdep() interface{} { return a.tdep }

func (a *Gdbarch) BitsBigEndian() bool { return a.bitsBigEndian }

func (a *Gdbarch) SetBitsBigEndian(v bool) {
	a.mutable("bits_big_endian")
	a.bitsBigEndian = v
}

func (a *Gdbarch) ShortBit() int { return a.shortBit }

func (a *Gdbarch) SetShortBit(v int) {
	a.mutable("short_bit")
	a.shortBit = v
}

func (a *Gdbarch) IntBit() int { return a.intBit }

func (a *Gdbarch) SetIntBit(v int) {
	a.mutable("int_bit")
	a.intBit = v
}

func (a *Gdbarch) LongBit() int { return a.longBit }

func (a *Gdbarch) SetLongBit(v int) {
	a.mutable("long_bit")
	a.longBit = v
}

func (a *Gdbarch) LongLongBit() int { return a.longLongBit }

func (a *Gdbarch) SetLongLongBit(v int) {
	a.mutable("long_long_bit")
	a.longLongBit = v
}

func (a *Gdbarch) HalfBit() int { return a.halfBit }

func (a *Gdbarch) SetHalfBit(v int) {
	a.mutable("half_bit")
	a.halfBit = v
}

func (a *Gdbarch) FloatBit() int { return a.floatBit }

func (a *Gdbarch) SetFloatBit(v int) {
	a.mutable("float_bit")
	a.floatBit = v
}

func (a *Gdbarch) DoubleBit() int { return a.doubleBit }

func (a *Gdbarch) SetDoubleBit(v int) {
	a.mutable("double_bit")
	a.doubleBit = v
}

func (a *Gdbarch) LongDoubleBit() int { return a.longDoubleBit }

func (a *Gdbarch) SetLongDoubleBit(v int) {
	a.mutable("long_double_bit")
	a.longDoubleBit = v
}

// PtrBit is the size of a data pointer in bits.
func (a *Gdbarch) PtrBit() int { return a.ptrBit }

func (a *Gdbarch) SetPtrBit(v int) {
	a.mutable("ptr_bit")
	a.ptrBit = v
}

// AddrBit is the number of significant bits of a target address, it
// defaults to PtrBit.
func (a *Gdbarch) AddrBit() int { return a.addrBit }

func (a *Gdbarch) SetAddrBit(v int) {
	a.mutable("addr_bit")
	a.addrBit = v
}

func (a *Gdbarch) Dwarf2AddrSize() int { return a.dwarf2AddrSize }

func (a *Gdbarch) SetDwarf2AddrSize(v int) {
	a.mutable("dwarf2_addr_size")
	a.dwarf2AddrSize = v
}

func (a *Gdbarch) CharSigned() bool { return a.charSigned != 0 }

func (a *Gdbarch) SetCharSigned(v bool) {
	a.mutable("char_signed")
	a.charSigned = boolToInt(v)
}

func (a *Gdbarch) WcharBit() int { return a.wcharBit }

func (a *Gdbarch) SetWcharBit(v int) {
	a.mutable("wchar_bit")
	a.wcharBit = v
}

func (a *Gdbarch) WcharSigned() bool { return a.wcharSigned != 0 }

func (a *Gdbarch) SetWcharSigned(v bool) {
	a.mutable("wchar_signed")
	a.wcharSigned = boolToInt(v)
}

func (a *Gdbarch) HalfFormat() *gdbtypes.FloatFormat { return a.halfFormat }

func (a *Gdbarch) SetHalfFormat(f *gdbtypes.FloatFormat) {
	a.mutable("half_format")
	a.halfFormat = f
}

func (a *Gdbarch) FloatFormat() *gdbtypes.FloatFormat { return a.floatFormat }

func (a *Gdbarch) SetFloatFormat(f *gdbtypes.FloatFormat) {
	a.mutable("float_format")
	a.floatFormat = f
}

func (a *Gdbarch) DoubleFormat() *gdbtypes.FloatFormat { return a.doubleFormat }

func (a *Gdbarch) SetDoubleFormat(f *gdbtypes.FloatFormat) {
	a.mutable("double_format")
	a.doubleFormat = f
}

func (a *Gdbarch) LongDoubleFormat() *gdbtypes.FloatFormat { return a.longDoubleFormat }

func (a *Gdbarch) SetLongDoubleFormat(f *gdbtypes.FloatFormat) {
	a.mutable("long_double_format")
	a.longDoubleFormat = f
}

// NumRegs is the number of raw registers, the registers supplied by the
// target. It has no default.
func (a *Gdbarch) NumRegs() int { return a.numRegs }

func (a *Gdbarch) SetNumRegs(v int) {
	a.mutable("num_regs")
	a.numRegs = v
}

// NumPseudoRegs is the number of registers computed from raw registers by
// the PseudoRegisterRead hook. They are numbered after the raw registers.
func (a *Gdbarch) NumPseudoRegs() int { return a.numPseudoRegs }

func (a *Gdbarch) SetNumPseudoRegs(v int) {
	a.mutable("num_pseudo_regs")
	a.numPseudoRegs = v
}

// NumCookedRegs returns NumRegs()+NumPseudoRegs().
func (a *Gdbarch) NumCookedRegs() int { return a.numRegs + a.numPseudoRegs }

// SPRegnum is the stack pointer register, or -1.
func (a *Gdbarch) SPRegnum() int { return a.spRegnum }

func (a *Gdbarch) SetSPRegnum(v int) {
	a.mutable("sp_regnum")
	a.spRegnum = v
}

// PCRegnum is the program counter register, or -1.
func (a *Gdbarch) PCRegnum() int { return a.pcRegnum }

func (a *Gdbarch) SetPCRegnum(v int) {
	a.mutable("pc_regnum")
	a.pcRegnum = v
}

// PSRegnum is the processor status register, or -1.
func (a *Gdbarch) PSRegnum() int { return a.psRegnum }

func (a *Gdbarch) SetPSRegnum(v int) {
	a.mutable("ps_regnum")
	a.psRegnum = v
}

// FP0Regnum is the first floating point register, or -1.
func (a *Gdbarch) FP0Regnum() int { return a.fp0Regnum }

func (a *Gdbarch) SetFP0Regnum(v int) {
	a.mutable("fp0_regnum")
	a.fp0Regnum = v
}

// DecrPCAfterBreak is the amount the PC must be decremented after a
// breakpoint trap to point back at the breakpoint.
func (a *Gdbarch) DecrPCAfterBreak() uint64 { return a.decrPCAfterBreak }

func (a *Gdbarch) SetDecrPCAfterBreak(v uint64) {
	a.mutable("decr_pc_after_break")
	a.decrPCAfterBreak = v
}

// MaxInsnLength is the maximum length of an instruction, 0 if unknown.
func (a *Gdbarch) MaxInsnLength() int { return a.maxInsnLength }

func (a *Gdbarch) SetMaxInsnLength(v int) {
	a.mutable("max_insn_length")
	a.maxInsnLength = v
}

// FrameRedZoneSize is the size of the area below the stack pointer that
// leaf functions may use without adjusting it.
func (a *Gdbarch) FrameRedZoneSize() int { return a.frameRedZoneSize }

func (a *Gdbarch) SetFrameRedZoneSize(v int) {
	a.mutable("frame_red_zone_size")
	a.frameRedZoneSize = v
}

func (a *Gdbarch) CannotStepBreakpoint() bool { return a.cannotStepBreakpoint }

func (a *Gdbarch) SetCannotStepBreakpoint(v bool) {
	a.mutable("cannot_step_breakpoint")
	a.cannotStepBreakpoint = v
}

func (a *Gdbarch) HaveNonsteppableWatchpoint() bool { return a.haveNonsteppableWatchpoint }

func (a *Gdbarch) SetHaveNonsteppableWatchpoint(v bool) {
	a.mutable("have_nonsteppable_watchpoint")
	a.haveNonsteppableWatchpoint = v
}

// checkRegnum panics if regnum is not a cooked register of a.
func (a *Gdbarch) checkRegnum(hook string, regnum int) {
	if regnum < 0 || regnum >= a.NumCookedRegs() {
		InternalError("gdbarch_%s: register number %d out of range [0, %d)", hook, regnum, a.NumCookedRegs())
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
