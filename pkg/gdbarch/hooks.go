package gdbarch

import (
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/logflags"
)

type (
	// RegisterNameFunc returns the name of register regnum, or "" if the
	// register does not exist on this variant.
	RegisterNameFunc func(a *Gdbarch, regnum int) string
	// RegisterTypeFunc returns the type of register regnum, its length is
	// the size of the register.
	RegisterTypeFunc func(a *Gdbarch, regnum int) *gdbtypes.Type
	// RegisterReggroupPFunc reports whether regnum belongs to group.
	RegisterReggroupPFunc func(a *Gdbarch, regnum int, group *Reggroup) bool
	// CannotRegisterFunc reports whether regnum can not be fetched (or
	// stored) from the target.
	CannotRegisterFunc func(a *Gdbarch, regnum int) bool
	// RegToRegnumFunc converts a debug info register number to a register
	// number, returning -1 if there is no such register.
	RegToRegnumFunc func(a *Gdbarch, reg int) int

	ReadPCFunc  func(rc RegisterReader) (uint64, error)
	WritePCFunc func(rc RegisterReadWriter, pc uint64) error

	// PseudoRegisterReadFunc computes pseudo register regnum into buf,
	// reading the registers it is made of from rc.
	PseudoRegisterReadFunc func(a *Gdbarch, rc RegisterReader, regnum int, buf []byte) (RegisterStatus, error)
	// PseudoRegisterWriteFunc writes pseudo register regnum by writing the
	// registers it is made of to rc.
	PseudoRegisterWriteFunc func(a *Gdbarch, rc RegisterReadWriter, regnum int, buf []byte) error

	ConvertRegisterPFunc    func(a *Gdbarch, regnum int, typ *gdbtypes.Type) bool
	VirtualFramePointerFunc func(a *Gdbarch, pc uint64) (regnum int, offset int64)

	// BreakpointFromPCFunc returns the breakpoint instruction to use at pc
	// and the address it must be written to.
	BreakpointFromPCFunc        func(a *Gdbarch, pc uint64) (uint64, []byte)
	AdjustBreakpointAddressFunc func(a *Gdbarch, addr uint64) uint64
	// SoftwareSingleStepFunc returns the addresses where breakpoints must
	// be placed to single step the thread owning rc.
	SoftwareSingleStepFunc func(rc RegisterReader, mem MemoryReader) ([]uint64, error)

	// SkipPrologueFunc returns the address of the first instruction after
	// the prologue of the function starting at pc.
	SkipPrologueFunc func(a *Gdbarch, mem MemoryReader, pc uint64) uint64
	// InnerThanFunc reports whether stack address lhs is inner (more
	// recently pushed) than rhs.
	InnerThanFunc func(lhs, rhs uint64) bool
	// ReturnValueFunc reads the return value of type typ into readbuf, or
	// writes it from writebuf, whichever is not nil.
	ReturnValueFunc          func(a *Gdbarch, typ *gdbtypes.Type, rc RegisterReadWriter, readbuf, writebuf []byte) (ReturnValueConvention, error)
	FrameAlignFunc           func(a *Gdbarch, addr uint64) uint64
	PushDummyCallFunc        func(a *Gdbarch, rc RegisterReadWriter, mem MemoryReadWriter, bpAddr uint64, args []uint64, sp uint64) (uint64, error)
	FetchPointerArgumentFunc func(rc RegisterReader, argi int, typ *gdbtypes.Type) (uint64, error)

	PointerToAddressFunc func(a *Gdbarch, typ *gdbtypes.Type, buf []byte) uint64
	AddressToPointerFunc func(a *Gdbarch, typ *gdbtypes.Type, buf []byte, addr uint64)
	IntegerToAddressFunc func(a *Gdbarch, typ *gdbtypes.Type, buf []byte) uint64
	AddrBitsRemoveFunc   func(a *Gdbarch, addr uint64) uint64
	GetLongjmpTargetFunc func(rc RegisterReader, mem MemoryReader) (uint64, error)
)

// ReturnValueConvention describes where a function return value is found.
type ReturnValueConvention uint8

const (
	// ReturnValueRegisterConvention means the value is in registers.
	ReturnValueRegisterConvention ReturnValueConvention = iota
	// ReturnValueStructConvention means the value is in memory and its
	// address is not known.
	ReturnValueStructConvention
	// ReturnValueABIReturnsAddress means the value is in memory and its
	// address is left in the first return register.
	ReturnValueABIReturnsAddress
	// ReturnValueABIPreservesAddress means the value is in memory and its
	// address is in the register used to pass it to the callee.
	ReturnValueABIPreservesAddress
)

func (c ReturnValueConvention) String() string {
	switch c {
	case ReturnValueRegisterConvention:
		return "register"
	case ReturnValueStructConvention:
		return "struct"
	case ReturnValueABIReturnsAddress:
		return "abi-returns-address"
	case ReturnValueABIPreservesAddress:
		return "abi-preserves-address"
	}
	return "unknown"
}

type hooks struct {
	registerName        RegisterNameFunc
	registerType        RegisterTypeFunc
	registerReggroupP   RegisterReggroupPFunc
	cannotFetchRegister CannotRegisterFunc
	cannotStoreRegister CannotRegisterFunc
	dwarf2RegToRegnum   RegToRegnumFunc
	stabRegToRegnum     RegToRegnumFunc
	readPC              ReadPCFunc
	writePC             WritePCFunc
	pseudoRegisterRead  PseudoRegisterReadFunc
	pseudoRegisterWrite PseudoRegisterWriteFunc
	convertRegisterP    ConvertRegisterPFunc
	virtualFramePointer VirtualFramePointerFunc

	breakpointFromPC        BreakpointFromPCFunc
	adjustBreakpointAddress AdjustBreakpointAddressFunc
	softwareSingleStep      SoftwareSingleStepFunc

	skipPrologue         SkipPrologueFunc
	innerThan            InnerThanFunc
	returnValue          ReturnValueFunc
	frameAlign           FrameAlignFunc
	pushDummyCall        PushDummyCallFunc
	fetchPointerArgument FetchPointerArgumentFunc

	pointerToAddress PointerToAddressFunc
	addressToPointer AddressToPointerFunc
	integerToAddress IntegerToAddressFunc
	addrBitsRemove   AddrBitsRemoveFunc
	getLongjmpTarget GetLongjmpTargetFunc
}

func (a *Gdbarch) trace(hook string) {
	if logflags.Gdbarch() {
		logflags.GdbarchLogger().Debugf("gdbarch_%s called (%s)", hook, a)
	}
}

func unset(hook string) {
	InternalError("gdbarch: gdbarch_%s called but the hook is not set", hook)
}

// Register metadata

// RegisterName returns the name of register regnum, "" if it does not
// exist on this variant.
func (a *Gdbarch) RegisterName(regnum int) string {
	a.checkRegnum("register_name", regnum)
	if a.registerName == nil {
		unset("register_name")
	}
	a.trace("register_name")
	return a.registerName(a, regnum)
}

func (a *Gdbarch) SetRegisterName(fn RegisterNameFunc) {
	a.mutable("register_name")
	a.registerName = fn
}

func (a *Gdbarch) HasRegisterType() bool { return a.registerType != nil }

// RegisterType returns the type of register regnum.
func (a *Gdbarch) RegisterType(regnum int) *gdbtypes.Type {
	a.checkRegnum("register_type", regnum)
	if a.registerType == nil {
		unset("register_type")
	}
	a.trace("register_type")
	return a.registerType(a, regnum)
}

func (a *Gdbarch) SetRegisterType(fn RegisterTypeFunc) {
	a.mutable("register_type")
	a.registerType = fn
}

// RegisterReggroupP reports whether regnum belongs to group. Defaults to
// DefaultRegisterReggroupP.
func (a *Gdbarch) RegisterReggroupP(regnum int, group *Reggroup) bool {
	if a.registerReggroupP == nil {
		unset("register_reggroup_p")
	}
	a.trace("register_reggroup_p")
	return a.registerReggroupP(a, regnum, group)
}

func (a *Gdbarch) SetRegisterReggroupP(fn RegisterReggroupPFunc) {
	a.mutable("register_reggroup_p")
	a.registerReggroupP = fn
}

// CannotFetchRegister defaults to false for every register.
func (a *Gdbarch) CannotFetchRegister(regnum int) bool {
	if a.cannotFetchRegister == nil {
		unset("cannot_fetch_register")
	}
	a.trace("cannot_fetch_register")
	return a.cannotFetchRegister(a, regnum)
}

func (a *Gdbarch) SetCannotFetchRegister(fn CannotRegisterFunc) {
	a.mutable("cannot_fetch_register")
	a.cannotFetchRegister = fn
}

// CannotStoreRegister defaults to false for every register. Writes to
// registers for which it returns true are ignored.
func (a *Gdbarch) CannotStoreRegister(regnum int) bool {
	if a.cannotStoreRegister == nil {
		unset("cannot_store_register")
	}
	a.trace("cannot_store_register")
	return a.cannotStoreRegister(a, regnum)
}

func (a *Gdbarch) SetCannotStoreRegister(fn CannotRegisterFunc) {
	a.mutable("cannot_store_register")
	a.cannotStoreRegister = fn
}

func (a *Gdbarch) Dwarf2RegToRegnum(reg int) int {
	if a.dwarf2RegToRegnum == nil {
		unset("dwarf2_reg_to_regnum")
	}
	a.trace("dwarf2_reg_to_regnum")
	return a.dwarf2RegToRegnum(a, reg)
}

func (a *Gdbarch) SetDwarf2RegToRegnum(fn RegToRegnumFunc) {
	a.mutable("dwarf2_reg_to_regnum")
	a.dwarf2RegToRegnum = fn
}

func (a *Gdbarch) StabRegToRegnum(reg int) int {
	if a.stabRegToRegnum == nil {
		unset("stab_reg_to_regnum")
	}
	a.trace("stab_reg_to_regnum")
	return a.stabRegToRegnum(a, reg)
}

func (a *Gdbarch) SetStabRegToRegnum(fn RegToRegnumFunc) {
	a.mutable("stab_reg_to_regnum")
	a.stabRegToRegnum = fn
}

func (a *Gdbarch) HasReadPC() bool { return a.readPC != nil }

func (a *Gdbarch) ReadPC(rc RegisterReader) (uint64, error) {
	if a.readPC == nil {
		unset("read_pc")
	}
	a.trace("read_pc")
	return a.readPC(rc)
}

func (a *Gdbarch) SetReadPC(fn ReadPCFunc) {
	a.mutable("read_pc")
	a.readPC = fn
}

func (a *Gdbarch) HasWritePC() bool { return a.writePC != nil }

func (a *Gdbarch) WritePC(rc RegisterReadWriter, pc uint64) error {
	if a.writePC == nil {
		unset("write_pc")
	}
	a.trace("write_pc")
	return a.writePC(rc, pc)
}

func (a *Gdbarch) SetWritePC(fn WritePCFunc) {
	a.mutable("write_pc")
	a.writePC = fn
}

func (a *Gdbarch) HasPseudoRegisterRead() bool { return a.pseudoRegisterRead != nil }

func (a *Gdbarch) PseudoRegisterRead(rc RegisterReader, regnum int, buf []byte) (RegisterStatus, error) {
	if a.pseudoRegisterRead == nil {
		unset("pseudo_register_read")
	}
	a.trace("pseudo_register_read")
	return a.pseudoRegisterRead(a, rc, regnum, buf)
}

func (a *Gdbarch) SetPseudoRegisterRead(fn PseudoRegisterReadFunc) {
	a.mutable("pseudo_register_read")
	a.pseudoRegisterRead = fn
}

func (a *Gdbarch) HasPseudoRegisterWrite() bool { return a.pseudoRegisterWrite != nil }

func (a *Gdbarch) PseudoRegisterWrite(rc RegisterReadWriter, regnum int, buf []byte) error {
	if a.pseudoRegisterWrite == nil {
		unset("pseudo_register_write")
	}
	a.trace("pseudo_register_write")
	return a.pseudoRegisterWrite(a, rc, regnum, buf)
}

func (a *Gdbarch) SetPseudoRegisterWrite(fn PseudoRegisterWriteFunc) {
	a.mutable("pseudo_register_write")
	a.pseudoRegisterWrite = fn
}

// ConvertRegisterP reports whether values of type typ need conversion
// when stored in register regnum. Defaults to false.
func (a *Gdbarch) ConvertRegisterP(regnum int, typ *gdbtypes.Type) bool {
	if a.convertRegisterP == nil {
		unset("convert_register_p")
	}
	a.trace("convert_register_p")
	return a.convertRegisterP(a, regnum, typ)
}

func (a *Gdbarch) SetConvertRegisterP(fn ConvertRegisterPFunc) {
	a.mutable("convert_register_p")
	a.convertRegisterP = fn
}

// VirtualFramePointer returns the register and offset that make up the
// frame pointer at pc. Defaults to the stack pointer.
func (a *Gdbarch) VirtualFramePointer(pc uint64) (int, int64) {
	if a.virtualFramePointer == nil {
		unset("virtual_frame_pointer")
	}
	a.trace("virtual_frame_pointer")
	return a.virtualFramePointer(a, pc)
}

func (a *Gdbarch) SetVirtualFramePointer(fn VirtualFramePointerFunc) {
	a.mutable("virtual_frame_pointer")
	a.virtualFramePointer = fn
}

// Breakpoints

func (a *Gdbarch) BreakpointFromPC(pc uint64) (uint64, []byte) {
	if a.breakpointFromPC == nil {
		unset("breakpoint_from_pc")
	}
	a.trace("breakpoint_from_pc")
	return a.breakpointFromPC(a, pc)
}

func (a *Gdbarch) SetBreakpointFromPC(fn BreakpointFromPCFunc) {
	a.mutable("breakpoint_from_pc")
	a.breakpointFromPC = fn
}

func (a *Gdbarch) HasAdjustBreakpointAddress() bool { return a.adjustBreakpointAddress != nil }

func (a *Gdbarch) AdjustBreakpointAddress(addr uint64) uint64 {
	if a.adjustBreakpointAddress == nil {
		unset("adjust_breakpoint_address")
	}
	a.trace("adjust_breakpoint_address")
	return a.adjustBreakpointAddress(a, addr)
}

func (a *Gdbarch) SetAdjustBreakpointAddress(fn AdjustBreakpointAddressFunc) {
	a.mutable("adjust_breakpoint_address")
	a.adjustBreakpointAddress = fn
}

func (a *Gdbarch) HasSoftwareSingleStep() bool { return a.softwareSingleStep != nil }

func (a *Gdbarch) SoftwareSingleStep(rc RegisterReader, mem MemoryReader) ([]uint64, error) {
	if a.softwareSingleStep == nil {
		unset("software_single_step")
	}
	a.trace("software_single_step")
	return a.softwareSingleStep(rc, mem)
}

func (a *Gdbarch) SetSoftwareSingleStep(fn SoftwareSingleStepFunc) {
	a.mutable("software_single_step")
	a.softwareSingleStep = fn
}

// Calling convention

func (a *Gdbarch) SkipPrologue(mem MemoryReader, pc uint64) uint64 {
	if a.skipPrologue == nil {
		unset("skip_prologue")
	}
	a.trace("skip_prologue")
	return a.skipPrologue(a, mem, pc)
}

func (a *Gdbarch) SetSkipPrologue(fn SkipPrologueFunc) {
	a.mutable("skip_prologue")
	a.skipPrologue = fn
}

func (a *Gdbarch) InnerThan(lhs, rhs uint64) bool {
	if a.innerThan == nil {
		unset("inner_than")
	}
	a.trace("inner_than")
	return a.innerThan(lhs, rhs)
}

func (a *Gdbarch) SetInnerThan(fn InnerThanFunc) {
	a.mutable("inner_than")
	a.innerThan = fn
}

func (a *Gdbarch) HasReturnValue() bool { return a.returnValue != nil }

func (a *Gdbarch) ReturnValue(typ *gdbtypes.Type, rc RegisterReadWriter, readbuf, writebuf []byte) (ReturnValueConvention, error) {
	if a.returnValue == nil {
		unset("return_value")
	}
	a.trace("return_value")
	return a.returnValue(a, typ, rc, readbuf, writebuf)
}

func (a *Gdbarch) SetReturnValue(fn ReturnValueFunc) {
	a.mutable("return_value")
	a.returnValue = fn
}

func (a *Gdbarch) HasFrameAlign() bool { return a.frameAlign != nil }

func (a *Gdbarch) FrameAlign(addr uint64) uint64 {
	if a.frameAlign == nil {
		unset("frame_align")
	}
	a.trace("frame_align")
	return a.frameAlign(a, addr)
}

func (a *Gdbarch) SetFrameAlign(fn FrameAlignFunc) {
	a.mutable("frame_align")
	a.frameAlign = fn
}

func (a *Gdbarch) HasPushDummyCall() bool { return a.pushDummyCall != nil }

// PushDummyCall sets up registers and stack to call a function whose
// integer arguments are args, returning to bpAddr. Returns the new stack
// pointer.
func (a *Gdbarch) PushDummyCall(rc RegisterReadWriter, mem MemoryReadWriter, bpAddr uint64, args []uint64, sp uint64) (uint64, error) {
	if a.pushDummyCall == nil {
		unset("push_dummy_call")
	}
	a.trace("push_dummy_call")
	return a.pushDummyCall(a, rc, mem, bpAddr, args, sp)
}

func (a *Gdbarch) SetPushDummyCall(fn PushDummyCallFunc) {
	a.mutable("push_dummy_call")
	a.pushDummyCall = fn
}

func (a *Gdbarch) HasFetchPointerArgument() bool { return a.fetchPointerArgument != nil }

func (a *Gdbarch) FetchPointerArgument(rc RegisterReader, argi int, typ *gdbtypes.Type) (uint64, error) {
	if a.fetchPointerArgument == nil {
		unset("fetch_pointer_argument")
	}
	a.trace("fetch_pointer_argument")
	return a.fetchPointerArgument(rc, argi, typ)
}

func (a *Gdbarch) SetFetchPointerArgument(fn FetchPointerArgumentFunc) {
	a.mutable("fetch_pointer_argument")
	a.fetchPointerArgument = fn
}

// Addresses

func (a *Gdbarch) PointerToAddress(typ *gdbtypes.Type, buf []byte) uint64 {
	if a.pointerToAddress == nil {
		unset("pointer_to_address")
	}
	a.trace("pointer_to_address")
	return a.pointerToAddress(a, typ, buf)
}

func (a *Gdbarch) SetPointerToAddress(fn PointerToAddressFunc) {
	a.mutable("pointer_to_address")
	a.pointerToAddress = fn
}

func (a *Gdbarch) AddressToPointer(typ *gdbtypes.Type, buf []byte, addr uint64) {
	if a.addressToPointer == nil {
		unset("address_to_pointer")
	}
	a.trace("address_to_pointer")
	a.addressToPointer(a, typ, buf, addr)
}

func (a *Gdbarch) SetAddressToPointer(fn AddressToPointerFunc) {
	a.mutable("address_to_pointer")
	a.addressToPointer = fn
}

func (a *Gdbarch) HasIntegerToAddress() bool { return a.integerToAddress != nil }

func (a *Gdbarch) IntegerToAddress(typ *gdbtypes.Type, buf []byte) uint64 {
	if a.integerToAddress == nil {
		unset("integer_to_address")
	}
	a.trace("integer_to_address")
	return a.integerToAddress(a, typ, buf)
}

func (a *Gdbarch) SetIntegerToAddress(fn IntegerToAddressFunc) {
	a.mutable("integer_to_address")
	a.integerToAddress = fn
}

// AddrBitsRemove strips non address bits (tags, authentication codes) from
// addr. Defaults to the identity.
func (a *Gdbarch) AddrBitsRemove(addr uint64) uint64 {
	if a.addrBitsRemove == nil {
		unset("addr_bits_remove")
	}
	a.trace("addr_bits_remove")
	return a.addrBitsRemove(a, addr)
}

func (a *Gdbarch) SetAddrBitsRemove(fn AddrBitsRemoveFunc) {
	a.mutable("addr_bits_remove")
	a.addrBitsRemove = fn
}

func (a *Gdbarch) HasGetLongjmpTarget() bool { return a.getLongjmpTarget != nil }

func (a *Gdbarch) GetLongjmpTarget(rc RegisterReader, mem MemoryReader) (uint64, error) {
	if a.getLongjmpTarget == nil {
		unset("get_longjmp_target")
	}
	a.trace("get_longjmp_target")
	return a.getLongjmpTarget(rc, mem)
}

func (a *Gdbarch) SetGetLongjmpTarget(fn GetLongjmpTargetFunc) {
	a.mutable("get_longjmp_target")
	a.getLongjmpTarget = fn
}
