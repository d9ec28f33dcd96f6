package gdbarch

import (
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

func (a *Gdbarch) setDefaultHooks() {
	a.registerReggroupP = DefaultRegisterReggroupP
	a.cannotFetchRegister = CannotRegisterNot
	a.cannotStoreRegister = CannotRegisterNot
	a.dwarf2RegToRegnum = NoOpRegToRegnum
	a.stabRegToRegnum = NoOpRegToRegnum
	a.convertRegisterP = GenericConvertRegisterNot
	a.virtualFramePointer = LegacyVirtualFramePointer
	a.pointerToAddress = UnsignedPointerToAddress
	a.addressToPointer = UnsignedAddressToPointer
	a.addrBitsRemove = CoreAddrIdentity
}

// CannotRegisterNot is the default of CannotFetchRegister and
// CannotStoreRegister: every register can be accessed.
func CannotRegisterNot(a *Gdbarch, regnum int) bool {
	return false
}

// NoOpRegToRegnum maps debug info register numbers to themselves, -1 if
// the result is not a register of a.
func NoOpRegToRegnum(a *Gdbarch, reg int) int {
	if reg < 0 || reg >= a.NumCookedRegs() {
		return -1
	}
	return reg
}

// GenericConvertRegisterNot never requires conversions.
func GenericConvertRegisterNot(a *Gdbarch, regnum int, typ *gdbtypes.Type) bool {
	return false
}

// LegacyVirtualFramePointer uses the stack pointer as frame pointer. It
// returns -1 if a has no stack pointer.
func LegacyVirtualFramePointer(a *Gdbarch, pc uint64) (int, int64) {
	if a.spRegnum >= 0 && a.spRegnum < a.NumCookedRegs() {
		return a.spRegnum, 0
	}
	return -1, 0
}

// UnsignedPointerToAddress reads a pointer as an unsigned integer in the
// byte order of a.
func UnsignedPointerToAddress(a *Gdbarch, typ *gdbtypes.Type, buf []byte) uint64 {
	return gdbtypes.ExtractUnsigned(buf[:typ.Length], a.ByteOrder().Binary())
}

// UnsignedAddressToPointer is the inverse of UnsignedPointerToAddress.
func UnsignedAddressToPointer(a *Gdbarch, typ *gdbtypes.Type, buf []byte, addr uint64) {
	gdbtypes.StoreUnsigned(buf[:typ.Length], a.ByteOrder().Binary(), addr)
}

// CoreAddrIdentity returns addr unchanged.
func CoreAddrIdentity(a *Gdbarch, addr uint64) uint64 {
	return addr
}

// CoreAddrLessThan is an InnerThanFunc for stacks growing down.
func CoreAddrLessThan(lhs, rhs uint64) bool {
	return lhs < rhs
}

// CoreAddrGreaterThan is an InnerThanFunc for stacks growing up.
func CoreAddrGreaterThan(lhs, rhs uint64) bool {
	return lhs > rhs
}
