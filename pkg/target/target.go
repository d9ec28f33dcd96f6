// Package target defines the interfaces between register caches and the
// backends that read and write the registers of a stopped thread.
package target

import (
	"github.com/go-delve/dbgcore/pkg/gdbarch"
)

// Target represents the target of the debugger. This target could be a
// native process, a remote stub, a core file, etc.
type Target interface {
	// FetchRegisters supplies register regnum of the thread owning rb, or
	// all of its registers when regnum is -1, by calling rb.RawSupply.
	// Registers the target does not supply are left alone.
	FetchRegisters(rb RegisterBuffer, regnum int) error
	// StoreRegisters writes register regnum (all registers when regnum
	// is -1) of rb back to the thread, reading the values with
	// rb.RawCollect.
	StoreRegisters(rb RegisterBuffer, regnum int) error
	// PrepareToStore is called before the first register store following
	// a stop.
	PrepareToStore(rb RegisterBuffer) error

	String() string
}

// RegisterBuffer is the view of a register cache passed to a target.
type RegisterBuffer interface {
	Arch() *gdbarch.Gdbarch
	Ptid() Ptid
	RegisterStatus(regnum int) gdbarch.RegisterStatus
	// RawSupply sets the contents of regnum, a nil buf marks it as
	// unavailable.
	RawSupply(regnum int, buf []byte)
	RawCollect(regnum int, buf []byte)
}

// ThreadArchitecturer is implemented by targets whose threads do not all
// use the same architecture.
type ThreadArchitecturer interface {
	ThreadArchitecture(ptid Ptid) *gdbarch.Gdbarch
}

// ThreadLister is implemented by targets that can enumerate their stopped
// threads.
type ThreadLister interface {
	Threads() ([]Ptid, error)
}

// AddressSpacer is implemented by targets that know the address space of
// their threads.
type AddressSpacer interface {
	ThreadAddressSpace(ptid Ptid) *AddressSpace
}

// AddressSpace identifies an address space, address spaces are compared
// by identity.
type AddressSpace struct {
	Num int
}

// Dummy is a target without registers, every fetch leaves the registers
// unavailable and every store fails.
type Dummy struct{}

func (Dummy) FetchRegisters(rb RegisterBuffer, regnum int) error { return nil }

func (Dummy) StoreRegisters(rb RegisterBuffer, regnum int) error { return ErrNoRegisters }

func (Dummy) PrepareToStore(rb RegisterBuffer) error { return nil }

func (Dummy) String() string { return "None" }
