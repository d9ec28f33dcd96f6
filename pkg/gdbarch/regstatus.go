package gdbarch

// RegisterStatus is the state of one register in a register cache.
type RegisterStatus int8

const (
	// RegUnavailable means the target could not supply the register.
	RegUnavailable RegisterStatus = -1
	// RegUnknown means the register was never fetched or was invalidated.
	RegUnknown RegisterStatus = 0
	// RegValid means the cached contents of the register are valid.
	RegValid RegisterStatus = 1
)

func (s RegisterStatus) String() string {
	switch s {
	case RegUnavailable:
		return "unavailable"
	case RegUnknown:
		return "unknown"
	case RegValid:
		return "valid"
	}
	return "invalid status"
}

// RegisterReader is the read side of a register cache, as seen by the
// architecture hooks. Buffers must be exactly as long as the register (or
// the part) being read, when the returned status is not RegValid the buffer
// is zero filled.
type RegisterReader interface {
	Arch() *Gdbarch
	RegisterStatus(regnum int) RegisterStatus
	RawRead(regnum int, buf []byte) (RegisterStatus, error)
	CookedRead(regnum int, buf []byte) (RegisterStatus, error)
	RawReadPart(regnum, offset int, buf []byte) (RegisterStatus, error)
	CookedReadPart(regnum, offset int, buf []byte) (RegisterStatus, error)
	RawReadUnsigned(regnum int) (uint64, RegisterStatus, error)
	CookedReadUnsigned(regnum int) (uint64, RegisterStatus, error)
}

// RegisterReadWriter is a register cache that can also write registers
// through to the target.
type RegisterReadWriter interface {
	RegisterReader
	RawWrite(regnum int, buf []byte) error
	CookedWrite(regnum int, buf []byte) error
	RawWritePart(regnum, offset int, buf []byte) error
	CookedWritePart(regnum, offset int, buf []byte) error
	RawWriteUnsigned(regnum int, v uint64) error
	CookedWriteUnsigned(regnum int, v uint64) error
}

// MemoryReader reads target memory.
type MemoryReader interface {
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// MemoryReadWriter reads and writes target memory.
type MemoryReadWriter interface {
	MemoryReader
	WriteMemory(addr uint64, data []byte) (written int, err error)
}
