package aarch64

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

var breakInstruction = []byte{0x0, 0x0, 0x20, 0xd4}

func breakpointFromPC(a *gdbarch.Gdbarch, pc uint64) (uint64, []byte) {
	return pc, breakInstruction
}

func isReg(arg arm64asm.Arg, r arm64asm.Reg) bool {
	return arg == r || arg == arm64asm.RegSP(r)
}

// skipPrologue recognizes the frame record setup of C compilers:
//
//	stp x29, x30, [sp, #-n]!
//	mov x29, sp
func skipPrologue(a *gdbarch.Gdbarch, mem gdbarch.MemoryReader, pc uint64) uint64 {
	buf := make([]byte, 8)
	if n, err := mem.ReadMemory(buf, pc); err != nil || n < len(buf) {
		return pc
	}
	inst, err := arm64asm.Decode(buf[:4])
	if err != nil || inst.Op != arm64asm.STP || !isReg(inst.Args[0], arm64asm.X29) || !isReg(inst.Args[1], arm64asm.X30) {
		return pc
	}
	inst, err = arm64asm.Decode(buf[4:])
	if err != nil || inst.Op != arm64asm.MOV || !isReg(inst.Args[0], arm64asm.X29) || !isReg(inst.Args[1], arm64asm.SP) {
		return pc + 4
	}
	return pc + 8
}

// addrBitsRemove strips the tag stored in the top byte of addresses
// (top byte ignore). Bit 55 selects between user and kernel addresses.
func addrBitsRemove(a *gdbarch.Gdbarch, addr uint64) uint64 {
	const tagMask = uint64(0xff) << 56
	if addr&(1<<55) != 0 {
		return addr | tagMask
	}
	return addr &^ tagMask
}

func readValid(rc gdbarch.RegisterReader, regnum int, buf []byte) error {
	status, err := rc.RawReadPart(regnum, 0, buf)
	if err != nil {
		return err
	}
	if status != gdbarch.RegValid {
		return fmt.Errorf("register %s is %s", rc.Arch().RegisterName(regnum), status)
	}
	return nil
}

// returnValue returns integers and pointers in x0 and x1, floating point
// and short vector values in v0. Larger values go through memory.
func returnValue(a *gdbarch.Gdbarch, typ *gdbtypes.Type, rc gdbarch.RegisterReadWriter, readbuf, writebuf []byte) (gdbarch.ReturnValueConvention, error) {
	td := tdepOf(a)
	switch typ.Code {
	case gdbtypes.TypeInt, gdbtypes.TypeBool, gdbtypes.TypeDataPtr, gdbtypes.TypeCodePtr, gdbtypes.TypeFlags:
		if typ.Length > 16 {
			break
		}
		for off, regnum := 0, td.x0; off < typ.Length; off, regnum = off+8, regnum+1 {
			end := off + 8
			if end > typ.Length {
				end = typ.Length
			}
			if readbuf != nil {
				if err := readValid(rc, regnum, readbuf[off:end]); err != nil {
					return gdbarch.ReturnValueRegisterConvention, err
				}
				continue
			}
			reg := make([]byte, 8)
			copy(reg, writebuf[off:end])
			if err := rc.RawWrite(regnum, reg); err != nil {
				return gdbarch.ReturnValueRegisterConvention, err
			}
		}
		return gdbarch.ReturnValueRegisterConvention, nil
	case gdbtypes.TypeFloat, gdbtypes.TypeVector:
		if typ.Length > 16 || td.v0 < 0 {
			break
		}
		if readbuf != nil {
			return gdbarch.ReturnValueRegisterConvention, readValid(rc, td.v0, readbuf)
		}
		reg := make([]byte, 16)
		copy(reg, writebuf)
		return gdbarch.ReturnValueRegisterConvention, rc.RawWrite(td.v0, reg)
	}
	return gdbarch.ReturnValueStructConvention, nil
}

const numArgRegs = 8

// pushDummyCall passes the first eight arguments in x0-x7 and the rest
// on the stack, the return address goes in the link register.
func pushDummyCall(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, mem gdbarch.MemoryReadWriter, bpAddr uint64, args []uint64, sp uint64) (uint64, error) {
	td := tdepOf(a)
	var stackArgs []uint64
	for i, arg := range args {
		if i >= numArgRegs {
			stackArgs = args[i:]
			break
		}
		if err := rc.CookedWriteUnsigned(td.x0+i, arg); err != nil {
			return 0, err
		}
	}
	sp -= uint64(8 * len(stackArgs))
	sp &^= 0xf
	buf := make([]byte, 8)
	for i, arg := range stackArgs {
		binary.LittleEndian.PutUint64(buf, arg)
		if _, err := mem.WriteMemory(sp+uint64(8*i), buf); err != nil {
			return 0, err
		}
	}
	if err := rc.CookedWriteUnsigned(td.lr, bpAddr); err != nil {
		return 0, err
	}
	return sp, rc.CookedWriteUnsigned(td.sp, sp)
}

func fetchPointerArgument(rc gdbarch.RegisterReader, argi int, typ *gdbtypes.Type) (uint64, error) {
	if argi < 0 || argi >= numArgRegs {
		return 0, fmt.Errorf("argument %d is not passed in a register", argi)
	}
	regnum := tdepOf(rc.Arch()).x0 + argi
	v, status, err := rc.CookedReadUnsigned(regnum)
	if err != nil {
		return 0, err
	}
	if status != gdbarch.RegValid {
		return 0, fmt.Errorf("register x%d is %s", argi, status)
	}
	return v, nil
}

// Offset of the saved program counter in a glibc jmp_buf, in words.
const jmpBufPC = 11

func getLongjmpTarget(rc gdbarch.RegisterReader, mem gdbarch.MemoryReader) (uint64, error) {
	td := tdepOf(rc.Arch())
	jmpBuf, status, err := rc.CookedReadUnsigned(td.x0)
	if err != nil {
		return 0, err
	}
	if status != gdbarch.RegValid {
		return 0, fmt.Errorf("register x0 is %s", status)
	}
	buf := make([]byte, 8)
	if _, err := mem.ReadMemory(buf, jmpBuf+jmpBufPC*8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}
