package x86

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"golang.org/x/arch/x86/x86asm"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

const maxInstructionLength = 15

var breakInstruction = []byte{0xCC}

// endbr64 and endbr32 are older than the version of x86asm we use, they
// are matched by hand.
var (
	endbr64 = []byte{0xf3, 0x0f, 0x1e, 0xfa}
	endbr32 = []byte{0xf3, 0x0f, 0x1e, 0xfb}
)

func breakpointFromPC(a *gdbarch.Gdbarch, pc uint64) (uint64, []byte) {
	return pc, breakInstruction
}

// skipPrologue recognizes the frame setup emitted by C compilers:
//
//	[endbr64]
//	push %rbp
//	mov  %rsp, %rbp
//	[sub $n, %rsp]
//
// Returns pc unchanged if the function does not start with it.
func skipPrologue(a *gdbarch.Gdbarch, mem gdbarch.MemoryReader, pc uint64) uint64 {
	td := tdepOf(a)
	buf := make([]byte, 3*maxInstructionLength)
	n, err := mem.ReadMemory(buf, pc)
	if err != nil || n == 0 {
		return pc
	}
	buf = buf[:n]

	sp, fp := x86asm.ESP, x86asm.EBP
	if td.bits == 64 {
		sp, fp = x86asm.RSP, x86asm.RBP
	}

	off := 0
	if bytes.HasPrefix(buf, endbr64) || bytes.HasPrefix(buf, endbr32) {
		off = len(endbr64)
	}
	decode := func() (x86asm.Inst, bool) {
		if off >= len(buf) {
			return x86asm.Inst{}, false
		}
		inst, err := x86asm.Decode(buf[off:], td.bits)
		return inst, err == nil
	}

	inst, ok := decode()
	if !ok || inst.Op != x86asm.PUSH || inst.Args[0] != fp {
		return pc
	}
	off += inst.Len
	afterPush := pc + uint64(off)

	inst, ok = decode()
	if !ok || inst.Op != x86asm.MOV || inst.Args[0] != fp || inst.Args[1] != sp {
		return afterPush
	}
	off += inst.Len

	if inst, ok = decode(); ok && inst.Op == x86asm.SUB && inst.Args[0] == sp {
		if _, imm := inst.Args[1].(x86asm.Imm); imm {
			off += inst.Len
		}
	}
	return pc + uint64(off)
}

// transfer moves buf in and out of the registers regs, using at most
// size bytes of each register.
func transfer(rc gdbarch.RegisterReadWriter, regs []int, size int, readbuf, writebuf []byte) error {
	buf := readbuf
	if buf == nil {
		buf = writebuf
	}
	for i, off := 0, 0; off < len(buf); i, off = i+1, off+size {
		end := off + size
		if end > len(buf) {
			end = len(buf)
		}
		if i >= len(regs) || regs[i] < 0 {
			return fmt.Errorf("value of %d bytes does not fit in the return registers", len(buf))
		}
		if readbuf != nil {
			status, err := rc.RawReadPart(regs[i], 0, readbuf[off:end])
			if err != nil {
				return err
			}
			if status != gdbarch.RegValid {
				return fmt.Errorf("register %s is %s", rc.Arch().RegisterName(regs[i]), status)
			}
			continue
		}
		if err := rc.RawWritePart(regs[i], 0, writebuf[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func isScalar(typ *gdbtypes.Type) bool {
	switch typ.Code {
	case gdbtypes.TypeInt, gdbtypes.TypeBool, gdbtypes.TypeDataPtr, gdbtypes.TypeCodePtr, gdbtypes.TypeFlags:
		return true
	}
	return false
}

// amd64ReturnValue implements the register part of the System V
// classification: integers in rax:rdx, floats and vectors in xmm0,
// long double in st0. Everything else is returned in memory with its
// address in rax.
func amd64ReturnValue(a *gdbarch.Gdbarch, typ *gdbtypes.Type, rc gdbarch.RegisterReadWriter, readbuf, writebuf []byte) (gdbarch.ReturnValueConvention, error) {
	td := tdepOf(a)
	var err error
	switch {
	case isScalar(typ) && typ.Length <= 16:
		err = transfer(rc, []int{td.Regnum("rax"), td.Regnum("rdx")}, 8, readbuf, writebuf)
	case typ.Code == gdbtypes.TypeFloat && typ.Format == gdbtypes.I387Ext:
		err = transfer(rc, []int{td.Regnum("st0")}, gdbtypes.I387Ext.Len(), readbuf, writebuf)
	case (typ.Code == gdbtypes.TypeFloat || typ.Code == gdbtypes.TypeVector) && typ.Length <= 16:
		err = transfer(rc, []int{td.Regnum("xmm0")}, 16, readbuf, writebuf)
	default:
		return gdbarch.ReturnValueABIReturnsAddress, nil
	}
	return gdbarch.ReturnValueRegisterConvention, err
}

// i386ReturnValue returns integers in eax:edx and floating point values
// in st0, converted to and from the i387 extended format.
func i386ReturnValue(a *gdbarch.Gdbarch, typ *gdbtypes.Type, rc gdbarch.RegisterReadWriter, readbuf, writebuf []byte) (gdbarch.ReturnValueConvention, error) {
	td := tdepOf(a)
	switch {
	case isScalar(typ) && typ.Length <= 8:
		return gdbarch.ReturnValueRegisterConvention, transfer(rc, []int{td.Regnum("eax"), td.Regnum("edx")}, 4, readbuf, writebuf)
	case typ.Code == gdbtypes.TypeFloat:
		st0 := td.Regnum("st0")
		if st0 < 0 {
			return gdbarch.ReturnValueRegisterConvention, errors.New("no floating point registers")
		}
		return gdbarch.ReturnValueRegisterConvention, transferFloat(a, rc, st0, typ, readbuf, writebuf)
	}
	return gdbarch.ReturnValueStructConvention, nil
}

func transferFloat(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, st0 int, typ *gdbtypes.Type, readbuf, writebuf []byte) error {
	order := a.ByteOrder().Binary()
	raw := make([]byte, gdbtypes.I387Ext.Len())
	if readbuf != nil {
		status, err := rc.RawReadPart(st0, 0, raw)
		if err != nil {
			return err
		}
		if status != gdbarch.RegValid {
			return fmt.Errorf("register st0 is %s", status)
		}
		v := gdbtypes.I387Ext.ToFloat64(raw)
		switch {
		case typ.Format == gdbtypes.I387Ext:
			copy(readbuf, raw)
		case typ.Length == 4:
			order.PutUint32(readbuf, math.Float32bits(float32(v)))
		case typ.Length == 8:
			order.PutUint64(readbuf, math.Float64bits(v))
		default:
			return fmt.Errorf("unsupported floating point type %s", typ.Name)
		}
		return nil
	}
	var v float64
	switch {
	case typ.Format == gdbtypes.I387Ext:
		copy(raw, writebuf)
		return rc.RawWritePart(st0, 0, raw)
	case typ.Length == 4:
		v = float64(math.Float32frombits(order.Uint32(writebuf)))
	case typ.Length == 8:
		v = math.Float64frombits(order.Uint64(writebuf))
	default:
		return fmt.Errorf("unsupported floating point type %s", typ.Name)
	}
	return rc.RawWritePart(st0, 0, float64ToI387(v))
}

// float64ToI387 encodes v in the i387 extended precision format.
func float64ToI387(v float64) []byte {
	var sign uint16
	if math.Signbit(v) {
		sign = 0x8000
		v = -v
	}
	var exp uint16
	var man uint64
	switch {
	case v == 0:
	case math.IsInf(v, 0):
		exp, man = 0x7fff, 1<<63
	case math.IsNaN(v):
		exp, man = 0x7fff, 0xc000000000000000
	default:
		frac, e := math.Frexp(v) // v = frac * 2^e, 0.5 <= frac < 1
		man = uint64(math.Ldexp(frac, 64))
		exp = uint16(e - 1 + 0x3fff)
	}
	buf := make([]byte, 10)
	for i := 0; i < 8; i++ {
		buf[i] = byte(man >> (8 * uint(i)))
	}
	se := sign | exp
	buf[8], buf[9] = byte(se), byte(se>>8)
	return buf
}

var amd64ArgRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

func writeWord(mem gdbarch.MemoryReadWriter, a *gdbarch.Gdbarch, addr, v uint64, size int) error {
	buf := make([]byte, size)
	gdbtypes.StoreUnsigned(buf, a.ByteOrder().Binary(), v)
	_, err := mem.WriteMemory(addr, buf)
	return err
}

// amd64PushDummyCall passes the first six arguments in registers and the
// rest on the stack, pushes the return address bpAddr and returns the new
// stack pointer.
func amd64PushDummyCall(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, mem gdbarch.MemoryReadWriter, bpAddr uint64, args []uint64, sp uint64) (uint64, error) {
	td := tdepOf(a)
	var stackArgs []uint64
	for i, arg := range args {
		if i >= len(amd64ArgRegs) {
			stackArgs = args[i:]
			break
		}
		if err := rc.CookedWriteUnsigned(td.Regnum(amd64ArgRegs[i]), arg); err != nil {
			return 0, err
		}
	}
	// number of vector registers used by a variadic call
	if err := rc.CookedWriteUnsigned(td.Regnum("rax"), 0); err != nil {
		return 0, err
	}

	sp -= uint64(8 * len(stackArgs))
	sp &^= 0xf
	for i, arg := range stackArgs {
		if err := writeWord(mem, a, sp+uint64(8*i), arg, 8); err != nil {
			return 0, err
		}
	}
	sp -= 8
	if err := writeWord(mem, a, sp, bpAddr, 8); err != nil {
		return 0, err
	}
	if err := rc.CookedWriteUnsigned(td.sp, sp); err != nil {
		return 0, err
	}
	return sp, rc.CookedWriteUnsigned(td.fp, sp+16)
}

// i386PushDummyCall passes every argument on the stack.
func i386PushDummyCall(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, mem gdbarch.MemoryReadWriter, bpAddr uint64, args []uint64, sp uint64) (uint64, error) {
	td := tdepOf(a)
	sp -= uint64(4 * len(args))
	sp &^= 0xf
	for i, arg := range args {
		if err := writeWord(mem, a, sp+uint64(4*i), arg, 4); err != nil {
			return 0, err
		}
	}
	sp -= 4
	if err := writeWord(mem, a, sp, bpAddr, 4); err != nil {
		return 0, err
	}
	return sp, rc.CookedWriteUnsigned(td.sp, sp)
}

func amd64FetchPointerArgument(rc gdbarch.RegisterReader, argi int, typ *gdbtypes.Type) (uint64, error) {
	if argi < 0 || argi >= len(amd64ArgRegs) {
		return 0, fmt.Errorf("argument %d is not passed in a register", argi)
	}
	regnum := tdepOf(rc.Arch()).Regnum(amd64ArgRegs[argi])
	v, status, err := rc.CookedReadUnsigned(regnum)
	if err != nil {
		return 0, err
	}
	if status != gdbarch.RegValid {
		return 0, fmt.Errorf("register %s is %s", amd64ArgRegs[argi], status)
	}
	return v, nil
}

// Offset of the saved program counter in a glibc jmp_buf, in words.
const (
	amd64JmpBufPC = 7
	i386JmpBufPC  = 5
)

// getLongjmpTarget reads the destination of a longjmp call stopped at its
// first instruction. The jmp_buf is the first argument.
func getLongjmpTarget(rc gdbarch.RegisterReader, mem gdbarch.MemoryReader) (uint64, error) {
	a := rc.Arch()
	td := tdepOf(a)
	order := a.ByteOrder().Binary()
	word := td.bits / 8
	read := func(addr uint64) (uint64, error) {
		buf := make([]byte, word)
		if _, err := mem.ReadMemory(buf, addr); err != nil {
			return 0, err
		}
		return gdbtypes.ExtractUnsigned(buf, order), nil
	}
	readReg := func(regnum int) (uint64, error) {
		v, status, err := rc.CookedReadUnsigned(regnum)
		if err == nil && status != gdbarch.RegValid {
			err = fmt.Errorf("register %s is %s", a.RegisterName(regnum), status)
		}
		return v, err
	}

	var jmpBuf uint64
	var err error
	if td.bits == 64 {
		jmpBuf, err = readReg(td.Regnum("rdi"))
		if err != nil {
			return 0, err
		}
		return read(jmpBuf + amd64JmpBufPC*8)
	}
	sp, err := readReg(td.sp)
	if err != nil {
		return 0, err
	}
	if jmpBuf, err = read(sp + 4); err != nil {
		return 0, err
	}
	return read(jmpBuf + i386JmpBufPC*4)
}
