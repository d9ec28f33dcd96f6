package x86

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
)

// pseudoReg is a pseudo register made of size bytes of raw register raw,
// starting at offset.
type pseudoReg struct {
	name   string
	raw    int
	offset int
	size   int
}

// pseudoRegs returns the 32 bit (x86-64 only), 16 bit and 8 bit views of
// the general purpose registers of td.
func pseudoRegs(td *Tdep, bits int) []pseudoReg {
	gprs, base := i386GPRs, x86asm.EAX
	if bits == 64 {
		gprs, base = amd64GPRs, x86asm.RAX
	}
	type gpr struct {
		idx    int // index in the x86asm register tables
		regnum int
	}
	var present []gpr
	for _, r := range gprs {
		n := td.Regnum(regName(r))
		if n < 0 || td.regs[n].Size() != bits/8 {
			continue
		}
		present = append(present, gpr{int(r - base), n})
	}

	var pseudo []pseudoReg
	add := func(r x86asm.Reg, g gpr, offset, size int) {
		name := regName(r)
		if name == "sp" {
			// would hide the $sp user register
			return
		}
		pseudo = append(pseudo, pseudoReg{name: name, raw: g.regnum, offset: offset, size: size})
	}
	if bits == 64 {
		for _, g := range present {
			add(x86asm.EAX+x86asm.Reg(g.idx), g, 0, 4)
		}
	}
	for _, g := range present {
		add(x86asm.AX+x86asm.Reg(g.idx), g, 0, 2)
	}
	for _, g := range present {
		switch {
		case g.idx < 4:
			add(x86asm.AL+x86asm.Reg(g.idx), g, 0, 1)
		case bits == 64 && g.idx < 8:
			add(x86asm.SPB+x86asm.Reg(g.idx-4), g, 0, 1)
		case bits == 64:
			add(x86asm.R8B+x86asm.Reg(g.idx-8), g, 0, 1)
		}
	}
	for _, g := range present {
		if g.idx < 4 {
			add(x86asm.AH+x86asm.Reg(g.idx), g, 1, 1)
		}
	}
	return pseudo
}

func (td *Tdep) pseudoReg(a *gdbarch.Gdbarch, regnum int) pseudoReg {
	i := regnum - len(td.regs)
	if i < 0 || i >= len(td.pseudo) {
		gdbarch.InternalError("%s: register %d is not a pseudo register", a, regnum)
	}
	return td.pseudo[i]
}

func pseudoRegisterRead(a *gdbarch.Gdbarch, rc gdbarch.RegisterReader, regnum int, buf []byte) (gdbarch.RegisterStatus, error) {
	p := tdepOf(a).pseudoReg(a, regnum)
	return rc.RawReadPart(p.raw, p.offset, buf)
}

// pseudoRegisterWrite leaves the bytes of the raw register not covered by
// the pseudo register unchanged.
func pseudoRegisterWrite(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, regnum int, buf []byte) error {
	p := tdepOf(a).pseudoReg(a, regnum)
	return rc.RawWritePart(p.raw, p.offset, buf)
}
