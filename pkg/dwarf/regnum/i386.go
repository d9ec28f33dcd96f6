package regnum

import "fmt"

// The mapping between hardware registers and DWARF registers is specified
// in the System V ABI Intel386 Architecture Processor Supplement page 25,
// table 2.14
// https://www.uclibc.org/docs/psABI-i386.pdf

const (
	I386_Eax    = 0
	I386_Ecx    = 1
	I386_Edx    = 2
	I386_Ebx    = 3
	I386_Esp    = 4
	I386_Ebp    = 5
	I386_Esi    = 6
	I386_Edi    = 7
	I386_Eip    = 8
	I386_Eflags = 9
	I386_ST0    = 11 // ST(1) through ST(7) follow
	I386_XMM0   = 21 // XMM1 through XMM7 follow
	I386_MXCSR  = 39
	I386_Es     = 40
	I386_Cs     = 41
	I386_Ss     = 42
	I386_Ds     = 43
	I386_Fs     = 44
	I386_Gs     = 45
)

var i386DwarfToName = func() map[int]string {
	m := map[int]string{
		I386_Eax:    "eax",
		I386_Ecx:    "ecx",
		I386_Edx:    "edx",
		I386_Ebx:    "ebx",
		I386_Esp:    "esp",
		I386_Ebp:    "ebp",
		I386_Esi:    "esi",
		I386_Edi:    "edi",
		I386_Eip:    "eip",
		I386_Eflags: "eflags",
		I386_MXCSR:  "mxcsr",
		I386_Es:     "es",
		I386_Cs:     "cs",
		I386_Ss:     "ss",
		I386_Ds:     "ds",
		I386_Fs:     "fs",
		I386_Gs:     "gs",
	}
	for i := 0; i < 8; i++ {
		m[I386_ST0+i] = fmt.Sprintf("st%d", i)
		m[I386_XMM0+i] = fmt.Sprintf("xmm%d", i)
	}
	return m
}()

// I386NameToDwarf maps register names to DWARF register numbers.
var I386NameToDwarf = reverse(i386DwarfToName)

// I386ToName returns the name of DWARF register num, or the empty string.
func I386ToName(num int) string {
	return i386DwarfToName[num]
}
