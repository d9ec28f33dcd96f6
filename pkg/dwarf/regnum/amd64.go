package regnum

import "fmt"

// The mapping between hardware registers and DWARF registers is specified
// in the System V ABI AMD64 Architecture Processor Supplement v. 1.0 page 61,
// figure 3.36
// https://gitlab.com/x86-psABIs/x86-64-ABI/-/tree/master

const (
	AMD64_Rax     = 0
	AMD64_Rdx     = 1
	AMD64_Rcx     = 2
	AMD64_Rbx     = 3
	AMD64_Rsi     = 4
	AMD64_Rdi     = 5
	AMD64_Rbp     = 6
	AMD64_Rsp     = 7
	AMD64_R8      = 8
	AMD64_R9      = 9
	AMD64_R10     = 10
	AMD64_R11     = 11
	AMD64_R12     = 12
	AMD64_R13     = 13
	AMD64_R14     = 14
	AMD64_R15     = 15
	AMD64_Rip     = 16
	AMD64_XMM0    = 17 // XMM1 through XMM15 follow
	AMD64_ST0     = 33 // ST(1) through ST(7) follow
	AMD64_Rflags  = 49
	AMD64_Es      = 50
	AMD64_Cs      = 51
	AMD64_Ss      = 52
	AMD64_Ds      = 53
	AMD64_Fs      = 54
	AMD64_Gs      = 55
	AMD64_Fs_base = 58
	AMD64_Gs_base = 59
	AMD64_MXCSR   = 64
)

// amd64DwarfToName uses the register names of target descriptions.
var amd64DwarfToName = func() map[int]string {
	m := map[int]string{
		AMD64_Rax:     "rax",
		AMD64_Rdx:     "rdx",
		AMD64_Rcx:     "rcx",
		AMD64_Rbx:     "rbx",
		AMD64_Rsi:     "rsi",
		AMD64_Rdi:     "rdi",
		AMD64_Rbp:     "rbp",
		AMD64_Rsp:     "rsp",
		AMD64_Rip:     "rip",
		AMD64_Rflags:  "eflags",
		AMD64_Es:      "es",
		AMD64_Cs:      "cs",
		AMD64_Ss:      "ss",
		AMD64_Ds:      "ds",
		AMD64_Fs:      "fs",
		AMD64_Gs:      "gs",
		AMD64_Fs_base: "fs_base",
		AMD64_Gs_base: "gs_base",
		AMD64_MXCSR:   "mxcsr",
	}
	for i := 0; i < 8; i++ {
		m[AMD64_R8+i] = fmt.Sprintf("r%d", 8+i)
		m[AMD64_ST0+i] = fmt.Sprintf("st%d", i)
	}
	for i := 0; i < 16; i++ {
		m[AMD64_XMM0+i] = fmt.Sprintf("xmm%d", i)
	}
	return m
}()

// AMD64NameToDwarf maps register names to DWARF register numbers.
var AMD64NameToDwarf = reverse(amd64DwarfToName)

// AMD64ToName returns the name of DWARF register num, or the empty string
// if num isn't a register we know about.
func AMD64ToName(num int) string {
	return amd64DwarfToName[num]
}

func reverse(m map[int]string) map[string]int {
	r := make(map[string]int, len(m))
	for num, name := range m {
		r[name] = num
	}
	return r
}
