package x86

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/go-delve/dbgcore/pkg/dwarf/regnum"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// General purpose registers in the order they appear in target
// descriptions.
var (
	amd64GPRs = []x86asm.Reg{
		x86asm.RAX, x86asm.RBX, x86asm.RCX, x86asm.RDX,
		x86asm.RSI, x86asm.RDI, x86asm.RBP, x86asm.RSP,
		x86asm.R8, x86asm.R9, x86asm.R10, x86asm.R11,
		x86asm.R12, x86asm.R13, x86asm.R14, x86asm.R15,
	}
	i386GPRs = []x86asm.Reg{
		x86asm.EAX, x86asm.ECX, x86asm.EDX, x86asm.EBX,
		x86asm.ESP, x86asm.EBP, x86asm.ESI, x86asm.EDI,
	}
	segmentRegs = []x86asm.Reg{x86asm.CS, x86asm.SS, x86asm.DS, x86asm.ES, x86asm.FS, x86asm.GS}
)

var fpControlRegs = []string{"fctrl", "fstat", "ftag", "fiseg", "fioff", "foseg", "fooff", "fop"}

type modeNames struct {
	pc, sp, fp, origAX string
}

var (
	amd64Names = modeNames{pc: "rip", sp: "rsp", fp: "rbp", origAX: "orig_rax"}
	i386Names  = modeNames{pc: "eip", sp: "esp", fp: "ebp", origAX: "orig_eax"}
)

// asmRegNames are the registers whose name in target descriptions is not
// the lower case name x86asm uses.
var asmRegNames = map[x86asm.Reg]string{
	x86asm.SPB: "spl",
	x86asm.BPB: "bpl",
	x86asm.SIB: "sil",
	x86asm.DIB: "dil",
}

// regName returns the name of r as used in target descriptions.
func regName(r x86asm.Reg) string {
	if name, ok := asmRegNames[r]; ok {
		return name
	}
	switch {
	case r >= x86asm.R8B && r <= x86asm.R15B:
		return fmt.Sprintf("r%dl", 8+int(r-x86asm.R8B))
	case r >= x86asm.R8W && r <= x86asm.R15W:
		return fmt.Sprintf("r%dw", 8+int(r-x86asm.R8W))
	case r >= x86asm.R8L && r <= x86asm.R15L:
		return fmt.Sprintf("r%dd", 8+int(r-x86asm.R8L))
	}
	return strings.ToLower(r.String())
}

var (
	amd64Description = newDefaultDescription(64)
	i386Description  = newDefaultDescription(32)
)

func defaultDescription(bits int) *tdesc.Description {
	if bits == 64 {
		return amd64Description
	}
	return i386Description
}

// newDefaultDescription describes the registers of a linux thread, used
// when the target does not send a description of its own.
func newDefaultDescription(bits int) *tdesc.Description {
	gprs, names, archName := i386GPRs, i386Names, "i386"
	if bits == 64 {
		gprs, names, archName = amd64GPRs, amd64Names, "i386:x86-64"
	}
	d := tdesc.New(archName)
	d.OSABI = string(gdbarch.OSABILinux)

	n := 0
	core := d.AddFeature(FeatureCore)
	for _, r := range gprs {
		name, typ := regName(r), "int"
		if name == names.sp || name == names.fp {
			typ = "data_ptr"
		}
		core.AddReg(name, n, bits, typ, "")
		n++
	}
	core.AddReg(names.pc, n, bits, "code_ptr", "")
	core.AddReg("eflags", n+1, 32, "i386_eflags", "")
	n += 2
	for _, r := range segmentRegs {
		core.AddReg(regName(r), n, 32, "int32", "")
		n++
	}
	for i := 0; i < 8; i++ {
		core.AddReg(fmt.Sprintf("st%d", i), n, 80, "i387_ext", "")
		n++
	}
	for _, name := range fpControlRegs {
		core.AddReg(name, n, 32, "int", "float")
		n++
	}

	sse := d.AddFeature(FeatureSSE)
	nxmm := 8
	if bits == 64 {
		nxmm = 16
	}
	for i := 0; i < nxmm; i++ {
		sse.AddReg(fmt.Sprintf("xmm%d", i), n, 128, "vec128", "")
		n++
	}
	sse.AddReg("mxcsr", n, 32, "i386_mxcsr", "vector")
	n++

	linux := d.AddFeature(FeatureLinux)
	linux.AddReg(names.origAX, n, bits, "int", "system")
	n++

	if bits == 64 {
		seg := d.AddFeature(FeatureSegments)
		seg.AddReg("fs_base", n, 64, "int", "")
		seg.AddReg("gs_base", n+1, 64, "int", "")
	}
	return d
}

func registerName(a *gdbarch.Gdbarch, regnum int) string {
	td := tdepOf(a)
	if regnum < len(td.regs) {
		if r := td.regs[regnum]; r != nil {
			return r.Name
		}
		return ""
	}
	return td.pseudo[regnum-len(td.regs)].name
}

type archTypes struct {
	eflags, mxcsr, i387Ext, vec128 *gdbtypes.Type
	regs                           []*gdbtypes.Type
}

var typesData = gdbarch.NewPostInitData(func(a *gdbarch.Gdbarch) *archTypes {
	bt := gdbarch.BuiltinTypes(a)
	at := &archTypes{}
	at.eflags = gdbtypes.NewFlags("i386_eflags", 4,
		gdbtypes.FlagField{Name: "CF", Start: 0},
		gdbtypes.FlagField{Name: "PF", Start: 2},
		gdbtypes.FlagField{Name: "AF", Start: 4},
		gdbtypes.FlagField{Name: "ZF", Start: 6},
		gdbtypes.FlagField{Name: "SF", Start: 7},
		gdbtypes.FlagField{Name: "TF", Start: 8},
		gdbtypes.FlagField{Name: "IF", Start: 9},
		gdbtypes.FlagField{Name: "DF", Start: 10},
		gdbtypes.FlagField{Name: "OF", Start: 11},
		gdbtypes.FlagField{Name: "NT", Start: 14},
		gdbtypes.FlagField{Name: "RF", Start: 16},
		gdbtypes.FlagField{Name: "VM", Start: 17},
		gdbtypes.FlagField{Name: "AC", Start: 18},
		gdbtypes.FlagField{Name: "VIF", Start: 19},
		gdbtypes.FlagField{Name: "VIP", Start: 20},
		gdbtypes.FlagField{Name: "ID", Start: 21})
	at.mxcsr = gdbtypes.NewFlags("i386_mxcsr", 4,
		gdbtypes.FlagField{Name: "IE", Start: 0},
		gdbtypes.FlagField{Name: "DE", Start: 1},
		gdbtypes.FlagField{Name: "ZE", Start: 2},
		gdbtypes.FlagField{Name: "OE", Start: 3},
		gdbtypes.FlagField{Name: "UE", Start: 4},
		gdbtypes.FlagField{Name: "PE", Start: 5},
		gdbtypes.FlagField{Name: "DAZ", Start: 6},
		gdbtypes.FlagField{Name: "IM", Start: 7},
		gdbtypes.FlagField{Name: "DM", Start: 8},
		gdbtypes.FlagField{Name: "ZM", Start: 9},
		gdbtypes.FlagField{Name: "OM", Start: 10},
		gdbtypes.FlagField{Name: "UM", Start: 11},
		gdbtypes.FlagField{Name: "PM", Start: 12},
		gdbtypes.FlagField{Name: "FZ", Start: 15})
	at.i387Ext = gdbtypes.NewFloat("i387_ext", 10, gdbtypes.I387Ext)
	at.vec128 = gdbtypes.NewUnion("vec128",
		gdbtypes.Field{Name: "v4_float", Type: gdbtypes.NewVector("v4f", bt.IEEESingle, 4)},
		gdbtypes.Field{Name: "v2_double", Type: gdbtypes.NewVector("v2d", bt.IEEEDouble, 2)},
		gdbtypes.Field{Name: "v16_int8", Type: gdbtypes.NewVector("v16i8", bt.Int8, 16)},
		gdbtypes.Field{Name: "v8_int16", Type: gdbtypes.NewVector("v8i16", bt.Int16, 8)},
		gdbtypes.Field{Name: "v4_int32", Type: gdbtypes.NewVector("v4i32", bt.Int32, 4)},
		gdbtypes.Field{Name: "v2_int64", Type: gdbtypes.NewVector("v2i64", bt.Int64, 2)},
		gdbtypes.Field{Name: "uint128", Type: bt.Uint128})

	td := tdepOf(a)
	at.regs = make([]*gdbtypes.Type, a.NumCookedRegs())
	for i, r := range td.regs {
		if r == nil {
			at.regs[i] = bt.Int0
			continue
		}
		at.regs[i] = at.rawType(a, r)
	}
	for i, p := range td.pseudo {
		t := bt.Int8
		switch p.size {
		case 2:
			t = bt.Int16
		case 4:
			t = bt.Int32
		}
		at.regs[len(td.regs)+i] = t
	}
	return at
})

func (at *archTypes) rawType(a *gdbarch.Gdbarch, r *tdesc.Reg) *gdbtypes.Type {
	var t *gdbtypes.Type
	switch r.Type {
	case "i386_eflags":
		t = at.eflags
	case "i386_mxcsr":
		t = at.mxcsr
	case "i387_ext":
		t = at.i387Ext
	case "vec128":
		t = at.vec128
	default:
		t = gdbarch.TdescRegisterType(a, r)
	}
	if t == nil || t.Length != r.Size() {
		return gdbtypes.NewUnsigned(r.Type, r.Size())
	}
	return t
}

func registerType(a *gdbarch.Gdbarch, regnum int) *gdbtypes.Type {
	at := typesData.Get(a)
	if at == nil {
		gdbarch.InternalError("register types of %s requested before initialization", a)
	}
	return at.regs[regnum]
}

func isSSE(name string) bool {
	return strings.HasPrefix(name, "xmm") || name == "mxcsr"
}

// registerReggroupP keeps pseudo registers out of every group, the
// register groups of the target description take precedence over the
// classification by type.
func registerReggroupP(a *gdbarch.Gdbarch, regnum int, group *gdbarch.Reggroup) bool {
	td := tdepOf(a)
	if regnum >= len(td.regs) {
		return false
	}
	r := td.regs[regnum]
	if r == nil {
		return false
	}
	if group == SSEReggroup {
		return isSSE(r.Name)
	}
	if in, ok := gdbarch.TdescReggroupP(r, group); ok {
		return in
	}
	return gdbarch.DefaultRegisterReggroupP(a, regnum, group)
}

// cannotStoreRegister protects orig_rax (orig_eax), the kernel uses it to
// decide whether a system call must be restarted.
func cannotStoreRegister(a *gdbarch.Gdbarch, regnum int) bool {
	return regnum == tdepOf(a).origAX
}

func dwarf2RegToRegnum(a *gdbarch.Gdbarch, reg int) int {
	td := tdepOf(a)
	var name string
	if td.bits == 64 {
		name = regnum.AMD64ToName(reg)
	} else {
		name = regnum.I386ToName(reg)
	}
	if name == "" {
		return -1
	}
	return td.Regnum(name)
}
