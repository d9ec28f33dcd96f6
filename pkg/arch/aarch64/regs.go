package aarch64

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/go-delve/dbgcore/pkg/dwarf/regnum"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

func asmName(r arm64asm.Reg) string {
	return strings.ToLower(r.String())
}

var defaultDescription = func() *tdesc.Description {
	d := tdesc.New("aarch64")
	d.OSABI = string(gdbarch.OSABILinux)

	core := d.AddFeature(FeatureCore)
	n := 0
	for i := 0; i <= 30; i++ {
		core.AddReg(asmName(arm64asm.X0+arm64asm.Reg(i)), n, 64, "int", "")
		n++
	}
	core.AddReg("sp", n, 64, "data_ptr", "")
	core.AddReg("pc", n+1, 64, "code_ptr", "")
	core.AddReg("cpsr", n+2, 32, "cpsr_flags", "")
	n += 3

	fpu := d.AddFeature(FeatureFPU)
	for i := 0; i < 32; i++ {
		fpu.AddReg(asmName(arm64asm.V0+arm64asm.Reg(i)), n, 128, "aarch64v", "")
		n++
	}
	fpu.AddReg("fpsr", n, 32, "int", "float")
	fpu.AddReg("fpcr", n+1, 32, "int", "float")
	return d
}()

// pseudoReg is the low size bytes of raw register raw. Writing a pseudo
// register clears the rest of the raw register, like the instructions
// writing the W, D and S views do.
type pseudoReg struct {
	name string
	raw  int
	size int
}

// pseudoRegs returns the W views of the general purpose registers and the
// D and S views of the vector registers.
func pseudoRegs(td *Tdep) []pseudoReg {
	var pseudo []pseudoReg
	views := []struct {
		from, to arm64asm.Reg
		count    int
		size     int
	}{
		{arm64asm.X0, arm64asm.W0, 31, 4},
		{arm64asm.V0, arm64asm.D0, 32, 8},
		{arm64asm.V0, arm64asm.S0, 32, 4},
	}
	for _, v := range views {
		for i := 0; i < v.count; i++ {
			raw := td.Regnum(asmName(v.from + arm64asm.Reg(i)))
			if raw < 0 {
				continue
			}
			pseudo = append(pseudo, pseudoReg{name: asmName(v.to + arm64asm.Reg(i)), raw: raw, size: v.size})
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
	return rc.RawReadPart(p.raw, 0, buf)
}

func pseudoRegisterWrite(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, regnum int, buf []byte) error {
	td := tdepOf(a)
	p := td.pseudoReg(a, regnum)
	reg := make([]byte, td.regs[p.raw].Size())
	copy(reg, buf)
	return rc.RawWrite(p.raw, reg)
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
	cpsr, vreg *gdbtypes.Type
	regs       []*gdbtypes.Type
}

var typesData = gdbarch.NewPostInitData(func(a *gdbarch.Gdbarch) *archTypes {
	bt := gdbarch.BuiltinTypes(a)
	at := &archTypes{}
	at.cpsr = gdbtypes.NewFlags("cpsr_flags", 4,
		gdbtypes.FlagField{Name: "SP", Start: 0},
		gdbtypes.FlagField{Name: "EL", Start: 2, End: 3},
		gdbtypes.FlagField{Name: "nRW", Start: 4},
		gdbtypes.FlagField{Name: "F", Start: 6},
		gdbtypes.FlagField{Name: "I", Start: 7},
		gdbtypes.FlagField{Name: "A", Start: 8},
		gdbtypes.FlagField{Name: "D", Start: 9},
		gdbtypes.FlagField{Name: "IL", Start: 20},
		gdbtypes.FlagField{Name: "SS", Start: 21},
		gdbtypes.FlagField{Name: "V", Start: 28},
		gdbtypes.FlagField{Name: "C", Start: 29},
		gdbtypes.FlagField{Name: "Z", Start: 30},
		gdbtypes.FlagField{Name: "N", Start: 31})
	at.vreg = gdbtypes.NewUnion("aarch64v",
		gdbtypes.Field{Name: "d", Type: gdbtypes.NewVector("v2d", bt.IEEEDouble, 2)},
		gdbtypes.Field{Name: "s", Type: gdbtypes.NewVector("v4f", bt.IEEESingle, 4)},
		gdbtypes.Field{Name: "h", Type: gdbtypes.NewVector("v8i16", bt.Int16, 8)},
		gdbtypes.Field{Name: "b", Type: gdbtypes.NewVector("v16i8", bt.Int8, 16)},
		gdbtypes.Field{Name: "q", Type: bt.Uint128})

	td := tdepOf(a)
	at.regs = make([]*gdbtypes.Type, a.NumCookedRegs())
	for i, r := range td.regs {
		if r == nil {
			at.regs[i] = bt.Int0
			continue
		}
		var t *gdbtypes.Type
		switch r.Type {
		case "cpsr_flags":
			t = at.cpsr
		case "aarch64v":
			t = at.vreg
		default:
			t = gdbarch.TdescRegisterType(a, r)
		}
		if t == nil || t.Length != r.Size() {
			t = gdbtypes.NewUnsigned(r.Type, r.Size())
		}
		at.regs[i] = t
	}
	for i, p := range td.pseudo {
		t := bt.Int32
		switch {
		case strings.HasPrefix(p.name, "d"):
			t = bt.IEEEDouble
		case strings.HasPrefix(p.name, "s"):
			t = bt.IEEESingle
		}
		at.regs[len(td.regs)+i] = t
	}
	return at
})

func registerType(a *gdbarch.Gdbarch, regnum int) *gdbtypes.Type {
	at := typesData.Get(a)
	if at == nil {
		gdbarch.InternalError("register types of %s requested before initialization", a)
	}
	return at.regs[regnum]
}

// registerReggroupP puts the W views in the general group and the D and S
// views in the float group, raw registers are classified by the target
// description first and by type otherwise.
func registerReggroupP(a *gdbarch.Gdbarch, regnum int, group *gdbarch.Reggroup) bool {
	td := tdepOf(a)
	if regnum >= len(td.regs) {
		p := td.pseudo[regnum-len(td.regs)]
		switch group {
		case gdbarch.AllReggroup:
			return true
		case gdbarch.GeneralReggroup:
			return p.name[0] == 'w'
		case gdbarch.FloatReggroup:
			return p.name[0] != 'w'
		}
		return false
	}
	r := td.regs[regnum]
	if r == nil {
		return false
	}
	if in, ok := gdbarch.TdescReggroupP(r, group); ok {
		return in
	}
	return gdbarch.DefaultRegisterReggroupP(a, regnum, group)
}

func dwarf2RegToRegnum(a *gdbarch.Gdbarch, reg int) int {
	name := regnum.ARM64ToName(reg)
	if name == "" {
		return -1
	}
	return tdepOf(a).Regnum(name)
}
