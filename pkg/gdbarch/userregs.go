package gdbarch

import (
	"fmt"
	"sort"

	"github.com/derekparker/trie"
)

// UserRegFunc resolves a user register to the cooked register it stands
// for on a, -1 if it has no meaning on a.
type UserRegFunc func(a *Gdbarch) int

type userReg struct {
	name    string
	resolve UserRegFunc
}

// User registers available on every architecture.
var builtinUserRegs = []userReg{
	{"pc", func(a *Gdbarch) int { return a.PCRegnum() }},
	{"sp", func(a *Gdbarch) int { return a.SPRegnum() }},
	{"fp", func(a *Gdbarch) int {
		regnum, _ := a.VirtualFramePointer(0)
		return regnum
	}},
	{"ps", func(a *Gdbarch) int { return a.PSRegnum() }},
}

type userRegList struct {
	regs []userReg
}

var userRegsData = NewPreInitData(func() *userRegList { return &userRegList{} })

// AddUserReg adds a register alias to a, it must be called while a is
// being built. Aliases are numbered after the cooked registers and the
// builtin user registers.
func AddUserReg(a *Gdbarch, name string, resolve UserRegFunc) {
	a.mutable("user_regs")
	l := userRegsData.Get(a)
	l.regs = append(l.regs, userReg{name, resolve})
}

func userRegs(a *Gdbarch) []userReg {
	regs := make([]userReg, 0, len(builtinUserRegs)+len(userRegsData.Get(a).regs))
	regs = append(regs, builtinUserRegs...)
	return append(regs, userRegsData.Get(a).regs...)
}

// regNames indexes the register names and the user register names of an
// architecture.
type regNames struct {
	t *trie.Trie
}

var regNamesData = NewPostInitData(func(a *Gdbarch) *regNames {
	t := trie.New()
	for i := 0; i < a.NumCookedRegs(); i++ {
		if name := a.RegisterName(i); name != "" {
			if _, ok := t.Find(name); !ok {
				t.Add(name, i)
			}
		}
	}
	for i, ur := range userRegs(a) {
		if _, ok := t.Find(ur.name); !ok {
			t.Add(ur.name, a.NumCookedRegs()+i)
		}
	}
	return &regNames{t}
})

// UserRegMapNameToRegnum returns the register number of name, which is
// either the name of a cooked register or of a user register. Returns -1
// if there is no such register.
func UserRegMapNameToRegnum(a *Gdbarch, name string) int {
	if names := regNamesData.Get(a); names != nil {
		if node, ok := names.t.Find(name); ok {
			return node.Meta().(int)
		}
		return -1
	}
	for i := 0; i < a.NumCookedRegs(); i++ {
		if a.RegisterName(i) == name {
			return i
		}
	}
	for i, ur := range userRegs(a) {
		if ur.name == name {
			return a.NumCookedRegs() + i
		}
	}
	return -1
}

// UserRegMapRegnumToName returns the name of register regnum, regnum can
// be a user register.
func UserRegMapRegnumToName(a *Gdbarch, regnum int) string {
	if regnum < 0 {
		return ""
	}
	if regnum < a.NumCookedRegs() {
		return a.RegisterName(regnum)
	}
	regs := userRegs(a)
	if i := regnum - a.NumCookedRegs(); i < len(regs) {
		return regs[i].name
	}
	return ""
}

// UserRegCompletions returns the register names starting with prefix, in
// alphabetical order.
func UserRegCompletions(a *Gdbarch, prefix string) []string {
	names := regNamesData.Get(a)
	if names == nil {
		return nil
	}
	r := names.t.PrefixSearch(prefix)
	sort.Strings(r)
	return r
}

// UserRegResolve returns the cooked register regnum stands for.
func UserRegResolve(a *Gdbarch, regnum int) (int, error) {
	if regnum >= 0 && regnum < a.NumCookedRegs() {
		return regnum, nil
	}
	regs := userRegs(a)
	i := regnum - a.NumCookedRegs()
	if regnum < 0 || i >= len(regs) {
		return -1, fmt.Errorf("invalid register number %d", regnum)
	}
	target := regs[i].resolve(a)
	if target < 0 || target >= a.NumCookedRegs() {
		return -1, fmt.Errorf("register $%s is not available on %s", regs[i].name, a)
	}
	return target, nil
}

// UserRegValue reads register regnum, which can be a user register, from
// rc. It returns the contents of the register and the register number
// they were read from.
func UserRegValue(rc RegisterReader, regnum int) ([]byte, int, RegisterStatus, error) {
	a := rc.Arch()
	target, err := UserRegResolve(a, regnum)
	if err != nil {
		return nil, -1, RegUnknown, err
	}
	buf := make([]byte, a.RegisterType(target).Length)
	status, err := rc.CookedRead(target, buf)
	return buf, target, status, err
}
