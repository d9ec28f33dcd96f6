package gdbarch

// ReggroupType distinguishes groups shown to the user from groups used
// internally.
type ReggroupType uint8

const (
	UserReggroup ReggroupType = iota
	InternalReggroup
)

// Reggroup is a named set of registers. Groups are compared by identity.
type Reggroup struct {
	Name string
	Type ReggroupType
}

func (g *Reggroup) String() string { return g.Name }

// NewReggroup returns a new user visible group.
func NewReggroup(name string) *Reggroup {
	return &Reggroup{Name: name, Type: UserReggroup}
}

// Builtin register groups.
var (
	GeneralReggroup = &Reggroup{Name: "general", Type: UserReggroup}
	FloatReggroup   = &Reggroup{Name: "float", Type: UserReggroup}
	SystemReggroup  = &Reggroup{Name: "system", Type: UserReggroup}
	VectorReggroup  = &Reggroup{Name: "vector", Type: UserReggroup}
	AllReggroup     = &Reggroup{Name: "all", Type: UserReggroup}
	SaveReggroup    = &Reggroup{Name: "save", Type: InternalReggroup}
	RestoreReggroup = &Reggroup{Name: "restore", Type: InternalReggroup}
)

var defaultReggroups = []*Reggroup{
	GeneralReggroup,
	FloatReggroup,
	SystemReggroup,
	VectorReggroup,
	AllReggroup,
	SaveReggroup,
	RestoreReggroup,
}

type reggroupList struct {
	groups []*Reggroup
}

var reggroupsData = NewPreInitData(func() *reggroupList { return &reggroupList{} })

// AddReggroup adds group to the groups of a. Must be called while a is
// being built. Adding the same group twice has no effect.
func AddReggroup(a *Gdbarch, group *Reggroup) {
	a.mutable("reggroups")
	l := reggroupsData.Get(a)
	for _, g := range l.groups {
		if g == group {
			return
		}
	}
	l.groups = append(l.groups, group)
}

// Reggroups returns the register groups of a. Architectures that did not
// add any group use the builtin groups.
func Reggroups(a *Gdbarch) []*Reggroup {
	groups := reggroupsData.Get(a).groups
	if len(groups) == 0 {
		groups = defaultReggroups
	}
	r := make([]*Reggroup, len(groups))
	copy(r, groups)
	return r
}

// ReggroupByName returns the group of a called name, or nil.
func ReggroupByName(a *Gdbarch, name string) *Reggroup {
	for _, g := range Reggroups(a) {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// DefaultRegisterReggroupP is the default RegisterReggroupP hook. Unnamed
// registers belong to no group, float and vector registers are classified
// by type, every other register is general, raw registers are saved and
// restored.
func DefaultRegisterReggroupP(a *Gdbarch, regnum int, group *Reggroup) bool {
	if a.RegisterName(regnum) == "" {
		return false
	}
	if group == AllReggroup {
		return true
	}
	var vector, float bool
	if a.HasRegisterType() {
		typ := a.RegisterType(regnum)
		vector = typ.IsVectorLike()
		float = typ.IsFloatLike()
	}
	raw := regnum < a.NumRegs()
	switch group {
	case FloatReggroup:
		return float
	case VectorReggroup:
		return vector
	case GeneralReggroup:
		return !float && !vector
	case SaveReggroup, RestoreReggroup:
		return raw
	}
	return false
}
