package gdbarch

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-delve/dbgcore/pkg/logflags"
)

// InitFunc is the constructor of a CPU family. It returns an architecture
// from arches when one matches info, a new architecture built with Alloc
// otherwise, or nil if info can not describe a variant of the family.
type InitFunc func(info Info, arches *List) *Gdbarch

// DumpTdepFunc prints the family private fields of an architecture.
type DumpTdepFunc func(a *Gdbarch, w io.Writer)

// List is the list of the architectures built for one family, most
// recently used first.
type List struct {
	arches []*Gdbarch
}

// Lookup returns the first architecture of l built for info, or nil.
// Architecture info and target descriptions are compared by identity, fields
// of info left at their zero value do not match anything but zero values.
func (l *List) Lookup(info Info) *Gdbarch {
	for _, a := range l.arches {
		if info.matches(&a.info) {
			return a
		}
	}
	return nil
}

// Arches returns the architectures of l, most recently used first.
func (l *List) Arches() []*Gdbarch {
	r := make([]*Gdbarch, len(l.arches))
	copy(r, l.arches)
	return r
}

func (l *List) Len() int { return len(l.arches) }

func (l *List) indexOf(a *Gdbarch) int {
	for i := range l.arches {
		if l.arches[i] == a {
			return i
		}
	}
	return -1
}

func (l *List) moveToFront(i int) {
	a := l.arches[i]
	copy(l.arches[1:i+1], l.arches[:i])
	l.arches[0] = a
}

func (l *List) pushFront(a *Gdbarch) {
	l.arches = append(l.arches, nil)
	copy(l.arches[1:], l.arches)
	l.arches[0] = a
}

type registration struct {
	family Arch
	init   InitFunc
	dump   DumpTdepFunc
	arches List
}

// Registry maps selection keys to architectures, building them with the
// constructors of the registered families. It is not safe for concurrent
// use.
type Registry struct {
	families []*registration
	defaults Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register registers the constructor of family. It panics if family is
// unknown or already registered.
func (r *Registry) Register(family Arch, init InitFunc, dump DumpTdepFunc) {
	if DefaultArchInfo(family) == nil {
		InternalError("gdbarch: attempt to register unknown architecture (%d)", family)
	}
	if init == nil {
		InternalError("gdbarch: attempt to register %s with a nil constructor", family)
	}
	if r.lookup(family) != nil {
		InternalError("gdbarch: duplicate registration of architecture (%s)", family)
	}
	r.families = append(r.families, &registration{family: family, init: init, dump: dump})
}

func (r *Registry) lookup(family Arch) *registration {
	for _, reg := range r.families {
		if reg.family == family {
			return reg
		}
	}
	return nil
}

// SetDefaults sets the values used for fields of the selection key left
// unset by the caller of FindByInfo.
func (r *Registry) SetDefaults(info Info) {
	r.defaults = info
}

// Defaults returns the values set by SetDefaults.
func (r *Registry) Defaults() Info {
	return r.defaults
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Arch {
	families := make([]Arch, len(r.families))
	for i := range r.families {
		families[i] = r.families[i].family
	}
	return families
}

// Arches returns the architectures built for family, most recently used
// first.
func (r *Registry) Arches(family Arch) []*Gdbarch {
	reg := r.lookup(family)
	if reg == nil {
		return nil
	}
	return reg.arches.Arches()
}

// FindByInfo returns the architecture for info, building it if needed.
// It returns nil, nil if the family of info is unknown or its constructor
// rejects info. It returns a *ConstructionError if the architecture built
// by the family constructor fails verification.
func (r *Registry) FindByInfo(info Info) (*Gdbarch, error) {
	info.fillDefaults(&r.defaults)

	log := logflags.GdbarchLogger()
	if logflags.Gdbarch() {
		log.Debugf("find_by_info: %v", info)
	}

	if info.ArchInfo == nil {
		return nil, nil
	}
	reg := r.lookup(info.ArchInfo.Family)
	if reg == nil {
		if logflags.Gdbarch() {
			log.Debugf("find_by_info: no matching architecture for %s", info.ArchInfo.Family)
		}
		return nil, nil
	}

	a := reg.init(info, &reg.arches)
	if a == nil {
		if logflags.Gdbarch() {
			log.Debugf("find_by_info: target rejected architecture")
		}
		return nil, nil
	}

	if i := reg.arches.indexOf(a); i >= 0 {
		if logflags.Gdbarch() {
			log.Debugf("find_by_info: previous architecture %p (%s) selected", a, a)
		}
		reg.arches.moveToFront(i)
		return a, nil
	}

	if a.initialized {
		InternalError("gdbarch: constructor for %s returned an architecture that belongs to another registry", reg.family)
	}

	if logflags.Gdbarch() {
		log.Debugf("find_by_info: new architecture %p (%s) selected", a, a)
	}
	a.dumpTdep = reg.dump
	if err := a.verify(); err != nil {
		log.Errorf("%v", err)
		return nil, &ConstructionError{Info: info, Err: err}
	}
	reg.arches.pushFront(a)
	a.initialized = true

	if logflags.Gdbarch() {
		var sb strings.Builder
		a.Dump(&sb)
		log.Debug(sb.String())
	}
	return a, nil
}

// MustFindByInfo is like FindByInfo but returns an error instead of nil
// when no architecture can be selected.
func (r *Registry) MustFindByInfo(info Info) (*Gdbarch, error) {
	a, err := r.FindByInfo(info)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &ConstructionError{Info: info, Err: fmt.Errorf("no architecture matches %v", info)}
	}
	return a, nil
}
