// Package session ties the architecture registry, the register cache
// directory and the current target together.
package session

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/go-delve/dbgcore/pkg/arch/aarch64"
	"github.com/go-delve/dbgcore/pkg/arch/x86"
	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/observer"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/target"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// ErrNoTarget is returned by operations that need a target when none is
// open.
var ErrNoTarget = errors.New("no target")

// describer is implemented by targets that report a target description.
type describer interface {
	Description() *tdesc.Description
}

// Session is a debugging session.
//
// Session is not safe for concurrent use: the register caches and the
// observers it owns assume a single user.
type Session struct {
	conf   *config.Config
	log    logflags.Logger
	reg    *gdbarch.Registry
	dir    *regcache.Directory
	events *observer.Events

	target target.Target
	arch   *gdbarch.Gdbarch

	// incremented every time the frames of the inspected thread become
	// stale
	frameGeneration uint64
}

// New creates a session with the bundled architectures registered and the
// defaults taken from conf. When conf does not name an architecture the
// one of the host is used.
func New(conf *config.Config) (*Session, error) {
	if conf == nil {
		conf = &config.Config{}
	}
	s := &Session{
		conf:   conf,
		log:    logflags.SessionLogger(),
		reg:    gdbarch.NewRegistry(),
		events: observer.NewEvents(),
	}
	s.dir = regcache.NewDirectory(s.events)
	x86.Register(s.reg)
	aarch64.Register(s.reg)

	defaults, err := defaultsFromConfig(conf)
	if err != nil {
		return nil, err
	}
	s.reg.SetDefaults(defaults)

	s.events.FrameCacheInvalidated.Attach(func(struct{}) {
		s.frameGeneration++
	}, "session frame cache")
	return s, nil
}

func defaultsFromConfig(conf *config.Config) (gdbarch.Info, error) {
	var info gdbarch.Info
	if conf.Architecture != "" && conf.Architecture != "auto" {
		info.ArchInfo = gdbarch.LookupArchInfo(conf.Architecture)
		if info.ArchInfo == nil {
			return info, fmt.Errorf("unknown architecture %q", conf.Architecture)
		}
	} else {
		// nil on hosts without a bundled architecture
		info.ArchInfo = gdbarch.LookupArchInfo(runtime.GOARCH)
	}
	bo, err := gdbarch.ParseByteOrder(conf.ByteOrder)
	if err != nil {
		return info, err
	}
	info.ByteOrder = bo
	info.OSABI = gdbarch.ParseOSABI(conf.OSABI)
	if info.OSABI == gdbarch.OSABIUnknown {
		info.OSABI = gdbarch.ParseOSABI(runtime.GOOS)
	}
	return info, nil
}

// ApplyConfig recomputes the registry defaults after the architecture
// settings of the configuration changed. The architecture of an open
// target is not changed.
func (s *Session) ApplyConfig() error {
	defaults, err := defaultsFromConfig(s.conf)
	if err != nil {
		return err
	}
	s.reg.SetDefaults(defaults)
	return nil
}

// Config returns the configuration of the session.
func (s *Session) Config() *config.Config { return s.conf }

// Registry returns the architecture registry.
func (s *Session) Registry() *gdbarch.Registry { return s.reg }

// Directory returns the register cache directory.
func (s *Session) Directory() *regcache.Directory { return s.dir }

// Events returns the observers of the session.
func (s *Session) Events() *observer.Events { return s.events }

// Target returns the open target, or nil.
func (s *Session) Target() target.Target { return s.target }

// Arch returns the architecture selected for the open target.
func (s *Session) Arch() *gdbarch.Gdbarch { return s.arch }

// Ptid returns the inspected thread.
func (s *Session) Ptid() target.Ptid {
	_, ptid := s.dir.InspectedThread()
	return ptid
}

// FrameGeneration returns a counter that changes every time the frames of
// the inspected thread must be recomputed.
func (s *Session) FrameGeneration() uint64 { return s.frameGeneration }

// Open makes t the current target. The architecture is selected from info,
// completed with the target description of t if it has one and with the
// defaults of the registry. The first thread of t becomes the inspected
// thread.
func (s *Session) Open(t target.Target, info gdbarch.Info) error {
	if t == nil {
		return ErrNoTarget
	}
	if d, ok := t.(describer); ok && info.Tdesc == nil {
		info.Tdesc = d.Description()
	}
	a, err := s.reg.MustFindByInfo(info)
	if err != nil {
		return fmt.Errorf("could not select an architecture for this target: %w", err)
	}

	ptid := target.Null
	if tl, ok := t.(target.ThreadLister); ok {
		threads, err := tl.Threads()
		if err != nil {
			return fmt.Errorf("could not list threads of %s: %w", t, err)
		}
		if len(threads) > 0 {
			ptid = threads[0]
		}
	}

	if s.target != nil {
		s.dir.InvalidateTarget(s.target)
	}
	s.target = t
	s.log.Debugf("opened %s, architecture %s", t, a)
	s.events.TargetChanged.Notify(observer.TargetChanged{Target: t})
	s.setArch(a)
	s.dir.SetInspectedThread(t, ptid)
	s.events.FrameCacheInvalidated.Notify(struct{}{})
	return nil
}

func (s *Session) setArch(a *gdbarch.Gdbarch) {
	if a == s.arch {
		return
	}
	s.arch = a
	s.events.ArchitectureChanged.Notify(observer.ArchitectureChanged{Arch: a})
}

// SetArchitecture selects a different architecture for the open target.
// The register caches of the target are discarded.
func (s *Session) SetArchitecture(info gdbarch.Info) error {
	if s.target == nil {
		return ErrNoTarget
	}
	a, err := s.reg.MustFindByInfo(info)
	if err != nil {
		return fmt.Errorf("could not select an architecture for this target: %w", err)
	}
	s.dir.InvalidateTarget(s.target)
	s.setArch(a)
	return nil
}

// Threads returns the threads of the current target.
func (s *Session) Threads() ([]target.Ptid, error) {
	if s.target == nil {
		return nil, ErrNoTarget
	}
	tl, ok := s.target.(target.ThreadLister)
	if !ok {
		return []target.Ptid{s.Ptid()}, nil
	}
	return tl.Threads()
}

// SwitchThread makes ptid the inspected thread.
func (s *Session) SwitchThread(ptid target.Ptid) error {
	threads, err := s.Threads()
	if err != nil {
		return err
	}
	found := false
	for _, p := range threads {
		if p == ptid {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown thread %s", ptid)
	}
	if ptid == s.Ptid() {
		return nil
	}
	s.log.Debugf("switching to thread %s", ptid)
	s.dir.SetInspectedThread(s.target, ptid)
	if ta, ok := s.target.(target.ThreadArchitecturer); ok {
		if a := ta.ThreadArchitecture(ptid); a != nil {
			s.setArch(a)
		}
	}
	s.events.FrameCacheInvalidated.Notify(struct{}{})
	return nil
}

// Regcache returns the register cache of the inspected thread.
func (s *Session) Regcache() (*regcache.Regcache, error) {
	if s.target == nil {
		return nil, ErrNoTarget
	}
	return s.dir.ThreadRegcache(s.target, s.Ptid(), s.arch), nil
}

// FlushRegisters discards every cached register of the current target.
func (s *Session) FlushRegisters() error {
	if s.target == nil {
		return ErrNoTarget
	}
	s.dir.InvalidateTarget(s.target)
	return nil
}

// ThreadPtidChanged records that thread oldPtid of the current target is
// now known as newPtid.
func (s *Session) ThreadPtidChanged(oldPtid, newPtid target.Ptid) {
	if s.target == nil {
		return
	}
	s.dir.ThreadPtidChanged(s.target, oldPtid, newPtid)
}

// Close discards the register caches of the current target and closes it
// if it implements io.Closer.
func (s *Session) Close() error {
	if s.target == nil {
		return nil
	}
	t := s.target
	s.dir.InvalidateTarget(t)
	s.target = nil
	s.dir.SetInspectedThread(nil, target.Null)
	s.events.TargetChanged.Notify(observer.TargetChanged{})
	s.log.Debugf("closed %s", t)
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
