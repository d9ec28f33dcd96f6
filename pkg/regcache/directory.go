package regcache

import (
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/observer"
	"github.com/go-delve/dbgcore/pkg/target"
)

type ptidRegcaches map[target.Ptid][]*Regcache

type pidPtidRegcaches map[int]ptidRegcaches

// Directory holds the register caches of every thread of every target,
// at most one per (target, ptid, architecture). Targets are used as map
// keys and must be comparable.
type Directory struct {
	regcaches map[target.Target]pidPtidRegcaches
	events    *observer.Events

	// last cache returned by ThreadRegcache
	current *Regcache

	inspectedTarget target.Target
	inspectedPtid   target.Ptid
}

// NewDirectory returns an empty directory. Events can be nil.
func NewDirectory(events *observer.Events) *Directory {
	return &Directory{
		regcaches: make(map[target.Target]pidPtidRegcaches),
		events:    events,
	}
}

// SetInspectedThread sets the thread whose frames are being examined.
// Invalidating its registers also invalidates the frame cache.
func (d *Directory) SetInspectedThread(t target.Target, ptid target.Ptid) {
	d.inspectedTarget = t
	d.inspectedPtid = ptid
}

// InspectedThread returns the thread set by SetInspectedThread.
func (d *Directory) InspectedThread() (target.Target, target.Ptid) {
	return d.inspectedTarget, d.inspectedPtid
}

// ThreadArchAspaceRegcache returns the register cache of thread ptid of t
// for architecture a, creating it if it does not exist.
func (d *Directory) ThreadArchAspaceRegcache(t target.Target, ptid target.Ptid, a *gdbarch.Gdbarch, aspace *target.AddressSpace) *Regcache {
	if t == nil {
		gdbarch.InternalError("regcache: register cache requested without a target")
	}
	pidMap := d.regcaches[t]
	if pidMap == nil {
		pidMap = make(pidPtidRegcaches)
		d.regcaches[t] = pidMap
	}
	ptidMap := pidMap[ptid.Pid]
	if ptidMap == nil {
		ptidMap = make(ptidRegcaches)
		pidMap[ptid.Pid] = ptidMap
	}
	for _, rc := range ptidMap[ptid] {
		if rc.Arch() == a {
			return rc
		}
	}
	rc := New(t, a, ptid, aspace)
	ptidMap[ptid] = append(ptidMap[ptid], rc)
	if logflags.Regcache() {
		logflags.RegcacheLogger().Debugf("new regcache for %s %s %s", t, ptid, a)
	}
	return rc
}

// ThreadArchRegcache is like ThreadArchAspaceRegcache, the address space
// is asked to the target.
func (d *Directory) ThreadArchRegcache(t target.Target, ptid target.Ptid, a *gdbarch.Gdbarch) *Regcache {
	var aspace *target.AddressSpace
	if as, ok := t.(target.AddressSpacer); ok {
		aspace = as.ThreadAddressSpace(ptid)
	}
	return d.ThreadArchAspaceRegcache(t, ptid, a, aspace)
}

// ThreadRegcache returns the register cache of thread ptid of t. The
// architecture of the thread is asked to the target, defaultArch is used
// if the target does not know it.
func (d *Directory) ThreadRegcache(t target.Target, ptid target.Ptid, defaultArch *gdbarch.Gdbarch) *Regcache {
	a := defaultArch
	if ta, ok := t.(target.ThreadArchitecturer); ok {
		if ta := ta.ThreadArchitecture(ptid); ta != nil {
			a = ta
		}
	}
	if rc := d.current; rc != nil && rc.target == t && rc.ptid == ptid && rc.Arch() == a {
		return rc
	}
	d.current = d.ThreadArchRegcache(t, ptid, a)
	return d.current
}

// Invalidate discards the register caches of the threads of t matching
// ptid, t == nil discards all register caches and requires ptid to be
// target.MinusOne.
func (d *Directory) Invalidate(t target.Target, ptid target.Ptid) {
	switch {
	case t == nil:
		if ptid != target.MinusOne {
			gdbarch.InternalError("regcache: invalidation of %s without a target", ptid)
		}
		d.regcaches = make(map[target.Target]pidPtidRegcaches)
	case ptid == target.MinusOne:
		delete(d.regcaches, t)
	case ptid.IsPid():
		if pidMap := d.regcaches[t]; pidMap != nil {
			delete(pidMap, ptid.Pid)
			if len(pidMap) == 0 {
				delete(d.regcaches, t)
			}
		}
	default:
		if pidMap := d.regcaches[t]; pidMap != nil {
			if ptidMap := pidMap[ptid.Pid]; ptidMap != nil {
				delete(ptidMap, ptid)
				if len(ptidMap) == 0 {
					delete(pidMap, ptid.Pid)
				}
			}
			if len(pidMap) == 0 {
				delete(d.regcaches, t)
			}
		}
	}

	if logflags.Regcache() {
		logflags.RegcacheLogger().Debugf("registers changed %v %s", t, ptid)
	}

	if rc := d.current; rc != nil && (t == nil || rc.target == t) && rc.ptid.Matches(ptid) {
		d.current = nil
	}

	if d.events != nil {
		d.events.RegistersChanged.Notify(observer.RegistersChanged{Target: t, Ptid: ptid})
	}

	if d.inspectedTarget != nil && (t == nil || d.inspectedTarget == t) && d.inspectedPtid.Matches(ptid) {
		if d.events != nil {
			d.events.FrameCacheInvalidated.Notify(struct{}{})
		}
	}
}

// InvalidateAll discards every register cache.
func (d *Directory) InvalidateAll() {
	d.Invalidate(nil, target.MinusOne)
}

// InvalidateTarget discards the register caches of every thread of t.
func (d *Directory) InvalidateTarget(t target.Target) {
	d.Invalidate(t, target.MinusOne)
}

// InvalidatePid discards the register caches of the threads of process
// pid of t.
func (d *Directory) InvalidatePid(t target.Target, pid int) {
	d.Invalidate(t, target.PidPtid(pid))
}

// InvalidatePtid discards the register caches of thread ptid of t.
func (d *Directory) InvalidatePtid(t target.Target, ptid target.Ptid) {
	d.Invalidate(t, ptid)
}

// ThreadPtidChanged moves the register caches of thread oldPtid of t to
// newPtid. Their contents are preserved.
func (d *Directory) ThreadPtidChanged(t target.Target, oldPtid, newPtid target.Ptid) {
	pidMap := d.regcaches[t]
	if pidMap != nil && oldPtid != newPtid {
		if ptidMap := pidMap[oldPtid.Pid]; ptidMap != nil {
			moved := ptidMap[oldPtid]
			delete(ptidMap, oldPtid)
			if len(ptidMap) == 0 {
				delete(pidMap, oldPtid.Pid)
			}
			if len(moved) > 0 {
				newMap := pidMap[newPtid.Pid]
				if newMap == nil {
					newMap = make(ptidRegcaches)
					pidMap[newPtid.Pid] = newMap
				}
				for _, rc := range moved {
					rc.ptid = newPtid
					newMap[newPtid] = replaceArch(newMap[newPtid], rc)
				}
			}
		}
	}

	if d.inspectedTarget == t && d.inspectedPtid == oldPtid {
		d.inspectedPtid = newPtid
	}

	if d.events != nil {
		d.events.ThreadPtidChanged.Notify(observer.ThreadPtidChanged{Target: t, Old: oldPtid, New: newPtid})
	}
}

func replaceArch(rcs []*Regcache, rc *Regcache) []*Regcache {
	for i := range rcs {
		if rcs[i].Arch() == rc.Arch() {
			rcs[i] = rc
			return rcs
		}
	}
	return append(rcs, rc)
}

// Lookup returns the register cache of thread ptid of t for a, or nil.
func (d *Directory) Lookup(t target.Target, ptid target.Ptid, a *gdbarch.Gdbarch) *Regcache {
	for _, rc := range d.regcaches[t][ptid.Pid][ptid] {
		if rc.Arch() == a {
			return rc
		}
	}
	return nil
}

// Count returns the number of register caches of the threads of t matching
// ptid, t == nil counts the caches of every target.
func (d *Directory) Count(t target.Target, ptid target.Ptid) int {
	n := 0
	for tt, pidMap := range d.regcaches {
		if t != nil && tt != t {
			continue
		}
		for _, ptidMap := range pidMap {
			for p, rcs := range ptidMap {
				if p.Matches(ptid) {
					n += len(rcs)
				}
			}
		}
	}
	return n
}

// Len returns the number of register caches in the directory.
func (d *Directory) Len() int {
	return d.Count(nil, target.MinusOne)
}
