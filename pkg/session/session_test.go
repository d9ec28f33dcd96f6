package session

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/observer"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/target"
)

// fakeTarget supplies the 64 bit registers in values to every thread and
// counts fetches.
type fakeTarget struct {
	name    string
	threads []target.Ptid
	values  map[string]uint64
	fetches int
	closed  bool
}

func newFakeTarget(name string, threads ...target.Ptid) *fakeTarget {
	return &fakeTarget{name: name, threads: threads, values: map[string]uint64{}}
}

func (ft *fakeTarget) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	ft.fetches++
	a := rb.Arch()
	for i := 0; i < a.NumRegs(); i++ {
		v, ok := ft.values[a.RegisterName(i)]
		if !ok || regcache.RegisterSize(a, i) != 8 {
			continue
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, v)
		rb.RawSupply(i, buf)
	}
	return nil
}

func (ft *fakeTarget) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	buf := make([]byte, 8)
	rb.RawCollect(regnum, buf)
	ft.values[rb.Arch().RegisterName(regnum)] = binary.LittleEndian.Uint64(buf)
	return nil
}

func (ft *fakeTarget) PrepareToStore(rb target.RegisterBuffer) error { return nil }

func (ft *fakeTarget) String() string { return ft.name }

func (ft *fakeTarget) Threads() ([]target.Ptid, error) { return ft.threads, nil }

func (ft *fakeTarget) Close() error {
	ft.closed = true
	return nil
}

var (
	thread1 = target.Ptid{Pid: 10, Lwp: 10}
	thread2 = target.Ptid{Pid: 10, Lwp: 11}
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(&config.Config{Architecture: "i386:x86-64", OSABI: "linux"})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewDefaults(t *testing.T) {
	s := newSession(t)
	families := s.Registry().Families()
	if len(families) != 2 {
		t.Errorf("families: %v", families)
	}
	d := s.Registry().Defaults()
	if d.ArchInfo == nil || d.ArchInfo.Mach != gdbarch.MachX8664 || d.OSABI != gdbarch.OSABILinux {
		t.Errorf("defaults: %v", d)
	}

	if _, err := New(&config.Config{Architecture: "pdp11"}); err == nil {
		t.Errorf("unknown architecture accepted")
	}
	if _, err := New(&config.Config{ByteOrder: "middle"}); err == nil {
		t.Errorf("unknown byte order accepted")
	}
}

func TestOpen(t *testing.T) {
	s := newSession(t)
	if _, err := s.Regcache(); err != ErrNoTarget {
		t.Errorf("regcache without a target: %v", err)
	}

	var archChanges, targetChanges int
	s.Events().ArchitectureChanged.Attach(func(observer.ArchitectureChanged) { archChanges++ }, "test")
	s.Events().TargetChanged.Attach(func(observer.TargetChanged) { targetChanges++ }, "test")

	ft := newFakeTarget("fake", thread1, thread2)
	ft.values["rip"] = 0x401000
	ft.values["rsp"] = 0x7ffff000
	if err := s.Open(ft, gdbarch.Info{}); err != nil {
		t.Fatal(err)
	}
	if s.Target() != ft || s.Ptid() != thread1 {
		t.Errorf("target %v ptid %v", s.Target(), s.Ptid())
	}
	if archChanges != 1 || targetChanges != 1 {
		t.Errorf("notifications: %d %d", archChanges, targetChanges)
	}

	rc, err := s.Regcache()
	if err != nil {
		t.Fatal(err)
	}
	if rc.Arch() != s.Arch() || rc.Ptid() != thread1 {
		t.Errorf("regcache %s", rc)
	}
	pc, err := regcache.ReadPC(rc)
	if err != nil || pc != 0x401000 {
		t.Errorf("pc %#x %v", pc, err)
	}
	rc2, _ := s.Regcache()
	if rc2 != rc {
		t.Errorf("regcache not reused")
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !ft.closed || s.Target() != nil || s.Directory().Len() != 0 {
		t.Errorf("target not closed")
	}
	if targetChanges != 2 {
		t.Errorf("target changes: %d", targetChanges)
	}
}

func TestOpenNoArchitecture(t *testing.T) {
	s := newSession(t)
	err := s.Open(newFakeTarget("fake", thread1), gdbarch.Info{ArchInfo: &gdbarch.ArchInfo{Family: gdbarch.Arch(99), Name: "unknown"}})
	if err == nil || !strings.Contains(err.Error(), "could not select an architecture for this target") {
		t.Errorf("unexpected error %v", err)
	}
	if s.Target() != nil {
		t.Errorf("target opened")
	}
}

func TestSwitchThread(t *testing.T) {
	s := newSession(t)
	ft := newFakeTarget("fake", thread1, thread2)
	ft.values["rax"] = 1
	if err := s.Open(ft, gdbarch.Info{}); err != nil {
		t.Fatal(err)
	}
	gen := s.FrameGeneration()

	if err := s.SwitchThread(target.Ptid{Pid: 10, Lwp: 12}); err == nil {
		t.Errorf("switched to a thread that does not exist")
	}
	if err := s.SwitchThread(thread2); err != nil {
		t.Fatal(err)
	}
	if s.Ptid() != thread2 || s.FrameGeneration() == gen {
		t.Errorf("ptid %v generation %d", s.Ptid(), s.FrameGeneration())
	}
	rc, _ := s.Regcache()
	if rc.Ptid() != thread2 {
		t.Errorf("regcache of %v", rc.Ptid())
	}

	gen = s.FrameGeneration()
	if err := s.FlushRegisters(); err != nil {
		t.Fatal(err)
	}
	if s.FrameGeneration() == gen {
		t.Errorf("frame cache not invalidated by flushregs")
	}
	if s.Directory().Count(ft, target.MinusOne) != 0 {
		t.Errorf("register caches not discarded")
	}
}

func TestThreadPtidChanged(t *testing.T) {
	s := newSession(t)
	ft := newFakeTarget("fake", target.PidPtid(10))
	ft.values["rax"] = 7
	if err := s.Open(ft, gdbarch.Info{}); err != nil {
		t.Fatal(err)
	}
	rc, _ := s.Regcache()
	rax := gdbarch.UserRegMapNameToRegnum(s.Arch(), "rax")
	if v, _, err := rc.RawReadUnsigned(rax); err != nil || v != 7 {
		t.Fatalf("rax %d %v", v, err)
	}
	fetches := ft.fetches

	s.ThreadPtidChanged(target.PidPtid(10), thread1)
	if s.Ptid() != thread1 {
		t.Errorf("inspected thread not renamed: %v", s.Ptid())
	}
	rc2, _ := s.Regcache()
	if rc2 != rc || rc2.Ptid() != thread1 {
		t.Errorf("register cache not moved")
	}
	if v, _, _ := rc2.RawReadUnsigned(rax); v != 7 || ft.fetches != fetches {
		t.Errorf("register contents lost: %d, %d fetches", v, ft.fetches-fetches)
	}
}

func TestSetArchitecture(t *testing.T) {
	s := newSession(t)
	if err := s.Open(newFakeTarget("fake", thread1), gdbarch.Info{}); err != nil {
		t.Fatal(err)
	}
	amd64 := s.Arch()
	if err := s.SetArchitecture(gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo("aarch64")}); err != nil {
		t.Fatal(err)
	}
	if s.Arch() == amd64 || s.Arch().ArchInfo().Family != gdbarch.ArchAArch64 {
		t.Errorf("architecture %s", s.Arch())
	}
	rc, _ := s.Regcache()
	if rc.Arch() != s.Arch() {
		t.Errorf("regcache for %s", rc.Arch())
	}
}
