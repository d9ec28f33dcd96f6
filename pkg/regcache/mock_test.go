package regcache

import (
	"errors"
	"testing"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/target"
)

// The test architecture has 4 raw registers of 4, 4, 8 and 4 bytes and a
// pseudo register of 8 bytes, the concatenation of r0 and r1.
var (
	mockNames = []string{"r0", "r1", "r2", "r3", "p4"}
	mockTypes = []*gdbtypes.Type{
		gdbtypes.NewUnsigned("uint32_t", 4),
		gdbtypes.NewUnsigned("uint32_t", 4),
		gdbtypes.NewUnsigned("uint64_t", 8),
		gdbtypes.NewUnsigned("uint32_t", 4),
		gdbtypes.NewUnsigned("uint64_t", 8),
	}
)

const (
	mockPseudo  = 4
	mockNoStore = 3
	mockPC      = 2
)

type mockTdep struct {
	pseudoReads  int
	pseudoWrites int
}

func mockPseudoRead(a *gdbarch.Gdbarch, rc gdbarch.RegisterReader, regnum int, buf []byte) (gdbarch.RegisterStatus, error) {
	a.Tdep().(*mockTdep).pseudoReads++
	status, err := rc.RawRead(0, buf[:4])
	if status != gdbarch.RegValid || err != nil {
		return status, err
	}
	return rc.RawRead(1, buf[4:])
}

func mockPseudoWrite(a *gdbarch.Gdbarch, rc gdbarch.RegisterReadWriter, regnum int, buf []byte) error {
	a.Tdep().(*mockTdep).pseudoWrites++
	if err := rc.RawWrite(0, buf[:4]); err != nil {
		return err
	}
	return rc.RawWrite(1, buf[4:])
}

func mockInit(info gdbarch.Info, arches *gdbarch.List) *gdbarch.Gdbarch {
	if a := arches.Lookup(info); a != nil {
		return a
	}
	a := gdbarch.Alloc(&info, &mockTdep{})
	a.SetNumRegs(4)
	a.SetNumPseudoRegs(1)
	a.SetPCRegnum(mockPC)
	a.SetRegisterName(func(a *gdbarch.Gdbarch, regnum int) string { return mockNames[regnum] })
	a.SetRegisterType(func(a *gdbarch.Gdbarch, regnum int) *gdbtypes.Type { return mockTypes[regnum] })
	a.SetPseudoRegisterRead(mockPseudoRead)
	a.SetPseudoRegisterWrite(mockPseudoWrite)
	a.SetCannotStoreRegister(func(a *gdbarch.Gdbarch, regnum int) bool { return regnum == mockNoStore })
	a.SetBreakpointFromPC(func(a *gdbarch.Gdbarch, pc uint64) (uint64, []byte) { return pc, []byte{0} })
	a.SetSkipPrologue(func(a *gdbarch.Gdbarch, mem gdbarch.MemoryReader, pc uint64) uint64 { return pc })
	a.SetInnerThan(gdbarch.CoreAddrLessThan)
	return a
}

var mockRegistry = func() *gdbarch.Registry {
	r := gdbarch.NewRegistry()
	r.Register(gdbarch.ArchI386, mockInit, nil)
	return r
}()

func mockArch(t *testing.T, name string) *gdbarch.Gdbarch {
	t.Helper()
	a, err := mockRegistry.MustFindByInfo(gdbarch.Info{ArchInfo: gdbarch.LookupArchInfo(name)})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

var errStore = errors.New("store failed")

// mockTarget supplies the registers in values. Registers missing from
// values are left alone by FetchRegisters.
type mockTarget struct {
	name     string
	values   map[int][]byte
	fetches  []int
	stores   []int
	prepares int
	fetchErr error
	storeErr error

	arch *gdbarch.Gdbarch
}

func newMockTarget(name string) *mockTarget {
	return &mockTarget{name: name, values: map[int][]byte{}}
}

func (m *mockTarget) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	m.fetches = append(m.fetches, regnum)
	if m.fetchErr != nil {
		return m.fetchErr
	}
	if v, ok := m.values[regnum]; ok {
		rb.RawSupply(regnum, v)
	}
	return nil
}

func (m *mockTarget) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	m.stores = append(m.stores, regnum)
	if m.storeErr != nil {
		return m.storeErr
	}
	v := make([]byte, RegisterSize(rb.Arch(), regnum))
	rb.RawCollect(regnum, v)
	m.values[regnum] = v
	return nil
}

func (m *mockTarget) PrepareToStore(rb target.RegisterBuffer) error {
	m.prepares++
	return nil
}

func (m *mockTarget) String() string { return m.name }

// ThreadArchitecture implements target.ThreadArchitecturer
func (m *mockTarget) ThreadArchitecture(ptid target.Ptid) *gdbarch.Gdbarch {
	return m.arch
}

func expectMisuse(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		ierr := recover()
		if _, ok := ierr.(*gdbarch.MisuseError); !ok {
			t.Errorf("%s: expected *MisuseError, got %T %v", what, ierr, ierr)
		}
	}()
	fn()
}
