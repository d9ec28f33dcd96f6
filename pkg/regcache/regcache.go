// Package regcache caches the registers of the threads of a target.
//
// A Regcache holds the raw registers of one thread for one architecture.
// Registers are fetched from the target the first time they are read and
// written through to the target. Pseudo registers are computed from the raw
// registers by the architecture every time they are read.
//
// A Detached is a read only snapshot of the raw and pseudo registers of a
// cache, used to save and restore registers around operations that clobber
// them.
package regcache

import (
	"encoding/binary"
	"fmt"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/target"
)

// Status is the state of a register in a cache.
type Status = gdbarch.RegisterStatus

const (
	Unknown     = gdbarch.RegUnknown
	Valid       = gdbarch.RegValid
	Unavailable = gdbarch.RegUnavailable
)

// UnavailableError is returned when a value is needed from a register the
// target could not supply.
type UnavailableError struct {
	Regnum int
	Name   string
}

func (err *UnavailableError) Error() string {
	return fmt.Sprintf("register $%s is not available", err.Name)
}

// regBuffer is the storage shared by Regcache and Detached: the contents
// of the registers and their status.
type regBuffer struct {
	descr     *Descr
	hasPseudo bool
	registers []byte
	status    []Status
}

func newRegBuffer(a *gdbarch.Gdbarch, hasPseudo bool) regBuffer {
	descr := DescrOf(a)
	b := regBuffer{descr: descr, hasPseudo: hasPseudo}
	if hasPseudo {
		b.registers = make([]byte, descr.SizeofCooked)
		b.status = make([]Status, descr.NrCooked)
	} else {
		b.registers = make([]byte, descr.SizeofRaw)
		b.status = make([]Status, descr.NrRaw)
	}
	return b
}

// Arch returns the architecture of the buffer.
func (b *regBuffer) Arch() *gdbarch.Gdbarch {
	return b.descr.Arch
}

// numRegs returns the number of registers stored in the buffer.
func (b *regBuffer) numRegs() int {
	return len(b.status)
}

func (b *regBuffer) assertRegnum(regnum int) {
	if regnum < 0 || regnum >= b.numRegs() {
		gdbarch.InternalError("regcache: register number %d out of range [0, %d)", regnum, b.numRegs())
	}
}

func (b *regBuffer) assertRawRegnum(regnum int) {
	if regnum < 0 || regnum >= b.descr.NrRaw {
		gdbarch.InternalError("regcache: raw register number %d out of range [0, %d)", regnum, b.descr.NrRaw)
	}
}

func (b *regBuffer) assertCookedRegnum(regnum int) {
	if regnum < 0 || regnum >= b.descr.NrCooked {
		gdbarch.InternalError("regcache: register number %d out of range [0, %d)", regnum, b.descr.NrCooked)
	}
}

func (b *regBuffer) assertLen(regnum int, buf []byte) {
	if len(buf) != b.descr.Size[regnum] {
		gdbarch.InternalError("regcache: buffer of %d bytes for register %d of size %d", len(buf), regnum, b.descr.Size[regnum])
	}
}

// register returns the bytes of regnum in the buffer.
func (b *regBuffer) register(regnum int) []byte {
	off := b.descr.Offset[regnum]
	return b.registers[off : off+b.descr.Size[regnum]]
}

// RegisterStatus returns the status of regnum.
func (b *regBuffer) RegisterStatus(regnum int) Status {
	b.assertRegnum(regnum)
	return b.status[regnum]
}

// RawSupply sets the contents of regnum and marks it valid. A nil buf
// marks the register as unavailable.
func (b *regBuffer) RawSupply(regnum int, buf []byte) {
	b.assertRegnum(regnum)
	reg := b.register(regnum)
	if buf == nil {
		zero(reg)
		b.status[regnum] = Unavailable
		return
	}
	b.assertLen(regnum, buf)
	copy(reg, buf)
	b.status[regnum] = Valid
}

// RawSupplyZeroed sets regnum to zero and marks it valid.
func (b *regBuffer) RawSupplyZeroed(regnum int) {
	b.assertRegnum(regnum)
	zero(b.register(regnum))
	b.status[regnum] = Valid
}

// RawSupplyInteger sets regnum to v, truncated to the size of the
// register, in the byte order of the architecture.
func (b *regBuffer) RawSupplyInteger(regnum int, v uint64) {
	b.assertRegnum(regnum)
	gdbtypes.StoreUnsigned(b.register(regnum), b.byteOrder(), v)
	b.status[regnum] = Valid
}

// RawCollect copies the contents of regnum to buf.
func (b *regBuffer) RawCollect(regnum int, buf []byte) {
	b.assertRegnum(regnum)
	b.assertLen(regnum, buf)
	copy(buf, b.register(regnum))
}

// RawCollectInteger returns the contents of regnum as an unsigned
// integer.
func (b *regBuffer) RawCollectInteger(regnum int) uint64 {
	b.assertRegnum(regnum)
	return gdbtypes.ExtractUnsigned(b.register(regnum), b.byteOrder())
}

// RawCompare reports whether buf is equal to the contents of regnum
// starting at offset.
func (b *regBuffer) RawCompare(regnum int, buf []byte, offset int) bool {
	b.assertRegnum(regnum)
	reg := b.register(regnum)
	if offset < 0 || offset+len(buf) > len(reg) {
		gdbarch.InternalError("regcache: compare of %d bytes at offset %d of register %d of size %d", len(buf), offset, regnum, len(reg))
	}
	return string(reg[offset:offset+len(buf)]) == string(buf)
}

// Invalidate marks regnum as unknown.
func (b *regBuffer) Invalidate(regnum int) {
	b.assertRegnum(regnum)
	zero(b.register(regnum))
	b.status[regnum] = Unknown
}

func (b *regBuffer) byteOrder() binary.ByteOrder {
	return b.descr.Arch.ByteOrder().Binary()
}

// fetcher supplies raw registers that are not in the buffer yet.
type fetcher interface {
	fetch(regnum int) error
}

func (b *regBuffer) rawRead(f fetcher, regnum int, buf []byte) (Status, error) {
	b.assertRawRegnum(regnum)
	b.assertLen(regnum, buf)
	if b.status[regnum] == Unknown && f != nil {
		if err := f.fetch(regnum); err != nil {
			zero(buf)
			return Unknown, err
		}
		if b.status[regnum] == Unknown {
			b.status[regnum] = Unavailable
		}
	}
	if b.status[regnum] != Valid {
		zero(buf)
		return b.status[regnum], nil
	}
	copy(buf, b.register(regnum))
	return Valid, nil
}

func (b *regBuffer) cookedRead(rd gdbarch.RegisterReader, f fetcher, regnum int, buf []byte) (Status, error) {
	b.assertCookedRegnum(regnum)
	if regnum < b.descr.NrRaw {
		return b.rawRead(f, regnum, buf)
	}
	b.assertLen(regnum, buf)
	if b.hasPseudo && b.status[regnum] != Unknown {
		if b.status[regnum] == Valid {
			copy(buf, b.register(regnum))
		} else {
			zero(buf)
		}
		return b.status[regnum], nil
	}
	status, err := b.descr.Arch.PseudoRegisterRead(rd, regnum, buf)
	if status != Valid {
		zero(buf)
	}
	return status, err
}

type readFunc func(regnum int, buf []byte) (Status, error)

func (b *regBuffer) readPart(read readFunc, regnum, offset int, buf []byte) (Status, error) {
	size := b.descr.Size[regnum]
	if offset < 0 || offset+len(buf) > size {
		gdbarch.InternalError("regcache: read of %d bytes at offset %d of register %d of size %d", len(buf), offset, regnum, size)
	}
	if len(buf) == 0 {
		return Valid, nil
	}
	if offset == 0 && len(buf) == size {
		return read(regnum, buf)
	}
	reg := make([]byte, size)
	status, err := read(regnum, reg)
	copy(buf, reg[offset:])
	return status, err
}

func (b *regBuffer) readUnsigned(read readFunc, regnum int) (uint64, Status, error) {
	reg := make([]byte, b.descr.Size[regnum])
	status, err := read(regnum, reg)
	if status != Valid || err != nil {
		return 0, status, err
	}
	return gdbtypes.ExtractUnsigned(reg, b.byteOrder()), status, nil
}

func (b *regBuffer) readSigned(read readFunc, regnum int) (int64, Status, error) {
	reg := make([]byte, b.descr.Size[regnum])
	status, err := read(regnum, reg)
	if status != Valid || err != nil {
		return 0, status, err
	}
	return gdbtypes.ExtractSigned(reg, b.byteOrder()), status, nil
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// Detached is a read only snapshot of raw and pseudo registers. Reading a
// register that was not captured returns Unknown, nothing is fetched.
type Detached struct {
	regBuffer
}

var _ gdbarch.RegisterReader = (*Detached)(nil)

// NewDetached returns an empty snapshot for architecture a.
func NewDetached(a *gdbarch.Gdbarch) *Detached {
	return &Detached{newRegBuffer(a, true)}
}

func (d *Detached) RawRead(regnum int, buf []byte) (Status, error) {
	return d.rawRead(nil, regnum, buf)
}

func (d *Detached) CookedRead(regnum int, buf []byte) (Status, error) {
	return d.cookedRead(d, nil, regnum, buf)
}

func (d *Detached) RawReadPart(regnum, offset int, buf []byte) (Status, error) {
	d.assertRawRegnum(regnum)
	return d.readPart(d.RawRead, regnum, offset, buf)
}

func (d *Detached) CookedReadPart(regnum, offset int, buf []byte) (Status, error) {
	d.assertCookedRegnum(regnum)
	return d.readPart(d.CookedRead, regnum, offset, buf)
}

func (d *Detached) RawReadUnsigned(regnum int) (uint64, Status, error) {
	d.assertRawRegnum(regnum)
	return d.readUnsigned(d.RawRead, regnum)
}

func (d *Detached) RawReadSigned(regnum int) (int64, Status, error) {
	d.assertRawRegnum(regnum)
	return d.readSigned(d.RawRead, regnum)
}

func (d *Detached) CookedReadUnsigned(regnum int) (uint64, Status, error) {
	d.assertCookedRegnum(regnum)
	return d.readUnsigned(d.CookedRead, regnum)
}

func (d *Detached) CookedReadSigned(regnum int) (int64, Status, error) {
	d.assertCookedRegnum(regnum)
	return d.readSigned(d.CookedRead, regnum)
}

// Save returns a copy of the registers of d for which inGroup returns true.
func (d *Detached) Save(inGroup func(regnum int) bool) (*Detached, error) {
	return save(d, inGroup)
}

// Regcache is the register cache of one thread of a target, for one
// architecture. It only stores raw registers.
type Regcache struct {
	regBuffer
	target target.Target
	ptid   target.Ptid
	aspace *target.AddressSpace
}

var (
	_ gdbarch.RegisterReadWriter = (*Regcache)(nil)
	_ target.RegisterBuffer      = (*Regcache)(nil)
)

// New returns an empty register cache for thread ptid of t.
func New(t target.Target, a *gdbarch.Gdbarch, ptid target.Ptid, aspace *target.AddressSpace) *Regcache {
	return &Regcache{
		regBuffer: newRegBuffer(a, false),
		target:    t,
		ptid:      ptid,
		aspace:    aspace,
	}
}

func (rc *Regcache) Target() target.Target { return rc.target }

func (rc *Regcache) Ptid() target.Ptid { return rc.ptid }

func (rc *Regcache) AddressSpace() *target.AddressSpace { return rc.aspace }

func (rc *Regcache) String() string {
	return fmt.Sprintf("regcache %s %s %s", rc.target, rc.ptid, rc.Arch())
}

func (rc *Regcache) fetch(regnum int) error {
	if logflags.Regcache() {
		logflags.RegcacheLogger().Debugf("fetch %d (%s)", regnum, rc.ptid)
	}
	return rc.target.FetchRegisters(rc, regnum)
}

// RawRead copies raw register regnum to buf, fetching it from the target
// if needed. Registers the target does not supply become Unavailable.
func (rc *Regcache) RawRead(regnum int, buf []byte) (Status, error) {
	return rc.rawRead(rc, regnum, buf)
}

// CookedRead reads raw or pseudo register regnum into buf.
func (rc *Regcache) CookedRead(regnum int, buf []byte) (Status, error) {
	return rc.cookedRead(rc, rc, regnum, buf)
}

func (rc *Regcache) RawReadPart(regnum, offset int, buf []byte) (Status, error) {
	rc.assertRawRegnum(regnum)
	return rc.readPart(rc.RawRead, regnum, offset, buf)
}

func (rc *Regcache) CookedReadPart(regnum, offset int, buf []byte) (Status, error) {
	rc.assertCookedRegnum(regnum)
	return rc.readPart(rc.CookedRead, regnum, offset, buf)
}

func (rc *Regcache) RawReadUnsigned(regnum int) (uint64, Status, error) {
	rc.assertRawRegnum(regnum)
	return rc.readUnsigned(rc.RawRead, regnum)
}

func (rc *Regcache) RawReadSigned(regnum int) (int64, Status, error) {
	rc.assertRawRegnum(regnum)
	return rc.readSigned(rc.RawRead, regnum)
}

func (rc *Regcache) CookedReadUnsigned(regnum int) (uint64, Status, error) {
	rc.assertCookedRegnum(regnum)
	return rc.readUnsigned(rc.CookedRead, regnum)
}

func (rc *Regcache) CookedReadSigned(regnum int) (int64, Status, error) {
	rc.assertCookedRegnum(regnum)
	return rc.readSigned(rc.CookedRead, regnum)
}

// RawWrite writes buf to raw register regnum and to the target. Writes to
// registers the architecture can not store are ignored, so are writes that
// do not change the cached value. If the target fails to store the
// register its status goes back to Unknown.
func (rc *Regcache) RawWrite(regnum int, buf []byte) error {
	rc.assertRawRegnum(regnum)
	rc.assertLen(regnum, buf)

	a := rc.Arch()
	if a.CannotStoreRegister(regnum) {
		return nil
	}
	if rc.status[regnum] == Valid && rc.RawCompare(regnum, buf, 0) {
		return nil
	}

	if err := rc.target.PrepareToStore(rc); err != nil {
		return err
	}
	rc.RawSupply(regnum, buf)
	if logflags.Regcache() {
		logflags.RegcacheLogger().Debugf("store %d (%s)", regnum, rc.ptid)
	}
	if err := rc.target.StoreRegisters(rc, regnum); err != nil {
		rc.Invalidate(regnum)
		return err
	}
	return nil
}

// CookedWrite writes raw or pseudo register regnum.
func (rc *Regcache) CookedWrite(regnum int, buf []byte) error {
	rc.assertCookedRegnum(regnum)
	if regnum < rc.descr.NrRaw {
		return rc.RawWrite(regnum, buf)
	}
	rc.assertLen(regnum, buf)
	return rc.Arch().PseudoRegisterWrite(rc, regnum, buf)
}

type writeFunc func(regnum int, buf []byte) error

func (rc *Regcache) writePart(read readFunc, write writeFunc, regnum, offset int, buf []byte) error {
	size := rc.descr.Size[regnum]
	if offset < 0 || offset+len(buf) > size {
		gdbarch.InternalError("regcache: write of %d bytes at offset %d of register %d of size %d", len(buf), offset, regnum, size)
	}
	if len(buf) == 0 {
		return nil
	}
	if offset == 0 && len(buf) == size {
		return write(regnum, buf)
	}
	reg := make([]byte, size)
	status, err := read(regnum, reg)
	if err != nil {
		return err
	}
	if status != Valid {
		// The untouched bytes are not known, writing the whole register
		// would store made up values in them.
		return &UnavailableError{Regnum: regnum, Name: rc.Arch().RegisterName(regnum)}
	}
	copy(reg[offset:], buf)
	return write(regnum, reg)
}

// RawWritePart writes buf at offset of raw register regnum, the other
// bytes of the register are preserved. A partial write to a register that
// is not available fails with an *UnavailableError and stores nothing.
func (rc *Regcache) RawWritePart(regnum, offset int, buf []byte) error {
	rc.assertRawRegnum(regnum)
	return rc.writePart(rc.RawRead, rc.RawWrite, regnum, offset, buf)
}

// CookedWritePart writes buf at offset of register regnum, the other bytes
// of the register are preserved.
func (rc *Regcache) CookedWritePart(regnum, offset int, buf []byte) error {
	rc.assertCookedRegnum(regnum)
	return rc.writePart(rc.CookedRead, rc.CookedWrite, regnum, offset, buf)
}

func (rc *Regcache) RawWriteUnsigned(regnum int, v uint64) error {
	rc.assertRawRegnum(regnum)
	reg := make([]byte, rc.descr.Size[regnum])
	gdbtypes.StoreUnsigned(reg, rc.byteOrder(), v)
	return rc.RawWrite(regnum, reg)
}

func (rc *Regcache) CookedWriteUnsigned(regnum int, v uint64) error {
	rc.assertCookedRegnum(regnum)
	reg := make([]byte, rc.descr.Size[regnum])
	gdbtypes.StoreUnsigned(reg, rc.byteOrder(), v)
	return rc.CookedWrite(regnum, reg)
}

// Save returns a snapshot of the registers for which inGroup returns
// true. Registers not in the group are Unknown in the snapshot.
func (rc *Regcache) Save(inGroup func(regnum int) bool) (*Detached, error) {
	return save(rc, inGroup)
}

// SaveGroup saves the registers of group.
func (rc *Regcache) SaveGroup(group *gdbarch.Reggroup) (*Detached, error) {
	return rc.Save(groupPredicate(rc.Arch(), group))
}

// Restore writes the registers of src for which inGroup returns true and
// that are valid in src.
func (rc *Regcache) Restore(src *Detached, inGroup func(regnum int) bool) error {
	if src.Arch() != rc.Arch() {
		gdbarch.InternalError("regcache: restore of %s registers into a %s cache", src.Arch(), rc.Arch())
	}
	for regnum := 0; regnum < rc.descr.NrCooked; regnum++ {
		if !inGroup(regnum) || src.status[regnum] != Valid {
			continue
		}
		if err := rc.CookedWrite(regnum, src.register(regnum)); err != nil {
			return err
		}
	}
	return nil
}

// RestoreGroup restores the registers of group.
func (rc *Regcache) RestoreGroup(src *Detached, group *gdbarch.Reggroup) error {
	return rc.Restore(src, groupPredicate(rc.Arch(), group))
}

func groupPredicate(a *gdbarch.Gdbarch, group *gdbarch.Reggroup) func(int) bool {
	return func(regnum int) bool {
		return a.RegisterReggroupP(regnum, group)
	}
}

func save(src gdbarch.RegisterReader, inGroup func(regnum int) bool) (*Detached, error) {
	d := NewDetached(src.Arch())
	for regnum := 0; regnum < d.descr.NrCooked; regnum++ {
		if !inGroup(regnum) {
			continue
		}
		status, err := src.CookedRead(regnum, d.register(regnum))
		if err != nil {
			return nil, err
		}
		if status == Unknown {
			status = Unavailable
		}
		d.status[regnum] = status
	}
	return d, nil
}

// ReadPC returns the program counter of rc.
func ReadPC(rc gdbarch.RegisterReader) (uint64, error) {
	a := rc.Arch()
	if a.HasReadPC() {
		return a.ReadPC(rc)
	}
	pcRegnum := a.PCRegnum()
	if pcRegnum < 0 {
		gdbarch.InternalError("regcache: unable to find PC for %s", a)
	}
	pc, status, err := rc.CookedReadUnsigned(pcRegnum)
	if err != nil {
		return 0, err
	}
	if status != Valid {
		return 0, &UnavailableError{Regnum: pcRegnum, Name: a.RegisterName(pcRegnum)}
	}
	return a.AddrBitsRemove(pc), nil
}

// WritePC sets the program counter of rc.
func WritePC(rc gdbarch.RegisterReadWriter, pc uint64) error {
	a := rc.Arch()
	if a.HasWritePC() {
		return a.WritePC(rc, pc)
	}
	pcRegnum := a.PCRegnum()
	if pcRegnum < 0 {
		gdbarch.InternalError("regcache: unable to find PC for %s", a)
	}
	return rc.CookedWriteUnsigned(pcRegnum, pc)
}
