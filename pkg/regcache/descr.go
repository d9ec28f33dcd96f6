package regcache

import (
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

// Descr describes the layout of the register buffer of an architecture.
// Raw registers come first, pseudo registers follow, each register
// occupies the bytes [Offset[i], Offset[i]+Size[i]) of the buffer.
type Descr struct {
	Arch *gdbarch.Gdbarch

	NrRaw    int
	NrCooked int

	// SizeofRaw is the size of the buffer of a cache without pseudo
	// registers, SizeofCooked the size with them.
	SizeofRaw    int
	SizeofCooked int

	Offset []int
	Size   []int
	Type   []*gdbtypes.Type
}

var descrData = gdbarch.NewPostInitData(initDescr)

func initDescr(a *gdbarch.Gdbarch) *Descr {
	if !a.HasRegisterType() {
		gdbarch.InternalError("regcache: %s has no register_type", a)
	}
	d := &Descr{
		Arch:     a,
		NrRaw:    a.NumRegs(),
		NrCooked: a.NumCookedRegs(),
	}
	d.Offset = make([]int, d.NrCooked)
	d.Size = make([]int, d.NrCooked)
	d.Type = make([]*gdbtypes.Type, d.NrCooked)

	offset := 0
	for i := 0; i < d.NrCooked; i++ {
		if i == d.NrRaw {
			d.SizeofRaw = offset
		}
		d.Type[i] = a.RegisterType(i)
		d.Size[i] = d.Type[i].Length
		d.Offset[i] = offset
		offset += d.Size[i]
	}
	if d.NrCooked == d.NrRaw {
		d.SizeofRaw = offset
	}
	d.SizeofCooked = offset
	return d
}

// DescrOf returns the register layout of a, a must be initialized.
func DescrOf(a *gdbarch.Gdbarch) *Descr {
	d := descrData.Get(a)
	if d == nil {
		gdbarch.InternalError("regcache: register layout of %s requested before initialization", a)
	}
	return d
}

// RegisterSize returns the size in bytes of register regnum of a.
func RegisterSize(a *gdbarch.Gdbarch, regnum int) int {
	d := DescrOf(a)
	if regnum < 0 || regnum >= d.NrCooked {
		gdbarch.InternalError("regcache: register number %d out of range [0, %d)", regnum, d.NrCooked)
	}
	return d.Size[regnum]
}
