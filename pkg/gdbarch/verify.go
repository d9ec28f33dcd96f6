package gdbarch

import (
	"fmt"

	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

// verify checks that every field of a without a default has been set and
// fills the defaults that depend on other fields. All problems are
// reported by a single *VerifyError.
func (a *Gdbarch) verify() error {
	var missing []string
	invalid := func(name string) {
		missing = append(missing, name)
	}

	if a.info.ArchInfo == nil {
		invalid("bfd_arch_info")
	}
	if a.info.ByteOrder == ByteOrderUnknown {
		invalid("byte_order")
	}

	if a.addrBit == 0 {
		a.addrBit = a.ptrBit
	}
	if a.dwarf2AddrSize == 0 {
		a.dwarf2AddrSize = a.ptrBit / targetCharBit
	}
	if a.charSigned == -1 {
		a.charSigned = 1
	}
	if a.wcharSigned == -1 {
		a.wcharSigned = 1
	}

	bigEndian := a.info.ByteOrder == BigEndian
	checkFormat := func(name string, f **gdbtypes.FloatFormat, bits int) {
		if *f == nil {
			*f = gdbtypes.DefaultFloatFormat(bits, bigEndian)
		}
		if *f == nil || (*f).TotalBits > bits {
			invalid(name)
		}
	}
	checkFormat("half_format", &a.halfFormat, a.halfBit)
	checkFormat("float_format", &a.floatFormat, a.floatBit)
	checkFormat("double_format", &a.doubleFormat, a.doubleBit)
	checkFormat("long_double_format", &a.longDoubleFormat, a.longDoubleBit)

	if a.numRegs == -1 {
		invalid("num_regs")
	}
	if a.numPseudoRegs > 0 && a.pseudoRegisterRead == nil {
		invalid("pseudo_register_read")
	}
	for _, r := range []struct {
		name   string
		regnum int
	}{{"sp_regnum", a.spRegnum}, {"pc_regnum", a.pcRegnum}, {"ps_regnum", a.psRegnum}, {"fp0_regnum", a.fp0Regnum}} {
		if r.regnum < -1 || (a.numRegs >= 0 && r.regnum >= a.NumCookedRegs()) {
			invalid(fmt.Sprintf("%s (%d)", r.name, r.regnum))
		}
	}

	if a.registerName == nil {
		invalid("register_name")
	}
	if a.breakpointFromPC == nil {
		invalid("breakpoint_from_pc")
	}
	if a.skipPrologue == nil {
		invalid("skip_prologue")
	}
	if a.innerThan == nil {
		invalid("inner_than")
	}

	if len(missing) > 0 {
		return &VerifyError{Arch: a.String(), Missing: missing}
	}
	return nil
}
