package gdbarch

import (
	"fmt"
	"io"
	"reflect"

	"github.com/go-delve/dbgcore/pkg/gdbtypes"
)

// fnToken renders a hook for Dump, the value is only meaningful to tell
// hooks apart.
func fnToken(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("<0x%x>", v.Pointer())
}

func formatName(f *gdbtypes.FloatFormat) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Dump writes every field of a to w, one per line, followed by the family
// private fields. The output is meant for debugging the debugger.
func (a *Gdbarch) Dump(w io.Writer) {
	p := func(name string, v interface{}) {
		fmt.Fprintf(w, "gdbarch_dump: %s = %v\n", name, v)
	}
	pred := func(name string, ok bool) {
		fmt.Fprintf(w, "gdbarch_dump: gdbarch_%s_p() = %d\n", name, boolToInt(ok))
	}

	p("bfd_arch_info", a.info.ArchInfo)
	p("byte_order", a.info.ByteOrder)
	p("byte_order_for_code", a.info.ByteOrderForCode)
	p("osabi", fmt.Sprintf("%q", a.info.OSABI))
	if a.info.Tdesc != nil {
		p("target_desc", fmt.Sprintf("%p", a.info.Tdesc))
	} else {
		p("target_desc", "<nil>")
	}
	p("bits_big_endian", boolToInt(a.bitsBigEndian))
	p("short_bit", a.shortBit)
	p("int_bit", a.intBit)
	p("long_bit", a.longBit)
	p("long_long_bit", a.longLongBit)
	p("half_bit", a.halfBit)
	p("half_format", formatName(a.halfFormat))
	p("float_bit", a.floatBit)
	p("float_format", formatName(a.floatFormat))
	p("double_bit", a.doubleBit)
	p("double_format", formatName(a.doubleFormat))
	p("long_double_bit", a.longDoubleBit)
	p("long_double_format", formatName(a.longDoubleFormat))
	p("ptr_bit", a.ptrBit)
	p("addr_bit", a.addrBit)
	p("dwarf2_addr_size", a.dwarf2AddrSize)
	p("char_signed", a.charSigned)
	p("wchar_bit", a.wcharBit)
	p("wchar_signed", a.wcharSigned)
	p("num_regs", a.numRegs)
	p("num_pseudo_regs", a.numPseudoRegs)
	p("sp_regnum", a.spRegnum)
	p("pc_regnum", a.pcRegnum)
	p("ps_regnum", a.psRegnum)
	p("fp0_regnum", a.fp0Regnum)
	p("decr_pc_after_break", fmt.Sprintf("%#x", a.decrPCAfterBreak))
	p("max_insn_length", a.maxInsnLength)
	p("frame_red_zone_size", a.frameRedZoneSize)
	p("cannot_step_breakpoint", boolToInt(a.cannotStepBreakpoint))
	p("have_nonsteppable_watchpoint", boolToInt(a.haveNonsteppableWatchpoint))

	p("register_name", fnToken(a.registerName))
	pred("register_type", a.HasRegisterType())
	p("register_type", fnToken(a.registerType))
	p("register_reggroup_p", fnToken(a.registerReggroupP))
	p("cannot_fetch_register", fnToken(a.cannotFetchRegister))
	p("cannot_store_register", fnToken(a.cannotStoreRegister))
	p("dwarf2_reg_to_regnum", fnToken(a.dwarf2RegToRegnum))
	p("stab_reg_to_regnum", fnToken(a.stabRegToRegnum))
	pred("read_pc", a.HasReadPC())
	p("read_pc", fnToken(a.readPC))
	pred("write_pc", a.HasWritePC())
	p("write_pc", fnToken(a.writePC))
	pred("pseudo_register_read", a.HasPseudoRegisterRead())
	p("pseudo_register_read", fnToken(a.pseudoRegisterRead))
	pred("pseudo_register_write", a.HasPseudoRegisterWrite())
	p("pseudo_register_write", fnToken(a.pseudoRegisterWrite))
	p("convert_register_p", fnToken(a.convertRegisterP))
	p("virtual_frame_pointer", fnToken(a.virtualFramePointer))
	p("breakpoint_from_pc", fnToken(a.breakpointFromPC))
	pred("adjust_breakpoint_address", a.HasAdjustBreakpointAddress())
	p("adjust_breakpoint_address", fnToken(a.adjustBreakpointAddress))
	pred("software_single_step", a.HasSoftwareSingleStep())
	p("software_single_step", fnToken(a.softwareSingleStep))
	p("skip_prologue", fnToken(a.skipPrologue))
	p("inner_than", fnToken(a.innerThan))
	pred("return_value", a.HasReturnValue())
	p("return_value", fnToken(a.returnValue))
	pred("frame_align", a.HasFrameAlign())
	p("frame_align", fnToken(a.frameAlign))
	pred("push_dummy_call", a.HasPushDummyCall())
	p("push_dummy_call", fnToken(a.pushDummyCall))
	pred("fetch_pointer_argument", a.HasFetchPointerArgument())
	p("fetch_pointer_argument", fnToken(a.fetchPointerArgument))
	p("pointer_to_address", fnToken(a.pointerToAddress))
	p("address_to_pointer", fnToken(a.addressToPointer))
	pred("integer_to_address", a.HasIntegerToAddress())
	p("integer_to_address", fnToken(a.integerToAddress))
	p("addr_bits_remove", fnToken(a.addrBitsRemove))
	pred("get_longjmp_target", a.HasGetLongjmpTarget())
	p("get_longjmp_target", fnToken(a.getLongjmpTarget))

	if a.dumpTdep != nil {
		a.dumpTdep(a, w)
	}
}
