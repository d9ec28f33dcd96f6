package tdesc

import (
	"fmt"
	"testing"
)

const targetXML = `<?xml version="1.0"?>
<!DOCTYPE target SYSTEM "gdb-target.dtd">
<target version="1.0">
  <architecture>i386:x86-64</architecture>
  <osabi>GNU/Linux</osabi>
  <xi:include href="core.xml"/>
  <feature name="org.gnu.gdb.i386.linux">
    <reg name="orig_rax" bitsize="64" type="int" regnum="57" save-restore="no"/>
    <reg name="fs_base" bitsize="64" type="int"/>
  </feature>
</target>`

const coreXML = `<?xml version="1.0"?>
<feature name="org.gnu.gdb.i386.core">
  <reg name="rax" bitsize="64" type="int64" regnum="0"/>
  <reg name="rbx" bitsize="64" type="int64"/>
  <reg name="rip" bitsize="64" type="code_ptr" regnum="16"/>
  <reg name="eflags" bitsize="32" type="i386_eflags"/>
</feature>`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(targetXML), func(href string) ([]byte, error) {
		if href != "core.xml" {
			return nil, fmt.Errorf("unknown annex %s", href)
		}
		return []byte(coreXML), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Architecture != "i386:x86-64" || d.OSABI != "GNU/Linux" {
		t.Errorf("wrong header: %q %q", d.Architecture, d.OSABI)
	}
	if len(d.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(d.Features))
	}

	tgt := []struct {
		name   string
		regnum int
		size   int
	}{
		{"rax", 0, 8},
		{"rbx", 1, 8},
		{"rip", 16, 8},
		{"eflags", 17, 4},
		{"orig_rax", 57, 8},
		{"fs_base", 58, 8},
	}
	regs := d.Registers()
	if len(regs) != len(tgt) {
		t.Fatalf("expected %d registers, got %d", len(tgt), len(regs))
	}
	for i := range tgt {
		if regs[i].Name != tgt[i].name || regs[i].Regnum != tgt[i].regnum || regs[i].Size() != tgt[i].size {
			t.Errorf("register %d: got %s/%d/%d, expected %s/%d/%d", i, regs[i].Name, regs[i].Regnum, regs[i].Size(), tgt[i].name, tgt[i].regnum, tgt[i].size)
		}
	}
	if d.NumRegs() != 59 {
		t.Errorf("NumRegs: got %d", d.NumRegs())
	}
	if r := d.FindRegister("orig_rax"); r == nil || r.SaveRestore {
		t.Errorf("orig_rax should not be saved/restored: %#v", r)
	}
	if r := d.FindRegister("rax"); r == nil || r.Type != "int64" {
		t.Errorf("rax: %#v", r)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(targetXML), nil); err == nil {
		t.Errorf("expected an error for an unresolved include")
	}
	bad := `<feature name="x"><reg name="r" bitsize="12"/></feature>`
	if _, err := Parse([]byte(bad), nil); err == nil {
		t.Errorf("expected an error for a bad bitsize")
	}
	loop := `<target><xi:include href="self.xml"/></target>`
	_, err := Parse([]byte(loop), func(string) ([]byte, error) { return []byte(loop), nil })
	if err == nil {
		t.Errorf("expected an error for recursive includes")
	}
}
