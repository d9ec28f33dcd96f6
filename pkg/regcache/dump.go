package regcache

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
)

// DumpKind selects the optional columns printed by Dump.
type DumpKind uint8

const (
	DumpNone DumpKind = iota
	DumpRaw
	DumpCooked
	DumpGroups
)

// Dump prints the layout of the registers of rc. Depending on kind it
// also prints their raw or cooked values, or their groups.
func Dump(w io.Writer, rc gdbarch.RegisterReader, kind DumpKind) error {
	a := rc.Arch()
	descr := DescrOf(a)

	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 8, 1, ' ', 0)

	fmt.Fprint(tw, " Name\tNr\tRel\tOffset\tSize\tType")
	switch kind {
	case DumpRaw:
		fmt.Fprint(tw, "\tRaw value")
	case DumpCooked:
		fmt.Fprint(tw, "\tCooked value")
	case DumpGroups:
		fmt.Fprint(tw, "\tGroups")
	}
	fmt.Fprintln(tw)

	for regnum := 0; regnum < descr.NrCooked; regnum++ {
		name := a.RegisterName(regnum)
		if name == "" {
			name = "''"
		}
		rel := regnum
		if regnum >= descr.NrRaw {
			rel = regnum - descr.NrRaw
		}
		fmt.Fprintf(tw, " %s\t%d\t%d\t%d\t%d\t%s", name, regnum, rel, descr.Offset[regnum], descr.Size[regnum], descr.Type[regnum].Name)

		switch kind {
		case DumpRaw:
			if regnum >= descr.NrRaw {
				fmt.Fprint(tw, "\t<cooked>")
				break
			}
			buf := make([]byte, descr.Size[regnum])
			status, err := rc.RawRead(regnum, buf)
			fmt.Fprintf(tw, "\t%s", dumpValue(a, buf, status, err))
		case DumpCooked:
			buf := make([]byte, descr.Size[regnum])
			status, err := rc.CookedRead(regnum, buf)
			fmt.Fprintf(tw, "\t%s", dumpValue(a, buf, status, err))
		case DumpGroups:
			var groups []string
			for _, g := range gdbarch.Reggroups(a) {
				if a.RegisterReggroupP(regnum, g) {
					groups = append(groups, g.Name)
				}
			}
			fmt.Fprintf(tw, "\t%s", strings.Join(groups, ","))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func dumpValue(a *gdbarch.Gdbarch, buf []byte, status Status, err error) string {
	switch {
	case err != nil:
		return "<error: " + err.Error() + ">"
	case status == Unavailable:
		return "<unavailable>"
	case status == Unknown:
		return "<unknown>"
	}
	return HexValue(buf, a.ByteOrder())
}

// HexValue formats the contents of a register as a hexadecimal number,
// most significant byte first.
func HexValue(buf []byte, order gdbarch.ByteOrder) string {
	var sb strings.Builder
	sb.WriteString("0x")
	for i := range buf {
		b := buf[i]
		if order != gdbarch.BigEndian {
			b = buf[len(buf)-1-i]
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
