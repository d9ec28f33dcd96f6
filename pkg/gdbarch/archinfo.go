package gdbarch

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Arch identifies a CPU family. Families are the unit of registration in a
// Registry, one constructor handles every machine of its family.
type Arch uint8

const (
	ArchUnknown Arch = iota
	ArchI386
	ArchAArch64
	ArchARM
	ArchRISCV
	ArchPowerPC
	ArchLoongArch
)

func (a Arch) String() string {
	switch a {
	case ArchI386:
		return "i386"
	case ArchAArch64:
		return "aarch64"
	case ArchARM:
		return "arm"
	case ArchRISCV:
		return "riscv"
	case ArchPowerPC:
		return "powerpc"
	case ArchLoongArch:
		return "loongarch"
	}
	return "unknown"
}

// Machine numbers, only meaningful within a family.
const (
	MachDefault = 0
	MachI386    = 1
	MachX8664   = 64
	MachRV64    = 64
	MachPPC64   = 64
	MachLA64    = 64
)

// ByteOrder is the byte order of a target.
type ByteOrder uint8

const (
	ByteOrderUnknown ByteOrder = iota
	BigEndian
	LittleEndian
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	}
	return "unknown"
}

// Binary returns the encoding/binary implementation of o. Unknown byte
// orders are treated as little endian.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseByteOrder parses the names used in configuration files and on the
// command line.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ByteOrderUnknown, nil
	case "big", "big-endian", "be":
		return BigEndian, nil
	case "little", "little-endian", "le":
		return LittleEndian, nil
	}
	return ByteOrderUnknown, fmt.Errorf("unknown byte order %q", s)
}

// OSABI identifies the operating system ABI of the target.
type OSABI string

const (
	OSABIUnknown OSABI = ""
	OSABINone    OSABI = "none"
	OSABILinux   OSABI = "GNU/Linux"
	OSABIFreeBSD OSABI = "FreeBSD"
	OSABIDarwin  OSABI = "Darwin"
	OSABIWindows OSABI = "Windows"
)

// ParseOSABI maps user supplied names, including GOOS values, to an OSABI.
func ParseOSABI(s string) OSABI {
	switch strings.ToLower(s) {
	case "", "auto":
		return OSABIUnknown
	case "none":
		return OSABINone
	case "linux", "gnu/linux":
		return OSABILinux
	case "freebsd":
		return OSABIFreeBSD
	case "darwin", "macos":
		return OSABIDarwin
	case "windows", "cygwin":
		return OSABIWindows
	}
	return OSABI(s)
}

// ArchInfo describes one machine of a CPU family. ArchInfo values are
// compared by identity, use LookupArchInfo to obtain them.
type ArchInfo struct {
	Family Arch
	Mach   int
	Name   string

	BitsPerWord      int
	BitsPerAddress   int
	BitsPerByte      int
	DefaultByteOrder ByteOrder
	// Default is true for the machine used when only the family is known.
	Default bool

	aliases []string
}

func (ai *ArchInfo) String() string {
	if ai == nil {
		return "auto"
	}
	return ai.Name
}

// Compatible returns the more capable of ai and other if they belong to
// the same family, nil otherwise.
func (ai *ArchInfo) Compatible(other *ArchInfo) *ArchInfo {
	if ai == nil || other == nil || ai.Family != other.Family {
		return nil
	}
	if other.BitsPerWord > ai.BitsPerWord {
		return other
	}
	return ai
}

var archInfos = []*ArchInfo{
	{Family: ArchI386, Mach: MachI386, Name: "i386", BitsPerWord: 32, BitsPerAddress: 32, BitsPerByte: 8, DefaultByteOrder: LittleEndian, Default: true, aliases: []string{"386", "x86", "i386:intel"}},
	{Family: ArchI386, Mach: MachX8664, Name: "i386:x86-64", BitsPerWord: 64, BitsPerAddress: 64, BitsPerByte: 8, DefaultByteOrder: LittleEndian, aliases: []string{"amd64", "x86-64", "x86_64"}},
	{Family: ArchAArch64, Mach: MachDefault, Name: "aarch64", BitsPerWord: 64, BitsPerAddress: 64, BitsPerByte: 8, DefaultByteOrder: LittleEndian, Default: true, aliases: []string{"arm64"}},
	{Family: ArchARM, Mach: MachDefault, Name: "arm", BitsPerWord: 32, BitsPerAddress: 32, BitsPerByte: 8, DefaultByteOrder: LittleEndian, Default: true},
	{Family: ArchRISCV, Mach: MachRV64, Name: "riscv:rv64", BitsPerWord: 64, BitsPerAddress: 64, BitsPerByte: 8, DefaultByteOrder: LittleEndian, Default: true, aliases: []string{"riscv64"}},
	{Family: ArchPowerPC, Mach: MachPPC64, Name: "powerpc:common64", BitsPerWord: 64, BitsPerAddress: 64, BitsPerByte: 8, DefaultByteOrder: BigEndian, Default: true, aliases: []string{"ppc64", "ppc64le"}},
	{Family: ArchLoongArch, Mach: MachLA64, Name: "loongarch64", BitsPerWord: 64, BitsPerAddress: 64, BitsPerByte: 8, DefaultByteOrder: LittleEndian, Default: true, aliases: []string{"loong64"}},
}

// LookupArchInfo returns the machine called name, accepting the names used
// in target descriptions as well as GOARCH values. Returns nil if the name
// is unknown.
func LookupArchInfo(name string) *ArchInfo {
	name = strings.ToLower(name)
	for _, ai := range archInfos {
		if ai.Name == name {
			return ai
		}
		for _, alias := range ai.aliases {
			if alias == name {
				return ai
			}
		}
	}
	return nil
}

// DefaultArchInfo returns the default machine of family, nil if the family
// is unknown.
func DefaultArchInfo(family Arch) *ArchInfo {
	for _, ai := range archInfos {
		if ai.Family == family && ai.Default {
			return ai
		}
	}
	return nil
}

// ArchInfos returns every known machine.
func ArchInfos() []*ArchInfo {
	r := make([]*ArchInfo, len(archInfos))
	copy(r, archInfos)
	return r
}
