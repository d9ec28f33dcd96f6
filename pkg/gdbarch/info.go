package gdbarch

import (
	"fmt"

	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// Info is the key used to select an architecture. Fields left at their zero
// value are filled in from the registry defaults before the family
// constructor is called.
type Info struct {
	ArchInfo         *ArchInfo
	ByteOrder        ByteOrder
	ByteOrderForCode ByteOrder
	OSABI            OSABI
	Tdesc            *tdesc.Description

	// TdepInfo is passed through to the family constructor untouched.
	TdepInfo interface{}
}

func (info Info) String() string {
	s := fmt.Sprintf("%v %v-endian osabi=%q", info.ArchInfo, info.ByteOrder, info.OSABI)
	if info.Tdesc != nil {
		s += " tdesc=" + info.Tdesc.Architecture
	}
	return s
}

// fillDefaults completes info using defaults and the target description.
// It does not perform any I/O.
func (info *Info) fillDefaults(defaults *Info) {
	if info.ArchInfo == nil && info.Tdesc != nil && info.Tdesc.Architecture != "" {
		info.ArchInfo = LookupArchInfo(info.Tdesc.Architecture)
	}
	if info.ArchInfo == nil && defaults != nil {
		info.ArchInfo = defaults.ArchInfo
	}

	if info.ByteOrder == ByteOrderUnknown && defaults != nil {
		info.ByteOrder = defaults.ByteOrder
	}
	if info.ByteOrder == ByteOrderUnknown && info.ArchInfo != nil {
		info.ByteOrder = info.ArchInfo.DefaultByteOrder
	}
	if info.ByteOrderForCode == ByteOrderUnknown {
		info.ByteOrderForCode = info.ByteOrder
	}

	if info.OSABI == OSABIUnknown && info.Tdesc != nil {
		info.OSABI = ParseOSABI(info.Tdesc.OSABI)
	}
	if info.OSABI == OSABIUnknown && defaults != nil {
		info.OSABI = defaults.OSABI
	}
}

// matches reports whether an architecture built for other can be used for
// info. Architecture info and target descriptions are compared by
// identity.
func (info *Info) matches(other *Info) bool {
	return info.ArchInfo == other.ArchInfo &&
		info.ByteOrder == other.ByteOrder &&
		info.OSABI == other.OSABI &&
		info.Tdesc == other.Tdesc
}
