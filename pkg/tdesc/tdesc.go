// Package tdesc parses GDB target descriptions, the XML documents remote
// stubs use to describe the registers of the target.
//
// The schema is described by:
//  https://github.com/bminor/binutils-gdb/blob/61baf725eca99af2569262d10aca03dcde2698f6/gdb/features/gdb-target.dtd
package tdesc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Description is a parsed target description. Descriptions are compared by
// identity when selecting an architecture, two descriptions with the same
// contents are still different targets.
type Description struct {
	Architecture string
	OSABI        string
	Features     []*Feature
}

// Feature is a named group of registers.
type Feature struct {
	Name string
	Regs []*Reg
}

// Reg describes one register of the target.
type Reg struct {
	Name    string
	Bitsize int
	Regnum  int
	Type    string
	Group   string
	// SaveRestore is false for registers that must not be saved and
	// restored around inferior function calls.
	SaveRestore bool
}

// Size returns the size of r in bytes.
func (r *Reg) Size() int {
	return r.Bitsize / 8
}

// IncludeFunc returns the contents of the document referenced by an
// xi:include element.
type IncludeFunc func(href string) ([]byte, error)

type xmlDoc struct {
	XMLName      xml.Name
	Architecture string       `xml:"architecture"`
	OSABI        string       `xml:"osabi"`
	Includes     []xmlInclude `xml:"include"`
	Features     []xmlFeature `xml:"feature"`

	// set when the root element is itself a feature
	Name string   `xml:"name,attr"`
	Regs []xmlReg `xml:"reg"`
}

type xmlInclude struct {
	Href string `xml:"href,attr"`
}

type xmlFeature struct {
	Name string   `xml:"name,attr"`
	Regs []xmlReg `xml:"reg"`
}

type xmlReg struct {
	Name        string `xml:"name,attr"`
	Bitsize     int    `xml:"bitsize,attr"`
	Regnum      string `xml:"regnum,attr"`
	Type        string `xml:"type,attr"`
	Group       string `xml:"group,attr"`
	SaveRestore string `xml:"save-restore,attr"`
}

// maxIncludeDepth bounds xi:include recursion.
const maxIncludeDepth = 8

// Parse parses the target description in data, resolving includes with
// include (which can be nil if data has no includes).
func Parse(data []byte, include IncludeFunc) (*Description, error) {
	p := &parser{include: include, desc: &Description{}}
	if err := p.parse(data, 0); err != nil {
		return nil, err
	}
	return p.desc, nil
}

type parser struct {
	include IncludeFunc
	desc    *Description
	regnum  int
}

func (p *parser) parse(data []byte, depth int) error {
	if depth > maxIncludeDepth {
		return errors.New("target description includes nested too deeply")
	}
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("could not parse target description: %w", err)
	}

	if doc.XMLName.Local == "feature" {
		return p.addFeature(xmlFeature{Name: doc.Name, Regs: doc.Regs})
	}

	if doc.Architecture != "" {
		p.desc.Architecture = doc.Architecture
	}
	if doc.OSABI != "" {
		p.desc.OSABI = doc.OSABI
	}
	for _, incl := range doc.Includes {
		if p.include == nil {
			return fmt.Errorf("target description includes %q but no include function was provided", incl.Href)
		}
		buf, err := p.include(incl.Href)
		if err != nil {
			return fmt.Errorf("could not read %s: %w", incl.Href, err)
		}
		if err := p.parse(buf, depth+1); err != nil {
			return err
		}
	}
	for _, feat := range doc.Features {
		if err := p.addFeature(feat); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) addFeature(xf xmlFeature) error {
	feat := &Feature{Name: xf.Name}
	for _, xr := range xf.Regs {
		if xr.Regnum != "" {
			n, err := strconv.Atoi(xr.Regnum)
			if err != nil {
				return fmt.Errorf("register %s: bad regnum %q", xr.Name, xr.Regnum)
			}
			p.regnum = n
		}
		if xr.Bitsize <= 0 || xr.Bitsize%8 != 0 {
			return fmt.Errorf("register %s: bad bitsize %d", xr.Name, xr.Bitsize)
		}
		typ := xr.Type
		if typ == "" {
			typ = "int"
		}
		feat.Regs = append(feat.Regs, &Reg{
			Name:        xr.Name,
			Bitsize:     xr.Bitsize,
			Regnum:      p.regnum,
			Type:        typ,
			Group:       xr.Group,
			SaveRestore: xr.SaveRestore != "no",
		})
		p.regnum++
	}
	p.desc.Features = append(p.desc.Features, feat)
	return nil
}

// New returns an empty description for the named architecture.
func New(arch string) *Description {
	return &Description{Architecture: arch}
}

// AddFeature appends a new feature to d.
func (d *Description) AddFeature(name string) *Feature {
	f := &Feature{Name: name}
	d.Features = append(d.Features, f)
	return f
}

// AddReg appends a register to f numbered regnum.
func (f *Feature) AddReg(name string, regnum, bitsize int, typ, group string) *Reg {
	r := &Reg{Name: name, Regnum: regnum, Bitsize: bitsize, Type: typ, Group: group, SaveRestore: true}
	f.Regs = append(f.Regs, r)
	return r
}

// Find returns the register of f called name.
func (f *Feature) Find(name string) *Reg {
	for _, r := range f.Regs {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// FindFeature returns the feature called name, or nil.
func (d *Description) FindFeature(name string) *Feature {
	for _, f := range d.Features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Registers returns all the registers of d ordered by register number.
func (d *Description) Registers() []*Reg {
	var r []*Reg
	for _, f := range d.Features {
		r = append(r, f.Regs...)
	}
	sort.SliceStable(r, func(i, j int) bool { return r[i].Regnum < r[j].Regnum })
	return r
}

// NumRegs returns one more than the highest register number in d.
func (d *Description) NumRegs() int {
	n := 0
	for _, f := range d.Features {
		for _, r := range f.Regs {
			if r.Regnum+1 > n {
				n = r.Regnum + 1
			}
		}
	}
	return n
}

// FindRegister returns the register called name in any feature of d.
func (d *Description) FindRegister(name string) *Reg {
	for _, f := range d.Features {
		if r := f.Find(name); r != nil {
			return r
		}
	}
	return nil
}
