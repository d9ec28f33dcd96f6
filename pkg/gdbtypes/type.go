// Package gdbtypes describes the primitive types and floating point
// encodings used to give registers a semantic type.
package gdbtypes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// TypeCode is the kind of a Type.
type TypeCode uint8

const (
	TypeInt TypeCode = iota + 1
	TypeFloat
	TypeBool
	// TypeDataPtr is a pointer to data, TypeCodePtr a pointer to code.
	// Debuggers display them differently (code pointers get a symbol).
	TypeDataPtr
	TypeCodePtr
	TypeVector
	TypeUnion
	TypeFlags
)

func (c TypeCode) String() string {
	switch c {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDataPtr:
		return "data_ptr"
	case TypeCodePtr:
		return "code_ptr"
	case TypeVector:
		return "vector"
	case TypeUnion:
		return "union"
	case TypeFlags:
		return "flags"
	}
	return fmt.Sprintf("TypeCode(%d)", uint8(c))
}

// Type is the semantic type of a register (or of any other value the
// architecture needs to describe).
type Type struct {
	Name     string
	Code     TypeCode
	Length   int // in bytes
	Unsigned bool

	// Format is set for TypeFloat.
	Format *FloatFormat
	// Target is the pointed-to type for pointers and the element type for
	// vectors.
	Target *Type
	Count  int // number of elements of a vector

	Fields []Field     // TypeUnion members
	Flags  []FlagField // TypeFlags bits
}

// Field is a member of a union type.
type Field struct {
	Name string
	Type *Type
}

// FlagField names a bit (or a group of bits) of a flags register.
type FlagField struct {
	Name  string
	Start int
	End   int
}

// NewInt returns a signed integer type of the given size.
func NewInt(name string, length int) *Type {
	return &Type{Name: name, Code: TypeInt, Length: length}
}

// NewUnsigned returns an unsigned integer type of the given size.
func NewUnsigned(name string, length int) *Type {
	return &Type{Name: name, Code: TypeInt, Length: length, Unsigned: true}
}

// NewFloat returns a floating point type using format f. The length of
// the type can be larger than f.Len() to account for padding (x87 registers
// stored in 16 byte slots, for example).
func NewFloat(name string, length int, f *FloatFormat) *Type {
	if length < f.Len() {
		length = f.Len()
	}
	return &Type{Name: name, Code: TypeFloat, Length: length, Format: f}
}

// NewPointer returns a pointer type of the given size. If code is true the
// pointer points to code.
func NewPointer(target *Type, length int, code bool) *Type {
	t := &Type{Code: TypeDataPtr, Length: length, Unsigned: true, Target: target}
	if code {
		t.Code = TypeCodePtr
	}
	if target != nil {
		t.Name = target.Name + " *"
	}
	return t
}

// NewVector returns a vector of count elements of type elem.
func NewVector(name string, elem *Type, count int) *Type {
	return &Type{Name: name, Code: TypeVector, Length: elem.Length * count, Target: elem, Count: count}
}

// NewUnion returns a union of the given fields, its size is the size of the
// largest field.
func NewUnion(name string, fields ...Field) *Type {
	t := &Type{Name: name, Code: TypeUnion, Fields: fields}
	for _, f := range fields {
		if f.Type.Length > t.Length {
			t.Length = f.Type.Length
		}
	}
	return t
}

// NewFlags returns a flags type of the given size.
func NewFlags(name string, length int, flags ...FlagField) *Type {
	return &Type{Name: name, Code: TypeFlags, Length: length, Unsigned: true, Flags: flags}
}

// IsFloatLike reports whether values of t belong in floating point
// register groups.
func (t *Type) IsFloatLike() bool {
	return t.Code == TypeFloat
}

// IsVectorLike reports whether values of t belong in vector register
// groups. Unions whose first member is a vector count as vectors.
func (t *Type) IsVectorLike() bool {
	switch t.Code {
	case TypeVector:
		return true
	case TypeUnion:
		return len(t.Fields) > 0 && t.Fields[0].Type.IsVectorLike()
	}
	return false
}

// Integer decodes buf as an integer of type t.
func (t *Type) Integer(buf []byte, order binary.ByteOrder) uint64 {
	return ExtractUnsigned(buf[:t.Length], order)
}

// ExtractUnsigned decodes an unsigned integer of len(buf) bytes, at most 8
// significant bytes are used.
func ExtractUnsigned(buf []byte, order binary.ByteOrder) uint64 {
	var v uint64
	if order == binary.LittleEndian {
		for i := len(buf) - 1; i >= 0; i-- {
			v = v<<8 | uint64(buf[i])
		}
	} else {
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
	}
	return v
}

// ExtractSigned decodes a signed integer of len(buf) bytes.
func ExtractSigned(buf []byte, order binary.ByteOrder) int64 {
	v := ExtractUnsigned(buf, order)
	if n := len(buf); n > 0 && n < 8 {
		shift := uint(64 - 8*n)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

// StoreUnsigned encodes v into buf using len(buf) bytes.
func StoreUnsigned(buf []byte, order binary.ByteOrder, v uint64) {
	if order == binary.LittleEndian {
		for i := range buf {
			buf[i] = byte(v)
			v >>= 8
		}
		return
	}
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

// FormatValue renders buf as a value of type t for display.
func (t *Type) FormatValue(buf []byte, order binary.ByteOrder) string {
	if len(buf) < t.Length {
		return "<invalid>"
	}
	buf = buf[:t.Length]
	switch t.Code {
	case TypeFloat:
		if t.Format == nil {
			break
		}
		return fmt.Sprintf("%g", t.Format.ToFloat64(buf))
	case TypeBool:
		if ExtractUnsigned(buf, order) != 0 {
			return "true"
		}
		return "false"
	case TypeDataPtr, TypeCodePtr:
		return fmt.Sprintf("%#x", ExtractUnsigned(buf, order))
	case TypeFlags:
		return t.formatFlags(ExtractUnsigned(buf, order))
	case TypeVector:
		var out bytes.Buffer
		out.WriteString("{")
		for i := 0; i < t.Count; i++ {
			if i > 0 {
				out.WriteString(", ")
			}
			off := i * t.Target.Length
			out.WriteString(t.Target.FormatValue(buf[off:off+t.Target.Length], order))
		}
		out.WriteString("}")
		return out.String()
	case TypeUnion:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+" = "+f.Type.FormatValue(buf, order))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeInt:
		if t.Length > 8 {
			break
		}
		if t.Unsigned {
			return fmt.Sprintf("%#x", ExtractUnsigned(buf, order))
		}
		return fmt.Sprintf("%d", ExtractSigned(buf, order))
	}
	return rawHex(buf, order)
}

func (t *Type) formatFlags(v uint64) string {
	var set []string
	for _, f := range t.Flags {
		end := f.End
		if end < f.Start {
			end = f.Start
		}
		width := uint(end - f.Start + 1)
		fv := (v >> uint(f.Start)) & (1<<width - 1)
		if fv == 0 {
			continue
		}
		if width == 1 {
			set = append(set, f.Name)
		} else {
			set = append(set, fmt.Sprintf("%s=%d", f.Name, fv))
		}
	}
	return fmt.Sprintf("%#x\t[ %s ]", v, strings.Join(set, " "))
}

// rawHex prints buf as a single hexadecimal number, most significant byte
// first.
func rawHex(buf []byte, order binary.ByteOrder) string {
	var out bytes.Buffer
	out.WriteString("0x")
	if order == binary.LittleEndian {
		for i := len(buf) - 1; i >= 0; i-- {
			fmt.Fprintf(&out, "%02x", buf[i])
		}
	} else {
		for _, b := range buf {
			fmt.Fprintf(&out, "%02x", b)
		}
	}
	return out.String()
}
