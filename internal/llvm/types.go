// Package llvm models the subset of LLVM IR the compiler emits and
// serializes it to textual form.
//
// Types, values and instructions are closed sets: every variant is defined
// in this package and sealed by unexported methods. Types are interned by a
// TypeCache owned by the compiler context, so two types built by the same
// cache are equal iff their pointers are equal.
package llvm

import (
	"fmt"
	"strings"
)

// TypeKind discriminates the Type variants.
type TypeKind uint8

// Type kinds.
const (
	VoidKind TypeKind = iota
	LabelKind
	MetadataKind
	IntegerKind
	FloatKind
	PointerKind
	VectorKind
	ArrayKind
	StructKind
	FunctionKind
)

// Type is an interned LLVM type.
type Type struct {
	kind   TypeKind
	width  int
	elem   *Type
	count  int
	fields []*Type
	packed bool
	params []*Type
	sig    string
}

// Kind returns the variant.
func (t *Type) Kind() TypeKind { return t.kind }

// Width returns the bit width of integer and floating point types.
func (t *Type) Width() int { return t.width }

// Elem returns the element type of pointers, vectors and arrays, and the
// return type of function types.
func (t *Type) Elem() *Type { return t.elem }

// Count returns the element count of vectors and arrays.
func (t *Type) Count() int { return t.count }

// Fields returns the members of a struct type.
func (t *Type) Fields() []*Type { return t.fields }

// Packed reports whether a struct type is packed.
func (t *Type) Packed() bool { return t.packed }

// Params returns the parameter types of a function type.
func (t *Type) Params() []*Type { return t.params }

// String returns the textual IR signature.
func (t *Type) String() string { return t.sig }

// IsVoid reports whether t is void.
func (t *Type) IsVoid() bool { return t.kind == VoidKind }

// IsInteger reports whether t is an integer type.
func (t *Type) IsInteger() bool { return t.kind == IntegerKind }

// IsFloat reports whether t is a floating point type.
func (t *Type) IsFloat() bool { return t.kind == FloatKind }

// IsPointer reports whether t is a pointer type.
func (t *Type) IsPointer() bool { return t.kind == PointerKind }

// SizeInBits returns the storage size of sized types, or 0.
func (t *Type) SizeInBits() int {
	switch t.kind {
	case IntegerKind, FloatKind:
		return t.width
	case PointerKind:
		return 64
	case VectorKind, ArrayKind:
		return t.count * t.elem.SizeInBits()
	case StructKind:
		size := 0
		for _, f := range t.fields {
			size += f.SizeInBits()
		}
		return size
	}
	return 0
}

var floatNames = map[int]string{
	16:  "half",
	32:  "float",
	64:  "double",
	80:  "x86_fp80",
	128: "fp128",
}

// TypeCache interns types by signature.
type TypeCache struct {
	types map[string]*Type
}

// NewTypeCache creates an empty cache.
func NewTypeCache() *TypeCache {
	return &TypeCache{types: make(map[string]*Type)}
}

// Len returns the number of distinct types interned so far.
func (c *TypeCache) Len() int {
	return len(c.types)
}

func (c *TypeCache) intern(t *Type) *Type {
	if existing, ok := c.types[t.sig]; ok {
		return existing
	}
	c.types[t.sig] = t
	return t
}

// Void returns the void type.
func (c *TypeCache) Void() *Type {
	return c.intern(&Type{kind: VoidKind, sig: "void"})
}

// Label returns the label type of basic blocks.
func (c *TypeCache) Label() *Type {
	return c.intern(&Type{kind: LabelKind, sig: "label"})
}

// Metadata returns the metadata type.
func (c *TypeCache) Metadata() *Type {
	return c.intern(&Type{kind: MetadataKind, sig: "metadata"})
}

// Int returns the integer type of the given bit width.
func (c *TypeCache) Int(width int) *Type {
	return c.intern(&Type{kind: IntegerKind, width: width, sig: fmt.Sprintf("i%d", width)})
}

// Float returns the floating point type of the given bit width.
func (c *TypeCache) Float(width int) (*Type, error) {
	name, ok := floatNames[width]
	if !ok {
		return nil, fmt.Errorf("no floating point type of %d bits", width)
	}
	return c.intern(&Type{kind: FloatKind, width: width, sig: name}), nil
}

// Pointer returns a pointer to elem.
func (c *TypeCache) Pointer(elem *Type) *Type {
	return c.intern(&Type{kind: PointerKind, elem: elem, sig: elem.sig + "*"})
}

// Vector returns <count x elem>.
func (c *TypeCache) Vector(count int, elem *Type) *Type {
	return c.intern(&Type{kind: VectorKind, elem: elem, count: count, sig: fmt.Sprintf("<%d x %s>", count, elem.sig)})
}

// Array returns [count x elem].
func (c *TypeCache) Array(count int, elem *Type) *Type {
	return c.intern(&Type{kind: ArrayKind, elem: elem, count: count, sig: fmt.Sprintf("[%d x %s]", count, elem.sig)})
}

// Struct returns a literal struct type.
func (c *TypeCache) Struct(packed bool, fields ...*Type) *Type {
	sig := "{" + joinTypes(fields) + "}"
	if packed {
		sig = "<" + sig + ">"
	}
	return c.intern(&Type{kind: StructKind, fields: fields, packed: packed, sig: sig})
}

// Function returns the function type ret (params...).
func (c *TypeCache) Function(ret *Type, params ...*Type) *Type {
	sig := ret.sig + " (" + joinTypes(params) + ")"
	return c.intern(&Type{kind: FunctionKind, elem: ret, params: params, sig: sig})
}

func joinTypes(types []*Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.sig
	}
	return strings.Join(parts, ", ")
}
