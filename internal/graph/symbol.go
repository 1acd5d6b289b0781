package graph

import (
	"fmt"
	"sort"
)

// Symbol identifies a node of the triple store.
//
// The upper 32 bits carry the namespace, the lower 32 bits the identity
// within that namespace. The zero Symbol is Void.
type Symbol uint64

// Reserved namespaces.
const (
	// VocabularyNamespace holds the predefined symbols (see package vocab).
	VocabularyNamespace uint32 = 0
	// IndexNamespace holds index symbols whose identity is the index itself.
	IndexNamespace uint32 = 1
	// MetaNamespace holds one symbol per allocated namespace.
	MetaNamespace uint32 = 2
	// FirstUserNamespace is the first namespace handed out by CreateNamespace.
	FirstUserNamespace uint32 = 3
)

// MakeSymbol composes a Symbol from its namespace and identity.
func MakeSymbol(namespace, identity uint32) Symbol {
	return Symbol(uint64(namespace)<<32 | uint64(identity))
}

// Namespace returns the namespace part of the symbol.
func (s Symbol) Namespace() uint32 {
	return uint32(s >> 32)
}

// Identity returns the identity part of the symbol.
func (s Symbol) Identity() uint32 {
	return uint32(s)
}

// String formats the symbol as "namespace:identity".
func (s Symbol) String() string {
	return fmt.Sprintf("%d:%d", s.Namespace(), s.Identity())
}

// SortSymbols sorts symbols in ascending order (namespace first).
func SortSymbols(symbols []Symbol) {
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
}

// Triple is an (entity, attribute, value) fact.
type Triple struct {
	Entity    Symbol
	Attribute Symbol
	Value     Symbol
}

// Less orders triples lexicographically.
func (t Triple) Less(o Triple) bool {
	if t.Entity != o.Entity {
		return t.Entity < o.Entity
	}
	if t.Attribute != o.Attribute {
		return t.Attribute < o.Attribute
	}
	return t.Value < o.Value
}

// QueryMask selects which positions of a pattern triple must match.
// A false position is varying and matches any symbol.
type QueryMask [3]bool

// Common masks, named by position (M = match, V = varying).
var (
	MaskMMM = QueryMask{true, true, true}
	MaskMMV = QueryMask{true, true, false}
	MaskMVM = QueryMask{true, false, true}
	MaskVMM = QueryMask{false, true, true}
	MaskMVV = QueryMask{true, false, false}
	MaskVMV = QueryMask{false, true, false}
	MaskVVM = QueryMask{false, false, true}
	MaskVVV = QueryMask{false, false, false}
)

// Matches reports whether t matches pattern under the mask.
func (m QueryMask) Matches(pattern, t Triple) bool {
	if m[0] && pattern.Entity != t.Entity {
		return false
	}
	if m[1] && pattern.Attribute != t.Attribute {
		return false
	}
	if m[2] && pattern.Value != t.Value {
		return false
	}
	return true
}
