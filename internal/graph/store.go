// Package graph provides the symbol/triple store the compiler reads
// operator definitions from and writes instance metadata to.
//
// The store is an interface so that the compiler never depends on a
// particular backend. MemoryStore is the arena implementation used by the
// CLI and tests; package store persists its snapshots to SQLite.
package graph

// Store is the triple store consumed by the compiler.
//
// Implementations are not required to be safe for concurrent use; the
// compiler is single-threaded.
type Store interface {
	// CreateSymbol allocates a fresh symbol in the namespace.
	CreateSymbol(namespace uint32) Symbol

	// SetTriple links (linked=true) or unlinks a triple and reports
	// whether the store changed.
	SetTriple(t Triple, linked bool) bool

	// GetTriple reports whether the triple exists.
	GetTriple(t Triple) bool

	// QueryTriples returns all triples matching pattern under mask,
	// sorted by (entity, attribute, value).
	QueryTriples(mask QueryMask, pattern Triple) []Triple

	// GetSolitary returns the single value of (entity, attribute, ?).
	// It returns Void when there is no such triple or more than one.
	GetSolitary(entity, attribute Symbol) Symbol

	// SetRawData replaces the payload of a symbol. length is in bits.
	SetRawData(s Symbol, data []byte, length int)

	// GetRawData returns the payload of a symbol, or nil.
	GetRawData(s Symbol) []byte

	// GetLength returns the payload length in bits.
	GetLength(s Symbol) int
}

// CreateNamespace allocates a new user namespace.
func CreateNamespace(s Store) uint32 {
	return s.CreateSymbol(MetaNamespace).Identity()
}

// Values returns the values of (entity, attribute, ?) in ascending order.
func Values(s Store, entity, attribute Symbol) []Symbol {
	triples := s.QueryTriples(MaskMMV, Triple{Entity: entity, Attribute: attribute})
	out := make([]Symbol, len(triples))
	for i, t := range triples {
		out[i] = t.Value
	}
	return out
}

// Entities returns the entities of (?, attribute, value) in ascending order.
func Entities(s Store, attribute, value Symbol) []Symbol {
	triples := s.QueryTriples(MaskVMM, Triple{Attribute: attribute, Value: value})
	out := make([]Symbol, len(triples))
	for i, t := range triples {
		out[i] = t.Entity
	}
	return out
}

// SetSolitary replaces every (entity, attribute, ?) triple by a single one.
// A Void value only removes.
func SetSolitary(s Store, entity, attribute, value Symbol) {
	for _, old := range Values(s, entity, attribute) {
		if old != value {
			s.SetTriple(Triple{Entity: entity, Attribute: attribute, Value: old}, false)
		}
	}
	if value != 0 {
		s.SetTriple(Triple{Entity: entity, Attribute: attribute, Value: value}, true)
	}
}
