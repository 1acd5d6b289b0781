package graph

import (
	"sort"
)

// MemoryStore is an in-memory arena implementation of Store.
//
// Triples are indexed entity→attribute→value and value→attribute→entity so
// that both "what does this carrier point at" and "which carriers point at
// this operation" are direct lookups.
type MemoryStore struct {
	eav      map[Symbol]map[Symbol]map[Symbol]struct{}
	vae      map[Symbol]map[Symbol]map[Symbol]struct{}
	data     map[Symbol]payload
	counters map[uint32]uint32
	triples  int
}

type payload struct {
	bytes  []byte
	length int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		eav:      make(map[Symbol]map[Symbol]map[Symbol]struct{}),
		vae:      make(map[Symbol]map[Symbol]map[Symbol]struct{}),
		data:     make(map[Symbol]payload),
		counters: map[uint32]uint32{MetaNamespace: FirstUserNamespace},
	}
}

// CreateSymbol implements Store.
func (m *MemoryStore) CreateSymbol(namespace uint32) Symbol {
	id := m.counters[namespace]
	m.counters[namespace] = id + 1
	return MakeSymbol(namespace, id)
}

// SetTriple implements Store.
func (m *MemoryStore) SetTriple(t Triple, linked bool) bool {
	if linked {
		if !insert(m.eav, t.Entity, t.Attribute, t.Value) {
			return false
		}
		insert(m.vae, t.Value, t.Attribute, t.Entity)
		m.triples++
		return true
	}
	if !remove(m.eav, t.Entity, t.Attribute, t.Value) {
		return false
	}
	remove(m.vae, t.Value, t.Attribute, t.Entity)
	m.triples--
	return true
}

// GetTriple implements Store.
func (m *MemoryStore) GetTriple(t Triple) bool {
	_, ok := m.eav[t.Entity][t.Attribute][t.Value]
	return ok
}

// QueryTriples implements Store.
func (m *MemoryStore) QueryTriples(mask QueryMask, pattern Triple) []Triple {
	out := make([]Triple, 0)
	switch {
	case mask[0] && mask[1]:
		for v := range m.eav[pattern.Entity][pattern.Attribute] {
			t := Triple{Entity: pattern.Entity, Attribute: pattern.Attribute, Value: v}
			if mask.Matches(pattern, t) {
				out = append(out, t)
			}
		}
	case mask[1] && mask[2]:
		for e := range m.vae[pattern.Value][pattern.Attribute] {
			out = append(out, Triple{Entity: e, Attribute: pattern.Attribute, Value: pattern.Value})
		}
	case mask[0]:
		for a, values := range m.eav[pattern.Entity] {
			for v := range values {
				t := Triple{Entity: pattern.Entity, Attribute: a, Value: v}
				if mask.Matches(pattern, t) {
					out = append(out, t)
				}
			}
		}
	case mask[2]:
		for a, entities := range m.vae[pattern.Value] {
			for e := range entities {
				out = append(out, Triple{Entity: e, Attribute: a, Value: pattern.Value})
			}
		}
	default:
		for e, attributes := range m.eav {
			for a, values := range attributes {
				for v := range values {
					t := Triple{Entity: e, Attribute: a, Value: v}
					if mask.Matches(pattern, t) {
						out = append(out, t)
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GetSolitary implements Store.
func (m *MemoryStore) GetSolitary(entity, attribute Symbol) Symbol {
	values := m.eav[entity][attribute]
	if len(values) != 1 {
		return 0
	}
	for v := range values {
		return v
	}
	return 0
}

// SetRawData implements Store.
func (m *MemoryStore) SetRawData(s Symbol, data []byte, length int) {
	if data == nil && length == 0 {
		delete(m.data, s)
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.data[s] = payload{bytes: buf, length: length}
}

// GetRawData implements Store.
func (m *MemoryStore) GetRawData(s Symbol) []byte {
	p, ok := m.data[s]
	if !ok {
		return nil
	}
	return p.bytes
}

// GetLength implements Store.
func (m *MemoryStore) GetLength(s Symbol) int {
	return m.data[s].length
}

// Len returns the number of triples.
func (m *MemoryStore) Len() int {
	return m.triples
}

func insert(index map[Symbol]map[Symbol]map[Symbol]struct{}, a, b, c Symbol) bool {
	level, ok := index[a]
	if !ok {
		level = make(map[Symbol]map[Symbol]struct{})
		index[a] = level
	}
	leaf, ok := level[b]
	if !ok {
		leaf = make(map[Symbol]struct{})
		level[b] = leaf
	}
	if _, exists := leaf[c]; exists {
		return false
	}
	leaf[c] = struct{}{}
	return true
}

func remove(index map[Symbol]map[Symbol]map[Symbol]struct{}, a, b, c Symbol) bool {
	leaf, ok := index[a][b]
	if !ok {
		return false
	}
	if _, exists := leaf[c]; !exists {
		return false
	}
	delete(leaf, c)
	if len(leaf) == 0 {
		delete(index[a], b)
		if len(index[a]) == 0 {
			delete(index, a)
		}
	}
	return true
}
