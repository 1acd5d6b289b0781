package graph

import "sort"

// SymbolData is the persisted payload of one symbol.
type SymbolData struct {
	Symbol Symbol
	Data   []byte
	Length int
}

// Snapshot is a complete, ordered copy of a MemoryStore.
type Snapshot struct {
	Triples  []Triple
	Data     []SymbolData
	Counters map[uint32]uint32
}

// Snapshot copies the store contents in deterministic order.
func (m *MemoryStore) Snapshot() Snapshot {
	snap := Snapshot{
		Triples:  m.QueryTriples(MaskVVV, Triple{}),
		Data:     make([]SymbolData, 0, len(m.data)),
		Counters: make(map[uint32]uint32, len(m.counters)),
	}
	for s, p := range m.data {
		snap.Data = append(snap.Data, SymbolData{Symbol: s, Data: p.bytes, Length: p.length})
	}
	sort.Slice(snap.Data, func(i, j int) bool { return snap.Data[i].Symbol < snap.Data[j].Symbol })
	for ns, next := range m.counters {
		snap.Counters[ns] = next
	}
	return snap
}

// Restore builds a MemoryStore from a snapshot.
func Restore(snap Snapshot) *MemoryStore {
	m := NewMemoryStore()
	for _, t := range snap.Triples {
		m.SetTriple(t, true)
	}
	for _, d := range snap.Data {
		m.SetRawData(d.Symbol, d.Data, d.Length)
	}
	for ns, next := range snap.Counters {
		m.counters[ns] = next
	}
	return m
}
