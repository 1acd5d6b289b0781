package engine

import (
	"github.com/Symatem/Compiler/internal/digest"
	"github.com/Symatem/Compiler/internal/graph"
)

// memoTable maps instance keys to instances. Lookups by hash verify the
// full key, so a hash collision yields a second instance instead of a
// wrong one.
type memoTable struct {
	byHash   map[string][]*Instance
	bySymbol map[graph.Symbol]*Instance
	order    []*Instance
}

func newMemoTable() *memoTable {
	return &memoTable{
		byHash:   make(map[string][]*Instance),
		bySymbol: make(map[graph.Symbol]*Instance),
	}
}

func (m *memoTable) lookup(hash string, key []digest.KeyEntry) *Instance {
	for _, inst := range m.byHash[hash] {
		if sameKey(inst.key, key) {
			return inst
		}
	}
	return nil
}

func (m *memoTable) add(inst *Instance) {
	m.byHash[inst.Hash] = append(m.byHash[inst.Hash], inst)
	m.bySymbol[inst.Symbol] = inst
	m.order = append(m.order, inst)
}

func (m *memoTable) all() []*Instance {
	out := make([]*Instance, len(m.order))
	copy(out, m.order)
	return out
}

func sameKey(a, b []digest.KeyEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// instanceKey lists the sorted (tag, operand, payload) entries of an input
// map, Operator included.
func instanceKey(store graph.Store, inputs graph.Operands) []digest.KeyEntry {
	key := make([]digest.KeyEntry, 0, len(inputs))
	for _, tag := range inputs.SortedTags() {
		op := inputs[tag]
		key = append(key, digest.KeyEntry{
			Tag:     tag,
			Operand: op,
			Data:    store.GetRawData(op),
			Length:  store.GetLength(op),
		})
	}
	return key
}
