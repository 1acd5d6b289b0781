package values

import (
	"strings"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

// BundleOperands packs an operand map into a single OperandBundle symbol.
// Equal maps yield the same symbol.
func (b *Bridge) BundleOperands(operands graph.Operands) graph.Symbol {
	var key strings.Builder
	for _, tag := range operands.SortedTags() {
		key.WriteString(tag.String())
		key.WriteByte('=')
		key.WriteString(operands[tag].String())
		key.WriteByte(';')
	}
	if sym, ok := b.bundles[key.String()]; ok {
		return sym
	}
	bundle := b.store.CreateSymbol(b.namespace)
	b.store.SetTriple(graph.Triple{Entity: bundle, Attribute: vocab.Type, Value: vocab.OperandBundle}, true)
	for _, tag := range operands.SortedTags() {
		element := b.store.CreateSymbol(b.namespace)
		b.store.SetTriple(graph.Triple{Entity: bundle, Attribute: vocab.Element, Value: element}, true)
		b.store.SetTriple(graph.Triple{Entity: element, Attribute: vocab.OperandTag, Value: tag}, true)
		b.store.SetTriple(graph.Triple{Entity: element, Attribute: vocab.Operand, Value: operands[tag]}, true)
	}
	b.bundles[key.String()] = bundle
	return bundle
}

// UnbundleOperands returns the operand map packed in a bundle.
func (b *Bridge) UnbundleOperands(bundle graph.Symbol) graph.Operands {
	out := make(graph.Operands)
	for _, element := range graph.Values(b.store, bundle, vocab.Element) {
		out[b.store.GetSolitary(element, vocab.OperandTag)] = b.store.GetSolitary(element, vocab.Operand)
	}
	return out
}

// BuildBundle packs values into one IR value: void for none, the value
// itself for one, and an insertvalue chain over a literal struct otherwise.
func (b *Bridge) BuildBundle(block *llvm.BasicBlock, vals []llvm.Value) llvm.Value {
	switch len(vals) {
	case 0:
		return b.void
	case 1:
		return vals[0]
	}
	t := b.types.Struct(false, typesOf(vals)...)
	var acc llvm.Value = llvm.Undef(t)
	for i, v := range vals {
		next := llvm.NewRegister(t)
		block.Append(&llvm.InsertValue{Dest: next, Aggregate: acc, Element: v, Indices: []int{i}})
		acc = next
	}
	return acc
}

// BuildUnbundle is the inverse of BuildBundle: it returns the value a call
// should define so that extractvalue instructions appended to block define
// the given registers.
func (b *Bridge) BuildUnbundle(block *llvm.BasicBlock, vals []llvm.Value) llvm.Value {
	switch len(vals) {
	case 0:
		return b.void
	case 1:
		return vals[0]
	}
	bundle := llvm.NewRegister(b.types.Struct(false, typesOf(vals)...))
	for i, v := range vals {
		if r, ok := v.(*llvm.Register); ok {
			block.Append(&llvm.ExtractValue{Dest: r, Aggregate: bundle, Indices: []int{i}})
		}
	}
	return bundle
}
