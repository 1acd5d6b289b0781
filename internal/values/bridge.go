// Package values converts between graph operands and IR values.
//
// A constant operand carries its payload in the graph and becomes an IR
// constant when it is used at runtime. A TypedPlaceholder operand stands for
// a value only known at runtime and becomes an SSA register. The Bridge owns
// the caches that keep these conversions canonical for one compiler context:
// one placeholder per encoding signature, one bundle symbol per distinct
// operand map, one symbol per folded constant.
package values

import (
	"errors"
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Sentinel errors. The engine maps them to compile error codes.
var (
	ErrMissingOperand = errors.New("missing operand")
	ErrMalformed      = errors.New("malformed encoding")
	ErrUnsupported    = errors.New("unsupported operand")
)

// Values maps an operand tag to the IR value carrying it at runtime.
type Values map[graph.Symbol]llvm.Value

// SortedTags returns the tags in ascending order.
func (v Values) SortedTags() []graph.Symbol {
	tags := make([]graph.Symbol, 0, len(v))
	for tag := range v {
		tags = append(tags, tag)
	}
	graph.SortSymbols(tags)
	return tags
}

// Sorted returns the values ordered by tag, skipping the given tags.
func (v Values) Sorted(skip ...graph.Symbol) []llvm.Value {
	out := make([]llvm.Value, 0, len(v))
	for _, tag := range v.SortedTags() {
		if containsSymbol(skip, tag) {
			continue
		}
		out = append(out, v[tag])
	}
	return out
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	c := make(Values, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// Bridge converts operands to IR values for one compiler context.
type Bridge struct {
	store        graph.Store
	types        *llvm.TypeCache
	namespace    uint32
	void         llvm.Value
	placeholders map[string]graph.Symbol
	bundles      map[string]graph.Symbol
	constants    map[string]graph.Symbol
}

type predefinedPlaceholder struct {
	symbol, encoding, slotSize, count graph.Symbol
}

var predefined = []predefinedPlaceholder{
	{vocab.Pointer, vocab.BinaryNumber, vocab.Eight, vocab.Void},
	{vocab.Symbol, vocab.BinaryNumber, vocab.ThirtyTwo, vocab.Two},
	{vocab.Boolean, vocab.BinaryNumber, vocab.One, vocab.One},
	{vocab.Natural32, vocab.BinaryNumber, vocab.ThirtyTwo, vocab.One},
	{vocab.Integer32, vocab.TwosComplement, vocab.ThirtyTwo, vocab.One},
	{vocab.Float32, vocab.IEEE754, vocab.ThirtyTwo, vocab.One},
	{vocab.Natural64, vocab.BinaryNumber, vocab.SixtyFour, vocab.One},
	{vocab.Integer64, vocab.TwosComplement, vocab.SixtyFour, vocab.One},
	{vocab.Float64, vocab.IEEE754, vocab.SixtyFour, vocab.One},
}

// NewBridge creates a bridge allocating its symbols in namespace and
// registers the predefined placeholders in the store.
func NewBridge(store graph.Store, types *llvm.TypeCache, namespace uint32) (*Bridge, error) {
	vocab.Bootstrap(store)
	b := &Bridge{
		store:        store,
		types:        types,
		namespace:    namespace,
		void:         llvm.NewLiteral(types.Void(), ""),
		placeholders: make(map[string]graph.Symbol),
		bundles:      make(map[string]graph.Symbol),
		constants:    make(map[string]graph.Symbol),
	}
	for _, p := range predefined {
		desc := store.GetSolitary(p.symbol, vocab.PlaceholderEncoding)
		if desc == vocab.Void {
			desc = b.describe(p.encoding, p.slotSize, p.count)
			store.SetTriple(graph.Triple{Entity: p.symbol, Attribute: vocab.PlaceholderEncoding, Value: desc}, true)
		}
		store.SetTriple(graph.Triple{Entity: p.symbol, Attribute: vocab.Type, Value: vocab.TypedPlaceholder}, true)
		t, err := b.EncodingToType(desc, -1)
		if err != nil {
			return nil, fmt.Errorf("predefined placeholder %s: %w", vocab.NameOf(p.symbol), err)
		}
		b.placeholders[signature(p.encoding, t)] = p.symbol
	}
	return b, nil
}

// Store returns the underlying graph store.
func (b *Bridge) Store() graph.Store { return b.store }

// Types returns the context-owned type cache.
func (b *Bridge) Types() *llvm.TypeCache { return b.types }

// Void returns the void IR value.
func (b *Bridge) Void() llvm.Value { return b.void }

// Placeholders returns the number of distinct placeholders known.
func (b *Bridge) Placeholders() int { return len(b.placeholders) }

// describe creates a Composite encoding descriptor.
func (b *Bridge) describe(encoding, slotSize, count graph.Symbol) graph.Symbol {
	desc := b.store.CreateSymbol(b.namespace)
	b.store.SetTriple(graph.Triple{Entity: desc, Attribute: vocab.Type, Value: vocab.Composite}, true)
	b.store.SetTriple(graph.Triple{Entity: desc, Attribute: vocab.Default, Value: encoding}, true)
	b.store.SetTriple(graph.Triple{Entity: desc, Attribute: vocab.SlotSize, Value: slotSize}, true)
	if count != vocab.Void {
		b.store.SetTriple(graph.Triple{Entity: desc, Attribute: vocab.Count, Value: count}, true)
	}
	return desc
}

// signature keys the placeholder cache. The IR type alone cannot tell a
// natural from an integer, so the numeric encoding is part of the key.
func signature(encoding graph.Symbol, t *llvm.Type) string {
	return encoding.String() + ":" + t.String()
}

// IsPlaceholder reports whether sym is a TypedPlaceholder.
func (b *Bridge) IsPlaceholder(sym graph.Symbol) bool {
	return b.store.GetTriple(graph.Triple{Entity: sym, Attribute: vocab.Type, Value: vocab.TypedPlaceholder})
}

// IsBundle reports whether sym is an OperandBundle.
func (b *Bridge) IsBundle(sym graph.Symbol) bool {
	return b.store.GetTriple(graph.Triple{Entity: sym, Attribute: vocab.Type, Value: vocab.OperandBundle})
}

// IsSymbolConstant reports whether sym carries no payload and is therefore
// passed around as its own identity.
func (b *Bridge) IsSymbolConstant(sym graph.Symbol) bool {
	return b.store.GetSolitary(sym, vocab.Encoding) == vocab.Void && b.store.GetLength(sym) == 0 &&
		!b.IsPlaceholder(sym) && !b.IsBundle(sym)
}

// EncodingOf returns the scalar encoding of an operand: the Default of a
// placeholder's descriptor, or the Encoding of a constant.
func (b *Bridge) EncodingOf(sym graph.Symbol) graph.Symbol {
	if b.IsPlaceholder(sym) {
		return b.store.GetSolitary(b.store.GetSolitary(sym, vocab.PlaceholderEncoding), vocab.Default)
	}
	return b.store.GetSolitary(sym, vocab.Encoding)
}

// Placeholder returns the canonical placeholder of a scalar encoding and
// bit width, creating it on first use.
func (b *Bridge) Placeholder(encoding graph.Symbol, width int) (graph.Symbol, *llvm.Type, error) {
	t, err := b.EncodingToType(encoding, width)
	if err != nil {
		return vocab.Void, nil, err
	}
	key := signature(encoding, t)
	if ph, ok := b.placeholders[key]; ok {
		return ph, t, nil
	}
	ph := b.store.CreateSymbol(b.namespace)
	desc := b.describe(encoding, b.sizeSymbol(width), vocab.One)
	b.store.SetTriple(graph.Triple{Entity: ph, Attribute: vocab.Type, Value: vocab.TypedPlaceholder}, true)
	b.store.SetTriple(graph.Triple{Entity: ph, Attribute: vocab.PlaceholderEncoding, Value: desc}, true)
	b.placeholders[key] = ph
	return ph, t, nil
}

// PlaceholderForDescriptor resolves a Composite descriptor (Default +
// SlotSize) to its scalar placeholder.
func (b *Bridge) PlaceholderForDescriptor(desc graph.Symbol) (graph.Symbol, *llvm.Type, error) {
	encoding := b.store.GetSolitary(desc, vocab.Default)
	size, err := b.natural(b.store.GetSolitary(desc, vocab.SlotSize))
	if err != nil {
		return vocab.Void, nil, fmt.Errorf("%w: slot size: %v", ErrMalformed, err)
	}
	return b.Placeholder(encoding, size)
}

// PlaceholderOf returns the placeholder an operand turns into once its
// value is only known at runtime.
func (b *Bridge) PlaceholderOf(sym graph.Symbol) (graph.Symbol, error) {
	switch {
	case b.IsPlaceholder(sym):
		return sym, nil
	case b.IsBundle(sym):
		elements := b.UnbundleOperands(sym)
		for tag, op := range elements {
			ph, err := b.PlaceholderOf(op)
			if err != nil {
				return vocab.Void, err
			}
			elements[tag] = ph
		}
		return b.BundleOperands(elements), nil
	case b.IsSymbolConstant(sym):
		return vocab.Symbol, nil
	}
	ph, _, err := b.Placeholder(b.store.GetSolitary(sym, vocab.Encoding), b.store.GetLength(sym))
	return ph, err
}

// PlaceholderType returns the IR type of a placeholder.
func (b *Bridge) PlaceholderType(ph graph.Symbol) (*llvm.Type, error) {
	desc := b.store.GetSolitary(ph, vocab.PlaceholderEncoding)
	if desc == vocab.Void {
		return nil, fmt.Errorf("%w: placeholder %s has no PlaceholderEncoding", ErrMalformed, ph)
	}
	return b.EncodingToType(desc, -1)
}

func (b *Bridge) sizeSymbol(width int) graph.Symbol {
	for _, s := range []graph.Symbol{vocab.Zero, vocab.One, vocab.Two, vocab.Four, vocab.Eight, vocab.Sixteen, vocab.ThirtyTwo, vocab.SixtyFour} {
		if n, err := b.natural(s); err == nil && n == width {
			return s
		}
	}
	return b.Constant(IntNumber(vocab.BinaryNumber, 32, uint64(width)))
}

// natural decodes a non-negative integer payload.
func (b *Bridge) natural(sym graph.Symbol) (int, error) {
	switch v := vocab.GetData(b.store, sym).(type) {
	case uint64:
		return int(v), nil
	case int64:
		if v >= 0 {
			return int(v), nil
		}
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("symbol %s is not a natural number", vocab.Describe(b.store, sym))
}

// ToRuntimeValue resolves an operand for use in emitted code. A recorded
// runtime value wins; otherwise the constant payload becomes an IR constant
// and the returned operand is the placeholder of its encoding.
func (b *Bridge) ToRuntimeValue(tag graph.Symbol, operands graph.Operands, runtime Values) (graph.Symbol, llvm.Value, error) {
	operand, ok := operands[tag]
	if v, has := runtime[tag]; has {
		return operand, v, nil
	}
	if !ok {
		return vocab.Void, nil, fmt.Errorf("%w: expected input operand %s", ErrMissingOperand, vocab.Describe(b.store, tag))
	}
	constant, err := b.OperandConstant(operand)
	if err != nil {
		return vocab.Void, nil, err
	}
	ph, err := b.PlaceholderOf(operand)
	if err != nil {
		return vocab.Void, nil, err
	}
	return ph, constant, nil
}

// OperandType returns the IR type an operand has at runtime.
func (b *Bridge) OperandType(sym graph.Symbol) (*llvm.Type, error) {
	switch {
	case b.IsPlaceholder(sym):
		return b.PlaceholderType(sym)
	case b.IsBundle(sym):
		v, ok, err := b.OperandValue(sym)
		if err != nil {
			return nil, err
		}
		if ok {
			return v.Type(), nil
		}
		c, err := b.OperandConstant(sym)
		if err != nil {
			return nil, err
		}
		return c.Type(), nil
	case b.IsSymbolConstant(sym):
		return b.symbolType(), nil
	}
	if b.store.GetTriple(graph.Triple{Entity: sym, Attribute: vocab.Type, Value: vocab.OperatorInstance}) {
		return nil, fmt.Errorf("%w: operator instance %s used as a value", ErrUnsupported, sym)
	}
	return b.EncodingToType(b.store.GetSolitary(sym, vocab.Encoding), b.store.GetLength(sym))
}

// OperandValue returns a fresh register for an operand only known at
// runtime. Constants yield ok=false. A bundle yields one register for all
// of its runtime elements.
func (b *Bridge) OperandValue(sym graph.Symbol) (llvm.Value, bool, error) {
	if b.IsPlaceholder(sym) {
		t, err := b.PlaceholderType(sym)
		if err != nil {
			return nil, false, err
		}
		return llvm.NewRegister(t), true, nil
	}
	if !b.IsBundle(sym) {
		return nil, false, nil
	}
	elements := b.UnbundleOperands(sym)
	var fields []*llvm.Type
	var single llvm.Value
	for _, tag := range elements.SortedTags() {
		v, ok, err := b.OperandValue(elements[tag])
		if err != nil {
			return nil, false, err
		}
		if ok {
			fields = append(fields, v.Type())
			single = v
		}
	}
	switch len(fields) {
	case 0:
		return nil, false, nil
	case 1:
		return single, true, nil
	}
	return llvm.NewRegister(b.types.Struct(false, fields...)), true, nil
}

// OperandsToValues creates registers for every runtime operand.
func (b *Bridge) OperandsToValues(operands graph.Operands) (Values, error) {
	out := make(Values)
	for _, tag := range operands.SortedTags() {
		v, ok, err := b.OperandValue(operands[tag])
		if err != nil {
			return nil, fmt.Errorf("operand %s: %w", vocab.Describe(b.store, tag), err)
		}
		if ok {
			out[tag] = v
		}
	}
	return out, nil
}

func containsSymbol(list []graph.Symbol, s graph.Symbol) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
