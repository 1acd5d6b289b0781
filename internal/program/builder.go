package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Builder writes operator graphs into a store. Symbols it creates live in
// its own namespace.
type Builder struct {
	store     graph.Store
	namespace uint32
	operators map[string]graph.Symbol
	tags      map[string]graph.Symbol
	constants map[string]graph.Symbol
}

// NewBuilder creates a builder on a fresh namespace of store.
func NewBuilder(store graph.Store) *Builder {
	vocab.Bootstrap(store)
	return &Builder{
		store:     store,
		namespace: graph.CreateNamespace(store),
		operators: make(map[string]graph.Symbol),
		tags:      make(map[string]graph.Symbol),
		constants: make(map[string]graph.Symbol),
	}
}

// Store returns the underlying store.
func (b *Builder) Store() graph.Store { return b.store }

// Namespace returns the builder's namespace.
func (b *Builder) Namespace() uint32 { return b.namespace }

func (b *Builder) named(name string) graph.Symbol {
	sym := b.store.CreateSymbol(b.namespace)
	_ = vocab.SetData(b.store, sym, name)
	return sym
}

func (b *Builder) link(e, a, v graph.Symbol) {
	b.store.SetTriple(graph.Triple{Entity: e, Attribute: a, Value: v}, true)
}

// Operator returns the custom operator with the given name, creating it on
// first use.
func (b *Builder) Operator(name string) graph.Symbol {
	if sym, ok := b.operators[name]; ok {
		return sym
	}
	sym := b.named(name)
	b.link(sym, vocab.Type, vocab.Operator)
	b.operators[name] = sym
	return sym
}

// Resolve returns a predefined symbol or a custom operator by name.
func (b *Builder) Resolve(name string) (graph.Symbol, bool) {
	if sym, ok := vocab.Lookup(name); ok {
		return sym, true
	}
	sym, ok := b.operators[name]
	return sym, ok
}

// Tag returns the operand tag with the given name: a predefined tag, or a
// custom tag interned per builder.
func (b *Builder) Tag(name string) graph.Symbol {
	if sym, ok := vocab.Lookup(name); ok {
		return sym
	}
	if sym, ok := b.tags[name]; ok {
		return sym
	}
	sym := b.named(name)
	b.tags[name] = sym
	return sym
}

// Operation adds a named operation to operator.
func (b *Builder) Operation(operator graph.Symbol, name string) graph.Symbol {
	op := b.named(name)
	b.link(operator, vocab.Operation, op)
	return op
}

// Carrier connects operand srcTag of src to operand dstTag of dst. The
// operator symbol stands for its own inputs as a source and for its
// outputs as a destination.
func (b *Builder) Carrier(src, srcTag, dst, dstTag graph.Symbol) graph.Symbol {
	carrier := b.store.CreateSymbol(b.namespace)
	b.link(carrier, vocab.Type, vocab.Carrier)
	b.link(carrier, vocab.SourceOperat, src)
	b.link(carrier, vocab.SourceOperandTag, srcTag)
	b.link(carrier, vocab.DestinationOperat, dst)
	b.link(carrier, vocab.DestinationOperandTag, dstTag)
	return carrier
}

// ConstantCarrier binds operand dstTag of dst to a constant.
func (b *Builder) ConstantCarrier(value, dst, dstTag graph.Symbol) graph.Symbol {
	return b.Carrier(value, vocab.Constant, dst, dstTag)
}

// DeferredCarrier is a Carrier routed through a DeferEvaluation operation,
// which forces a constant operand to become a runtime value.
func (b *Builder) DeferredCarrier(operator, src, srcTag, dst, dstTag graph.Symbol) graph.Symbol {
	deferred := b.Operation(operator, "defer")
	b.ConstantCarrier(vocab.DeferEvaluation, deferred, vocab.Operator)
	b.Carrier(src, srcTag, deferred, vocab.Input)
	return b.Carrier(deferred, vocab.Output, dst, dstTag)
}

// Constant returns a symbol carrying v. Equal literals share a symbol.
func (b *Builder) Constant(v any) (graph.Symbol, error) {
	key := fmt.Sprintf("%T:%v", v, v)
	if sym, ok := b.constants[key]; ok {
		return sym, nil
	}
	sym := b.store.CreateSymbol(b.namespace)
	if err := vocab.SetData(b.store, sym, v); err != nil {
		return vocab.Void, err
	}
	b.constants[key] = sym
	return sym, nil
}

// Literal parses a constant written as kind:value, or a bare name.
//
//	u8 u16 u32 u64   naturals      "u32:17"
//	i8 i16 i32 i64   integers      "i32:-1"
//	f32 f64          floats        "f64:0.5"
//	bool             booleans      "bool:true"
//	str              UTF-8 text    "str:hello"
//	enc              descriptors   "enc:f64", "enc:bool"
//
// An enc literal is a Composite encoding descriptor as expected under the
// PlaceholderEncoding tag.
//
// A bare name resolves to a predefined symbol (e.g. Natural32) or a
// custom operator.
func (b *Builder) Literal(text string) (graph.Symbol, error) {
	kind, value, ok := strings.Cut(text, ":")
	if !ok {
		if sym, found := b.Resolve(text); found {
			return sym, nil
		}
		return vocab.Void, fmt.Errorf("unknown name %q", text)
	}
	if kind == "enc" {
		sym, err := b.descriptorLiteral(value)
		if err != nil {
			return vocab.Void, fmt.Errorf("literal %q: %w", text, err)
		}
		return sym, nil
	}
	v, err := parseLiteral(kind, value)
	if err != nil {
		return vocab.Void, fmt.Errorf("literal %q: %w", text, err)
	}
	return b.Constant(v)
}

func parseLiteral(kind, value string) (any, error) {
	switch kind {
	case "bool":
		return strconv.ParseBool(value)
	case "str":
		return value, nil
	case "f32":
		f, err := strconv.ParseFloat(value, 32)
		return float32(f), err
	case "f64":
		return strconv.ParseFloat(value, 64)
	}
	if len(kind) < 2 || (kind[0] != 'u' && kind[0] != 'i') {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	bits, err := strconv.Atoi(kind[1:])
	if err != nil || (bits != 8 && bits != 16 && bits != 32 && bits != 64) {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if kind[0] == 'u' {
		n, err := strconv.ParseUint(value, 0, bits)
		if err != nil {
			return nil, err
		}
		switch bits {
		case 8:
			return uint8(n), nil
		case 16:
			return uint16(n), nil
		case 32:
			return uint32(n), nil
		}
		return n, nil
	}
	n, err := strconv.ParseInt(value, 0, bits)
	if err != nil {
		return nil, err
	}
	switch bits {
	case 8:
		return int8(n), nil
	case 16:
		return int16(n), nil
	case 32:
		return int32(n), nil
	}
	return n, nil
}

// Descriptor returns the Composite encoding descriptor of count slots of
// slotSize bits in encoding. Equal descriptors share a symbol.
func (b *Builder) Descriptor(encoding graph.Symbol, slotSize, count int) (graph.Symbol, error) {
	key := fmt.Sprintf("enc:%s:%d:%d", encoding, slotSize, count)
	if sym, ok := b.constants[key]; ok {
		return sym, nil
	}
	size, err := b.number(slotSize)
	if err != nil {
		return vocab.Void, err
	}
	n, err := b.number(count)
	if err != nil {
		return vocab.Void, err
	}
	desc := b.store.CreateSymbol(b.namespace)
	b.link(desc, vocab.Type, vocab.Composite)
	b.link(desc, vocab.Default, encoding)
	b.link(desc, vocab.SlotSize, size)
	b.link(desc, vocab.Count, n)
	b.constants[key] = desc
	return desc, nil
}

var predefinedNumbers = map[int]graph.Symbol{
	0: vocab.Zero, 1: vocab.One, 2: vocab.Two, 4: vocab.Four, 8: vocab.Eight,
	16: vocab.Sixteen, 32: vocab.ThirtyTwo, 64: vocab.SixtyFour,
}

func (b *Builder) number(n int) (graph.Symbol, error) {
	if sym, ok := predefinedNumbers[n]; ok {
		return sym, nil
	}
	return b.Constant(uint32(n))
}

func (b *Builder) descriptorLiteral(kind string) (graph.Symbol, error) {
	if kind == "bool" {
		return b.Descriptor(vocab.BinaryNumber, 1, 1)
	}
	encodings := map[byte]graph.Symbol{'u': vocab.BinaryNumber, 'i': vocab.TwosComplement, 'f': vocab.IEEE754}
	if len(kind) < 2 {
		return vocab.Void, fmt.Errorf("unknown kind %q", kind)
	}
	encoding, ok := encodings[kind[0]]
	if !ok {
		return vocab.Void, fmt.Errorf("unknown kind %q", kind)
	}
	bits, err := strconv.Atoi(kind[1:])
	if err != nil || bits <= 0 {
		return vocab.Void, fmt.Errorf("unknown kind %q", kind)
	}
	return b.Descriptor(encoding, bits, 1)
}
