package values

import (
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

func isScalarEncoding(encoding graph.Symbol) bool {
	switch encoding {
	case vocab.Void, vocab.BinaryNumber, vocab.TwosComplement, vocab.IEEE754, vocab.UTF8:
		return true
	}
	return false
}

// EncodingToType maps an encoding to its IR type.
//
// Scalar encodings need the payload length in bits (length >= 0).
// Anything else is read as a Composite descriptor:
//
//	SlotSize  bit width handed to Default (Dynamic is rejected)
//	Default   element encoding of homogeneous composites
//	Count     number of elements; absent means "pointer to element"
//	Vector    present: vector instead of array
//	Index(i)  member encodings of heterogeneous (packed struct) composites
func (b *Bridge) EncodingToType(encoding graph.Symbol, length int) (*llvm.Type, error) {
	if isScalarEncoding(encoding) {
		if length < 0 {
			return nil, fmt.Errorf("%w: %s needs a bit length", ErrMalformed, vocab.Describe(b.store, encoding))
		}
		switch encoding {
		case vocab.Void:
			return b.types.Void(), nil
		case vocab.BinaryNumber, vocab.TwosComplement:
			if length == 0 {
				return nil, fmt.Errorf("%w: zero-width integer", ErrMalformed)
			}
			return b.types.Int(length), nil
		case vocab.IEEE754:
			t, err := b.types.Float(length)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return t, nil
		case vocab.UTF8:
			return b.types.Array(length/8, b.types.Int(8)), nil
		}
	}

	slotSize := -1
	switch s := b.store.GetSolitary(encoding, vocab.SlotSize); s {
	case vocab.Void:
	case vocab.Dynamic:
		return nil, fmt.Errorf("%w: dynamic slot size is not supported", ErrMalformed)
	default:
		n, err := b.natural(s)
		if err != nil {
			return nil, fmt.Errorf("%w: slot size: %v", ErrMalformed, err)
		}
		slotSize = n
	}

	defaultEncoding := b.store.GetSolitary(encoding, vocab.Default)
	var elem *llvm.Type
	if defaultEncoding != vocab.Void {
		t, err := b.EncodingToType(defaultEncoding, slotSize)
		if err != nil {
			return nil, err
		}
		elem = t
	}

	countSymbol := b.store.GetSolitary(encoding, vocab.Count)
	switch countSymbol {
	case vocab.Dynamic:
		return nil, fmt.Errorf("%w: dynamic count is not supported", ErrMalformed)
	case vocab.Void:
		if elem == nil || elem.IsVoid() {
			return b.types.Pointer(b.types.Int(8)), nil
		}
		return b.types.Pointer(elem), nil
	}
	count, err := b.natural(countSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", ErrMalformed, err)
	}

	if elem != nil {
		switch {
		case b.store.GetSolitary(encoding, vocab.Vector) != vocab.Void:
			return b.types.Vector(count, elem), nil
		case count == 1:
			return elem, nil
		default:
			return b.types.Array(count, elem), nil
		}
	}

	members := make([]*llvm.Type, count)
	for i := 0; i < count; i++ {
		child := b.store.GetSolitary(encoding, vocab.Index(uint32(i)))
		if child == vocab.Void {
			return nil, fmt.Errorf("%w: composite member %d is missing", ErrMalformed, i)
		}
		t, err := b.EncodingToType(child, -1)
		if err != nil {
			return nil, err
		}
		members[i] = t
	}
	if count == 1 {
		return members[0], nil
	}
	return b.types.Struct(true, members...), nil
}

func (b *Bridge) symbolType() *llvm.Type {
	return b.types.Array(2, b.types.Int(32))
}
