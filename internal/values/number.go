package values

import (
	"encoding/hex"
	"math"
	"strconv"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Number is a scalar numeric constant of at most 64 bits as seen by the
// host during constant folding. Bits holds the raw pattern, already
// truncated to Width.
type Number struct {
	Encoding graph.Symbol
	Width    int
	Bits     uint64
}

// IntNumber creates a BinaryNumber or TwosComplement number, wrapping v to
// width bits.
func IntNumber(encoding graph.Symbol, width int, v uint64) Number {
	return Number{Encoding: encoding, Width: width, Bits: v & vocab.Mask(width)}
}

// FloatNumber creates an IEEE754 number of 32 or 64 bits.
func FloatNumber(width int, f float64) Number {
	if width == 32 {
		return Number{Encoding: vocab.IEEE754, Width: 32, Bits: uint64(math.Float32bits(float32(f)))}
	}
	return Number{Encoding: vocab.IEEE754, Width: 64, Bits: math.Float64bits(f)}
}

// IsFloat reports whether the number is IEEE754.
func (n Number) IsFloat() bool { return n.Encoding == vocab.IEEE754 }

// IsSigned reports whether the number is TwosComplement.
func (n Number) IsSigned() bool { return n.Encoding == vocab.TwosComplement }

// Uint returns the bits as an unsigned integer.
func (n Number) Uint() uint64 { return n.Bits & vocab.Mask(n.Width) }

// Int returns the bits sign-extended from Width.
func (n Number) Int() int64 { return vocab.SignExtend(n.Uint(), n.Width) }

// Float returns the IEEE754 value.
func (n Number) Float() float64 {
	if n.Width == 32 {
		return float64(math.Float32frombits(uint32(n.Bits)))
	}
	return math.Float64frombits(n.Bits)
}

// Bool reports whether any bit is set.
func (n Number) Bool() bool { return n.Uint() != 0 }

// Number decodes a numeric constant operand. ok is false for placeholders,
// bundles, non-numeric payloads, widths above 64 bits and floats other than
// 32 or 64 bits.
func (b *Bridge) Number(sym graph.Symbol) (Number, bool) {
	if b.IsPlaceholder(sym) || b.IsBundle(sym) {
		return Number{}, false
	}
	encoding := b.store.GetSolitary(sym, vocab.Encoding)
	width := b.store.GetLength(sym)
	switch encoding {
	case vocab.BinaryNumber, vocab.TwosComplement:
		if width == 0 || width > 64 {
			return Number{}, false
		}
	case vocab.IEEE754:
		if width != 32 && width != 64 {
			return Number{}, false
		}
	default:
		return Number{}, false
	}
	return Number{Encoding: encoding, Width: width, Bits: vocab.DecodeBits(b.store.GetRawData(sym), width)}, true
}

// Constant returns the symbol carrying n. Equal numbers share a symbol for
// the lifetime of the bridge, which keeps memo keys of folded results stable.
func (b *Bridge) Constant(n Number) graph.Symbol {
	return b.RawConstant(n.Encoding, vocab.EncodeBits(n.Bits, n.Width), n.Width)
}

// Boolean returns the interned 1-bit constant.
func (b *Bridge) Boolean(v bool) graph.Symbol {
	var bits uint64
	if v {
		bits = 1
	}
	return b.Constant(IntNumber(vocab.BinaryNumber, 1, bits))
}

// RawConstant returns the interned symbol with the given encoding and payload.
func (b *Bridge) RawConstant(encoding graph.Symbol, data []byte, width int) graph.Symbol {
	key := encoding.String() + "/" + hex.EncodeToString(data) + "/" + strconv.Itoa(width)
	if sym, ok := b.constants[key]; ok {
		return sym
	}
	sym := b.store.CreateSymbol(b.namespace)
	b.store.SetRawData(sym, data, width)
	graph.SetSolitary(b.store, sym, vocab.Encoding, encoding)
	b.constants[key] = sym
	return sym
}
