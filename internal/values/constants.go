package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

// OperandConstant converts a constant operand to an IR constant.
func (b *Bridge) OperandConstant(sym graph.Symbol) (llvm.Value, error) {
	switch {
	case b.IsPlaceholder(sym):
		return nil, fmt.Errorf("%w: placeholder %s has no constant value", ErrUnsupported, sym)
	case b.IsBundle(sym):
		elements := b.UnbundleOperands(sym)
		vals := make([]llvm.Value, 0, len(elements))
		for _, tag := range elements.SortedTags() {
			c, err := b.OperandConstant(elements[tag])
			if err != nil {
				return nil, err
			}
			vals = append(vals, c)
		}
		switch len(vals) {
		case 0:
			return b.void, nil
		case 1:
			return vals[0], nil
		}
		return llvm.NewComposite(b.types.Struct(false, typesOf(vals)...), vals...), nil
	case b.IsSymbolConstant(sym):
		i32 := b.types.Int(32)
		return llvm.NewComposite(b.symbolType(),
			llvm.NewLiteral(i32, strconv.FormatUint(uint64(sym.Namespace()), 10)),
			llvm.NewLiteral(i32, strconv.FormatUint(uint64(sym.Identity()), 10)),
		), nil
	}

	encoding := b.store.GetSolitary(sym, vocab.Encoding)
	width := b.store.GetLength(sym)
	leaf := encoding
	var (
		t   *llvm.Type
		err error
	)
	if isScalarEncoding(encoding) {
		t, err = b.EncodingToType(encoding, width)
	} else {
		t, err = b.EncodingToType(encoding, -1)
		leaf = b.store.GetSolitary(encoding, vocab.Default)
	}
	if err != nil {
		return nil, err
	}
	return b.constantFromBits(t, leaf, b.store.GetRawData(sym), 0)
}

func (b *Bridge) constantFromBits(t *llvm.Type, leaf graph.Symbol, raw []byte, offset int) (llvm.Value, error) {
	switch t.Kind() {
	case llvm.VoidKind:
		return b.void, nil
	case llvm.IntegerKind:
		return llvm.NewLiteral(t, intLiteral(raw, offset, t.Width(), leaf == vocab.TwosComplement)), nil
	case llvm.FloatKind:
		switch t.Width() {
		case 16:
			return llvm.NewLiteral(t, fmt.Sprintf("0xH%04X", vocab.ReadBits(raw, offset, 16))), nil
		case 32:
			f := math.Float32frombits(uint32(vocab.ReadBits(raw, offset, 32)))
			return llvm.NewLiteral(t, FloatLiteral(float64(f))), nil
		case 64:
			return llvm.NewLiteral(t, FloatLiteral(math.Float64frombits(vocab.ReadBits(raw, offset, 64)))), nil
		}
		return nil, fmt.Errorf("%w: %s constants", ErrUnsupported, t)
	case llvm.ArrayKind, llvm.VectorKind:
		elem := t.Elem()
		if leaf == vocab.UTF8 && elem.Kind() == llvm.IntegerKind && elem.Width() == 8 && offset%8 == 0 {
			start := offset / 8
			end := start + t.Count()
			if end > len(raw) {
				end = len(raw)
			}
			data := make([]byte, t.Count())
			if start < end {
				copy(data, raw[start:end])
			}
			return llvm.NewText(t, data), nil
		}
		vals := make([]llvm.Value, t.Count())
		stride := elem.SizeInBits()
		for i := range vals {
			v, err := b.constantFromBits(elem, leaf, raw, offset+i*stride)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return llvm.NewComposite(t, vals...), nil
	case llvm.StructKind:
		vals := make([]llvm.Value, len(t.Fields()))
		pos := offset
		for i, f := range t.Fields() {
			v, err := b.constantFromBits(f, leaf, raw, pos)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			pos += f.SizeInBits()
		}
		return llvm.NewComposite(t, vals...), nil
	}
	return nil, fmt.Errorf("%w: %s constants", ErrUnsupported, t)
}

// NumberConstant converts a host number to an IR constant of type t.
func NumberConstant(t *llvm.Type, n Number) llvm.Value {
	if n.IsFloat() {
		return llvm.NewLiteral(t, FloatLiteral(n.Float()))
	}
	raw := vocab.EncodeBits(n.Bits, n.Width)
	return llvm.NewLiteral(t, intLiteral(raw, 0, n.Width, n.IsSigned()))
}

// FloatLiteral renders f in the hexadecimal double form LLVM accepts for
// every floating point type whose value is exactly representable.
func FloatLiteral(f float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(f))
}

func intLiteral(raw []byte, offset, width int, signed bool) string {
	if width == 1 {
		if vocab.ReadBits(raw, offset, 1) == 1 {
			return "true"
		}
		return "false"
	}
	if width <= 64 {
		bits := vocab.ReadBits(raw, offset, width)
		if signed {
			return strconv.FormatInt(vocab.SignExtend(bits, width), 10)
		}
		return strconv.FormatUint(bits, 10)
	}
	v := new(big.Int)
	for i := width - 1; i >= 0; i-- {
		v.Lsh(v, 1)
		if vocab.ReadBits(raw, offset+i, 1) == 1 {
			v.SetBit(v, 0, 1)
		}
	}
	if signed && v.Bit(width-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v.String()
}

func typesOf(vals []llvm.Value) []*llvm.Type {
	out := make([]*llvm.Type, len(vals))
	for i, v := range vals {
		out[i] = v.Type()
	}
	return out
}
