package vocab

import (
	"fmt"
	"math"

	"github.com/Symatem/Compiler/internal/graph"
)

// SetData stores a scalar payload on a symbol together with its Encoding
// triple. Supported values: nil, bool, sized integers, floats and strings.
func SetData(s graph.Store, sym graph.Symbol, value any) error {
	var (
		encoding graph.Symbol
		width    int
		bits     uint64
	)
	switch v := value.(type) {
	case nil:
		s.SetRawData(sym, nil, 0)
		graph.SetSolitary(s, sym, Encoding, Void)
		return nil
	case bool:
		encoding, width = BinaryNumber, 1
		if v {
			bits = 1
		}
	case uint8:
		encoding, width, bits = BinaryNumber, 8, uint64(v)
	case uint16:
		encoding, width, bits = BinaryNumber, 16, uint64(v)
	case uint32:
		encoding, width, bits = BinaryNumber, 32, uint64(v)
	case uint64:
		encoding, width, bits = BinaryNumber, 64, v
	case uint:
		encoding, width, bits = BinaryNumber, 64, uint64(v)
	case int8:
		encoding, width, bits = TwosComplement, 8, uint64(v)
	case int16:
		encoding, width, bits = TwosComplement, 16, uint64(v)
	case int32:
		encoding, width, bits = TwosComplement, 32, uint64(v)
	case int64:
		encoding, width, bits = TwosComplement, 64, uint64(v)
	case int:
		encoding, width, bits = TwosComplement, 64, uint64(v)
	case float32:
		encoding, width, bits = IEEE754, 32, uint64(math.Float32bits(v))
	case float64:
		encoding, width, bits = IEEE754, 64, math.Float64bits(v)
	case string:
		s.SetRawData(sym, []byte(v), len(v)*8)
		graph.SetSolitary(s, sym, Encoding, UTF8)
		return nil
	default:
		return fmt.Errorf("unsupported data type %T", value)
	}
	s.SetRawData(sym, EncodeBits(bits, width), width)
	graph.SetSolitary(s, sym, Encoding, encoding)
	return nil
}

// GetData decodes the payload of a symbol according to its Encoding.
//
// BinaryNumber of width 1 decodes to bool, other BinaryNumbers to uint64,
// TwosComplement to int64, IEEE754 to float64 and UTF8 to string. Payloads
// without a known scalar encoding are returned as raw bytes; a symbol
// without payload yields nil.
func GetData(s graph.Store, sym graph.Symbol) any {
	raw := s.GetRawData(sym)
	width := s.GetLength(sym)
	if raw == nil && width == 0 {
		return nil
	}
	switch s.GetSolitary(sym, Encoding) {
	case BinaryNumber:
		if width > 64 {
			return raw
		}
		if width == 1 {
			return DecodeBits(raw, 1) == 1
		}
		return DecodeBits(raw, width)
	case TwosComplement:
		if width > 64 {
			return raw
		}
		return SignExtend(DecodeBits(raw, width), width)
	case IEEE754:
		switch width {
		case 32:
			return float64(math.Float32frombits(uint32(DecodeBits(raw, 32))))
		case 64:
			return math.Float64frombits(DecodeBits(raw, 64))
		}
		return raw
	case UTF8:
		return string(raw)
	}
	return raw
}

// Describe renders a symbol for diagnostics: its predefined name, its
// decoded payload, or "namespace:identity".
func Describe(s graph.Store, sym graph.Symbol) string {
	if n := NameOf(sym); n != "" {
		return n
	}
	switch v := GetData(s, sym).(type) {
	case nil, []byte:
		return "(" + sym.String() + ")"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// EncodeBits stores the low width bits of v as little-endian bytes.
func EncodeBits(v uint64, width int) []byte {
	n := (width + 7) / 8
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n && i < 8; i++ {
		out[i] = byte(v >> (8 * i))
	}
	if width < 64 && width%8 != 0 {
		out[n-1] &= byte(1<<(width%8)) - 1
	}
	return out
}

// DecodeBits reads up to 64 little-endian bits.
func DecodeBits(raw []byte, width int) uint64 {
	var v uint64
	for i := 0; i < len(raw) && i < 8; i++ {
		v |= uint64(raw[i]) << (8 * i)
	}
	return v & Mask(width)
}

// ReadBits reads width bits starting at an arbitrary bit offset.
func ReadBits(raw []byte, offset, width int) uint64 {
	var v uint64
	for i := 0; i < width && i < 64; i++ {
		bit := offset + i
		if bit/8 >= len(raw) {
			break
		}
		if raw[bit/8]&(1<<(bit%8)) != 0 {
			v |= 1 << i
		}
	}
	return v
}

// Mask returns a mask of the low width bits.
func Mask(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << width) - 1
}

// SignExtend interprets the low width bits of v as a two's complement number.
func SignExtend(v uint64, width int) int64 {
	if width >= 64 || width <= 0 {
		return int64(v)
	}
	shift := 64 - width
	return int64(v<<shift) >> shift
}
