package values

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

type fixture struct {
	store  *graph.MemoryStore
	bridge *Bridge
	ns     uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := graph.NewMemoryStore()
	ns := graph.CreateNamespace(store)
	b, err := NewBridge(store, llvm.NewTypeCache(), ns)
	require.NoError(t, err)
	return &fixture{store: store, bridge: b, ns: ns}
}

func (f *fixture) constant(t *testing.T, v any) graph.Symbol {
	t.Helper()
	sym := f.store.CreateSymbol(f.ns)
	require.NoError(t, vocab.SetData(f.store, sym, v))
	return sym
}

func TestPredefinedPlaceholders(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		placeholder graph.Symbol
		want        string
	}{
		{vocab.Pointer, "i8*"},
		{vocab.Symbol, "[2 x i32]"},
		{vocab.Boolean, "i1"},
		{vocab.Natural32, "i32"},
		{vocab.Integer32, "i32"},
		{vocab.Float32, "float"},
		{vocab.Natural64, "i64"},
		{vocab.Integer64, "i64"},
		{vocab.Float64, "double"},
	}
	for _, tt := range tests {
		t.Run(vocab.NameOf(tt.placeholder), func(t *testing.T) {
			assert.True(t, f.bridge.IsPlaceholder(tt.placeholder))
			typ, err := f.bridge.PlaceholderType(tt.placeholder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.String())
		})
	}
	assert.Equal(t, len(tests), f.bridge.Placeholders())
}

func TestPlaceholderCache(t *testing.T) {
	f := newFixture(t)

	ph, typ, err := f.bridge.Placeholder(vocab.BinaryNumber, 32)
	require.NoError(t, err)
	assert.Equal(t, vocab.Natural32, ph)
	assert.Equal(t, "i32", typ.String())

	ph, _, err = f.bridge.Placeholder(vocab.TwosComplement, 32)
	require.NoError(t, err)
	assert.Equal(t, vocab.Integer32, ph, "signedness is part of the signature")

	ph16, typ16, err := f.bridge.Placeholder(vocab.BinaryNumber, 16)
	require.NoError(t, err)
	assert.Equal(t, "i16", typ16.String())
	again, _, err := f.bridge.Placeholder(vocab.BinaryNumber, 16)
	require.NoError(t, err)
	assert.Equal(t, ph16, again)

	roundTrip, err := f.bridge.PlaceholderType(ph16)
	require.NoError(t, err)
	assert.Same(t, typ16, roundTrip)
	assert.Equal(t, vocab.BinaryNumber, f.bridge.EncodingOf(ph16))
}

func TestBridgesDoNotShareCaches(t *testing.T) {
	store := graph.NewMemoryStore()
	a, err := NewBridge(store, llvm.NewTypeCache(), graph.CreateNamespace(store))
	require.NoError(t, err)
	b, err := NewBridge(store, llvm.NewTypeCache(), graph.CreateNamespace(store))
	require.NoError(t, err)

	pa, _, err := a.Placeholder(vocab.BinaryNumber, 8)
	require.NoError(t, err)
	pb, _, err := b.Placeholder(vocab.BinaryNumber, 8)
	require.NoError(t, err)
	assert.NotEqual(t, pa, pb)
	assert.Equal(t, vocab.Natural32, mustPlaceholder(t, b, vocab.BinaryNumber, 32), "predefined placeholders are shared")
}

func mustPlaceholder(t *testing.T, b *Bridge, encoding graph.Symbol, width int) graph.Symbol {
	t.Helper()
	ph, _, err := b.Placeholder(encoding, width)
	require.NoError(t, err)
	return ph
}

func TestToRuntimeValue(t *testing.T) {
	f := newFixture(t)
	five := f.constant(t, uint32(5))
	minus := f.constant(t, int32(-2))

	operands := graph.Operands{vocab.Input: five, vocab.OtherInput: minus}
	op, v, err := f.bridge.ToRuntimeValue(vocab.Input, operands, nil)
	require.NoError(t, err)
	assert.Equal(t, vocab.Natural32, op)
	assert.Equal(t, "i32", v.Type().String())
	assert.Equal(t, "5", v.(*llvm.Literal).Text)

	op, v, err = f.bridge.ToRuntimeValue(vocab.OtherInput, operands, nil)
	require.NoError(t, err)
	assert.Equal(t, vocab.Integer32, op)
	assert.Equal(t, "-2", v.(*llvm.Literal).Text)

	reg := llvm.NewRegister(f.bridge.Types().Int(32))
	op, v, err = f.bridge.ToRuntimeValue(vocab.Input, graph.Operands{vocab.Input: vocab.Natural32}, Values{vocab.Input: reg})
	require.NoError(t, err)
	assert.Equal(t, vocab.Natural32, op)
	assert.Same(t, reg, v)

	_, _, err = f.bridge.ToRuntimeValue(vocab.Comparand, operands, nil)
	assert.True(t, errors.Is(err, ErrMissingOperand))
}

func TestOperandConstant(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   any
		want string
		typ  string
	}{
		{"bool", true, "true", "i1"},
		{"natural", uint64(42), "42", "i64"},
		{"integer", int8(-1), "-1", "i8"},
		{"float", 1.0, "0x3FF0000000000000", "double"},
		{"float32", float32(0.5), "0x3FE0000000000000", "float"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.bridge.OperandConstant(f.constant(t, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.typ, c.Type().String())
			assert.Equal(t, tt.want, c.(*llvm.Literal).Text)
		})
	}

	text, err := f.bridge.OperandConstant(f.constant(t, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "[2 x i8]", text.Type().String())
	assert.Equal(t, []byte("hi"), text.(*llvm.Text).Data)

	bare := f.store.CreateSymbol(f.ns)
	assert.True(t, f.bridge.IsSymbolConstant(bare))
	sym, err := f.bridge.OperandConstant(bare)
	require.NoError(t, err)
	assert.Equal(t, "[2 x i32]", sym.Type().String())
	ph, err := f.bridge.PlaceholderOf(bare)
	require.NoError(t, err)
	assert.Equal(t, vocab.Symbol, ph)

	_, err = f.bridge.OperandConstant(vocab.Natural32)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestEncodingToType_Composite(t *testing.T) {
	f := newFixture(t)
	s := f.store
	link := func(e, a, v graph.Symbol) { s.SetTriple(graph.Triple{Entity: e, Attribute: a, Value: v}, true) }
	newDesc := func(def, slot, count graph.Symbol) graph.Symbol {
		d := s.CreateSymbol(f.ns)
		if def != vocab.Void {
			link(d, vocab.Default, def)
		}
		if slot != vocab.Void {
			link(d, vocab.SlotSize, slot)
		}
		if count != vocab.Void {
			link(d, vocab.Count, count)
		}
		return d
	}

	array := newDesc(vocab.BinaryNumber, vocab.Sixteen, vocab.Four)
	vector := newDesc(vocab.IEEE754, vocab.ThirtyTwo, vocab.Four)
	link(vector, vocab.Vector, vocab.Vector)
	pointer := newDesc(vocab.TwosComplement, vocab.SixtyFour, vocab.Void)
	single := newDesc(vocab.BinaryNumber, vocab.Eight, vocab.One)

	record := newDesc(vocab.Void, vocab.Void, vocab.Two)
	link(record, vocab.Index(0), single)
	link(record, vocab.Index(1), array)

	dynamicSize := newDesc(vocab.BinaryNumber, vocab.Dynamic, vocab.One)
	dynamicCount := newDesc(vocab.BinaryNumber, vocab.Eight, vocab.Dynamic)

	tests := []struct {
		name string
		desc graph.Symbol
		want string
	}{
		{"array", array, "[4 x i16]"},
		{"vector", vector, "<4 x float>"},
		{"pointer", pointer, "i64*"},
		{"single", single, "i8"},
		{"packed struct", record, "<{i8, [4 x i16]}>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := f.bridge.EncodingToType(tt.desc, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.String())
		})
	}

	_, err := f.bridge.EncodingToType(dynamicSize, -1)
	assert.True(t, errors.Is(err, ErrMalformed))
	_, err = f.bridge.EncodingToType(dynamicCount, -1)
	assert.True(t, errors.Is(err, ErrMalformed))
	_, err = f.bridge.EncodingToType(vocab.BinaryNumber, -1)
	assert.True(t, errors.Is(err, ErrMalformed))

	utf8, err := f.bridge.EncodingToType(vocab.UTF8, 40)
	require.NoError(t, err)
	assert.Equal(t, "[5 x i8]", utf8.String())
}

func TestBundleRoundTrip(t *testing.T) {
	f := newFixture(t)
	one := f.constant(t, uint32(1))

	cases := []graph.Operands{
		{},
		{vocab.Input: one},
		{vocab.Input: one, vocab.OtherInput: vocab.Natural32, vocab.Output: vocab.Boolean},
	}
	for _, m := range cases {
		bundle := f.bridge.BundleOperands(m)
		assert.True(t, f.bridge.IsBundle(bundle))
		if diff := cmp.Diff(m, f.bridge.UnbundleOperands(bundle)); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, bundle, f.bridge.BundleOperands(m.Clone()), "bundles are interned")
	}
}

func TestBundleValues(t *testing.T) {
	f := newFixture(t)
	one := f.constant(t, uint32(1))

	mixed := f.bridge.BundleOperands(graph.Operands{vocab.Input: vocab.Natural32, vocab.OtherInput: one})
	v, ok, err := f.bridge.OperandValue(mixed)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "i32", v.Type().String(), "a single runtime element passes through")

	ph, err := f.bridge.PlaceholderOf(mixed)
	require.NoError(t, err)
	assert.Equal(t, graph.Operands{vocab.Input: vocab.Natural32, vocab.OtherInput: vocab.Natural32}, f.bridge.UnbundleOperands(ph))

	both, ok, err := f.bridge.OperandValue(ph)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{i32, i32}", both.Type().String())

	constants := f.bridge.BundleOperands(graph.Operands{vocab.Input: one, vocab.OtherInput: one})
	_, ok, err = f.bridge.OperandValue(constants)
	require.NoError(t, err)
	assert.False(t, ok)
	c, err := f.bridge.OperandConstant(constants)
	require.NoError(t, err)
	assert.Equal(t, "{i32, i32}", c.Type().String())
}

func TestBuildBundle(t *testing.T) {
	f := newFixture(t)
	tc := f.bridge.Types()
	block := llvm.NewBasicBlock(tc, "")

	assert.True(t, f.bridge.BuildBundle(block, nil).Type().IsVoid())

	a := llvm.NewRegister(tc.Int(32))
	assert.Same(t, a, f.bridge.BuildBundle(block, []llvm.Value{a}))
	assert.Equal(t, 0, block.Len())

	b := llvm.NewRegister(tc.Int(1))
	bundle := f.bridge.BuildBundle(block, []llvm.Value{a, b})
	assert.Equal(t, "{i32, i1}", bundle.Type().String())
	assert.Equal(t, 2, block.Len())

	x, y := llvm.NewRegister(tc.Int(32)), llvm.NewRegister(tc.Int(1))
	unbundled := f.bridge.BuildUnbundle(block, []llvm.Value{x, y})
	assert.Equal(t, "{i32, i1}", unbundled.Type().String())
	require.Equal(t, 4, block.Len())
	assert.Same(t, x, block.Instructions[2].Result())
	assert.Same(t, y, block.Instructions[3].Result())
}

func TestNumbers(t *testing.T) {
	f := newFixture(t)

	n, ok := f.bridge.Number(f.constant(t, int16(-3)))
	require.True(t, ok)
	assert.Equal(t, int64(-3), n.Int())
	assert.Equal(t, uint64(0xFFFD), n.Uint())
	assert.True(t, n.IsSigned())

	_, ok = f.bridge.Number(vocab.Natural32)
	assert.False(t, ok)
	_, ok = f.bridge.Number(f.constant(t, "text"))
	assert.False(t, ok)

	a := f.bridge.Constant(IntNumber(vocab.BinaryNumber, 32, 5))
	b := f.bridge.Constant(IntNumber(vocab.BinaryNumber, 32, 5))
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(5), vocab.GetData(f.store, a))

	assert.Equal(t, true, vocab.GetData(f.store, f.bridge.Boolean(true)))
	assert.Equal(t, 0.25, FloatNumber(32, 0.25).Float())
	assert.Equal(t, uint64(0xFF), IntNumber(vocab.BinaryNumber, 8, 0x1FF).Uint())
}
