package llvm

import (
	"testing"

	"github.com/llir/llvm/ir/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCache_Interning(t *testing.T) {
	tc := NewTypeCache()

	assert.Same(t, tc.Int(32), tc.Int(32))
	assert.NotSame(t, tc.Int(32), tc.Int(64))

	f32, err := tc.Float(32)
	require.NoError(t, err)
	_, err = tc.Float(24)
	assert.Error(t, err)

	tests := []struct {
		typ  *Type
		want string
	}{
		{tc.Void(), "void"},
		{tc.Int(1), "i1"},
		{f32, "float"},
		{tc.Pointer(tc.Int(8)), "i8*"},
		{tc.Vector(4, tc.Int(32)), "<4 x i32>"},
		{tc.Array(2, tc.Int(32)), "[2 x i32]"},
		{tc.Struct(false, tc.Int(32), f32), "{i32, float}"},
		{tc.Struct(true, tc.Int(8), tc.Int(16)), "<{i8, i16}>"},
		{tc.Struct(false), "{}"},
		{tc.Function(tc.Int(32), tc.Int(32), tc.Pointer(tc.Int(8))), "i32 (i32, i8*)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}

	assert.Same(t, tc.Struct(false, tc.Int(32), f32), tc.Struct(false, tc.Int(32), f32))
	assert.Equal(t, 64, tc.Array(2, tc.Int(32)).SizeInBits())
}

func TestTypeCache_Isolated(t *testing.T) {
	a, b := NewTypeCache(), NewTypeCache()
	assert.NotSame(t, a.Int(32), b.Int(32), "caches never share state")
	assert.Equal(t, a.Int(32).String(), b.Int(32).String())
}

func TestFunctionDefinition(t *testing.T) {
	tc := NewTypeCache()
	i32 := tc.Int(32)

	param := NewRegister(i32)
	entry := NewBasicBlock(tc, "")
	sum := NewRegister(i32)
	entry.Append(
		&Binary{Dest: sum, Op: "add", X: param, Y: NewLiteral(i32, "3")},
		&Ret{Value: sum},
	)
	f := NewFunction(tc.Function(i32, i32), "Addition", []*Register{param}, entry)
	f.Attributes = []string{"alwaysinline"}

	got, err := f.Definition()
	require.NoError(t, err)
	assert.Equal(t, "define i32 @Addition(i32 %0) alwaysinline {\n"+
		"  %2 = add i32 %0, 3\n"+
		"  ret i32 %2\n"+
		"}\n", got)
}

func TestFunctionDefinition_Blocks(t *testing.T) {
	tc := NewTypeCache()
	i1, i32 := tc.Int(1), tc.Int(32)

	cond := NewRegister(i1)
	x := NewRegister(i32)
	entry := NewBasicBlock(tc, "")
	then := NewBasicBlock(tc, "")
	otherwise := NewBasicBlock(tc, "")
	exit := NewBasicBlock(tc, "")

	entry.Append(&CondBr{Cond: cond, True: then, False: otherwise})
	doubled := NewRegister(i32)
	then.Append(&Binary{Dest: doubled, Op: "shl", X: x, Y: NewLiteral(i32, "1")}, &Br{Target: exit})
	otherwise.Append(&Br{Target: exit})
	merged := NewRegister(i32)
	exit.Append(
		&Phi{Dest: merged, Incoming: []Incoming{{doubled, then}, {x, otherwise}}},
		&Ret{Value: merged},
	)

	f := NewFunction(tc.Function(i32, i1, i32), "select", []*Register{cond, x}, entry, then, otherwise, exit)
	f.Linkage = enum.LinkagePrivate

	got, err := f.Definition()
	require.NoError(t, err)
	assert.Equal(t, "define private i32 @select(i1 %0, i32 %1) {\n"+
		"  br i1 %0, label %3, label %5\n"+
		"\n3:\n"+
		"  %4 = shl i32 %1, 1\n"+
		"  br label %6\n"+
		"\n5:\n"+
		"  br label %6\n"+
		"\n6:\n"+
		"  %7 = phi i32 [ %4, %3 ], [ %1, %5 ]\n"+
		"  ret i32 %7\n"+
		"}\n", got)
}

func TestFunctionDefinition_VoidResultsAreNotNumbered(t *testing.T) {
	tc := NewTypeCache()
	i32 := tc.Int(32)
	ptr := NewRegister(tc.Pointer(i32))

	callee := NewFunction(tc.Function(tc.Void()), "sink", nil)
	entry := NewBasicBlock(tc, "")
	loaded := NewRegister(i32)
	entry.Append(
		&Call{Dest: NewRegister(tc.Void()), Callee: callee},
		&Load{Dest: loaded, Address: ptr},
		&Store{Value: loaded, Address: ptr},
		&Ret{},
	)
	f := NewFunction(tc.Function(tc.Void(), ptr.Type()), "copy", []*Register{ptr}, entry)

	got, err := f.Definition()
	require.NoError(t, err)
	assert.Equal(t, "define void @copy(i32* %0) {\n"+
		"  call void @sink()\n"+
		"  %2 = load i32, i32* %0\n"+
		"  store i32 %2, i32* %0\n"+
		"  ret void\n"+
		"}\n", got)
}

func TestBasicBlock_Validate(t *testing.T) {
	tc := NewTypeCache()

	b := NewBasicBlock(tc, "body")
	b.Append(&Ret{}, &Unreachable{})
	assert.Error(t, b.Validate(), "terminator in the middle")

	empty := NewBasicBlock(tc, "empty")
	assert.Error(t, empty.Validate())

	ok := NewBasicBlock(tc, "ok")
	ok.Append(&Unreachable{})
	assert.NoError(t, ok.Validate())

	f := NewFunction(tc.Function(tc.Void()), "broken", nil, b)
	_, err := f.Definition()
	assert.Error(t, err)
}

func TestBasicBlock_Insert(t *testing.T) {
	tc := NewTypeCache()
	b := NewBasicBlock(tc, "")
	first, last := &Unreachable{}, &Ret{}
	b.Append(last)
	b.Insert(0, first)
	require.Equal(t, 2, b.Len())
	assert.Same(t, first, b.Instructions[0])
}

func TestInstructionFormats(t *testing.T) {
	tc := NewTypeCache()
	i8, i32 := tc.Int(8), tc.Int(32)
	f32, _ := tc.Float(32)
	pair := tc.Struct(false, i32, i32)

	a := NewNamedRegister(i32, "a")
	v := NewNamedRegister(tc.Vector(4, i32), "v")
	agg := NewNamedRegister(pair, "agg")
	block := NewBasicBlock(tc, "target")
	n := &namer{registers: map[*Register]string{}, blocks: map[*BasicBlock]string{}}

	tests := []struct {
		inst Instruction
		want string
	}{
		{&Compare{Dest: NewRegister(tc.Int(1)), Predicate: enum.IPredULT.String(), X: a, Y: NewLiteral(i32, "2")}, "icmp ult i32 %a, 2"},
		{&Compare{Dest: NewRegister(tc.Int(1)), Float: true, Predicate: enum.FPredOEQ.String(), X: NewLiteral(f32, "0x3FF0000000000000"), Y: NewLiteral(f32, "0x0000000000000000")}, "fcmp oeq float 0x3FF0000000000000, 0x0000000000000000"},
		{&Cast{Dest: NewRegister(f32), Op: "bitcast", From: a}, "bitcast i32 %a to float"},
		{&Alloca{Dest: NewRegister(tc.Pointer(i8)), Elem: i8, Count: a}, "alloca i8, i32 %a"},
		{&ExtractValue{Dest: NewRegister(i32), Aggregate: agg, Indices: []int{1}}, "extractvalue {i32, i32} %agg, 1"},
		{&InsertValue{Dest: NewRegister(pair), Aggregate: Undef(pair), Element: a, Indices: []int{0}}, "insertvalue {i32, i32} undef, i32 %a, 0"},
		{&ExtractElement{Dest: NewRegister(i32), Vector: v, Index: NewLiteral(i32, "0")}, "extractelement <4 x i32> %v, i32 0"},
		{&Select{Dest: NewRegister(i32), Cond: NewLiteral(tc.Int(1), "true"), X: a, Y: a}, "select i1 true, i32 %a, i32 %a"},
		{&Br{Target: block}, "br label %target"},
		{&Switch{Cond: a, Default: block, Cases: []SwitchCase{{NewLiteral(i32, "1"), block}}}, "switch i32 %a, label %target [ i32 1, label %target ]"},
		{&GetElementPtr{Dest: NewRegister(tc.Pointer(i8)), Elem: i8, Base: NewNamedRegister(tc.Pointer(i8), "p"), Indices: []Value{a}, InBounds: true}, "getelementptr inbounds i8, i8* %p, i32 %a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.inst.format(n))
	}

	assert.True(t, IsTerminator(&Br{Target: block}))
	assert.False(t, IsTerminator(&Binary{}))
}

func TestConstants(t *testing.T) {
	tc := NewTypeCache()
	i32 := tc.Int(32)
	n := &namer{}

	text := NewText(tc.Array(3, tc.Int(8)), []byte("a\"\n"))
	assert.Equal(t, `c"a\22\0A"`, text.ref(n))

	arr := NewComposite(tc.Array(2, i32), NewLiteral(i32, "1"), NewLiteral(i32, "2"))
	assert.Equal(t, "[i32 1, i32 2]", arr.ref(n))

	st := NewComposite(tc.Struct(false, i32, i32), NewLiteral(i32, "1"), NewLiteral(i32, "2"))
	assert.Equal(t, "{i32 1, i32 2}", st.ref(n))
}

func TestQuoteName(t *testing.T) {
	assert.Equal(t, "Fib", quoteName("Fib"))
	assert.Equal(t, "_1_2", quoteName("_1_2"))
	assert.Equal(t, `"fib number"`, quoteName("fib number"))
	assert.Equal(t, `"9lives"`, quoteName("9lives"))
	assert.Equal(t, `"\C3\A9"`, quoteName("é"))
}

func TestModuleSerialize(t *testing.T) {
	tc := NewTypeCache()
	i32 := tc.Int(32)

	m := NewModule()
	out, err := m.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "", out)

	entry := NewBasicBlock(tc, "")
	entry.Append(&Ret{Value: NewLiteral(i32, "7")})
	f := NewFunction(tc.Function(i32), "seven", nil, entry)
	m.AddFunction(f)
	m.AddAlias(&Alias{Name: "lucky", Aliasee: f})
	m.Identity = "symatem"

	out, err = m.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "define i32 @seven() {\n"+
		"  ret i32 7\n"+
		"}\n"+
		"\n"+
		"@lucky = alias i32 (), i32 ()* @seven\n"+
		"\n"+
		"!llvm.ident = !{!0}\n"+
		"!0 = !{!\"symatem\"}\n", out)

	assert.Same(t, f, m.Function("seven"))
	assert.True(t, m.HasGlobal("lucky"))
	assert.False(t, m.HasGlobal("other"))
}
