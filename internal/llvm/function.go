package llvm

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/enum"
)

// BasicBlock is a labeled straight-line sequence of instructions ending
// in a terminator. An empty Name means the label is numbered.
type BasicBlock struct {
	typ          *Type
	Name         string
	Instructions []Instruction
}

// NewBasicBlock creates an empty block.
func NewBasicBlock(types *TypeCache, name string) *BasicBlock {
	return &BasicBlock{typ: types.Label(), Name: name}
}

// Type implements Value.
func (b *BasicBlock) Type() *Type { return b.typ }

func (b *BasicBlock) ref(n *namer) string { return "%" + n.block(b) }

// Append adds instructions at the end of the block.
func (b *BasicBlock) Append(insts ...Instruction) {
	b.Instructions = append(b.Instructions, insts...)
}

// Insert places inst at position idx.
func (b *BasicBlock) Insert(idx int, inst Instruction) {
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = inst
}

// Len returns the number of instructions.
func (b *BasicBlock) Len() int {
	return len(b.Instructions)
}

// Validate checks that the block ends with its only terminator.
func (b *BasicBlock) Validate() error {
	for i, inst := range b.Instructions {
		if IsTerminator(inst) && i != len(b.Instructions)-1 {
			return fmt.Errorf("basic block %q: terminator at position %d is not the last instruction", b.Name, i)
		}
	}
	if len(b.Instructions) == 0 || !IsTerminator(b.Instructions[len(b.Instructions)-1]) {
		return fmt.Errorf("basic block %q: missing terminator", b.Name)
	}
	return nil
}

// Function is a function definition.
type Function struct {
	typ              *Type
	Name             string
	Params           []*Register
	Blocks           []*BasicBlock
	Linkage          enum.Linkage
	Visibility       string
	CallingConv      string
	ReturnAttributes []string
	Attributes       []string
	Section          string
	Align            int
	GC               string
}

// NewFunction creates a function of type typ. The parameter registers
// must match the parameter types of typ.
func NewFunction(typ *Type, name string, params []*Register, blocks ...*BasicBlock) *Function {
	return &Function{typ: typ, Name: name, Params: params, Blocks: blocks}
}

// Type implements Value. It is the function type, not a pointer to it.
func (f *Function) Type() *Type { return f.typ }

func (f *Function) ref(*namer) string { return "@" + quoteName(f.Name) }

// ReturnType returns the return type of the function.
func (f *Function) ReturnType() *Type { return f.typ.elem }

// Pointer returns a global reference to the function, usable as an operand.
func (f *Function) Pointer(types *TypeCache) *Register {
	return &Register{typ: types.Pointer(f.typ), Name: f.Name, Global: true}
}

// Definition renders the function definition.
func (f *Function) Definition() (string, error) {
	n := newNamer(f)
	var b strings.Builder
	b.WriteString("define ")
	if f.Linkage != enum.LinkageNone {
		b.WriteString(f.Linkage.String() + " ")
	}
	for _, s := range []string{f.Visibility, f.CallingConv} {
		if s != "" {
			b.WriteString(s + " ")
		}
	}
	for _, a := range f.ReturnAttributes {
		b.WriteString(a + " ")
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.typ.String() + " " + p.ref(n)
	}
	fmt.Fprintf(&b, "%s @%s(%s)", f.ReturnType(), quoteName(f.Name), strings.Join(params, ", "))
	for _, a := range f.Attributes {
		b.WriteString(" " + a)
	}
	if f.Section != "" {
		fmt.Fprintf(&b, " section %q", f.Section)
	}
	if f.Align > 0 {
		fmt.Fprintf(&b, " align %d", f.Align)
	}
	if f.GC != "" {
		fmt.Fprintf(&b, " gc %q", f.GC)
	}
	b.WriteString(" {\n")
	for i, block := range f.Blocks {
		if err := block.Validate(); err != nil {
			return "", fmt.Errorf("function @%s: %w", f.Name, err)
		}
		if i > 0 {
			b.WriteString("\n" + n.block(block) + ":\n")
		} else if block.Name != "" {
			b.WriteString(n.block(block) + ":\n")
		}
		for _, inst := range block.Instructions {
			b.WriteString("  ")
			if r := inst.Result(); r != nil {
				b.WriteString("%" + n.register(r) + " = ")
			}
			b.WriteString(inst.format(n))
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// Alias gives a function a second global name.
type Alias struct {
	Name       string
	Linkage    enum.Linkage
	Visibility string
	Aliasee    *Function
}

// Declaration renders the alias declaration.
func (a *Alias) Declaration() string {
	var b strings.Builder
	b.WriteString("@" + quoteName(a.Name) + " = ")
	if a.Linkage != enum.LinkageNone {
		b.WriteString(a.Linkage.String() + " ")
	}
	if a.Visibility != "" {
		b.WriteString(a.Visibility + " ")
	}
	t := a.Aliasee.Type().String()
	fmt.Fprintf(&b, "alias %s, %s* @%s\n", t, t, quoteName(a.Aliasee.Name))
	return b.String()
}
