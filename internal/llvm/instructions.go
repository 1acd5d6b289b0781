package llvm

import (
	"fmt"
	"strconv"
	"strings"
)

// Instruction is one IR instruction. The set of implementations is closed.
type Instruction interface {
	// Result returns the register defined by the instruction, or nil.
	Result() *Register
	format(n *namer) string
}

// Terminator is an instruction that ends a basic block.
type Terminator interface {
	Instruction
	terminator()
}

// IsTerminator reports whether inst ends a basic block.
func IsTerminator(inst Instruction) bool {
	_, ok := inst.(Terminator)
	return ok
}

func resultOf(r *Register) *Register {
	if r == nil || r.typ == nil || r.typ.IsVoid() {
		return nil
	}
	return r
}

// Ret returns from the function. A nil or void Value returns void.
type Ret struct{ Value Value }

func (*Ret) Result() *Register { return nil }
func (*Ret) terminator()       {}
func (i *Ret) format(n *namer) string {
	if i.Value == nil || i.Value.Type().IsVoid() {
		return "ret void"
	}
	return "ret " + typed(i.Value, n)
}

// Br branches unconditionally.
type Br struct{ Target *BasicBlock }

func (*Br) Result() *Register { return nil }
func (*Br) terminator()       {}
func (i *Br) format(n *namer) string {
	return "br label %" + n.block(i.Target)
}

// CondBr branches on an i1 condition.
type CondBr struct {
	Cond        Value
	True, False *BasicBlock
}

func (*CondBr) Result() *Register { return nil }
func (*CondBr) terminator()       {}
func (i *CondBr) format(n *namer) string {
	return fmt.Sprintf("br %s, label %%%s, label %%%s", typed(i.Cond, n), n.block(i.True), n.block(i.False))
}

// IndirectBr jumps to an address among a list of possible targets.
type IndirectBr struct {
	Address Value
	Targets []*BasicBlock
}

func (*IndirectBr) Result() *Register { return nil }
func (*IndirectBr) terminator()       {}
func (i *IndirectBr) format(n *namer) string {
	targets := make([]string, len(i.Targets))
	for k, t := range i.Targets {
		targets[k] = "label %" + n.block(t)
	}
	return fmt.Sprintf("indirectbr %s, [%s]", typed(i.Address, n), strings.Join(targets, ", "))
}

// SwitchCase is one arm of a Switch.
type SwitchCase struct {
	Value  Value
	Target *BasicBlock
}

// Switch jumps to the case matching Cond, or to Default.
type Switch struct {
	Cond    Value
	Default *BasicBlock
	Cases   []SwitchCase
}

func (*Switch) Result() *Register { return nil }
func (*Switch) terminator()       {}
func (i *Switch) format(n *namer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "switch %s, label %%%s [", typed(i.Cond, n), n.block(i.Default))
	for _, c := range i.Cases {
		fmt.Fprintf(&b, " %s, label %%%s", typed(c.Value, n), n.block(c.Target))
	}
	b.WriteString(" ]")
	return b.String()
}

// Unreachable marks unreachable code.
type Unreachable struct{}

func (*Unreachable) Result() *Register    { return nil }
func (*Unreachable) terminator()          {}
func (*Unreachable) format(*namer) string { return "unreachable" }

// Binary is an arithmetic or bitwise operation such as add, fdiv or ashr.
type Binary struct {
	Dest  *Register
	Op    string
	Flags []string
	X, Y  Value
}

func (i *Binary) Result() *Register { return resultOf(i.Dest) }
func (i *Binary) format(n *namer) string {
	op := i.Op
	if len(i.Flags) > 0 {
		op += " " + strings.Join(i.Flags, " ")
	}
	return fmt.Sprintf("%s %s, %s", op, typed(i.X, n), i.Y.ref(n))
}

// Compare is an icmp or fcmp.
type Compare struct {
	Dest      *Register
	Float     bool
	Predicate string
	X, Y      Value
}

func (i *Compare) Result() *Register { return resultOf(i.Dest) }
func (i *Compare) format(n *namer) string {
	op := "icmp"
	if i.Float {
		op = "fcmp"
	}
	return fmt.Sprintf("%s %s %s, %s", op, i.Predicate, typed(i.X, n), i.Y.ref(n))
}

// Cast converts From to the type of Dest (trunc, zext, bitcast, ...).
type Cast struct {
	Dest *Register
	Op   string
	From Value
}

func (i *Cast) Result() *Register { return resultOf(i.Dest) }
func (i *Cast) format(n *namer) string {
	return fmt.Sprintf("%s %s to %s", i.Op, typed(i.From, n), i.Dest.typ)
}

// Alloca reserves stack memory for Count elements of Elem.
type Alloca struct {
	Dest  *Register
	Elem  *Type
	Count Value
	Align int
}

func (i *Alloca) Result() *Register { return resultOf(i.Dest) }
func (i *Alloca) format(n *namer) string {
	s := "alloca " + i.Elem.String()
	if i.Count != nil {
		s += ", " + typed(i.Count, n)
	}
	return s + alignSuffix(i.Align)
}

// Load reads the value at Address into Dest.
type Load struct {
	Dest     *Register
	Address  Value
	Volatile bool
	Align    int
}

func (i *Load) Result() *Register { return resultOf(i.Dest) }
func (i *Load) format(n *namer) string {
	s := "load "
	if i.Volatile {
		s += "volatile "
	}
	return s + i.Dest.typ.String() + ", " + typed(i.Address, n) + alignSuffix(i.Align)
}

// Store writes Value to Address.
type Store struct {
	Value    Value
	Address  Value
	Volatile bool
	Align    int
}

func (*Store) Result() *Register { return nil }
func (i *Store) format(n *namer) string {
	s := "store "
	if i.Volatile {
		s += "volatile "
	}
	return s + typed(i.Value, n) + ", " + typed(i.Address, n) + alignSuffix(i.Align)
}

// GetElementPtr computes an address inside an aggregate.
type GetElementPtr struct {
	Dest     *Register
	Elem     *Type
	Base     Value
	Indices  []Value
	InBounds bool
}

func (i *GetElementPtr) Result() *Register { return resultOf(i.Dest) }
func (i *GetElementPtr) format(n *namer) string {
	s := "getelementptr "
	if i.InBounds {
		s += "inbounds "
	}
	s += i.Elem.String() + ", " + typed(i.Base, n)
	for _, idx := range i.Indices {
		s += ", " + typed(idx, n)
	}
	return s
}

// ExtractElement reads one lane of a vector.
type ExtractElement struct {
	Dest          *Register
	Vector, Index Value
}

func (i *ExtractElement) Result() *Register { return resultOf(i.Dest) }
func (i *ExtractElement) format(n *namer) string {
	return fmt.Sprintf("extractelement %s, %s", typed(i.Vector, n), typed(i.Index, n))
}

// InsertElement replaces one lane of a vector.
type InsertElement struct {
	Dest                   *Register
	Vector, Element, Index Value
}

func (i *InsertElement) Result() *Register { return resultOf(i.Dest) }
func (i *InsertElement) format(n *namer) string {
	return fmt.Sprintf("insertelement %s, %s, %s", typed(i.Vector, n), typed(i.Element, n), typed(i.Index, n))
}

// ShuffleVector permutes the lanes of two vectors.
type ShuffleVector struct {
	Dest       *Register
	X, Y, Mask Value
}

func (i *ShuffleVector) Result() *Register { return resultOf(i.Dest) }
func (i *ShuffleVector) format(n *namer) string {
	return fmt.Sprintf("shufflevector %s, %s, %s", typed(i.X, n), typed(i.Y, n), typed(i.Mask, n))
}

// ExtractValue reads a member of an aggregate.
type ExtractValue struct {
	Dest      *Register
	Aggregate Value
	Indices   []int
}

func (i *ExtractValue) Result() *Register { return resultOf(i.Dest) }
func (i *ExtractValue) format(n *namer) string {
	return "extractvalue " + typed(i.Aggregate, n) + indexList(i.Indices)
}

// InsertValue replaces a member of an aggregate.
type InsertValue struct {
	Dest               *Register
	Aggregate, Element Value
	Indices            []int
}

func (i *InsertValue) Result() *Register { return resultOf(i.Dest) }
func (i *InsertValue) format(n *namer) string {
	return "insertvalue " + typed(i.Aggregate, n) + ", " + typed(i.Element, n) + indexList(i.Indices)
}

// Select picks X or Y depending on Cond.
type Select struct {
	Dest       *Register
	Cond, X, Y Value
}

func (i *Select) Result() *Register { return resultOf(i.Dest) }
func (i *Select) format(n *namer) string {
	return fmt.Sprintf("select %s, %s, %s", typed(i.Cond, n), typed(i.X, n), typed(i.Y, n))
}

// Incoming is one (value, predecessor) pair of a Phi.
type Incoming struct {
	Value Value
	Block *BasicBlock
}

// Phi merges values flowing in from predecessor blocks.
type Phi struct {
	Dest     *Register
	Incoming []Incoming
}

func (i *Phi) Result() *Register { return resultOf(i.Dest) }
func (i *Phi) format(n *namer) string {
	parts := make([]string, len(i.Incoming))
	for k, in := range i.Incoming {
		if in.Value == nil {
			parts[k] = fmt.Sprintf("[ undef, %%%s ]", n.block(in.Block))
			continue
		}
		parts[k] = fmt.Sprintf("[ %s, %%%s ]", in.Value.ref(n), n.block(in.Block))
	}
	return "phi " + i.Dest.typ.String() + " " + strings.Join(parts, ", ")
}

// Call invokes a function. Dest is nil when the callee returns void.
type Call struct {
	Dest       *Register
	Callee     *Function
	Args       []Value
	Tail       string
	Attributes []string
}

func (i *Call) Result() *Register { return resultOf(i.Dest) }
func (i *Call) format(n *namer) string {
	args := make([]string, len(i.Args))
	for k, a := range i.Args {
		args[k] = typed(a, n)
	}
	s := ""
	if i.Tail != "" {
		s = i.Tail + " "
	}
	s += fmt.Sprintf("call %s @%s(%s)", i.Callee.ReturnType(), quoteName(i.Callee.Name), strings.Join(args, ", "))
	if len(i.Attributes) > 0 {
		s += " " + strings.Join(i.Attributes, " ")
	}
	return s
}

// VAArg reads the next variadic argument.
type VAArg struct {
	Dest *Register
	List Value
}

func (i *VAArg) Result() *Register { return resultOf(i.Dest) }
func (i *VAArg) format(n *namer) string {
	return fmt.Sprintf("va_arg %s, %s", typed(i.List, n), i.Dest.typ)
}

func alignSuffix(align int) string {
	if align <= 0 {
		return ""
	}
	return ", align " + strconv.Itoa(align)
}

func indexList(indices []int) string {
	var b strings.Builder
	for _, idx := range indices {
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}
