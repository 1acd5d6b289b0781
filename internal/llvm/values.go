package llvm

import "strings"

// Value is an IR operand. The set of implementations is closed.
type Value interface {
	// Type returns the IR type of the value.
	Type() *Type
	// ref renders the value as an operand, without its type.
	ref(n *namer) string
}

// Register is an SSA value: a parameter or the result of an instruction.
// An empty Name means the register is numbered during serialization.
type Register struct {
	typ    *Type
	Name   string
	Global bool
}

// NewRegister creates an unnamed register.
func NewRegister(t *Type) *Register {
	return &Register{typ: t}
}

// NewNamedRegister creates a named register.
func NewNamedRegister(t *Type, name string) *Register {
	return &Register{typ: t, Name: name}
}

// Type implements Value.
func (r *Register) Type() *Type { return r.typ }

func (r *Register) ref(n *namer) string {
	if r.Global {
		return "@" + quoteName(r.Name)
	}
	return "%" + n.register(r)
}

// Literal is a constant spelled out verbatim ("3", "true", "undef", ...).
type Literal struct {
	typ  *Type
	Text string
}

// NewLiteral creates a literal constant.
func NewLiteral(t *Type, text string) *Literal {
	return &Literal{typ: t, Text: text}
}

// Undef returns the undef constant of type t.
func Undef(t *Type) *Literal {
	return &Literal{typ: t, Text: "undef"}
}

// ZeroInitializer returns the all-zero constant of type t.
func ZeroInitializer(t *Type) *Literal {
	return &Literal{typ: t, Text: "zeroinitializer"}
}

// Type implements Value.
func (l *Literal) Type() *Type { return l.typ }

func (l *Literal) ref(*namer) string { return l.Text }

// Composite is a constant aggregate: struct, array or vector.
type Composite struct {
	typ      *Type
	Elements []Value
}

// NewComposite creates an aggregate constant of type t.
func NewComposite(t *Type, elements ...Value) *Composite {
	return &Composite{typ: t, Elements: elements}
}

// Type implements Value.
func (c *Composite) Type() *Type { return c.typ }

func (c *Composite) ref(n *namer) string {
	parts := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = typed(e, n)
	}
	body := strings.Join(parts, ", ")
	switch c.typ.kind {
	case ArrayKind:
		return "[" + body + "]"
	case VectorKind:
		return "<" + body + ">"
	}
	if c.typ.packed {
		return "<{" + body + "}>"
	}
	return "{" + body + "}"
}

// Text is a constant byte string of type [N x i8].
type Text struct {
	typ  *Type
	Data []byte
}

// NewText creates a byte string constant.
func NewText(t *Type, data []byte) *Text {
	return &Text{typ: t, Data: data}
}

// Type implements Value.
func (t *Text) Type() *Type { return t.typ }

func (t *Text) ref(*namer) string {
	return "c" + quoted(t.Data)
}

// typed renders "<type> <operand>".
func typed(v Value, n *namer) string {
	return v.Type().String() + " " + v.ref(n)
}
