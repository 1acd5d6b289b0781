// Package program describes operator graphs as data and builds them into a
// graph store.
//
// A Definition lists custom operators. Each operator has named operations
// and outputs, and every operand slot is filled by a Binding: a constant
// literal, or a carrier from the operator's inputs or from another
// operation's outputs. Definitions load from CUE, YAML or HCL.
package program

// Definition is a whole program: the operators and the invocation to compile.
type Definition struct {
	// Entry names the operator to compile, custom or primitive.
	Entry string `json:"entry" yaml:"entry" hcl:"entry"`

	// Inputs are the constant operands of the entry invocation.
	Inputs []Binding `json:"inputs,omitempty" yaml:"inputs,omitempty" hcl:"input,block"`

	Operators []OperatorDef `json:"operators,omitempty" yaml:"operators,omitempty" hcl:"operator,block"`
}

// OperatorDef is one custom operator.
type OperatorDef struct {
	Name       string         `json:"name" yaml:"name" hcl:"name,label"`
	Operations []OperationDef `json:"operations,omitempty" yaml:"operations,omitempty" hcl:"operation,block"`
	Outputs    []Binding      `json:"outputs,omitempty" yaml:"outputs,omitempty" hcl:"output,block"`
}

// OperationDef is one invocation inside an operator. Operator names the
// callee; it is shorthand for a constant binding of the Operator tag.
type OperationDef struct {
	Name     string    `json:"name" yaml:"name" hcl:"name,label"`
	Operator string    `json:"operator,omitempty" yaml:"operator,omitempty" hcl:"operator,optional"`
	Bindings []Binding `json:"bindings,omitempty" yaml:"bindings,omitempty" hcl:"bind,block"`
}

// Binding fills the operand slot Tag.
//
// With Constant set the slot receives a literal (see Builder.Literal).
// Otherwise a carrier delivers operand Source (default: Tag) of the
// operation named From, or of the operator's own inputs when From is
// empty. Defer routes the carrier through DeferEvaluation.
type Binding struct {
	Tag      string `json:"tag" yaml:"tag" hcl:"tag,label"`
	Constant string `json:"constant,omitempty" yaml:"constant,omitempty" hcl:"constant,optional"`
	From     string `json:"from,omitempty" yaml:"from,omitempty" hcl:"from,optional"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty" hcl:"source,optional"`
	Defer    bool   `json:"defer,omitempty" yaml:"defer,omitempty" hcl:"defer,optional"`
}

// Operator returns the operator definition with the given name.
func (d *Definition) Operator(name string) (*OperatorDef, bool) {
	for i := range d.Operators {
		if d.Operators[i].Name == name {
			return &d.Operators[i], true
		}
	}
	return nil, false
}
