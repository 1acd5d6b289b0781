package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFib(t *testing.T) {
	def, err := Load("testdata/fib.yaml")
	require.NoError(t, err)
	assert.Empty(t, Validate(def))
}

func TestValidate(t *testing.T) {
	op := func(name string, ops []OperationDef, outs ...Binding) OperatorDef {
		return OperatorDef{Name: name, Operations: ops, Outputs: outs}
	}

	tests := []struct {
		name string
		def  Definition
		code string
	}{
		{"empty entry", Definition{}, ErrEntryMissing},
		{"duplicate operator", Definition{Entry: "A", Operators: []OperatorDef{op("A", nil), op("A", nil)}}, ErrDuplicateOperator},
		{"shadowed", Definition{Entry: "If", Operators: []OperatorDef{op("If", nil)}}, ErrShadowedName},
		{"entry input carrier", Definition{Entry: "Addition", Inputs: []Binding{{Tag: "Input"}}}, ErrEntryInput},
		{"duplicate operation", Definition{Entry: "A", Operators: []OperatorDef{op("A", []OperationDef{
			{Name: "x", Operator: "Addition"}, {Name: "x", Operator: "Addition"},
		})}}, ErrDuplicateOperation},
		{"duplicate tag", Definition{Entry: "A", Operators: []OperatorDef{op("A", nil,
			Binding{Tag: "Output", Constant: "u32:1"}, Binding{Tag: "Output", Constant: "u32:2"},
		)}}, ErrDuplicateTag},
		{"operator bound twice", Definition{Entry: "A", Operators: []OperatorDef{op("A", []OperationDef{
			{Name: "x", Operator: "Addition", Bindings: []Binding{{Tag: "Operator", Constant: "Or"}}},
		})}}, ErrDuplicateTag},
		{"unknown from", Definition{Entry: "A", Operators: []OperatorDef{op("A", nil,
			Binding{Tag: "Output", From: "ghost"},
		)}}, ErrUnknownSource},
		{"bad literal", Definition{Entry: "A", Operators: []OperatorDef{op("A", nil,
			Binding{Tag: "Output", Constant: "f16:1"},
		)}}, ErrInvalidLiteral},
		{"conflicting", Definition{Entry: "A", Operators: []OperatorDef{op("A", nil,
			Binding{Tag: "Output", Constant: "u32:1", From: "x"},
		)}}, ErrConflictingBinding},
		{"no operator", Definition{Entry: "A", Operators: []OperatorDef{op("A", []OperationDef{{Name: "x"}})}}, ErrMissingOperator},
		{"unknown operator", Definition{Entry: "A", Operators: []OperatorDef{op("A", []OperationDef{{Name: "x", Operator: "B"}})}}, ErrMissingOperator},
		{"cycle", Definition{Entry: "A", Operators: []OperatorDef{op("A", []OperationDef{
			{Name: "x", Operator: "Addition", Bindings: []Binding{{Tag: "Input", From: "y", Source: "Output"}}},
			{Name: "y", Operator: "Addition", Bindings: []Binding{{Tag: "Input", From: "x", Source: "Output"}}},
		})}}, ErrCarrierCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.def)
			require.NotEmpty(t, errs)
			codes := make([]string, len(errs))
			for i, e := range errs {
				codes[i] = e.Code
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "entry", Message: "missing", Code: ErrEntryMissing}
	assert.Equal(t, "[E201] entry: missing", e.Error())
	e.Line = 4
	assert.Equal(t, "[E201] line 4: entry: missing", e.Error())
}
