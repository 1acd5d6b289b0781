package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/program"
)

// Build writes def into a fresh MemoryStore.
func Build(t testing.TB, def *program.Definition) *program.Program {
	t.Helper()
	prog, err := program.Build(graph.NewMemoryStore(), def)
	require.NoError(t, err)
	return prog
}

func in(tag, constant string) program.Binding {
	return program.Binding{Tag: tag, Constant: constant}
}

func from(tag, operation, source string) program.Binding {
	return program.Binding{Tag: tag, From: operation, Source: source}
}

// Primitive invokes a single primitive with constant or placeholder inputs,
// given as tag/literal pairs.
func Primitive(name string, inputs ...string) *program.Definition {
	def := &program.Definition{Entry: name}
	for i := 0; i+1 < len(inputs); i += 2 {
		def.Inputs = append(def.Inputs, in(inputs[i], inputs[i+1]))
	}
	return def
}

// Fibonacci is the recursive Fib over a runtime Natural32:
// Fib(n) = n < 2 ? n : Fib(n-1) + Fib(n-2).
func Fibonacci() *program.Definition {
	return &program.Definition{
		Entry:  "Fib",
		Inputs: []program.Binding{in("Input", "Natural32")},
		Operators: []program.OperatorDef{{
			Name: "Fib",
			Operations: []program.OperationDef{{
				Name:     "small",
				Operator: "LessThan",
				Bindings: []program.Binding{{Tag: "Input"}, in("Comparand", "u32:2")},
			}, {
				Name:     "branch",
				Operator: "If",
				Bindings: []program.Binding{
					from("Condition", "small", "Output"),
					in("Then", "FibBase"),
					in("Else", "FibStep"),
					{Tag: "Input"},
				},
			}},
			Outputs: []program.Binding{from("Output", "branch", "")},
		}, {
			Name:    "FibBase",
			Outputs: []program.Binding{from("Output", "", "Input")},
		}, {
			Name: "FibStep",
			Operations: []program.OperationDef{{
				Name:     "minusOne",
				Operator: "Subtraction",
				Bindings: []program.Binding{from("Minuend", "", "Input"), in("Subtrahend", "u32:1")},
			}, {
				Name:     "minusTwo",
				Operator: "Subtraction",
				Bindings: []program.Binding{from("Minuend", "", "Input"), in("Subtrahend", "u32:2")},
			}, {
				Name:     "left",
				Operator: "Fib",
				Bindings: []program.Binding{from("Input", "minusOne", "Output")},
			}, {
				Name:     "right",
				Operator: "Fib",
				Bindings: []program.Binding{from("Input", "minusTwo", "Output")},
			}, {
				Name:     "sum",
				Operator: "Addition",
				Bindings: []program.Binding{from("Input", "left", "Output"), from("OtherInput", "right", "Output")},
			}},
			Outputs: []program.Binding{from("Output", "sum", "")},
		}},
	}
}

// Select picks Input (Then) or Input+1 (Else) on condition, which is a
// literal such as "bool:true" or the runtime placeholder "Boolean".
func Select(condition string) *program.Definition {
	return &program.Definition{
		Entry:  "Select",
		Inputs: []program.Binding{in("Condition", condition), in("Input", "Natural32")},
		Operators: []program.OperatorDef{{
			Name: "Select",
			Operations: []program.OperationDef{{
				Name:     "branch",
				Operator: "If",
				Bindings: []program.Binding{
					{Tag: "Condition"},
					in("Then", "Keep"),
					in("Else", "Increment"),
					{Tag: "Input"},
				},
			}},
			Outputs: []program.Binding{from("Output", "branch", "")},
		}, {
			Name:    "Keep",
			Outputs: []program.Binding{from("Output", "", "Input")},
		}, {
			Name: "Increment",
			Operations: []program.OperationDef{{
				Name:     "add",
				Operator: "Addition",
				Bindings: []program.Binding{{Tag: "Input"}, in("OtherInput", "u32:1")},
			}},
			Outputs: []program.Binding{from("Output", "add", "")},
		}},
	}
}

// RoundTrip bundles Input and OtherInput and unbundles them again.
func RoundTrip(input, other string) *program.Definition {
	return &program.Definition{
		Entry:  "RoundTrip",
		Inputs: []program.Binding{in("Input", input), in("OtherInput", other)},
		Operators: []program.OperatorDef{{
			Name: "RoundTrip",
			Operations: []program.OperationDef{{
				Name:     "pack",
				Operator: "Bundle",
				Bindings: []program.Binding{{Tag: "Input"}, {Tag: "OtherInput"}},
			}, {
				Name:     "unpack",
				Operator: "Unbundle",
				Bindings: []program.Binding{from("Input", "pack", "Output")},
			}},
			Outputs: []program.Binding{
				from("Input", "unpack", ""),
				from("OtherInput", "unpack", ""),
			},
		}},
	}
}

// Cyclic has two operations feeding each other.
func Cyclic() *program.Definition {
	return &program.Definition{
		Entry:  "Cyclic",
		Inputs: []program.Binding{in("Input", "u32:1")},
		Operators: []program.OperatorDef{{
			Name: "Cyclic",
			Operations: []program.OperationDef{{
				Name:     "first",
				Operator: "Addition",
				Bindings: []program.Binding{{Tag: "Input"}, from("OtherInput", "second", "Output")},
			}, {
				Name:     "second",
				Operator: "Addition",
				Bindings: []program.Binding{{Tag: "Input"}, from("OtherInput", "first", "Output")},
			}},
			Outputs: []program.Binding{from("Output", "second", "")},
		}},
	}
}
