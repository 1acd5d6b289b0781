package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/program"
	"github.com/Symatem/Compiler/internal/testutil"
	"github.com/Symatem/Compiler/internal/vocab"
)

func TestIfConstantCondition(t *testing.T) {
	tests := []struct {
		condition string
		contains  string
	}{
		{"bool:true", "call i32 @"},
		{"bool:false", "add i32 %0, 1"},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			_, inst, ir := mustCompile(t, testutil.Select(tt.condition))
			assert.Equal(t, vocab.Natural32, inst.Outputs[vocab.Output])
			assert.NotContains(t, ir, "phi")
			assert.NotContains(t, ir, "br i1")
			assert.Contains(t, ir, tt.contains)
		})
	}
}

func TestIfConstantFoldsEntirely(t *testing.T) {
	def := testutil.Select("bool:false")
	def.Inputs[1].Constant = "u32:41"

	c, inst, ir := mustCompile(t, def)
	assert.Empty(t, ir)
	assert.Equal(t, uint64(42), output(c, inst, vocab.Output))
}

func TestIfRuntimeCondition(t *testing.T) {
	c, inst, ir := mustCompile(t, testutil.Select("Boolean"))

	assert.Equal(t, vocab.Natural32, inst.Outputs[vocab.Output])
	assert.Equal(t, 1, countLines(ir, "br i1 "))
	assert.Equal(t, 1, countLines(ir, "phi i32 "))
	inlined := 0
	for _, line := range strings.Split(ir, "\n") {
		if strings.Contains(line, "call ") && strings.HasSuffix(line, " alwaysinline") {
			inlined++
		}
	}
	assert.Equal(t, 2, inlined, "both branch calls are inlined")

	var branch *Instance
	for _, i := range c.Instances() {
		if i.Operator == vocab.If {
			branch = i
		}
	}
	require.NotNil(t, branch)
	require.NotNil(t, branch.Function)
	assert.Len(t, branch.Function.Blocks, 4)
	assert.Contains(t, branch.Function.Attributes, "alwaysinline")
}

func TestIfBranchesMustAgree(t *testing.T) {
	def := testutil.Select("Boolean")
	def.Operators[2] = program.OperatorDef{
		Name:    "Increment",
		Outputs: []program.Binding{{Tag: "Output", Constant: "f64:1"}},
	}
	_, _, err := compile(t, def)
	assert.True(t, IsTypeMismatch(err), "got %v", err)
}

func TestIfBranchWithoutBaseCase(t *testing.T) {
	def := testutil.Select("Boolean")
	recurse := func(name, callee string) program.OperatorDef {
		return program.OperatorDef{
			Name: name,
			Operations: []program.OperationDef{{
				Name:     "again",
				Operator: callee,
				Bindings: []program.Binding{{Tag: "Input"}},
			}},
			Outputs: []program.Binding{{Tag: "Output", From: "again"}},
		}
	}
	def.Operators[2] = recurse("Increment", "Loop")
	def.Operators = append(def.Operators, recurse("Loop", "Loop2"), recurse("Loop2", "Loop"))

	c, inst, err := compile(t, def)
	require.Error(t, err)
	assert.Nil(t, inst)
	assert.True(t, IsCode(err, ErrCodeUnresolvedRecursion), "got %v", err)
	assert.Contains(t, err.Error(), "still suspended")
	assert.Contains(t, err.Error(), "Loop2")

	_, err = c.Execute(nil, true)
	assert.True(t, IsCode(err, ErrCodeContextPoisoned), "got %v", err)
}

func TestIfConditionMustBeBoolean(t *testing.T) {
	_, _, err := compile(t, testutil.Select("Natural32"))
	assert.True(t, IsTypeMismatch(err), "got %v", err)

	_, _, err = compile(t, testutil.Select("f32:1"))
	assert.True(t, IsTypeMismatch(err), "got %v", err)
}

func TestFibonacci(t *testing.T) {
	c, inst, ir := mustCompile(t, testutil.Fibonacci())

	assert.True(t, inst.Done())
	assert.Equal(t, vocab.Natural32, inst.Outputs[vocab.Output])
	require.NotNil(t, inst.Function)
	assert.Equal(t, "Fib", inst.Function.Name)
	assert.Contains(t, ir, "define i32 @Fib(i32 %0) {\n")
	assert.Equal(t, 1, countLines(ir, "icmp ult i32 %0, 2"))
	assert.Equal(t, 1, countLines(ir, "phi i32 "))
	assert.Equal(t, 2, countLines(ir, "call i32 @Fib("), "FibStep recurses twice")
	for _, i := range c.Instances() {
		assert.True(t, i.Done(), c.describeInstance(i))
	}

	// Recursion is resolved by resuming the blocked step once Fib is callable.
	trace := c.Trace().String()
	assert.Contains(t, trace, "Callable If#")
	assert.Contains(t, trace, "Blocked FibStep#")
	assert.Contains(t, trace, "Resume FibStep#")
	assert.Equal(t, 1, strings.Count(trace, "Begin Fib#"))
}

func TestFibonacciConstantInput(t *testing.T) {
	def := testutil.Fibonacci()
	def.Inputs[0].Constant = "u32:1"

	c, inst, ir := mustCompile(t, def)
	assert.Empty(t, ir)
	assert.Equal(t, uint64(1), output(c, inst, vocab.Output))
}
