package engine

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/program"
	"github.com/Symatem/Compiler/internal/testutil"
	"github.com/Symatem/Compiler/internal/vocab"
)

func newTestCompiler(t *testing.T, store graph.Store, opts ...Option) *Compiler {
	t.Helper()
	base := []Option{
		WithSessionGenerator(testutil.NewFixedSessionGenerator("test-session")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	c, err := New(store, append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// compile builds def and executes its entry as a top-level invocation.
func compile(t *testing.T, def *program.Definition, opts ...Option) (*Compiler, *Instance, error) {
	t.Helper()
	prog := testutil.Build(t, def)
	c := newTestCompiler(t, prog.Store(), opts...)
	inst, err := c.Execute(prog.Inputs, true)
	return c, inst, err
}

func mustCompile(t *testing.T, def *program.Definition, opts ...Option) (*Compiler, *Instance, string) {
	t.Helper()
	c, inst, err := compile(t, def, opts...)
	require.NoError(t, err)
	ir, err := c.IR()
	require.NoError(t, err)
	return c, inst, ir
}

func output(c *Compiler, inst *Instance, tag graph.Symbol) any {
	return vocab.GetData(c.Store(), inst.Outputs[tag])
}

func countLines(ir, substr string) int {
	n := 0
	for _, line := range strings.Split(ir, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
