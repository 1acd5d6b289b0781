package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	addProgram = "../program/testdata/add.yaml"
	fibProgram = "../program/testdata/fib.yaml"
)

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeProgram writes a YAML program into a temp dir.
func writeProgram(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const mismatchProgram = `entry: Addition
inputs:
  - tag: Input
    constant: u32:1
  - tag: OtherInput
    constant: u64:1
`

const duplicateProgram = `entry: Twice
operators:
  - name: Twice
  - name: Twice
`
