package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormats(t *testing.T) {
	for _, path := range []string{
		"../program/testdata/fib.yaml",
		"../program/testdata/fib.cue",
		"../program/testdata/fib.hcl",
	} {
		t.Run(path, func(t *testing.T) {
			out, err := runCLI(t, "validate", path)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ Program valid: 3 operator(s)")
		})
	}
}

func TestValidateJSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "validate", fibProgram)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Operators)
	assert.Len(t, resp.Data.ProgramHash, 64)
}

func TestValidateReportsErrors(t *testing.T) {
	path := writeProgram(t, "dup.yaml", duplicateProgram)

	out, err := runCLI(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Error  *CLIError        `json:"error"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Equal(t, "E202", resp.Error.Code)
}

func TestValidateUnsupportedExtension(t *testing.T) {
	path := writeProgram(t, "program.toml", "entry = 1")

	out, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}
