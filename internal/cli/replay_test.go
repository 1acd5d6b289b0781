package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/store"
)

func TestReplayEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := runCLI(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No compilations found")
}

func TestReplayDeterministic(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := runCLI(t, "compile", addProgram, "--db", db)
	require.NoError(t, err)
	_, err = runCLI(t, "compile", fibProgram, "--db", db)
	require.NoError(t, err)
	_, err = runCLI(t, "compile", writeProgram(t, "mismatch.yaml", mismatchProgram), "--db", db)
	require.Error(t, err)

	out, err := runCLI(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 3 session(s)")
	assert.Contains(t, out, "error TYPE_MISMATCH")
	assert.Contains(t, out, "✓ All sessions verified deterministic")
}

func TestReplayDetectsTamperedModule(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := runCLI(t, "--format", "json", "compile", addProgram, "--db", db)
	require.NoError(t, err)
	_, result := decodeCompile(t, out)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE compilations SET ir = 'tampered' WHERE id = ?`, result.Session)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err = runCLI(t, "--format", "json", "replay", "--db", db, "--session", result.Session)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Sessions, 1)
	assert.False(t, resp.Data.Sessions[0].Deterministic)
	assert.Equal(t, "module text differs", resp.Data.Sessions[0].Reason)
}

func TestReplayEngineFlagsMatter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := runCLI(t, "compile", fibProgram, "--db", db)
	require.NoError(t, err)

	out, err := runCLI(t, "replay", "--db", db, "--max-instances", "2")
	require.Error(t, err)
	assert.Contains(t, out, "recorded ok, replay failed with QUOTA_EXCEEDED")
}

func TestReplayUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := runCLI(t, "replay", "--db", db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
