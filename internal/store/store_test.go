package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/testutil"
)

// createTestStore opens a fresh database in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"graphs", "graph_triples", "graph_data", "graph_counters", "compilations"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
	assert.Error(t, s.verifyPragma("foreign_keys", "0"))
}

func TestOpen_ProgramIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_compilations_program'",
	).Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_MemoryPragmas(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("journal_mode", "memory"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestGraphRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	prog := testutil.Build(t, testutil.Fibonacci())
	mem, ok := prog.Store().(*graph.MemoryStore)
	require.True(t, ok)
	want := mem.Snapshot()
	require.NotEmpty(t, want.Triples)

	require.NoError(t, s.SaveGraph(ctx, "fib", want))
	got, err := s.LoadGraph(ctx, "fib")
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	restored := graph.Restore(got)
	assert.Equal(t, mem.Len(), restored.Len())
}

func TestGraphHighNamespace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	high := graph.MakeSymbol(0xFFFFFFF0, 7)
	low := graph.MakeSymbol(3, 1)
	mem := graph.NewMemoryStore()
	mem.SetTriple(graph.Triple{Entity: high, Attribute: low, Value: high}, true)
	mem.SetTriple(graph.Triple{Entity: low, Attribute: low, Value: high}, true)
	mem.SetRawData(high, []byte{1, 2, 3}, 24)
	want := mem.Snapshot()

	require.NoError(t, s.SaveGraph(ctx, "high", want))
	got, err := s.LoadGraph(ctx, "high")
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveGraphReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, b := graph.MakeSymbol(5, 1), graph.MakeSymbol(5, 2)
	first := graph.NewMemoryStore()
	first.SetTriple(graph.Triple{Entity: a, Attribute: a, Value: a}, true)
	second := graph.NewMemoryStore()
	second.SetTriple(graph.Triple{Entity: b, Attribute: b, Value: b}, true)

	require.NoError(t, s.SaveGraph(ctx, "g", first.Snapshot()))
	require.NoError(t, s.SaveGraph(ctx, "g", second.Snapshot()))

	got, err := s.LoadGraph(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []graph.Triple{{Entity: b, Attribute: b, Value: b}}, got.Triples)
}

func TestLoadGraphMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
