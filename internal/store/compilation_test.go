package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/graph"
)

func createTestCompilation(id, hash string, seq int64, status string) Compilation {
	c := Compilation{
		ID:          id,
		ProgramHash: hash,
		Entry:       "Fib",
		Inputs: graph.Operands{
			graph.MakeSymbol(0, 4): graph.MakeSymbol(3, 9),
			graph.MakeSymbol(0, 1): graph.MakeSymbol(0xFFFFFFFF, 0xFFFFFFFF),
		},
		Status:    status,
		Instances: 3,
		Trace:     []string{"Begin Fib#1", "  Done Fib#1"},
		Seq:       seq,
	}
	if status == StatusOK {
		c.IR = "define i32 @Fib(i32 %0) {\n}\n"
	} else {
		c.ErrorCode = "TYPE_MISMATCH"
	}
	return c
}

func TestWriteReadCompilation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestCompilation("s-1", "hash-a", 1, StatusOK)
	require.NoError(t, s.WriteCompilation(ctx, want))

	got, err := s.ReadCompilation(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteCompilationIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestCompilation("s-1", "hash-a", 1, StatusOK)
	require.NoError(t, s.WriteCompilation(ctx, first))
	second := first
	second.IR = "changed"
	require.NoError(t, s.WriteCompilation(ctx, second))

	got, err := s.ReadCompilation(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, first.IR, got.IR)
}

func TestWriteCompilationRejectsStatus(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteCompilation(context.Background(), createTestCompilation("s-1", "h", 1, "maybe"))
	assert.ErrorContains(t, err, "invalid status")
}

func TestWriteCompilationEmptyFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCompilation(ctx, Compilation{
		ID: "bare", ProgramHash: "h", Entry: "Addition", Status: StatusOK, Seq: 1,
	}))
	got, err := s.ReadCompilation(ctx, "bare")
	require.NoError(t, err)
	assert.Empty(t, got.Inputs)
	assert.Equal(t, []string{}, got.Trace)
}

func TestReadCompilationMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadCompilation(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadCompilationsOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, c := range []Compilation{
		createTestCompilation("b", "hash-a", 2, StatusOK),
		createTestCompilation("c", "hash-b", 1, StatusOK),
		createTestCompilation("a", "hash-a", 2, StatusError),
	} {
		require.NoError(t, s.WriteCompilation(ctx, c))
	}

	all, err := s.ReadCompilations(ctx, "")
	require.NoError(t, err)
	var ids []string
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	filtered, err := s.ReadCompilations(ctx, "hash-b")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "c", filtered[0].ID)

	none, err := s.ReadCompilations(ctx, "hash-z")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReadCompilationByProgram(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCompilation(ctx, createTestCompilation("old", "hash-a", 1, StatusOK)))
	require.NoError(t, s.WriteCompilation(ctx, createTestCompilation("new", "hash-a", 2, StatusOK)))
	require.NoError(t, s.WriteCompilation(ctx, createTestCompilation("failed", "hash-a", 3, StatusError)))
	require.NoError(t, s.WriteCompilation(ctx, createTestCompilation("only-error", "hash-b", 4, StatusError)))

	got, err := s.ReadCompilationByProgram(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)

	_, err = s.ReadCompilationByProgram(ctx, "hash-b")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNextSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	require.NoError(t, s.WriteCompilation(ctx, createTestCompilation("s", "h", 7, StatusOK)))
	seq, err = s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}
