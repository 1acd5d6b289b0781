package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Symatem/Compiler/internal/store"
)

var sampleTrace = []string{
	"Begin Fib#1:2",
	"Callable If#1:5",
	"Blocked FibStep#1:9",
	"Begin FibBase#1:7",
	"Resume FibStep#1:9",
}

func TestTraceAssertions(t *testing.T) {
	result := &Result{Trace: sampleTrace}
	tests := []struct {
		name      string
		assertion Assertion
		fails     bool
	}{
		{"contains", Assertion{Type: AssertTraceContains, Event: "Blocked FibStep#"}, false},
		{"contains missing", Assertion{Type: AssertTraceContains, Event: "Begin Addition#"}, true},
		{"order", Assertion{Type: AssertTraceOrder, Events: []string{"Begin Fib#", "Blocked", "Resume"}}, false},
		{"order reversed", Assertion{Type: AssertTraceOrder, Events: []string{"Resume", "Blocked"}}, true},
		{"order missing", Assertion{Type: AssertTraceOrder, Events: []string{"Begin Fib#", "Begin Or#"}}, true},
		{"count", Assertion{Type: AssertTraceCount, Event: "Begin ", Count: 2}, false},
		{"count zero", Assertion{Type: AssertTraceCount, Event: "Begin Or#", Count: 0}, false},
		{"count wrong", Assertion{Type: AssertTraceCount, Event: "FibStep#", Count: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, nil)
			if tt.fails {
				require.Len(t, errs, 1)
				assert.Contains(t, errs[0], "Assertion failed: "+tt.assertion.Type)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestTraceOrderMessage(t *testing.T) {
	err := assertTraceOrder(sampleTrace, Assertion{Type: AssertTraceOrder, Events: []string{"Resume", "Blocked"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Resume (line 5) should be before Blocked (line 3)")
	assert.Contains(t, err.Error(), "[1] Begin Fib#1:2")
}

func TestIRAssertions(t *testing.T) {
	result := &Result{IR: "define i32 @A(i32 %0) {\n  %2 = add i32 %0, 1\n  %3 = add i32 %2, 1\n  ret i32 %3\n}\n"}

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertIRContains, Text: "ret i32 %3"},
		{Type: AssertIRCount, Text: "add i32", Count: 2},
	}, nil))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertIRContains, Text: "phi"},
		{Type: AssertIRCount, Text: "add i32", Count: 1},
	}, nil)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[1], "found 2 time(s)")
}

func TestUnknownAssertion(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "ir_matches"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "ir_matches"`)
}

func TestFinalStateNeedsStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertFinalState, Table: "compilations"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestFinalState(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, rec := range []store.Compilation{
		{ID: "a", ProgramHash: "h", Entry: "Fib", Status: store.StatusOK, IR: "define", Instances: 4, Seq: 1},
		{ID: "b", ProgramHash: "h", Entry: "Fib", Status: store.StatusError, ErrorCode: "QUOTA_EXCEEDED", Seq: 2},
	} {
		require.NoError(t, st.WriteCompilation(ctx, rec))
	}
	actx := &AssertionContext{Store: st, Ctx: ctx}

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"match", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"id": "a"}, Expect: map[string]any{"status": "ok", "instances": 4}}, ""},
		{"two filters", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"program_hash": "h", "seq": 2}, Expect: map[string]any{"error_code": "QUOTA_EXCEEDED"}}, ""},
		{"wrong value", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"id": "a"}, Expect: map[string]any{"instances": 5}}, `column "instances" = 4`},
		{"missing column", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"id": "a"}, Expect: map[string]any{"ghost": 1}}, `column "ghost" to exist`},
		{"no row", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"id": "z"}, Expect: map[string]any{"status": "ok"}}, "row not found"},
		{"ambiguous", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"program_hash": "h"}, Expect: map[string]any{"status": "ok"}}, "multiple rows matched"},
		{"bad table", Assertion{Type: AssertFinalState, Table: "compilations; DROP TABLE graphs",
			Expect: map[string]any{"status": "ok"}}, "invalid table name"},
		{"bad column", Assertion{Type: AssertFinalState, Table: "compilations",
			Where: map[string]any{"id = id OR 1": 1}, Expect: map[string]any{"status": "ok"}}, "invalid column name"},
		{"unknown table", Assertion{Type: AssertFinalState, Table: "ghosts",
			Expect: map[string]any{"status": "ok"}}, "query error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, actx)
			if tt.want == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"seq": 1, "id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "id = ? AND seq = ?", sql)
	assert.Equal(t, []any{"a", 1}, args)

	sql, args, err = buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(3, int64(3)))
	assert.True(t, stateValuesEqual(int64(3), int64(3)))
	assert.True(t, stateValuesEqual("ok", []byte("ok")))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual(3, "3"))
	assert.False(t, stateValuesEqual("", nil))
}
