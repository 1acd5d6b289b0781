package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Symatem/Compiler/internal/engine"
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/program"
	"github.com/Symatem/Compiler/internal/store"
	"github.com/Symatem/Compiler/internal/testutil"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store    *store.Store
	sessions *testutil.FixedSessionGenerator
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh graph and a fresh in-memory database.
// The returned error is reserved for failures of the harness itself
// (unreadable program, database errors); compile and validation errors
// are outcomes checked against the expect clause.
//
// Execution flow:
// 1. Load and validate the program
// 2. Build it into a fresh graph and snapshot the graph
// 3. Compile the entry operator with a fixed session id
// 4. Record the compilation
// 5. Check the expect clause and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		sessions: testutil.NewFixedSessionGenerator(scenario.Session),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.compile(ctx, scenario, result); err != nil {
		return nil, err
	}

	checkExpect(scenario.Expect, result)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) compile(ctx context.Context, scenario *Scenario, result *Result) error {
	def, err := program.Load(scenario.Program)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	if errs := program.Validate(def); len(errs) > 0 {
		result.ErrorCode = errs[0].Code
		for _, e := range errs {
			h.logger.Info("validation error", "scenario", scenario.Name, "error", e.Error())
		}
		return nil
	}
	hash, err := program.Hash(def)
	if err != nil {
		return fmt.Errorf("hash program: %w", err)
	}

	mem := graph.NewMemoryStore()
	prog, err := program.Build(mem, def)
	if err != nil {
		return fmt.Errorf("build program: %w", err)
	}
	if err := h.store.SaveGraph(ctx, hash, mem.Snapshot()); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithSessionGenerator(h.sessions),
	}
	if scenario.Strict {
		opts = append(opts, engine.WithMissingOperandPolicy(engine.PolicyFail))
	}
	if scenario.MaxInstances > 0 {
		opts = append(opts, engine.WithMaxInstances(scenario.MaxInstances))
	}
	c, err := engine.New(mem, opts...)
	if err != nil {
		return fmt.Errorf("create compiler: %w", err)
	}
	result.Session = c.Session()

	rec := store.Compilation{
		ID:          c.Session(),
		ProgramHash: hash,
		Entry:       def.Entry,
		Inputs:      prog.Inputs,
		Status:      store.StatusOK,
		Seq:         1,
	}

	inst, execErr := c.Execute(prog.Inputs, true)
	result.Trace = c.Trace().Lines()
	rec.Trace = result.Trace
	rec.Instances = len(c.Instances())
	if execErr != nil {
		var ce *engine.CompileError
		if !errors.As(execErr, &ce) {
			return fmt.Errorf("compile: %w", execErr)
		}
		result.ErrorCode = string(ce.Code)
		rec.Status = store.StatusError
		rec.ErrorCode = result.ErrorCode
	} else {
		if inst.Function != nil {
			result.Function = inst.Function.Name
		}
		if result.IR, err = c.IR(); err != nil {
			return fmt.Errorf("render module: %w", err)
		}
		rec.IR = result.IR
	}

	if err := h.store.WriteCompilation(ctx, rec); err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}
	h.logger.Info("scenario compiled",
		"scenario", scenario.Name,
		"session", rec.ID,
		"status", rec.Status,
		"instances", rec.Instances,
	)
	return nil
}

// checkExpect compares the outcome with the expect clause.
func checkExpect(expect ExpectClause, result *Result) {
	switch {
	case expect.Error == "" && result.ErrorCode != "":
		result.AddError(fmt.Sprintf("expected success, got error %s", result.ErrorCode))
	case expect.Error != "" && result.ErrorCode != expect.Error:
		got := result.ErrorCode
		if got == "" {
			got = "success"
		}
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, got))
	}
	if expect.Function != "" && result.Function != expect.Function {
		result.AddError(fmt.Sprintf("expected function %q, got %q", expect.Function, result.Function))
	}
}
