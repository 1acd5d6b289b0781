package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Symatem/Compiler/internal/engine"
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/program"
)

// loadedProgram is a definition that passed validation and was written into
// a fresh graph.
type loadedProgram struct {
	Path       string
	Definition *program.Definition
	Program    *program.Program
	Graph      *graph.MemoryStore
	Hash       string
}

// invalidProgram carries every static check failure of a definition.
type invalidProgram struct {
	Errors []program.ValidationError
}

func (e *invalidProgram) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(e.Errors))
}

// loadProgram reads, validates, hashes and builds a program file.
// Errors are *program.LoadError, *invalidProgram, or a build error.
func loadProgram(path string) (*loadedProgram, error) {
	def, err := program.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := program.Validate(def); len(errs) > 0 {
		return nil, &invalidProgram{Errors: errs}
	}
	hash, err := program.Hash(def)
	if err != nil {
		return nil, fmt.Errorf("hash program: %w", err)
	}
	mem := graph.NewMemoryStore()
	prog, err := program.Build(mem, def)
	if err != nil {
		return nil, fmt.Errorf("build program: %w", err)
	}
	return &loadedProgram{Path: path, Definition: def, Program: prog, Graph: mem, Hash: hash}, nil
}

// reportLoadError renders a loadProgram failure and returns the exit error.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *program.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "load program", err)
	}
	var invalid *invalidProgram
	if errors.As(err, &invalid) {
		return outputValidationErrors(formatter, invalid.Errors)
	}
	_ = formatter.Error(ErrCodeBuildFailed, err.Error(), nil)
	return WrapExitError(ExitCommandError, "build program", err)
}

// EngineOptions holds the flags that configure a Compiler.
// compile and replay share them so a replay can reproduce a compilation.
type EngineOptions struct {
	Strict       bool
	MaxInstances int
	Ident        string
}

func (o *EngineOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.Strict, "strict", false, "fail on carriers whose source lacks the operand instead of substituting Void")
	cmd.Flags().IntVar(&o.MaxInstances, "max-instances", engine.DefaultMaxInstances, "maximum operator instances per compilation (0 = unlimited)")
	cmd.Flags().StringVar(&o.Ident, "ident", "", "producer string emitted as !llvm.ident metadata")
}

func (o *EngineOptions) options(logger *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxInstances(o.MaxInstances),
	}
	if o.Strict {
		opts = append(opts, engine.WithMissingOperandPolicy(engine.PolicyFail))
	}
	if o.Ident != "" {
		opts = append(opts, engine.WithIdentity(o.Ident))
	}
	return opts
}

// compileResult is the outcome of one Execute run.
type compileResult struct {
	Session   string
	Function  string
	IR        string
	Instances int
	Trace     []string
	Err       *engine.CompileError
}

// compileGraph runs the entry invocation on store. A compile error is part
// of the result; the returned error is reserved for failures outside the
// compiler.
func compileGraph(store graph.Store, inputs graph.Operands, opts []engine.Option) (*compileResult, error) {
	c, err := engine.New(store, opts...)
	if err != nil {
		return nil, err
	}
	res := &compileResult{Session: c.Session()}
	inst, err := c.Execute(inputs, true)
	res.Instances = len(c.Instances())
	res.Trace = c.Trace().Lines()
	if err != nil {
		var ce *engine.CompileError
		if !errors.As(err, &ce) {
			return nil, err
		}
		res.Err = ce
		return res, nil
	}
	if inst.Function != nil {
		res.Function = inst.Function.Name
	}
	if res.IR, err = c.IR(); err != nil {
		return nil, fmt.Errorf("render module: %w", err)
	}
	return res, nil
}
