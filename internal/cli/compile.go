package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Symatem/Compiler/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	EngineOptions
	Output   string // output file path
	Database string // optional history/cache database
	Force    bool   // ignore a cached compilation
}

// CompileOutput is the JSON payload of a compile run.
type CompileOutput struct {
	Session     string   `json:"session"`
	ProgramHash string   `json:"program_hash"`
	Entry       string   `json:"entry"`
	Function    string   `json:"function,omitempty"`
	Instances   int      `json:"instances"`
	Cached      bool     `json:"cached"`
	IR          string   `json:"ir"`
	Trace       []string `json:"trace,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a program to LLVM IR",
		Long: `Compile the entry operator of a program file (.cue, .yaml, .hcl) to
LLVM IR module text.

With --db the built graph and the compilation are recorded, and a program
whose hash already compiled successfully is answered from the database
unless --force is given.

Exit codes:
  0 - Module produced
  1 - Validation or compile error
  2 - Command error (unreadable program, database error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the compilation in this SQLite database")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "recompile even if the database holds a cached module")
	opts.EngineOptions.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	lp, err := loadProgram(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %s: %d operator(s), hash %s", path, len(lp.Definition.Operators), lp.Hash)

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, fmt.Sprintf("open database: %v", err), nil, ExitCommandError)
		}
		defer st.Close()

		if !opts.Force {
			cached, err := st.ReadCompilationByProgram(ctx, lp.Hash)
			switch {
			case err == nil:
				formatter.VerboseLog("Cache hit: session %s", cached.ID)
				return outputCompileSuccess(formatter, opts.Output, CompileOutput{
					Session:     cached.ID,
					ProgramHash: cached.ProgramHash,
					Entry:       cached.Entry,
					Instances:   cached.Instances,
					Cached:      true,
					IR:          cached.IR,
				})
			case !errors.Is(err, sql.ErrNoRows):
				return outputCompileError(formatter, ErrCodeDatabase, fmt.Sprintf("read cache: %v", err), nil, ExitCommandError)
			}
		}

		// The snapshot precedes compilation so replay starts from the same graph.
		if err := st.SaveGraph(ctx, lp.Hash, lp.Graph.Snapshot()); err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, fmt.Sprintf("save graph: %v", err), nil, ExitCommandError)
		}
	}

	res, err := compileGraph(lp.Graph, lp.Program.Inputs, opts.EngineOptions.options(newLogger(opts.Verbose, formatter.GetErrWriter())))
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil, ExitCommandError)
	}

	if st != nil {
		if err := recordCompilation(ctx, st, lp, res); err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, fmt.Sprintf("record compilation: %v", err), nil, ExitCommandError)
		}
	}

	if res.Err != nil {
		var details any
		if opts.Verbose {
			details = res.Err.Trace
		}
		return outputCompileError(formatter, string(res.Err.Code), res.Err.Error(), details, ExitFailure)
	}

	out := CompileOutput{
		Session:     res.Session,
		ProgramHash: lp.Hash,
		Entry:       lp.Definition.Entry,
		Function:    res.Function,
		Instances:   res.Instances,
		IR:          res.IR,
	}
	if opts.Verbose {
		out.Trace = res.Trace
	}
	return outputCompileSuccess(formatter, opts.Output, out)
}

func recordCompilation(ctx context.Context, st *store.Store, lp *loadedProgram, res *compileResult) error {
	seq, err := st.NextSeq(ctx)
	if err != nil {
		return err
	}
	rec := store.Compilation{
		ID:          res.Session,
		ProgramHash: lp.Hash,
		Entry:       lp.Definition.Entry,
		Inputs:      lp.Program.Inputs,
		Status:      store.StatusOK,
		IR:          res.IR,
		Instances:   res.Instances,
		Trace:       res.Trace,
		Seq:         seq,
	}
	if res.Err != nil {
		rec.Status = store.StatusError
		rec.ErrorCode = string(res.Err.Code)
	}
	return st.WriteCompilation(ctx, rec)
}

// outputCompileSuccess writes the module to the output file or stdout.
func outputCompileSuccess(formatter *OutputFormatter, outputFile string, out CompileOutput) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out.IR), 0644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil, ExitCommandError)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	for _, line := range out.Trace {
		formatter.VerboseLog("%s", line)
	}
	if outputFile != "" {
		suffix := ""
		if out.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(formatter.Writer, "✓ Wrote %s to %s%s\n", out.Entry, outputFile, suffix)
		return nil
	}
	fmt.Fprint(formatter.Writer, out.IR)
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any, exit int) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), nil)
}
