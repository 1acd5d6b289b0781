package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	EngineOptions
	Database string
	Session  string // optional - specific compilation only
}

// ReplaySessionResult holds the replay result for a single compilation.
type ReplaySessionResult struct {
	Session       string `json:"session"`
	ProgramHash   string `json:"program_hash"`
	Entry         string `json:"entry"`
	Status        string `json:"status"`
	ErrorCode     string `json:"error_code,omitempty"`
	Deterministic bool   `json:"deterministic"`
	Reason        string `json:"reason,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompile recorded sessions and verify determinism",
		Long: `Recompile every recorded compilation from its stored graph snapshot and
compare the outcome with the record: the module text for successful
compilations, the error code for failed ones.

Engine flags (--strict, --max-instances, --ident) must match the ones the
compilations were recorded with.

Exit codes:
  0 - All sessions reproduce
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  symatem replay --db ./symatem.db
  symatem replay --db ./symatem.db --session 0190a0c2-...
  symatem replay --db ./symatem.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")
	opts.EngineOptions.register(cmd)

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []store.Compilation
	if opts.Session != "" {
		rec, err := st.ReadCompilation(ctx, opts.Session)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session %s not found", opts.Session))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read compilation", err)
		}
		records = []store.Compilation{rec}
	} else {
		records, err = st.ReadCompilations(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list compilations", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(records)),
		TotalSessions:    len(records),
		AllDeterministic: true,
	}
	if len(records) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No compilations found in database.")
		return nil
	}

	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())
	for _, rec := range records {
		r, err := replaySession(ctx, st, rec, opts.EngineOptions, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", rec.ID), err)
		}
		result.Sessions = append(result.Sessions, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// replaySession restores the graph a compilation started from and runs it again.
func replaySession(ctx context.Context, st *store.Store, rec store.Compilation, engineOpts EngineOptions, logger *slog.Logger) (ReplaySessionResult, error) {
	r := ReplaySessionResult{
		Session:     rec.ID,
		ProgramHash: rec.ProgramHash,
		Entry:       rec.Entry,
		Status:      rec.Status,
		ErrorCode:   rec.ErrorCode,
	}

	snap, err := st.LoadGraph(ctx, rec.ProgramHash)
	if err != nil {
		return r, fmt.Errorf("load graph %s: %w", rec.ProgramHash, err)
	}
	res, err := compileGraph(graph.Restore(snap), rec.Inputs, engineOpts.options(logger))
	if err != nil {
		return r, err
	}

	switch {
	case res.Err != nil && rec.Status == store.StatusOK:
		r.Reason = fmt.Sprintf("recorded ok, replay failed with %s", res.Err.Code)
	case res.Err == nil && rec.Status == store.StatusError:
		r.Reason = fmt.Sprintf("recorded %s, replay succeeded", rec.ErrorCode)
	case res.Err != nil && string(res.Err.Code) != rec.ErrorCode:
		r.Reason = fmt.Sprintf("recorded %s, replay failed with %s", rec.ErrorCode, res.Err.Code)
	case res.Err == nil && res.IR != rec.IR:
		r.Reason = "module text differs"
	default:
		r.Deterministic = true
	}
	return r, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeNotDeterministic,
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		mark := "✓"
		if !s.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", mark, s.Session)
		outcome := s.Status
		if s.ErrorCode != "" {
			outcome += " " + s.ErrorCode
		}
		fmt.Fprintf(w, "  %s (%s): %s\n", s.Entry, shortHash(s.ProgramHash), outcome)
		if !s.Deterministic {
			fmt.Fprintf(w, "  Warning: %s\n", s.Reason)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
