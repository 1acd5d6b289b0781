package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
)

// Compilation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Compilation is one compile session.
type Compilation struct {
	ID          string         `json:"id"`
	ProgramHash string         `json:"program_hash"`
	Entry       string         `json:"entry"`
	Inputs      graph.Operands `json:"-"`
	Status      string         `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	IR          string         `json:"ir,omitempty"`
	Instances   int            `json:"instances"`
	Trace       []string       `json:"trace,omitempty"`
	Seq         int64          `json:"seq"`
}

// NextSeq returns one past the highest recorded seq, or 1 on an empty store.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM compilations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq.Int64 + 1, nil
}

// WriteCompilation inserts a compilation record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a session is a no-op.
func (s *Store) WriteCompilation(ctx context.Context, c Compilation) error {
	if c.Status != StatusOK && c.Status != StatusError {
		return fmt.Errorf("write compilation: invalid status %q", c.Status)
	}
	inputs, err := marshalInputs(c.Inputs)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}
	trace, err := marshalTrace(c.Trace)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compilations
		(id, program_hash, entry, inputs, status, error_code, ir, instances, trace, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.ProgramHash,
		c.Entry,
		inputs,
		c.Status,
		c.ErrorCode,
		c.IR,
		c.Instances,
		trace,
		c.Seq,
	)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}
	return nil
}

const compilationColumns = `id, program_hash, entry, inputs, status, error_code, ir, instances, trace, seq`

// ReadCompilation returns the compilation with the given session id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCompilation(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+compilationColumns+` FROM compilations WHERE id = ?
	`, id)
	return scanCompilation(row)
}

// ReadCompilations lists compilations, optionally restricted to one program
// hash. Results are ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadCompilations(ctx context.Context, programHash string) ([]Compilation, error) {
	query := `SELECT ` + compilationColumns + ` FROM compilations`
	var args []any
	if programHash != "" {
		query += ` WHERE program_hash = ?`
		args = append(args, programHash)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

// ReadCompilationByProgram returns the most recent successful compilation of
// a program hash. Returns sql.ErrNoRows on a cache miss.
func (s *Store) ReadCompilationByProgram(ctx context.Context, programHash string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+compilationColumns+` FROM compilations
		WHERE program_hash = ? AND status = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, programHash, StatusOK)
	return scanCompilation(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var c Compilation
	var inputs, trace string
	err := row.Scan(&c.ID, &c.ProgramHash, &c.Entry, &inputs, &c.Status,
		&c.ErrorCode, &c.IR, &c.Instances, &trace, &c.Seq)
	if err == sql.ErrNoRows {
		return Compilation{}, err
	}
	if err != nil {
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}
	if c.Inputs, err = unmarshalInputs(inputs); err != nil {
		return Compilation{}, err
	}
	if c.Trace, err = unmarshalTrace(trace); err != nil {
		return Compilation{}, err
	}
	return c, nil
}
