package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
)

// SaveGraph stores a snapshot under id, replacing any earlier snapshot with
// the same id. The write is a single transaction.
func (s *Store) SaveGraph(ctx context.Context, id string, snap graph.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (id, triples, symbols) VALUES (?, ?, ?)
	`, id, len(snap.Triples), len(snap.Data)); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	triple, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_triples (graph_id, entity, attribute, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	defer triple.Close()
	for _, t := range snap.Triples {
		if _, err := triple.ExecContext(ctx, id, int64(t.Entity), int64(t.Attribute), int64(t.Value)); err != nil {
			return fmt.Errorf("save graph triple %v: %w", t, err)
		}
	}

	data, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_data (graph_id, symbol, data, length) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	defer data.Close()
	for _, d := range snap.Data {
		if _, err := data.ExecContext(ctx, id, int64(d.Symbol), d.Data, d.Length); err != nil {
			return fmt.Errorf("save graph data %s: %w", d.Symbol, err)
		}
	}

	for ns, next := range snap.Counters {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO graph_counters (graph_id, namespace, next) VALUES (?, ?, ?)
		`, id, int64(ns), int64(next)); err != nil {
			return fmt.Errorf("save graph counter %d: %w", ns, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}

// LoadGraph reads the snapshot stored under id.
// Returns sql.ErrNoRows if no snapshot exists.
func (s *Store) LoadGraph(ctx context.Context, id string) (graph.Snapshot, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graphs WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("load graph: %w", err)
	}
	if count == 0 {
		return graph.Snapshot{}, sql.ErrNoRows
	}

	snap := graph.Snapshot{Counters: map[uint32]uint32{}}
	if snap.Triples, err = s.loadTriples(ctx, id); err != nil {
		return graph.Snapshot{}, err
	}
	if snap.Data, err = s.loadData(ctx, id); err != nil {
		return graph.Snapshot{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, next FROM graph_counters WHERE graph_id = ? ORDER BY namespace ASC
	`, id)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("query graph counters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns, next int64
		if err := rows.Scan(&ns, &next); err != nil {
			return graph.Snapshot{}, fmt.Errorf("scan graph counter: %w", err)
		}
		snap.Counters[uint32(ns)] = uint32(next)
	}
	if err := rows.Err(); err != nil {
		return graph.Snapshot{}, fmt.Errorf("iterate graph counters: %w", err)
	}
	return snap, nil
}

func (s *Store) loadTriples(ctx context.Context, id string) ([]graph.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, attribute, value FROM graph_triples WHERE graph_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query graph triples: %w", err)
	}
	defer rows.Close()

	var triples []graph.Triple
	for rows.Next() {
		var e, a, v int64
		if err := rows.Scan(&e, &a, &v); err != nil {
			return nil, fmt.Errorf("scan graph triple: %w", err)
		}
		triples = append(triples, graph.Triple{
			Entity:    graph.Symbol(uint64(e)),
			Attribute: graph.Symbol(uint64(a)),
			Value:     graph.Symbol(uint64(v)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graph triples: %w", err)
	}
	// SQL orders the signed bit pattern; restore unsigned symbol order.
	sortTriples(triples)
	return triples, nil
}

func (s *Store) loadData(ctx context.Context, id string) ([]graph.SymbolData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, data, length FROM graph_data WHERE graph_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query graph data: %w", err)
	}
	defer rows.Close()

	var out []graph.SymbolData
	for rows.Next() {
		var sym int64
		var d graph.SymbolData
		if err := rows.Scan(&sym, &d.Data, &d.Length); err != nil {
			return nil, fmt.Errorf("scan graph data: %w", err)
		}
		d.Symbol = graph.Symbol(uint64(sym))
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graph data: %w", err)
	}
	sortData(out)
	return out, nil
}
