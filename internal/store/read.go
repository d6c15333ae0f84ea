package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recompose/internal/trace"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, app, discipline, trace_hash, seq
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run in recording order.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, app, discipline, trace_hash, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadPasses returns the pass records of a run ordered by pass.
func (s *Store) ReadPasses(ctx context.Context, runID string) ([]PassRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pass, batches, invalidated, recomposed, executed, skipped
		FROM passes
		WHERE run_id = ?
		ORDER BY pass ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []PassRecord{}
	for rows.Next() {
		var p PassRecord
		if err := rows.Scan(&p.Pass, &p.Batches, &p.Invalidated, &p.Recomposed, &p.Executed, &p.Skipped); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// ReadOps returns the ops of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run recorded no ops.
func (s *Store) ReadOps(ctx context.Context, runID string) ([]trace.Op, error) {
	return s.queryOps(ctx, `
		SELECT seq, pass, kind, parent, idx, to_idx, count, node, value
		FROM ops
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadOpsByKind returns the ops of one kind in a run ordered by seq.
func (s *Store) ReadOpsByKind(ctx context.Context, runID string, kind trace.Kind) ([]trace.Op, error) {
	return s.queryOps(ctx, `
		SELECT seq, pass, kind, parent, idx, to_idx, count, node, value
		FROM ops
		WHERE run_id = ? AND kind = ?
		ORDER BY seq ASC
	`, runID, string(kind))
}

func (s *Store) queryOps(ctx context.Context, query string, args ...any) ([]trace.Op, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []trace.Op{}
	for rows.Next() {
		var (
			op    trace.Op
			kind  string
			value []byte
		)
		if err := rows.Scan(&op.Seq, &op.Pass, &kind, &op.Parent, &op.Index, &op.To, &op.Count, &op.Node, &value); err != nil {
			return nil, fmt.Errorf("scan op: %w", err)
		}
		op.Kind = trace.Kind(kind)
		if op.Value, err = unmarshalValue(value); err != nil {
			return nil, fmt.Errorf("op %d: %w", op.Seq, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	err := sc.Scan(&r.ID, &r.Scenario, &r.App, &r.Discipline, &r.TraceHash, &r.Seq)
	return r, err
}
