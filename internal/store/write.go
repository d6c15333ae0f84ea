package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recompose/internal/trace"
)

// Run is one recorded scenario execution.
type Run struct {
	ID         string `json:"id"`
	Scenario   string `json:"scenario"`
	App        string `json:"app"`
	Discipline string `json:"discipline"`
	TraceHash  string `json:"trace_hash"`
	// Seq orders runs; assigned by Record.
	Seq int64 `json:"seq"`
}

// PassRecord holds the counters of one composition pass.
type PassRecord struct {
	Pass        int64 `json:"pass"`
	Batches     int   `json:"batches"`
	Invalidated int   `json:"invalidated"`
	Recomposed  int   `json:"recomposed"`
	Executed    int   `json:"executed"`
	Skipped     int   `json:"skipped"`
}

// ErrRunExists is returned when recording a run id that is already stored.
var ErrRunExists = errors.New("run already recorded")

// Record writes a run with its passes and ops in one transaction and
// returns the run with Seq assigned. Ops are written in slice order; their
// Seq values must be unique within the run.
func (s *Store) Record(ctx context.Context, run Run, passes []PassRecord, ops []trace.Op) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, run.ID).Scan(&exists)
	switch {
	case err == nil:
		return Run{}, fmt.Errorf("record run %s: %w", run.ID, ErrRunExists)
	case !errors.Is(err, sql.ErrNoRows):
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, app, discipline, trace_hash, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Scenario, run.App, run.Discipline, run.TraceHash, run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := writePasses(ctx, tx, run.ID, passes); err != nil {
		return Run{}, err
	}
	if err := writeOps(ctx, tx, run.ID, ops); err != nil {
		return Run{}, err
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

func writePasses(ctx context.Context, tx *sql.Tx, runID string, passes []PassRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passes (run_id, pass, batches, invalidated, recomposed, executed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write passes: %w", err)
	}
	defer stmt.Close()

	for _, p := range passes {
		if _, err := stmt.ExecContext(ctx, runID, p.Pass, p.Batches, p.Invalidated, p.Recomposed, p.Executed, p.Skipped); err != nil {
			return fmt.Errorf("write pass %d: %w", p.Pass, err)
		}
	}
	return nil
}

func writeOps(ctx context.Context, tx *sql.Tx, runID string, ops []trace.Op) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ops (run_id, seq, pass, kind, parent, idx, to_idx, count, node, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write ops: %w", err)
	}
	defer stmt.Close()

	for _, op := range ops {
		if !op.Kind.Valid() {
			return fmt.Errorf("write op %d: unknown kind %q", op.Seq, op.Kind)
		}
		value, err := marshalValue(op.Value)
		if err != nil {
			return fmt.Errorf("write op %d: %w", op.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, op.Seq, op.Pass, string(op.Kind),
			op.Parent, op.Index, op.To, op.Count, op.Node, value); err != nil {
			return fmt.Errorf("write op %d: %w", op.Seq, err)
		}
	}
	return nil
}
