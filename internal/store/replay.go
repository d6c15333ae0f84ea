package store

import (
	"context"
	"fmt"

	"github.com/roach88/recompose/internal/trace"
)

// ReplayResult compares a fresh trace against a recorded run.
type ReplayResult struct {
	RunID      string `json:"run_id"`
	StoredHash string `json:"stored_hash"`
	ReplayHash string `json:"replay_hash"`
	Match      bool   `json:"match"`
	// FirstDiff is the index of the first op that differs in kind, shape or
	// value, ignoring Seq; -1 when the op lists are equal.
	FirstDiff int `json:"first_diff"`
}

// CompareReplay checks ops against the trace recorded for runID. Hashes
// decide Match; FirstDiff helps locate a mismatch.
func (s *Store) CompareReplay(ctx context.Context, runID string, ops []trace.Op) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("compare replay: %w", err)
	}
	stored, err := s.ReadOps(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("compare replay: %w", err)
	}
	hash, err := trace.Hash(ops)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("compare replay: %w", err)
	}

	return ReplayResult{
		RunID:      runID,
		StoredHash: run.TraceHash,
		ReplayHash: hash,
		Match:      hash == run.TraceHash,
		FirstDiff:  firstDiff(stored, ops),
	}, nil
}

func firstDiff(a, b []trace.Op) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		x, y := a[i], b[i]
		x.Seq, y.Seq = 0, 0
		if x != y {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
