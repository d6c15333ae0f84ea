package harness

import (
	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/trace"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the run completed and every assertion held.
	Pass bool `json:"pass"`

	// Errors holds pass failures and assertion failures, in order.
	Errors []string `json:"errors,omitempty"`

	// Ops is the recorded applier trace.
	Ops []trace.Op `json:"ops"`

	// Passes holds the composer's counters for each pass that ran.
	Passes []compose.Pass `json:"passes"`

	// Hash is the content hash of Ops.
	Hash string `json:"hash"`

	// Values lists the final tree's node values in document order.
	Values []string `json:"values"`

	// Text is the final tree's leaf values, space separated.
	Text string `json:"text"`

	// HTML is the final tree rendered as nested lists.
	HTML string `json:"html,omitempty"`

	// RunID is set when the run was recorded to a store.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Ops:    []trace.Op{},
		Passes: []compose.Pass{},
		Values: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Recomposed sums the recomposed scopes of pass, or of every pass when pass
// is not positive.
func (r *Result) Recomposed(pass int64) int {
	n := 0
	for _, p := range r.Passes {
		if pass <= 0 || p.Seq == pass {
			n += p.Recomposed
		}
	}
	return n
}
