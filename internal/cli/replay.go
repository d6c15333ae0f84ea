package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recompose/internal/harness"
	"github.com/roach88/recompose/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayOutput is the result of the replay command.
type ReplayOutput struct {
	store.ReplayResult
	Scenario string `json:"scenario"`
}

func (r ReplayOutput) String() string {
	if r.Match {
		return fmt.Sprintf("✓ run %s replays deterministically (%s)\n  hash: %s", r.RunID, r.Scenario, r.ReplayHash)
	}
	return fmt.Sprintf("✗ run %s diverged (%s)\n  stored: %s\n  replay: %s\n  first differing op: %d",
		r.RunID, r.Scenario, r.StoredHash, r.ReplayHash, r.FirstDiff)
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id> <scenario.yaml>",
		Short: "Re-run a scenario and compare it with a recorded run",
		Long: `Re-run a scenario and compare the trace hash of the fresh run with the
hash recorded for run-id.

Exit codes:
  0 - The replay matches the recorded trace
  1 - The traces differ
  2 - Command error (database not found, unknown run, etc.)

Examples:
  recompose replay --db ./traces.db 0190c3c4-... scenarios/counter.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, runID, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.Database, true)
	if err != nil {
		return out.report(CodeStore, err)
	}
	defer st.Close()

	sc, err := loadScenario(path)
	if err != nil {
		return out.report(CodeLoad, err)
	}

	result, err := harness.Run(ctx, sc, harness.WithLogger(opts.logger(cmd.ErrOrStderr())))
	if err != nil {
		return out.report(CodeRun, WrapExitError(ExitCommandError, "failed to run scenario", err))
	}

	cmp, err := st.CompareReplay(ctx, runID, result.Ops)
	if errors.Is(err, store.ErrNotFound) {
		return out.report(CodeStore, WrapExitError(ExitCommandError, "unknown run", err))
	}
	if err != nil {
		return out.report(CodeStore, WrapExitError(ExitCommandError, "failed to compare replay", err))
	}

	res := ReplayOutput{ReplayResult: cmp, Scenario: sc.Name}
	if !cmp.Match {
		if err := out.Failure(res); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("run %s is not reproduced", runID))
	}
	return out.Success(res)
}
