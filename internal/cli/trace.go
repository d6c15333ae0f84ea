package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recompose/internal/store"
	"github.com/roach88/recompose/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kind     string // only ops of this kind
}

// RunList is the text/JSON view of the recorded runs.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d  %s  %s  %s/%s  %.12s", r.Seq, r.ID, r.Scenario, r.App, r.Discipline, r.TraceHash)
	}
	return b.String()
}

// RunTrace is the text/JSON view of one run's trace.
type RunTrace struct {
	Run    store.Run          `json:"run"`
	Passes []store.PassRecord `json:"passes"`
	Ops    []trace.Op         `json:"ops"`
}

func (t RunTrace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s, %s/%s)\n", t.Run.ID, t.Run.Scenario, t.Run.App, t.Run.Discipline)
	fmt.Fprintf(&b, "hash %s\n", t.Run.TraceHash)
	for _, p := range t.Passes {
		fmt.Fprintf(&b, "pass %d: batches=%d invalidated=%d recomposed=%d executed=%d skipped=%d\n",
			p.Pass, p.Batches, p.Invalidated, p.Recomposed, p.Executed, p.Skipped)
	}
	b.WriteString(strings.TrimSuffix(trace.Text(t.Ops), "\n"))
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "List recorded runs or print one run's trace",
		Long: `Without a run id, list every run recorded in the database.
With a run id, print its pass counters and applier ops.

Examples:
  recompose trace --db ./traces.db
  recompose trace --db ./traces.db 0190c3c4-...
  recompose trace --db ./traces.db 0190c3c4-... --kind update`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show ops of this kind")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Kind != "" && !trace.Kind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown op kind %q (want one of %v)", opts.Kind, trace.Kinds))
	}

	st, err := openStore(opts.Database, true)
	if err != nil {
		return out.report(CodeStore, err)
	}
	defer st.Close()

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return out.Success(RunList{Runs: runs})
	}

	run, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return out.report(CodeStore, WrapExitError(ExitCommandError, "unknown run", err))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	passes, err := st.ReadPasses(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read passes", err)
	}
	var ops []trace.Op
	if opts.Kind != "" {
		ops, err = st.ReadOpsByKind(ctx, run.ID, trace.Kind(opts.Kind))
	} else {
		ops, err = st.ReadOps(ctx, run.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ops", err)
	}

	return out.Success(RunTrace{Run: run, Passes: passes, Ops: ops})
}
