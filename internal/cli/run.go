package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recompose/internal/harness"
	"github.com/roach88/recompose/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // record the run here when set
	HTML     bool   // include the final tree as HTML
}

// RunOutput is the result of the run command.
type RunOutput struct {
	Name    string        `json:"name"`
	Pass    bool          `json:"pass"`
	Errors  []string      `json:"errors,omitempty"`
	Summary trace.Summary `json:"summary"`
	Hash    string        `json:"hash"`
	Text    string        `json:"text"`
	RunID   string        `json:"run_id,omitempty"`
	HTML    string        `json:"html,omitempty"`
}

func (o RunOutput) String() string {
	var b strings.Builder
	mark := "✓"
	if !o.Pass {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %s\n", mark, o.Name)
	fmt.Fprintf(&b, "  %s\n", o.Summary)
	fmt.Fprintf(&b, "  tree: %s\n", o.Text)
	fmt.Fprintf(&b, "  hash: %s", o.Hash)
	if o.RunID != "" {
		fmt.Fprintf(&b, "\n  run:  %s", o.RunID)
	}
	for _, e := range o.Errors {
		fmt.Fprintf(&b, "\n  %s", e)
	}
	if o.HTML != "" {
		fmt.Fprintf(&b, "\n%s", o.HTML)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and summarize its trace",
		Long: `Run a scenario against its demo app and print a summary of the
applier trace, the final tree and the trace hash.

Exit codes:
  0 - Scenario ran and every assertion held
  1 - A pass failed or an assertion did not hold
  2 - Command error (missing file, invalid scenario, database error)

Examples:
  recompose run scenarios/counter.yaml
  recompose run scenarios/counter.yaml --db ./traces.db
  recompose run scenarios/counter.yaml --html`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "print the final tree as HTML")

	return cmd
}

func runScenarioCommand(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	sc, err := loadScenario(path)
	if err != nil {
		return out.report(CodeLoad, err)
	}

	runOpts := []harness.Option{harness.WithLogger(opts.logger(cmd.ErrOrStderr()))}
	if opts.HTML {
		runOpts = append(runOpts, harness.WithHTML())
	}
	if opts.Database != "" {
		st, err := openStore(opts.Database, false)
		if err != nil {
			return out.report(CodeStore, err)
		}
		defer st.Close()
		runOpts = append(runOpts, harness.WithStore(st))
	}

	out.VerboseLog("running scenario %s (app %s)", sc.Name, sc.App)
	result, err := harness.Run(cmd.Context(), sc, runOpts...)
	if err != nil {
		return out.report(CodeRun, WrapExitError(ExitCommandError, "failed to run scenario", err))
	}

	res := RunOutput{
		Name:    sc.Name,
		Pass:    result.Pass,
		Errors:  result.Errors,
		Summary: trace.Summarize(result.Ops),
		Hash:    result.Hash,
		Text:    result.Text,
		RunID:   result.RunID,
		HTML:    result.HTML,
	}
	if !result.Pass {
		if err := out.Failure(res); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", sc.Name))
	}
	return out.Success(res)
}
