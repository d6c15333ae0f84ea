package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/recompose/internal/applier"
	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/demo"
	"github.com/roach88/recompose/internal/state"
	"github.com/roach88/recompose/internal/store"
	"github.com/roach88/recompose/internal/testutil"
	"github.com/roach88/recompose/internal/trace"
)

// IDGenerator mints run ids for recorded runs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a run.
type Option func(*runner)

// WithStore records the run, its passes and its ops to st.
func WithStore(st *store.Store) Option {
	return func(r *runner) {
		r.store = st
	}
}

// WithIDGenerator sets the run id source. Default UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *runner) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithLogger sets the logger handed to the composer. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHTML renders the final tree into Result.HTML.
func WithHTML() Option {
	return func(r *runner) {
		r.html = true
	}
}

type runner struct {
	store  *store.Store
	ids    IDGenerator
	logger *slog.Logger
	html   bool
}

// run is the live state of one scenario execution.
type run struct {
	scenario *Scenario
	app      *demo.App
	tree     *applier.Tree
	rec      *applier.Recorder
	composer *compose.Composer
	result   *Result
}

// Run executes a scenario and evaluates its assertions.
//
// Setup problems (unknown app, a set step naming a missing state) are
// returned as errors. A pass that fails ends the run early and is reported
// in Result.Errors; assertions are skipped in that case.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runner{
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	d, err := scenario.discipline()
	if err != nil {
		return nil, err
	}

	snap := state.NewSnapshot()
	defer snap.Close()

	app, err := demo.New(scenario.App, snap)
	if err != nil {
		return nil, err
	}

	tree := applier.NewTree(d)
	rec := applier.NewRecorder(tree, applier.WithSequencer(testutil.NewDeterministicClock()))
	c := compose.New(rec, snap, compose.WithLogger(cfg.logger), compose.WithContext(ctx))
	defer c.Close()

	r := &run{
		scenario: scenario,
		app:      app,
		tree:     tree,
		rec:      rec,
		composer: c,
		result:   NewResult(),
	}

	cfg.logger.Info("scenario starting", "name", scenario.Name, "app", app.Name, "discipline", d.String())

	ok := r.pass(func() (compose.Pass, error) { return c.Compose(app.Root) })
	for i, step := range scenario.Steps {
		if !ok {
			break
		}
		switch {
		case step.Set != nil:
			if err := app.Set(step.Set.State, step.Set.Value); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		case step.Recompose != nil:
			ok = r.pass(c.RecomposePending)
		case step.Compose != nil:
			ok = r.pass(func() (compose.Pass, error) { return c.Compose(app.Root) })
		}
	}

	if err := r.finish(ctx, cfg.html); err != nil {
		return nil, err
	}

	if ok {
		for _, msg := range EvaluateAssertions(r.result, scenario.Assertions) {
			r.result.AddError(msg)
		}
	}

	if cfg.store != nil {
		if err := r.record(ctx, cfg.store, cfg.ids); err != nil {
			return nil, err
		}
	}

	cfg.logger.Info("scenario complete", "name", scenario.Name, "pass", r.result.Pass, "ops", len(r.result.Ops))
	return r.result, nil
}

// pass runs one composer pass tagged with the next pass number. A pass with
// nothing to do is not counted.
func (r *run) pass(f func() (compose.Pass, error)) bool {
	r.rec.BeginPass(int64(len(r.result.Passes) + 1))
	p, err := f()
	if err != nil {
		r.result.AddError(fmt.Sprintf("pass %d: %v", len(r.result.Passes)+1, err))
		return false
	}
	if p.Seq != 0 {
		r.result.Passes = append(r.result.Passes, p)
	}
	return true
}

func (r *run) finish(ctx context.Context, html bool) error {
	res := r.result
	res.Ops = r.rec.Ops()
	res.Values = r.tree.Values()
	res.Text = r.tree.Text()

	hash, err := trace.Hash(res.Ops)
	if err != nil {
		return fmt.Errorf("hash trace: %w", err)
	}
	res.Hash = hash

	if html {
		out, err := applier.RenderHTML(ctx, r.tree)
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		res.HTML = out
	}
	return nil
}

func (r *run) record(ctx context.Context, st *store.Store, ids IDGenerator) error {
	passes := make([]store.PassRecord, len(r.result.Passes))
	for i, p := range r.result.Passes {
		passes[i] = store.PassRecord{
			Pass:        p.Seq,
			Batches:     p.Batches,
			Invalidated: p.Invalidated,
			Recomposed:  p.Recomposed,
			Executed:    p.Executed,
			Skipped:     p.Skipped,
		}
	}

	d, _ := r.scenario.discipline()
	run, err := st.Record(ctx, store.Run{
		ID:         ids.Generate(),
		Scenario:   r.scenario.Name,
		App:        r.app.Name,
		Discipline: d.String(),
		TraceHash:  r.result.Hash,
	}, passes, r.result.Ops)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	r.result.RunID = run.ID
	return nil
}
