package compose

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// DefaultMaxPassScopes bounds the number of scopes one pass may recompose.
// A pass that exceeds it is aborted with QUOTA_EXCEEDED; the usual cause is
// two scopes writing each other's state on every execution.
const DefaultMaxPassScopes = 10000

// rootID identifies the restart group Compose wraps the root composable in.
var rootID = slot.ID{Tag: "recompose:root"}

// Composer drives composition passes over a slot table and emits structural
// changes to an Applier.
//
// CRITICAL: A Composer is owned by one goroutine. Composables receive it as
// an explicit handle and must not retain it beyond the call.
type Composer struct {
	table   *slot.Table
	applier Applier
	snap    *state.Snapshot
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	nodeIDs  *state.Clock
	scopeIDs *state.Clock

	maxPassScopes int
	slotOpts      []slot.Option

	composing atomic.Bool
	aborted   bool
	passes    int64

	// Per-pass traversal state.
	frames []frame
	nodes  []nodeFrame
	scope  *Scope
	pass   Pass

	// stale is set when slots were inserted, removed or moved ahead of
	// existing groups, so recorded scope indices must be recomputed.
	stale bool

	// readers maps a state id to the live scopes whose last execution read it.
	readers map[state.ID]map[*Scope]struct{}
}

// frame is an open group or node in the traversal.
type frame struct {
	start    int
	end      int
	nodeBase int
	node     bool
	reused   bool
	skipped  bool
}

// nodeFrame is the applier node the traversal is currently inside, with the
// index its next child will take.
type nodeFrame struct {
	id    NodeID
	child int
}

// Pass summarizes one Compose or Recompose call.
type Pass struct {
	// Seq is the 1-based pass number of this composer.
	Seq int64

	// Batches is the number of write batches folded into the pass.
	Batches int

	// Invalidated counts scopes marked invalid by state writes.
	Invalidated int

	// Recomposed counts scopes re-entered through their resume closure.
	Recomposed int

	// Executed counts restart group bodies that ran.
	Executed int

	// Skipped counts restart groups that kept their previous content.
	Skipped int
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the structured logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxPassScopes sets the per-pass recomposition quota.
func WithMaxPassScopes(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxPassScopes = n
		}
	}
}

// WithSlotOptions passes options to the composer's slot table.
func WithSlotOptions(opts ...slot.Option) Option {
	return func(c *Composer) {
		c.slotOpts = append(c.slotOpts, opts...)
	}
}

// WithContext sets the parent context of background tasks started by
// UseTask. Default context.Background().
func WithContext(ctx context.Context) Option {
	return func(c *Composer) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// New creates a composer emitting to a and scheduling through snap.
func New(a Applier, snap *state.Snapshot, opts ...Option) *Composer {
	c := &Composer{
		applier:       a,
		snap:          snap,
		logger:        slog.Default(),
		ctx:           context.Background(),
		nodeIDs:       state.NewClock(),
		scopeIDs:      state.NewClock(),
		maxPassScopes: DefaultMaxPassScopes,
		readers:       make(map[state.ID]map[*Scope]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.ctx)
	c.table = slot.New(c.slotOpts...)
	return c
}

// Compose runs a full pass of root from the start of the table. The first
// call builds the tree; later calls re-execute root, reusing every group
// whose identity still matches. Writes made during the pass are folded into
// it before Compose returns.
func (c *Composer) Compose(root func(*Composer)) (p Pass, err error) {
	if err := c.begin(); err != nil {
		return Pass{}, err
	}
	defer c.finish()
	defer c.recoverPass(&err)

	exit := c.snap.Enter()
	defer exit()

	c.logger.Debug("compose pass starting", "pass", c.pass.Seq)

	c.table.Seek(0)
	c.frames = append(c.frames[:0], frame{start: -1, end: c.table.Len(), reused: true})
	c.nodes = append(c.nodes[:0], nodeFrame{id: c.applier.Current()})

	c.RestartGroup(rootID, root)
	if end := c.frames[0].end; c.table.Cursor() < end {
		c.removeRegion(c.table.Cursor(), end-c.table.Cursor())
	}
	c.resetTraversal()

	c.drain(c.snap.ApplyPending())

	c.logger.Debug("compose pass complete",
		"pass", c.pass.Seq,
		"executed", c.pass.Executed,
		"recomposed", c.pass.Recomposed)
	return c.pass, nil
}

// Recompose waits for the next batch of state writes and re-executes the
// scopes that read the written states. It returns ctx.Err() on cancellation
// and state.ErrClosed once the snapshot is closed and drained.
func (c *Composer) Recompose(ctx context.Context) (Pass, error) {
	if c.aborted {
		return Pass{}, ErrAborted
	}
	ids, err := c.snap.Next(ctx)
	if err != nil {
		return Pass{}, err
	}
	return c.recomposeIDs(ids)
}

// RecomposePending applies queued writes and recomposes without waiting.
// A pass with nothing pending returns a zero Pass.
func (c *Composer) RecomposePending() (Pass, error) {
	if c.aborted {
		return Pass{}, ErrAborted
	}
	if c.snap.Active() {
		return Pass{}, nil
	}
	ids := c.snap.ApplyPending()
	if len(ids) == 0 {
		return Pass{}, nil
	}
	return c.recomposeIDs(ids)
}

func (c *Composer) recomposeIDs(ids []state.ID) (p Pass, err error) {
	if err := c.begin(); err != nil {
		return Pass{}, err
	}
	defer c.finish()
	defer c.recoverPass(&err)

	exit := c.snap.Enter()
	defer exit()

	c.drain(ids)

	c.logger.Debug("recompose pass complete",
		"pass", c.pass.Seq,
		"batches", c.pass.Batches,
		"invalidated", c.pass.Invalidated,
		"recomposed", c.pass.Recomposed)
	return c.pass, nil
}

// Run recomposes until ctx is cancelled or the snapshot is closed.
// Returns nil on snapshot close, ctx.Err() on cancellation, and the first
// pass error otherwise.
func (c *Composer) Run(ctx context.Context) error {
	c.logger.Info("composer running")
	for {
		_, err := c.Recompose(ctx)
		switch {
		case errors.Is(err, state.ErrClosed):
			c.logger.Info("composer stopped", "reason", "snapshot closed")
			return nil
		case err != nil:
			return err
		}
	}
}

// Reset disposes every scope, clears the table and the target tree, and
// clears the aborted state left by a failed pass.
func (c *Composer) Reset() error {
	if !c.composing.CompareAndSwap(false, true) {
		return contractf(ErrCodeReentrant, -1, "reset during a composition pass")
	}
	defer c.composing.Store(false)

	c.resetTraversal()
	c.disposeRange(0, c.table.Len())
	c.table.Reset()
	clear(c.readers)
	c.aborted = false
	c.stale = false

	if err := c.applier.Clear(); err != nil {
		return &ApplyError{Op: "clear", Index: -1, Node: c.applier.Current(), Err: err}
	}
	return nil
}

// Close cancels every background task. The composer is unusable afterwards.
func (c *Composer) Close() {
	c.cancel()
}

// TrackRead attributes a state read to the scope being executed.
// Implements state.Tracker.
func (c *Composer) TrackRead(cell state.Cell) state.ReaderID {
	if c == nil || c.scope == nil {
		return 0
	}
	sc := c.scope
	id := cell.StateID()
	sc.next[id] = cell

	set, ok := c.readers[id]
	if !ok {
		set = make(map[*Scope]struct{})
		c.readers[id] = set
	}
	set[sc] = struct{}{}
	return sc.id
}

// Snapshot returns the snapshot the composer schedules through.
func (c *Composer) Snapshot() *state.Snapshot {
	return c.snap
}

// Table exposes the slot table for inspection. Mutating it outside a pass
// corrupts the composition.
func (c *Composer) Table() *slot.Table {
	return c.table
}

// Verify checks the group length invariant over the whole table.
func (c *Composer) Verify() error {
	return c.table.Verify()
}

// Aborted reports whether a failed pass left the composer unusable.
func (c *Composer) Aborted() bool {
	return c.aborted
}

// Scope returns the scope currently executing, or nil outside a restart group.
func (c *Composer) Scope() *Scope {
	return c.scope
}

// ReaderCount returns the number of live scopes mapped to state id.
func (c *Composer) ReaderCount(id state.ID) int {
	return len(c.readers[id])
}

func (c *Composer) begin() error {
	if c.aborted {
		return ErrAborted
	}
	if !c.composing.CompareAndSwap(false, true) {
		return contractf(ErrCodeReentrant, -1, "composition pass started while another is running")
	}
	c.passes++
	c.pass = Pass{Seq: c.passes}
	return nil
}

func (c *Composer) finish() {
	c.resetTraversal()
	c.composing.Store(false)
}

func (c *Composer) resetTraversal() {
	c.frames = c.frames[:0]
	c.nodes = c.nodes[:0]
	c.scope = nil
}

// recoverPass turns a contract or applier panic into the pass error and
// marks the composer aborted. Other panics propagate.
func (c *Composer) recoverPass(err *error) {
	r := recover()
	if r == nil {
		return
	}
	c.aborted = true
	perr := asPassError(r)
	if perr == nil {
		panic(r)
	}
	c.logger.Error("composition pass aborted", "pass", c.pass.Seq, "error", perr)
	*err = perr
}

// mustCompose fails when a composer operation is used outside a pass.
func (c *Composer) mustCompose() *frame {
	if len(c.frames) == 0 {
		panic(contractf(ErrCodeNotComposing, -1, "composer used outside a composition pass"))
	}
	return &c.frames[len(c.frames)-1]
}

func (c *Composer) nodeTop() *nodeFrame {
	return &c.nodes[len(c.nodes)-1]
}
