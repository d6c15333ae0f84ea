package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recompose/internal/store"
	"github.com/roach88/recompose/internal/testutil"
	"github.com/roach88/recompose/internal/trace"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return sc
}

func TestRun_AllScenariosPass(t *testing.T) {
	for _, name := range []string{"counter-increment", "todo-reorder", "toggle-bottom-up", "theme-provider"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(context.Background(), load(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.NotEmpty(t, result.Hash)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	for _, name := range []string{"counter-increment", "todo-reorder"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, load(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	sc := load(t, "todo-reorder")
	a, err := Run(context.Background(), sc)
	require.NoError(t, err)
	b, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
	assert.Equal(t, a.Ops, b.Ops)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	sc := load(t, "counter-increment")
	sc.Assertions = []Assertion{
		{Type: AssertOpCount, Op: "update", Count: 5},
		{Type: AssertTreeContains, Text: "count=99"},
		{Type: AssertExpr, Expr: "recomposed == 1"},
	}

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected 5 update ops, got 1")
	assert.Contains(t, result.Errors[1], "count=99")
}

func TestRun_UnknownAppIsError(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{Name: "x", App: "nope"})
	require.Error(t, err)
}

func TestRun_UnknownStateIsError(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{
		Name:  "x",
		App:   "counter",
		Steps: []Step{{Set: &SetStep{State: "missing", Value: 1}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_RecordsToStore(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	result, err := Run(ctx, load(t, "counter-increment"),
		WithStore(st), WithIDGenerator(testutil.NewFixedIDGenerator("run")))
	require.NoError(t, err)
	assert.Equal(t, "run-0001", result.RunID)

	run, err := st.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, result.Hash, run.TraceHash)
	assert.Equal(t, "top_down", run.Discipline)

	ops, err := st.ReadOps(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, result.Ops, ops)

	passes, err := st.ReadPasses(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, 1, passes[1].Recomposed)

	replay, err := st.CompareReplay(ctx, "run-0001", result.Ops)
	require.NoError(t, err)
	assert.True(t, replay.Match)
}

func TestRun_HTML(t *testing.T) {
	result, err := Run(context.Background(), load(t, "counter-increment"), WithHTML())
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "count=3")
}

func TestEvaluateAssertions_PassFilter(t *testing.T) {
	result := NewResult()
	result.Ops = []trace.Op{
		{Seq: 1, Pass: 1, Kind: trace.KindInsert, Value: "a"},
		{Seq: 2, Pass: 2, Kind: trace.KindUpdate, Value: "b"},
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertOpCount, Op: "insert", Count: 1},
		{Type: AssertOpCount, Op: "insert", Count: 0, Pass: 2},
		{Type: AssertOpContains, Op: "update", Value: "b", Pass: 2},
		{Type: AssertOpContains, Op: "update", Value: "b", Pass: 1},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "assertion[3]")
}

func TestEvaluateAssertions_ExprErrors(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertExpr, Expr: "ops +"},
		{Type: AssertExpr, Expr: "text"},
		{Type: AssertExpr, Expr: "ops == 0 && counts.insert == 0"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "compile")
}
