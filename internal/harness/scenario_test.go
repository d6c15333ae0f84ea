package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "counter-increment.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "counter-increment", sc.Name)
	assert.Equal(t, "counter", sc.App)
	require.Len(t, sc.Steps, 2)
	require.NotNil(t, sc.Steps[0].Set)
	assert.Equal(t, "count", sc.Steps[0].Set.State)
	assert.Equal(t, 3, sc.Steps[0].Set.Value)
	assert.NotNil(t, sc.Steps[1].Recompose)
	require.Len(t, sc.Assertions, 6)
	assert.Equal(t, int64(1), sc.Assertions[0].Pass)
}

func TestLoadScenario_AllFixturesValidate(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			_, err := LoadScenario(p)
			require.NoError(t, err)
		})
	}
}

func TestLoadScenario_InvalidFixtures(t *testing.T) {
	for _, name := range []string{"missing-app", "bad-assertion", "unknown-field"} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScenario(filepath.Join("testdata", "invalid", name+".yaml"))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Problems)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_StepNeedsExactlyOneAction(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: two-actions
app: counter
steps:
  - {recompose: {}, compose: {}}
`))
	require.Error(t, err)
}

func TestValidate_AssertionFieldsByType(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"op_count complete", "type: op_count\n    op: insert\n    count: 2", true},
		{"op_count without count", "type: op_count\n    op: insert", false},
		{"op_contains without value", "type: op_contains\n    op: update", false},
		{"recomposed", "type: recomposed\n    count: 0", true},
		{"tree_contains empty", "type: tree_contains\n    text: \"\"", false},
		{"expr", "type: expr\n    expr: 'ops > 0'", true},
		{"unknown type", "type: frobnicate", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "name: x\napp: counter\nsteps: []\nassertions:\n  - " + tt.doc + "\n"
			err := Validate([]byte(doc))
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestValidate_Discipline(t *testing.T) {
	require.NoError(t, Validate([]byte("name: x\napp: counter\ndiscipline: bottom_up\nsteps: []\n")))
	require.Error(t, Validate([]byte("name: x\napp: counter\ndiscipline: sideways\nsteps: []\n")))
}

func TestValidate_EmptyDocument(t *testing.T) {
	var verr *ValidationError
	require.ErrorAs(t, Validate([]byte("")), &verr)
}
