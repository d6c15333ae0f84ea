package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/trace"
)

// Scenario drives one demo app through a sequence of steps.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// App names a demo app (see demo.Names).
	App string `yaml:"app"`

	// Discipline is "top_down" (default) or "bottom_up".
	Discipline string `yaml:"discipline,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is exactly one of Set, Recompose or Compose.
type Step struct {
	Set       *SetStep  `yaml:"set,omitempty"`
	Recompose *struct{} `yaml:"recompose,omitempty"`
	Compose   *struct{} `yaml:"compose,omitempty"`
}

// SetStep schedules a write to a named app state.
type SetStep struct {
	State string `yaml:"state"`
	Value any    `yaml:"value"`
}

// Assertion checks the outcome of a run.
type Assertion struct {
	Type string `yaml:"type"`

	// Op is the op kind (op_count, op_contains).
	Op string `yaml:"op,omitempty"`

	// Count is the expected number (op_count, recomposed).
	Count int `yaml:"count,omitempty"`

	// Pass restricts op_count, op_contains and recomposed to one pass.
	Pass int64 `yaml:"pass,omitempty"`

	// Value is the expected op value (op_contains).
	Value string `yaml:"value,omitempty"`

	// Text is the node value looked for (tree_contains).
	Text string `yaml:"text,omitempty"`

	// Expr is an expr-lang boolean expression (expr).
	Expr string `yaml:"expr,omitempty"`
}

// Assertion type constants.
const (
	AssertOpCount      = "op_count"
	AssertOpContains   = "op_contains"
	AssertRecomposed   = "recomposed"
	AssertTreeContains = "tree_contains"
	AssertExpr         = "expr"
)

// LoadScenario reads, validates and parses a scenario YAML file.
// Unknown fields (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario validates and parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// discipline returns the scenario's insertion discipline.
func (s *Scenario) discipline() (compose.Discipline, error) {
	switch s.Discipline {
	case "", compose.TopDown.String():
		return compose.TopDown, nil
	case compose.BottomUp.String():
		return compose.BottomUp, nil
	default:
		return 0, fmt.Errorf("unknown discipline %q", s.Discipline)
	}
}

// validateScenario checks what the schema cannot express.
func validateScenario(s *Scenario) error {
	if _, err := s.discipline(); err != nil {
		return err
	}
	for i, st := range s.Steps {
		n := 0
		if st.Set != nil {
			n++
		}
		if st.Recompose != nil {
			n++
		}
		if st.Compose != nil {
			n++
		}
		if n != 1 {
			return fmt.Errorf("steps[%d]: want exactly one of set, recompose, compose", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertOpCount, AssertOpContains:
			if !trace.Kind(a.Op).Valid() {
				return fmt.Errorf("assertions[%d]: unknown op %q", i, a.Op)
			}
		case AssertRecomposed, AssertTreeContains, AssertExpr:
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
