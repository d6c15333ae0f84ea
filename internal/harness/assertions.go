package harness

import (
	"fmt"
	"slices"

	exprlang "github.com/expr-lang/expr"

	"github.com/roach88/recompose/internal/trace"
)

// EvaluateAssertions checks every assertion against result and returns one
// message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion[%d] %s: %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOpCount:
		return assertOpCount(result, a)
	case AssertOpContains:
		return assertOpContains(result, a)
	case AssertRecomposed:
		if got := result.Recomposed(a.Pass); got != a.Count {
			return fmt.Errorf("expected %d recomposed scopes%s, got %d", a.Count, inPass(a.Pass), got)
		}
		return nil
	case AssertTreeContains:
		if !slices.Contains(result.Values, a.Text) {
			return fmt.Errorf("no node with value %q in %v", a.Text, result.Values)
		}
		return nil
	case AssertExpr:
		return assertExpr(result, a.Expr)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func passFilter(pass int64) int64 {
	if pass <= 0 {
		return -1
	}
	return pass
}

func inPass(pass int64) string {
	if pass <= 0 {
		return ""
	}
	return fmt.Sprintf(" in pass %d", pass)
}

func assertOpCount(result *Result, a Assertion) error {
	got := trace.Count(result.Ops, trace.Kind(a.Op), passFilter(a.Pass))
	if got != a.Count {
		return fmt.Errorf("expected %d %s ops%s, got %d", a.Count, a.Op, inPass(a.Pass), got)
	}
	return nil
}

func assertOpContains(result *Result, a Assertion) error {
	pass := passFilter(a.Pass)
	for _, op := range result.Ops {
		if op.Kind == trace.Kind(a.Op) && op.Value == a.Value && (pass < 0 || op.Pass == pass) {
			return nil
		}
	}
	return fmt.Errorf("no %s op with value %q%s", a.Op, a.Value, inPass(a.Pass))
}

// exprEnv is the environment an expr assertion sees.
func exprEnv(result *Result) map[string]any {
	counts := make(map[string]any, len(trace.Kinds))
	for _, k := range trace.Kinds {
		counts[string(k)] = trace.Count(result.Ops, k, -1)
	}
	values := make([]any, len(result.Values))
	for i, v := range result.Values {
		values[i] = v
	}
	return map[string]any{
		"text":       result.Text,
		"values":     values,
		"ops":        len(result.Ops),
		"passes":     len(result.Passes),
		"recomposed": result.Recomposed(0),
		"counts":     counts,
		"hash":       result.Hash,
	}
}

func assertExpr(result *Result, expression string) error {
	if expression == "" {
		return fmt.Errorf("expression must not be empty")
	}
	env := exprEnv(result)
	program, err := exprlang.Compile(expression, exprlang.Env(env), exprlang.AsBool())
	if err != nil {
		return fmt.Errorf("compile %q: %w", expression, err)
	}
	out, err := exprlang.Run(program, env)
	if err != nil {
		return fmt.Errorf("evaluate %q: %w", expression, err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("%q is false", expression)
	}
	return nil
}
