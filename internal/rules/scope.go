package rules

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
)

// Scope is the check context a rule's `when` expression is evaluated
// against. Absent values are empty strings.
type Scope struct {
	Department string
	PolicyType string
}

type scope struct {
	expr string
	prg  cel.Program
}

var scopeEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("department", cel.StringType),
		cel.Variable("policy_type", cel.StringType),
	)
})

func compileScope(expr string) (*scope, error) {
	env, err := scopeEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, fmt.Errorf("expression %q must evaluate to bool, got %v", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &scope{expr: expr, prg: prg}, nil
}

// eval fails open: a rule whose scope cannot be evaluated is applied.
func (s *scope) eval(in Scope) bool {
	out, _, err := s.prg.Eval(map[string]any{
		"department":  in.Department,
		"policy_type": in.PolicyType,
	})
	if err != nil {
		return true
	}
	b, ok := out.Value().(bool)
	return !ok || b
}
