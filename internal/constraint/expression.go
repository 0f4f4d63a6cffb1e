package constraint

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// ExpressionFactory compiles a CEL expression into a constraint when the
// owning endpoint's constraints are resolved.
//
// The expression sees these variables:
//
//	method       string
//	path         string
//	headers      map(string, string)  lower-cased names, first value
//	query        map(string, string)  first value
//	routeValues  map(string, string)  case-folded keys, null values appear as ""
type ExpressionFactory struct {
	Expression string
	Order      int
}

// NewExpressionFactory returns a factory for expr at stage.
func NewExpressionFactory(expr string, stage int) *ExpressionFactory {
	return &ExpressionFactory{Expression: expr, Order: stage}
}

// Create implements Factory.
func (f *ExpressionFactory) Create() (Constraint, error) {
	program, err := compileExpression(f.Expression)
	if err != nil {
		return nil, err
	}
	return &Expression{source: f.Expression, program: program, stage: f.Order}, nil
}

// CompileExpression reports whether expr is a valid boolean constraint
// expression. It compiles the same way Create does.
func CompileExpression(expr string) error {
	_, err := compileExpression(expr)
	return err
}

func compileExpression(expr string) (cel.Program, error) {
	env, err := newExpressionEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build program for %q: %w", expr, err)
	}
	return program, nil
}

// Expression is a compiled CEL constraint.
type Expression struct {
	source  string
	program cel.Program
	stage   int
}

// Accept implements Constraint. Evaluation errors reject.
func (e *Expression) Accept(ctx *Context) bool {
	if ctx == nil || ctx.Request == nil {
		return false
	}

	out, _, err := e.program.Eval(expressionActivation(ctx))
	if err != nil {
		return false
	}

	result, ok := out.Value().(bool)
	return ok && result
}

// Stage implements Staged.
func (e *Expression) Stage() int {
	return e.stage
}

// Source returns the expression text.
func (e *Expression) Source() string {
	return e.source
}

func newExpressionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("method", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("query", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("routeValues", cel.MapType(cel.StringType, cel.StringType)),
	)
}

func expressionActivation(ctx *Context) map[string]interface{} {
	r := ctx.Request

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	return map[string]interface{}{
		"method":      r.Method,
		"path":        r.URL.Path,
		"headers":     headers,
		"query":       query,
		"routeValues": foldedRouteValues(ctx.RouteValues),
	}
}

func foldedRouteValues(vs routevalue.Values) map[string]string {
	out := make(map[string]string, vs.Len())
	for _, e := range vs.Entries() {
		out[routevalue.Fold(e.Key)] = e.Value.Str()
	}
	return out
}
