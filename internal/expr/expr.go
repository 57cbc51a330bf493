// Package expr compiles textual objective functions over variables x1..xn
// into evaluable form.
package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/gradientlab/descent/internal/optimization"
)

// mathFunctions is the function library available inside formulas.
var mathFunctions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(x, y), nil
	},
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// ParsedFunction owns a validated expression and the dimensionality it was
// validated against. It has no mutable state: evaluating the same point
// always yields the same value, and a single instance may be shared by the
// objective and gradient paths of a run.
type ParsedFunction struct {
	expr *govaluate.EvaluableExpression
	vars []string
}

// Parse compiles text into a function of the variables x1..xn.
//
// The caret is rewritten to the library's ** exponent operator, so
// "x1^2 + x2^2" means what a calculator user expects. After compiling,
// Parse runs one trial evaluation with every variable bound to zero;
// a formula that is syntactically valid but unevaluable (an unbound
// identifier, for instance) is rejected here instead of on first real use.
func Parse(text string, n int) (*ParsedFunction, error) {
	if n < 1 {
		return nil, optimization.NewErrorf(optimization.KindDimension, "variable count must be at least 1, got %d", n)
	}
	if strings.TrimSpace(text) == "" {
		return nil, optimization.NewError(optimization.KindParse, "formula is empty")
	}

	rewritten := strings.ReplaceAll(text, "**", "^")
	rewritten = strings.ReplaceAll(rewritten, "^", "**")

	compiled, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, mathFunctions)
	if err != nil {
		return nil, optimization.WrapError(err, optimization.KindParse, "formula does not parse")
	}

	vars := make([]string, n)
	for i := range vars {
		vars[i] = fmt.Sprintf("x%d", i+1)
	}

	fn := &ParsedFunction{expr: compiled, vars: vars}

	zero := make([]float64, n)
	if _, err := fn.Evaluate(zero); err != nil && optimization.ErrorKind(err) != optimization.KindEval {
		return nil, optimization.WrapError(err, optimization.KindInvalidExpression, "formula cannot be evaluated")
	}
	return fn, nil
}

// NumVars returns the dimensionality the function was parsed for.
func (f *ParsedFunction) NumVars() int {
	return len(f.vars)
}

// Evaluate binds x1..xn to the coordinates of point and evaluates the
// expression. It fails with a dimension-mismatch error when the point has
// the wrong length, and with an evaluation error when the expression cannot
// produce a finite number at this point (division by zero, log of a
// non-positive value, and similar domain failures all land here).
func (f *ParsedFunction) Evaluate(point []float64) (float64, error) {
	if len(point) != len(f.vars) {
		return 0, optimization.NewErrorf(optimization.KindDimension,
			"point has %d coordinates, function expects %d", len(point), len(f.vars))
	}

	params := make(map[string]interface{}, len(f.vars))
	for i, name := range f.vars {
		params[name] = point[i]
	}

	value, err := f.expr.Evaluate(params)
	if err != nil {
		return 0, optimization.WrapError(err, optimization.KindInvalidExpression, "evaluation failed")
	}

	result, ok := value.(float64)
	if !ok {
		return 0, optimization.NewErrorf(optimization.KindInvalidExpression, "formula yields %T, not a number", value)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, optimization.NewErrorf(optimization.KindEval, "formula is undefined at this point (value %v)", result)
	}
	return result, nil
}
