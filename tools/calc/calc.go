// Package calc provides the arithmetic tool. Expressions are evaluated in
// an isolated environment that exposes only math functions and constants.
package calc

import (
	"context"
	"math"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
)

// Tool is the arithmetic tool. The Action Input is a single expression
// such as "200 * 0.15" or "sqrt(2) * pi".
type Tool struct{}

var _ ponder.Tool = &Tool{}

// New creates a calculation tool.
func New() *Tool {
	return &Tool{}
}

func (t *Tool) Spec() ponder.ToolSpec {
	return ponder.ToolSpec{
		Name:        "Calculate",
		Description: "Evaluate an arithmetic expression. Input is a single expression, e.g. 200 * 0.15. Supports +, -, *, /, %, **, parentheses, and math functions such as sqrt, pow, sin, cos, log.",
	}
}

// env is the evaluation environment. Identifiers outside this set fail to
// compile, so expressions cannot reach anything but math.
var env = map[string]any{
	"pi":    math.Pi,
	"e":     math.E,
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"exp":   math.Exp,
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"ceil":  math.Ceil,
	"floor": math.Floor,
	"round": math.Round,
	"trunc": math.Trunc,
	"mod":   math.Mod,
}

func (t *Tool) Run(ctx context.Context, input string) (string, error) {
	program, err := expr.Compile(input, expr.Env(env))
	if err != nil {
		return "", goerr.Wrap(ponder.ErrInvalidExpression, "failed to compile expression", goerr.V("expression", input), goerr.V("cause", err.Error()))
	}

	value, err := expr.Run(program, env)
	if err != nil {
		return "", goerr.Wrap(ponder.ErrInvalidExpression, "failed to evaluate expression", goerr.V("expression", input), goerr.V("cause", err.Error()))
	}

	return formatValue(value)
}

// formatValue renders the result without a trailing ".0" on whole floats,
// so 200 * 0.15 comes back as "30".
func formatValue(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", goerr.Wrap(ponder.ErrInvalidExpression, "expression has no finite value", goerr.V("value", v))
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", goerr.Wrap(ponder.ErrInvalidExpression, "expression did not evaluate to a number", goerr.V("value", value))
	}
}
