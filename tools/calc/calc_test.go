package calc_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ponder"
	"github.com/m-mizutani/ponder/tools/calc"
)

func TestCalculate(t *testing.T) {
	tool := calc.New()
	ctx := t.Context()

	testCases := map[string]struct {
		input string
		want  string
	}{
		"integer arithmetic":     {input: "(3 + 4) * 2", want: "14"},
		"percentage":             {input: "200 * 0.15", want: "30"},
		"whole float has no dot": {input: "10.0 / 2", want: "5"},
		"exponent":               {input: "2 ** 10", want: "1024"},
		"modulo":                 {input: "17 % 5", want: "2"},
		"sqrt":                   {input: "sqrt(16)", want: "4"},
		"constants":              {input: "floor(pi)", want: "3"},
		"nested functions":       {input: "round(pow(2, 0.5) * 100)", want: "141"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := tool.Run(ctx, tc.input)
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestCalculateInvalidExpression(t *testing.T) {
	tool := calc.New()
	ctx := t.Context()

	testCases := map[string]string{
		"syntax error":       "2 +",
		"unknown identifier": "os.exit(1)",
		"unknown function":   "shell(\"ls\")",
		"not arithmetic":     "\"abc\" + 1",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := tool.Run(ctx, input)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, ponder.ErrInvalidExpression))
		})
	}
}

func TestCalculateSpec(t *testing.T) {
	spec := calc.New().Spec()
	gt.Equal(t, spec.Name, "Calculate")
	gt.S(t, spec.Description).Contains("arithmetic")
}
