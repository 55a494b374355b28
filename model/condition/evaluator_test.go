package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpr_Eval(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		context     map[string]interface{}
		expected    bool
		shouldError bool
	}{
		{
			description: "numeric greater true",
			input:       "amount > 5000",
			context:     map[string]interface{}{"amount": 6000},
			expected:    true,
		},
		{
			description: "numeric greater false",
			input:       "amount > 5000",
			context:     map[string]interface{}{"amount": 3000},
			expected:    false,
		},
		{
			description: "numeric equality with float context",
			input:       "amount == 5000",
			context:     map[string]interface{}{"amount": 5000.0},
			expected:    true,
		},
		{
			description: "numeric context supplied as string",
			input:       "days >= 3",
			context:     map[string]interface{}{"days": "4"},
			expected:    true,
		},
		{
			description: "string equality",
			input:       `department == "finance"`,
			context:     map[string]interface{}{"department": "finance"},
			expected:    true,
		},
		{
			description: "string inequality",
			input:       `department != "finance"`,
			context:     map[string]interface{}{"department": "sales"},
			expected:    true,
		},
		{
			description: "missing field",
			input:       "amount > 5000",
			context:     map[string]interface{}{"total": 6000},
			shouldError: true,
		},
		{
			description: "non numeric field against numeric literal",
			input:       "amount > 5000",
			context:     map[string]interface{}{"amount": "a lot"},
			shouldError: true,
		},
		{
			description: "numeric field against string literal",
			input:       `department == "finance"`,
			context:     map[string]interface{}{"department": 12},
			shouldError: true,
		},
	}

	for _, testCase := range testCases {
		expr, err := Parse(testCase.input)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		actual, err := expr.Eval(testCase.context)
		if testCase.shouldError {
			assert.Error(t, err, testCase.description)
			var evalErr *EvaluationError
			assert.ErrorAs(t, err, &evalErr, testCase.description)
			continue
		}
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expected, actual, testCase.description)
	}
}

// Eval must be referentially transparent so that history replay reproduces
// the same branch decisions.
func TestExpr_EvalDeterministic(t *testing.T) {
	expr, err := Parse("amount > 5000")
	assert.NoError(t, err)
	context := map[string]interface{}{"amount": 6000}
	first, err := expr.Eval(context)
	assert.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := expr.Eval(context)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
