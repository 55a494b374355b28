package condition

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/toolbox"
)

// Eval evaluates the expression against a context map. It is pure and
// deterministic: the same expression and context always produce the same
// outcome, which makes replay and retries safe. A missing field or a value
// incompatible with the literal type yields an *EvaluationError.
func (e *Expr) Eval(context map[string]interface{}) (bool, error) {
	value, ok := context[e.Field]
	if !ok {
		return false, evaluationError(e, "field %s is absent from context", e.Field)
	}
	switch e.Literal.Kind {
	case LiteralNumber:
		actual, err := asNumber(value)
		if err != nil {
			return false, evaluationError(e, "field %s is not numeric: %v", e.Field, value)
		}
		return compare(compareFloats(actual, e.Literal.Number), e.Op), nil
	case LiteralString:
		actual, err := asText(value)
		if err != nil {
			return false, evaluationError(e, "field %s is not textual: %v", e.Field, value)
		}
		return compare(strings.Compare(actual, e.Literal.Text), e.Op), nil
	}
	return false, evaluationError(e, "unsupported literal kind %s", e.Literal.Kind)
}

func compare(cmp int, op Operator) bool {
	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	}
	return false
}

func compareFloats(left, right float64) int {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	}
	return 0
}

// asNumber coerces a context value to float64.
func asNumber(value interface{}) (float64, error) {
	switch actual := value.(type) {
	case float64:
		return actual, nil
	case float32:
		return float64(actual), nil
	case int:
		return float64(actual), nil
	case int64:
		return float64(actual), nil
	case uint64:
		return float64(actual), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(toolbox.AsString(value)), 64)
}

// asText coerces a context value to a string; non-textual kinds are rejected
// so that a string literal is never silently compared with a number.
func asText(value interface{}) (string, error) {
	if reflect.ValueOf(value).Kind() != reflect.String {
		return "", strconv.ErrSyntax
	}
	return toolbox.AsString(value), nil
}
