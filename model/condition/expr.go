package condition

import "fmt"

// Operator is a comparison operator.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

// LiteralKind discriminates literal types.
type LiteralKind string

const (
	LiteralNumber LiteralKind = "number"
	LiteralString LiteralKind = "string"
)

// Literal is the right-hand side of a comparison.
type Literal struct {
	Kind   LiteralKind
	Text   string
	Number float64
}

// Expr is a parsed condition expression.
type Expr struct {
	Field   string
	Op      Operator
	Literal Literal
}

// String renders the expression in its source form.
func (e *Expr) String() string {
	if e.Literal.Kind == LiteralString {
		return fmt.Sprintf("%s %s %q", e.Field, e.Op, e.Literal.Text)
	}
	return fmt.Sprintf("%s %s %s", e.Field, e.Op, e.Literal.Text)
}

// EvaluationError describes a condition that could not be evaluated against
// the supplied context, e.g. a missing field or a non-numeric value compared
// with a numeric literal.
type EvaluationError struct {
	Expr   string
	Reason string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s", e.Expr, e.Reason)
}

func evaluationError(e *Expr, format string, args ...interface{}) error {
	return &EvaluationError{Expr: e.String(), Reason: fmt.Sprintf(format, args...)}
}
