package dao

import (
	"context"
)

// Service is a minimal generic persistence contract shared by the template,
// instance and history stores. Implementations must be safe for concurrent
// use; the engine layers its own per-instance serialization on top.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Parameter narrows a List call; implementations ignore names they do not
// understand.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a list parameter; with multiple values the parameter
// matches any of them.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
