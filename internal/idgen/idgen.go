// Package idgen centralises identifier generation so tests can stub it.
package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Override in tests for
// deterministic ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }
