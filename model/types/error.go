// Package types defines the engine error taxonomy. Callers distinguish the
// categories with errors.As: validation and authorization failures are
// caller mistakes, invalid state means the request raced a transition or
// targets a finished instance, and a concurrency conflict asks the caller to
// re-fetch and retry.
package types

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed template or step definition. It is
// raised at authoring time and never persisted.
type ValidationError struct {
	Issues []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Error())
	}
	return fmt.Sprintf("invalid definition: %s", strings.Join(parts, "; "))
}

// NewValidationError creates a ValidationError from the supplied issues.
func NewValidationError(issues ...error) error {
	return &ValidationError{Issues: issues}
}

// AuthorizationError reports an operator not entitled to act.
type AuthorizationError struct {
	Operator string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("operator %s not authorized: %s", e.Operator, e.Reason)
}

// NewAuthorizationError creates an AuthorizationError.
func NewAuthorizationError(operator, format string, args ...interface{}) error {
	return &AuthorizationError{Operator: operator, Reason: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation against a non-matching step, a
// terminal instance or a retired template.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// NewInvalidStateError creates an InvalidStateError.
func NewInvalidStateError(format string, args ...interface{}) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}

// ConcurrencyConflictError tells a losing concurrent submission to re-fetch
// current state and retry.
type ConcurrencyConflictError struct {
	Reason string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict: %s", e.Reason)
}

// NewConcurrencyConflictError creates a ConcurrencyConflictError.
func NewConcurrencyConflictError(format string, args ...interface{}) error {
	return &ConcurrencyConflictError{Reason: fmt.Sprintf(format, args...)}
}
