package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateField is returned when two specs share a name.
	ErrDuplicateField = errors.New("schema: duplicate field")
	// ErrUnknownField is returned for names the schema does not declare.
	ErrUnknownField = errors.New("schema: unknown field")
	// ErrConstantField is wrapped by ValidationError when a constant is written.
	ErrConstantField = errors.New("schema: field is constant")
)

// ValidationError reports a value rejected by a field's constraints. The
// schema keeps its previous value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("schema: invalid value %v for %q: %s", e.Value, e.Field, reason)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func reject(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
