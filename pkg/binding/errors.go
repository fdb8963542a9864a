package binding

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-paramform/pkg/style"
)

// EvalError reports raw input that could not be parsed into the field's kind.
type EvalError struct {
	Field string
	Input string
	Err   error
}

func (e *EvalError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("binding: cannot evaluate %q for %q: %v", e.Input, e.Field, e.Err)
}

func (e *EvalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InstantiateError reports a selected factory option that failed to build.
type InstantiateError struct {
	Field  string
	Option string
	Err    error
}

func (e *InstantiateError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("binding: cannot instantiate %q for %q: %v", e.Option, e.Field, e.Err)
}

func (e *InstantiateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TierOf classifies err for styling. Parse and instantiation failures are
// soft; anything the schema rejected is strong.
func TierOf(err error) style.Tier {
	if err == nil {
		return style.TierNone
	}
	var evalErr *EvalError
	var instErr *InstantiateError
	if errors.As(err, &evalErr) || errors.As(err, &instErr) {
		return style.TierSoft
	}
	return style.TierStrong
}
