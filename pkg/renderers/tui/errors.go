package tui

import "errors"

var (
	// ErrAborted reports that the user interrupted a field prompt.
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when a field keeps failing validation.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
)
