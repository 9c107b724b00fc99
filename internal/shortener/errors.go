package shortener

import (
	"errors"
	"fmt"
)

// Error kinds returned by Service. Match them with errors.Is.
var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidToken = errors.New("invalid short code")
	ErrNotFound     = errors.New("url not found")
	ErrStore        = errors.New("store error")
)

// Store-level errors returned by Repository implementations.
var (
	ErrConflict = errors.New("url already exists")
)

// Error is the failure outcome of a Service operation. Kind is one of
// ErrInvalidURL, ErrInvalidToken, ErrNotFound or ErrStore; Input is the
// value the caller supplied.
type Error struct {
	Kind  error
	Input string
	Err   error
}

func newError(kind error, input string, cause error) *Error {
	return &Error{Kind: kind, Input: input, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("'%s': %v", e.Input, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("'%s': %v", e.Input, e.Err)
	}
	return fmt.Sprintf("'%s': %v: %v", e.Input, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
