package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstreamFailure = errors.New("upstream failure")
)

// Error carries a kind, a caller-facing message and optional response data.
type Error struct {
	Kind    error
	Message string
	Data    interface{}
	Cause   error
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// KindOf returns the kind matched by err, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrUnauthorized, ErrNotFound, ErrConflict, ErrUpstreamFailure} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// DataOf returns the response data attached to err, if any.
func DataOf(err error) interface{} {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Data
	}
	return nil
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
