package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for the HTTP boundary.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is a kinded error carried across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing inventory/reservation/transfer record.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input or a state-machine violation.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate record creation.
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports a failed reservation/transfer guard.
func InsufficientStock(format string, args ...interface{}) error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
