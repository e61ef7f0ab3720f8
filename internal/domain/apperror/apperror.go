package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can pick a status code.
type Kind string

// Failure kinds.
const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindStorage         Kind = "storage"
	KindRestore         Kind = "restore"
	KindInvalidArgument Kind = "invalid_argument"
	KindUnknown         Kind = "unknown"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
// PRE: e is non-nil
// POST: Returns the message, followed by the wrapped cause when present
func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed required field.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports a malformed query argument such as a date range.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Restore reports a backup payload that cannot be restored.
func Restore(format string, args ...any) error {
	return &Error{Kind: KindRestore, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure.
func Storage(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
// PRE: none
// POST: Returns KindUnknown for nil or unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the user-facing message of a classified error.
// Storage errors hide their cause; unclassified errors yield the fallback.
func MessageOf(err error, fallback string) string {
	var e *Error
	if !errors.As(err, &e) {
		return fallback
	}
	if e.Kind == KindStorage || e.Message == "" {
		return fallback
	}
	return e.Message
}
