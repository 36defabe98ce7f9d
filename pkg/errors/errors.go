package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// contextError annotates an error with a short description of what was being
// done when the error occurred. Chained contexts print as
// "outer: inner: cause".
type contextError struct {
	context string
	cause   error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.cause)
}

func (err contextError) Unwrap() error {
	return err.cause
}

// WithContext wraps `err` with `context`. It returns nil if `err` is nil so
// that it can be used directly on the return value of a function.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, cause: err}
}

// friendlyError is implemented by errors that have a message meant to be
// shown to the user as is, rather than the full context chain.
type friendlyError interface {
	FriendlyMessage() string
}

// FriendlyError is an error whose message is already formatted for the user.
type FriendlyError struct {
	msg string
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message to show to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates a FriendlyError with a printf-style message.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, args...)}
}

// RootCause returns the innermost error of a WithContext chain.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.cause
	}
}

// GetPrintableMessage returns the message that should be shown to the user
// for `err`. If any error in the chain has a friendly message, that message
// is used. Otherwise the full context chain is returned.
func GetPrintableMessage(err error) string {
	for curr := err; curr != nil; curr = errors.Unwrap(curr) {
		if friendly, ok := curr.(friendlyError); ok {
			if msg := friendly.FriendlyMessage(); msg != "" {
				return msg
			}
		}
	}
	return err.Error()
}
