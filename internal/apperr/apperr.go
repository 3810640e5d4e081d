// Package apperr defines the error taxonomy shared by repositories,
// the authorization engine and HTTP handlers. Lower layers return
// typed errors; handlers are the single place that translates a kind
// into an HTTP status, so driver or infrastructure error text never
// reaches a client.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP translation.
type Kind int

const (
	KindValidation     Kind = iota // 400 – missing/invalid field
	KindAuthentication             // 401 – missing/invalid/expired credentials
	KindAuthorization              // 403 – authenticated but insufficient rights
	KindNotFound                   // 404 – resource id does not resolve
	KindConflict                   // 409 – duplicate key or dependent state
	KindUnexpected                 // 500 – storage/infrastructure failure
)

// Error is a classified application error. Message is stable and
// user-facing; Err (optional) keeps the underlying cause for logs.
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

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a 400-class error with the given message.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authentication returns a 401-class error.
func Authentication(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// Authorization returns a 403-class error.
func Authorization(msg string) error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

// NotFound returns a 404-class error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a 409-class error.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Unexpected wraps an infrastructure failure. The stable message is
// returned to clients; err is retained for logging only.
func Unexpected(err error) error {
	return &Error{Kind: KindUnexpected, Message: "internal server error", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindUnexpected for
// untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message returns the stable user-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsAuthentication reports whether err is an authentication error.
func IsAuthentication(err error) bool { return is(err, KindAuthentication) }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool { return is(err, KindAuthorization) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return is(err, KindConflict) }

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
