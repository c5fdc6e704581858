package domain

import "fmt"

// ErrorKind classifies expected business failures so the HTTP boundary can
// map them to status codes without string matching.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindInvalidState        ErrorKind = "invalid_state"
	KindIdempotencyConflict ErrorKind = "idempotency_conflict"
	KindNotAuthorized       ErrorKind = "not_authorized"
	KindProviderFailure     ErrorKind = "provider_failure"
)

// Error is a business error carried up from the application services. Details
// holds machine-readable context (e.g. the availability blocking reason).
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// NewNotFound covers both true absence and cross-organization access: the
// two are intentionally indistinguishable to the caller.
func NewNotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// NewConflict reports an overlapping hold/reservation; reason is the
// blocking reason exposed in Details.
func NewConflict(message, reason string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: message,
		Details: map[string]interface{}{"blocking_reason": reason},
	}
}

func NewInvalidState(format string, args ...interface{}) *Error {
	return newError(KindInvalidState, format, args...)
}

func NewIdempotencyConflict(format string, args ...interface{}) *Error {
	return newError(KindIdempotencyConflict, format, args...)
}

func NewNotAuthorized(format string, args ...interface{}) *Error {
	return newError(KindNotAuthorized, format, args...)
}

func NewProviderFailure(format string, args ...interface{}) *Error {
	return newError(KindProviderFailure, format, args...)
}
