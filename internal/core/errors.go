package core

import "errors"

// ErrorKind classifies a failure for the transport layer. The mapping to
// HTTP statuses lives in the api package.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindConflict          ErrorKind = "conflict"
	KindDependency        ErrorKind = "dependency_failure"
	KindInternal          ErrorKind = "internal"
)

// Error is the domain error carried across service boundaries.
//
// Reason exists only for the unauthorized kind: callers need to pick the
// right user-facing message ("tenant not found" vs "not assigned" vs plain
// "not permitted") while the error itself stays one authorization kind and
// never leaks assignment detail to ineligible principals.
type Error struct {
	Kind    ErrorKind
	Message string
	Reason  DenyReason
}

func (e *Error) Error() string { return e.Message }

// DenyReason disambiguates authorization failures for caller messaging.
type DenyReason string

const (
	DenyNone           DenyReason = ""
	DenyTenantNotFound DenyReason = "tenant_not_found"
	DenyNotAssigned    DenyReason = "not_assigned"
	DenyNotAuthorized  DenyReason = "not_authorized"
)

func NewValidationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func NewNotFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func NewConflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func NewDependencyError(msg string) error { return &Error{Kind: KindDependency, Message: msg} }
func NewInternalError(msg string) error   { return &Error{Kind: KindInternal, Message: msg} }

func NewUnauthorizedError(reason DenyReason) error {
	return &Error{Kind: KindUnauthorized, Message: "not permitted", Reason: reason}
}

func NewInvalidTransitionError(msg string) error {
	return &Error{Kind: KindInvalidTransition, Message: msg}
}

// AsError unwraps a domain error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the classification of err, defaulting to internal for
// anything that is not a domain error (storage failures stay opaque).
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}
