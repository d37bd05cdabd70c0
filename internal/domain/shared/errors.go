package shared

import (
	"errors"
)

// DomainError represents a domain-level error with a stable code.
// Handlers map codes to transport status codes.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithCause returns a copy of e carrying err as its cause
func (e *DomainError) WithCause(err error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: err}
}

// WithMessage returns a copy of e with a specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Err: e.Err}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrLocked              = NewDomainError("LOCKED", "Another run holds the lock")
	ErrNotConfigured       = NewDomainError("NOT_CONFIGURED", "Marketplace credentials are not configured")
	ErrUpstreamUnavailable = NewDomainError("UPSTREAM_UNAVAILABLE", "Marketplace is unavailable")
	ErrUpstreamRejected    = NewDomainError("UPSTREAM_REJECTED", "Marketplace rejected the request")
	ErrUnsupported         = NewDomainError("UNSUPPORTED", "Operation not supported by the marketplace")
)
