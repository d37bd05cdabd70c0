package marketplace

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPlatform = errors.New("marketplace: unknown platform")

	// ErrNotConfigured means required credentials are missing; no request was attempted
	ErrNotConfigured = errors.New("marketplace: credentials not configured")
	// ErrPlatformUnavailable means the request could not complete (timeout, DNS, reset, 5xx)
	ErrPlatformUnavailable = errors.New("marketplace: platform unavailable")
	// ErrPlatformRejected means the platform answered but refused the request
	ErrPlatformRejected = errors.New("marketplace: platform rejected request")
	// ErrInvalidResponse means the platform answered with an unparsable body
	ErrInvalidResponse = errors.New("marketplace: invalid platform response")
	// ErrUnsupported means the platform has no such capability
	ErrUnsupported = errors.New("marketplace: operation not supported by platform")
	// ErrRateLimited is an HTTP 429 rejection. It is not retried; the next run tries again.
	ErrRateLimited = errors.New("marketplace: platform rate limited")
)

// RejectionError carries the platform's own error text verbatim
type RejectionError struct {
	Platform Platform
	Status   int
	Code     string
	Message  string
}

func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s rejected request (HTTP %d): %s - %s", e.Platform, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s rejected request (HTTP %d): %s", e.Platform, e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrPlatformRejected, and ErrRateLimited for HTTP 429
func (e *RejectionError) Unwrap() []error {
	if e.Status == 429 {
		return []error{ErrPlatformRejected, ErrRateLimited}
	}
	return []error{ErrPlatformRejected}
}

// ---------------------------------------------------------------------------
// ErrorKind
// ---------------------------------------------------------------------------

// ErrorKind is the outcome class a caller branches on
type ErrorKind string

const (
	ErrorKindNone            ErrorKind = ""
	ErrorKindConfiguration   ErrorKind = "configuration"
	ErrorKindNetwork         ErrorKind = "network"
	ErrorKindRejection       ErrorKind = "rejection"
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
	ErrorKindUnsupported     ErrorKind = "unsupported"
	ErrorKindInternal        ErrorKind = "internal"
)

// Classify maps an adapter error to its ErrorKind
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrNotConfigured):
		return ErrorKindConfiguration
	case errors.Is(err, ErrPlatformUnavailable):
		return ErrorKindNetwork
	case errors.Is(err, ErrPlatformRejected):
		return ErrorKindRejection
	case errors.Is(err, ErrInvalidResponse):
		return ErrorKindInvalidResponse
	case errors.Is(err, ErrUnsupported):
		return ErrorKindUnsupported
	default:
		return ErrorKindInternal
	}
}
