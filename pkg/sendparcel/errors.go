package sendparcel

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common SendParcel failures.
var (
	// ErrMissingAPIKey indicates the client was configured without a credential.
	ErrMissingAPIKey = errors.New("sendparcel: API key is required")

	// ErrUnsupportedMethod indicates an endpoint uses a verb the dispatcher cannot send.
	ErrUnsupportedMethod = errors.New("sendparcel: unsupported HTTP method")

	// ErrUnknownEndpoint indicates no operation is registered under a path.
	ErrUnknownEndpoint = errors.New("sendparcel: unknown endpoint")

	// ErrAuthenticationFailed indicates the service rejected the credential.
	ErrAuthenticationFailed = errors.New("sendparcel: authentication failed")

	// ErrNotFound indicates the endpoint does not exist on the service.
	ErrNotFound = errors.New("sendparcel: not found")

	// ErrRateLimitExceeded indicates the service throttled the caller.
	ErrRateLimitExceeded = errors.New("sendparcel: rate limit exceeded")

	// ErrServiceUnavailable indicates the service failed or is temporarily down.
	ErrServiceUnavailable = errors.New("sendparcel: service unavailable")
)

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sendparcel %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sendparcel %s: HTTP %d", e.Operation, e.StatusCode)
}

// Is maps the status code onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return target == ErrAuthenticationFailed
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimitExceeded
	case e.StatusCode >= 500:
		return target == ErrServiceUnavailable
	}
	return false
}

// DecodeError is returned when a 2xx body is not a JSON envelope.
type DecodeError struct {
	Operation string
	Body      []byte
	Err       error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("sendparcel %s: decoding response: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownEndpointError reports a path with no registered operation.
type UnknownEndpointError struct {
	Path string
}

// Error implements the error interface.
func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownEndpoint, e.Path)
}

// Is matches ErrUnknownEndpoint.
func (e *UnknownEndpointError) Is(target error) bool {
	return target == ErrUnknownEndpoint
}

// IsRetryable reports whether an error is transient.
// The client never retries on its own; this is for callers that do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}
