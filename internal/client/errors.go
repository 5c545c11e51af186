package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the backend client.
var (
	// ErrNotFound indicates the resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrAuthError indicates a missing or rejected bearer credential.
	ErrAuthError = errors.New("backend authentication error")

	// ErrRateLimited indicates the backend rate limit has been exceeded.
	ErrRateLimited = errors.New("backend rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with backend")

	// ErrInvalidResponse indicates a response body that could not be parsed.
	ErrInvalidResponse = errors.New("invalid response from backend")

	// ErrStream indicates an error event on a server-sent event stream.
	ErrStream = errors.New("backend stream error")
)

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string // The backend's "detail" field when present
	Path       string
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("backend error (status %d, code %s): %s (%s)", e.StatusCode, e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("backend error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
