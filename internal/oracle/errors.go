package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates no base URL was supplied.
	ErrNotConfigured = errors.New("oracle: not configured")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("oracle: unauthorized")
	// ErrRateLimited indicates the service rate limit was hit.
	ErrRateLimited = errors.New("oracle: rate limited")
	// ErrUnavailable indicates the service could not be reached or failed.
	ErrUnavailable = errors.New("oracle: unavailable")
	// ErrBadResponse indicates a 2xx response that could not be decoded.
	ErrBadResponse = errors.New("oracle: bad response")
)

// Error is a non-2xx response from the service.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target.
func (e *Error) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsRetryable reports whether a later attempt could succeed.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}
	return false
}
