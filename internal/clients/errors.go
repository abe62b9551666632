package clients

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// NetworkError is a transport-level failure: timeout, unreachable host or
// a response that could not be decoded as the backend envelope.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: network error (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BusinessError is a well-formed response with success=false.
type BusinessError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request rejected", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsNetworkError reports whether err is a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsRateLimited reports whether the backend rejected the call for exceeding its rate limit.
func IsRateLimited(err error) bool {
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		return false
	}
	return bizErr.StatusCode == 429 || strings.Contains(strings.ToLower(bizErr.Message), "rate limit")
}

// IsAuthFailure reports whether the backend rejected the caller's credentials.
func IsAuthFailure(err error) bool {
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		return false
	}
	return bizErr.StatusCode == 401 || strings.Contains(strings.ToLower(bizErr.Message), "authentication failed")
}

// BusinessMessage returns the backend's message for a business rejection.
func BusinessMessage(err error) (string, bool) {
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		return "", false
	}
	return bizErr.Message, true
}
