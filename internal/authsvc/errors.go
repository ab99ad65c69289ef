package authsvc

import (
	"errors"
	"fmt"
)

// AuthError is a credential-level failure reported by the service: bad
// email/password on sign-in, duplicate account on sign-up. Recovered
// locally; the message is safe to show to the user.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ServiceError is a transport or server-side failure: the service is
// unreachable, timed out, or returned 5xx. The user should retry.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("auth service unavailable during %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ProfileFetchError wraps a profile lookup failure. Non-fatal: callers
// continue with a nil profile and a guest-like display.
type ProfileFetchError struct {
	UserID string
	Err    error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("fetch profile %s: %v", e.UserID, e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}

var ErrProfileNotFound = errors.New("profile not found")

// IsAuthError reports whether err is a credential-level failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsServiceError reports whether err is a transient service failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
