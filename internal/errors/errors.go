package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the exam client
var (
	// Token errors
	ErrMalformedToken = errors.New("malformed token")

	// Login errors
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidLoginResponse = errors.New("invalid login response")

	// Renewal errors
	ErrNoRefreshToken         = errors.New("no refresh token held")
	ErrRefreshRejected        = errors.New("refresh token rejected")
	ErrInvalidRefreshResponse = errors.New("invalid refresh response")
	ErrSessionChanged         = errors.New("session changed while renewing")
	ErrNotAuthenticated       = errors.New("not authenticated")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// StatusError is returned for HTTP responses outside the 2xx range that are
// not handled by the authentication lifecycle.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server responded with status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Unwrap maps well known status codes onto the sentinel errors
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}
