package auth

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidExpiry      = errors.New("token response has no positive expires_in")
	ErrMissingAccessToken = errors.New("token response has no access_token")
	ErrUnexpectedStatus   = errors.New("unexpected token endpoint status")
	ErrNoTokenCache       = errors.New("bearer mode requires a token cache")
)

// RefreshError is returned when a bearer token could not be obtained.
// The cached token is left untouched whenever one is returned.
type RefreshError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RefreshError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("refresh bearer token from %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("refresh bearer token from %s: %v", e.URL, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the token endpoint could not be reached in time.
func (e *RefreshError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// AuthError means no credentials could be produced for a request.
type AuthError struct {
	Mode string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth: %v", e.Mode, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
