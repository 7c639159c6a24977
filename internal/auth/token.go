package auth

import "time"

// BearerToken is one credential issued by the payments fraud auth server.
type BearerToken struct {
	AccessToken string
	TokenType   string
	Scope       string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be sent at now.
func (t BearerToken) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Header renders the Authorization header value.
func (t BearerToken) Header() string {
	return t.TokenType + " " + t.AccessToken
}
