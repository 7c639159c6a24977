package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ris-sdk/internal/logger"
)

const (
	grantType = "client_credentials"
	scope     = "k1_integration_api"

	defaultTokenType = "Bearer"

	// maxLifetime caps expires_in; larger values would overflow time.Duration.
	maxLifetime = 24 * time.Hour
)

// Fetcher obtains a fresh bearer token.
type Fetcher interface {
	Fetch(ctx context.Context) (BearerToken, error)
}

// HTTPFetcher requests client credentials tokens from the payments fraud
// auth endpoint.
type HTTPFetcher struct {
	authURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

func NewHTTPFetcher(authURL, apiKey string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		authURL: authURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: logger.NewLoggingTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
	Scope       string      `json:"scope"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (BearerToken, error) {
	tokenURL, err := f.tokenURL()
	if err != nil {
		return BearerToken{}, &RefreshError{URL: f.authURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, nil)
	if err != nil {
		return BearerToken{}, &RefreshError{URL: f.authURL, Err: errors.Wrap(err, "build token request")}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// the api key is issued already base64 encoded
	req.Header.Set("Authorization", "Basic "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return BearerToken{}, &RefreshError{URL: f.authURL, Err: errors.Wrap(err, "token request")}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return BearerToken{}, &RefreshError{URL: f.authURL, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "read token response")}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.FromCtx(ctx).Warn("token endpoint rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("url", f.authURL),
		)
		return BearerToken{}, &RefreshError{URL: f.authURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	tok, err := f.decode(body)
	if err != nil {
		return BearerToken{}, &RefreshError{URL: f.authURL, StatusCode: resp.StatusCode, Err: err}
	}
	return tok, nil
}

func (f *HTTPFetcher) tokenURL() (string, error) {
	u, err := url.Parse(f.authURL)
	if err != nil {
		return "", errors.Wrap(err, "parse auth url")
	}
	q := u.Query()
	q.Set("grant_type", grantType)
	q.Set("scope", scope)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *HTTPFetcher) decode(body []byte) (BearerToken, error) {
	var r tokenResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return BearerToken{}, errors.Wrap(err, "decode token response")
	}
	if r.AccessToken == "" {
		return BearerToken{}, ErrMissingAccessToken
	}

	seconds, err := r.ExpiresIn.Float64()
	if err != nil || seconds <= 0 {
		return BearerToken{}, ErrInvalidExpiry
	}

	lifetime := maxLifetime
	if seconds < maxLifetime.Seconds() {
		lifetime = time.Duration(seconds * float64(time.Second))
	}

	now := f.now()
	expiresAt := now.Add(lifetime)
	if exp, ok := jwtExpiry(r.AccessToken); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !expiresAt.After(now) {
		return BearerToken{}, ErrInvalidExpiry
	}

	tokenType := strings.TrimSpace(r.TokenType)
	if tokenType == "" {
		tokenType = defaultTokenType
	}

	return BearerToken{
		AccessToken: r.AccessToken,
		TokenType:   tokenType,
		Scope:       r.Scope,
		ExpiresAt:   expiresAt,
	}, nil
}

// jwtExpiry reads the exp claim of a JWT access token. The signature is not
// checked; the value only shortens how long the token is cached.
func jwtExpiry(accessToken string) (time.Time, bool) {
	tok, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
