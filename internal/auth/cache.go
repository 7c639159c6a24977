package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ris-sdk/internal/logger"
	"ris-sdk/internal/metrics"
)

const refreshKey = "bearer"

// TokenCache holds the current bearer token for one set of payments fraud
// credentials. Create one per credential scope and share it between every
// provider that uses those credentials.
type TokenCache struct {
	fetcher Fetcher
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.RWMutex
	token BearerToken

	// sf collapses concurrent refreshes into one call to the token endpoint.
	sf singleflight.Group
}

type CacheOption func(*TokenCache)

func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *TokenCache) { c.metrics = m }
}

func WithClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) { c.now = now }
}

func NewTokenCache(fetcher Fetcher, opts ...CacheOption) *TokenCache {
	c := &TokenCache{
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetValidToken returns the cached token, refreshing it first when it has
// expired.
func (c *TokenCache) GetValidToken(ctx context.Context) (BearerToken, error) {
	if tok := c.Current(); tok.Valid(c.now()) {
		return tok, nil
	}
	return c.RefreshToken(ctx)
}

// RefreshToken fetches a new token unless another caller already replaced
// the expired one. Concurrent callers share a single fetch and its result.
// The fetch is not cancelled when ctx is.
func (c *TokenCache) RefreshToken(ctx context.Context) (BearerToken, error) {
	v, err, shared := c.sf.Do(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return BearerToken{}, err
	}
	if shared {
		logger.FromCtx(ctx).Debug("joined in-flight token refresh")
	}
	return v.(BearerToken), nil
}

func (c *TokenCache) refresh(ctx context.Context) (BearerToken, error) {
	// another flight may have finished between our read and this one
	if tok := c.Current(); tok.Valid(c.now()) {
		return tok, nil
	}

	ctx, span := metrics.StartSpan(ctx, "auth.RefreshToken")
	defer span.End()

	log := logger.FromCtx(ctx)

	tok, err := c.fetcher.Fetch(ctx)
	if err == nil && !tok.Valid(c.now()) {
		err = ErrInvalidExpiry
	}
	c.metrics.ObserveRefresh(err)
	if err != nil {
		var refreshErr *RefreshError
		if !errors.As(err, &refreshErr) {
			err = &RefreshError{Err: err}
		}
		span.RecordError(err)
		log.Warn("bearer token refresh failed", zap.Error(err))
		return BearerToken{}, err
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	log.Info("bearer token refreshed", zap.Time("expires_at", tok.ExpiresAt))
	return tok, nil
}

// Current returns the cached token without refreshing it.
func (c *TokenCache) Current() BearerToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Invalidate marks the cached token as expired so the next GetValidToken
// fetches a new one. The token itself is kept.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token.ExpiresAt = time.Time{}
}
