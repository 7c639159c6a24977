package ris

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ris-sdk/internal/auth"
	"ris-sdk/internal/config"
	"ris-sdk/internal/logger"
	"ris-sdk/internal/metrics"
)

const (
	outcomeOK           = "ok"
	outcomeAuthError    = "auth_error"
	outcomeNetworkError = "network_error"
	outcomeServerError  = "server_error"
)

// Client posts requests to the risk endpoint.
type Client struct {
	cfg        *config.Config
	provider   auth.Provider
	transport  http.RoundTripper
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTransport replaces the TLS transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func NewClient(cfg *config.Config, provider auth.Provider, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		provider: provider,
	}
	if cfg.RIS.RateLimit > 0 {
		burst := int(cfg.RIS.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RIS.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = c.newHTTPClient(provider)
	return c
}

// newHTTPClient presents the client certificate of provider. Deadlines come
// from the request context, so the client itself has no timeout.
func (c *Client) newHTTPClient(provider auth.Provider) *http.Client {
	rt := c.transport
	if rt == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			GetClientCertificate: func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
				cert, err := provider.ClientCertificate()
				if err != nil {
					return nil, err
				}
				if cert == nil {
					return &tls.Certificate{}, nil
				}
				return cert, nil
			},
		}
		rt = transport
	}
	return &http.Client{Transport: logger.NewLoggingTransport(rt)}
}

// credentialsFor returns the provider and http client for r. A request that
// overrides the static credentials gets its own connection pool, since
// pooled TLS connections keep the certificate they were opened with.
func (c *Client) credentialsFor(r *Request) (auth.Provider, *http.Client, func()) {
	creds, ok := r.staticCredentials()
	if !ok || c.provider.Mode() != auth.ModeStatic {
		return c.provider, c.httpClient, func() {}
	}
	p := auth.NewStaticProvider(r.GetParam("MERC"), creds.apiKey, creds.certFile, creds.certPassword)
	hc := c.newHTTPClient(p)
	return p, hc, hc.CloseIdleConnections
}

func (c *Client) timeout(r *Request) time.Duration {
	if r.timeout > 0 {
		return r.timeout
	}
	return c.cfg.Timeout()
}

// Send posts r and returns the raw response body.
func (c *Client) Send(ctx context.Context, r *Request) ([]byte, error) {
	ctx, reqID := logger.EnsureRequestID(ctx)
	mode := c.provider.Mode()

	ctx, span := metrics.StartSpan(ctx, "ris.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("ris.mode", mode),
		attribute.String("request_id", reqID),
	)

	log := logger.FromCtx(ctx).With(zap.String("url", r.URL()))

	body, outcome, err := c.send(ctx, log, r)
	c.metrics.ObserveRequest(mode, outcome.name, outcome.timer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome.name)
		return nil, err
	}
	return body, nil
}

type result struct {
	name  string
	timer *metrics.Timer
}

func (c *Client) send(ctx context.Context, log *zap.Logger, r *Request) ([]byte, result, error) {
	timeout := c.timeout(r)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, result{name: outcomeNetworkError}, &NetworkError{URL: r.URL(), Timeout: timeout, Err: err}
		}
	}

	provider, httpClient, release := c.credentialsFor(r)
	defer release()

	headers, err := provider.Headers(ctx)
	if err != nil {
		log.Error("failed to build credentials", zap.Error(err))
		return nil, result{name: outcomeAuthError}, err
	}
	if _, err := provider.ClientCertificate(); err != nil {
		log.Error("failed to load client certificate", zap.Error(err))
		return nil, result{name: outcomeAuthError}, err
	}
	// the merchant header tracks MERC, which SetMerchantID may have changed
	if headers.Get(auth.HeaderMerchantID) != "" {
		headers.Set(auth.HeaderMerchantID, r.GetParam("MERC"))
	}

	params := r.Params()
	logParams(log, params)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL(), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, result{name: outcomeNetworkError}, &NetworkError{URL: r.URL(), Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	timer := metrics.StartTimer()
	resp, err := httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{URL: r.URL(), Timeout: timeout, Err: err}
		log.Error("risk request failed", zap.Error(netErr))
		return nil, result{name: outcomeNetworkError, timer: timer}, netErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, result{name: outcomeNetworkError, timer: timer}, &NetworkError{URL: r.URL(), Timeout: timeout, Err: errors.Wrap(err, "read response")}
	}

	if c.cfg.LogElapsed() {
		log.Info("risk request elapsed",
			zap.String("MERC", r.GetParam("MERC")),
			zap.String("SESS", r.GetParam("SESS")),
			zap.Int64("SDK_ELAPSED", timer.Duration().Milliseconds()),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		srvErr := &ServerError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       body,
		}
		log.Error("risk endpoint returned error", zap.Int("status", resp.StatusCode), zap.Error(srvErr))
		return nil, result{name: outcomeServerError, timer: timer}, srvErr
	}

	return body, result{name: outcomeOK, timer: timer}, nil
}

func logParams(log *zap.Logger, params map[string][]string) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := strings.Join(params[k], ",")
		if k == "PTOK" {
			value = hiddenToken
		}
		log.Debug("request parameter", zap.String("key", k), zap.String("value", value))
	}
}
