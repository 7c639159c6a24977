package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport logs every outbound call made through Next.
type LoggingTransport struct {
	Next http.RoundTripper
}

func NewLoggingTransport(next http.RoundTripper) *LoggingTransport {
	return &LoggingTransport{Next: next}
}

func (t *LoggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}

	if reqID := RequestIDFrom(r.Context()); reqID != "" && r.Header.Get(RequestIDHeader) == "" {
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, reqID)
	}

	start := time.Now()
	log := FromCtx(r.Context())

	resp, err := next.RoundTrip(r)
	if err != nil {
		log.Warn("outbound request failed",
			zap.String("method", r.Method),
			zap.String("host", r.URL.Host),
			zap.Duration("duration_ms", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("outbound request",
		zap.String("method", r.Method),
		zap.String("host", r.URL.Host),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration_ms", time.Since(start)),
	)
	return resp, nil
}
