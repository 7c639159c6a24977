package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ris"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the collectors shared by the token cache and the client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TokenRefreshes  *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Bearer token refresh attempts by result.",
		}, []string{"result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Risk inquiry requests by auth mode and outcome.",
		}, []string{"mode", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Risk inquiry round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}

	if reg != nil {
		reg.MustRegister(m.TokenRefreshes, m.Requests, m.RequestDuration)
	}
	return m
}

func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveRequest(mode, outcome string, t *Timer) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(mode, outcome).Inc()
	if t != nil {
		m.RequestDuration.WithLabelValues(mode).Observe(t.Duration().Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
