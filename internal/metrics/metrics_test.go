package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRefresh(nil)
	m.ObserveRequest("static", "ok", StartTimer())

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestObserveRefresh(t *testing.T) {
	m := New(nil)

	m.ObserveRefresh(nil)
	m.ObserveRefresh(errors.New("boom"))
	m.ObserveRefresh(errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues(ResultFailure)))
}

func TestObserveRequest(t *testing.T) {
	m := New(nil)

	m.ObserveRequest("bearer", "ok", StartTimer())
	m.ObserveRequest("bearer", "server_error", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("bearer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("bearer", "server_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRefresh(nil)
		m.ObserveRequest("static", "ok", StartTimer())
	})
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(5 * time.Millisecond)

	assert.GreaterOrEqual(t, timer.Duration(), 5*time.Millisecond)
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}
