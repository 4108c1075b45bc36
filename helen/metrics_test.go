package helen

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	c := newTestClient(t, &fakeAPI{}, WithMetrics(m))
	ctx := context.Background()
	start, end := date(2025, time.June, 1), date(2025, time.June, 2)

	_, err = c.DailyMeasurements(ctx, start, end, 0)
	require.NoError(t, err)
	_, err = c.DailyMeasurements(ctx, start, end, 0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(ContractEndpoint, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(MeasurementsEndpoint, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("daily_measurements", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("daily_measurements", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("contracts", "miss")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestNewMetricsReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.observeCache("contracts", true)
	second.observeCache("contracts", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.cache.WithLabelValues("contracts", "hit")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRequest(ContractEndpoint, 200, time.Second)
		m.observeCache("contracts", false)
	})
}
