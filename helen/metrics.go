package helen

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records API call performance and cache efficiency.
// A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewMetrics registers the client metrics on reg, or on the default
// registerer if reg is nil. Already registered collectors are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "helen_api_requests_total",
		Help: "Total number of Oma Helen API requests",
	}, []string{"endpoint", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "helen_api_request_duration_seconds",
		Help:    "Duration of Oma Helen API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "helen_cache_lookups_total",
		Help: "Memoized accessor lookups by result",
	}, []string{"cache", "result"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if cache, err = register(reg, cache); err != nil {
		return nil, err
	}

	return &Metrics{requests: requests, duration: duration, cache: cache}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// status is the HTTP status code, or 0 when the request failed before a response.
func (m *Metrics) observeRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, label).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) observeCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(cache, result).Inc()
}
