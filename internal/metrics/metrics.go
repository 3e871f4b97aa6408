package metrics

import (
	"strconv"
	"time"

	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	registry *prometheus.Registry

	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec
	DegradedResponseTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SearchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bingsearch_requests_total",
				Help: "Total number of search API requests",
			},
			[]string{"endpoint", "status"},
		),
		SearchRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bingsearch_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		),
		DegradedResponseTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bingsearch_degraded_responses_total",
				Help: "Total number of unexpected responses skipped in safe mode",
			},
			[]string{"endpoint", "reason"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest implements bing.Observer.
func (m *Metrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}

	m.SearchRequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.SearchRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveDegraded implements bing.Observer.
func (m *Metrics) ObserveDegraded(endpoint string, reason string) {
	m.DegradedResponseTotal.WithLabelValues(endpoint, reason).Inc()
}

// WriteToFile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteToFile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

var _ bing.Observer = &Metrics{}
