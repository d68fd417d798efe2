/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import "github.com/prometheus/client_golang/prometheus"

// Fetch kinds.
const (
	FetchKindSingle = "single"
	FetchKindBatch  = "batch"
)

// Fetch results.
const (
	FetchResultOK       = "ok"
	FetchResultNotFound = "not_found"
	FetchResultError    = "error"
)

// MetricsCollector represents a collector of metrics for directory fetches made by the Service.
type MetricsCollector interface {
	// IncFetches increments the number of directory requests of the kind that finished with the result.
	IncFetches(kind, result string)

	// SetInFlight sets the number of DIDs being fetched right now.
	SetInFlight(n int)

	// SetWaiting sets the number of callers waiting for a free fetch slot.
	SetWaiting(n int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the Service.
type PrometheusMetrics struct {
	FetchesTotal *prometheus.CounterVec
	InFlight     prometheus.Gauge
	Waiting      prometheus.Gauge
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "profile_directory_fetches_total",
			Help:        "Number of directory requests made to resolve profiles.",
			ConstLabels: opts.ConstLabels,
		}, []string{"kind", "result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "profile_fetches_in_flight",
			Help:        "Number of DIDs being fetched from the directory right now.",
			ConstLabels: opts.ConstLabels,
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "profile_fetches_waiting",
			Help:        "Number of lookups waiting for a free fetch slot.",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.FetchesTotal, pm.InFlight, pm.Waiting)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.FetchesTotal)
	prometheus.Unregister(pm.InFlight)
	prometheus.Unregister(pm.Waiting)
}

// IncFetches increments the number of directory requests of the kind that finished with the result.
func (pm *PrometheusMetrics) IncFetches(kind, result string) {
	pm.FetchesTotal.WithLabelValues(kind, result).Inc()
}

// SetInFlight sets the number of DIDs being fetched right now.
func (pm *PrometheusMetrics) SetInFlight(n int) {
	pm.InFlight.Set(float64(n))
}

// SetWaiting sets the number of callers waiting for a free fetch slot.
func (pm *PrometheusMetrics) SetWaiting(n int) {
	pm.Waiting.Set(float64(n))
}

type disabledMetrics struct{}

func (disabledMetrics) IncFetches(string, string) {}
func (disabledMetrics) SetInFlight(int)           {}
func (disabledMetrics) SetWaiting(int)            {}
