/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package ttlcache

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics to analyze how (effectively or not) cache is used.
type MetricsCollector interface {
	// IncHits increments the total number of valid entries found in the cache.
	IncHits()

	// IncMisses increments the total number of lookups that found no valid entry.
	IncMisses()

	// AddWrites increments the total number of written entries.
	AddWrites(int)

	// AddSwept increments the total number of expired entries removed by sweeping.
	AddSwept(int)

	// IncStoreErrors increments the total number of failed store operations.
	IncStoreErrors(op string)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents a Prometheus metrics for the cache.
type PrometheusMetrics struct {
	HitsTotal        prometheus.Counter
	MissesTotal      prometheus.Counter
	WritesTotal      prometheus.Counter
	SweptTotal       prometheus.Counter
	StoreErrorsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: opts.ConstLabels,
		})
	}
	return &PrometheusMetrics{
		HitsTotal:   counter("profile_cache_hits_total", "Number of valid entries found in the profile cache."),
		MissesTotal: counter("profile_cache_misses_total", "Number of lookups that found no valid entry in the profile cache."),
		WritesTotal: counter("profile_cache_writes_total", "Number of entries written to the profile cache."),
		SweptTotal:  counter("profile_cache_swept_total", "Number of expired entries removed from the profile cache."),
		StoreErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "profile_cache_store_errors_total",
			Help:        "Number of failed profile store operations.",
			ConstLabels: opts.ConstLabels,
		}, []string{"op"}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.HitsTotal, pm.MissesTotal, pm.WritesTotal, pm.SweptTotal, pm.StoreErrorsTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.HitsTotal)
	prometheus.Unregister(pm.MissesTotal)
	prometheus.Unregister(pm.WritesTotal)
	prometheus.Unregister(pm.SweptTotal)
	prometheus.Unregister(pm.StoreErrorsTotal)
}

// IncHits increments the total number of valid entries found in the cache.
func (pm *PrometheusMetrics) IncHits() {
	pm.HitsTotal.Inc()
}

// IncMisses increments the total number of lookups that found no valid entry.
func (pm *PrometheusMetrics) IncMisses() {
	pm.MissesTotal.Inc()
}

// AddWrites increments the total number of written entries.
func (pm *PrometheusMetrics) AddWrites(n int) {
	pm.WritesTotal.Add(float64(n))
}

// AddSwept increments the total number of expired entries removed by sweeping.
func (pm *PrometheusMetrics) AddSwept(n int) {
	pm.SweptTotal.Add(float64(n))
}

// IncStoreErrors increments the total number of failed store operations.
func (pm *PrometheusMetrics) IncStoreErrors(op string) {
	pm.StoreErrorsTotal.WithLabelValues(op).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncHits()              {}
func (disabledMetrics) IncMisses()            {}
func (disabledMetrics) AddWrites(int)         {}
func (disabledMetrics) AddSwept(int)          {}
func (disabledMetrics) IncStoreErrors(string) {}
