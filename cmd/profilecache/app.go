/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"fmt"

	"github.com/acronis/go-appkit/httpclient"
	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/service"

	"github.com/xch-dev/sage-sub002/directory"
	"github.com/xch-dev/sage-sub002/resolver"
	"github.com/xch-dev/sage-sub002/store"
	"github.com/xch-dev/sage-sub002/ttlcache"
)

// app owns every long-lived component built from the AppConfig.
type app struct {
	cfg    *AppConfig
	logger log.FieldLogger
	store  *store.LazyStore
	svc    *resolver.Service

	// metrics is nil unless the app was built with Prometheus metrics.
	metrics *appMetrics

	closeLogger log.CloseFunc
}

type appOpts struct {
	// Logger replaces the logger built from the config.
	Logger log.FieldLogger

	// WithMetrics enables Prometheus metrics. They are registered by the service unit that runs the app.
	WithMetrics bool
}

func newApp(cfg *AppConfig, opts appOpts) (*app, error) {
	a := &app{cfg: cfg, logger: opts.Logger, closeLogger: func() {}}
	if a.logger == nil {
		a.logger, a.closeLogger = log.NewLogger(cfg.Log)
	}

	clientOpts := directory.ClientOpts{Logger: a.logger}
	svcOpts := resolver.Options{Logger: a.logger}
	if opts.WithMetrics {
		a.metrics = &appMetrics{
			resolver:   resolver.NewPrometheusMetrics(),
			cache:      ttlcache.NewPrometheusMetrics(),
			httpClient: httpclient.NewPrometheusMetricsCollector(""),
		}
		clientOpts.MetricsCollector = a.metrics.httpClient
		svcOpts.MetricsCollector = a.metrics.resolver
		svcOpts.CacheMetricsCollector = a.metrics.cache
	}

	dirClient, err := directory.NewClientWithOpts(cfg.Directory, clientOpts)
	if err != nil {
		a.closeLogger()
		return nil, fmt.Errorf("create directory client: %w", err)
	}

	a.store = store.NewLazyStore(store.NewOpener(cfg.Store, a.logger), a.logger)
	if a.svc, err = resolver.NewWithOpts(cfg.Profiles, a.store, dirClient, svcOpts); err != nil {
		a.closeLogger()
		return nil, fmt.Errorf("create profile service: %w", err)
	}
	return a, nil
}

// Close waits for background fetches and releases the store and the logger.
func (a *app) Close() {
	a.svc.WaitForFetches()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close profile store", log.Error(err))
	}
	a.closeLogger()
}

// appMetrics registers all collectors of the app together.
type appMetrics struct {
	resolver   *resolver.PrometheusMetrics
	cache      *ttlcache.PrometheusMetrics
	httpClient *httpclient.PrometheusMetricsCollector
}

var _ service.MetricsRegisterer = (*appMetrics)(nil)

func (m *appMetrics) MustRegisterMetrics() {
	m.resolver.MustRegister()
	m.cache.MustRegister()
	m.httpClient.MustRegister()
}

func (m *appMetrics) UnregisterMetrics() {
	m.resolver.Unregister()
	m.cache.Unregister()
	m.httpClient.Unregister()
}
