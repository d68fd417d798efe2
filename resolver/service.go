/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acronis/go-appkit/log"
	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"

	"github.com/xch-dev/sage-sub002/directory"
	"github.com/xch-dev/sage-sub002/profile"
	"github.com/xch-dev/sage-sub002/ratelimit"
	"github.com/xch-dev/sage-sub002/store"
	"github.com/xch-dev/sage-sub002/ttlcache"
)

// Fetcher looks up profile records in the directory.
// directory.ErrNotFound means the directory has no record, any other error is a failure.
type Fetcher interface {
	Lookup(ctx context.Context, did string) (directory.Record, error)
	LookupBatch(ctx context.Context, dids []string) (map[string]directory.Record, error)
	MaxBatchSize() int
}

var _ Fetcher = (*directory.Client)(nil)

// Options represents options for the Service.
type Options struct {
	// Logger is used for logging. By default, logging is disabled.
	Logger log.FieldLogger

	// Clock is used by the cache and the rate limiting gate. By default, the real clock is used.
	Clock clockwork.Clock

	// MetricsCollector collects directory fetch metrics. It can be nil.
	MetricsCollector MetricsCollector

	// CacheMetricsCollector collects cache usage metrics. It can be nil.
	CacheMetricsCollector ttlcache.MetricsCollector
}

// Stats is a snapshot of the Service state.
type Stats struct {
	InFlight              int   `json:"inFlight" yaml:"inFlight"`
	Waiting               int   `json:"waiting" yaml:"waiting"`
	MaxConcurrentRequests int   `json:"maxConcurrentRequests" yaml:"maxConcurrentRequests"`
	Fetches               int64 `json:"fetches" yaml:"fetches"`
	FetchFailures         int64 `json:"fetchFailures" yaml:"fetchFailures"`
	BatchFetches          int64 `json:"batchFetches" yaml:"batchFetches"`
}

// Service resolves DIDs to profile metadata.
type Service struct {
	cfgMu sync.RWMutex
	cfg   Config

	cache   *ttlcache.Cache
	gate    *ratelimit.Gate
	fetcher Fetcher
	flights *flightGroup
	nameFn  profile.NameFunc
	logger  log.FieldLogger
	metrics MetricsCollector

	fetches       *atomic.Int64
	fetchFailures *atomic.Int64
	batchFetches  *atomic.Int64
	fetchWG       sync.WaitGroup
}

// New creates a new Service with default options.
func New(cfg *Config, s store.Store, fetcher Fetcher) (*Service, error) {
	return NewWithOpts(cfg, s, fetcher, Options{})
}

// NewWithOpts creates a new Service with the provided options.
func NewWithOpts(cfg *Config, s store.Store, fetcher Fetcher, opts Options) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	namer, err := cfg.Fallback.Namer()
	if err != nil {
		return nil, fmt.Errorf("fallback naming: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}

	cache, err := ttlcache.NewWithOpts(s, ttlcache.Options{
		TTL:              cfg.CacheDuration,
		Clock:            opts.Clock,
		Logger:           opts.Logger,
		MetricsCollector: opts.CacheMetricsCollector,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile cache: %w", err)
	}
	gate, err := ratelimit.NewGateWithOpts(cfg.DelayBetweenRequests, ratelimit.GateOpts{Clock: opts.Clock})
	if err != nil {
		return nil, fmt.Errorf("create rate limiting gate: %w", err)
	}

	return &Service{
		cfg:           *cfg,
		cache:         cache,
		gate:          gate,
		fetcher:       fetcher,
		flights:       newFlightGroup(cfg.MaxConcurrentRequests),
		nameFn:        namer.Name,
		logger:        opts.Logger,
		metrics:       opts.MetricsCollector,
		fetches:       atomic.NewInt64(0),
		fetchFailures: atomic.NewInt64(0),
		batchFetches:  atomic.NewInt64(0),
	}, nil
}

// GetOption is an option for GetProfile.
type GetOption func(o *getOptions)

type getOptions struct {
	cacheOnly bool
}

// CacheOnly makes GetProfile answer from the cache only.
// On a miss the fallback profile is returned and the directory isn't contacted.
func CacheOnly() GetOption {
	return func(o *getOptions) {
		o.cacheOnly = true
	}
}

// GetProfile returns the profile of the DID. It never fails: if the profile can't be resolved,
// the fallback profile with IsUnknown set is returned and nothing is cached.
//
// Concurrent calls for the same DID share one directory request.
// If ctx is done while waiting for that request, the fallback profile is returned immediately;
// the request itself keeps running and its result is cached for later calls.
func (s *Service) GetProfile(ctx context.Context, did string, opts ...GetOption) profile.Metadata {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	if did == "" {
		return s.fallback(did)
	}

	for {
		if m, ok := s.cache.Get(ctx, did); ok {
			return m
		}
		if o.cacheOnly || ctx.Err() != nil {
			return s.fallback(did)
		}

		c, leader, wait := s.flights.acquire(did)
		if wait != nil {
			if !s.waitForSlot(ctx, wait) {
				return s.fallback(did)
			}
			continue
		}
		if leader {
			s.startFetch(ctx, did, c)
		}
		select {
		case <-c.done:
			return c.val
		case <-ctx.Done():
			return s.fallback(did)
		}
	}
}

func (s *Service) waitForSlot(ctx context.Context, wait <-chan struct{}) bool {
	s.flights.addWaiting(1)
	s.updateFlightMetrics()
	defer func() {
		s.flights.addWaiting(-1)
		s.updateFlightMetrics()
	}()
	select {
	case <-wait:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) startFetch(ctx context.Context, did string, c *flightCall) {
	s.updateFlightMetrics()
	fetchCtx := context.WithoutCancel(ctx)
	s.fetchWG.Add(1)
	go func() {
		defer s.fetchWG.Done()
		val := s.fallback(did)
		defer func() {
			s.flights.release(did, c, val)
			s.updateFlightMetrics()
		}()
		val = s.fetch(fetchCtx, did)
	}()
}

func (s *Service) fetch(ctx context.Context, did string) profile.Metadata {
	// The previous leader for this DID may have finished after our cache check.
	if m, ok := s.cache.Get(ctx, did); ok {
		return m
	}
	if err := s.gate.AwaitTurn(ctx); err != nil {
		s.logger.Warn("failed to wait for directory request turn, using fallback profile",
			log.String("did", did), log.Error(err))
		return s.fallback(did)
	}

	s.fetches.Inc()
	rec, err := s.fetcher.Lookup(ctx, did)
	switch {
	case err == nil:
		s.metrics.IncFetches(FetchKindSingle, FetchResultOK)
		m := profile.Known(did, rec.Name, rec.AvatarURI, s.nameFn)
		s.cache.Set(ctx, did, m)
		return m
	case errors.Is(err, directory.ErrNotFound):
		// Not cached: the identity may be registered later.
		s.metrics.IncFetches(FetchKindSingle, FetchResultNotFound)
		return s.fallback(did)
	default:
		s.fetchFailures.Inc()
		s.metrics.IncFetches(FetchKindSingle, FetchResultError)
		s.logger.Warn("failed to fetch profile from directory, using fallback profile",
			log.String("did", did), log.Error(err))
		return s.fallback(did)
	}
}

// WaitForFetches blocks until all directory requests started by GetProfile are finished.
func (s *Service) WaitForFetches() {
	s.fetchWG.Wait()
}

// ClearCache removes all cached profiles.
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.ClearAll(ctx)
}

// ClearExpiredCache removes expired profiles from the store and returns the number of removed entries.
func (s *Service) ClearExpiredCache(ctx context.Context) int {
	return s.cache.SweepExpired(ctx)
}

// GetConfig returns the current configuration.
func (s *Service) GetConfig() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig applies the partial update and returns the resulting configuration.
// Invalid values are rejected and the configuration stays unchanged.
// Changes apply to the next scheduling decision; lookups already admitted are never cancelled.
func (s *Service) UpdateConfig(u ConfigUpdate) (Config, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	next := u.applyTo(s.cfg)
	if err := next.Validate(); err != nil {
		return s.cfg, fmt.Errorf("invalid profile service config: %w", err)
	}
	if err := s.gate.SetDelay(next.DelayBetweenRequests); err != nil {
		return s.cfg, fmt.Errorf("invalid profile service config: %w", err)
	}
	s.cache.SetTTL(next.CacheDuration)
	s.flights.setLimit(next.MaxConcurrentRequests)
	s.cfg = next

	s.logger.Info("profile service config updated",
		log.Duration("delay_between_requests", next.DelayBetweenRequests),
		log.Duration("cache_duration", next.CacheDuration),
		log.Int("max_concurrent_requests", next.MaxConcurrentRequests),
		log.Duration("sweep_interval", next.SweepInterval))
	return next, nil
}

// Stats returns a snapshot of the Service state.
func (s *Service) Stats() Stats {
	fs := s.flights.stats()
	return Stats{
		InFlight:              fs.inFlight,
		Waiting:               fs.waiting,
		MaxConcurrentRequests: fs.limit,
		Fetches:               s.fetches.Load(),
		FetchFailures:         s.fetchFailures.Load(),
		BatchFetches:          s.batchFetches.Load(),
	}
}

// CacheEntries returns all decodable cache entries, including expired ones.
func (s *Service) CacheEntries(ctx context.Context) (map[string]ttlcache.Entry, error) {
	return s.cache.Entries(ctx)
}

func (s *Service) fallback(did string) profile.Metadata {
	return profile.Fallback(did, s.nameFn)
}

func (s *Service) updateFlightMetrics() {
	fs := s.flights.stats()
	s.metrics.SetInFlight(fs.inFlight)
	s.metrics.SetWaiting(fs.waiting)
}
