/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"

	"github.com/acronis/go-appkit/log"

	"github.com/xch-dev/sage-sub002/profile"
)

// LoadProfiles fetches profiles of the DIDs with batch directory requests and caches them.
// Every batch passes the rate limiting gate once. DIDs missing from a batch response are cached as unknown.
// A failed batch is logged and nothing is cached for its DIDs. LoadProfiles doesn't go through
// the per-DID coalescing, so it may overlap with GetProfile calls; the last write wins.
func (s *Service) LoadProfiles(ctx context.Context, dids []string) {
	unique := uniqueDIDs(dids)
	if len(unique) == 0 {
		return
	}
	batchSize := s.fetcher.MaxBatchSize()
	if batchSize < 1 {
		batchSize = 1
	}

	var loaded, failed int
	for start := 0; start < len(unique); start += batchSize {
		batch := unique[start:min(start+batchSize, len(unique))]
		if err := s.gate.AwaitTurn(ctx); err != nil {
			s.logger.Warn("profile preload interrupted",
				log.Int("pending", len(unique)-start), log.Error(err))
			return
		}
		if s.loadBatch(ctx, batch) {
			loaded += len(batch)
		} else {
			failed += len(batch)
		}
	}
	s.logger.Info("profiles preloaded", log.Int("loaded", loaded), log.Int("failed", failed))
}

func (s *Service) loadBatch(ctx context.Context, batch []string) bool {
	s.batchFetches.Inc()
	records, err := s.fetcher.LookupBatch(ctx, batch)
	if err != nil {
		s.fetchFailures.Inc()
		s.metrics.IncFetches(FetchKindBatch, FetchResultError)
		s.logger.Warn("failed to preload profiles from directory",
			log.Int("batch_size", len(batch)), log.Error(err))
		return false
	}
	s.metrics.IncFetches(FetchKindBatch, FetchResultOK)

	values := make(map[string]profile.Metadata, len(batch))
	for _, did := range batch {
		if rec, ok := records[did]; ok {
			values[did] = profile.Known(did, rec.Name, rec.AvatarURI, s.nameFn)
		} else {
			values[did] = s.fallback(did)
		}
	}
	s.cache.SetMany(ctx, values)
	return true
}

func uniqueDIDs(dids []string) []string {
	seen := make(map[string]struct{}, len(dids))
	unique := make([]string, 0, len(dids))
	for _, did := range dids {
		if did == "" {
			continue
		}
		if _, ok := seen[did]; ok {
			continue
		}
		seen[did] = struct{}{}
		unique = append(unique, did)
	}
	return unique
}
