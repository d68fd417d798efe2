/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/service"
)

// NewSweeper returns a worker that removes expired profiles right after start and then
// every Config.SweepInterval. The interval is re-read after each run, so UpdateConfig changes it.
func NewSweeper(svc *Service, logger log.FieldLogger) *service.PeriodicWorker {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	sweep := service.WorkerFunc(func(ctx context.Context) error {
		removed := svc.ClearExpiredCache(ctx)
		logger.Debug("profile cache sweep finished", log.Int("removed", removed))
		return nil
	})
	return service.NewPeriodicWorkerWithOpts(sweep, svc.GetConfig().SweepInterval, logger, service.PeriodicWorkerOpts{
		IntervalDelayFunc: func(service.Worker, error) time.Duration {
			return svc.GetConfig().SweepInterval
		},
	})
}
