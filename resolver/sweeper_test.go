/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestSweeper(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	env := newTestEnv(t, func(cfg *Config, opts *Options) {
		cfg.CacheDuration = time.Minute
		cfg.SweepInterval = 10 * time.Millisecond
		opts.Clock = clock
	})
	for _, did := range []string{"a", "b", "c"} {
		env.fetcher.addRecord(did, "name-"+did, "")
	}
	ctx := context.Background()
	env.svc.GetProfile(ctx, "a")
	env.svc.GetProfile(ctx, "b")
	clock.Advance(2 * time.Minute)
	env.svc.GetProfile(ctx, "c")
	require.Equal(t, 3, env.store.Len())

	sweeper := NewSweeper(env.svc, env.logs)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(runCtx) }()

	// The first sweep runs right after start.
	require.Eventually(t, func() bool { return env.store.Len() == 1 }, 5*time.Second, time.Millisecond)

	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool { return env.store.Len() == 0 }, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
