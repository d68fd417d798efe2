/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// GateOpts represents options for Gate.
type GateOpts struct {
	// Clock is used for scheduling turns. By default, the real clock is used.
	Clock clockwork.Clock
}

// Gate grants turns to callers so that consecutive grants are at least Delay apart.
// Turns are reserved in arrival order, so waiting callers are served FIFO.
// The first turn is granted immediately.
type Gate struct {
	limiter *rate.Limiter
	delay   *atomic.Duration
	clock   clockwork.Clock
}

// NewGate creates a new Gate with the specified delay between turns. Zero delay disables limiting.
func NewGate(delay time.Duration) (*Gate, error) {
	return NewGateWithOpts(delay, GateOpts{})
}

// NewGateWithOpts creates a new Gate with the specified delay and options.
func NewGateWithOpts(delay time.Duration, opts GateOpts) (*Gate, error) {
	if delay < 0 {
		return nil, fmt.Errorf("delay must not be negative")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Gate{
		limiter: rate.NewLimiter(limit, 1),
		delay:   atomic.NewDuration(delay),
		clock:   opts.Clock,
	}, nil
}

// Delay returns the current minimal interval between turns.
func (g *Gate) Delay() time.Duration {
	return g.delay.Load()
}

// SetDelay changes the minimal interval between turns.
// The new value applies to reservations made after the call; callers already waiting keep their turn time.
func (g *Gate) SetDelay(delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	g.delay.Store(delay)
	if delay > 0 {
		// Zero delay bypasses the limiter instead of switching it to rate.Inf,
		// so the limiter keeps its last grant time when limiting is enabled again.
		g.limiter.SetLimitAt(g.clock.Now(), rate.Every(delay))
	}
	return nil
}

// AwaitTurn blocks until the caller's turn comes.
// If ctx is done before that, the reserved turn is given back and ctx.Err() is returned.
func (g *Gate) AwaitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.delay.Load() == 0 {
		return nil
	}

	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limiter cannot grant a turn")
	}
	wait := r.DelayFrom(now)
	if wait <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		r.CancelAt(g.clock.Now())
		return ctx.Err()
	}
}
