/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"sync"

	"github.com/xch-dev/sage-sub002/profile"
)

type flightCall struct {
	done chan struct{}
	val  profile.Metadata
}

// flightGroup tracks in-flight fetches by DID and limits how many distinct DIDs are fetched at once.
// Joining an existing fetch and registering a new one happen in the same critical section,
// so two callers can never both become the leader for one DID.
type flightGroup struct {
	mu        sync.Mutex
	calls     map[string]*flightCall
	limit     int
	slotFreed chan struct{} // closed and replaced every time a slot may have become available
	waiting   int
}

func newFlightGroup(limit int) *flightGroup {
	return &flightGroup{
		calls:     make(map[string]*flightCall),
		limit:     limit,
		slotFreed: make(chan struct{}),
	}
}

// acquire joins the in-flight fetch of the key or registers a new one.
// It returns exactly one of:
//   - the existing call and leader=false;
//   - a new call and leader=true, the caller must then call release;
//   - a non-nil wait channel if the limit is reached; it's closed when a slot may be free, and acquire should be retried.
func (g *flightGroup) acquire(key string) (c *flightCall, leader bool, wait <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.calls[key]; ok {
		return c, false, nil
	}
	if len(g.calls) >= g.limit {
		return nil, false, g.slotFreed
	}
	c = &flightCall{done: make(chan struct{})}
	g.calls[key] = c
	return c, true, nil
}

// release publishes the value to everyone waiting for the call, deregisters the key, and wakes up callers waiting for a slot.
func (g *flightGroup) release(key string, c *flightCall, val profile.Metadata) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c.val = val
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	close(c.done)
	g.broadcastLocked()
}

// setLimit changes the maximum number of distinct keys in flight.
// Already registered calls are never cancelled; a lower limit only delays new registrations.
func (g *flightGroup) setLimit(limit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raised := limit > g.limit
	g.limit = limit
	if raised {
		g.broadcastLocked()
	}
}

func (g *flightGroup) broadcastLocked() {
	close(g.slotFreed)
	g.slotFreed = make(chan struct{})
}

func (g *flightGroup) addWaiting(delta int) {
	g.mu.Lock()
	g.waiting += delta
	g.mu.Unlock()
}

type flightStats struct {
	inFlight int
	waiting  int
	limit    int
}

func (g *flightGroup) stats() flightStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return flightStats{inFlight: len(g.calls), waiting: g.waiting, limit: g.limit}
}
