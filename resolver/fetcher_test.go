/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xch-dev/sage-sub002/directory"
)

type fetchSpan struct {
	did        string
	start, end time.Time
}

// fakeFetcher is a Fetcher with controllable latency and failures that records every call.
type fakeFetcher struct {
	mu           sync.Mutex
	records      map[string]directory.Record
	err          error
	failBatchFor string
	delay        time.Duration
	hold         chan struct{}
	maxBatchSize int

	calls       map[string]int
	spans       []fetchSpan
	batches     [][]string
	inFlight    int
	maxInFlight int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records:      make(map[string]directory.Record),
		calls:        make(map[string]int),
		maxBatchSize: directory.DefaultMaxBatchSize,
	}
}

func (f *fakeFetcher) addRecord(did, name, avatarURI string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[did] = directory.Record{DID: did, Name: name, AvatarURI: avatarURI}
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeFetcher) holdFetches() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = make(chan struct{})
}

func (f *fakeFetcher) releaseFetches() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hold != nil {
		close(f.hold)
		f.hold = nil
	}
}

func (f *fakeFetcher) callCount(did string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[did]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) fetchSpans() []fetchSpan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchSpan(nil), f.spans...)
}

func (f *fakeFetcher) batchCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func (f *fakeFetcher) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *fakeFetcher) begin(did string) (delay time.Duration, hold chan struct{}, start time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[did]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	return f.delay, f.hold, time.Now()
}

func (f *fakeFetcher) finish(did string, start time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.spans = append(f.spans, fetchSpan{did: did, start: start, end: time.Now()})
}

func (f *fakeFetcher) Lookup(ctx context.Context, did string) (directory.Record, error) {
	delay, hold, start := f.begin(did)
	defer f.finish(did, start)
	if hold != nil {
		<-hold
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return directory.Record{}, f.err
	}
	rec, ok := f.records[did]
	if !ok {
		return directory.Record{}, directory.ErrNotFound
	}
	return rec, nil
}

func (f *fakeFetcher) LookupBatch(ctx context.Context, dids []string) (map[string]directory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), dids...))
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]directory.Record)
	for _, did := range dids {
		if did == f.failBatchFor {
			return nil, errors.New("batch failed")
		}
		if rec, ok := f.records[did]; ok {
			result[did] = rec
		}
	}
	return result, nil
}

func (f *fakeFetcher) MaxBatchSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxBatchSize
}
