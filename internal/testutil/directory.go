/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// DirectoryRecord is a record served by FakeDirectory.
type DirectoryRecord struct {
	DID       string `json:"did"`
	Name      string `json:"name"`
	AvatarURI string `json:"avatar_uri"`
}

// DirectoryRequest describes a request received by FakeDirectory.
type DirectoryRequest struct {
	Method    string
	Path      string
	DIDs      []string
	Header    http.Header
	StartedAt time.Time
}

// FakeDirectory is an in-process directory service for tests.
// It serves GET /dids/{did} and POST /dids/batch and records every request it receives.
type FakeDirectory struct {
	server *httptest.Server

	mu          sync.Mutex
	records     map[string]DirectoryRecord
	status      int
	malformed   bool
	rawBody     string
	delay       time.Duration
	hold        chan struct{}
	requests    []DirectoryRequest
	inFlight    int
	maxInFlight int
}

// NewFakeDirectory starts a new FakeDirectory. It's closed automatically when the test finishes.
func NewFakeDirectory(t interface{ Cleanup(func()) }) *FakeDirectory {
	d := &FakeDirectory{records: make(map[string]DirectoryRecord)}
	d.server = httptest.NewServer(http.HandlerFunc(d.serveHTTP))
	t.Cleanup(d.server.Close)
	return d
}

// URL returns the base URL of the fake directory.
func (d *FakeDirectory) URL() string {
	return d.server.URL
}

// AddRecord adds a record served for the DID.
func (d *FakeDirectory) AddRecord(did, name, avatarURI string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[did] = DirectoryRecord{DID: did, Name: name, AvatarURI: avatarURI}
}

// FailWithStatus makes all subsequent requests fail with the status code. Zero restores normal responses.
func (d *FakeDirectory) FailWithStatus(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// RespondMalformed makes all subsequent responses contain a body that is not valid JSON.
func (d *FakeDirectory) RespondMalformed(malformed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.malformed = malformed
}

// RespondWithBody makes all subsequent successful responses carry the raw body. Empty restores normal responses.
func (d *FakeDirectory) RespondWithBody(body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rawBody = body
}

// SetDelay makes every request take at least the given time.
func (d *FakeDirectory) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Hold blocks all subsequent requests until Release is called.
func (d *FakeDirectory) Hold() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hold == nil {
		d.hold = make(chan struct{})
	}
}

// Release unblocks requests blocked by Hold.
func (d *FakeDirectory) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hold != nil {
		close(d.hold)
		d.hold = nil
	}
}

// Requests returns all received requests in arrival order.
func (d *FakeDirectory) Requests() []DirectoryRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DirectoryRequest(nil), d.requests...)
}

// RequestCount returns the number of received requests.
func (d *FakeDirectory) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

// LookupCount returns the number of single lookups received for the DID.
func (d *FakeDirectory) LookupCount(did string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int
	for _, r := range d.requests {
		if r.Method == http.MethodGet && len(r.DIDs) == 1 && r.DIDs[0] == did {
			n++
		}
	}
	return n
}

// InFlight returns the number of requests being processed right now.
func (d *FakeDirectory) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// MaxInFlight returns the maximum number of requests that were processed simultaneously.
func (d *FakeDirectory) MaxInFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxInFlight
}

func (d *FakeDirectory) serveHTTP(rw http.ResponseWriter, r *http.Request) {
	req := DirectoryRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), StartedAt: time.Now()}
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/dids/"):
		req.DIDs = []string{strings.TrimPrefix(r.URL.Path, "/dids/")}
	case r.Method == http.MethodPost && r.URL.Path == "/dids/batch":
		var body struct {
			DIDs []string `json:"dids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		req.DIDs = body.DIDs
	default:
		http.NotFound(rw, r)
		return
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.inFlight++
	if d.inFlight > d.maxInFlight {
		d.maxInFlight = d.inFlight
	}
	status, malformed, rawBody, delay, hold := d.status, d.malformed, d.rawBody, d.delay, d.hold
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight--
		d.mu.Unlock()
	}()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		rw.WriteHeader(status)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	if malformed {
		_, _ = rw.Write([]byte(`{"name": `))
		return
	}
	if rawBody != "" {
		_, _ = rw.Write([]byte(rawBody))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if r.Method == http.MethodGet {
		rec, ok := d.records[req.DIDs[0]]
		if !ok {
			_ = json.NewEncoder(rw).Encode(map[string]string{"error": "not_found"})
			return
		}
		_ = json.NewEncoder(rw).Encode(rec)
		return
	}
	found := make([]DirectoryRecord, 0, len(req.DIDs))
	for _, did := range req.DIDs {
		if rec, ok := d.records[did]; ok {
			found = append(found, rec)
		}
	}
	_ = json.NewEncoder(rw).Encode(map[string][]DirectoryRecord{"dids": found})
}
