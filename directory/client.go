/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/acronis/go-appkit/httpclient"
	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"
	"github.com/rs/xid"
)

// maxResponseBodySize limits how much of a directory response is read.
const maxResponseBodySize = 4 << 20

const notFoundMarker = "not_found"

// MetricsRequestType is the request type reported to the HTTP client metrics collector.
const MetricsRequestType = "profile-directory"

// ErrNotFound is returned when the directory has no record for the requested DID.
var ErrNotFound = errors.New("did not found in directory")

// ErrMalformedResponse is returned when the directory response body can't be parsed.
var ErrMalformedResponse = errors.New("malformed directory response")

// StatusError is returned when the directory responds with an unexpected HTTP status code.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory request %s %s failed with status %d", e.Method, e.URL, e.StatusCode)
}

// Record is a profile record of the directory.
type Record struct {
	DID       string `json:"did"`
	Name      string `json:"name"`
	AvatarURI string `json:"avatar_uri"`
}

type recordResponse struct {
	Record
	Error string `json:"error"`
}

type batchRequest struct {
	DIDs []string `json:"dids"`
}

type batchResponse struct {
	DIDs []Record `json:"dids"`
}

// ClientOpts represents options for the Client.
type ClientOpts struct {
	// Transport is the base transport. By default, http.DefaultTransport is used.
	Transport http.RoundTripper

	// Logger is used for logging retries and failed requests. By default, logging is disabled.
	Logger log.FieldLogger

	// MetricsCollector observes the duration of every network attempt, retries included. It can be nil.
	MetricsCollector httpclient.MetricsCollector
}

// Client is an HTTP client of the directory service.
// It doesn't rate limit requests itself; callers are expected to pass a shared gate before each call.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxBatchSize int
	logger       log.FieldLogger
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	return NewClientWithOpts(cfg, ClientOpts{})
}

// NewClientWithOpts creates a new Client with the given configuration and options.
func NewClientWithOpts(cfg *Config, opts ClientOpts) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL must not be empty")
	}
	if cfg.MaxBatchSize < 1 {
		return nil, fmt.Errorf("max batch size must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	tr := opts.Transport
	if opts.MetricsCollector != nil {
		tr = httpclient.NewMetricsRoundTripperWithOpts(tr, opts.MetricsCollector, httpclient.MetricsRoundTripperOpts{
			ClientType: MetricsRequestType,
		})
	}
	if cfg.Retries.Enabled {
		var err error
		tr, err = httpclient.NewRetryableRoundTripperWithOpts(tr, httpclient.RetryableRoundTripperOpts{
			Logger:           opts.Logger,
			MaxRetryAttempts: cfg.Retries.MaxAttempts,
			BackoffPolicy:    cfg.Retries.Policy(),
			IgnoreRetryAfter: cfg.Retries.IgnoreRetryAfter,
		})
		if err != nil {
			return nil, fmt.Errorf("create retryable round tripper: %w", err)
		}
	}
	tr = httpclient.NewRequestIDRoundTripper(tr)
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	tr = httpclient.NewUserAgentRoundTripper(tr, userAgent)

	return &Client{
		httpClient:   &http.Client{Transport: tr, Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxBatchSize: cfg.MaxBatchSize,
		logger:       opts.Logger,
	}, nil
}

// MaxBatchSize returns the maximum number of ids accepted by LookupBatch.
func (c *Client) MaxBatchSize() int {
	return c.maxBatchSize
}

// Lookup returns the directory record for the DID.
// ErrNotFound is returned if the directory has no such record.
// ErrMalformedResponse is returned if the record has neither a name nor an avatar.
func (c *Client) Lookup(ctx context.Context, did string) (Record, error) {
	reqURL := c.baseURL + "/dids/" + url.PathEscape(did)
	var resp recordResponse
	if err := c.do(ctx, http.MethodGet, reqURL, nil, &resp); err != nil {
		return Record{}, err
	}
	if resp.Error == notFoundMarker {
		return Record{}, ErrNotFound
	}
	if resp.Error != "" {
		return Record{}, fmt.Errorf("%w: error %q", ErrMalformedResponse, resp.Error)
	}
	// A null or empty object decodes without error but carries no profile.
	if resp.Name == "" && resp.AvatarURI == "" {
		return Record{}, fmt.Errorf("%w: record has neither name nor avatar", ErrMalformedResponse)
	}
	if resp.DID == "" {
		resp.DID = did
	}
	return resp.Record, nil
}

// LookupBatch returns directory records for the DIDs keyed by DID.
// DIDs the directory has no record for are absent from the result.
func (c *Client) LookupBatch(ctx context.Context, dids []string) (map[string]Record, error) {
	if len(dids) > c.maxBatchSize {
		return nil, fmt.Errorf("batch of %d DIDs exceeds the limit of %d", len(dids), c.maxBatchSize)
	}
	body, err := json.Marshal(batchRequest{DIDs: dids})
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}
	var resp batchResponse
	if err = c.do(ctx, http.MethodPost, c.baseURL+"/dids/batch", body, &resp); err != nil {
		return nil, err
	}
	records := make(map[string]Record, len(resp.DIDs))
	for _, rec := range resp.DIDs {
		if rec.DID == "" {
			continue
		}
		records[rec.DID] = rec
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, body []byte, dst interface{}) error {
	ctx = middleware.NewContextWithRequestID(ctx, xid.New().String())

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request %s %s: %w", method, reqURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close directory response body", log.Error(closeErr))
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, URL: reqURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("read directory response: %w", err)
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	c.logger.Debug("directory request completed",
		log.String("method", method), log.String("url", reqURL), log.Int("status", resp.StatusCode))
	return nil
}
