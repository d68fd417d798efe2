/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/restapi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrorDomain is the domain of errors returned by the HTTP API.
const ErrorDomain = "ProfileCache"

const errCodeInvalidConfig = "invalidConfig"

type preloadRequest struct {
	IDs []string `json:"ids"`
}

type sweepResponse struct {
	Removed int `json:"removed"`
}

type configJSON struct {
	DelayBetweenRequests  string `json:"delayBetweenRequests"`
	CacheDuration         string `json:"cacheDuration"`
	MaxConcurrentRequests int    `json:"maxConcurrentRequests"`
	SweepInterval         string `json:"sweepInterval"`
}

type configPatchJSON struct {
	DelayBetweenRequests  *string `json:"delayBetweenRequests"`
	CacheDuration         *string `json:"cacheDuration"`
	MaxConcurrentRequests *int    `json:"maxConcurrentRequests"`
	SweepInterval         *string `json:"sweepInterval"`
}

func newConfigJSON(cfg Config) configJSON {
	return configJSON{
		DelayBetweenRequests:  cfg.DelayBetweenRequests.String(),
		CacheDuration:         cfg.CacheDuration.String(),
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		SweepInterval:         cfg.SweepInterval.String(),
	}
}

func (p configPatchJSON) toUpdate() (ConfigUpdate, error) {
	var u ConfigUpdate
	var err error
	if u.DelayBetweenRequests, err = parseOptionalDuration("delayBetweenRequests", p.DelayBetweenRequests); err != nil {
		return ConfigUpdate{}, err
	}
	if u.CacheDuration, err = parseOptionalDuration("cacheDuration", p.CacheDuration); err != nil {
		return ConfigUpdate{}, err
	}
	if u.SweepInterval, err = parseOptionalDuration("sweepInterval", p.SweepInterval); err != nil {
		return ConfigUpdate{}, err
	}
	u.MaxConcurrentRequests = p.MaxConcurrentRequests
	return u, nil
}

func parseOptionalDuration(name string, s *string) (*time.Duration, error) {
	if s == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

// Handler serves the HTTP API of the Service.
type Handler struct {
	router   chi.Router
	svc      *Service
	logger   log.FieldLogger
	preloads sync.WaitGroup
}

// NewHandler creates a new Handler for the Service.
func NewHandler(svc *Service, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	h := &Handler{router: chi.NewRouter(), svc: svc, logger: logger}
	h.router.Get("/profiles/{id}", h.getProfile)
	h.router.Post("/profiles/preload", h.preload)
	h.router.Delete("/cache", h.clearCache)
	h.router.Post("/cache/sweep", h.sweepCache)
	h.router.Get("/config", h.getConfig)
	h.router.Patch("/config", h.patchConfig)
	h.router.Get("/stats", h.getStats)
	h.router.Handle("/metrics", promhttp.Handler())
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(rw, r)
}

// WaitForPreloads blocks until all preloads started by the handler are finished.
func (h *Handler) WaitForPreloads() {
	h.preloads.Wait()
}

func (h *Handler) getProfile(rw http.ResponseWriter, r *http.Request) {
	var opts []GetOption
	if cacheOnly, _ := strconv.ParseBool(r.URL.Query().Get("cacheOnly")); cacheOnly {
		opts = append(opts, CacheOnly())
	}
	restapi.RespondJSON(rw, h.svc.GetProfile(r.Context(), chi.URLParam(r, "id"), opts...), h.logger)
}

func (h *Handler) preload(rw http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if err := restapi.DecodeRequestJSON(r, &req); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, ErrorDomain, err, h.logger)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	h.preloads.Add(1)
	go func() {
		defer h.preloads.Done()
		h.svc.LoadProfiles(ctx, req.IDs)
	}()
	rw.WriteHeader(http.StatusAccepted)
}

func (h *Handler) clearCache(rw http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache(r.Context())
	rw.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sweepCache(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, sweepResponse{Removed: h.svc.ClearExpiredCache(r.Context())}, h.logger)
}

func (h *Handler) getConfig(rw http.ResponseWriter, _ *http.Request) {
	restapi.RespondJSON(rw, newConfigJSON(h.svc.GetConfig()), h.logger)
}

func (h *Handler) patchConfig(rw http.ResponseWriter, r *http.Request) {
	var patch configPatchJSON
	if err := restapi.DecodeRequestJSON(r, &patch); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, ErrorDomain, err, h.logger)
		return
	}
	update, err := patch.toUpdate()
	if err != nil {
		restapi.RespondError(rw, http.StatusBadRequest, restapi.NewError(ErrorDomain, errCodeInvalidConfig, err.Error()), h.logger)
		return
	}
	cfg, err := h.svc.UpdateConfig(update)
	if err != nil {
		restapi.RespondError(rw, http.StatusBadRequest, restapi.NewError(ErrorDomain, errCodeInvalidConfig, err.Error()), h.logger)
		return
	}
	restapi.RespondJSON(rw, newConfigJSON(cfg), h.logger)
}

func (h *Handler) getStats(rw http.ResponseWriter, _ *http.Request) {
	restapi.RespondJSON(rw, h.svc.Stats(), h.logger)
}
