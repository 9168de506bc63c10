// Package handler serves the enrichment HTTP API: term facets, stop-word
// lists, text analysis, and facet cache administration.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets/cache"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/stopwords"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/middleware"
)

const maxBodyBytes = 8 << 20

type Handler struct {
	facets   *facets.Service
	cache    *cache.FacetCache
	registry *stopwords.Registry
	analyzer *analysis.Analyzer
	tracker  analytics.Tracker
	logger   *slog.Logger
}

// New builds the API handler. facetCache and tracker may be nil.
func New(
	svc *facets.Service,
	facetCache *cache.FacetCache,
	registry *stopwords.Registry,
	analyzer *analysis.Analyzer,
	tracker analytics.Tracker,
) *Handler {
	return &Handler{
		facets:   svc,
		cache:    facetCache,
		registry: registry,
		analyzer: analyzer,
		tracker:  tracker,
		logger:   slog.Default().With("component", "api-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/facets", h.Facets)
	mux.HandleFunc("GET /api/v1/stopwords", h.Languages)
	mux.HandleFunc("GET /api/v1/stopwords/{lang}", h.Words)
	mux.HandleFunc("POST /api/v1/analyze", h.Analyze)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req facets.Request
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	req, err := h.facets.Normalize(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var result *facets.Result
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*facets.Result, error) {
			return h.facets.Compute(req)
		})
	} else {
		result, err = h.facets.Compute(req)
	}
	if err != nil {
		log.Error("facet computation failed", "slot", req.Slot, "error", err)
		h.writeError(w, err)
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("facets served",
		"slot", result.Slot,
		"matched", result.Matched,
		"terms", len(result.Terms),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	terms := make([]string, len(result.Terms))
	for i, t := range result.Terms {
		terms[i] = t.Name
	}
	h.track(r, analytics.Event{
		Type:      analytics.EventFacet,
		Slot:      result.Slot,
		Matched:   result.Matched,
		Terms:     terms,
		CacheHit:  cacheHit,
		LatencyMs: latencyMs,
	})
	h.writeJSON(w, http.StatusOK, result)
}

type languagesResponse struct {
	Available []string `json:"available"`
	Cached    []string `json:"cached"`
}

func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	available, err := h.registry.Languages()
	if err != nil {
		logger.FromContext(r.Context()).Error("listing stopword languages failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, languagesResponse{Available: available, Cached: h.registry.Cached()})
}

type wordsResponse struct {
	Language string   `json:"language"`
	Count    int      `json:"count"`
	Words    []string `json:"words"`
}

func (h *Handler) Words(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := r.PathValue("lang")
	stopper, err := h.registry.ForLanguage(lang)
	h.track(r, analytics.Event{
		Type:      analytics.EventStopwordLookup,
		Language:  stopwords.Language(lang).String(),
		Supported: err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wordsResponse{
		Language: stopwords.Language(lang).String(),
		Count:    stopper.Len(),
		Words:    stopper.Words(),
	})
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req analysis.Request
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.analyzer.Analyze(req)
	event := analytics.Event{
		Type:      analytics.EventAnalyze,
		Supported: err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		event.Language = stopwords.Language(req.Language).String()
		h.track(r, event)
		h.writeError(w, err)
		return
	}
	event.Language = result.Language
	event.Removed = result.Removed
	h.track(r, event)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) track(r *http.Request, event analytics.Event) {
	if h.tracker == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	event.RequestID = middleware.GetRequestID(r.Context())
	h.tracker.Track(event)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
				"body exceeds %d bytes", tooLarge.Limit)
		}
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "malformed JSON body: %v", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Server-side failures are reported
// without detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
