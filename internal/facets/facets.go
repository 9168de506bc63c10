// Package facets computes term facets over a set of matched documents: a
// ValueCountSpy counts the serialized term lists in one value slot and an
// ArrayCountAggregator turns those counts into per-term frequencies.
package facets

import (
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/matchspy"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
)

// Request asks for the facets of Slot over Documents. All selects the full
// value list; otherwise the Top most frequent values are aggregated.
type Request struct {
	Slot      string              `json:"slot"`
	All       bool                `json:"all,omitempty"`
	Top       int                 `json:"top,omitempty"`
	Documents []matchspy.Document `json:"documents"`
}

type Result struct {
	Slot           string          `json:"slot"`
	Matched        int             `json:"matched"`
	DistinctValues int             `json:"distinct_values"`
	Terms          []matchspy.Term `json:"terms"`
}

type Service struct {
	codec        matchspy.Codec
	metrics      *metrics.Metrics
	defaultTop   int
	maxDocuments int
	logger       *slog.Logger
}

func NewService(codec matchspy.Codec, m *metrics.Metrics, defaultTop, maxDocuments int) *Service {
	return &Service{
		codec:        codec,
		metrics:      m,
		defaultTop:   defaultTop,
		maxDocuments: maxDocuments,
		logger:       slog.Default().With("component", "facet-service"),
	}
}

// Normalize fills defaults into req and rejects requests that cannot be
// served. The returned request is what Compute and caches key on.
func (s *Service) Normalize(req Request) (Request, error) {
	if req.Slot == "" {
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "slot is required")
	}
	if req.Top < 0 {
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "top must not be negative")
	}
	if len(req.Documents) > s.maxDocuments {
		return req, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
			"%d documents exceeds limit of %d", len(req.Documents), s.maxDocuments)
	}
	if req.All {
		req.Top = 0
	} else if req.Top == 0 {
		req.Top = s.defaultTop
	}
	return req, nil
}

// Compute runs the spy and aggregator for a normalized request.
func (s *Service) Compute(req Request) (*Result, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}
	spy := matchspy.NewValueCountSpy(req.Slot)
	for _, doc := range req.Documents {
		spy.Observe(doc)
	}
	distinct := 0
	for range spy.Values() {
		distinct++
	}

	agg := matchspy.NewArrayCountAggregator(spy,
		matchspy.WithDecoder(s.codec),
		matchspy.WithMetrics(s.metrics),
	)
	var terms []matchspy.Term
	if req.All {
		terms = agg.Values()
	} else {
		terms = agg.TopValues(req.Top)
	}

	s.logger.Debug("facets computed",
		"slot", req.Slot,
		"matched", spy.Total(),
		"distinct_values", distinct,
		"terms", len(terms),
	)
	return &Result{
		Slot:           req.Slot,
		Matched:        spy.Total(),
		DistinctValues: distinct,
		Terms:          terms,
	}, nil
}
