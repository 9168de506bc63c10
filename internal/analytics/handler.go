package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
)

// Handler serves the aggregated enrichment statistics.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics. The optional top parameter sets the
// length of every top list, from 1 to MaxTopList.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := topParam(r)
	if err != nil {
		h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, h.aggregator.StatsWithTop(n))
}

func topParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return topListSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxTopList {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"top must be an integer from 1 to %d, got %q", MaxTopList, raw)
	}
	return n, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
