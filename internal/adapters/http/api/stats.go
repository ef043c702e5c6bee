package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/lyrics/internal/adapters/modelstore"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]float64, error)
	Info() map[string]any
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

type statsResponse struct {
	Service map[string]any     `json:"service"`
	Model   map[string]float64 `json:"model,omitempty"`
}

// HandleStats handles GET /stats requests. Model statistics are omitted
// until a model has been trained.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	resp := statsResponse{Service: h.statsProvider.Info()}
	stats, err := h.statsProvider.Stats(r.Context())
	switch {
	case err == nil:
		resp.Model = stats
	case !errors.Is(err, modelstore.ErrModelNotFound):
		writeUpstreamError(w, "api.stats", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
