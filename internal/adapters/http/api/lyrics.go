package api

import (
	"encoding/json"
	"net/http"
)

const maxPredictBody = 1 << 20

// LyricsHandler serves training and prediction.
type LyricsHandler struct {
	deps Dependencies
}

// NewLyricsHandler creates a new lyrics handler.
func NewLyricsHandler(deps Dependencies) *LyricsHandler {
	return &LyricsHandler{deps: deps}
}

// predictRequest mirrors the OpenAPI schema for POST /lyrics/predict.
type predictRequest struct {
	Lyrics *string `json:"lyrics"`
}

// HandleTrain handles POST /lyrics/train. Training runs synchronously and
// the response carries the selected model's statistics.
func (h *LyricsHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.Classify(r.Context())
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandlePredict handles POST /lyrics/predict.
func (h *LyricsHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Lyrics == nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	pred, err := h.deps.Predict(r.Context(), *req.Lyrics)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
