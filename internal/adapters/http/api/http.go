// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/lyrics/internal/adapters/modelstore"
	service "github.com/okian/lyrics/internal/app"
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Classify trains a model from the corpus and returns its statistics.
	Classify(ctx context.Context) (map[string]float64, error)
	// Predict returns the genre of the given lyrics.
	Predict(ctx context.Context, lyrics string) (model.GenrePrediction, error)

	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	lyricsHandler *LyricsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		lyricsHandler: NewLyricsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/lyrics/train", MetricsMiddleware(s.lyricsHandler.HandleTrain, "train"))
	mux.HandleFunc("/lyrics/predict", MetricsMiddleware(s.lyricsHandler.HandlePredict, "predict"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an upstream error to a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, modelstore.ErrModelNotFound):
		return http.StatusNotFound, "model_not_found"
	case errors.Is(err, service.ErrTrainingInProgress):
		return http.StatusConflict, "training_in_progress"
	case errors.Is(err, corpus.ErrCorpusNotFound), errors.Is(err, corpus.ErrGenreNotFound):
		return http.StatusInternalServerError, "corpus_unavailable"
	case errors.Is(err, modelstore.ErrCorruptModel):
		return http.StatusInternalServerError, "corrupt_model"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, WrapKind(op, errors.New(code), err))
}
