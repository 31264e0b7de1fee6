// Package http exposes the replay sampler over a JSON API.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cartridge/experience/internal/middleware"
	"github.com/cartridge/experience/internal/service"
)

const maxBodyBytes = 4 * 1024 * 1024

// Server wires HTTP handlers to the replay sampler.
type Server struct {
	sampler *service.Sampler
	logger  zerolog.Logger
}

// NewServer constructs a Server instance.
func NewServer(sampler *service.Sampler, logger zerolog.Logger) *Server {
	return &Server{sampler: sampler, logger: logger}
}

// Routes builds the HTTP router for the replay service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transitions", s.handleAddTransition)
		r.Post("/transitions/terminal", s.handleAddTerminal)
		r.Post("/sample", s.handleSample)
		r.Post("/priorities", s.handleUpdatePriorities)
		r.Get("/stats", s.handleStats)
	})
	return r
}

type transitionPayload struct {
	State  []float32 `json:"state"`
	Action int       `json:"action"`
	Reward float32   `json:"reward"`
}

type transitionResponse struct {
	Index int `json:"index"`
}

func (s *Server) handleAddTransition(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	var payload transitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(payload.State) == 0 {
		s.writeError(w, http.StatusBadRequest, "state is required")
		return
	}
	if payload.Action < 0 {
		s.writeError(w, http.StatusBadRequest, "action must be non-negative")
		return
	}
	idx := s.sampler.AddTransition(r.Context(), payload.State, payload.Action, payload.Reward)
	s.writeJSON(w, http.StatusCreated, transitionResponse{Index: idx})
}

func (s *Server) handleAddTerminal(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	idx, ok := s.sampler.AddTerminal(r.Context())
	if !ok {
		s.writeError(w, http.StatusConflict, "no transition to mark terminal")
		return
	}
	s.writeJSON(w, http.StatusOK, transitionResponse{Index: idx})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	batch := s.sampler.Sample(r.Context())
	if batch == nil {
		// Not an error: the learner polls until enough experience exists.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

type prioritiesPayload struct {
	Priorities []float64 `json:"priorities"`
	Indices    []int     `json:"indices"`
}

func (s *Server) handleUpdatePriorities(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	var payload prioritiesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.sampler.UpdatePriorities(r.Context(), payload.Priorities, payload.Indices); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"updated": len(payload.Indices)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sampler.Stats(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
