// Package server exposes the optimization runner over HTTP for the
// presentation layer: start a run, poll its status, request a stop.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gradientlab/descent/internal/config"
	"github.com/gradientlab/descent/internal/optimization"
	"github.com/gradientlab/descent/internal/optimization/runner"
)

// Server handles the run lifecycle endpoints.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *runner.Manager
}

// NewServer creates a server backed by its own run manager.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		manager: runner.NewManager(logger),
	}
}

// RegisterRoutes mounts the run API under /api/v1.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleStart)
		r.Get("/runs/{id}", s.handleStatus)
		r.Delete("/runs/{id}", s.handleStop)
	})
}

// Close requests cancellation of every run still in flight.
func (s *Server) Close() error {
	s.manager.StopAll()
	return nil
}

// startRequest is the body of POST /api/v1/runs. The step-control fields
// are optional; zero values take the configured defaults. MaxIterations is
// a pointer because an explicit zero is a meaningful boundary request.
type startRequest struct {
	Formula       string  `json:"formula"`
	NumVars       int     `json:"numVars"`
	StartPoint    string  `json:"startPoint"`
	InitialStep   float64 `json:"initialStep"`
	StepDecay     float64 `json:"stepDecay"`
	StepIncrease  float64 `json:"stepIncrease"`
	Tolerance     float64 `json:"tolerance"`
	MaxIterations *int    `json:"maxIterations"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	params := s.applyDefaults(req)
	if params.MaxIterations > s.cfg.Optimization.MaxIterationsCap {
		s.respondError(w, http.StatusUnprocessableEntity, "iteration cap too large", optimization.KindParams.String())
		return
	}

	id, err := s.manager.Launch(params)
	if err != nil {
		status := http.StatusInternalServerError
		if optimization.IsConstructionError(err) {
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, status, err.Error(), optimization.ErrorKind(err).String())
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": string(runner.StatusRunning),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rs, err := s.manager.Poll(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	s.respondJSON(w, http.StatusOK, rs)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.RequestStop(id); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "stop requested",
	})
}

func (s *Server) applyDefaults(req startRequest) optimization.Params {
	opt := s.cfg.Optimization
	params := optimization.Params{
		Formula:      req.Formula,
		NumVars:      req.NumVars,
		StartPoint:   req.StartPoint,
		InitialStep:  req.InitialStep,
		StepDecay:    req.StepDecay,
		StepIncrease: req.StepIncrease,
		Tolerance:    req.Tolerance,
	}
	if params.InitialStep == 0 {
		params.InitialStep = opt.DefaultInitialStep
	}
	if params.StepDecay == 0 {
		params.StepDecay = opt.DefaultStepDecay
	}
	if params.StepIncrease == 0 {
		params.StepIncrease = opt.DefaultStepIncrease
	}
	if params.Tolerance == 0 {
		params.Tolerance = opt.DefaultTolerance
	}
	if req.MaxIterations != nil {
		params.MaxIterations = *req.MaxIterations
	} else {
		params.MaxIterations = 1000
	}
	return params
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, kind string) {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	s.respondJSON(w, status, body)
}
