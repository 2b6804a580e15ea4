// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantmix/bayesmix/internal/budget"
	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/store"
)

// defaultProb is the credible interval probability when the request does
// not pass one.
const defaultProb = 0.9

// Server wires the model store and registry into HTTP handlers.
type Server struct {
	store    *store.ModelStore
	registry *Registry
}

// NewServer creates a server over an open model store.
func NewServer(s *store.ModelStore) *Server {
	return &Server{store: s, registry: NewRegistry(s)}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/models", func(r chi.Router) {
		r.Get("/", s.handleListModels)
		r.Get("/{id}", s.handleGetModel)
		r.Get("/{id}/summary", s.handleSummary)
		r.Get("/{id}/contributions", s.handleContributions)
		r.Get("/{id}/response-curve", s.handleResponseCurve)
		r.Post("/{id}/allocate", s.handleAllocate)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	rec.Payload = nil
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	fm, err := s.registry.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	prob, err := parseProb(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	summaries, err := fm.Summary(prob)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleContributions(w http.ResponseWriter, r *http.Request) {
	fm, err := s.registry.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		writeFailure(w, graph.NewConfigurationError("channel", "query parameter is required"))
		return
	}
	prob, err := parseProb(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	series, err := fm.ChannelContribution(channel, prob)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleResponseCurve(w http.ResponseWriter, r *http.Request) {
	fm, err := s.registry.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		writeFailure(w, graph.NewConfigurationError("channel", "query parameter is required"))
		return
	}
	prob, err := parseProb(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	maxSpend, err := parseFloatParam(r, "max", 0)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if maxSpend <= 0 {
		writeFailure(w, graph.NewConfigurationError("max", "a positive max spend is required"))
		return
	}
	minSpend, err := parseFloatParam(r, "min", 0)
	if err != nil {
		writeFailure(w, err)
		return
	}
	points, err := parseIntParam(r, "points", 50)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if minSpend < 0 || minSpend >= maxSpend || points < 2 {
		writeFailure(w, graph.NewConfigurationError("grid", "require 0 <= min < max and points >= 2"))
		return
	}

	grid := make([]float64, points)
	step := (maxSpend - minSpend) / float64(points-1)
	for i := range grid {
		grid[i] = minSpend + float64(i)*step
	}
	series, err := fm.ResponseCurve(channel, grid, prob)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responseCurvePayload{Grid: grid, Series: series})
}

type responseCurvePayload struct {
	Grid   []float64 `json:"grid"`
	Series any       `json:"series"`
}

// allocateRequest is the budget optimization request body.
type allocateRequest struct {
	TotalBudget float64                  `json:"total_budget"`
	Bounds      map[string]budget.Bounds `json:"bounds,omitempty"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	fm, err := s.registry.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body: "+err.Error())
		return
	}
	opt, err := budget.FromFittedModel(fm)
	if err != nil {
		writeFailure(w, err)
		return
	}
	result, err := opt.Allocate(req.TotalBudget, req.Bounds)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseProb(r *http.Request) (float64, error) {
	prob, err := parseFloatParam(r, "prob", defaultProb)
	if err != nil {
		return 0, err
	}
	if prob <= 0 || prob >= 1 {
		return 0, graph.NewConfigurationError("prob", "must be in (0, 1), got %g", prob)
	}
	return prob, nil
}

func parseFloatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, graph.NewConfigurationError(name, "not a number: %q", raw)
	}
	return v, nil
}

func parseIntParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, graph.NewConfigurationError(name, "not an integer: %q", raw)
	}
	return v, nil
}
