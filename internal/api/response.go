// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package api serves fitted models read-only over HTTP: listing,
// posterior summaries, channel contributions, and response curves.
// Fitting happens out of band; the API never mutates model state.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/store"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

// apiError carries a machine-readable code and a human-readable message.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		log := logging.Logger()
		log.Error().Err(err).Str("component", "api").Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log := logging.Logger()
		log.Error().Err(err).Str("component", "api").Msg("encode error response")
	}
}

// writeFailure maps domain errors onto HTTP statuses: missing models are
// 404, configuration problems are 400, everything else is 500.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "model_not_found", err.Error())
	default:
		var cerr *graph.ConfigurationError
		if errors.As(err, &cerr) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
