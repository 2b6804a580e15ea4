// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/metrics"
)

// instrument records latency and status for every request, labeled by
// the matched route pattern rather than the raw path so high-cardinality
// IDs stay out of the metric labels.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.ObserveAPIRequest(r.Method, pattern, ww.Status(), elapsed)

		log := logging.Logger()
		log.Debug().
			Str("component", "api").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}
