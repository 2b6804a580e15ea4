// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package metrics provides Prometheus instrumentation for fitting and
// serving: likelihood evaluation throughput, per-chain sampling progress,
// fit durations, and API latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sampling metrics
	LogProbEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_logprob_evaluations_total",
			Help: "Total number of model log-density evaluations",
		},
		[]string{"engine"},
	)

	SamplerDraws = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_sampler_draws_total",
			Help: "Total number of posterior draws collected",
		},
		[]string{"engine"},
	)

	SamplerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_sampler_rejections_total",
			Help: "Total number of rejected Metropolis proposals",
		},
		[]string{"engine"},
	)

	FitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bayesmix_fit_duration_seconds",
			Help:    "Wall-clock duration of model fits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800},
		},
		[]string{"engine", "outcome"}, // outcome: "ok", "warning", "error", "truncated"
	)

	ChainsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_chains_completed_total",
			Help: "Total number of chains that ran to completion",
		},
		[]string{"engine"},
	)

	// Dataset metrics
	DatasetRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_dataset_rows_loaded_total",
			Help: "Total number of observation rows loaded",
		},
		[]string{"source"}, // "csv", "duckdb", "memory"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bayesmix_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Model store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bayesmix_store_operations_total",
			Help: "Total number of fitted-model store operations",
		},
		[]string{"operation", "status"}, // operation: "put", "get", "list", "delete"
	)
)

// ObserveFit records a completed fit with its duration and outcome.
func ObserveFit(engine, outcome string, elapsed time.Duration) {
	FitDuration.WithLabelValues(engine, outcome).Observe(elapsed.Seconds())
}

// ObserveAPIRequest records one served API request.
func ObserveAPIRequest(method, endpoint string, status int, elapsed time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}
