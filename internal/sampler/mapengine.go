// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package sampler

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/metrics"
	"github.com/quantmix/bayesmix/internal/posterior"
)

// mapEngine finds the posterior mode by derivative-free Nelder-Mead
// minimization of the negative log density. The result is packaged as a
// degenerate single-chain sample set so every downstream consumer
// (summaries, contribution decomposition, persistence) works unchanged;
// convergence diagnostics are skipped for it by the driver.
type mapEngine struct{}

func (e *mapEngine) Name() string { return string(KindMAP) }

func (e *mapEngine) Sample(ctx context.Context, m *graph.Model, cfg Config) (*posterior.SampleSet, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	x0, _, err := initialPoint(m, rng, cfg.MaxInitRetries)
	if err != nil {
		return nil, err
	}

	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			select {
			case <-ctx.Done():
				return math.Inf(1)
			default:
			}
			metrics.LogProbEvaluations.WithLabelValues(e.Name()).Inc()
			lp := m.LogProb(u)
			if math.IsNaN(lp) {
				return math.Inf(1)
			}
			return -lp
		},
	}

	settings := &optimize.Settings{
		MajorIterations: 10000,
		Runtime:         cfg.Budget,
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if result == nil {
		return nil, &SamplingError{Reason: "posterior mode search failed", Err: err}
	}
	if math.IsInf(result.F, 1) || math.IsNaN(result.F) {
		return nil, &SamplingError{Reason: "posterior mode search ended at an unevaluable point"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SamplingError{Reason: "posterior mode search canceled", Err: err}
	}

	mode := m.Constrain(result.X)
	draws := make([][]float64, cfg.Draws)
	for d := range draws {
		draws[d] = mode
	}
	metrics.SamplerDraws.WithLabelValues(e.Name()).Add(float64(cfg.Draws))
	metrics.ChainsCompleted.WithLabelValues(e.Name()).Inc()

	return &posterior.SampleSet{
		Params:     m.Params(),
		Chains:     [][][]float64{draws},
		Incomplete: result.Status == optimize.RuntimeLimit,
		Tune:       0,
	}, nil
}
