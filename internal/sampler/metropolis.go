// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package sampler

import (
	"context"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/metrics"
	"github.com/quantmix/bayesmix/internal/posterior"
)

// metropolisEngine is an adaptive random-walk Metropolis sampler. Proposal
// scales adapt per coordinate during warmup (Robbins-Monro on the global
// step size, Welford variance estimates per coordinate) and freeze for the
// retained draws.
type metropolisEngine struct{}

func (e *metropolisEngine) Name() string { return string(KindMetropolis) }

func (e *metropolisEngine) Sample(ctx context.Context, m *graph.Model, cfg Config) (*posterior.SampleSet, error) {
	deadline := budgetDeadline(cfg)

	chains := make([][][]float64, cfg.Chains)
	truncated := make([]bool, cfg.Chains)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < cfg.Chains; c++ {
		c := c
		g.Go(func() error {
			draws, cut, err := e.runChain(gctx, m, cfg, uint64(c), deadline)
			if err != nil {
				return err
			}
			chains[c] = draws
			truncated[c] = cut
			if !cut {
				metrics.ChainsCompleted.WithLabelValues(e.Name()).Inc()
			}
			return nil
		})
	}
	// Join barrier: cross-chain diagnostics require every chain's trace.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	incomplete := false
	for _, cut := range truncated {
		incomplete = incomplete || cut
	}
	return &posterior.SampleSet{
		Params:     m.Params(),
		Chains:     chains,
		Incomplete: incomplete,
		Tune:       cfg.Tune,
	}, nil
}

// initialPoint draws starting points from the priors until the log
// density is finite, bounded by maxRetries.
func initialPoint(m *graph.Model, rng *rand.Rand, maxRetries int) ([]float64, float64, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		u := m.InitialPoint(rng)
		lp := m.LogProb(u)
		if !math.IsNaN(lp) && !math.IsInf(lp, 0) {
			return u, lp, nil
		}
	}
	return nil, 0, &SamplingError{
		Reason: "log density unevaluable at every initial point after " +
			"maximum reinitialization attempts",
	}
}

func (e *metropolisEngine) runChain(
	ctx context.Context,
	m *graph.Model,
	cfg Config,
	chain uint64,
	deadline time.Time,
) ([][]float64, bool, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + chain))
	dim := m.Dim()

	u, lp, err := initialPoint(m, rng, cfg.MaxInitRetries)
	if err != nil {
		return nil, false, err
	}

	// Per-coordinate scale estimates (Welford) and a global log step
	// size adapted toward the target acceptance rate.
	welfordMean := make([]float64, dim)
	welfordM2 := make([]float64, dim)
	scales := make([]float64, dim)
	for i := range scales {
		scales[i] = 1
	}
	logStep := math.Log(2.38 / math.Sqrt(float64(dim)))

	draws := make([][]float64, 0, cfg.Draws)
	proposal := make([]float64, dim)
	total := cfg.Tune + cfg.Draws

	for iter := 0; iter < total; iter++ {
		// Cooperative cancellation between sampling steps; partial
		// traces are returned flagged, never silently kept as complete.
		if iter%64 == 0 && stopRequested(ctx, deadline) {
			return draws, true, nil
		}

		step := math.Exp(logStep)
		for i := 0; i < dim; i++ {
			proposal[i] = u[i] + step*scales[i]*rng.NormFloat64()
		}
		lpNew := m.LogProb(proposal)
		metrics.LogProbEvaluations.WithLabelValues(e.Name()).Inc()

		accepted := false
		if !math.IsNaN(lpNew) {
			if lpNew >= lp || math.Log(rng.Float64()) < lpNew-lp {
				copy(u, proposal)
				lp = lpNew
				accepted = true
			}
		}
		if !accepted {
			metrics.SamplerRejections.WithLabelValues(e.Name()).Inc()
		}

		if iter < cfg.Tune {
			// Robbins-Monro on the global step size.
			acc := 0.0
			if accepted {
				acc = 1
			}
			logStep += (acc - cfg.TargetAccept) / math.Sqrt(float64(iter)+1)

			// Welford update of per-coordinate spread.
			for i := 0; i < dim; i++ {
				delta := u[i] - welfordMean[i]
				welfordMean[i] += delta / float64(iter+1)
				welfordM2[i] += delta * (u[i] - welfordMean[i])
			}
			if iter == cfg.Tune-1 && iter > 10 {
				for i := 0; i < dim; i++ {
					sd := math.Sqrt(welfordM2[i] / float64(iter))
					if sd > 1e-10 {
						scales[i] = sd
					}
				}
			}
			continue
		}

		draws = append(draws, m.Constrain(u))
		metrics.SamplerDraws.WithLabelValues(e.Name()).Inc()
	}
	return draws, false, nil
}
