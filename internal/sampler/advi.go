// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package sampler

import (
	"context"
	"math"

	"golang.org/x/exp/rand"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/metrics"
	"github.com/quantmix/bayesmix/internal/posterior"
)

// adviEngine fits a mean-field Gaussian approximation q(u) = N(mu,
// diag(exp(logSD)^2)) on the unconstrained scale by stochastic gradient
// ascent on the ELBO, then packages independent draws from q as chains.
// Model gradients come from central finite differences, so it trades
// accuracy for speed relative to MCMC.
type adviEngine struct{}

func (e *adviEngine) Name() string { return string(KindADVI) }

const (
	adviLearningRate = 0.05
	adviAdamBeta1    = 0.9
	adviAdamBeta2    = 0.999
	adviAdamEps      = 1e-8
	adviGradStep     = 1e-5
)

func (e *adviEngine) Sample(ctx context.Context, m *graph.Model, cfg Config) (*posterior.SampleSet, error) {
	deadline := budgetDeadline(cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))
	dim := m.Dim()

	mu, _, err := initialPoint(m, rng, cfg.MaxInitRetries)
	if err != nil {
		return nil, err
	}
	logSD := make([]float64, dim) // sd starts at 1

	// Adam state for the concatenated (mu, logSD) parameter vector.
	adamM := make([]float64, 2*dim)
	adamV := make([]float64, 2*dim)

	eps := make([]float64, dim)
	u := make([]float64, dim)
	grad := make([]float64, dim)

	truncated := false
	iters := cfg.Tune
	if iters < 1 {
		iters = 1
	}
	for iter := 0; iter < iters; iter++ {
		if iter%32 == 0 && stopRequested(ctx, deadline) {
			truncated = true
			break
		}

		for i := 0; i < dim; i++ {
			eps[i] = rng.NormFloat64()
			u[i] = mu[i] + math.Exp(logSD[i])*eps[i]
		}
		if !e.gradient(m, u, grad) {
			// Unevaluable region; skip the update rather than poison
			// the variational parameters.
			continue
		}

		t := float64(iter + 1)
		corr1 := 1 - math.Pow(adviAdamBeta1, t)
		corr2 := 1 - math.Pow(adviAdamBeta2, t)
		for i := 0; i < dim; i++ {
			sd := math.Exp(logSD[i])
			// ELBO gradients under the reparameterization u = mu + sd*eps;
			// the +1 on the logSD component is the entropy term.
			gMu := grad[i]
			gLogSD := grad[i]*eps[i]*sd + 1

			adamM[i] = adviAdamBeta1*adamM[i] + (1-adviAdamBeta1)*gMu
			adamV[i] = adviAdamBeta2*adamV[i] + (1-adviAdamBeta2)*gMu*gMu
			mu[i] += adviLearningRate * (adamM[i] / corr1) /
				(math.Sqrt(adamV[i]/corr2) + adviAdamEps)

			j := dim + i
			adamM[j] = adviAdamBeta1*adamM[j] + (1-adviAdamBeta1)*gLogSD
			adamV[j] = adviAdamBeta2*adamV[j] + (1-adviAdamBeta2)*gLogSD*gLogSD
			logSD[i] += adviLearningRate * (adamM[j] / corr1) /
				(math.Sqrt(adamV[j]/corr2) + adviAdamEps)
		}
	}

	// Draw from the fitted approximation. Chains are independent draw
	// batches with derived seeds so the downstream contract matches MCMC.
	chains := make([][][]float64, cfg.Chains)
	for c := 0; c < cfg.Chains; c++ {
		crng := rand.New(rand.NewSource(cfg.Seed + uint64(c) + 1))
		draws := make([][]float64, cfg.Draws)
		for d := 0; d < cfg.Draws; d++ {
			v := make([]float64, dim)
			for i := 0; i < dim; i++ {
				v[i] = mu[i] + math.Exp(logSD[i])*crng.NormFloat64()
			}
			draws[d] = m.Constrain(v)
			metrics.SamplerDraws.WithLabelValues(e.Name()).Inc()
		}
		chains[c] = draws
		if !truncated {
			metrics.ChainsCompleted.WithLabelValues(e.Name()).Inc()
		}
	}

	return &posterior.SampleSet{
		Params:     m.Params(),
		Chains:     chains,
		Incomplete: truncated,
		Tune:       cfg.Tune,
	}, nil
}

// gradient fills grad with the central-difference gradient of the log
// density at u. Returns false when any component is non-finite.
func (e *adviEngine) gradient(m *graph.Model, u, grad []float64) bool {
	for i := range u {
		h := adviGradStep * (1 + math.Abs(u[i]))
		orig := u[i]
		u[i] = orig + h
		hi := m.LogProb(u)
		u[i] = orig - h
		lo := m.LogProb(u)
		u[i] = orig
		metrics.LogProbEvaluations.WithLabelValues(e.Name()).Add(2)

		g := (hi - lo) / (2 * h)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return false
		}
		grad[i] = g
	}
	return true
}
