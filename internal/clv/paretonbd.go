// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package clv

import (
	"math"

	"github.com/quantmix/bayesmix/internal/dist"
	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/mathx"
)

// ParetoNBD is the Pareto/NBD transaction model: Poisson purchasing with
// Gamma(r, alpha) heterogeneity and exponential lifetimes with
// Gamma(s, beta) heterogeneity. Parameters are [r, alpha, s, beta].
type ParetoNBD struct{}

func (ParetoNBD) Name() string { return "pareto_nbd" }

func (ParetoNBD) ParamNames() []string { return []string{"r", "alpha", "s", "beta"} }

// logA0 evaluates the hypergeometric A0 term of the Pareto/NBD
// likelihood in log space. The alpha/beta role swap keeps the 2F1
// argument inside [0, 1); working with logs avoids the (base+t)^(r+s+x)
// underflow for large observation ages.
func logA0(r, alpha, s, beta, x, tx, T float64) float64 {
	base, second := alpha, s+1
	if beta > alpha {
		base, second = beta, r+x
	}
	diff := math.Abs(alpha - beta)

	logF := func(t float64) float64 {
		hyp, err := mathx.Hyp2F1(r+s+x, second, r+s+x+1, diff/(base+t))
		if err != nil {
			return math.NaN()
		}
		return math.Log(hyp) - (r+s+x)*math.Log(base+t)
	}
	return mathx.LogDiffExp(logF(tx), logF(T))
}

// LogLikelihood is the Pareto/NBD likelihood, computed fully in log
// space so it stays finite for observation ages of 1e4 and beyond.
func (ParetoNBD) LogLikelihood(params []float64, c Customer) float64 {
	r, alpha, s, beta := params[0], params[1], params[2], params[3]
	if r <= 0 || alpha <= 0 || s <= 0 || beta <= 0 {
		return math.Inf(-1)
	}
	x, tx, T := c.Frequency, c.Recency, c.T

	term1 := -(r+x)*math.Log(alpha+T) - s*math.Log(beta+T)
	term2 := math.Log(s) - math.Log(r+s+x) + logA0(r, alpha, s, beta, x, tx, T)

	return mathx.LogGamma(r+x) - mathx.LogGamma(r) +
		r*math.Log(alpha) + s*math.Log(beta) +
		mathx.LogSumExp(term1, term2)
}

// ProbabilityAlive is the probability the customer's lifetime extends
// past T given their history.
func (ParetoNBD) ProbabilityAlive(params []float64, c Customer) float64 {
	r, alpha, s, beta := params[0], params[1], params[2], params[3]
	x, tx, T := c.Frequency, c.Recency, c.T

	term1 := -(r+x)*math.Log(alpha+T) - s*math.Log(beta+T)
	term2 := math.Log(s) - math.Log(r+s+x) + logA0(r, alpha, s, beta, x, tx, T)
	return math.Exp(term1 - mathx.LogSumExp(term1, term2))
}

// ExpectedTransactions is the expected number of transactions in
// (T, T+horizon]. The s == 1 removable singularity is handled by its
// logarithmic limit.
func (p ParetoNBD) ExpectedTransactions(params []float64, c Customer, horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	r, alpha, s, beta := params[0], params[1], params[2], params[3]
	x, T := c.Frequency, c.T

	var growth float64
	if math.Abs(s-1) < 1e-9 {
		growth = (beta + T) * math.Log((beta+T+horizon)/(beta+T))
	} else {
		growth = (beta + T) / (s - 1) *
			(1 - math.Pow((beta+T)/(beta+T+horizon), s-1))
	}
	return (r + x) / (alpha + T) * growth * p.ProbabilityAlive(params, c)
}

// BuildGraph assembles the Bayesian Pareto/NBD graph over a cohort.
func (p ParetoNBD) BuildGraph(customers []Customer, priors map[string]dist.Spec) (*graph.Model, error) {
	return buildCLVGraph(p, customers, priors)
}
