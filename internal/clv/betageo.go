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

// BetaGeo is the BG/NBD transaction model: Poisson purchasing with
// Gamma(r, alpha) heterogeneity, and a Beta(a, b) dropout probability
// applied after every transaction. Parameters are [r, alpha, a, b].
type BetaGeo struct{}

func (BetaGeo) Name() string { return "beta_geo" }

func (BetaGeo) ParamNames() []string { return []string{"r", "alpha", "a", "b"} }

// LogLikelihood is the Fader-Hardie BG/NBD likelihood. For x == 0 the
// dropout branch vanishes and the expression collapses to
// r*ln(alpha/(alpha+T)).
func (BetaGeo) LogLikelihood(params []float64, c Customer) float64 {
	r, alpha, a, b := params[0], params[1], params[2], params[3]
	if r <= 0 || alpha <= 0 || a <= 0 || b <= 0 {
		return math.Inf(-1)
	}
	x, tx, T := c.Frequency, c.Recency, c.T

	a1 := mathx.LogGamma(r+x) - mathx.LogGamma(r) + r*math.Log(alpha)
	a2 := mathx.LogBeta(a, b+x) - mathx.LogBeta(a, b)
	a3 := -(r + x) * math.Log(alpha+T)
	if x == 0 {
		return a1 + a2 + a3
	}
	a4 := math.Log(a) - math.Log(b+x-1) - (r+x)*math.Log(alpha+tx)
	return a1 + a2 + mathx.LogSumExp(a3, a4)
}

// ProbabilityAlive is the posterior probability the customer is still
// active after their observed history. Customers with no repeat
// purchases are alive with probability one under BG/NBD.
func (BetaGeo) ProbabilityAlive(params []float64, c Customer) float64 {
	r, alpha, a, b := params[0], params[1], params[2], params[3]
	x, tx, T := c.Frequency, c.Recency, c.T
	if x == 0 {
		return 1
	}
	logOdds := math.Log(a) - math.Log(b+x-1) + (r+x)*math.Log((alpha+T)/(alpha+tx))
	return 1 / (1 + math.Exp(logOdds))
}

// ExpectedTransactions is the expected number of transactions in
// (T, T+horizon], via the Gaussian hypergeometric representation.
func (bg BetaGeo) ExpectedTransactions(params []float64, c Customer, horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	r, alpha, a, b := params[0], params[1], params[2], params[3]
	if a <= 1 {
		// The unconditional mean diverges; the conditional expectation
		// is still finite but numerically fragile, so clamp.
		a = 1 + 1e-9
	}
	x, T := c.Frequency, c.T

	z := horizon / (alpha + T + horizon)
	hyp, err := mathx.Hyp2F1(r+x, b+x, a+b+x-1, z)
	if err != nil {
		return math.NaN()
	}
	numer := (a + b + x - 1) / (a - 1) *
		(1 - math.Pow((alpha+T)/(alpha+T+horizon), r+x)*hyp)
	return numer * bg.ProbabilityAlive(params, c)
}

// defaultCLVPrior is the weakly informative positive prior shared by the
// CLV model parameters.
var defaultCLVPrior = dist.HalfNormal{Sigma: 10}

func buildCLVGraph(m Model, customers []Customer, priors map[string]dist.Spec) (*graph.Model, error) {
	if err := ValidateCustomers(customers); err != nil {
		return nil, err
	}
	names := m.ParamNames()
	b := graph.NewBuilder()
	for _, name := range names {
		var prior dist.Dist = defaultCLVPrior
		if spec, ok := priors[name]; ok {
			p, err := spec.Resolve()
			if err != nil {
				return nil, graph.NewConfigurationError(name, "%v", err)
			}
			prior = p
		}
		b.AddFree(name, prior, 1)
	}

	cohort := append([]Customer(nil), customers...)
	b.Observe("likelihood", func(inputs ...[]float64) float64 {
		params := make([]float64, len(inputs))
		for i := range inputs {
			params[i] = inputs[i][0]
		}
		lp := 0.0
		for _, c := range cohort {
			lp += m.LogLikelihood(params, c)
		}
		return lp
	}, names...)

	return b.Build()
}

// BuildGraph assembles the Bayesian BG/NBD graph over a cohort.
func (bg BetaGeo) BuildGraph(customers []Customer, priors map[string]dist.Spec) (*graph.Model, error) {
	return buildCLVGraph(bg, customers, priors)
}
