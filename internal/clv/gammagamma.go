// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package clv

import (
	"math"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/dist"
	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/mathx"
)

// GammaGamma is the Gamma-Gamma spend model: transaction values are
// Gamma(p, nu) with Gamma(q, v) heterogeneity in nu. It is defined only
// for customers with at least one repeat transaction; cohorts must be
// filtered through FilterPositiveFrequency first. Parameters are
// [p, q, v].
type GammaGamma struct{}

func (GammaGamma) Name() string { return "gamma_gamma" }

func (GammaGamma) ParamNames() []string { return []string{"p", "q", "v"} }

// LogLikelihood is the Gamma-Gamma likelihood of one customer's mean
// repeat-transaction value.
func (GammaGamma) LogLikelihood(params []float64, c Customer) float64 {
	p, q, v := params[0], params[1], params[2]
	if p <= 0 || q <= 0 || v <= 0 {
		return math.Inf(-1)
	}
	x, m := c.Frequency, c.MonetaryValue
	if x <= 0 || m <= 0 {
		return math.Inf(-1)
	}
	return mathx.LogGamma(p*x+q) - mathx.LogGamma(p*x) - mathx.LogGamma(q) +
		q*math.Log(v) + (p*x-1)*math.Log(m) + p*x*math.Log(x) -
		(p*x+q)*math.Log(v+m*x)
}

// ExpectedAverageValue is the conditional expectation of a customer's
// true mean transaction value given their observed mean and count. For
// x == 0 it falls back to the population mean p*v/(q-1).
func (GammaGamma) ExpectedAverageValue(params []float64, c Customer) float64 {
	p, q, v := params[0], params[1], params[2]
	x, m := c.Frequency, c.MonetaryValue
	if x <= 0 {
		if q <= 1 {
			return math.NaN()
		}
		return p * v / (q - 1)
	}
	den := p*x + q - 1
	if den <= 0 {
		return math.NaN()
	}
	return p * (v + m*x) / den
}

// BuildGraph assembles the Bayesian Gamma-Gamma graph. Every customer
// must have positive frequency and monetary value; zero-frequency rows
// are an error, not silently dropped.
func (gg GammaGamma) BuildGraph(customers []Customer, priors map[string]dist.Spec) (*graph.Model, error) {
	if err := ValidateCustomers(customers); err != nil {
		return nil, err
	}
	for i, c := range customers {
		if c.Frequency == 0 {
			return nil, dataset.NewValidationError("frequency",
				"customer %d has no repeat transactions; apply FilterPositiveFrequency first", i)
		}
		if c.MonetaryValue <= 0 {
			return nil, dataset.NewValidationError("monetary_value",
				"customer %d: must be positive, got %g", i, c.MonetaryValue)
		}
	}

	names := gg.ParamNames()
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
		params := []float64{inputs[0][0], inputs[1][0], inputs[2][0]}
		lp := 0.0
		for _, c := range cohort {
			lp += gg.LogLikelihood(params, c)
		}
		return lp
	}, names...)

	return b.Build()
}

// CLV combines a timing model's expected transactions with the expected
// average value under per-period discounting: each period's incremental
// transactions are valued at the expected spend and discounted back at
// the per-period rate.
func (gg GammaGamma) CLV(timing Model, timingParams, ggParams []float64, c Customer, horizon, discountRate float64) float64 {
	if horizon <= 0 {
		return 0
	}
	if discountRate < 0 {
		return math.NaN()
	}
	value := gg.ExpectedAverageValue(ggParams, c)
	if math.IsNaN(value) {
		return math.NaN()
	}

	periods := int(math.Ceil(horizon))
	clv := 0.0
	prev := 0.0
	for k := 1; k <= periods; k++ {
		h := math.Min(float64(k), horizon)
		expected := timing.ExpectedTransactions(timingParams, c, h)
		clv += (expected - prev) * value / math.Pow(1+discountRate, h)
		prev = expected
	}
	return clv
}
