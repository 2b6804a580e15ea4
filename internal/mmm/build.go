// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package mmm

import (
	"fmt"
	"math"
	"time"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/dist"
	"github.com/quantmix/bayesmix/internal/graph"
)

// defaultPrior returns the default prior for a named parameter role.
func (c Config) defaultPrior(name string) (dist.Dist, error) {
	switch name {
	case "adstock_alpha":
		return dist.Beta{Alpha: 1, BetaP: 3}, nil
	case "adstock_theta":
		upper := float64(c.Adstock.LMax - 1)
		if upper <= 0 {
			upper = 1
		}
		return dist.Uniform{Lower: 0, Upper: upper}, nil
	case "adstock_lam":
		return dist.Gamma{Alpha: 2, Rate: 0.5}, nil
	case "adstock_k":
		return dist.Gamma{Alpha: 2, Rate: 1}, nil
	case "saturation_lam":
		return dist.Gamma{Alpha: 3, Rate: 1}, nil
	case "saturation_alpha", "saturation_sigma", "saturation_b":
		return dist.HalfNormal{Sigma: 2}, nil
	case "saturation_beta":
		return dist.Gamma{Alpha: 2, Rate: 1}, nil
	case "saturation_c":
		return dist.HalfNormal{Sigma: 1}, nil
	case "channel_coef":
		return dist.HalfNormal{Sigma: 2}, nil
	case "intercept", "control_coef":
		return dist.Normal{Mu: 0, Sigma: 2}, nil
	case "fourier_coef":
		return dist.Normal{Mu: 0, Sigma: 1}, nil
	case "sigma":
		return dist.HalfNormal{Sigma: 2}, nil
	case "nu":
		return dist.Gamma{Alpha: 25, Rate: 2}, nil
	default:
		return nil, fmt.Errorf("no default prior for parameter %q", name)
	}
}

// priorFor resolves a parameter's prior, preferring a configured override.
func (c Config) priorFor(name string) (dist.Dist, error) {
	if spec, ok := c.Priors[name]; ok {
		return spec.Resolve()
	}
	return c.defaultPrior(name)
}

// fourierFeatures returns 2*order yearly-cycle basis series: interleaved
// sin/cos pairs of increasing frequency over the date axis.
func fourierFeatures(dates []time.Time, order int) [][]float64 {
	features := make([][]float64, 2*order)
	for i := range features {
		features[i] = make([]float64, len(dates))
	}
	for t, d := range dates {
		frac := float64(d.YearDay()) / 365.25
		for k := 1; k <= order; k++ {
			angle := 2 * math.Pi * float64(k) * frac
			features[2*(k-1)][t] = math.Sin(angle)
			features[2*(k-1)+1][t] = math.Cos(angle)
		}
	}
	return features
}

// Build validates the configuration against the table and assembles the
// model graph. Every failure surfaces as a ConfigurationError before any
// sampling work happens.
func Build(table *dataset.Table, cfg Config) (*graph.Model, error) {
	if err := cfg.Validate(table); err != nil {
		return nil, err
	}

	nCh := len(cfg.ChannelColumns)
	rows := table.NumRows()
	chain := cfg.chain()
	adNames := cfg.Adstock.ParamNames()
	satNames := cfg.Saturation.ParamNames()

	b := graph.NewBuilder()

	paramDeps := make([]string, 0, len(adNames)+len(satNames)+1)
	for _, p := range adNames {
		name := "adstock_" + p
		prior, err := cfg.priorFor(name)
		if err != nil {
			return nil, graph.NewConfigurationError(name, "%v", err)
		}
		b.AddFree(name, prior, nCh)
		paramDeps = append(paramDeps, name)
	}
	for _, p := range satNames {
		name := "saturation_" + p
		prior, err := cfg.priorFor(name)
		if err != nil {
			return nil, graph.NewConfigurationError(name, "%v", err)
		}
		b.AddFree(name, prior, nCh)
		paramDeps = append(paramDeps, name)
	}

	coefPrior, err := cfg.priorFor("channel_coef")
	if err != nil {
		return nil, graph.NewConfigurationError("channel_coef", "%v", err)
	}
	b.AddFree("channel_coef", coefPrior, nCh)
	paramDeps = append(paramDeps, "channel_coef")

	interceptPrior, err := cfg.priorFor("intercept")
	if err != nil {
		return nil, graph.NewConfigurationError("intercept", "%v", err)
	}
	b.AddFree("intercept", interceptPrior, 1)

	if len(cfg.ControlColumns) > 0 {
		p, err := cfg.priorFor("control_coef")
		if err != nil {
			return nil, graph.NewConfigurationError("control_coef", "%v", err)
		}
		b.AddFree("control_coef", p, len(cfg.ControlColumns))
	}
	if cfg.YearlySeasonality > 0 {
		p, err := cfg.priorFor("fourier_coef")
		if err != nil {
			return nil, graph.NewConfigurationError("fourier_coef", "%v", err)
		}
		b.AddFree("fourier_coef", p, 2*cfg.YearlySeasonality)
	}

	sigmaPrior, err := cfg.priorFor("sigma")
	if err != nil {
		return nil, graph.NewConfigurationError("sigma", "%v", err)
	}
	b.AddFree("sigma", sigmaPrior, 1)
	if cfg.Likelihood == LikelihoodStudentT {
		nuPrior, err := cfg.priorFor("nu")
		if err != nil {
			return nil, graph.NewConfigurationError("nu", "%v", err)
		}
		b.AddFree("nu", nuPrior, 1)
	}

	// Per-channel contribution nodes. The spend series is bound into the
	// closure; channel parameters are picked out of the shared vectors by
	// index.
	nAd := len(adNames)
	nSat := len(satNames)
	for i, ch := range cfg.ChannelColumns {
		spend, err := table.Column(ch)
		if err != nil {
			return nil, graph.NewConfigurationError("channel_columns", "%v", err)
		}
		i := i
		fn := func(inputs ...[]float64) []float64 {
			ad := make([]float64, nAd)
			for k := 0; k < nAd; k++ {
				ad[k] = inputs[k][i]
			}
			sat := make([]float64, nSat)
			for k := 0; k < nSat; k++ {
				sat[k] = inputs[nAd+k][i]
			}
			coef := inputs[nAd+nSat][i]

			out := chain.Apply(spend, ad, sat)
			for t := range out {
				out[t] *= coef
			}
			return out
		}
		b.AddDeterministic(contributionNode(ch), fn, rows, paramDeps...)
	}

	// Linear predictor: contributions + intercept + controls + seasonality.
	muDeps := make([]string, 0, nCh+3)
	for _, ch := range cfg.ChannelColumns {
		muDeps = append(muDeps, contributionNode(ch))
	}
	muDeps = append(muDeps, "intercept")

	var controls [][]float64
	if len(cfg.ControlColumns) > 0 {
		controls = make([][]float64, len(cfg.ControlColumns))
		for j, name := range cfg.ControlColumns {
			col, err := table.Column(name)
			if err != nil {
				return nil, graph.NewConfigurationError("control_columns", "%v", err)
			}
			controls[j] = col
		}
		muDeps = append(muDeps, "control_coef")
	}
	var fourier [][]float64
	if cfg.YearlySeasonality > 0 {
		fourier = fourierFeatures(table.Dates(), cfg.YearlySeasonality)
		muDeps = append(muDeps, "fourier_coef")
	}

	muFn := func(inputs ...[]float64) []float64 {
		mu := make([]float64, rows)
		for c := 0; c < nCh; c++ {
			contrib := inputs[c]
			for t := range mu {
				mu[t] += contrib[t]
			}
		}
		pos := nCh
		intercept := inputs[pos][0]
		for t := range mu {
			mu[t] += intercept
		}
		pos++
		if controls != nil {
			gamma := inputs[pos]
			for j, col := range controls {
				for t := range mu {
					mu[t] += gamma[j] * col[t]
				}
			}
			pos++
		}
		if fourier != nil {
			coefs := inputs[pos]
			for j, feat := range fourier {
				for t := range mu {
					mu[t] += coefs[j] * feat[t]
				}
			}
		}
		return mu
	}
	b.AddDeterministic("mu", muFn, rows, muDeps...)

	outcome, err := table.Column(cfg.OutcomeColumn)
	if err != nil {
		return nil, graph.NewConfigurationError("outcome_column", "%v", err)
	}
	switch cfg.Likelihood {
	case LikelihoodStudentT:
		b.Observe("likelihood", func(inputs ...[]float64) float64 {
			mu, sigma, nu := inputs[0], inputs[1][0], inputs[2][0]
			lp := 0.0
			for t, y := range outcome {
				lp += dist.StudentT{Nu: nu, Mu: mu[t], Sigma: sigma}.LogProb(y)
			}
			return lp
		}, "mu", "sigma", "nu")
	default:
		b.Observe("likelihood", func(inputs ...[]float64) float64 {
			mu, sigma := inputs[0], inputs[1][0]
			lp := 0.0
			for t, y := range outcome {
				lp += dist.Normal{Mu: mu[t], Sigma: sigma}.LogProb(y)
			}
			return lp
		}, "mu", "sigma")
	}

	// Lift-test pseudo-likelihoods on the steady-state response curve.
	channelIndex := make(map[string]int, nCh)
	for i, ch := range cfg.ChannelColumns {
		channelIndex[ch] = i
	}
	for ti, lt := range cfg.LiftTests {
		lt := lt
		i := channelIndex[lt.Channel]
		fn := func(inputs ...[]float64) float64 {
			sat := make([]float64, nSat)
			for k := 0; k < nSat; k++ {
				sat[k] = inputs[k][i]
			}
			coef := inputs[nSat][i]
			delta := coef * (cfg.Saturation.ApplyScalar(lt.SpendAfter, sat) -
				cfg.Saturation.ApplyScalar(lt.SpendBefore, sat))
			return dist.Normal{Mu: lt.DeltaMean, Sigma: lt.DeltaSigma}.LogProb(delta)
		}
		deps := make([]string, 0, nSat+1)
		for _, p := range satNames {
			deps = append(deps, "saturation_"+p)
		}
		deps = append(deps, "channel_coef")
		b.Observe(fmt.Sprintf("lift_test_%d", ti), fn, deps...)
	}

	return b.Build()
}

// contributionNode names the deterministic contribution series of a
// channel in the graph.
func contributionNode(channel string) string {
	return "contribution_" + channel
}
