// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package budget allocates a fixed media budget across the channels of a
// fitted marketing mix model. The objective is the posterior-mean
// steady-state response; the sum constraint is enforced exactly through a
// softmax share parameterization and per-channel upper bounds through a
// quadratic penalty, searched with derivative-free Nelder-Mead.
package budget

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/mmm"
	"github.com/quantmix/bayesmix/internal/transform"
)

// Bounds restricts one channel's spend in an allocation.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Result is an optimized allocation with its posterior response.
type Result struct {
	// Allocation is the spend per channel; it sums to the requested
	// total.
	Allocation map[string]float64 `json:"allocation"`

	// ExpectedResponse is the posterior-mean steady-state response at
	// the allocation.
	ExpectedResponse float64 `json:"expected_response"`

	// ResponseSD is the posterior standard deviation of that response.
	ResponseSD float64 `json:"response_sd"`
}

// Optimizer holds the per-draw response parameters extracted from a
// fitted model. It is read-only after construction.
type Optimizer struct {
	channels  []string
	chain     transform.Chain
	coefs     [][]float64   // [draw][channel]
	adParams  [][][]float64 // [draw][channel][param]
	satParams [][][]float64 // [draw][channel][param]
}

// FromFittedModel extracts the transform parameters and coefficients of
// every posterior draw. At constant spend the carryover window reduces to
// its weight-sum gain, which depends on the fitted decay parameters, so
// the adstock stage participates in the steady-state response even though
// no lag structure remains.
func FromFittedModel(fm *mmm.FittedModel) (*Optimizer, error) {
	channels := fm.Config.ChannelColumns
	adNames := fm.Config.Adstock.ParamNames()
	satNames := fm.Config.Saturation.ParamNames()

	coefDraws, err := fm.Samples.Flat("channel_coef")
	if err != nil {
		return nil, err
	}
	adBlocks := make(map[string][][]float64, len(adNames))
	for _, p := range adNames {
		d, err := fm.Samples.Flat("adstock_" + p)
		if err != nil {
			return nil, err
		}
		adBlocks[p] = d
	}
	satBlocks := make(map[string][][]float64, len(satNames))
	for _, p := range satNames {
		d, err := fm.Samples.Flat("saturation_" + p)
		if err != nil {
			return nil, err
		}
		satBlocks[p] = d
	}

	gather := func(names []string, blocks map[string][][]float64, d int) [][]float64 {
		perChannel := make([][]float64, len(channels))
		for i := range channels {
			params := make([]float64, len(names))
			for k, p := range names {
				params[k] = blocks[p][d][i]
			}
			perChannel[i] = params
		}
		return perChannel
	}

	nDraws := len(coefDraws)
	adParams := make([][][]float64, nDraws)
	satParams := make([][][]float64, nDraws)
	for d := 0; d < nDraws; d++ {
		adParams[d] = gather(adNames, adBlocks, d)
		satParams[d] = gather(satNames, satBlocks, d)
	}

	return &Optimizer{
		channels: append([]string(nil), channels...),
		chain: transform.Chain{
			Adstock:    fm.Config.Adstock,
			Saturation: fm.Config.Saturation,
			Order:      fm.Config.Order,
		},
		coefs:     coefDraws,
		adParams:  adParams,
		satParams: satParams,
	}, nil
}

// Response returns the posterior mean and standard deviation of the
// steady-state response at a per-channel spend vector (indexed like the
// model's channel columns).
func (o *Optimizer) Response(spend []float64) (mean, sd float64) {
	resp := make([]float64, len(o.coefs))
	for d := range o.coefs {
		var r float64
		for i := range o.channels {
			r += o.coefs[d][i] * o.chain.SteadyState(spend[i], o.adParams[d][i], o.satParams[d][i])
		}
		resp[d] = r
	}
	return stat.Mean(resp, nil), stat.StdDev(resp, nil)
}

// Allocate maximizes the posterior-mean response subject to the spends
// summing to total and honoring the optional per-channel bounds. Missing
// bounds default to [0, total].
func (o *Optimizer) Allocate(total float64, bounds map[string]Bounds) (*Result, error) {
	if total <= 0 {
		return nil, graph.NewConfigurationError("total", "budget must be positive, got %g", total)
	}
	for name := range bounds {
		if !o.hasChannel(name) {
			return nil, graph.NewConfigurationError("bounds", "unknown channel %q", name)
		}
	}

	n := len(o.channels)
	lower := make([]float64, n)
	upper := make([]float64, n)
	sumLower := 0.0
	for i, ch := range o.channels {
		b, ok := bounds[ch]
		if !ok {
			b = Bounds{Lower: 0, Upper: total}
		}
		if b.Lower < 0 || b.Upper < b.Lower {
			return nil, graph.NewConfigurationError("bounds",
				"channel %q: invalid bounds [%g, %g]", ch, b.Lower, b.Upper)
		}
		lower[i] = b.Lower
		upper[i] = b.Upper
		sumLower += b.Lower
	}
	if sumLower > total {
		return nil, graph.NewConfigurationError("bounds",
			"lower bounds sum to %g, exceeding budget %g", sumLower, total)
	}

	slack := total - sumLower
	toSpend := func(z []float64) []float64 {
		shares := softmax(z)
		x := make([]float64, n)
		for i := range x {
			x[i] = lower[i] + shares[i]*slack
		}
		return x
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			x := toSpend(z)
			mean, _ := o.Response(x)
			penalty := 0.0
			for i := range x {
				if over := x[i] - upper[i]; over > 0 {
					penalty += over * over
				}
			}
			return -mean + 1e3*penalty
		},
	}

	z0 := make([]float64, n)
	result, err := optimize.Minimize(problem, z0, &optimize.Settings{MajorIterations: 5000}, &optimize.NelderMead{})
	if result == nil {
		return nil, graph.NewConfigurationError("optimizer", "allocation search failed: %v", err)
	}

	x := toSpend(result.X)
	// Clip any residual bound violations and redistribute to unclipped
	// channels, preserving the sum constraint.
	clipToBounds(x, lower, upper, total)

	mean, sd := o.Response(x)
	alloc := make(map[string]float64, n)
	for i, ch := range o.channels {
		alloc[ch] = x[i]
	}
	return &Result{Allocation: alloc, ExpectedResponse: mean, ResponseSD: sd}, nil
}

func (o *Optimizer) hasChannel(name string) bool {
	for _, ch := range o.channels {
		if ch == name {
			return true
		}
	}
	return false
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// clipToBounds projects x onto the box while keeping sum(x) = total:
// overflow from clipped channels redistributes proportionally to the
// remaining headroom of the others.
func clipToBounds(x, lower, upper []float64, total float64) {
	for iter := 0; iter < len(x); iter++ {
		excess := 0.0
		headroom := 0.0
		for i := range x {
			if x[i] > upper[i] {
				excess += x[i] - upper[i]
				x[i] = upper[i]
			} else if x[i] < lower[i] {
				excess -= lower[i] - x[i]
				x[i] = lower[i]
			} else {
				headroom += upper[i] - x[i]
			}
		}
		if excess == 0 || headroom <= 0 {
			return
		}
		for i := range x {
			if x[i] < upper[i] && x[i] >= lower[i] {
				x[i] += excess * (upper[i] - x[i]) / headroom
			}
		}
	}
}
