// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package transform provides the stateless media transformations that sit
// inside MMM model graphs: adstock (carryover) and saturation (diminishing
// returns), plus their configurable composition.
//
// All functions are pure maps over []float64 parameterized by scalars, so
// they can be re-evaluated cheaply at every posterior draw. Parameters at
// the boundary of their domain (decay at 0 or 1, zero spend) produce
// finite output, never NaN.
package transform

import (
	"fmt"
	"math"
)

// AdstockKind enumerates the carryover weight families.
type AdstockKind string

const (
	AdstockGeometric  AdstockKind = "geometric"
	AdstockDelayed    AdstockKind = "delayed"
	AdstockWeibullPDF AdstockKind = "weibull_pdf"
	AdstockWeibullCDF AdstockKind = "weibull_cdf"
)

// DefaultLMax is the default truncation window for carryover effects.
const DefaultLMax = 12

// applyWeights convolves x with a finite lag-weight window:
// out[t] = sum_l w[l] * x[t-l].
func applyWeights(x, w []float64) []float64 {
	out := make([]float64, len(x))
	for t := range x {
		var s float64
		for l := 0; l < len(w) && l <= t; l++ {
			s += w[l] * x[t-l]
		}
		out[t] = s
	}
	return out
}

func normalizeWeights(w []float64) {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		// Degenerate window (e.g. decay exactly 0 beyond lag 0 already
		// handled); fall back to an identity impulse.
		for i := range w {
			w[i] = 0
		}
		if len(w) > 0 {
			w[0] = 1
		}
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

// GeometricAdstockWeights returns the truncated geometric lag weights
// alpha^l for l in [0, lMax). decay outside [0, 1] is clamped so boundary
// proposals stay finite.
func GeometricAdstockWeights(alpha float64, lMax int, normalize bool) []float64 {
	if lMax < 1 {
		lMax = 1
	}
	alpha = clamp01(alpha)
	w := make([]float64, lMax)
	w[0] = 1
	for l := 1; l < lMax; l++ {
		w[l] = w[l-1] * alpha
	}
	if normalize {
		normalizeWeights(w)
	}
	return w
}

// GeometricAdstock applies geometric carryover with decay alpha truncated
// at lMax lags. With normalize the weights sum to one, so a constant spend
// series is a fixed point of the transform.
func GeometricAdstock(x []float64, alpha float64, lMax int, normalize bool) []float64 {
	return applyWeights(x, GeometricAdstockWeights(alpha, lMax, normalize))
}

// DelayedAdstockWeights returns geometric weights whose peak effect is
// delayed by theta periods: w[l] = alpha^((l-theta)^2).
func DelayedAdstockWeights(alpha, theta float64, lMax int, normalize bool) []float64 {
	if lMax < 1 {
		lMax = 1
	}
	alpha = clamp01(alpha)
	w := make([]float64, lMax)
	for l := 0; l < lMax; l++ {
		d := float64(l) - theta
		if alpha == 0 {
			if d == 0 {
				w[l] = 1
			}
			continue
		}
		w[l] = math.Pow(alpha, d*d)
	}
	if normalize {
		normalizeWeights(w)
	}
	return w
}

// DelayedAdstock applies delayed-peak geometric carryover.
func DelayedAdstock(x []float64, alpha, theta float64, lMax int, normalize bool) []float64 {
	return applyWeights(x, DelayedAdstockWeights(alpha, theta, lMax, normalize))
}

// WeibullKind selects between PDF- and CDF-shaped Weibull lag windows.
type WeibullKind int

const (
	WeibullPDF WeibullKind = iota
	WeibullCDF
)

// WeibullAdstockWeights returns lag weights shaped by a Weibull
// distribution with scale lam and shape k. PDF windows allow a delayed
// peak; CDF windows decay monotonically. Weights are always normalized to
// sum to one (the un-normalized Weibull density has no natural spend
// scale).
func WeibullAdstockWeights(lam, k float64, lMax int, kind WeibullKind) []float64 {
	if lMax < 1 {
		lMax = 1
	}
	if lam <= 0 {
		lam = math.SmallestNonzeroFloat64
	}
	if k <= 0 {
		k = math.SmallestNonzeroFloat64
	}
	w := make([]float64, lMax)
	for l := 0; l < lMax; l++ {
		t := float64(l) + 1
		z := math.Pow(t/lam, k)
		switch kind {
		case WeibullPDF:
			w[l] = (k / lam) * math.Pow(t/lam, k-1) * math.Exp(-z)
		case WeibullCDF:
			// Survival weights: remaining effect after l periods.
			w[l] = math.Exp(-z)
		}
		if math.IsNaN(w[l]) || math.IsInf(w[l], 0) {
			w[l] = 0
		}
	}
	normalizeWeights(w)
	return w
}

// WeibullAdstock applies Weibull-shaped carryover.
func WeibullAdstock(x []float64, lam, k float64, lMax int, kind WeibullKind) []float64 {
	return applyWeights(x, WeibullAdstockWeights(lam, k, lMax, kind))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AdstockSpec is the configuration-level description of an adstock
// transform: which family, the truncation window, and whether weights
// are normalized.
type AdstockSpec struct {
	Kind      AdstockKind `json:"kind" koanf:"kind"`
	LMax      int         `json:"l_max" koanf:"l_max"`
	Normalize bool        `json:"normalize" koanf:"normalize"`
}

// Validate checks the spec is complete and the kind is known.
func (s AdstockSpec) Validate() error {
	switch s.Kind {
	case AdstockGeometric, AdstockDelayed, AdstockWeibullPDF, AdstockWeibullCDF:
	default:
		return fmt.Errorf("unknown adstock kind %q", s.Kind)
	}
	if s.LMax < 1 {
		return fmt.Errorf("adstock l_max must be at least 1, got %d", s.LMax)
	}
	return nil
}

// ParamNames returns the fit-parameter names of the family, in the order
// Apply expects them.
func (s AdstockSpec) ParamNames() []string {
	switch s.Kind {
	case AdstockGeometric:
		return []string{"alpha"}
	case AdstockDelayed:
		return []string{"alpha", "theta"}
	case AdstockWeibullPDF, AdstockWeibullCDF:
		return []string{"lam", "k"}
	default:
		return nil
	}
}

// NumParams returns the number of fit parameters of the family.
func (s AdstockSpec) NumParams() int { return len(s.ParamNames()) }

// SteadyStateGain returns the sum of the lag weights at the given
// parameter values: the factor a constant spend level is amplified by
// once the carryover window has filled. Normalized windows have gain 1.
func (s AdstockSpec) SteadyStateGain(params []float64) float64 {
	var w []float64
	switch s.Kind {
	case AdstockGeometric:
		w = GeometricAdstockWeights(params[0], s.LMax, s.Normalize)
	case AdstockDelayed:
		w = DelayedAdstockWeights(params[0], params[1], s.LMax, s.Normalize)
	case AdstockWeibullPDF:
		w = WeibullAdstockWeights(params[0], params[1], s.LMax, WeibullPDF)
	case AdstockWeibullCDF:
		w = WeibullAdstockWeights(params[0], params[1], s.LMax, WeibullCDF)
	default:
		return 1
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Apply runs the transform with the given parameter values.
func (s AdstockSpec) Apply(x []float64, params []float64) []float64 {
	switch s.Kind {
	case AdstockGeometric:
		return GeometricAdstock(x, params[0], s.LMax, s.Normalize)
	case AdstockDelayed:
		return DelayedAdstock(x, params[0], params[1], s.LMax, s.Normalize)
	case AdstockWeibullPDF:
		return WeibullAdstock(x, params[0], params[1], s.LMax, WeibullPDF)
	case AdstockWeibullCDF:
		return WeibullAdstock(x, params[0], params[1], s.LMax, WeibullCDF)
	default:
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}
}
