// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package dist provides the prior distributions used by the model graph,
// together with the bijectors that map their constrained supports onto the
// unconstrained space the samplers operate in.
//
// The distribution set is closed: every member is backed by gonum's distuv
// where possible, with half-distributions expressed by folding. Priors are
// resolved from configuration by name via Spec, following the
// {dist, kwargs} convention of the upstream model configs.
package dist

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Support describes the domain a distribution assigns probability to.
type Support int

const (
	// SupportReal is the whole real line.
	SupportReal Support = iota
	// SupportPositive is (0, +inf).
	SupportPositive
	// SupportUnitInterval is (0, 1).
	SupportUnitInterval
	// SupportInterval is a bounded (lower, upper).
	SupportInterval
)

// Dist is a univariate prior distribution.
type Dist interface {
	// LogProb returns the log density at x. Outside the support it
	// returns -Inf, never NaN.
	LogProb(x float64) float64

	// Sample draws one value from the distribution.
	Sample(rng *rand.Rand) float64

	// Support reports the distribution's domain.
	Support() Support

	// Bounds returns the support interval. For unbounded sides the
	// values are -Inf / +Inf.
	Bounds() (lower, upper float64)
}

// Normal is the Gaussian distribution.
type Normal struct {
	Mu, Sigma float64
}

func (d Normal) LogProb(x float64) float64 {
	return distuv.Normal{Mu: d.Mu, Sigma: d.Sigma}.LogProb(x)
}

func (d Normal) Sample(rng *rand.Rand) float64 {
	return distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}.Rand()
}

func (d Normal) Support() Support { return SupportReal }

func (d Normal) Bounds() (float64, float64) { return math.Inf(-1), math.Inf(1) }

// HalfNormal is a Normal(0, sigma) folded onto the positive half line.
type HalfNormal struct {
	Sigma float64
}

func (d HalfNormal) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + distuv.Normal{Mu: 0, Sigma: d.Sigma}.LogProb(x)
}

func (d HalfNormal) Sample(rng *rand.Rand) float64 {
	return math.Abs(distuv.Normal{Mu: 0, Sigma: d.Sigma, Src: rng}.Rand())
}

func (d HalfNormal) Support() Support { return SupportPositive }

func (d HalfNormal) Bounds() (float64, float64) { return 0, math.Inf(1) }

// HalfCauchy is a Cauchy(0, beta) folded onto the positive half line,
// expressed through StudentsT with one degree of freedom.
type HalfCauchy struct {
	Beta float64
}

func (d HalfCauchy) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + distuv.StudentsT{Mu: 0, Sigma: d.Beta, Nu: 1}.LogProb(x)
}

func (d HalfCauchy) Sample(rng *rand.Rand) float64 {
	return math.Abs(distuv.StudentsT{Mu: 0, Sigma: d.Beta, Nu: 1, Src: rng}.Rand())
}

func (d HalfCauchy) Support() Support { return SupportPositive }

func (d HalfCauchy) Bounds() (float64, float64) { return 0, math.Inf(1) }

// LogNormal has log(X) ~ Normal(Mu, Sigma).
type LogNormal struct {
	Mu, Sigma float64
}

func (d LogNormal) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma}.LogProb(x)
}

func (d LogNormal) Sample(rng *rand.Rand) float64 {
	return distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}.Rand()
}

func (d LogNormal) Support() Support { return SupportPositive }

func (d LogNormal) Bounds() (float64, float64) { return 0, math.Inf(1) }

// Beta is the Beta distribution on (0, 1).
type Beta struct {
	Alpha, BetaP float64
}

func (d Beta) LogProb(x float64) float64 {
	if x <= 0 || x >= 1 {
		return math.Inf(-1)
	}
	return distuv.Beta{Alpha: d.Alpha, Beta: d.BetaP}.LogProb(x)
}

func (d Beta) Sample(rng *rand.Rand) float64 {
	return distuv.Beta{Alpha: d.Alpha, Beta: d.BetaP, Src: rng}.Rand()
}

func (d Beta) Support() Support { return SupportUnitInterval }

func (d Beta) Bounds() (float64, float64) { return 0, 1 }

// Gamma is the Gamma distribution with shape Alpha and rate Rate.
type Gamma struct {
	Alpha, Rate float64
}

func (d Gamma) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return distuv.Gamma{Alpha: d.Alpha, Beta: d.Rate}.LogProb(x)
}

func (d Gamma) Sample(rng *rand.Rand) float64 {
	return distuv.Gamma{Alpha: d.Alpha, Beta: d.Rate, Src: rng}.Rand()
}

func (d Gamma) Support() Support { return SupportPositive }

func (d Gamma) Bounds() (float64, float64) { return 0, math.Inf(1) }

// Uniform is the continuous uniform distribution on (Lower, Upper).
type Uniform struct {
	Lower, Upper float64
}

func (d Uniform) LogProb(x float64) float64 {
	if x <= d.Lower || x >= d.Upper {
		return math.Inf(-1)
	}
	return -math.Log(d.Upper - d.Lower)
}

func (d Uniform) Sample(rng *rand.Rand) float64 {
	return distuv.Uniform{Min: d.Lower, Max: d.Upper, Src: rng}.Rand()
}

func (d Uniform) Support() Support { return SupportInterval }

func (d Uniform) Bounds() (float64, float64) { return d.Lower, d.Upper }

// StudentT is the location-scale Student's t distribution.
type StudentT struct {
	Nu, Mu, Sigma float64
}

func (d StudentT) LogProb(x float64) float64 {
	return distuv.StudentsT{Mu: d.Mu, Sigma: d.Sigma, Nu: d.Nu}.LogProb(x)
}

func (d StudentT) Sample(rng *rand.Rand) float64 {
	return distuv.StudentsT{Mu: d.Mu, Sigma: d.Sigma, Nu: d.Nu, Src: rng}.Rand()
}

func (d StudentT) Support() Support { return SupportReal }

func (d StudentT) Bounds() (float64, float64) { return math.Inf(-1), math.Inf(1) }
