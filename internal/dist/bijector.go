// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dist

import "math"

// Bijector maps the unconstrained sampling space onto a distribution's
// constrained support. LogDetJacobian is the log absolute derivative of
// Forward, added to the log prior so densities transform correctly.
type Bijector interface {
	// Forward maps unconstrained u to constrained x.
	Forward(u float64) float64

	// Inverse maps constrained x back to unconstrained u.
	Inverse(x float64) float64

	// LogDetJacobian returns log|d Forward(u) / du|.
	LogDetJacobian(u float64) float64
}

// BijectorFor returns the canonical bijector for a distribution's support.
func BijectorFor(d Dist) Bijector {
	switch d.Support() {
	case SupportPositive:
		return Exp{}
	case SupportUnitInterval:
		return Logit{}
	case SupportInterval:
		lower, upper := d.Bounds()
		return ScaledLogit{Lower: lower, Upper: upper}
	default:
		return Identity{}
	}
}

// Identity is the no-op bijector for real-valued supports.
type Identity struct{}

func (Identity) Forward(u float64) float64        { return u }
func (Identity) Inverse(x float64) float64        { return x }
func (Identity) LogDetJacobian(u float64) float64 { return 0 }

// Exp maps the real line onto (0, +inf).
type Exp struct{}

func (Exp) Forward(u float64) float64 { return math.Exp(u) }

func (Exp) Inverse(x float64) float64 { return math.Log(x) }

func (Exp) LogDetJacobian(u float64) float64 { return u }

// Logit maps the real line onto (0, 1) via the logistic sigmoid.
type Logit struct{}

func (Logit) Forward(u float64) float64 { return sigmoid(u) }

func (Logit) Inverse(x float64) float64 { return math.Log(x) - math.Log1p(-x) }

func (Logit) LogDetJacobian(u float64) float64 {
	// log(sigmoid(u)) + log(1 - sigmoid(u)), computed stably.
	return -softplus(-u) - softplus(u)
}

// ScaledLogit maps the real line onto (Lower, Upper).
type ScaledLogit struct {
	Lower, Upper float64
}

func (b ScaledLogit) Forward(u float64) float64 {
	return b.Lower + (b.Upper-b.Lower)*sigmoid(u)
}

func (b ScaledLogit) Inverse(x float64) float64 {
	p := (x - b.Lower) / (b.Upper - b.Lower)
	return math.Log(p) - math.Log1p(-p)
}

func (b ScaledLogit) LogDetJacobian(u float64) float64 {
	return math.Log(b.Upper-b.Lower) - softplus(-u) - softplus(u)
}

func sigmoid(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1 + e)
}

func softplus(u float64) float64 {
	if u > 30 {
		return u
	}
	return math.Log1p(math.Exp(u))
}
