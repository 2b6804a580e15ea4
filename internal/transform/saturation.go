// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package transform

import (
	"fmt"
	"math"
)

// SaturationKind enumerates the diminishing-returns curve families.
type SaturationKind string

const (
	SaturationLogistic        SaturationKind = "logistic"
	SaturationMichaelisMenten SaturationKind = "michaelis_menten"
	SaturationHill            SaturationKind = "hill"
	SaturationTanh            SaturationKind = "tanh"
)

// LogisticSaturationScalar maps spend through (1-exp(-lam*x))/(1+exp(-lam*x)),
// a monotone concave curve bounded by 1.
func LogisticSaturationScalar(x, lam float64) float64 {
	if x <= 0 {
		return 0
	}
	e := math.Exp(-lam * x)
	return (1 - e) / (1 + e)
}

// MichaelisMentenScalar maps spend through alpha*x/(lam+x), bounded by alpha
// with half-saturation at lam.
func MichaelisMentenScalar(x, alpha, lam float64) float64 {
	if x <= 0 {
		return 0
	}
	return alpha * x / (lam + x)
}

// HillScalar maps spend through sigma*x^beta/(lam^beta + x^beta): a Hill
// curve bounded by sigma with half-saturation at lam and slope beta.
func HillScalar(x, sigma, beta, lam float64) float64 {
	if x <= 0 {
		return 0
	}
	xb := math.Pow(x, beta)
	lb := math.Pow(lam, beta)
	den := lb + xb
	if den == 0 || math.IsInf(xb, 1) {
		return sigma
	}
	return sigma * xb / den
}

// TanhScalar maps spend through b*tanh(x/(b*c)), bounded by b.
func TanhScalar(x, b, c float64) float64 {
	if x <= 0 {
		return 0
	}
	den := b * c
	if den == 0 {
		return 0
	}
	return b * math.Tanh(x/den)
}

// SaturationSpec is the configuration-level description of a saturation
// transform.
type SaturationSpec struct {
	Kind SaturationKind `json:"kind" koanf:"kind"`
}

// Validate checks the kind is known.
func (s SaturationSpec) Validate() error {
	switch s.Kind {
	case SaturationLogistic, SaturationMichaelisMenten, SaturationHill, SaturationTanh:
		return nil
	default:
		return fmt.Errorf("unknown saturation kind %q", s.Kind)
	}
}

// ParamNames returns the fit-parameter names of the family, in the order
// Apply expects them.
func (s SaturationSpec) ParamNames() []string {
	switch s.Kind {
	case SaturationLogistic:
		return []string{"lam"}
	case SaturationMichaelisMenten:
		return []string{"alpha", "lam"}
	case SaturationHill:
		return []string{"sigma", "beta", "lam"}
	case SaturationTanh:
		return []string{"b", "c"}
	default:
		return nil
	}
}

// NumParams returns the number of fit parameters of the family.
func (s SaturationSpec) NumParams() int { return len(s.ParamNames()) }

// ApplyScalar evaluates the saturation curve at one spend level.
func (s SaturationSpec) ApplyScalar(x float64, params []float64) float64 {
	switch s.Kind {
	case SaturationLogistic:
		return LogisticSaturationScalar(x, params[0])
	case SaturationMichaelisMenten:
		return MichaelisMentenScalar(x, params[0], params[1])
	case SaturationHill:
		return HillScalar(x, params[0], params[1], params[2])
	case SaturationTanh:
		return TanhScalar(x, params[0], params[1])
	default:
		return x
	}
}

// Apply evaluates the saturation curve element-wise.
func (s SaturationSpec) Apply(x []float64, params []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = s.ApplyScalar(xi, params)
	}
	return out
}
