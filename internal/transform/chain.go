// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package transform

import "fmt"

// Order selects which transform of an adstock/saturation pair runs first.
// The statistically correct order is debated, so it stays an explicit
// configuration choice rather than a hard-coded convention.
type Order string

const (
	// OrderAdstockFirst applies carryover before the saturation curve.
	// This is the conventional default.
	OrderAdstockFirst Order = "adstock_first"

	// OrderSaturationFirst saturates raw spend before spreading it over
	// subsequent periods.
	OrderSaturationFirst Order = "saturation_first"
)

// Chain composes an adstock and a saturation transform in a configurable
// order. It is the unit of media feature engineering: one chain per
// channel, with per-channel parameters supplied at every evaluation.
type Chain struct {
	Adstock    AdstockSpec    `json:"adstock" koanf:"adstock"`
	Saturation SaturationSpec `json:"saturation" koanf:"saturation"`
	Order      Order          `json:"order" koanf:"order"`
}

// Validate checks both component specs and the order.
func (c Chain) Validate() error {
	if err := c.Adstock.Validate(); err != nil {
		return err
	}
	if err := c.Saturation.Validate(); err != nil {
		return err
	}
	switch c.Order {
	case OrderAdstockFirst, OrderSaturationFirst:
		return nil
	default:
		return fmt.Errorf("unknown transform order %q", c.Order)
	}
}

// Apply maps a raw spend series to its effective contribution series using
// the given adstock and saturation parameter values.
func (c Chain) Apply(x []float64, adstockParams, saturationParams []float64) []float64 {
	if c.Order == OrderSaturationFirst {
		return c.Adstock.Apply(c.Saturation.Apply(x, saturationParams), adstockParams)
	}
	return c.Saturation.Apply(c.Adstock.Apply(x, adstockParams), saturationParams)
}

// SteadyState evaluates the chain at a constant spend level. Carryover
// over a constant series converges to the weight-sum gain, which enters
// before or after saturation according to the configured order.
func (c Chain) SteadyState(x float64, adstockParams, saturationParams []float64) float64 {
	gain := c.Adstock.SteadyStateGain(adstockParams)
	if c.Order == OrderSaturationFirst {
		return gain * c.Saturation.ApplyScalar(x, saturationParams)
	}
	return c.Saturation.ApplyScalar(gain*x, saturationParams)
}
