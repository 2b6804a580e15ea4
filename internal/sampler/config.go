// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package sampler drives approximate Bayesian inference over built model
// graphs. The actual engines sit behind the narrow Engine interface so
// they stay swappable; the driver owns seeding, parallel chains, time
// budgets, cooperative cancellation, and post-run convergence
// diagnostics.
//
// Chains share no mutable state while running: each gets its own seeded
// RNG and its own trace, and they synchronize only at the join barrier
// before diagnostics. Budget exhaustion or cancellation yields a sample
// set flagged Incomplete rather than an indefinite hang.
package sampler

import (
	"fmt"
	"time"
)

// Kind names an inference engine.
type Kind string

const (
	// KindMetropolis is the default adaptive random-walk Metropolis MCMC
	// engine.
	KindMetropolis Kind = "metropolis"

	// KindADVI is mean-field automatic differentiation variational
	// inference (gradients by central differences): fast, approximate.
	KindADVI Kind = "advi"

	// KindMAP is maximum a posteriori optimization; the returned sample
	// set is degenerate but honors the same downstream contract.
	KindMAP Kind = "map"
)

// Config controls a fit run.
type Config struct {
	// Sampler selects the inference engine.
	Sampler Kind `json:"sampler" koanf:"sampler" validate:"oneof=metropolis advi map"`

	// Chains is the number of independent chains.
	Chains int `json:"chains" koanf:"chains" validate:"gte=1,lte=64"`

	// Draws is the number of retained posterior draws per chain.
	Draws int `json:"draws" koanf:"draws" validate:"gte=1"`

	// Tune is the number of warmup draws discarded per chain, during
	// which proposal scales adapt.
	Tune int `json:"tune" koanf:"tune" validate:"gte=0"`

	// Seed is the master random seed; chain c derives seed Seed+c.
	Seed uint64 `json:"random_seed" koanf:"random_seed"`

	// TargetAccept is the Metropolis acceptance rate the adaptation
	// steers toward.
	TargetAccept float64 `json:"target_accept" koanf:"target_accept" validate:"gt=0,lt=1"`

	// MaxInitRetries bounds random reinitialization attempts when the
	// log density is unevaluable at the starting point.
	MaxInitRetries int `json:"max_init_retries" koanf:"max_init_retries" validate:"gte=1"`

	// Budget caps wall-clock sampling time. Zero means no budget.
	// Exceeding it returns partial, Incomplete-flagged results.
	Budget time.Duration `json:"budget" koanf:"budget"`
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		Sampler:        KindMetropolis,
		Chains:         4,
		Draws:          1000,
		Tune:           1000,
		Seed:           42,
		TargetAccept:   0.35,
		MaxInitRetries: 100,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Sampler {
	case KindMetropolis, KindADVI, KindMAP:
	default:
		return fmt.Errorf("unknown sampler %q", c.Sampler)
	}
	if c.Chains < 1 {
		return fmt.Errorf("chains must be at least 1, got %d", c.Chains)
	}
	if c.Draws < 1 {
		return fmt.Errorf("draws must be at least 1, got %d", c.Draws)
	}
	if c.Tune < 0 {
		return fmt.Errorf("tune must be non-negative, got %d", c.Tune)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("target_accept must be in (0,1), got %g", c.TargetAccept)
	}
	if c.MaxInitRetries < 1 {
		return fmt.Errorf("max_init_retries must be at least 1, got %d", c.MaxInitRetries)
	}
	if c.Budget < 0 {
		return fmt.Errorf("budget must be non-negative, got %s", c.Budget)
	}
	return nil
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Sampler == "" {
		c.Sampler = def.Sampler
	}
	if c.Chains == 0 {
		c.Chains = def.Chains
	}
	if c.Draws == 0 {
		c.Draws = def.Draws
	}
	if c.Tune == 0 {
		c.Tune = def.Tune
	}
	if c.TargetAccept == 0 {
		c.TargetAccept = def.TargetAccept
	}
	if c.MaxInitRetries == 0 {
		c.MaxInitRetries = def.MaxInitRetries
	}
	return c
}
