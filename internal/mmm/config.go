// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package mmm builds and fits Bayesian marketing mix models: media spend
// runs through per-channel adstock and saturation transforms into a
// linear predictor with intercept, controls, and optional yearly
// seasonality, observed under a Normal or Student-t likelihood.
//
// All configuration is validated eagerly against the observation table;
// a model that starts sampling has a fully consistent graph.
package mmm

import (
	"fmt"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/dist"
	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/sampler"
	"github.com/quantmix/bayesmix/internal/transform"
)

// Likelihood names the outcome distribution family.
type Likelihood string

const (
	// LikelihoodNormal is the Gaussian outcome model.
	LikelihoodNormal Likelihood = "normal"

	// LikelihoodStudentT is the heavy-tailed outcome model with fitted
	// degrees of freedom.
	LikelihoodStudentT Likelihood = "student_t"
)

// LiftTest encodes one incrementality experiment: the measured outcome
// delta when a channel's spend moved from SpendBefore to SpendAfter.
// Each test adds a Normal pseudo-likelihood term on the model-implied
// saturation-curve difference, calibrating the channel's curve against
// experimental ground truth.
type LiftTest struct {
	Channel     string  `json:"channel" koanf:"channel"`
	SpendBefore float64 `json:"spend_before" koanf:"spend_before"`
	SpendAfter  float64 `json:"spend_after" koanf:"spend_after"`
	DeltaMean   float64 `json:"delta_mean" koanf:"delta_mean"`
	DeltaSigma  float64 `json:"delta_sigma" koanf:"delta_sigma"`
}

// Config specifies a marketing mix model.
type Config struct {
	// ChannelColumns are the media spend columns, one transform chain
	// and coefficient each.
	ChannelColumns []string `json:"channel_columns" koanf:"channel_columns" validate:"min=1"`

	// ControlColumns enter the predictor linearly without transforms.
	ControlColumns []string `json:"control_columns" koanf:"control_columns"`

	// OutcomeColumn is the observed response series.
	OutcomeColumn string `json:"outcome_column" koanf:"outcome_column" validate:"required"`

	// Adstock and Saturation apply to every channel; Order picks which
	// runs first.
	Adstock    transform.AdstockSpec    `json:"adstock" koanf:"adstock"`
	Saturation transform.SaturationSpec `json:"saturation" koanf:"saturation"`
	Order      transform.Order          `json:"order" koanf:"order"`

	// Likelihood selects the outcome family.
	Likelihood Likelihood `json:"likelihood" koanf:"likelihood" validate:"oneof=normal student_t"`

	// YearlySeasonality is the Fourier order of the yearly cycle; zero
	// disables it. Requires a dated table.
	YearlySeasonality int `json:"yearly_seasonality" koanf:"yearly_seasonality" validate:"gte=0"`

	// Priors overrides default priors by parameter name, e.g.
	// "saturation_lam" or "channel_coef".
	Priors map[string]dist.Spec `json:"priors" koanf:"priors"`

	// LiftTests calibrate saturation curves against experiments.
	LiftTests []LiftTest `json:"lift_tests" koanf:"lift_tests"`

	// Sampler configures the inference run.
	Sampler sampler.Config `json:"sampler" koanf:"sampler"`
}

// DefaultConfig returns a geometric-adstock, logistic-saturation model
// with a Normal likelihood.
func DefaultConfig() Config {
	return Config{
		Adstock: transform.AdstockSpec{
			Kind:      transform.AdstockGeometric,
			LMax:      transform.DefaultLMax,
			Normalize: true,
		},
		Saturation: transform.SaturationSpec{Kind: transform.SaturationLogistic},
		Order:      transform.OrderAdstockFirst,
		Likelihood: LikelihoodNormal,
		Sampler:    sampler.DefaultConfig(),
	}
}

// Validate checks the configuration against the observation table. All
// failures are ConfigurationErrors naming the offending field, raised
// before any sampling work starts.
func (c Config) Validate(table *dataset.Table) error {
	if len(c.ChannelColumns) == 0 {
		return graph.NewConfigurationError("channel_columns", "at least one channel is required")
	}
	if c.OutcomeColumn == "" {
		return graph.NewConfigurationError("outcome_column", "outcome column is required")
	}
	seen := make(map[string]bool, len(c.ChannelColumns))
	for _, ch := range c.ChannelColumns {
		if seen[ch] {
			return graph.NewConfigurationError("channel_columns", "duplicate channel %q", ch)
		}
		seen[ch] = true
	}

	if err := table.RequireColumns(c.OutcomeColumn); err != nil {
		return graph.NewConfigurationError("outcome_column", "%v", err)
	}
	if err := table.RequireColumns(c.ChannelColumns...); err != nil {
		return graph.NewConfigurationError("channel_columns", "%v", err)
	}
	if err := table.RequireColumns(c.ControlColumns...); err != nil {
		return graph.NewConfigurationError("control_columns", "%v", err)
	}
	if err := table.CheckFinite(c.OutcomeColumn); err != nil {
		return graph.NewConfigurationError("outcome_column", "%v", err)
	}
	if err := table.CheckFinite(c.ChannelColumns...); err != nil {
		return graph.NewConfigurationError("channel_columns", "%v", err)
	}
	if err := table.CheckNonNegative(c.ChannelColumns...); err != nil {
		return graph.NewConfigurationError("channel_columns", "%v", err)
	}
	if err := table.CheckFinite(c.ControlColumns...); err != nil {
		return graph.NewConfigurationError("control_columns", "%v", err)
	}

	if err := (transform.Chain{Adstock: c.Adstock, Saturation: c.Saturation, Order: c.Order}).Validate(); err != nil {
		return graph.NewConfigurationError("transform", "%v", err)
	}

	switch c.Likelihood {
	case LikelihoodNormal, LikelihoodStudentT:
	default:
		return graph.NewConfigurationError("likelihood", "unknown likelihood %q", c.Likelihood)
	}

	if c.YearlySeasonality < 0 {
		return graph.NewConfigurationError("yearly_seasonality", "must be non-negative, got %d", c.YearlySeasonality)
	}
	if c.YearlySeasonality > 0 && table.Dates() == nil {
		return graph.NewConfigurationError("yearly_seasonality", "requires a dated table")
	}

	for i, lt := range c.LiftTests {
		if !seen[lt.Channel] {
			return graph.NewConfigurationError(
				fmt.Sprintf("lift_tests[%d].channel", i), "unknown channel %q", lt.Channel)
		}
		if lt.DeltaSigma <= 0 {
			return graph.NewConfigurationError(
				fmt.Sprintf("lift_tests[%d].delta_sigma", i), "must be positive, got %g", lt.DeltaSigma)
		}
	}

	for name, spec := range c.Priors {
		if _, err := spec.Resolve(); err != nil {
			return graph.NewConfigurationError("priors."+name, "%v", err)
		}
	}
	return nil
}

// chain assembles the transform chain the config describes.
func (c Config) chain() transform.Chain {
	return transform.Chain{Adstock: c.Adstock, Saturation: c.Saturation, Order: c.Order}
}
