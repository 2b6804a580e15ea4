// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/metrics"
	"github.com/quantmix/bayesmix/internal/posterior"
)

// Engine is the narrow boundary to an inference backend. Implementations
// must honor cooperative cancellation via ctx and the wall-clock budget in
// cfg, returning partial Incomplete-flagged sample sets instead of
// blocking indefinitely.
type Engine interface {
	Name() string
	Sample(ctx context.Context, m *graph.Model, cfg Config) (*posterior.SampleSet, error)
}

// NewEngine returns the engine for a configured sampler kind.
func NewEngine(kind Kind) (Engine, error) {
	switch kind {
	case KindMetropolis:
		return &metropolisEngine{}, nil
	case KindADVI:
		return &adviEngine{}, nil
	case KindMAP:
		return &mapEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", kind)
	}
}

// Fit runs inference over a built model graph and attaches convergence
// diagnostics. The returned error is either nil, a fatal *SamplingError,
// or a non-fatal *ConvergenceWarning — in the warning case the sample set
// is still valid and returned alongside it.
func Fit(ctx context.Context, m *graph.Model, cfg Config) (*posterior.SampleSet, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, graph.NewConfigurationError("sampler", "%v", err)
	}
	engine, err := NewEngine(cfg.Sampler)
	if err != nil {
		return nil, graph.NewConfigurationError("sampler", "%v", err)
	}
	return FitWith(ctx, m, cfg, engine)
}

// FitWith is Fit with an explicit engine, bypassing kind resolution. It
// is the injection point for instrumented engines and for backends not
// registered under a Kind.
func FitWith(ctx context.Context, m *graph.Model, cfg Config, engine Engine) (*posterior.SampleSet, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, graph.NewConfigurationError("sampler", "%v", err)
	}

	log := logging.Ctx(ctx).With().
		Str("component", "sampler").
		Str("engine", engine.Name()).
		Int("chains", cfg.Chains).
		Int("draws", cfg.Draws).
		Uint64("seed", cfg.Seed).
		Logger()
	log.Info().Msg("starting inference")

	start := time.Now()
	set, err := engine.Sample(ctx, m, cfg)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveFit(engine.Name(), "error", elapsed)
		return nil, err
	}

	set.Engine = engine.Name()
	set.Seed = cfg.Seed
	set.Elapsed = elapsed
	if set.RunID == "" {
		if id := logging.RunIDFromContext(ctx); id != "" {
			set.RunID = id
		} else {
			set.RunID = logging.GenerateRunID()
		}
	}

	warning := diagnose(set, cfg)
	outcome := "ok"
	switch {
	case set.Incomplete:
		outcome = "truncated"
	case warning != nil:
		outcome = "warning"
	}
	metrics.ObserveFit(engine.Name(), outcome, elapsed)

	if warning != nil {
		log.Warn().
			Bool("truncated", warning.Truncated).
			Int("failed_params", len(warning.Failed)).
			Msg("inference finished with convergence warning")
		return set, warning
	}
	log.Info().Dur("elapsed", elapsed).Msg("inference finished")
	return set, nil
}

// diagnose computes cross-chain diagnostics and decides whether to attach
// a ConvergenceWarning. MAP sets are degenerate by construction and are
// not diagnosed.
func diagnose(set *posterior.SampleSet, cfg Config) *ConvergenceWarning {
	if cfg.Sampler == KindMAP {
		if set.Incomplete {
			return &ConvergenceWarning{Truncated: true}
		}
		return nil
	}

	var failed []posterior.Diagnostic
	if set.NumChains() >= 2 && set.NumDraws() >= 4 {
		for _, d := range posterior.Diagnose(set) {
			if !d.Acceptable(set.NumChains()) {
				failed = append(failed, d)
			}
		}
	}
	if len(failed) == 0 && !set.Incomplete {
		return nil
	}
	return &ConvergenceWarning{Failed: failed, Truncated: set.Incomplete}
}

// budgetDeadline converts a relative budget into an absolute deadline.
// The zero time means unbounded.
func budgetDeadline(cfg Config) time.Time {
	if cfg.Budget <= 0 {
		return time.Time{}
	}
	return time.Now().Add(cfg.Budget)
}

// stopRequested reports whether the run should wind down, checking the
// context and the budget deadline.
func stopRequested(ctx context.Context, deadline time.Time) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}
