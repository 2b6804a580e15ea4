// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package sampler

import (
	"fmt"
	"strings"

	"github.com/quantmix/bayesmix/internal/posterior"
)

// SamplingError is fatal: the sampler could not proceed at all, e.g. the
// likelihood was unevaluable at every initialization attempt.
type SamplingError struct {
	Reason string
	Err    error
}

func (e *SamplingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sampling error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sampling error: %s", e.Reason)
}

func (e *SamplingError) Unwrap() error { return e.Err }

// ConvergenceWarning is non-fatal: sampling completed but diagnostics fell
// below the acceptance thresholds. The sample set is still returned; the
// caller decides whether to trust it.
type ConvergenceWarning struct {
	// Failed lists the diagnostics that missed their thresholds.
	Failed []posterior.Diagnostic

	// Truncated is set when the warning is due to a budget or
	// cancellation cutting sampling short.
	Truncated bool
}

func (w *ConvergenceWarning) Error() string {
	if len(w.Failed) == 0 && w.Truncated {
		return "convergence warning: sampling truncated before completion"
	}
	names := make([]string, 0, len(w.Failed))
	for _, d := range w.Failed {
		names = append(names, fmt.Sprintf("%s (rhat=%.3f ess=%.0f)", d.Name, d.RHat, d.ESS))
	}
	msg := "convergence warning: poor diagnostics for " + strings.Join(names, ", ")
	if w.Truncated {
		msg += " (sampling truncated)"
	}
	return msg
}
