// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package clv

import (
	"fmt"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/posterior"
)

// paramOffsets locates a model's scalar parameters in the sample set's
// draw layout.
func paramOffsets(set *posterior.SampleSet, names []string) ([]int, error) {
	offsets := make([]int, len(names))
	for i, name := range names {
		found := false
		for _, p := range set.Params {
			if p.Name == name {
				if p.Size != 1 {
					return nil, fmt.Errorf("clv: parameter %q is not scalar", name)
				}
				offsets[i] = p.Offset
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("clv: parameter %q not in sample set", name)
		}
	}
	return offsets, nil
}

func extract(draw []float64, offsets []int) []float64 {
	out := make([]float64, len(offsets))
	for i, off := range offsets {
		out[i] = draw[off]
	}
	return out
}

// PosteriorExpectedTransactions averages each customer's expected future
// transactions over every posterior draw. Results are non-negative for
// any horizon >= 0.
func PosteriorExpectedTransactions(m Model, set *posterior.SampleSet, customers []Customer, horizon float64) ([]float64, error) {
	if horizon < 0 {
		return nil, dataset.NewValidationError("horizon", "must be non-negative, got %g", horizon)
	}
	if err := ValidateCustomers(customers); err != nil {
		return nil, err
	}
	offsets, err := paramOffsets(set, m.ParamNames())
	if err != nil {
		return nil, err
	}
	total := set.TotalDraws()
	if total == 0 {
		return nil, fmt.Errorf("clv: empty sample set")
	}

	out := make([]float64, len(customers))
	set.ForEachDraw(func(draw []float64) {
		params := extract(draw, offsets)
		for i, c := range customers {
			out[i] += m.ExpectedTransactions(params, c, horizon)
		}
	})
	for i := range out {
		out[i] /= float64(total)
	}
	return out, nil
}

// PosteriorProbabilityAlive averages each customer's alive probability
// over every posterior draw.
func PosteriorProbabilityAlive(m AliveModel, set *posterior.SampleSet, customers []Customer) ([]float64, error) {
	if err := ValidateCustomers(customers); err != nil {
		return nil, err
	}
	offsets, err := paramOffsets(set, m.ParamNames())
	if err != nil {
		return nil, err
	}
	total := set.TotalDraws()
	if total == 0 {
		return nil, fmt.Errorf("clv: empty sample set")
	}

	out := make([]float64, len(customers))
	set.ForEachDraw(func(draw []float64) {
		params := extract(draw, offsets)
		for i, c := range customers {
			out[i] += m.ProbabilityAlive(params, c)
		}
	})
	for i := range out {
		out[i] /= float64(total)
	}
	return out, nil
}

// PosteriorCLV averages discounted customer lifetime value over paired
// draws from a timing-model fit and a Gamma-Gamma fit. Draws pair by
// pooled index, truncated to the shorter set.
func PosteriorCLV(timing Model, timingSet *posterior.SampleSet, gg GammaGamma, ggSet *posterior.SampleSet, customers []Customer, horizon, discountRate float64) ([]float64, error) {
	if horizon < 0 {
		return nil, dataset.NewValidationError("horizon", "must be non-negative, got %g", horizon)
	}
	if err := ValidateCustomers(customers); err != nil {
		return nil, err
	}
	timingOffsets, err := paramOffsets(timingSet, timing.ParamNames())
	if err != nil {
		return nil, err
	}
	ggOffsets, err := paramOffsets(ggSet, gg.ParamNames())
	if err != nil {
		return nil, err
	}

	var timingDraws, ggDraws [][]float64
	timingSet.ForEachDraw(func(draw []float64) {
		timingDraws = append(timingDraws, extract(draw, timingOffsets))
	})
	ggSet.ForEachDraw(func(draw []float64) {
		ggDraws = append(ggDraws, extract(draw, ggOffsets))
	})
	n := len(timingDraws)
	if len(ggDraws) < n {
		n = len(ggDraws)
	}
	if n == 0 {
		return nil, fmt.Errorf("clv: empty sample set")
	}

	out := make([]float64, len(customers))
	for d := 0; d < n; d++ {
		for i, c := range customers {
			out[i] += gg.CLV(timing, timingDraws[d], ggDraws[d], c, horizon, discountRate)
		}
	}
	for i := range out {
		out[i] /= float64(n)
	}
	return out, nil
}
