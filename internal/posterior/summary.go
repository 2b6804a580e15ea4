// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package posterior

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds point and interval statistics for one scalar parameter.
type Summary struct {
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Prob  float64 `json:"prob"`
}

// Summarize computes mean, standard deviation, and an equal-tailed
// credible interval at the given probability for every scalar parameter.
func Summarize(s *SampleSet, prob float64) ([]Summary, error) {
	if prob <= 0 || prob >= 1 {
		return nil, fmt.Errorf("posterior: interval probability must be in (0,1), got %g", prob)
	}
	if s.TotalDraws() == 0 {
		return nil, fmt.Errorf("posterior: empty sample set")
	}

	refs := s.scalarNames()
	out := make([]Summary, 0, len(refs))
	for _, ref := range refs {
		xs := pooledScalar(s, ref.offset)
		out = append(out, summarizeScalar(ref.label, xs, prob))
	}
	return out, nil
}

func pooledScalar(s *SampleSet, offset int) []float64 {
	xs := make([]float64, 0, s.TotalDraws())
	for _, chain := range s.Chains {
		for _, draw := range chain {
			xs = append(xs, draw[offset])
		}
	}
	return xs
}

func summarizeScalar(label string, xs []float64, prob float64) Summary {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	tail := (1 - prob) / 2
	return Summary{
		Name:  label,
		Mean:  stat.Mean(xs, nil),
		SD:    stat.StdDev(xs, nil),
		Lower: stat.Quantile(tail, stat.Empirical, sorted, nil),
		Upper: stat.Quantile(1-tail, stat.Empirical, sorted, nil),
		Prob:  prob,
	}
}

// IntervalSeries summarizes a derived time series across draws: values is
// [draw][t], the result is per-t mean and equal-tailed interval.
type IntervalSeries struct {
	Mean  []float64 `json:"mean"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
	Prob  float64   `json:"prob"`
}

// SummarizeSeries reduces per-draw series values to pointwise summaries,
// propagating full posterior uncertainty at every index.
func SummarizeSeries(values [][]float64, prob float64) (*IntervalSeries, error) {
	if prob <= 0 || prob >= 1 {
		return nil, fmt.Errorf("posterior: interval probability must be in (0,1), got %g", prob)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("posterior: no draws to summarize")
	}
	n := len(values[0])
	out := &IntervalSeries{
		Mean:  make([]float64, n),
		Lower: make([]float64, n),
		Upper: make([]float64, n),
		Prob:  prob,
	}
	col := make([]float64, len(values))
	tail := (1 - prob) / 2
	for t := 0; t < n; t++ {
		for d, row := range values {
			col[d] = row[t]
		}
		out.Mean[t] = stat.Mean(col, nil)
		sorted := make([]float64, len(col))
		copy(sorted, col)
		sort.Float64s(sorted)
		out.Lower[t] = stat.Quantile(tail, stat.Empirical, sorted, nil)
		out.Upper[t] = stat.Quantile(1-tail, stat.Empirical, sorted, nil)
	}
	return out, nil
}

// HDI returns the narrowest interval containing prob mass of the pooled
// draws of a scalar parameter.
func HDI(s *SampleSet, name string, index int, prob float64) (lower, upper float64, err error) {
	if prob <= 0 || prob >= 1 {
		return 0, 0, fmt.Errorf("posterior: interval probability must be in (0,1), got %g", prob)
	}
	xs, err := s.FlatScalar(name, index)
	if err != nil {
		return 0, 0, err
	}
	if len(xs) == 0 {
		return 0, 0, fmt.Errorf("posterior: no draws for %q", name)
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	window := int(math.Ceil(prob * float64(n)))
	if window >= n {
		return sorted[0], sorted[n-1], nil
	}
	bestLow := 0
	bestWidth := math.Inf(1)
	for i := 0; i+window-1 < n; i++ {
		width := sorted[i+window-1] - sorted[i]
		if width < bestWidth {
			bestWidth = width
			bestLow = i
		}
	}
	return sorted[bestLow], sorted[bestLow+window-1], nil
}
