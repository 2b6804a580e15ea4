// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package posterior

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Diagnostic holds cross-chain convergence statistics for one scalar
// parameter: the rank-normalized split R-hat and the bulk effective
// sample size.
type Diagnostic struct {
	Name string  `json:"name"`
	RHat float64 `json:"rhat"`
	ESS  float64 `json:"ess"`
}

// Default convergence thresholds (Vehtari et al. 2021 recommendations).
const (
	RHatThreshold      = 1.01
	ESSPerChainMinimum = 100
)

// Acceptable reports whether the diagnostic clears the default thresholds
// for the given chain count.
func (d Diagnostic) Acceptable(chains int) bool {
	if math.IsNaN(d.RHat) || d.RHat > RHatThreshold {
		return false
	}
	return d.ESS >= ESSPerChainMinimum*float64(chains)
}

// Diagnose computes rank-normalized split R-hat and bulk ESS for every
// scalar parameter. It requires all chains to have completed (the
// driver's join barrier guarantees this).
func Diagnose(s *SampleSet) []Diagnostic {
	refs := s.scalarNames()
	out := make([]Diagnostic, 0, len(refs))
	for _, ref := range refs {
		chains := s.scalarChains(ref.offset)
		z := rankNormalize(splitChains(chains))
		out = append(out, Diagnostic{
			Name: ref.label,
			RHat: potentialScaleReduction(z),
			ESS:  effectiveSampleSize(z),
		})
	}
	return out
}

// splitChains halves each chain so within-chain drift shows up as
// between-chain disagreement.
func splitChains(chains [][]float64) [][]float64 {
	var out [][]float64
	for _, c := range chains {
		n := len(c) / 2
		if n < 1 {
			out = append(out, c)
			continue
		}
		out = append(out, c[:n], c[n:n*2])
	}
	return out
}

// rankNormalize replaces every draw by the normal quantile of its
// fractional rank across all chains, which makes R-hat robust to heavy
// tails and nonlinear scale.
func rankNormalize(chains [][]float64) [][]float64 {
	type indexed struct {
		chain, draw int
		value       float64
	}
	var all []indexed
	for i, c := range chains {
		for j, v := range c {
			all = append(all, indexed{i, j, v})
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].value < all[b].value })

	n := float64(len(all))
	std := distuv.Normal{Mu: 0, Sigma: 1}
	out := make([][]float64, len(chains))
	for i, c := range chains {
		out[i] = make([]float64, len(c))
	}
	for rank, item := range all {
		// Blom offset keeps quantiles strictly inside (0,1).
		p := (float64(rank) + 1 - 0.375) / (n + 0.25)
		out[item.chain][item.draw] = std.Quantile(p)
	}
	return out
}

// potentialScaleReduction computes split R-hat over already rank-normalized
// chains.
func potentialScaleReduction(chains [][]float64) float64 {
	m := len(chains)
	if m < 2 || len(chains[0]) < 2 {
		return math.NaN()
	}
	n := float64(len(chains[0]))

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range chains {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := n * stat.Variance(means, nil)
	if w <= 0 {
		return math.NaN()
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// effectiveSampleSize computes bulk ESS with Geyer's initial monotone
// positive sequence over the chain-averaged autocorrelations.
func effectiveSampleSize(chains [][]float64) float64 {
	m := len(chains)
	if m == 0 || len(chains[0]) < 4 {
		return math.NaN()
	}
	n := len(chains[0])

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range chains {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := float64(n) * stat.Variance(means, nil)
	varPlus := (float64(n)-1)/float64(n)*w + b/float64(n)
	if varPlus <= 0 {
		return math.NaN()
	}

	// Chain-averaged autocovariance at each lag.
	acov := func(lag int) float64 {
		var s float64
		for i, c := range chains {
			var cs float64
			for t := 0; t+lag < n; t++ {
				cs += (c[t] - means[i]) * (c[t+lag] - means[i])
			}
			s += cs / float64(n)
		}
		return s / float64(m)
	}

	var rhoSum float64
	prevPair := math.Inf(1)
	for lag := 1; lag+1 < n; lag += 2 {
		rhoA := 1 - (w-acov(lag))/varPlus
		rhoB := 1 - (w-acov(lag+1))/varPlus
		pair := rhoA + rhoB
		if pair < 0 {
			break
		}
		// Enforce monotone decrease of the pair sums.
		if pair > prevPair {
			pair = prevPair
		}
		rhoSum += pair
		prevPair = pair
	}

	total := float64(m * n)
	ess := total / (1 + 2*rhoSum)
	if ess > total {
		ess = total
	}
	return ess
}
