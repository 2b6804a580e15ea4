// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package posterior holds posterior sample sets and the read-only analysis
// layer on top of them: parameter summaries, credible intervals,
// convergence diagnostics, and persistence.
//
// A SampleSet is produced once by an inference engine and consumed
// read-only everywhere downstream; derived quantities are always computed
// by mapping over every draw, never by collapsing to a point estimate
// first.
package posterior

import (
	"fmt"
	"time"

	"github.com/quantmix/bayesmix/internal/graph"
)

// SampleSet is an ordered collection of joint posterior draws with
// provenance. Draws are stored on the constrained scale, laid out per
// Params.
type SampleSet struct {
	// RunID identifies the fit run that produced the samples.
	RunID string `json:"run_id"`

	// Engine names the inference engine ("metropolis", "advi", "map").
	Engine string `json:"engine"`

	// Seed is the master seed the run was started with.
	Seed uint64 `json:"seed"`

	// Params describes the layout of each draw vector.
	Params []graph.ParamMeta `json:"params"`

	// Chains holds draws as [chain][draw][dim].
	Chains [][][]float64 `json:"chains"`

	// Incomplete marks sample sets truncated by budget exhaustion or
	// cancellation. Diagnostics still run; the caller decides whether
	// to trust the fit.
	Incomplete bool `json:"incomplete"`

	// Tune is the number of warmup draws that were discarded per chain.
	Tune int `json:"tune"`

	// Elapsed is the wall-clock sampling duration.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// NumChains returns the number of chains.
func (s *SampleSet) NumChains() int { return len(s.Chains) }

// NumDraws returns the per-chain draw count (the minimum across chains,
// relevant for sets truncated mid-run).
func (s *SampleSet) NumDraws() int {
	if len(s.Chains) == 0 {
		return 0
	}
	n := len(s.Chains[0])
	for _, c := range s.Chains[1:] {
		if len(c) < n {
			n = len(c)
		}
	}
	return n
}

// TotalDraws returns the pooled draw count across all chains.
func (s *SampleSet) TotalDraws() int {
	total := 0
	for _, c := range s.Chains {
		total += len(c)
	}
	return total
}

// Dim returns the length of each draw vector.
func (s *SampleSet) Dim() int {
	d := 0
	for _, p := range s.Params {
		if end := p.Offset + p.Size; end > d {
			d = end
		}
	}
	return d
}

// meta looks up a parameter block by name.
func (s *SampleSet) meta(name string) (graph.ParamMeta, error) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, nil
		}
	}
	return graph.ParamMeta{}, fmt.Errorf("posterior: unknown parameter %q", name)
}

// Flat returns all pooled draws of a named parameter block as
// [draw][size] on the constrained scale.
func (s *SampleSet) Flat(name string) ([][]float64, error) {
	p, err := s.meta(name)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, s.TotalDraws())
	for _, chain := range s.Chains {
		for _, draw := range chain {
			v := make([]float64, p.Size)
			copy(v, draw[p.Offset:p.Offset+p.Size])
			out = append(out, v)
		}
	}
	return out, nil
}

// FlatScalar returns pooled draws of one scalar component of a parameter.
func (s *SampleSet) FlatScalar(name string, index int) ([]float64, error) {
	p, err := s.meta(name)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= p.Size {
		return nil, fmt.Errorf("posterior: parameter %q index %d out of range [0,%d)", name, index, p.Size)
	}
	out := make([]float64, 0, s.TotalDraws())
	for _, chain := range s.Chains {
		for _, draw := range chain {
			out = append(out, draw[p.Offset+index])
		}
	}
	return out, nil
}

// ForEachDraw calls fn once per pooled draw with the full constrained
// vector. The slice must not be retained or mutated.
func (s *SampleSet) ForEachDraw(fn func(draw []float64)) {
	for _, chain := range s.Chains {
		for _, draw := range chain {
			fn(draw)
		}
	}
}

// scalarNames expands vector parameters to indexed scalar labels, e.g.
// adstock_alpha[2].
func (s *SampleSet) scalarNames() []scalarRef {
	var refs []scalarRef
	for _, p := range s.Params {
		if p.Size == 1 {
			refs = append(refs, scalarRef{label: p.Name, offset: p.Offset})
			continue
		}
		for j := 0; j < p.Size; j++ {
			refs = append(refs, scalarRef{
				label:  fmt.Sprintf("%s[%d]", p.Name, j),
				offset: p.Offset + j,
			})
		}
	}
	return refs
}

type scalarRef struct {
	label  string
	offset int
}

// scalarChains extracts per-chain draws of one scalar dimension, trimmed
// to the common draw count.
func (s *SampleSet) scalarChains(offset int) [][]float64 {
	n := s.NumDraws()
	out := make([][]float64, len(s.Chains))
	for i, chain := range s.Chains {
		xs := make([]float64, n)
		for d := 0; d < n; d++ {
			xs[d] = chain[d][offset]
		}
		out[i] = xs
	}
	return out
}
