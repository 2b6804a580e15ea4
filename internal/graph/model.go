// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package graph

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// ParamMeta describes one free parameter block in the flattened
// unconstrained vector.
type ParamMeta struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

// Model is an immutable, fully specified probabilistic model graph.
// All methods are safe for concurrent use; evaluation allocates its own
// scratch space so independent chains never share state.
type Model struct {
	nodes  []node
	index  map[string]int
	dim    int
	params []ParamMeta
}

// Dim returns the dimensionality of the unconstrained parameter space.
func (m *Model) Dim() int { return m.dim }

// Params returns the free-parameter layout of the flattened vector.
func (m *Model) Params() []ParamMeta {
	out := make([]ParamMeta, len(m.params))
	copy(out, m.params)
	return out
}

// LogProb evaluates the joint log density (priors with Jacobian
// corrections plus all likelihood terms) at an unconstrained point.
// Returns -Inf outside the support and NaN only if a deterministic or
// likelihood closure itself produces NaN.
func (m *Model) LogProb(u []float64) float64 {
	lp, _ := m.eval(u)
	return lp
}

// eval walks the graph once, returning the log density and all node values.
func (m *Model) eval(u []float64) (float64, [][]float64) {
	if len(u) != m.dim {
		return math.NaN(), nil
	}
	values := make([][]float64, len(m.nodes))
	lp := 0.0

	for i, n := range m.nodes {
		switch n.kind {
		case freeNode:
			x := make([]float64, n.size)
			for j := 0; j < n.size; j++ {
				uj := u[n.offset+j]
				xj := n.bij.Forward(uj)
				x[j] = xj
				lp += n.prior.LogProb(xj) + n.bij.LogDetJacobian(uj)
			}
			values[i] = x

		case detNode:
			inputs := gather(values, n.deps)
			values[i] = n.fn(inputs...)

		case obsNode:
			inputs := gather(values, n.deps)
			lp += n.loglik(inputs...)
		}

		if math.IsInf(lp, -1) {
			return math.Inf(-1), values
		}
	}
	return lp, values
}

func gather(values [][]float64, deps []int) [][]float64 {
	inputs := make([][]float64, len(deps))
	for k, d := range deps {
		inputs[k] = values[d]
	}
	return inputs
}

// Constrain maps an unconstrained draw to the constrained values of all
// free parameters, laid out per Params(). This is what gets stored in
// posterior sample sets.
func (m *Model) Constrain(u []float64) []float64 {
	out := make([]float64, m.dim)
	for _, n := range m.nodes {
		if n.kind != freeNode {
			continue
		}
		for j := 0; j < n.size; j++ {
			out[n.offset+j] = n.bij.Forward(u[n.offset+j])
		}
	}
	return out
}

// Unconstrain is the inverse of Constrain.
func (m *Model) Unconstrain(x []float64) []float64 {
	out := make([]float64, m.dim)
	for _, n := range m.nodes {
		if n.kind != freeNode {
			continue
		}
		for j := 0; j < n.size; j++ {
			out[n.offset+j] = n.bij.Inverse(x[n.offset+j])
		}
	}
	return out
}

// ValueOf re-evaluates the graph at an unconstrained draw and returns the
// named node's value. Used by the posterior analysis layer to derive
// quantities (e.g. channel contributions) at every draw.
func (m *Model) ValueOf(u []float64, name string) ([]float64, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, fmt.Errorf("graph: unknown node %q", name)
	}
	if m.nodes[i].kind == obsNode {
		return nil, fmt.Errorf("graph: node %q is an observed node", name)
	}
	_, values := m.eval(u)
	if values == nil {
		return nil, fmt.Errorf("graph: evaluation failed for node %q", name)
	}
	out := make([]float64, len(values[i]))
	copy(out, values[i])
	return out, nil
}

// InitialPoint draws an unconstrained starting point from the priors.
func (m *Model) InitialPoint(rng *rand.Rand) []float64 {
	u := make([]float64, m.dim)
	for _, n := range m.nodes {
		if n.kind != freeNode {
			continue
		}
		for j := 0; j < n.size; j++ {
			u[n.offset+j] = n.bij.Inverse(n.prior.Sample(rng))
		}
	}
	return u
}
