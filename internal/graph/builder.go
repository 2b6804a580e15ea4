// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package graph assembles declarative probabilistic model graphs: free
// random variables with priors, deterministic transformation nodes, and
// observed likelihood nodes.
//
// Builders are explicit values passed through the build pipeline; there is
// no ambient process-wide "current model" context. Nodes must reference
// only previously added nodes, which makes every successfully built graph
// acyclic and topologically ordered by construction.
//
// The built Model is immutable and exposes a flat-vector log density over
// the unconstrained parameter space, which is the only surface the
// inference engines need.
package graph

import (
	"fmt"

	"github.com/quantmix/bayesmix/internal/dist"
)

// DetFunc computes a deterministic node from the values of its inputs,
// in the order the dependencies were declared.
type DetFunc func(inputs ...[]float64) []float64

// LogLikFunc returns the log likelihood of the observed data given the
// values of the node's inputs. The data itself is bound into the closure.
type LogLikFunc func(inputs ...[]float64) float64

type nodeKind int

const (
	freeNode nodeKind = iota
	detNode
	obsNode
)

type node struct {
	name   string
	kind   nodeKind
	size   int
	prior  dist.Dist     // freeNode
	bij    dist.Bijector // freeNode
	offset int           // freeNode: position in the unconstrained vector
	fn     DetFunc       // detNode
	loglik LogLikFunc    // obsNode
	deps   []int
}

// Builder accumulates nodes for a model graph. The zero value is not
// usable; construct with NewBuilder.
type Builder struct {
	nodes  []node
	index  map[string]int
	dim    int
	nObs   int
	broken error
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// fail records the first error; later calls become no-ops so call sites
// can chain adds and check once at Build.
func (b *Builder) fail(err error) {
	if b.broken == nil {
		b.broken = err
	}
}

func (b *Builder) addNode(n node) {
	if b.broken != nil {
		return
	}
	if n.name == "" {
		b.fail(NewConfigurationError("node", "empty node name"))
		return
	}
	if _, dup := b.index[n.name]; dup {
		b.fail(NewConfigurationError(n.name, "duplicate node name"))
		return
	}
	b.index[n.name] = len(b.nodes)
	b.nodes = append(b.nodes, n)
}

func (b *Builder) resolveDeps(name string, deps []string) []int {
	out := make([]int, 0, len(deps))
	for _, d := range deps {
		i, ok := b.index[d]
		if !ok {
			b.fail(NewConfigurationError(name, "depends on undefined node %q", d))
			return nil
		}
		out = append(out, i)
	}
	return out
}

// AddFree adds a vector of free (latent) random variables sharing one
// prior. Size 1 declares a scalar parameter.
func (b *Builder) AddFree(name string, prior dist.Dist, size int) *Builder {
	if b.broken != nil {
		return b
	}
	if prior == nil {
		b.fail(NewConfigurationError(name, "nil prior"))
		return b
	}
	if size < 1 {
		b.fail(NewConfigurationError(name, "size must be at least 1, got %d", size))
		return b
	}
	b.addNode(node{
		name:   name,
		kind:   freeNode,
		size:   size,
		prior:  prior,
		bij:    dist.BijectorFor(prior),
		offset: b.dim,
	})
	b.dim += size
	return b
}

// AddFreeSpec resolves a prior spec and adds the free variable.
func (b *Builder) AddFreeSpec(name string, spec dist.Spec, size int) *Builder {
	if b.broken != nil {
		return b
	}
	prior, err := spec.Resolve()
	if err != nil {
		b.fail(NewConfigurationError(name, "%v", err))
		return b
	}
	return b.AddFree(name, prior, size)
}

// AddDeterministic adds a node computed from previously added nodes.
func (b *Builder) AddDeterministic(name string, fn DetFunc, size int, deps ...string) *Builder {
	if b.broken != nil {
		return b
	}
	if fn == nil {
		b.fail(NewConfigurationError(name, "nil deterministic function"))
		return b
	}
	if len(deps) == 0 {
		b.fail(NewConfigurationError(name, "deterministic node has no inputs"))
		return b
	}
	resolved := b.resolveDeps(name, deps)
	if b.broken != nil {
		return b
	}
	b.addNode(node{name: name, kind: detNode, size: size, fn: fn, deps: resolved})
	return b
}

// Observe adds a likelihood node. The observed data is bound inside fn.
func (b *Builder) Observe(name string, fn LogLikFunc, deps ...string) *Builder {
	if b.broken != nil {
		return b
	}
	if fn == nil {
		b.fail(NewConfigurationError(name, "nil likelihood function"))
		return b
	}
	if len(deps) == 0 {
		b.fail(NewConfigurationError(name, "likelihood node has no inputs"))
		return b
	}
	resolved := b.resolveDeps(name, deps)
	if b.broken != nil {
		return b
	}
	b.addNode(node{name: name, kind: obsNode, fn: nil, loglik: fn, deps: resolved})
	b.nObs++
	return b
}

// Build finalizes the graph. The builder must contain at least one free
// variable and one observed node.
func (b *Builder) Build() (*Model, error) {
	if b.broken != nil {
		return nil, b.broken
	}
	if b.dim == 0 {
		return nil, NewConfigurationError("graph", "model has no free parameters")
	}
	if b.nObs == 0 {
		return nil, NewConfigurationError("graph", "model has no observed node")
	}

	params := make([]ParamMeta, 0)
	for _, n := range b.nodes {
		if n.kind == freeNode {
			params = append(params, ParamMeta{Name: n.name, Offset: n.offset, Size: n.size})
		}
	}

	nodes := make([]node, len(b.nodes))
	copy(nodes, b.nodes)
	index := make(map[string]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}

	return &Model{nodes: nodes, index: index, dim: b.dim, params: params}, nil
}

// MustBuild is Build for graphs assembled from already validated
// configuration; it panics on error.
func (b *Builder) MustBuild() *Model {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("graph: %v", err))
	}
	return m
}
