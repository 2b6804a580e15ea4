// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package graph

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/quantmix/bayesmix/internal/dist"
)

// conjugateModel builds mu ~ Normal(0,1), y ~ Normal(mu, 1) with one
// observation, whose posterior is known in closed form.
func conjugateModel(t *testing.T, y float64) *Model {
	t.Helper()
	m, err := NewBuilder().
		AddFree("mu", dist.Normal{Mu: 0, Sigma: 1}, 1).
		Observe("y", func(inputs ...[]float64) float64 {
			mu := inputs[0][0]
			return dist.Normal{Mu: mu, Sigma: 1}.LogProb(y)
		}, "mu").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return m
}

func TestLogProbConjugate(t *testing.T) {
	m := conjugateModel(t, 2.0)
	if m.Dim() != 1 {
		t.Fatalf("Dim() = %d, want 1", m.Dim())
	}

	// At mu=0: logN(0;0,1) + logN(2;0,1)
	want := dist.Normal{Mu: 0, Sigma: 1}.LogProb(0) + dist.Normal{Mu: 0, Sigma: 1}.LogProb(2)
	got := m.LogProb([]float64{0})
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb([0]) = %g, want %g", got, want)
	}
}

func TestLogProbWrongDim(t *testing.T) {
	m := conjugateModel(t, 1)
	if got := m.LogProb([]float64{0, 0}); !math.IsNaN(got) {
		t.Errorf("LogProb with wrong dim = %g, want NaN", got)
	}
}

func TestPositiveParamJacobian(t *testing.T) {
	// sigma ~ HalfNormal(1): the unconstrained density at u must equal
	// prior(exp(u)) + u (log-Jacobian of exp).
	m, err := NewBuilder().
		AddFree("sigma", dist.HalfNormal{Sigma: 1}, 1).
		Observe("y", func(inputs ...[]float64) float64 { return 0 }, "sigma").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	u := 0.3
	want := dist.HalfNormal{Sigma: 1}.LogProb(math.Exp(u)) + u
	got := m.LogProb([]float64{u})
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb = %g, want %g", got, want)
	}
}

func TestDeterministicNodeAndValueOf(t *testing.T) {
	obs := []float64{1, 2, 3}
	m, err := NewBuilder().
		AddFree("scale", dist.HalfNormal{Sigma: 1}, 1).
		AddDeterministic("mu", func(inputs ...[]float64) []float64 {
			s := inputs[0][0]
			out := make([]float64, len(obs))
			for i := range out {
				out[i] = s * float64(i)
			}
			return out
		}, len(obs), "scale").
		Observe("y", func(inputs ...[]float64) float64 {
			mu := inputs[0]
			lp := 0.0
			for i, yi := range obs {
				lp += dist.Normal{Mu: mu[i], Sigma: 1}.LogProb(yi)
			}
			return lp
		}, "mu").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	u := []float64{math.Log(2)} // scale = 2
	mu, err := m.ValueOf(u, "mu")
	if err != nil {
		t.Fatalf("ValueOf error: %v", err)
	}
	want := []float64{0, 2, 4}
	for i := range want {
		if math.Abs(mu[i]-want[i]) > 1e-12 {
			t.Errorf("mu[%d] = %g, want %g", i, mu[i], want[i])
		}
	}

	if _, err := m.ValueOf(u, "nope"); err == nil {
		t.Error("ValueOf(unknown) should error")
	}
	if _, err := m.ValueOf(u, "y"); err == nil {
		t.Error("ValueOf(observed) should error")
	}
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Model, error)
		field string
	}{
		{
			name: "duplicate name",
			build: func() (*Model, error) {
				return NewBuilder().
					AddFree("a", dist.Normal{Mu: 0, Sigma: 1}, 1).
					AddFree("a", dist.Normal{Mu: 0, Sigma: 1}, 1).
					Observe("y", func(...[]float64) float64 { return 0 }, "a").
					Build()
			},
			field: "a",
		},
		{
			name: "undefined dependency",
			build: func() (*Model, error) {
				return NewBuilder().
					AddFree("a", dist.Normal{Mu: 0, Sigma: 1}, 1).
					Observe("y", func(...[]float64) float64 { return 0 }, "missing").
					Build()
			},
			field: "y",
		},
		{
			name: "no observed node",
			build: func() (*Model, error) {
				return NewBuilder().
					AddFree("a", dist.Normal{Mu: 0, Sigma: 1}, 1).
					Build()
			},
			field: "graph",
		},
		{
			name: "no free parameters",
			build: func() (*Model, error) {
				return NewBuilder().
					Observe("y", func(...[]float64) float64 { return 0 }).
					Build()
			},
		},
		{
			name: "bad size",
			build: func() (*Model, error) {
				return NewBuilder().
					AddFree("a", dist.Normal{Mu: 0, Sigma: 1}, 0).
					Observe("y", func(...[]float64) float64 { return 0 }, "a").
					Build()
			},
			field: "a",
		},
		{
			name: "bad prior spec",
			build: func() (*Model, error) {
				return NewBuilder().
					AddFreeSpec("a", dist.Spec{Dist: "NoSuchDist"}, 1).
					Observe("y", func(...[]float64) float64 { return 0 }, "a").
					Build()
			},
			field: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("Build() should fail")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigurationError", err)
			}
			if tt.field != "" && cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConstrainUnconstrainRoundTrip(t *testing.T) {
	m, err := NewBuilder().
		AddFree("mu", dist.Normal{Mu: 0, Sigma: 1}, 2).
		AddFree("sigma", dist.HalfNormal{Sigma: 1}, 1).
		AddFree("decay", dist.Beta{Alpha: 1, BetaP: 3}, 1).
		Observe("y", func(...[]float64) float64 { return 0 }, "mu", "sigma", "decay").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	u := []float64{0.5, -1.2, 0.3, -0.7}
	x := m.Constrain(u)
	back := m.Unconstrain(x)
	for i := range u {
		if math.Abs(back[i]-u[i]) > 1e-9 {
			t.Errorf("round trip [%d]: %g -> %g", i, u[i], back[i])
		}
	}
	if x[2] <= 0 {
		t.Errorf("constrained sigma = %g, want positive", x[2])
	}
	if x[3] <= 0 || x[3] >= 1 {
		t.Errorf("constrained decay = %g, want in (0,1)", x[3])
	}
}

func TestInitialPointFinite(t *testing.T) {
	m := conjugateModel(t, 1.5)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		u := m.InitialPoint(rng)
		lp := m.LogProb(u)
		if math.IsNaN(lp) || math.IsInf(lp, 0) {
			t.Fatalf("InitialPoint draw %d has logprob %g", i, lp)
		}
	}
}

func TestParamsLayout(t *testing.T) {
	m, err := NewBuilder().
		AddFree("alpha", dist.Beta{Alpha: 1, BetaP: 3}, 3).
		AddFree("beta", dist.HalfNormal{Sigma: 2}, 2).
		Observe("y", func(...[]float64) float64 { return 0 }, "alpha", "beta").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	params := m.Params()
	want := []ParamMeta{
		{Name: "alpha", Offset: 0, Size: 3},
		{Name: "beta", Offset: 3, Size: 2},
	}
	if len(params) != len(want) {
		t.Fatalf("Params() len = %d, want %d", len(params), len(want))
	}
	for i := range want {
		if params[i] != want[i] {
			t.Errorf("Params()[%d] = %+v, want %+v", i, params[i], want[i])
		}
	}
}
