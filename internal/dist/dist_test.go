// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dist

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestLogProbOutsideSupport(t *testing.T) {
	tests := []struct {
		name string
		d    Dist
		x    float64
	}{
		{"half normal negative", HalfNormal{Sigma: 1}, -0.5},
		{"half cauchy negative", HalfCauchy{Beta: 1}, -1},
		{"log normal zero", LogNormal{Mu: 0, Sigma: 1}, 0},
		{"beta above one", Beta{Alpha: 2, BetaP: 2}, 1.5},
		{"beta at boundary", Beta{Alpha: 2, BetaP: 2}, 0},
		{"gamma negative", Gamma{Alpha: 1, Rate: 1}, -2},
		{"uniform outside", Uniform{Lower: 0, Upper: 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.LogProb(tt.x)
			if !math.IsInf(got, -1) {
				t.Errorf("LogProb(%g) = %g, want -Inf", tt.x, got)
			}
		})
	}
}

func TestHalfNormalLogProb(t *testing.T) {
	// Density of HalfNormal(sigma=1) at 0 is sqrt(2/pi).
	want := math.Log(math.Sqrt(2 / math.Pi))
	got := HalfNormal{Sigma: 1}.LogProb(0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("HalfNormal.LogProb(0) = %g, want %g", got, want)
	}
}

func TestSamplesInsideSupport(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	tests := []struct {
		name string
		d    Dist
	}{
		{"normal", Normal{Mu: 0, Sigma: 1}},
		{"half normal", HalfNormal{Sigma: 2}},
		{"half cauchy", HalfCauchy{Beta: 1}},
		{"log normal", LogNormal{Mu: 0, Sigma: 0.5}},
		{"beta", Beta{Alpha: 2, BetaP: 3}},
		{"gamma", Gamma{Alpha: 2, Rate: 1}},
		{"uniform", Uniform{Lower: -1, Upper: 4}},
		{"student t", StudentT{Nu: 4, Mu: 0, Sigma: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper := tt.d.Bounds()
			for i := 0; i < 200; i++ {
				x := tt.d.Sample(rng)
				if math.IsNaN(x) {
					t.Fatalf("sample %d is NaN", i)
				}
				if x < lower || x > upper {
					t.Fatalf("sample %g outside [%g, %g]", x, lower, upper)
				}
				if lp := tt.d.LogProb(x); math.IsNaN(lp) {
					t.Fatalf("LogProb(%g) is NaN", x)
				}
			}
		})
	}
}

func TestBijectorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		b    Bijector
		us   []float64
	}{
		{"identity", Identity{}, []float64{-3, 0, 5}},
		{"exp", Exp{}, []float64{-4, 0, 2}},
		{"logit", Logit{}, []float64{-6, 0, 6}},
		{"scaled logit", ScaledLogit{Lower: 2, Upper: 10}, []float64{-3, 0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, u := range tt.us {
				x := tt.b.Forward(u)
				back := tt.b.Inverse(x)
				if math.Abs(back-u) > 1e-9 {
					t.Errorf("Inverse(Forward(%g)) = %g", u, back)
				}
				if ld := tt.b.LogDetJacobian(u); math.IsNaN(ld) {
					t.Errorf("LogDetJacobian(%g) is NaN", u)
				}
			}
		})
	}
}

func TestBijectorLogDetMatchesNumericDerivative(t *testing.T) {
	const h = 1e-6
	bs := []Bijector{Exp{}, Logit{}, ScaledLogit{Lower: -1, Upper: 3}}
	for _, b := range bs {
		for _, u := range []float64{-2, -0.5, 0, 0.5, 2} {
			num := (b.Forward(u+h) - b.Forward(u-h)) / (2 * h)
			want := math.Log(math.Abs(num))
			got := b.LogDetJacobian(u)
			if math.Abs(got-want) > 1e-4 {
				t.Errorf("%T LogDetJacobian(%g) = %g, numeric %g", b, u, got, want)
			}
		}
	}
}

func TestBijectorFor(t *testing.T) {
	tests := []struct {
		d    Dist
		want Bijector
	}{
		{Normal{Mu: 0, Sigma: 1}, Identity{}},
		{HalfNormal{Sigma: 1}, Exp{}},
		{Gamma{Alpha: 1, Rate: 1}, Exp{}},
		{Beta{Alpha: 1, BetaP: 1}, Logit{}},
		{Uniform{Lower: 0, Upper: 2}, ScaledLogit{Lower: 0, Upper: 2}},
	}

	for _, tt := range tests {
		if got := BijectorFor(tt.d); got != tt.want {
			t.Errorf("BijectorFor(%T) = %T, want %T", tt.d, got, tt.want)
		}
	}
}

func TestSpecResolve(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"normal defaults", Spec{Dist: "Normal"}, false},
		{"half normal", Spec{Dist: "HalfNormal", Params: map[string]float64{"sigma": 2}}, false},
		{"beta ok", Spec{Dist: "Beta", Params: map[string]float64{"alpha": 1, "beta": 3}}, false},
		{"beta missing param", Spec{Dist: "Beta", Params: map[string]float64{"alpha": 1}}, true},
		{"beta negative param", Spec{Dist: "Beta", Params: map[string]float64{"alpha": -1, "beta": 3}}, true},
		{"gamma ok", Spec{Dist: "Gamma", Params: map[string]float64{"alpha": 1, "beta": 1}}, false},
		{"uniform inverted", Spec{Dist: "Uniform", Params: map[string]float64{"lower": 2, "upper": 1}}, true},
		{"negative sigma", Spec{Dist: "Normal", Params: map[string]float64{"sigma": -1}}, true},
		{"unknown dist", Spec{Dist: "Wishart"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.spec.Resolve()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Resolve() = %v, want error", d)
				}
				return
			}
			if err != nil {
				t.Errorf("Resolve() error: %v", err)
			}
		})
	}
}
