// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package transform

import (
	"math"
	"testing"
)

func TestGeometricAdstockKnownValues(t *testing.T) {
	x := []float64{100, 0, 0, 0}
	got := GeometricAdstock(x, 0.5, 4, false)
	want := []float64{100, 50, 25, 12.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("out[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestGeometricAdstockNormalizedFixedPoint(t *testing.T) {
	// With normalized weights a long constant series converges to itself.
	x := make([]float64, 30)
	for i := range x {
		x[i] = 7
	}
	got := GeometricAdstock(x, 0.6, 8, true)
	if math.Abs(got[len(got)-1]-7) > 1e-9 {
		t.Errorf("steady state = %g, want 7", got[len(got)-1])
	}
}

func TestAdstockBoundaryDecay(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	for _, alpha := range []float64{0, 1, math.NaN(), -0.5, 1.5} {
		for _, normalize := range []bool{false, true} {
			got := GeometricAdstock(x, alpha, 4, normalize)
			for i, v := range got {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("alpha=%g normalize=%t out[%d] = %g", alpha, normalize, i, v)
				}
			}
		}
	}
}

func TestAdstockNonNegativeAndBounded(t *testing.T) {
	// Output is non-negative and never exceeds the geometric series bound
	// sum(x) * 1/(1-alpha) for any valid decay and non-negative spend.
	x := []float64{3, 0, 9, 1, 0, 0, 5, 2}
	var total float64
	for _, v := range x {
		total += v
	}

	for _, alpha := range []float64{0.01, 0.3, 0.5, 0.9, 0.99} {
		got := GeometricAdstock(x, alpha, 8, false)
		bound := total / (1 - alpha)
		for i, v := range got {
			if v < 0 {
				t.Errorf("alpha=%g out[%d] = %g, want >= 0", alpha, i, v)
			}
			if v > bound {
				t.Errorf("alpha=%g out[%d] = %g exceeds bound %g", alpha, i, v, bound)
			}
		}
	}
}

func TestAdstockZeroVarianceSeries(t *testing.T) {
	x := []float64{0, 0, 0, 0, 0}
	got := GeometricAdstock(x, 0.7, 5, true)
	for i, v := range got {
		if v != 0 {
			t.Errorf("out[%d] = %g, want 0", i, v)
		}
	}
}

func TestDelayedAdstockPeak(t *testing.T) {
	w := DelayedAdstockWeights(0.5, 3, 8, false)
	peak := 0
	for l, v := range w {
		if v > w[peak] {
			peak = l
		}
	}
	if peak != 3 {
		t.Errorf("peak lag = %d, want 3", peak)
	}
}

func TestWeibullAdstockWeightsNormalized(t *testing.T) {
	for _, kind := range []WeibullKind{WeibullPDF, WeibullCDF} {
		w := WeibullAdstockWeights(2, 1.5, 10, kind)
		var sum float64
		for _, v := range w {
			if v < 0 {
				t.Errorf("kind=%d negative weight %g", kind, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("kind=%d weights sum = %g, want 1", kind, sum)
		}
	}
}

func TestWeibullAdstockDegenerateParams(t *testing.T) {
	x := []float64{1, 2, 3}
	for _, tc := range [][2]float64{{0, 1}, {1, 0}, {0, 0}, {-1, 2}} {
		got := WeibullAdstock(x, tc[0], tc[1], 4, WeibullPDF)
		for i, v := range got {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("lam=%g k=%g out[%d] = %g", tc[0], tc[1], i, v)
			}
		}
	}
}

func TestSaturationMonotoneAndBounded(t *testing.T) {
	grid := []float64{0, 0.1, 0.5, 1, 2, 5, 10, 100, 1e4, 1e8}

	tests := []struct {
		name      string
		spec      SaturationSpec
		params    []float64
		asymptote float64
	}{
		{"logistic", SaturationSpec{Kind: SaturationLogistic}, []float64{0.5}, 1},
		{"michaelis-menten", SaturationSpec{Kind: SaturationMichaelisMenten}, []float64{3, 2}, 3},
		{"hill", SaturationSpec{Kind: SaturationHill}, []float64{2, 1.5, 4}, 2},
		{"tanh", SaturationSpec{Kind: SaturationTanh}, []float64{5, 0.5}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := math.Inf(-1)
			for _, x := range grid {
				y := tt.spec.ApplyScalar(x, tt.params)
				if math.IsNaN(y) {
					t.Fatalf("f(%g) is NaN", x)
				}
				if y < prev-1e-12 {
					t.Errorf("not monotone at x=%g: %g < %g", x, y, prev)
				}
				if y > tt.asymptote+1e-9 {
					t.Errorf("f(%g) = %g exceeds asymptote %g", x, y, tt.asymptote)
				}
				prev = y
			}
			if y := tt.spec.ApplyScalar(0, tt.params); y != 0 {
				t.Errorf("f(0) = %g, want 0", y)
			}
		})
	}
}

func TestSaturationStableNearZero(t *testing.T) {
	specs := []struct {
		spec   SaturationSpec
		params []float64
	}{
		{SaturationSpec{Kind: SaturationLogistic}, []float64{2}},
		{SaturationSpec{Kind: SaturationMichaelisMenten}, []float64{1, 1}},
		{SaturationSpec{Kind: SaturationHill}, []float64{1, 0.5, 1}},
		{SaturationSpec{Kind: SaturationTanh}, []float64{1, 1}},
	}
	for _, tt := range specs {
		for _, x := range []float64{0, 1e-300, 1e-15} {
			y := tt.spec.ApplyScalar(x, tt.params)
			if math.IsNaN(y) || math.IsInf(y, 0) || y < 0 {
				t.Errorf("%s f(%g) = %g", tt.spec.Kind, x, y)
			}
		}
	}
}

func TestChainOrderMatters(t *testing.T) {
	x := []float64{10, 0, 0, 0, 0}
	base := Chain{
		Adstock:    AdstockSpec{Kind: AdstockGeometric, LMax: 4, Normalize: false},
		Saturation: SaturationSpec{Kind: SaturationLogistic},
	}
	aParams := []float64{0.5}
	sParams := []float64{0.3}

	adFirst := base
	adFirst.Order = OrderAdstockFirst
	satFirst := base
	satFirst.Order = OrderSaturationFirst

	a := adFirst.Apply(x, aParams, sParams)
	s := satFirst.Apply(x, aParams, sParams)

	same := true
	for i := range a {
		if math.Abs(a[i]-s[i]) > 1e-12 {
			same = false
		}
	}
	if same {
		t.Error("adstock-first and saturation-first produced identical output for a saturating input")
	}
}

func TestChainValidate(t *testing.T) {
	valid := Chain{
		Adstock:    AdstockSpec{Kind: AdstockGeometric, LMax: 8, Normalize: true},
		Saturation: SaturationSpec{Kind: SaturationLogistic},
		Order:      OrderAdstockFirst,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid chain: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(Chain) Chain
	}{
		{"bad adstock kind", func(c Chain) Chain { c.Adstock.Kind = "exponential"; return c }},
		{"bad lmax", func(c Chain) Chain { c.Adstock.LMax = 0; return c }},
		{"bad saturation kind", func(c Chain) Chain { c.Saturation.Kind = "sigmoid"; return c }},
		{"bad order", func(c Chain) Chain { c.Order = "both"; return c }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mutate(valid).Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestSpecParamCounts(t *testing.T) {
	tests := []struct {
		names []string
		want  int
	}{
		{AdstockSpec{Kind: AdstockGeometric}.ParamNames(), 1},
		{AdstockSpec{Kind: AdstockDelayed}.ParamNames(), 2},
		{AdstockSpec{Kind: AdstockWeibullPDF}.ParamNames(), 2},
		{SaturationSpec{Kind: SaturationLogistic}.ParamNames(), 1},
		{SaturationSpec{Kind: SaturationMichaelisMenten}.ParamNames(), 2},
		{SaturationSpec{Kind: SaturationHill}.ParamNames(), 3},
		{SaturationSpec{Kind: SaturationTanh}.ParamNames(), 2},
	}
	for _, tt := range tests {
		if len(tt.names) != tt.want {
			t.Errorf("param names %v, want %d entries", tt.names, tt.want)
		}
	}
}

func TestSteadyStateGain(t *testing.T) {
	geo := AdstockSpec{Kind: AdstockGeometric, LMax: 12}

	// Unnormalized geometric windows amplify constant spend by the
	// truncated geometric sum; normalized windows have unit gain.
	alpha := 0.5
	var wantSum float64
	for l := 0; l < 12; l++ {
		wantSum += math.Pow(alpha, float64(l))
	}
	if got := geo.SteadyStateGain([]float64{alpha}); math.Abs(got-wantSum) > 1e-12 {
		t.Errorf("SteadyStateGain(alpha=%g) = %g, want %g", alpha, got, wantSum)
	}

	norm := AdstockSpec{Kind: AdstockGeometric, LMax: 12, Normalize: true}
	if got := norm.SteadyStateGain([]float64{alpha}); math.Abs(got-1) > 1e-12 {
		t.Errorf("normalized SteadyStateGain = %g, want 1", got)
	}
	weib := AdstockSpec{Kind: AdstockWeibullPDF, LMax: 12}
	if got := weib.SteadyStateGain([]float64{2, 1.5}); math.Abs(got-1) > 1e-12 {
		t.Errorf("weibull SteadyStateGain = %g, want 1 (always normalized)", got)
	}
}

func TestChainSteadyStateMatchesConstantSeries(t *testing.T) {
	chain := Chain{
		Adstock:    AdstockSpec{Kind: AdstockGeometric, LMax: 4},
		Saturation: SaturationSpec{Kind: SaturationLogistic},
		Order:      OrderAdstockFirst,
	}
	ad := []float64{0.6}
	sat := []float64{0.8}

	x := make([]float64, 16)
	for i := range x {
		x[i] = 2.5
	}
	series := chain.Apply(x, ad, sat)
	want := series[len(series)-1]
	if got := chain.SteadyState(2.5, ad, sat); math.Abs(got-want) > 1e-12 {
		t.Errorf("SteadyState(2.5) = %g, want %g (converged series tail)", got, want)
	}

	chain.Order = OrderSaturationFirst
	series = chain.Apply(x, ad, sat)
	want = series[len(series)-1]
	if got := chain.SteadyState(2.5, ad, sat); math.Abs(got-want) > 1e-12 {
		t.Errorf("saturation-first SteadyState(2.5) = %g, want %g", got, want)
	}
}
