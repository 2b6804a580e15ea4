// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package mathx provides the special functions needed by the CLV
// likelihoods: log-beta, log-sum-exp arithmetic, and the Gaussian
// hypergeometric function 2F1.
//
// Neither gonum nor any other library in wide Go use implements 2F1, so it
// is computed here by power series with an Euler transformation for
// arguments near the radius of convergence. The CLV likelihoods only ever
// evaluate 2F1 at z in [0, 1), which keeps the series well behaved.
package mathx

import (
	"fmt"
	"math"
)

const (
	hyp2f1Tol     = 1e-12
	hyp2f1MaxIter = 20000

	// eulerThreshold is the z above which the plain series converges too
	// slowly and the Euler transformation is applied instead.
	eulerThreshold = 0.9
)

// LogGamma returns the natural log of the absolute value of Gamma(x).
func LogGamma(x float64) float64 {
	lg, _ := math.Lgamma(x)
	return lg
}

// LogBeta returns log(B(a, b)) for a, b > 0.
func LogBeta(a, b float64) float64 {
	return LogGamma(a) + LogGamma(b) - LogGamma(a+b)
}

// LogSumExp returns log(exp(a) + exp(b)) without overflow.
func LogSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	m := math.Max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

// LogDiffExp returns log(exp(a) - exp(b)) for a >= b.
// Returns -Inf when a == b.
func LogDiffExp(a, b float64) float64 {
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		return math.NaN()
	}
	if a == b {
		return math.Inf(-1)
	}
	return a + math.Log1p(-math.Exp(b-a))
}

// Hyp2F1 computes the Gaussian hypergeometric function 2F1(a, b; c; z)
// for z in [0, 1). For z above eulerThreshold the Euler transformation
//
//	2F1(a, b; c; z) = (1-z)^(c-a-b) * 2F1(c-a, c-b; c; z)
//
// is used, which converges quickly exactly where the plain series does not.
func Hyp2F1(a, b, c, z float64) (float64, error) {
	if z < 0 || z >= 1 {
		return math.NaN(), fmt.Errorf("hyp2f1: z=%g outside [0,1)", z)
	}
	if c <= 0 && c == math.Trunc(c) {
		return math.NaN(), fmt.Errorf("hyp2f1: c=%g is a non-positive integer", c)
	}
	if z == 0 {
		return 1, nil
	}
	if z > eulerThreshold {
		s, err := hyp2f1Series(c-a, c-b, c, z)
		if err != nil {
			return math.NaN(), err
		}
		return math.Pow(1-z, c-a-b) * s, nil
	}
	return hyp2f1Series(a, b, c, z)
}

// hyp2f1Series evaluates the defining power series.
func hyp2f1Series(a, b, c, z float64) (float64, error) {
	sum := 1.0
	term := 1.0
	for n := 0; n < hyp2f1MaxIter; n++ {
		fn := float64(n)
		term *= (a + fn) * (b + fn) / ((c + fn) * (fn + 1)) * z
		sum += term
		if math.Abs(term) < hyp2f1Tol*math.Abs(sum) {
			return sum, nil
		}
	}
	return math.NaN(), fmt.Errorf("hyp2f1: series did not converge for a=%g b=%g c=%g z=%g", a, b, c, z)
}

// LogAddExpSlice returns log(sum(exp(xs))) without overflow.
func LogAddExpSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	m := math.Inf(-1)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	if math.IsInf(m, -1) {
		return m
	}
	var s float64
	for _, x := range xs {
		s += math.Exp(x - m)
	}
	return m + math.Log(s)
}
