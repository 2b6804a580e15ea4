// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dist

import "fmt"

// Spec is a configuration-level description of a prior: a distribution
// name plus its keyword parameters. It mirrors the {dist, kwargs}
// convention used in model config files, so priors can be overridden
// without code changes.
type Spec struct {
	Dist   string             `json:"dist" koanf:"dist"`
	Params map[string]float64 `json:"params" koanf:"params"`
}

// param fetches a keyword parameter, falling back to def when absent.
func (s Spec) param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// require fetches a mandatory keyword parameter.
func (s Spec) require(name string) (float64, error) {
	v, ok := s.Params[name]
	if !ok {
		return 0, fmt.Errorf("prior %q: missing parameter %q", s.Dist, name)
	}
	return v, nil
}

// Resolve builds the distribution described by the spec. Unknown names
// and invalid parameters are errors; they surface as configuration
// errors before any sampling starts.
func (s Spec) Resolve() (Dist, error) {
	switch s.Dist {
	case "Normal":
		sigma := s.param("sigma", 1)
		if sigma <= 0 {
			return nil, fmt.Errorf("prior Normal: sigma must be positive, got %g", sigma)
		}
		return Normal{Mu: s.param("mu", 0), Sigma: sigma}, nil

	case "HalfNormal":
		sigma := s.param("sigma", 1)
		if sigma <= 0 {
			return nil, fmt.Errorf("prior HalfNormal: sigma must be positive, got %g", sigma)
		}
		return HalfNormal{Sigma: sigma}, nil

	case "HalfCauchy":
		beta := s.param("beta", 1)
		if beta <= 0 {
			return nil, fmt.Errorf("prior HalfCauchy: beta must be positive, got %g", beta)
		}
		return HalfCauchy{Beta: beta}, nil

	case "LogNormal":
		sigma := s.param("sigma", 1)
		if sigma <= 0 {
			return nil, fmt.Errorf("prior LogNormal: sigma must be positive, got %g", sigma)
		}
		return LogNormal{Mu: s.param("mu", 0), Sigma: sigma}, nil

	case "Beta":
		alpha, err := s.require("alpha")
		if err != nil {
			return nil, err
		}
		beta, err := s.require("beta")
		if err != nil {
			return nil, err
		}
		if alpha <= 0 || beta <= 0 {
			return nil, fmt.Errorf("prior Beta: alpha and beta must be positive, got alpha=%g beta=%g", alpha, beta)
		}
		return Beta{Alpha: alpha, BetaP: beta}, nil

	case "Gamma":
		alpha, err := s.require("alpha")
		if err != nil {
			return nil, err
		}
		rate, err := s.require("beta")
		if err != nil {
			return nil, err
		}
		if alpha <= 0 || rate <= 0 {
			return nil, fmt.Errorf("prior Gamma: alpha and beta must be positive, got alpha=%g beta=%g", alpha, rate)
		}
		return Gamma{Alpha: alpha, Rate: rate}, nil

	case "Uniform":
		lower, err := s.require("lower")
		if err != nil {
			return nil, err
		}
		upper, err := s.require("upper")
		if err != nil {
			return nil, err
		}
		if upper <= lower {
			return nil, fmt.Errorf("prior Uniform: upper must exceed lower, got lower=%g upper=%g", lower, upper)
		}
		return Uniform{Lower: lower, Upper: upper}, nil

	case "StudentT":
		nu := s.param("nu", 3)
		sigma := s.param("sigma", 1)
		if nu <= 0 || sigma <= 0 {
			return nil, fmt.Errorf("prior StudentT: nu and sigma must be positive, got nu=%g sigma=%g", nu, sigma)
		}
		return StudentT{Nu: nu, Mu: s.param("mu", 0), Sigma: sigma}, nil

	default:
		return nil, fmt.Errorf("unknown prior distribution %q", s.Dist)
	}
}
