// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package mmm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/posterior"
	"github.com/quantmix/bayesmix/internal/sampler"
)

// FittedModel bundles a fitted MMM: its configuration, training data,
// graph, and posterior draws. All methods are read-only and safe for
// concurrent use.
type FittedModel struct {
	Config  Config
	Samples *posterior.SampleSet

	model *graph.Model
	table *dataset.Table
}

// Fit builds the model graph and runs inference. A *ConvergenceWarning
// from the driver passes through alongside the fitted model; any other
// error is fatal and returns a nil model.
func Fit(ctx context.Context, table *dataset.Table, cfg Config) (*FittedModel, error) {
	return fit(ctx, table, cfg, func(ctx context.Context, m *graph.Model) (*posterior.SampleSet, error) {
		return sampler.Fit(ctx, m, cfg.Sampler)
	})
}

// FitWith is Fit with an explicit inference engine instead of the kind
// configured in cfg.Sampler. Graph construction and validation still run
// first; the engine is only invoked on a well-formed model.
func FitWith(ctx context.Context, table *dataset.Table, cfg Config, engine sampler.Engine) (*FittedModel, error) {
	return fit(ctx, table, cfg, func(ctx context.Context, m *graph.Model) (*posterior.SampleSet, error) {
		return sampler.FitWith(ctx, m, cfg.Sampler, engine)
	})
}

func fit(ctx context.Context, table *dataset.Table, cfg Config, run func(context.Context, *graph.Model) (*posterior.SampleSet, error)) (*FittedModel, error) {
	model, err := Build(table, cfg)
	if err != nil {
		return nil, err
	}

	set, err := run(ctx, model)
	if err != nil {
		var warn *sampler.ConvergenceWarning
		if !errors.As(err, &warn) {
			return nil, err
		}
	}

	fm := &FittedModel{Config: cfg, Samples: set, model: model, table: table}
	log := logging.Ctx(ctx)
	log.Info().
		Str("component", "mmm").
		Str("run_id", set.RunID).
		Int("channels", len(cfg.ChannelColumns)).
		Int("draws", set.TotalDraws()).
		Msg("model fitted")
	return fm, err
}

// Summary returns per-parameter posterior statistics with equal-tailed
// credible intervals at the given probability.
func (f *FittedModel) Summary(prob float64) ([]posterior.Summary, error) {
	return posterior.Summarize(f.Samples, prob)
}

// paramBlock extracts a named parameter block from one constrained draw.
func (f *FittedModel) paramBlock(draw []float64, name string) ([]float64, error) {
	for _, p := range f.Samples.Params {
		if p.Name == name {
			return draw[p.Offset : p.Offset+p.Size], nil
		}
	}
	return nil, fmt.Errorf("mmm: parameter %q not in sample set", name)
}

func (f *FittedModel) channelIndex(channel string) (int, error) {
	for i, ch := range f.Config.ChannelColumns {
		if ch == channel {
			return i, nil
		}
	}
	return 0, graph.NewConfigurationError("channel", "unknown channel %q", channel)
}

// ChannelContribution returns the posterior contribution series of one
// channel: per-period mean and credible band computed across every draw.
func (f *FittedModel) ChannelContribution(channel string, prob float64) (*posterior.IntervalSeries, error) {
	if _, err := f.channelIndex(channel); err != nil {
		return nil, err
	}
	node := contributionNode(channel)

	values := make([][]float64, 0, f.Samples.TotalDraws())
	var evalErr error
	f.Samples.ForEachDraw(func(draw []float64) {
		if evalErr != nil {
			return
		}
		v, err := f.model.ValueOf(f.model.Unconstrain(draw), node)
		if err != nil {
			evalErr = err
			return
		}
		values = append(values, v)
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return posterior.SummarizeSeries(values, prob)
}

// ResponseCurve evaluates the posterior steady-state spend response of a
// channel on a grid of hypothetical spends. At a constant spend level the
// carryover window reduces to its weight-sum gain (one for normalized
// windows), so each grid point is the coefficient-scaled transform chain
// evaluated per draw.
func (f *FittedModel) ResponseCurve(channel string, grid []float64, prob float64) (*posterior.IntervalSeries, error) {
	i, err := f.channelIndex(channel)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, graph.NewConfigurationError("grid", "empty spend grid")
	}

	chain := f.Config.chain()
	adNames := f.Config.Adstock.ParamNames()
	satNames := f.Config.Saturation.ParamNames()
	values := make([][]float64, 0, f.Samples.TotalDraws())
	var blockErr error
	f.Samples.ForEachDraw(func(draw []float64) {
		if blockErr != nil {
			return
		}
		ad := make([]float64, len(adNames))
		for k, p := range adNames {
			block, err := f.paramBlock(draw, "adstock_"+p)
			if err != nil {
				blockErr = err
				return
			}
			ad[k] = block[i]
		}
		sat := make([]float64, len(satNames))
		for k, p := range satNames {
			block, err := f.paramBlock(draw, "saturation_"+p)
			if err != nil {
				blockErr = err
				return
			}
			sat[k] = block[i]
		}
		coefs, err := f.paramBlock(draw, "channel_coef")
		if err != nil {
			blockErr = err
			return
		}

		row := make([]float64, len(grid))
		for g, x := range grid {
			row[g] = coefs[i] * chain.SteadyState(x, ad, sat)
		}
		values = append(values, row)
	})
	if blockErr != nil {
		return nil, blockErr
	}
	return posterior.SummarizeSeries(values, prob)
}

// PredictOutcome computes the posterior predictive mean series on new
// data with the fitted parameters, per-period mean and credible band.
func (f *FittedModel) PredictOutcome(newTable *dataset.Table, prob float64) (*posterior.IntervalSeries, error) {
	if err := newTable.RequireColumns(f.Config.ChannelColumns...); err != nil {
		return nil, graph.NewConfigurationError("channel_columns", "%v", err)
	}
	if err := newTable.RequireColumns(f.Config.ControlColumns...); err != nil {
		return nil, graph.NewConfigurationError("control_columns", "%v", err)
	}
	if f.Config.YearlySeasonality > 0 && newTable.Dates() == nil {
		return nil, graph.NewConfigurationError("yearly_seasonality", "requires a dated table")
	}

	values := make([][]float64, 0, f.Samples.TotalDraws())
	var predErr error
	f.Samples.ForEachDraw(func(draw []float64) {
		if predErr != nil {
			return
		}
		mu, err := f.predictMu(draw, newTable)
		if err != nil {
			predErr = err
			return
		}
		values = append(values, mu)
	})
	if predErr != nil {
		return nil, predErr
	}
	return posterior.SummarizeSeries(values, prob)
}

// predictMu replays the linear predictor for one draw on an arbitrary
// table, mirroring the graph's mu node.
func (f *FittedModel) predictMu(draw []float64, table *dataset.Table) ([]float64, error) {
	cfg := f.Config
	chain := cfg.chain()
	adNames := cfg.Adstock.ParamNames()
	satNames := cfg.Saturation.ParamNames()

	coefs, err := f.paramBlock(draw, "channel_coef")
	if err != nil {
		return nil, err
	}
	interceptBlock, err := f.paramBlock(draw, "intercept")
	if err != nil {
		return nil, err
	}

	mu := make([]float64, table.NumRows())
	for t := range mu {
		mu[t] = interceptBlock[0]
	}

	for i, ch := range cfg.ChannelColumns {
		spend, err := table.Column(ch)
		if err != nil {
			return nil, err
		}
		ad := make([]float64, len(adNames))
		for k, p := range adNames {
			block, err := f.paramBlock(draw, "adstock_"+p)
			if err != nil {
				return nil, err
			}
			ad[k] = block[i]
		}
		sat := make([]float64, len(satNames))
		for k, p := range satNames {
			block, err := f.paramBlock(draw, "saturation_"+p)
			if err != nil {
				return nil, err
			}
			sat[k] = block[i]
		}
		series := chain.Apply(spend, ad, sat)
		for t := range mu {
			mu[t] += coefs[i] * series[t]
		}
	}

	if len(cfg.ControlColumns) > 0 {
		gamma, err := f.paramBlock(draw, "control_coef")
		if err != nil {
			return nil, err
		}
		for j, name := range cfg.ControlColumns {
			col, err := table.Column(name)
			if err != nil {
				return nil, err
			}
			for t := range mu {
				mu[t] += gamma[j] * col[t]
			}
		}
	}
	if cfg.YearlySeasonality > 0 {
		coefsF, err := f.paramBlock(draw, "fourier_coef")
		if err != nil {
			return nil, err
		}
		for j, feat := range fourierFeatures(table.Dates(), cfg.YearlySeasonality) {
			for t := range mu {
				mu[t] += coefsF[j] * feat[t]
			}
		}
	}
	return mu, nil
}

// fittedModelJSON is the persisted form: configuration, draws, and the
// training columns needed to rebuild the graph on load.
type fittedModelJSON struct {
	Config  Config               `json:"config"`
	Samples *posterior.SampleSet `json:"samples"`
	Columns map[string][]float64 `json:"columns"`
	Dates   []time.Time          `json:"dates,omitempty"`
}

// MarshalJSON serializes the fitted model.
func (f *FittedModel) MarshalJSON() ([]byte, error) {
	cols := make(map[string][]float64, len(f.table.Names()))
	for _, name := range f.table.Names() {
		col, err := f.table.Column(name)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}
	return json.Marshal(fittedModelJSON{
		Config:  f.Config,
		Samples: f.Samples,
		Columns: cols,
		Dates:   f.table.Dates(),
	})
}

// UnmarshalFittedModel reconstructs a fitted model from its serialized
// form, rebuilding the training table and graph.
func UnmarshalFittedModel(data []byte) (*FittedModel, error) {
	var raw fittedModelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mmm: unmarshal fitted model: %w", err)
	}
	table, err := dataset.FromColumns(raw.Dates, raw.Columns)
	if err != nil {
		return nil, err
	}
	model, err := Build(table, raw.Config)
	if err != nil {
		return nil, err
	}
	return &FittedModel{
		Config:  raw.Config,
		Samples: raw.Samples,
		model:   model,
		table:   table,
	}, nil
}

// SaveJSON writes the fitted model to a file.
func (f *FittedModel) SaveJSON(path string) error {
	data, err := f.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadJSON reads a fitted model from a file.
func LoadJSON(path string) (*FittedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mmm: read %s: %w", path, err)
	}
	return UnmarshalFittedModel(data)
}
