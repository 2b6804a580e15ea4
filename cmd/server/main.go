// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Command server fits the configured marketing mix model against the
// configured dataset, persists the result, and serves it read-only over
// HTTP. The fit runs as a supervised one-shot job so the API is
// available while sampling is still in progress.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantmix/bayesmix/internal/api"
	"github.com/quantmix/bayesmix/internal/config"
	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/mmm"
	"github.com/quantmix/bayesmix/internal/sampler"
	"github.com/quantmix/bayesmix/internal/store"
	"github.com/quantmix/bayesmix/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		log := logging.Logger()
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging.ToLogging())

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(st).Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	sup := supervisor.New("bayesmix", supervisor.DefaultConfig())
	sup.Add(&supervisor.HTTPService{Server: httpServer})
	sup.Add(&supervisor.Job{
		Name: "fit-model",
		Run: func(ctx context.Context) error {
			return fitAndStore(ctx, cfg, st)
		},
	})

	log := logging.Logger()
	log.Info().
		Str("component", "server").
		Str("addr", httpServer.Addr).
		Str("store", cfg.Store.Path).
		Msg("starting")

	err = sup.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// fitAndStore loads the dataset, fits the configured model, and persists
// the fitted result for the API to serve.
func fitAndStore(ctx context.Context, cfg *config.Config, st *store.ModelStore) error {
	ctx = logging.ContextWithNewRunID(ctx)

	table, err := loadTable(ctx, cfg.Dataset)
	if err != nil {
		return err
	}
	if err := cfg.Model.Validate(table); err != nil {
		return err
	}

	fm, err := mmm.Fit(ctx, table, cfg.Model)
	if fm == nil {
		return err
	}
	var warn *sampler.ConvergenceWarning
	if errors.As(err, &warn) {
		log := logging.Ctx(ctx)
		log.Warn().
			Str("component", "server").
			Str("run_id", fm.Samples.RunID).
			Msg(warn.Error())
	}

	payload, err := fm.MarshalJSON()
	if err != nil {
		return err
	}
	rec := &store.Record{
		Name:    "startup-fit",
		Kind:    api.ModelKindMMM,
		RunID:   fm.Samples.RunID,
		Payload: payload,
	}
	if err := st.Put(ctx, rec); err != nil {
		return err
	}
	log := logging.Ctx(ctx)
	log.Info().
		Str("component", "server").
		Str("model_id", rec.ID).
		Msg("fitted model stored")
	return nil
}

// loadTable reads observations from the configured source.
func loadTable(ctx context.Context, cfg config.DatasetConfig) (*dataset.Table, error) {
	switch cfg.Source {
	case config.SourceCSV:
		layout := cfg.DateLayout
		if layout == "" {
			layout = dataset.DefaultDateLayout
		}
		return dataset.LoadCSV(cfg.Path, cfg.DateColumn, layout)
	case config.SourceDuckDB:
		db, err := dataset.OpenDuckDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return dataset.LoadQuery(ctx, db, cfg.Query, cfg.DateColumn)
	default:
		return nil, fmt.Errorf("server: unknown dataset source %q", cfg.Source)
	}
}
