// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package supervisor runs the server's long-lived components under a
// suture v4 supervision tree: crashed services restart with decaying
// failure backoff, one-shot jobs run to completion exactly once.
package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/logging"
)

// Config holds the supervision parameters. Zero values fall back to
// suture's production defaults.
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultConfig returns suture's production defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// New creates a supervisor whose lifecycle events land in the
// structured log.
func New(name string, cfg Config) *suture.Supervisor {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return suture.New(name, suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})
}

// logEvent forwards supervision events to zerolog at a severity matching
// the event type.
func logEvent(e suture.Event) {
	log := logging.Logger().With().Str("component", "supervisor").Logger()
	switch e.Type() {
	case suture.EventTypeServiceTerminate, suture.EventTypeServicePanic:
		log.Warn().Fields(e.Map()).Msg(e.String())
	case suture.EventTypeBackoff:
		log.Error().Fields(e.Map()).Msg(e.String())
	default:
		log.Info().Fields(e.Map()).Msg(e.String())
	}
}

// HTTPService supervises an http.Server: it serves until the context is
// canceled, then shuts down gracefully within the timeout.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := s.ShutdownTimeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// Job wraps a one-shot task as a supervised service. A successful run,
// or a terminal configuration error, removes the job from the tree;
// transient failures restart it with backoff.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Serve implements suture.Service.
func (j *Job) Serve(ctx context.Context) error {
	log := logging.Logger()
	err := j.Run(ctx)
	if err == nil {
		log.Info().
			Str("component", "supervisor").
			Str("job", j.Name).
			Msg("job completed")
		return suture.ErrDoNotRestart
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var cerr *graph.ConfigurationError
	if errors.As(err, &cerr) {
		// Restarting cannot fix a bad configuration.
		log.Error().
			Err(err).
			Str("component", "supervisor").
			Str("job", j.Name).
			Msg("job failed terminally")
		return suture.ErrDoNotRestart
	}
	log.Warn().
		Err(err).
		Str("component", "supervisor").
		Str("job", j.Name).
		Msg("job failed, will restart")
	return err
}
