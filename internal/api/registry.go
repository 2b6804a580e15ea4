// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/mmm"
	"github.com/quantmix/bayesmix/internal/store"
)

// ModelKindMMM is the store record kind the registry can deserialize.
const ModelKindMMM = "mmm"

// Registry resolves store records into live fitted models, caching the
// deserialized form. Rebuilding a model graph from its payload is
// expensive relative to a request, so each record deserializes once.
type Registry struct {
	store *store.ModelStore

	mu     sync.RWMutex
	models map[string]*mmm.FittedModel
}

// NewRegistry creates a registry over the given store.
func NewRegistry(s *store.ModelStore) *Registry {
	return &Registry{
		store:  s,
		models: make(map[string]*mmm.FittedModel),
	}
}

// Resolve returns the fitted model for a record ID, loading and caching
// it on first access.
func (r *Registry) Resolve(ctx context.Context, id string) (*mmm.FittedModel, error) {
	r.mu.RLock()
	fm, ok := r.models[id]
	r.mu.RUnlock()
	if ok {
		return fm, nil
	}

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind != ModelKindMMM {
		return nil, fmt.Errorf("api: record %s has kind %q, not servable", id, rec.Kind)
	}
	fm, err = mmm.UnmarshalFittedModel(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("api: deserialize model %s: %w", id, err)
	}

	r.mu.Lock()
	r.models[id] = fm
	r.mu.Unlock()

	log := logging.Ctx(ctx)
	log.Debug().
		Str("component", "api").
		Str("model_id", id).
		Int("draws", fm.Samples.TotalDraws()).
		Msg("model loaded into registry")
	return fm, nil
}
