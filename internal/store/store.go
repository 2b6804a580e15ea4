// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package store persists fitted models in BadgerDB so fits survive
// restarts and can be served read-only by the API. Records carry an
// opaque JSON payload; the store does not interpret model internals.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/metrics"
)

// ErrModelNotFound is returned when no record exists for an ID.
var ErrModelNotFound = errors.New("store: model not found")

const modelKeyPrefix = "model:"

// Record is one persisted fitted model.
type Record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	RunID     string          `json:"run_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// ModelStore is a BadgerDB-backed fitted-model repository. Safe for
// concurrent use.
type ModelStore struct {
	db *badger.DB
}

// Open opens (or creates) a model store at the given directory.
func Open(path string) (*ModelStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	log := logging.Logger()
	log.Debug().
		Str("component", "store").
		Str("path", path).
		Msg("model store opened")
	return &ModelStore{db: db}, nil
}

// Close releases the underlying database.
func (s *ModelStore) Close() error {
	return s.db.Close()
}

func modelKey(id string) []byte {
	return []byte(modelKeyPrefix + id)
}

func observe(op string, err error) error {
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, ErrModelNotFound) {
			status = "not_found"
		}
	}
	metrics.StoreOperations.WithLabelValues(op, status).Inc()
	return err
}

// Put stores a record, assigning an ID and creation time when absent.
// The record is updated in place with the assigned fields.
func (s *ModelStore) Put(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return observe("put", fmt.Errorf("store: marshal record: %w", err))
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(rec.ID), data)
	})
	if err != nil {
		return observe("put", fmt.Errorf("store: put %s: %w", rec.ID, err))
	}
	return observe("put", nil)
}

// Get retrieves a record by ID.
func (s *ModelStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrModelNotFound
		}
		if err != nil {
			return fmt.Errorf("store: get %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, observe("get", err)
	}
	observe("get", nil)
	return &rec, nil
}

// List returns the metadata of every stored model, payloads omitted.
func (s *ModelStore) List(ctx context.Context) ([]*Record, error) {
	var out []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(modelKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("store: unmarshal record: %w", err)
				}
				rec.Payload = nil
				out = append(out, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, observe("list", err)
	}
	observe("list", nil)
	return out, nil
}

// Delete removes a record by ID.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(modelKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrModelNotFound
		} else if err != nil {
			return fmt.Errorf("store: delete %s: %w", id, err)
		}
		return txn.Delete(modelKey(id))
	})
	return observe("delete", err)
}
