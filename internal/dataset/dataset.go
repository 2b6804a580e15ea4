// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package dataset loads and validates the observation tables that models
// are fit against. A Table is a columnar, immutable frame of float64
// series over a shared date axis; loaders exist for in-memory columns,
// CSV files, and DuckDB queries.
//
// Validation is strict and front-loaded: a Table that passes the checks
// here never produces shape or domain surprises inside a likelihood.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ValidationError reports a data problem tied to a specific column.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset: column %q: %s", e.Column, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(column, format string, args ...any) *ValidationError {
	return &ValidationError{Column: column, Reason: fmt.Sprintf(format, args...)}
}

// Table is an immutable columnar frame: named float64 series of equal
// length over an optional date axis. Accessors return copies, so a Table
// can be shared across concurrent fits.
type Table struct {
	names []string
	cols  map[string][]float64
	dates []time.Time
	rows  int
}

// FromColumns builds a Table from named series. All series must share
// one length; dates may be nil for models without a time axis, otherwise
// it must match too.
func FromColumns(dates []time.Time, cols map[string][]float64) (*Table, error) {
	if len(cols) == 0 {
		return nil, NewValidationError("", "no columns provided")
	}

	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := len(cols[names[0]])
	if rows == 0 {
		return nil, NewValidationError(names[0], "empty column")
	}
	for _, name := range names {
		if len(cols[name]) != rows {
			return nil, NewValidationError(name,
				"length %d does not match %d rows", len(cols[name]), rows)
		}
	}
	if dates != nil && len(dates) != rows {
		return nil, NewValidationError("date",
			"date axis length %d does not match %d rows", len(dates), rows)
	}

	copied := make(map[string][]float64, len(cols))
	for name, col := range cols {
		c := make([]float64, rows)
		copy(c, col)
		copied[name] = c
	}
	var dc []time.Time
	if dates != nil {
		dc = make([]time.Time, rows)
		copy(dc, dates)
	}
	return &Table{names: names, cols: copied, dates: dc, rows: rows}, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// Names returns the column names in sorted order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns a copy of the named series.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.cols[name]
	if !ok {
		return nil, NewValidationError(name, "column not found")
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}

// Dates returns a copy of the date axis, or nil when the table has none.
func (t *Table) Dates() []time.Time {
	if t.dates == nil {
		return nil
	}
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// RequireColumns fails if any named column is absent.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return NewValidationError(name, "required column not found")
		}
	}
	return nil
}

// CheckFinite fails if any named column holds NaN or infinities.
func (t *Table) CheckFinite(names ...string) error {
	for _, name := range names {
		col, ok := t.cols[name]
		if !ok {
			return NewValidationError(name, "column not found")
		}
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewValidationError(name, "non-finite value at row %d", i)
			}
		}
	}
	return nil
}

// CheckNonNegative fails on negative values, e.g. in spend columns.
func (t *Table) CheckNonNegative(names ...string) error {
	for _, name := range names {
		col, ok := t.cols[name]
		if !ok {
			return NewValidationError(name, "column not found")
		}
		for i, v := range col {
			if v < 0 {
				return NewValidationError(name, "negative value %g at row %d", v, i)
			}
		}
	}
	return nil
}
