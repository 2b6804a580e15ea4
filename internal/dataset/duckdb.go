// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/metrics"
)

// OpenDuckDB opens a DuckDB database. An empty path opens an in-memory
// database, which is what most analytical extracts use: attach the source
// files inside the query itself.
func OpenDuckDB(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open duckdb %s: %w", path, err)
	}
	return db, nil
}

// LoadQuery runs an analytical query and materializes the result as a
// Table. The dateColumn, when non-empty, must come back as a timestamp
// and becomes the date axis; every other column must scan as numeric.
func LoadQuery(ctx context.Context, db *sql.DB, query, dateColumn string) (*Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset: query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dataset: columns: %w", err)
	}

	dateIdx := -1
	cols := make(map[string][]float64, len(names))
	for i, name := range names {
		if name == dateColumn && dateColumn != "" {
			dateIdx = i
			continue
		}
		cols[name] = nil
	}
	if dateColumn != "" && dateIdx < 0 {
		return nil, NewValidationError(dateColumn, "date column not in query result")
	}

	var dates []time.Time
	dest := make([]any, len(names))
	for rows.Next() {
		for i := range dest {
			if i == dateIdx {
				dest[i] = new(sql.NullTime)
			} else {
				dest[i] = new(sql.NullFloat64)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dataset: scan: %w", err)
		}
		for i, name := range names {
			if i == dateIdx {
				nt := dest[i].(*sql.NullTime)
				if !nt.Valid {
					return nil, NewValidationError(dateColumn, "NULL date at row %d", len(dates))
				}
				dates = append(dates, nt.Time)
				continue
			}
			nf := dest[i].(*sql.NullFloat64)
			if !nf.Valid {
				return nil, NewValidationError(name, "NULL value at row %d", len(cols[name]))
			}
			cols[name] = append(cols[name], nf.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: rows: %w", err)
	}

	t, err := FromColumns(dates, cols)
	if err != nil {
		return nil, err
	}
	metrics.DatasetRowsLoaded.WithLabelValues("duckdb").Add(float64(t.NumRows()))
	log := logging.Logger()
	log.Debug().
		Str("component", "dataset").
		Int("rows", t.NumRows()).
		Int("columns", len(t.Names())).
		Msg("loaded dataset from query")
	return t, nil
}
