// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/metrics"
)

// DefaultDateLayout is the date format loaders parse when none is given.
const DefaultDateLayout = "2006-01-02"

// LoadCSV reads a headered CSV file into a Table. The dateColumn, when
// non-empty, becomes the date axis and is parsed with layout (or
// DefaultDateLayout if layout is empty); all other columns must be
// numeric.
func LoadCSV(path, dateColumn, layout string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	if layout == "" {
		layout = DefaultDateLayout
	}

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, NewValidationError("", "file %s has no data rows", path)
	}

	header := records[0]
	dateIdx := -1
	cols := make(map[string][]float64, len(header))
	for i, name := range header {
		if name == dateColumn && dateColumn != "" {
			dateIdx = i
			continue
		}
		cols[name] = make([]float64, 0, len(records)-1)
	}
	if dateColumn != "" && dateIdx < 0 {
		return nil, NewValidationError(dateColumn, "date column not found in header")
	}

	var dates []time.Time
	if dateIdx >= 0 {
		dates = make([]time.Time, 0, len(records)-1)
	}

	for row, record := range records[1:] {
		if len(record) != len(header) {
			return nil, NewValidationError("",
				"row %d has %d fields, header has %d", row+1, len(record), len(header))
		}
		for i, field := range record {
			if i == dateIdx {
				d, err := time.Parse(layout, field)
				if err != nil {
					return nil, NewValidationError(dateColumn,
						"row %d: cannot parse date %q with layout %q", row+1, field, layout)
				}
				dates = append(dates, d)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, NewValidationError(header[i],
					"row %d: cannot parse %q as number", row+1, field)
			}
			cols[header[i]] = append(cols[header[i]], v)
		}
	}

	t, err := FromColumns(dates, cols)
	if err != nil {
		return nil, err
	}
	metrics.DatasetRowsLoaded.WithLabelValues("csv").Add(float64(t.NumRows()))
	log := logging.Logger()
	log.Debug().
		Str("component", "dataset").
		Str("path", path).
		Int("rows", t.NumRows()).
		Int("columns", len(t.Names())).
		Msg("loaded CSV dataset")
	return t, nil
}
