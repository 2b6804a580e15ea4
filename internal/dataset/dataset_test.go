// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package dataset

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFromColumns(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		dates   []time.Time
		cols    map[string][]float64
		wantErr bool
	}{
		{
			name:  "valid with dates",
			dates: dates,
			cols:  map[string][]float64{"spend": {1, 2}, "outcome": {10, 20}},
		},
		{
			name: "valid without dates",
			cols: map[string][]float64{"x": {1, 2, 3}},
		},
		{
			name:    "no columns",
			wantErr: true,
		},
		{
			name:    "empty column",
			cols:    map[string][]float64{"x": {}},
			wantErr: true,
		},
		{
			name:    "ragged columns",
			cols:    map[string][]float64{"a": {1, 2}, "b": {1}},
			wantErr: true,
		},
		{
			name:    "date axis mismatch",
			dates:   dates,
			cols:    map[string][]float64{"x": {1, 2, 3}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := FromColumns(tt.dates, tt.cols)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("FromColumns() error = %v, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromColumns() error = %v", err)
			}
			if tab.NumRows() != len(tt.cols["spend"]) && tab.NumRows() == 0 {
				t.Errorf("NumRows() = %d", tab.NumRows())
			}
		})
	}
}

func TestTableImmutability(t *testing.T) {
	src := map[string][]float64{"spend": {1, 2, 3}}
	tab, err := FromColumns(nil, src)
	if err != nil {
		t.Fatalf("FromColumns() error = %v", err)
	}

	// Mutating the source after construction must not leak in.
	src["spend"][0] = 99

	col, err := tab.Column("spend")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if col[0] != 1 {
		t.Errorf("Column()[0] = %g, want 1 (source mutation leaked)", col[0])
	}

	// Mutating a returned copy must not affect the table.
	col[1] = 99
	again, _ := tab.Column("spend")
	if again[1] != 2 {
		t.Errorf("Column()[1] = %g, want 2 (copy mutation leaked)", again[1])
	}
}

func TestTableNamesSorted(t *testing.T) {
	tab, err := FromColumns(nil, map[string][]float64{
		"zeta": {1}, "alpha": {1}, "mid": {1},
	})
	if err != nil {
		t.Fatalf("FromColumns() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := tab.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestTableChecks(t *testing.T) {
	tab, err := FromColumns(nil, map[string][]float64{
		"clean":    {1, 2, 3},
		"hasnan":   {1, math.NaN(), 3},
		"negative": {1, -2, 3},
	})
	if err != nil {
		t.Fatalf("FromColumns() error = %v", err)
	}

	if err := tab.RequireColumns("clean", "hasnan"); err != nil {
		t.Errorf("RequireColumns() error = %v", err)
	}
	if err := tab.RequireColumns("missing"); err == nil {
		t.Error("RequireColumns(missing) error = nil")
	}
	if err := tab.CheckFinite("clean"); err != nil {
		t.Errorf("CheckFinite(clean) error = %v", err)
	}

	var verr *ValidationError
	if err := tab.CheckFinite("hasnan"); !errors.As(err, &verr) {
		t.Errorf("CheckFinite(hasnan) error = %v, want *ValidationError", err)
	} else if verr.Column != "hasnan" {
		t.Errorf("ValidationError.Column = %q, want hasnan", verr.Column)
	}
	if err := tab.CheckNonNegative("negative"); !errors.As(err, &verr) {
		t.Errorf("CheckNonNegative(negative) error = %v, want *ValidationError", err)
	}
	if err := tab.CheckNonNegative("clean"); err != nil {
		t.Errorf("CheckNonNegative(clean) error = %v", err)
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly.csv")
	content := "date,tv,radio,sales\n" +
		"2024-01-01,120.5,30.0,1500.0\n" +
		"2024-01-08,95.0,42.5,1610.2\n" +
		"2024-01-15,0.0,0.0,1320.9\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tab, err := LoadCSV(path, "date", "")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if tab.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", tab.NumRows())
	}
	if got := tab.Names(); !reflect.DeepEqual(got, []string{"radio", "sales", "tv"}) {
		t.Errorf("Names() = %v", got)
	}
	dates := tab.Dates()
	if len(dates) != 3 || !dates[1].Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Dates() = %v", dates)
	}
	tv, err := tab.Column("tv")
	if err != nil {
		t.Fatalf("Column(tv) error = %v", err)
	}
	if tv[0] != 120.5 || tv[2] != 0 {
		t.Errorf("tv = %v", tv)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		dateCol string
	}{
		{"missing file", filepath.Join(dir, "absent.csv"), "date"},
		{"header only", write("empty.csv", "date,x\n"), "date"},
		{"bad number", write("badnum.csv", "date,x\n2024-01-01,abc\n"), "date"},
		{"bad date", write("baddate.csv", "date,x\n01/02/2024,1.0\n"), "date"},
		{"missing date column", write("nodate.csv", "x\n1.0\n"), "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCSV(tt.path, tt.dateCol, ""); err == nil {
				t.Error("LoadCSV() error = nil, want error")
			}
		})
	}
}

func TestLoadQuery(t *testing.T) {
	db, err := OpenDuckDB("")
	if err != nil {
		t.Fatalf("OpenDuckDB() error = %v", err)
	}
	defer db.Close()

	query := `SELECT * FROM (VALUES
		(TIMESTAMP '2024-01-01', 120.5, 1500.0),
		(TIMESTAMP '2024-01-08', 95.0, 1610.2)
	) AS t(date, tv, sales) ORDER BY date`

	tab, err := LoadQuery(context.Background(), db, query, "date")
	if err != nil {
		t.Fatalf("LoadQuery() error = %v", err)
	}
	if tab.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tab.NumRows())
	}
	sales, err := tab.Column("sales")
	if err != nil {
		t.Fatalf("Column(sales) error = %v", err)
	}
	if sales[1] != 1610.2 {
		t.Errorf("sales[1] = %g, want 1610.2", sales[1])
	}
	if len(tab.Dates()) != 2 {
		t.Errorf("Dates() length = %d, want 2", len(tab.Dates()))
	}
}
