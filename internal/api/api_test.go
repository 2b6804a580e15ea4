// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package api

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/mmm"
	"github.com/quantmix/bayesmix/internal/sampler"
	"github.com/quantmix/bayesmix/internal/store"
)

// fixture fits a small two-channel model, persists it, and returns the
// test server plus the stored record ID.
func fixture(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	rows := 20
	dates := make([]time.Time, rows)
	tv := make([]float64, rows)
	radio := make([]float64, rows)
	sales := make([]float64, rows)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		dates[i] = start.AddDate(0, 0, 7*i)
		tv[i] = 1.5 + 0.5*math.Sin(float64(i)/3)
		radio[i] = 1.1 + 0.3*math.Cos(float64(i)/5)
		sales[i] = 2 + 1.5*tv[i] + 0.8*radio[i]
	}
	tab, err := dataset.FromColumns(dates, map[string][]float64{
		"tv": tv, "radio": radio, "sales": sales,
	})
	if err != nil {
		t.Fatalf("FromColumns() error = %v", err)
	}

	cfg := mmm.DefaultConfig()
	cfg.ChannelColumns = []string{"tv", "radio"}
	cfg.OutcomeColumn = "sales"
	cfg.Sampler = sampler.Config{Sampler: sampler.KindMAP, Chains: 1, Draws: 5, Tune: 1, Seed: 7}

	fm, err := mmm.Fit(context.Background(), tab, cfg)
	if fm == nil {
		t.Fatalf("Fit() error = %v", err)
	}
	payload, err := fm.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rec := &store.Record{Name: "weekly-mmm", Kind: ModelKindMMM, Payload: payload}
	if err := st.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ts := httptest.NewServer(NewServer(st).Router())
	t.Cleanup(ts.Close)
	return ts, rec.ID
}

// decodeData unwraps the response envelope into out.
func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *apiError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %+v", envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Success bool      `json:"success"`
		Error   *apiError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error == nil {
		t.Fatal("error response without error body")
	}
	return envelope.Error.Code
}

func TestHealth(t *testing.T) {
	ts, _ := fixture(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeData(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestListModels(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models")
	if err != nil {
		t.Fatalf("GET models error = %v", err)
	}
	var records []*store.Record
	decodeData(t, resp, &records)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].ID != id || records[0].Payload != nil {
		t.Errorf("record = %+v, want ID %s with no payload", records[0], id)
	}
}

func TestGetModelMetadata(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id)
	if err != nil {
		t.Fatalf("GET model error = %v", err)
	}
	var rec store.Record
	decodeData(t, resp, &rec)
	if rec.Name != "weekly-mmm" || rec.Kind != ModelKindMMM {
		t.Errorf("record = %+v, metadata mismatch", rec)
	}
}

func TestGetModelNotFound(t *testing.T) {
	ts, _ := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/no-such-id")
	if err != nil {
		t.Fatalf("GET model error = %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "model_not_found" {
		t.Errorf("error code = %q, want model_not_found", code)
	}
}

func TestSummary(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/summary?prob=0.8")
	if err != nil {
		t.Fatalf("GET summary error = %v", err)
	}
	var summaries []struct {
		Name string  `json:"name"`
		Mean float64 `json:"mean"`
	}
	decodeData(t, resp, &summaries)
	if len(summaries) == 0 {
		t.Fatal("summary is empty")
	}
	names := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		names[s.Name] = true
	}
	for _, want := range []string{"intercept", "sigma"} {
		if !names[want] {
			t.Errorf("summary missing %s", want)
		}
	}
}

func TestSummaryBadProb(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/summary?prob=1.5")
	if err != nil {
		t.Fatalf("GET summary error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestContributions(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/contributions?channel=tv")
	if err != nil {
		t.Fatalf("GET contributions error = %v", err)
	}
	var series struct {
		Mean []float64 `json:"mean"`
	}
	decodeData(t, resp, &series)
	if len(series.Mean) != 20 {
		t.Errorf("len(mean) = %d, want one value per period", len(series.Mean))
	}
}

func TestContributionsUnknownChannel(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/contributions?channel=print")
	if err != nil {
		t.Fatalf("GET contributions error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestResponseCurve(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/response-curve?channel=tv&max=5&points=10")
	if err != nil {
		t.Fatalf("GET response-curve error = %v", err)
	}
	var payload struct {
		Grid   []float64 `json:"grid"`
		Series struct {
			Mean []float64 `json:"mean"`
		} `json:"series"`
	}
	decodeData(t, resp, &payload)
	if len(payload.Grid) != 10 || len(payload.Series.Mean) != 10 {
		t.Fatalf("grid/mean lengths = %d/%d, want 10/10", len(payload.Grid), len(payload.Series.Mean))
	}
	if payload.Grid[0] != 0 || payload.Grid[9] != 5 {
		t.Errorf("grid endpoints = %g..%g, want 0..5", payload.Grid[0], payload.Grid[9])
	}
}

func TestResponseCurveRequiresMax(t *testing.T) {
	ts, id := fixture(t)
	resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/response-curve?channel=tv")
	if err != nil {
		t.Fatalf("GET response-curve error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAllocate(t *testing.T) {
	ts, id := fixture(t)
	body, _ := json.Marshal(allocateRequest{TotalBudget: 10})
	resp, err := http.Post(ts.URL+"/api/v1/models/"+id+"/allocate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST allocate error = %v", err)
	}
	var result struct {
		Allocation map[string]float64 `json:"allocation"`
	}
	decodeData(t, resp, &result)
	var sum float64
	for _, v := range result.Allocation {
		sum += v
	}
	if math.Abs(sum-10) > 1e-6 {
		t.Errorf("allocation sum = %g, want 10", sum)
	}
}

func TestAllocateRejectsZeroBudget(t *testing.T) {
	ts, id := fixture(t)
	body, _ := json.Marshal(allocateRequest{TotalBudget: 0})
	resp, err := http.Post(ts.URL+"/api/v1/models/"+id+"/allocate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST allocate error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegistryCachesModels(t *testing.T) {
	ts, id := fixture(t)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/v1/models/" + id + "/summary")
		if err != nil {
			t.Fatalf("GET summary error = %v", err)
		}
		decodeData(t, resp, nil)
	}
}
