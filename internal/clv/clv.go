// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package clv implements probabilistic customer lifetime value models on
// RFM (recency, frequency, monetary) summaries: BG/NBD and Pareto/NBD for
// transaction timing, Gamma-Gamma for spend per transaction.
//
// Each model exposes its closed-form likelihood for direct use, a
// BuildGraph hook that assembles a Bayesian model graph over a customer
// cohort, and closed-form conditional expectations. Posterior-averaged
// predictions live in posterior.go.
package clv

import (
	"math"
	"sort"
	"time"

	"github.com/quantmix/bayesmix/internal/dataset"
	"github.com/quantmix/bayesmix/internal/dist"
	"github.com/quantmix/bayesmix/internal/graph"
)

// Customer is one row of an RFM summary. Frequency counts repeat
// transactions (the first purchase is excluded), Recency is the time of
// the last repeat transaction relative to the first, and T is the
// customer's total observation age, all in the same time unit.
// MonetaryValue is the mean value of repeat transactions, zero when
// there are none.
type Customer struct {
	ID            string  `json:"id"`
	Frequency     float64 `json:"frequency"`
	Recency       float64 `json:"recency"`
	T             float64 `json:"T"`
	MonetaryValue float64 `json:"monetary_value"`
}

// ValidateCustomers checks an RFM cohort for impossible rows. All
// failures are fatal and name the offending field.
func ValidateCustomers(customers []Customer) error {
	if len(customers) == 0 {
		return dataset.NewValidationError("customers", "empty cohort")
	}
	for i, c := range customers {
		if math.IsNaN(c.Frequency) || c.Frequency < 0 {
			return dataset.NewValidationError("frequency", "customer %d: invalid value %g", i, c.Frequency)
		}
		if c.Frequency != math.Trunc(c.Frequency) {
			return dataset.NewValidationError("frequency", "customer %d: not an integer count: %g", i, c.Frequency)
		}
		if math.IsNaN(c.Recency) || c.Recency < 0 {
			return dataset.NewValidationError("recency", "customer %d: invalid value %g", i, c.Recency)
		}
		if math.IsNaN(c.T) || c.T <= 0 {
			return dataset.NewValidationError("T", "customer %d: observation age must be positive, got %g", i, c.T)
		}
		if c.Recency > c.T {
			return dataset.NewValidationError("recency", "customer %d: recency %g exceeds T %g", i, c.Recency, c.T)
		}
		if c.Frequency == 0 && c.Recency != 0 {
			return dataset.NewValidationError("recency", "customer %d: nonzero recency with zero frequency", i)
		}
		if math.IsNaN(c.MonetaryValue) || c.MonetaryValue < 0 {
			return dataset.NewValidationError("monetary_value", "customer %d: invalid value %g", i, c.MonetaryValue)
		}
	}
	return nil
}

// FilterPositiveFrequency returns the customers with at least one repeat
// transaction. The Gamma-Gamma spend model is only defined on them, and
// the filtering is deliberately explicit at call sites.
func FilterPositiveFrequency(customers []Customer) []Customer {
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if c.Frequency > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Model is a transaction-timing CLV model. The parameter vector layout
// is fixed per model and reported by ParamNames.
type Model interface {
	Name() string
	ParamNames() []string

	// LogLikelihood returns one customer's log likelihood contribution.
	LogLikelihood(params []float64, c Customer) float64

	// BuildGraph assembles a Bayesian graph over the cohort; priors
	// override defaults by parameter name.
	BuildGraph(customers []Customer, priors map[string]dist.Spec) (*graph.Model, error)

	// ExpectedTransactions is the expected number of future transactions
	// in (T, T+horizon] conditional on the customer's history.
	ExpectedTransactions(params []float64, c Customer, horizon float64) float64
}

// AliveModel is implemented by timing models that expose the posterior
// probability a customer is still active.
type AliveModel interface {
	Model
	ProbabilityAlive(params []float64, c Customer) float64
}

// Transaction is one purchase event in a raw transaction log.
type Transaction struct {
	CustomerID string    `json:"customer_id"`
	Time       time.Time `json:"time"`
	Value      float64   `json:"value"`
}

// RFMFromTransactions aggregates a transaction log into an RFM cohort.
// Times convert to model units of the given period (e.g. one week);
// observationEnd is the right censoring point and must not precede any
// transaction. Monetary value is the mean over repeat transactions only.
func RFMFromTransactions(txns []Transaction, observationEnd time.Time, period time.Duration) ([]Customer, error) {
	if len(txns) == 0 {
		return nil, dataset.NewValidationError("transactions", "empty transaction log")
	}
	if period <= 0 {
		return nil, dataset.NewValidationError("period", "must be positive, got %s", period)
	}

	byCustomer := make(map[string][]Transaction)
	order := make([]string, 0)
	for i, tx := range txns {
		if tx.CustomerID == "" {
			return nil, dataset.NewValidationError("customer_id", "transaction %d: empty customer id", i)
		}
		if tx.Time.After(observationEnd) {
			return nil, dataset.NewValidationError("time",
				"transaction %d at %s is after the observation end %s", i, tx.Time, observationEnd)
		}
		if math.IsNaN(tx.Value) || tx.Value < 0 {
			return nil, dataset.NewValidationError("value", "transaction %d: invalid value %g", i, tx.Value)
		}
		if _, ok := byCustomer[tx.CustomerID]; !ok {
			order = append(order, tx.CustomerID)
		}
		byCustomer[tx.CustomerID] = append(byCustomer[tx.CustomerID], tx)
	}
	sort.Strings(order)

	units := func(d time.Duration) float64 { return float64(d) / float64(period) }

	out := make([]Customer, 0, len(order))
	for _, id := range order {
		events := byCustomer[id]
		sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })

		first := events[0].Time
		last := events[len(events)-1].Time
		c := Customer{
			ID:        id,
			Frequency: float64(len(events) - 1),
			Recency:   units(last.Sub(first)),
			T:         units(observationEnd.Sub(first)),
		}
		if c.Frequency > 0 {
			var sum float64
			for _, tx := range events[1:] {
				sum += tx.Value
			}
			c.MonetaryValue = sum / c.Frequency
		}
		out = append(out, c)
	}
	return out, nil
}
