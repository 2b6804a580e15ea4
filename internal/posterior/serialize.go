// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package posterior

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Marshal encodes the sample set for persistence.
func (s *SampleSet) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSampleSet decodes a persisted sample set.
func UnmarshalSampleSet(data []byte) (*SampleSet, error) {
	var s SampleSet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("posterior: decode sample set: %w", err)
	}
	return &s, nil
}

// Save writes the sample set to path. Load(Save(s)) reproduces identical
// posterior summaries.
func (s *SampleSet) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("posterior: encode sample set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("posterior: write %s: %w", path, err)
	}
	return nil
}

// Load reads a sample set previously written by Save.
func Load(path string) (*SampleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("posterior: read %s: %w", path, err)
	}
	return UnmarshalSampleSet(data)
}
