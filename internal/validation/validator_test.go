// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sampleConfig struct {
	Port  int    `validate:"gte=1,lte=65535"`
	Level string `validate:"oneof=debug info warn error"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sampleConfig
		wantErr bool
		field   string
	}{
		{"valid", sampleConfig{Port: 8080, Level: "info"}, false, ""},
		{"port too low", sampleConfig{Port: 0, Level: "info"}, true, "Port"},
		{"bad level", sampleConfig{Port: 8080, Level: "verbose"}, true, "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}
			var serr *StructError
			if !errors.As(err, &serr) {
				t.Fatalf("ValidateStruct() error = %v, want *StructError", err)
			}
			if len(serr.Fields) == 0 {
				t.Fatal("StructError has no fields")
			}
			if !strings.Contains(serr.Error(), tt.field) {
				t.Errorf("Error() = %q, want mention of %s", serr.Error(), tt.field)
			}
		})
	}
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	err := ValidateStruct(&sampleConfig{Port: -1, Level: "shout"})
	var serr *StructError
	if !errors.As(err, &serr) {
		t.Fatalf("ValidateStruct() error = %v, want *StructError", err)
	}
	if len(serr.Fields) != 2 {
		t.Errorf("field failures = %d, want 2", len(serr.Fields))
	}
}
