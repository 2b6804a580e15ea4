// Bayesmix - Bayesian Marketing Mix and Customer Lifetime Value Modeling
// Copyright 2026 The Bayesmix Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/quantmix/bayesmix

// Package config loads the server configuration from layered sources:
// built-in defaults, an optional YAML file, then BAYESMIX_-prefixed
// environment variables, each layer overriding the previous.
package config

import (
	"fmt"
	"time"

	"github.com/quantmix/bayesmix/internal/graph"
	"github.com/quantmix/bayesmix/internal/logging"
	"github.com/quantmix/bayesmix/internal/mmm"
	"github.com/quantmix/bayesmix/internal/validation"
)

// LoggingConfig configures log output. It maps onto logging.Config,
// which also carries a writer and therefore cannot be unmarshaled
// directly.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package's configuration.
func (c LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Level
	cfg.Format = c.Format
	cfg.Caller = c.Caller
	return cfg
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// StoreConfig configures the fitted-model store.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// DatasetSource names where observations load from.
type DatasetSource string

const (
	SourceCSV    DatasetSource = "csv"
	SourceDuckDB DatasetSource = "duckdb"
)

// DatasetConfig configures the observation loader.
type DatasetConfig struct {
	// Source selects the loader.
	Source DatasetSource `koanf:"source" validate:"oneof=csv duckdb"`

	// Path is the CSV file or DuckDB database path (empty for an
	// in-memory DuckDB).
	Path string `koanf:"path"`

	// Query is the analytical extract query for the duckdb source.
	Query string `koanf:"query"`

	// DateColumn names the date axis column; empty means no date axis.
	DateColumn string `koanf:"date_column"`

	// DateLayout is the Go time layout for CSV date parsing.
	DateLayout string `koanf:"date_layout"`
}

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Store   StoreConfig   `koanf:"store"`
	Dataset DatasetConfig `koanf:"dataset"`

	// Model holds the MMM specification fitted at startup.
	Model mmm.Config `koanf:"model"`
}

// defaultConfig returns the built-in defaults, overridden by file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8089,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Store: StoreConfig{
			Path: "/data/bayesmix/models",
		},
		Dataset: DatasetConfig{
			Source:     SourceCSV,
			DateColumn: "date",
		},
		Model: mmm.DefaultConfig(),
	}
}

// Validate checks the structural constraints of the configuration.
// Model-versus-data validation happens later, once the dataset is
// loaded.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return graph.NewConfigurationError("dataset.path", "csv source requires a file path")
		}
	case SourceDuckDB:
		if c.Dataset.Query == "" {
			return graph.NewConfigurationError("dataset.query", "duckdb source requires a query")
		}
	}
	if len(c.Model.ChannelColumns) == 0 {
		return graph.NewConfigurationError("model.channel_columns", "at least one channel is required")
	}
	if c.Model.OutcomeColumn == "" {
		return graph.NewConfigurationError("model.outcome_column", "outcome column is required")
	}
	return nil
}
