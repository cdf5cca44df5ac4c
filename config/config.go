// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the flat, JSON-tagged runtime configuration for
// a cathedral process, in the teacher's Parameters/DefaultParams/Valid
// idiom (a single struct, a constructor of sane defaults, presets for
// common deployment shapes, and a Valid method instead of returning
// errors from field access).
package config

import (
	"errors"
	"time"
)

var (
	ErrInvalidMaxTicks     = errors.New("max_ticks must be >= 1")
	ErrInvalidFuelLimit    = errors.New("default_fuel_limit must be >= 1")
	ErrInvalidStoreDir     = errors.New("store_dir must be set when store_persist is true")
	ErrInvalidLogLevel     = errors.New("log_level must be one of debug, info, warn, error")
	ErrMetricsAddrRequired = errors.New("metrics_addr must be set when metrics_enabled is true")
)

// Config is the process-wide configuration for running DAGs through the
// engine: scheduling bounds, sandbox defaults, storage, logging, and
// metrics.
type Config struct {
	// Scheduling / execution.
	MaxTicks         uint64        `json:"max_ticks"`
	Strict           bool          `json:"strict"`
	MaxInFlightBlobs uint64        `json:"max_in_flight_blobs"`
	NodeTimeout      time.Duration `json:"node_timeout"`

	// Sandbox defaults.
	DefaultFuelLimit  uint64 `json:"default_fuel_limit"`
	DefaultMemoryLimit uint64 `json:"default_memory_limit"`

	// Content store.
	StorePersist bool   `json:"store_persist"`
	StoreDir     string `json:"store_dir"`
	MaxBlobSize  uint64 `json:"max_blob_size"`
	MaxStorage   uint64 `json:"max_storage"`

	// Logging.
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // "json" or "console"

	// Metrics.
	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsAddr    string `json:"metrics_addr"`
}

// DefaultConfig returns sane defaults for local/interactive use: an
// in-memory content store, console logging, metrics off.
func DefaultConfig() Config {
	return Config{
		MaxTicks:           10_000,
		Strict:             false,
		MaxInFlightBlobs:   0,
		NodeTimeout:        30 * time.Second,
		DefaultFuelLimit:   1_000_000,
		DefaultMemoryLimit: 64 << 20,
		StorePersist:       false,
		MaxBlobSize:        16 << 20,
		MaxStorage:         1 << 30,
		LogLevel:           "info",
		LogFormat:          "console",
		MetricsEnabled:     false,
	}
}

// ProductionConfig layers persistent storage, strict capability
// enforcement, JSON logging, and metrics onto DefaultConfig.
func ProductionConfig(storeDir, metricsAddr string) Config {
	c := DefaultConfig()
	c.Strict = true
	c.MaxInFlightBlobs = 64
	c.StorePersist = true
	c.StoreDir = storeDir
	c.LogFormat = "json"
	c.MetricsEnabled = true
	c.MetricsAddr = metricsAddr
	return c
}

// CIConfig is tuned for deterministic-replay test suites: small tick
// budget, strict mode on so capability gaps fail loudly, in-memory
// store.
func CIConfig() Config {
	c := DefaultConfig()
	c.MaxTicks = 1_000
	c.Strict = true
	return c
}

// Valid reports whether c is internally consistent.
func (c Config) Valid() error {
	if c.MaxTicks < 1 {
		return ErrInvalidMaxTicks
	}
	if c.DefaultFuelLimit < 1 {
		return ErrInvalidFuelLimit
	}
	if c.StorePersist && c.StoreDir == "" {
		return ErrInvalidStoreDir
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return ErrMetricsAddrRequired
	}
	return nil
}
