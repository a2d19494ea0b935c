// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads revisiond configuration from a YAML file with
// environment overrides, and hot-reloads the impact policy on file change.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// Defaults applied when neither file nor environment provide a value.
const (
	DefaultPort            = 12310
	DefaultStreamBatchSize = 10
	DefaultSessionIdleTTL  = 30 * time.Minute
	DefaultReapInterval    = time.Minute
)

// Config is the full revisiond configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Impact   diff.ImpactPolicy `yaml:"impact"`
	Stream   StreamConfig      `yaml:"stream"`
	Sessions SessionConfig     `yaml:"sessions"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// APIKey gates mutating endpoints when non-empty.
	APIKey string `yaml:"api_key"`

	// OTLPEndpoint is the OpenTelemetry collector address. Empty disables
	// trace export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// StreamConfig holds incremental streaming settings.
type StreamConfig struct {
	// BatchSize is the flush boundary for streamed diffs.
	BatchSize int `yaml:"batch_size"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// IdleTTL is how long a session may sit idle before the reaper ends it.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// ReapInterval is how often the reaper sweeps.
	ReapInterval time.Duration `yaml:"reap_interval"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: DefaultPort},
		Impact:   diff.DefaultImpactPolicy(),
		Stream:   StreamConfig{BatchSize: DefaultStreamBatchSize},
		Sessions: SessionConfig{IdleTTL: DefaultSessionIdleTTL, ReapInterval: DefaultReapInterval},
	}
}

// Load reads configuration with layered precedence: defaults, then the YAML
// file at path (skipped when path is empty or missing), then environment
// variables.
//
// # Environment Variables
//
//   - REVISIOND_PORT: HTTP listen port.
//   - REVISIOND_API_KEY: Static API key for mutating endpoints.
//   - OTEL_EXPORTER_OTLP_ENDPOINT: Trace collector address.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file falls back to defaults.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REVISIOND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REVISIOND_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Server.OTLPEndpoint = v
	}
}

func (c *Config) normalize() {
	if c.Server.Port <= 0 {
		c.Server.Port = DefaultPort
	}
	if c.Stream.BatchSize <= 0 {
		c.Stream.BatchSize = DefaultStreamBatchSize
	}
	if c.Sessions.IdleTTL <= 0 {
		c.Sessions.IdleTTL = DefaultSessionIdleTTL
	}
	if c.Sessions.ReapInterval <= 0 {
		c.Sessions.ReapInterval = DefaultReapInterval
	}
	if c.Impact.BreakingChangeThreshold <= 0 {
		c.Impact = diff.DefaultImpactPolicy()
	}
}
