// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Stream.BatchSize != DefaultStreamBatchSize {
		t.Errorf("batch size = %d, want %d", cfg.Stream.BatchSize, DefaultStreamBatchSize)
	}
	if cfg.Sessions.IdleTTL != DefaultSessionIdleTTL {
		t.Errorf("idle ttl = %v, want %v", cfg.Sessions.IdleTTL, DefaultSessionIdleTTL)
	}
	if cfg.Impact.BreakingChangeThreshold != 3 {
		t.Errorf("threshold = %d, want 3", cfg.Impact.BreakingChangeThreshold)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want defaults", cfg.Server.Port)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revisiond.yaml")
	body := `
server:
  port: 9090
  api_key: file-key
impact:
  breaking_change_threshold: 5
stream:
  batch_size: 25
sessions:
  idle_ttl: 10m
  reap_interval: 30s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "file-key" {
		t.Errorf("api key = %q, want file-key", cfg.Server.APIKey)
	}
	if cfg.Impact.BreakingChangeThreshold != 5 {
		t.Errorf("threshold = %d, want 5", cfg.Impact.BreakingChangeThreshold)
	}
	if cfg.Stream.BatchSize != 25 {
		t.Errorf("batch size = %d, want 25", cfg.Stream.BatchSize)
	}
	if cfg.Sessions.IdleTTL != 10*time.Minute {
		t.Errorf("idle ttl = %v, want 10m", cfg.Sessions.IdleTTL)
	}
	if cfg.Sessions.ReapInterval != 30*time.Second {
		t.Errorf("reap interval = %v, want 30s", cfg.Sessions.ReapInterval)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revisiond.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REVISIOND_PORT", "7070")
	t.Setenv("REVISIOND_API_KEY", "env-key")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env value 7070", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Server.APIKey)
	}
	if cfg.Server.OTLPEndpoint != "collector:4317" {
		t.Errorf("otlp endpoint = %q", cfg.Server.OTLPEndpoint)
	}
}

func TestLoad_InvalidEnvPortIgnored(t *testing.T) {
	t.Setenv("REVISIOND_PORT", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}

func TestLoad_NormalizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revisiond.yaml")
	body := `
server:
  port: -1
stream:
  batch_size: 0
impact:
  breaking_change_threshold: -2
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want normalized default", cfg.Server.Port)
	}
	if cfg.Stream.BatchSize != DefaultStreamBatchSize {
		t.Errorf("batch size = %d, want normalized default", cfg.Stream.BatchSize)
	}
	if cfg.Impact.BreakingChangeThreshold != 3 {
		t.Errorf("threshold = %d, want normalized default", cfg.Impact.BreakingChangeThreshold)
	}
}
