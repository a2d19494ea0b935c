// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/notify"
	"github.com/LexForgeAI/LexForge/services/revision/rollback"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func testDeps(apiKey string) Deps {
	return Deps{
		Differ:          diff.NewDiffer(diff.DefaultImpactPolicy()),
		Planner:         rollback.NewPlanner(),
		Sessions:        collab.NewServer(),
		Hub:             notify.NewHub(),
		APIKey:          apiKey,
		StreamBatchSize: 10,
	}
}

func TestSetupRoutes_CoreRoutesRegistered(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testDeps(""))

	wantRoutes := []string{
		"GET /health",
		"GET /metrics",
		"POST /v1/diff",
		"POST /v1/diff/stream",
		"POST /v1/rollback/plan",
		"POST /v1/rollback/analyze",
		"POST /v1/rollback/chain",
		"POST /v1/rollback/stats",
		"POST /v1/sessions",
		"GET /v1/sessions",
		"GET /v1/sessions/:sessionId",
		"DELETE /v1/sessions/:sessionId",
		"GET /v1/sessions/:sessionId/ws",
		"POST /v1/sessions/:sessionId/join",
		"GET /v1/sessions/:sessionId/users",
	}

	registered := make(map[string]bool)
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range wantRoutes {
		if !registered[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestSetupRoutes_HealthOpenWithoutKey(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testDeps("secret"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}

	// /v1 routes require the key.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/sessions", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated v1 status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated v1 status = %d, want 200", w.Code)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testDeps(""))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics body missing standard Go collector output")
	}
}
