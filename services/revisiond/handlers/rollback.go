// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LexForgeAI/LexForge/services/revision/rollback"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
)

// HandleRollbackPlan synthesizes the inverse diff for one forward diff.
//
// POST /v1/rollback/plan.
func HandleRollbackPlan(planner *rollback.Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.RollbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("rollback", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("rollback", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		plan := planner.Generate(req.Diff)
		observability.ObserveRequest("rollback", "success", time.Since(start).Seconds())
		c.JSON(http.StatusOK, plan)
	}
}

// HandleRollbackAnalysis reports feasibility, complexity, and risk for
// rolling back one diff.
//
// POST /v1/rollback/analyze.
func HandleRollbackAnalysis(planner *rollback.Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.RollbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("analyze", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("analyze", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		analysis := planner.Analyze(c.Request.Context(), req.Diff)
		observability.ObserveRollbackRisk(string(analysis.RiskLevel))
		observability.ObserveRequest("analyze", "success", time.Since(start).Seconds())
		c.JSON(http.StatusOK, analysis)
	}
}

// HandleRollbackChain synthesizes the rollback sequence for an ordered diff
// chain: inverses in reverse order, so applying the result unwinds the
// chain last-first.
//
// POST /v1/rollback/chain.
func HandleRollbackChain(planner *rollback.Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.ChainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("chain", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("chain", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		plans := planner.GenerateChain(req.Diffs)
		observability.ObserveRequest("chain", "success", time.Since(start).Seconds())
		c.JSON(http.StatusOK, gin.H{"rollbacks": plans})
	}
}

// HandleRollbackStats analyzes a batch of diffs in parallel and returns the
// per-diff analyses plus aggregate statistics.
//
// POST /v1/rollback/stats.
func HandleRollbackStats(planner *rollback.Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.BatchAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("stats", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("stats", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		analyses := planner.AnalyzeBatch(c.Request.Context(), req.Diffs)
		stats := rollback.ComputeStatistics(analyses)
		observability.ObserveRequest("stats", "success", time.Since(start).Seconds())
		c.JSON(http.StatusOK, gin.H{
			"analyses":   analyses,
			"statistics": stats,
		})
	}
}
