// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
)

// HandleComputeDiff computes the structured diff between two snapshots.
//
// # Description
//
// POST /v1/diff. Binds and validates a DiffRequest, runs the differ, and
// returns the diff with its classified impact. An ID mismatch between the
// snapshots is a 400, not a 500; the request is malformed, not the server.
func HandleComputeDiff(differ *diff.Differ) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.DiffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("diff", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("diff", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		d, err := differ.Compute(req.Old.ToStatute(), req.New.ToStatute())
		if err != nil {
			observability.ObserveRequest("diff", "error", time.Since(start).Seconds())
			if errors.Is(err, diff.ErrStatuteIDMismatch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			slog.Error("diff computation failed", "statute_id", req.Old.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "diff computation failed"})
			return
		}

		observability.ObserveDiff(len(d.Changes), d.Impact.Severity.String())
		observability.ObserveRequest("diff", "success", time.Since(start).Seconds())
		slog.Info("diff computed",
			"statute_id", d.StatuteID,
			"changes", len(d.Changes),
			"severity", d.Impact.Severity.String(),
		)
		c.JSON(http.StatusOK, d)
	}
}
