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

	"github.com/gin-gonic/gin"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/stream"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
)

// HandleStreamDiff delivers a diff as an ordered SSE update sequence.
//
// # Description
//
// POST /v1/diff/stream. Computes the baseline-to-target diff and emits one
// "update" event per change, a "batch" event at each batch boundary, and a
// terminal "done" event. The whole sequence is written on the request
// connection; clients that only want the final state should use /v1/diff.
func HandleStreamDiff(differ *diff.Differ, defaultBatchSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.StreamDiffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		batchSize := defaultBatchSize
		if req.BatchSize > 0 {
			batchSize = req.BatchSize
		}

		streamer := stream.NewStreamer(req.Baseline.ToStatute(), differ,
			stream.WithBatchSize(batchSize))
		updates, err := streamer.StreamDiff(req.Target.ToStatute())
		if err != nil {
			if errors.Is(err, diff.ErrStatuteIDMismatch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			slog.Error("stream diff failed", "statute_id", req.Baseline.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "diff computation failed"})
			return
		}

		SetSSEHeaders(c.Writer)
		writer, err := NewSSEWriter(c.Writer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		observability.StreamOpened("sse")
		defer observability.StreamClosed("sse")

		for i, u := range updates {
			if err := writer.WriteUpdate(u); err != nil {
				slog.Warn("client disconnected mid-stream",
					"statute_id", req.Baseline.ID, "sent", i, "error", err)
				return
			}
			lastOfBatch := i == len(updates)-1 || updates[i+1].BatchIndex != u.BatchIndex
			if lastOfBatch {
				if err := writer.WriteBatchBoundary(u.BatchIndex); err != nil {
					return
				}
			}
		}
		if err := writer.WriteDone(len(updates)); err != nil {
			slog.Warn("failed to write done event", "error", err)
		}
	}
}
