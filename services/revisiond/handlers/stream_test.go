// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// Tests for the SSE diff streaming handler

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
)

func TestHandleStreamDiff_EmitsUpdatesAndDone(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff/stream", HandleStreamDiff(testDiffer(), 10))

	w := postJSON(t, router, "/v1/diff/stream", datatypes.StreamDiffRequest{
		Baseline: statutePayload("Benefit Eligibility", "1"),
		Target:   statutePayload("Benefit Eligibility (Amended)", "2"),
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: update"))
	assert.Equal(t, 1, strings.Count(body, "event: batch"))
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, `"total_updates":1`)
}

func TestHandleStreamDiff_BatchBoundaries(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff/stream", HandleStreamDiff(testDiffer(), 10))

	baseline := statutePayload("Benefit Eligibility", "1")
	target := statutePayload("Renamed", "2")
	target.Metadata = map[string]string{
		"note-a": "x", "note-b": "x", "note-c": "x", "note-d": "x",
	}

	// Five changes with batch size 2: three batches.
	w := postJSON(t, router, "/v1/diff/stream", datatypes.StreamDiffRequest{
		Baseline:  baseline,
		Target:    target,
		BatchSize: 2,
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 5, strings.Count(body, "event: update"))
	assert.Equal(t, 3, strings.Count(body, "event: batch"))
	assert.Contains(t, body, `"batch_index":2`)
}

func TestHandleStreamDiff_EmptyDiff(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff/stream", HandleStreamDiff(testDiffer(), 10))

	same := statutePayload("Benefit Eligibility", "1")
	w := postJSON(t, router, "/v1/diff/stream", datatypes.StreamDiffRequest{
		Baseline: same,
		Target:   same,
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "event: update")
	assert.Contains(t, body, `"total_updates":0`)
}

func TestHandleStreamDiff_IDMismatch(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff/stream", HandleStreamDiff(testDiffer(), 10))

	other := statutePayload("Other", "1")
	other.ID = "statute-2"
	w := postJSON(t, router, "/v1/diff/stream", datatypes.StreamDiffRequest{
		Baseline: statutePayload("Benefit Eligibility", "1"),
		Target:   other,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
