// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/LexForgeAI/LexForge/services/revision/stream"
)

// SSEWriter writes revision updates to an HTTP response in SSE format.
//
// # Description
//
// Each event is written as "event: {type}\ndata: {json}\n\n" and flushed
// immediately. Batch boundaries are surfaced as "batch" events so clients
// can render progressively without counting updates themselves.
//
// # Thread Safety
//
// Safe for concurrent use; writes are serialized by a mutex.
type SSEWriter interface {
	// WriteUpdate writes one incremental update event.
	WriteUpdate(u stream.Update) error

	// WriteBatchBoundary signals the end of a batch.
	WriteBatchBoundary(batchIndex int) error

	// WriteError writes an error event. The stream should close after it.
	WriteError(errMsg string) error

	// WriteDone writes the terminal event with the total update count.
	WriteDone(total int) error

	// WriteKeepAlive sends an SSE comment to keep the connection alive.
	WriteKeepAlive() error
}

type sseWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewSSEWriter creates an SSEWriter over the ResponseWriter. The caller
// must set SSE headers first via SetSSEHeaders.
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

func (w *sseWriter) writeEvent(eventType string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

func (w *sseWriter) WriteUpdate(u stream.Update) error {
	return w.writeEvent("update", u)
}

func (w *sseWriter) WriteBatchBoundary(batchIndex int) error {
	return w.writeEvent("batch", map[string]int{"batch_index": batchIndex})
}

func (w *sseWriter) WriteError(errMsg string) error {
	return w.writeEvent("error", map[string]string{"error": errMsg})
}

func (w *sseWriter) WriteDone(total int) error {
	return w.writeEvent("done", map[string]int{"total_updates": total})
}

func (w *sseWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// SetSSEHeaders configures the response headers for SSE streaming. Must be
// called before the first write.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

var _ SSEWriter = (*sseWriter)(nil)
