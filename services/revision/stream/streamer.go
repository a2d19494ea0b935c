// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream packages large diffs into ordered update sequences for
// progressive delivery.
package stream

import (
	"time"

	"github.com/google/uuid"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/statute"
)

// DefaultBatchSize is the flush boundary used when none is configured.
const DefaultBatchSize = 10

// Update is one streamed event: a DiffUpdate plus its batch assignment.
//
// # Description
//
// One Incremental update is emitted per individual change, each
// independently timestamped; BatchIndex marks the fixed-size logical batch
// the change belongs to, which transports use as a flush boundary.
type Update struct {
	collab.DiffUpdate
	BatchIndex int `json:"batch_index"`
}

// Streamer holds a baseline snapshot and emits incremental update
// sequences against it.
//
// # Thread Safety
//
// Safe for concurrent use; the baseline is immutable after construction.
type Streamer struct {
	baseline  statute.Statute
	differ    *diff.Differ
	batchSize int
	now       func() time.Time
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithBatchSize sets the flush boundary. Values below 1 fall back to
// DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(s *Streamer) {
		if n >= 1 {
			s.batchSize = n
		}
	}
}

// NewStreamer creates a streamer over the given baseline snapshot.
func NewStreamer(baseline statute.Statute, differ *diff.Differ, opts ...Option) *Streamer {
	s := &Streamer{
		baseline:  baseline.Clone(),
		differ:    differ,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StreamDiff diffs the baseline against target and returns the ordered
// update sequence.
//
// # Outputs
//
//   - []Update: One Incremental update per change, in diff order, grouped
//     into batches of the configured size.
//   - error: diff.ErrStatuteIDMismatch when target is a different statute.
func (s *Streamer) StreamDiff(target statute.Statute) ([]Update, error) {
	d, err := s.differ.Compute(s.baseline, target)
	if err != nil {
		return nil, err
	}

	updates := make([]Update, 0, len(d.Changes))
	for i := range d.Changes {
		change := d.Changes[i]
		updates = append(updates, Update{
			DiffUpdate: collab.DiffUpdate{
				UpdateID:  uuid.New().String(),
				Type:      collab.UpdateIncremental,
				Timestamp: s.now(),
				Change:    &change,
			},
			BatchIndex: i / s.batchSize,
		})
	}
	return updates, nil
}

// BatchCount returns the number of batches a change count splits into.
func (s *Streamer) BatchCount(changes int) int {
	if changes == 0 {
		return 0
	}
	return (changes + s.batchSize - 1) / s.batchSize
}
