// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rollback synthesizes inverse diffs and assesses rollback risk.
//
// # Description
//
// A rollback is the algebraic inverse of a StatuteDiff: applying it to the
// new version reconstructs the old one. The planner inverts single diffs,
// chains (undo most-recent-first), and batches (order-preserving parallel
// variants), and produces a feasibility/risk analysis per diff.
//
// # Thread Safety
//
// Planner is stateless and safe for concurrent use.
package rollback

import (
	"go.opentelemetry.io/otel"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

var rollbackTracer = otel.Tracer("revision.rollback")

// Planner synthesizes rollback diffs and analyses.
type Planner struct{}

// NewPlanner creates a rollback planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Generate returns the inverse of the given diff.
//
// # Description
//
// Every change is inverted in place order: Added becomes Removed (and vice
// versa) with the value fields swapped, Modified and Reordered keep their
// type and swap old/new values. The version info swaps old and new. The
// impact is copied verbatim from the forward diff rather than recomputed
// from the inverted changes; undoing a change set is considered exactly as
// consequential as applying it.
//
// # Inputs
//
//   - d: Forward diff to invert.
//
// # Outputs
//
//   - diff.StatuteDiff: The rollback diff, same statute ID, same change
//     count, same impact.
func (p *Planner) Generate(d diff.StatuteDiff) diff.StatuteDiff {
	out := diff.StatuteDiff{
		StatuteID: d.StatuteID,
		Changes:   make([]diff.Change, len(d.Changes)),
		Impact:    d.Impact,
	}
	if d.VersionInfo != nil {
		swapped := d.VersionInfo.Swapped()
		out.VersionInfo = &swapped
	}
	for i, c := range d.Changes {
		out.Changes[i] = c.Inverse()
	}
	return out
}

// GenerateChain inverts a sequence of diffs ordered oldest to newest.
//
// # Description
//
// Returns the rollbacks in reverse order (newest first), each independently
// inverted, so applying them in returned order undoes the most recent
// revision first.
func (p *Planner) GenerateChain(diffs []diff.StatuteDiff) []diff.StatuteDiff {
	out := make([]diff.StatuteDiff, len(diffs))
	for i, d := range diffs {
		out[len(diffs)-1-i] = p.Generate(d)
	}
	return out
}
