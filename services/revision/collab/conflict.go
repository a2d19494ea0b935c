// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collab

import (
	"fmt"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// =============================================================================
// Conflict Types
// =============================================================================

// ConflictType categorizes how two changes clash.
type ConflictType string

const (
	// ConflictConcurrentModification indicates two Modified changes on the
	// same target.
	ConflictConcurrentModification ConflictType = "concurrent_modification"

	// ConflictIncompatibleChanges indicates an Added and a Removed change
	// on the same target, in either order.
	ConflictIncompatibleChanges ConflictType = "incompatible_changes"

	// ConflictVersionMismatch indicates the changes were computed against
	// different base versions. Reserved for callers that carry version
	// context; the built-in detector does not emit it.
	ConflictVersionMismatch ConflictType = "version_mismatch"

	// ConflictSemantic indicates a domain-rule clash detected by an
	// external validator. The built-in detector does not emit it.
	ConflictSemantic ConflictType = "semantic_conflict"
)

// ResolutionStrategy selects how a conflict is resolved.
type ResolutionStrategy string

const (
	// ResolveUseFirst keeps the earlier pending change.
	ResolveUseFirst ResolutionStrategy = "use_first"

	// ResolveUseSecond keeps the later incoming change.
	ResolveUseSecond ResolutionStrategy = "use_second"

	// ResolveMerge is accepted as a distinct strategy but currently behaves
	// identically to ResolveUseSecond. True field-level merging is an open
	// product question; the variant is kept so enabling it later is not a
	// wire break.
	ResolveMerge ResolutionStrategy = "merge"

	// ResolveCustom applies an explicitly supplied replacement change.
	ResolveCustom ResolutionStrategy = "custom"
)

// ConflictInfo describes two changes that target the same field
// incompatibly.
type ConflictInfo struct {
	// Type categorizes the clash.
	Type ConflictType `json:"conflict_type"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// ConflictingChanges holds the clashing pair, earlier change first.
	ConflictingChanges []diff.Change `json:"conflicting_changes"`

	// SuggestedResolution is the detector's default strategy.
	SuggestedResolution ResolutionStrategy `json:"suggested_resolution,omitempty"`
}

// =============================================================================
// Detection
// =============================================================================

// DetectConflict compares an incoming change against pending changes.
//
// # Description
//
// Pure comparison; no state is touched. Only changes whose targets are
// structurally equal are compared, and the first matching pending change
// wins: N-way conflicts beyond the first pair are not aggregated. Rules:
//   - Both Modified: ConcurrentModification, suggested UseSecond.
//   - One Added and one Removed (either order): IncompatibleChanges,
//     suggested UseSecond.
//
// There are no cross-target conflicts. Detection is symmetric in change
// order for a single pending entry: the pair is always reported
// [pending, incoming].
//
// # Outputs
//
//   - *ConflictInfo: Nil when no pending change clashes.
func DetectConflict(pending []diff.Change, incoming diff.Change) *ConflictInfo {
	for _, prior := range pending {
		if prior.Target != incoming.Target {
			continue
		}

		switch {
		case prior.Type == diff.ChangeModified && incoming.Type == diff.ChangeModified:
			return &ConflictInfo{
				Type: ConflictConcurrentModification,
				Description: fmt.Sprintf("concurrent modification of %s",
					incoming.Target),
				ConflictingChanges:  []diff.Change{prior, incoming},
				SuggestedResolution: ResolveUseSecond,
			}
		case prior.Type == diff.ChangeAdded && incoming.Type == diff.ChangeRemoved,
			prior.Type == diff.ChangeRemoved && incoming.Type == diff.ChangeAdded:
			return &ConflictInfo{
				Type: ConflictIncompatibleChanges,
				Description: fmt.Sprintf("incompatible add/remove of %s",
					incoming.Target),
				ConflictingChanges:  []diff.Change{prior, incoming},
				SuggestedResolution: ResolveUseSecond,
			}
		}
	}
	return nil
}
