// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package diff computes structured diffs between statute snapshots and
// classifies their legal impact.
//
// # Description
//
// This package implements the change model of the revision engine: a
// StatuteDiff is an ordered list of field-level Changes between two
// snapshots of the same statute, plus a derived Impact classification.
// Changes are discrete and field-scoped; there is no character-level text
// merging.
//
// # Thread Safety
//
// All values produced by this package are plain records. They are not safe
// for concurrent modification but can be read concurrently after creation.
package diff

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Change Types
// =============================================================================

// ChangeType categorizes how a field differs between two versions.
type ChangeType string

const (
	// ChangeAdded indicates the field exists only in the new version.
	ChangeAdded ChangeType = "added"

	// ChangeRemoved indicates the field exists only in the old version.
	ChangeRemoved ChangeType = "removed"

	// ChangeModified indicates the field exists in both versions with
	// different values.
	ChangeModified ChangeType = "modified"

	// ChangeReordered indicates a precondition moved position without its
	// value changing.
	ChangeReordered ChangeType = "reordered"
)

// String returns the string representation of the change type.
func (t ChangeType) String() string {
	return string(t)
}

// Inverse returns the change type of the inverted change.
// Added and Removed swap; Modified and Reordered are self-inverse.
func (t ChangeType) Inverse() ChangeType {
	switch t {
	case ChangeAdded:
		return ChangeRemoved
	case ChangeRemoved:
		return ChangeAdded
	default:
		return t
	}
}

// =============================================================================
// Change Targets
// =============================================================================

// TargetKind identifies which statute field a change applies to.
type TargetKind string

const (
	// TargetTitle targets the statute title.
	TargetTitle TargetKind = "title"

	// TargetPrecondition targets one precondition slot.
	TargetPrecondition TargetKind = "precondition"

	// TargetEffect targets the statute effect.
	TargetEffect TargetKind = "effect"

	// TargetDiscretion targets the discretion logic.
	TargetDiscretion TargetKind = "discretion_logic"

	// TargetMetadata targets one metadata key.
	TargetMetadata TargetKind = "metadata"
)

// Target is the field a change applies to.
//
// # Description
//
// Target is a comparable value: two changes conflict only when their targets
// are structurally equal (same kind, same index, same key). Index is only
// meaningful for precondition targets and Key only for metadata targets.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Index int        `json:"index,omitempty"`
	Key   string     `json:"key,omitempty"`
}

// TitleTarget returns the title target.
func TitleTarget() Target { return Target{Kind: TargetTitle} }

// PreconditionTarget returns the target for the precondition at idx.
func PreconditionTarget(idx int) Target {
	return Target{Kind: TargetPrecondition, Index: idx}
}

// EffectTarget returns the effect target.
func EffectTarget() Target { return Target{Kind: TargetEffect} }

// DiscretionTarget returns the discretion-logic target.
func DiscretionTarget() Target { return Target{Kind: TargetDiscretion} }

// MetadataTarget returns the target for the metadata entry at key.
func MetadataTarget(key string) Target {
	return Target{Kind: TargetMetadata, Key: key}
}

// String returns a short human-readable target label.
func (t Target) String() string {
	switch t.Kind {
	case TargetPrecondition:
		return fmt.Sprintf("precondition[%d]", t.Index)
	case TargetMetadata:
		return fmt.Sprintf("metadata[%s]", t.Key)
	default:
		return string(t.Kind)
	}
}

// =============================================================================
// Change
// =============================================================================

// Change is one atomic difference between two statute versions.
//
// # Description
//
// The value fields obey per-type invariants enforced by the differ:
//   - Added: OldValue nil, NewValue set.
//   - Removed: OldValue set, NewValue nil.
//   - Modified: both set.
//   - Reordered: both set, encoding the old and new position.
type Change struct {
	Type        ChangeType `json:"change_type"`
	Target      Target     `json:"target"`
	Description string     `json:"description"`
	OldValue    *string    `json:"old_value,omitempty"`
	NewValue    *string    `json:"new_value,omitempty"`
}

// Inverse returns the change that undoes this one.
// Old and new values swap, and Added/Removed swap type.
func (c Change) Inverse() Change {
	inv := c
	inv.Type = c.Type.Inverse()
	inv.OldValue, inv.NewValue = c.NewValue, c.OldValue
	return inv
}

// =============================================================================
// Severity and Impact
// =============================================================================

// Severity is the totally ordered impact classification of a change set.
// The zero value is SeverityNone; larger values are more consequential.
type Severity int

const (
	// SeverityNone indicates an empty change set.
	SeverityNone Severity = iota

	// SeverityMinor indicates cosmetic changes (title, metadata).
	SeverityMinor

	// SeverityModerate indicates eligibility-affecting changes.
	SeverityModerate

	// SeverityMajor indicates outcome- or discretion-affecting changes.
	SeverityMajor

	// SeverityBreaking indicates a change set that invalidates decisions
	// made under the prior version.
	SeverityBreaking
)

var severityNames = [...]string{"none", "minor", "moderate", "major", "breaking"}

// String returns the lowercase severity name.
func (s Severity) String() string {
	if s < SeverityNone || s > SeverityBreaking {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Impact classifies how consequential a change set is.
type Impact struct {
	// Severity is the overall classification.
	Severity Severity `json:"severity"`

	// AffectsEligibility is true when any precondition changed.
	AffectsEligibility bool `json:"affects_eligibility"`

	// AffectsOutcome is true when the effect changed.
	AffectsOutcome bool `json:"affects_outcome"`

	// DiscretionChanged is true when the discretion logic changed.
	DiscretionChanged bool `json:"discretion_changed"`
}

// =============================================================================
// StatuteDiff
// =============================================================================

// VersionInfo records the version labels of the compared snapshots.
type VersionInfo struct {
	OldVersion string `json:"old_version,omitempty"`
	NewVersion string `json:"new_version,omitempty"`
}

// Swapped returns the version info with old and new exchanged.
func (v VersionInfo) Swapped() VersionInfo {
	return VersionInfo{OldVersion: v.NewVersion, NewVersion: v.OldVersion}
}

// StatuteDiff is the structured difference between two statute snapshots.
type StatuteDiff struct {
	StatuteID   string       `json:"statute_id"`
	VersionInfo *VersionInfo `json:"version_info,omitempty"`
	Changes     []Change     `json:"changes"`
	Impact      Impact       `json:"impact"`
}

// IsEmpty reports whether the diff contains no changes.
func (d StatuteDiff) IsEmpty() bool {
	return len(d.Changes) == 0
}

// HasTargetKind reports whether any change targets the given field kind.
func (d StatuteDiff) HasTargetKind(kind TargetKind) bool {
	for _, c := range d.Changes {
		if c.Target.Kind == kind {
			return true
		}
	}
	return false
}
