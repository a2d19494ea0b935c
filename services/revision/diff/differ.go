// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diff

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/LexForgeAI/LexForge/services/revision/statute"
)

var differTracer = otel.Tracer("revision.diff")

// ErrStatuteIDMismatch is returned when the two snapshots belong to
// different statutes.
var ErrStatuteIDMismatch = errors.New("statute ids differ")

// Differ computes structured diffs between statute snapshots.
//
// # Description
//
// The zero value is not usable; construct with NewDiffer. The impact
// policy controls the Breaking escalation threshold and may be swapped at
// runtime (the differ reads it per call, see Compute).
//
// # Thread Safety
//
// Safe for concurrent use. The policy is read through a getter so a config
// reload can replace it without tearing.
type Differ struct {
	policy func() ImpactPolicy
}

// NewDiffer creates a differ with the given impact policy.
func NewDiffer(policy ImpactPolicy) *Differ {
	return &Differ{policy: func() ImpactPolicy { return policy }}
}

// NewDifferWithPolicyFunc creates a differ whose policy is resolved per
// call. Used when the policy is hot-reloadable from configuration.
func NewDifferWithPolicyFunc(policy func() ImpactPolicy) *Differ {
	return &Differ{policy: policy}
}

// Compute returns the structured diff between two snapshots of one statute.
//
// # Description
//
// Per-field rules:
//   - Title: Modified when the strings differ.
//   - Effect: Modified when type or description differ.
//   - DiscretionLogic: Added/Removed on presence transitions, Modified on
//     value change.
//   - Metadata: per-key Added/Removed/Modified, keys in sorted order.
//   - Preconditions: keyed by logical slot. A key only in the new version
//     is Added; only in the old version is Removed; present in both with a
//     different expression is Modified; present in both unchanged but at a
//     different position is Reordered (old/new position encoded in the
//     value fields). A semantically different condition at the same
//     position has a different key and therefore surfaces as a
//     Removed+Added pair, never as Modified.
//
// # Inputs
//
//   - old: Prior snapshot.
//   - new: Later snapshot. Must share old's ID.
//
// # Outputs
//
//   - StatuteDiff: Ordered changes plus derived impact.
//   - error: ErrStatuteIDMismatch when the snapshots are not comparable.
func (d *Differ) Compute(old, new statute.Statute) (StatuteDiff, error) {
	if old.ID != new.ID {
		return StatuteDiff{}, fmt.Errorf("%w: %q vs %q", ErrStatuteIDMismatch, old.ID, new.ID)
	}

	_, span := differTracer.Start(context.Background(), "diff.Compute")
	defer span.End()

	var changes []Change

	if old.Title != new.Title {
		changes = append(changes, Change{
			Type:        ChangeModified,
			Target:      TitleTarget(),
			Description: fmt.Sprintf("title changed from %q to %q", old.Title, new.Title),
			OldValue:    ptr(old.Title),
			NewValue:    ptr(new.Title),
		})
	}

	changes = append(changes, diffPreconditions(old, new)...)

	if !old.Effect.Equal(new.Effect) {
		changes = append(changes, Change{
			Type:        ChangeModified,
			Target:      EffectTarget(),
			Description: "effect changed",
			OldValue:    ptr(formatEffect(old.Effect)),
			NewValue:    ptr(formatEffect(new.Effect)),
		})
	}

	changes = append(changes, diffDiscretion(old.DiscretionLogic, new.DiscretionLogic)...)
	changes = append(changes, diffMetadata(old.Metadata, new.Metadata)...)

	out := StatuteDiff{
		StatuteID: old.ID,
		Changes:   changes,
		Impact:    ClassifyImpact(changes, d.policy()),
	}
	if old.Version != "" || new.Version != "" {
		out.VersionInfo = &VersionInfo{OldVersion: old.Version, NewVersion: new.Version}
	}

	span.SetAttributes(
		attribute.String("statute_id", old.ID),
		attribute.Int("change_count", len(changes)),
		attribute.String("severity", out.Impact.Severity.String()),
	)
	return out, nil
}

// diffPreconditions compares the two ordered precondition lists.
//
// Emission order: Added (by new position), Removed (by old position),
// Modified (by old position), then Reordered (by old position). The order
// is deterministic for a given input pair.
func diffPreconditions(old, new statute.Statute) []Change {
	var changes []Change

	for i, p := range new.Preconditions {
		if old.PreconditionIndex(p.Key) < 0 {
			changes = append(changes, Change{
				Type:        ChangeAdded,
				Target:      PreconditionTarget(i),
				Description: fmt.Sprintf("precondition %q added", p.Key),
				NewValue:    ptr(p.Expr),
			})
		}
	}

	for i, p := range old.Preconditions {
		newIdx := new.PreconditionIndex(p.Key)
		if newIdx < 0 {
			changes = append(changes, Change{
				Type:        ChangeRemoved,
				Target:      PreconditionTarget(i),
				Description: fmt.Sprintf("precondition %q removed", p.Key),
				OldValue:    ptr(p.Expr),
			})
			continue
		}

		if newExpr := new.Preconditions[newIdx].Expr; newExpr != p.Expr {
			changes = append(changes, Change{
				Type:        ChangeModified,
				Target:      PreconditionTarget(i),
				Description: fmt.Sprintf("precondition %q modified", p.Key),
				OldValue:    ptr(p.Expr),
				NewValue:    ptr(newExpr),
			})
		}
	}

	// Reorders only apply to surviving, unmodified slots whose position
	// shifted. Additions and removals already explain other index drift, so
	// reorders are reported only when the surviving keys alone changed
	// relative order.
	survivorsOld := survivorKeys(old, new)
	survivorsNew := survivorKeys(new, old)
	if !equalStrings(survivorsOld, survivorsNew) {
		for i, p := range old.Preconditions {
			newIdx := new.PreconditionIndex(p.Key)
			if newIdx < 0 || new.Preconditions[newIdx].Expr != p.Expr {
				continue
			}
			if indexIn(survivorsOld, p.Key) != indexIn(survivorsNew, p.Key) {
				changes = append(changes, Change{
					Type:        ChangeReordered,
					Target:      PreconditionTarget(i),
					Description: fmt.Sprintf("precondition %q reordered", p.Key),
					OldValue:    ptr(fmt.Sprintf("position %d", i)),
					NewValue:    ptr(fmt.Sprintf("position %d", newIdx)),
				})
			}
		}
	}

	return changes
}

// survivorKeys returns the keys of a's preconditions that also exist in b,
// in a's order.
func survivorKeys(a, b statute.Statute) []string {
	var keys []string
	for _, p := range a.Preconditions {
		if b.PreconditionIndex(p.Key) >= 0 {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

func indexIn(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffDiscretion handles the presence/equality transitions of the optional
// discretion logic.
func diffDiscretion(old, new *string) []Change {
	switch {
	case old == nil && new == nil:
		return nil
	case old == nil:
		return []Change{{
			Type:        ChangeAdded,
			Target:      DiscretionTarget(),
			Description: "discretion logic added",
			NewValue:    ptr(*new),
		}}
	case new == nil:
		return []Change{{
			Type:        ChangeRemoved,
			Target:      DiscretionTarget(),
			Description: "discretion logic removed",
			OldValue:    ptr(*old),
		}}
	case *old != *new:
		return []Change{{
			Type:        ChangeModified,
			Target:      DiscretionTarget(),
			Description: "discretion logic modified",
			OldValue:    ptr(*old),
			NewValue:    ptr(*new),
		}}
	default:
		return nil
	}
}

// diffMetadata compares metadata maps key by key, in sorted key order so
// diff output is deterministic.
func diffMetadata(old, new map[string]string) []Change {
	keys := make(map[string]struct{}, len(old)+len(new))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range new {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []Change
	for _, k := range sorted {
		oldVal, inOld := old[k]
		newVal, inNew := new[k]
		switch {
		case !inOld:
			changes = append(changes, Change{
				Type:        ChangeAdded,
				Target:      MetadataTarget(k),
				Description: fmt.Sprintf("metadata %q added", k),
				NewValue:    ptr(newVal),
			})
		case !inNew:
			changes = append(changes, Change{
				Type:        ChangeRemoved,
				Target:      MetadataTarget(k),
				Description: fmt.Sprintf("metadata %q removed", k),
				OldValue:    ptr(oldVal),
			})
		case oldVal != newVal:
			changes = append(changes, Change{
				Type:        ChangeModified,
				Target:      MetadataTarget(k),
				Description: fmt.Sprintf("metadata %q modified", k),
				OldValue:    ptr(oldVal),
				NewValue:    ptr(newVal),
			})
		}
	}
	return changes
}

func formatEffect(e statute.Effect) string {
	return e.Type + ": " + e.Description
}

func ptr(s string) *string { return &s }
