// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package statute defines the immutable statute snapshot consumed by the
// revision engine.
//
// # Description
//
// A Statute is supplied by an external store/verifier and is read-only to
// this engine. Two snapshots are only comparable when their IDs match; the
// ID is the statute's identity across versions.
//
// # Thread Safety
//
// Snapshots are treated as immutable after construction. The engine never
// mutates a Statute it receives.
package statute

import (
	"maps"
	"slices"
)

// Precondition is one eligibility condition of a statute.
//
// # Description
//
// Key identifies the logical slot of the condition (its purpose, e.g. "age"
// or "income"); Expr is the condition itself (e.g. "age >= 18"). The differ
// uses Key to distinguish a refinement of an existing condition (same Key,
// new Expr) from a semantic replacement (new Key at the same position).
type Precondition struct {
	Key  string `json:"key"`
	Expr string `json:"expr"`
}

// Effect describes what the statute does when its preconditions hold.
type Effect struct {
	// Type is the effect category (e.g. "grant", "revoke", "obligation").
	Type string `json:"type"`

	// Description is the human-readable effect text.
	Description string `json:"description"`
}

// Equal reports whether two effects are semantically identical.
func (e Effect) Equal(other Effect) bool {
	return e.Type == other.Type && e.Description == other.Description
}

// Statute is an immutable snapshot of a statute version.
type Statute struct {
	// ID is the stable identity of the statute across versions.
	ID string `json:"id"`

	// Title is the statute's short title.
	Title string `json:"title"`

	// Preconditions are the ordered eligibility conditions.
	Preconditions []Precondition `json:"preconditions"`

	// Effect is the statute's operative effect.
	Effect Effect `json:"effect"`

	// DiscretionLogic is the optional discretionary-review rule.
	// Nil when the statute grants no discretion.
	DiscretionLogic *string `json:"discretion_logic,omitempty"`

	// Metadata holds free-form annotations (jurisdiction, chapter, tags).
	Metadata map[string]string `json:"metadata,omitempty"`

	// Version is the optional version label of this snapshot.
	Version string `json:"version,omitempty"`
}

// Clone returns a deep copy of the snapshot.
//
// The engine hands snapshots to concurrent consumers; cloning at the
// boundary keeps the original immutable.
func (s Statute) Clone() Statute {
	out := s
	out.Preconditions = slices.Clone(s.Preconditions)
	if s.DiscretionLogic != nil {
		v := *s.DiscretionLogic
		out.DiscretionLogic = &v
	}
	if s.Metadata != nil {
		out.Metadata = maps.Clone(s.Metadata)
	}
	return out
}

// PreconditionIndex returns the position of the precondition with the given
// key, or -1 when absent.
func (s Statute) PreconditionIndex(key string) int {
	return slices.IndexFunc(s.Preconditions, func(p Precondition) bool {
		return p.Key == key
	})
}
