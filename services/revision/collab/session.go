// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package collab coordinates concurrent multi-user edits to a
// statute-in-revision.
//
// # Description
//
// A Session is the in-memory editing context for one statute: the set of
// active users, the ordered pending changes, and an append-only history of
// DiffUpdates. Sessions live in a RevisionServer registry and are only ever
// touched through it. Conflicts are advisory under an optimistic-concurrency
// policy: a submitted change is never rejected, it is appended and the
// clash is surfaced for later resolution.
//
// # Thread Safety
//
// Session values are owned by the RevisionServer and must not be mutated
// outside it; the server's lock is the single mutual-exclusion domain.
package collab

import (
	"time"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// Change aliases diff.Change; sessions accumulate the same field-level
// changes the differ emits.
type Change = diff.Change

// UpdateType identifies the kind of a session history entry.
type UpdateType string

const (
	// UpdateInitial seeds a session with a precomputed diff.
	UpdateInitial UpdateType = "initial"

	// UpdateIncremental records a non-conflicting submitted change.
	UpdateIncremental UpdateType = "incremental"

	// UpdateConflict records a submitted change that clashed with a pending
	// one. The change is still appended; the conflict is advisory.
	UpdateConflict UpdateType = "conflict"

	// UpdateConflictResolved records a resolution decision for an earlier
	// conflict entry.
	UpdateConflictResolved UpdateType = "conflict_resolved"

	// UpdateSessionEnded is the terminal event returned by EndSession. It
	// is handed to the caller and not retained anywhere.
	UpdateSessionEnded UpdateType = "session_ended"
)

// DiffUpdate is one session event.
type DiffUpdate struct {
	UpdateID  string        `json:"update_id"`
	SessionID string        `json:"session_id"`
	Type      UpdateType    `json:"update_type"`
	Timestamp time.Time     `json:"timestamp"`
	Change    *diff.Change  `json:"change,omitempty"`
	Conflict  *ConflictInfo `json:"conflict,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
}

// Session is a per-statute collaborative editing context.
//
// # Fields
//
//   - ID: Registry key, assigned at creation.
//   - StatuteID: The statute under revision.
//   - ActiveUsers: Current participants (set semantics).
//   - PendingChanges: Ordered, append-only unmerged changes.
//   - History: Append-only DiffUpdate log.
//   - CreatedAt / LastActivity: Bookkeeping for idle expiry, which is an
//     external policy layered on top of the server.
type Session struct {
	ID             string
	StatuteID      string
	ActiveUsers    map[string]struct{}
	PendingChanges []diff.Change
	History        []DiffUpdate
	CreatedAt      time.Time
	LastActivity   time.Time
}

// Snapshot is a read-only copy of session state returned to callers.
type Snapshot struct {
	ID             string        `json:"id"`
	StatuteID      string        `json:"statute_id"`
	ActiveUsers    []string      `json:"active_users"`
	PendingChanges []diff.Change `json:"pending_changes"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivity   time.Time     `json:"last_activity"`
}

// Resolution selects how a recorded conflict should be settled.
//
// MergedChange is required for ResolveCustom and ignored otherwise.
type Resolution struct {
	Strategy     ResolutionStrategy `json:"strategy"`
	MergedChange *diff.Change       `json:"merged_change,omitempty"`
}
