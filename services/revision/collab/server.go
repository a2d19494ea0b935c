// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collab

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Server Errors
// -----------------------------------------------------------------------------

var (
	// ErrSessionNotFound is returned for unknown or ended session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUpdateNotFound is returned when a conflict update id is absent
	// from the session's history.
	ErrUpdateNotFound = errors.New("update not found")

	// ErrInvalidResolution is returned when a resolution cannot be applied,
	// e.g. a custom resolution without a merged change, or a resolution
	// aimed at a non-conflict update.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// -----------------------------------------------------------------------------
// Server Metrics
// -----------------------------------------------------------------------------

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "revision_sessions_created_total",
		Help: "Total revision sessions created",
	})

	sessionsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_sessions_ended_total",
		Help: "Total revision sessions ended by reason",
	}, []string{"reason"})

	activeSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "revision_sessions_active",
		Help: "Currently active revision sessions",
	})

	changesSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_changes_submitted_total",
		Help: "Total submitted changes by outcome",
	}, []string{"outcome"})

	conflictsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_conflicts_resolved_total",
		Help: "Total conflicts resolved by strategy",
	}, []string{"strategy"})
)

// -----------------------------------------------------------------------------
// RevisionServer
// -----------------------------------------------------------------------------

// UpdateSink receives every DiffUpdate appended to any session, and the
// terminal SessionEnded updates. Called outside the registry lock.
type UpdateSink func(update DiffUpdate)

// Server owns the registry of collaborative revision sessions.
//
// # Description
//
// A single RWMutex guards the registry; every operation acquires it,
// performs its in-memory read or mutation, and releases it. No I/O happens
// under the lock, so operations on one session are serializable in
// lock-acquisition order and operations on different sessions impose no
// relative ordering on each other. Construct explicitly with NewServer and
// pass by handle; there is no package-level singleton.
//
// # Thread Safety
//
// Safe for concurrent use by any number of goroutines.
type Server struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	sink UpdateSink
	now  func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithUpdateSink registers a sink notified of every appended update.
func WithUpdateSink(sink UpdateSink) ServerOption {
	return func(s *Server) { s.sink = sink }
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer creates an empty session registry.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession registers a fresh Active session for a statute.
//
// # Outputs
//
//   - string: The new session id (UUID).
func (s *Server) CreateSession(statuteID string) string {
	id := uuid.New().String()
	now := s.now()

	s.mu.Lock()
	s.sessions[id] = &Session{
		ID:           id,
		StatuteID:    statuteID,
		ActiveUsers:  make(map[string]struct{}),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.mu.Unlock()

	sessionsCreatedTotal.Inc()
	activeSessionsGauge.Inc()
	slog.Info("revision session created", "session_id", id, "statute_id", statuteID)
	return id
}

// JoinSession adds a user to the session. Idempotent.
func (s *Server) JoinSession(sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.ActiveUsers[userID] = struct{}{}
	sess.LastActivity = s.now()
	return nil
}

// LeaveSession removes a user from the session. Removing an absent user is
// a successful no-op.
func (s *Server) LeaveSession(sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(sess.ActiveUsers, userID)
	sess.LastActivity = s.now()
	return nil
}

// SubmitChange records a change under the optimistic-concurrency policy.
//
// # Description
//
// Runs conflict detection against the session's pending changes, then
// appends the change to pending regardless of the outcome: conflicts are
// advisory, never blocking. A history entry of type Conflict (when a clash
// was found) or Incremental is appended and returned. A Conflict-typed
// update signals the caller that a follow-up ResolveConflict is expected.
//
// # Outputs
//
//   - DiffUpdate: The appended history entry.
//   - error: ErrSessionNotFound for unknown ids; no side effects then.
func (s *Server) SubmitChange(sessionID, userID string, change Change) (DiffUpdate, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return DiffUpdate{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	conflict := DetectConflict(sess.PendingChanges, change)
	sess.PendingChanges = append(sess.PendingChanges, change)

	update := DiffUpdate{
		UpdateID:  uuid.New().String(),
		SessionID: sessionID,
		Type:      UpdateIncremental,
		Timestamp: s.now(),
		Change:    &change,
		UserID:    userID,
	}
	if conflict != nil {
		update.Type = UpdateConflict
		update.Conflict = conflict
	}
	sess.History = append(sess.History, update)
	sess.LastActivity = update.Timestamp
	s.mu.Unlock()

	outcome := "incremental"
	if conflict != nil {
		outcome = "conflict"
		slog.Warn("conflicting change submitted",
			"session_id", sessionID,
			"user_id", userID,
			"target", change.Target.String(),
			"conflict_type", string(conflict.Type),
		)
	}
	changesSubmittedTotal.WithLabelValues(outcome).Inc()

	s.emit(update)
	return update, nil
}

// ResolveConflict records a resolution decision for a conflict entry.
//
// # Description
//
// Looks up the Conflict-typed update by id in the session history and
// appends a ConflictResolved entry carrying the winning change: the first
// conflicting change for UseFirst, the second for UseSecond and for Merge
// (Merge is intentionally an alias today), or the supplied replacement for
// Custom. Resolution is logged, not applied: the original conflicting
// entries remain in PendingChanges untouched. Reconciliation is a separate
// merge step outside this engine.
//
// # Outputs
//
//   - DiffUpdate: The appended ConflictResolved entry.
//   - error: ErrSessionNotFound, ErrUpdateNotFound, or ErrInvalidResolution.
func (s *Server) ResolveConflict(sessionID, updateID string, res Resolution) (DiffUpdate, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return DiffUpdate{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	var target *DiffUpdate
	for i := range sess.History {
		if sess.History[i].UpdateID == updateID {
			target = &sess.History[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return DiffUpdate{}, fmt.Errorf("%w: %s", ErrUpdateNotFound, updateID)
	}
	if target.Type != UpdateConflict || target.Conflict == nil {
		s.mu.Unlock()
		return DiffUpdate{}, fmt.Errorf("%w: update %s is not a conflict", ErrInvalidResolution, updateID)
	}

	winner, err := pickWinner(target.Conflict, res)
	if err != nil {
		s.mu.Unlock()
		return DiffUpdate{}, err
	}

	update := DiffUpdate{
		UpdateID:  uuid.New().String(),
		SessionID: sessionID,
		Type:      UpdateConflictResolved,
		Timestamp: s.now(),
		Change:    &winner,
	}
	sess.History = append(sess.History, update)
	sess.LastActivity = update.Timestamp
	s.mu.Unlock()

	conflictsResolvedTotal.WithLabelValues(string(res.Strategy)).Inc()
	slog.Info("conflict resolved",
		"session_id", sessionID,
		"update_id", updateID,
		"strategy", string(res.Strategy),
	)

	s.emit(update)
	return update, nil
}

// pickWinner selects the change a resolution settles on.
func pickWinner(conflict *ConflictInfo, res Resolution) (Change, error) {
	switch res.Strategy {
	case ResolveUseFirst:
		return conflict.ConflictingChanges[0], nil
	case ResolveUseSecond, ResolveMerge:
		return conflict.ConflictingChanges[len(conflict.ConflictingChanges)-1], nil
	case ResolveCustom:
		if res.MergedChange == nil {
			return Change{}, fmt.Errorf("%w: custom resolution requires a merged change", ErrInvalidResolution)
		}
		return *res.MergedChange, nil
	default:
		return Change{}, fmt.Errorf("%w: unknown strategy %q", ErrInvalidResolution, res.Strategy)
	}
}

// GetHistory returns a snapshot copy of the session's update log.
func (s *Server) GetHistory(sessionID string) ([]DiffUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	out := make([]DiffUpdate, len(sess.History))
	copy(out, sess.History)
	return out, nil
}

// GetActiveUsers returns the current participant list, sorted for
// deterministic output.
func (s *Server) GetActiveUsers(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sortedUsers(sess), nil
}

// GetSession returns a read-only snapshot of the session state.
func (s *Server) GetSession(sessionID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return snapshotOf(sess), nil
}

// ListSessions returns snapshots of every active session.
func (s *Server) ListSessions() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, snapshotOf(sess))
	}
	return out
}

// EndSession removes the session from the registry.
//
// # Description
//
// The returned SessionEnded update is terminal: it is handed to the caller
// and the sink but retained nowhere, since the session it belongs to no
// longer exists.
func (s *Server) EndSession(sessionID string) (DiffUpdate, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return DiffUpdate{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	update := DiffUpdate{
		UpdateID:  uuid.New().String(),
		SessionID: sessionID,
		Type:      UpdateSessionEnded,
		Timestamp: s.now(),
	}

	sessionsEndedTotal.WithLabelValues("explicit").Inc()
	activeSessionsGauge.Dec()
	slog.Info("revision session ended",
		"session_id", sessionID,
		"statute_id", sess.StatuteID,
		"pending_changes", len(sess.PendingChanges),
	)

	s.emit(update)
	return update, nil
}

// ExpireIdleSessions ends every session idle for longer than maxIdle.
//
// # Description
//
// Idle expiry is an operational policy layered on top of the core
// operations, not part of them; the revisiond reaper calls this on a
// ticker. Returns the ids of the sessions that were ended.
func (s *Server) ExpireIdleSessions(maxIdle time.Duration) []string {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		sessionsEndedTotal.WithLabelValues("idle").Inc()
		activeSessionsGauge.Dec()
		slog.Info("idle revision session expired", "session_id", id, "max_idle", maxIdle)
		s.emit(DiffUpdate{
			UpdateID:  uuid.New().String(),
			SessionID: id,
			Type:      UpdateSessionEnded,
			Timestamp: s.now(),
		})
	}
	return expired
}

// emit hands an update to the sink, if any. Never called under the lock.
func (s *Server) emit(update DiffUpdate) {
	if s.sink != nil {
		s.sink(update)
	}
}

func snapshotOf(sess *Session) Snapshot {
	pending := make([]Change, len(sess.PendingChanges))
	copy(pending, sess.PendingChanges)
	return Snapshot{
		ID:             sess.ID,
		StatuteID:      sess.StatuteID,
		ActiveUsers:    sortedUsers(sess),
		PendingChanges: pending,
		CreatedAt:      sess.CreatedAt,
		LastActivity:   sess.LastActivity,
	}
}

func sortedUsers(sess *Session) []string {
	users := make([]string, 0, len(sess.ActiveUsers))
	for u := range sess.ActiveUsers {
		users = append(users, u)
	}
	slices.Sort(users)
	return users
}
