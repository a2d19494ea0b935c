// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
)

// sessionStatus maps a collab error to its HTTP status.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, collab.ErrSessionNotFound), errors.Is(err, collab.ErrUpdateNotFound):
		return http.StatusNotFound
	case errors.Is(err, collab.ErrInvalidResolution):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateSession opens a collaborative revision session.
//
// POST /v1/sessions.
func CreateSession(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("session", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("session", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := server.CreateSession(req.StatuteID)
		observability.ObserveRequest("session", "success", time.Since(start).Seconds())
		c.JSON(http.StatusCreated, gin.H{"session_id": id})
	}
}

// ListSessions returns snapshots of every active session.
//
// GET /v1/sessions.
func ListSessions(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": server.ListSessions()})
	}
}

// GetSession returns one session snapshot.
//
// GET /v1/sessions/:sessionId.
func GetSession(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := server.GetSession(c.Param("sessionId"))
		if err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// JoinSession adds the requesting user to a session.
//
// POST /v1/sessions/:sessionId/join.
func JoinSession(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := server.JoinSession(c.Param("sessionId"), req.UserID); err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "joined"})
	}
}

// LeaveSession removes the requesting user from a session.
//
// POST /v1/sessions/:sessionId/leave.
func LeaveSession(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := server.LeaveSession(c.Param("sessionId"), req.UserID); err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "left"})
	}
}

// SubmitChange records one change under the optimistic-concurrency policy.
//
// # Description
//
// POST /v1/sessions/:sessionId/changes. The change is always appended; a
// clash with a pending change comes back as a Conflict-typed update in the
// 200 response, never as an error status.
func SubmitChange(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.SubmitChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.ObserveRequest("submit", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			observability.ObserveRequest("submit", "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update, err := server.SubmitChange(c.Param("sessionId"), req.UserID, req.Change.ToChange())
		if err != nil {
			observability.ObserveRequest("submit", "error", time.Since(start).Seconds())
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		observability.ObserveRequest("submit", "success", time.Since(start).Seconds())
		c.JSON(http.StatusOK, update)
	}
}

// ResolveConflict settles a recorded conflict by strategy.
//
// POST /v1/sessions/:sessionId/resolve.
func ResolveConflict(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ResolveConflictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update, err := server.ResolveConflict(c.Param("sessionId"), req.UpdateID, req.ToResolution())
		if err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, update)
	}
}

// GetSessionHistory returns the session's append-only update log.
//
// GET /v1/sessions/:sessionId/history.
func GetSessionHistory(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := server.GetHistory(c.Param("sessionId"))
		if err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

// GetSessionUsers returns the sorted participant list.
//
// GET /v1/sessions/:sessionId/users.
func GetSessionUsers(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := server.GetActiveUsers(c.Param("sessionId"))
		if err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active_users": users})
	}
}

// EndSession removes a session from the registry.
//
// DELETE /v1/sessions/:sessionId.
func EndSession(server *collab.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		update, err := server.EndSession(c.Param("sessionId"))
		if err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, update)
	}
}
