// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// Tests for the session handlers

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
)

func sessionRouter(server *collab.Server) *gin.Engine {
	router := gin.New()
	sessions := router.Group("/v1/sessions")
	{
		sessions.POST("", CreateSession(server))
		sessions.GET("", ListSessions(server))
		sessions.GET("/:sessionId", GetSession(server))
		sessions.DELETE("/:sessionId", EndSession(server))
		sessions.POST("/:sessionId/join", JoinSession(server))
		sessions.POST("/:sessionId/leave", LeaveSession(server))
		sessions.POST("/:sessionId/changes", SubmitChange(server))
		sessions.POST("/:sessionId/resolve", ResolveConflict(server))
		sessions.GET("/:sessionId/history", GetSessionHistory(server))
		sessions.GET("/:sessionId/users", GetSessionUsers(server))
	}
	return router
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := postJSON(t, router, "/v1/sessions", datatypes.CreateSessionRequest{StatuteID: "statute-1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["session_id"])
	return resp["session_id"]
}

func titlePayload(from, to string) datatypes.ChangePayload {
	return datatypes.ChangePayload{
		Type:       "modified",
		TargetKind: "title",
		OldValue:   &from,
		NewValue:   &to,
	}
}

func TestCreateSession_RequiresStatuteID(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	w := postJSON(t, router, "/v1/sessions", datatypes.CreateSessionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle_OverHTTP(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	id := createSession(t, router)

	// Join two users.
	w := postJSON(t, router, "/v1/sessions/"+id+"/join", datatypes.UserRequest{UserID: "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, router, "/v1/sessions/"+id+"/join", datatypes.UserRequest{UserID: "bob"})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/sessions/"+id+"/users", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		ActiveUsers []string `json:"active_users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Equal(t, []string{"alice", "bob"}, users.ActiveUsers)

	// Submit a clean change.
	w = postJSON(t, router, "/v1/sessions/"+id+"/changes", datatypes.SubmitChangeRequest{
		UserID: "alice",
		Change: titlePayload("X", "Y"),
	})
	require.Equal(t, http.StatusOK, w.Code)
	var first collab.DiffUpdate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, collab.UpdateIncremental, first.Type)

	// A second modification of the same target conflicts but still lands.
	w = postJSON(t, router, "/v1/sessions/"+id+"/changes", datatypes.SubmitChangeRequest{
		UserID: "bob",
		Change: titlePayload("X", "Z"),
	})
	require.Equal(t, http.StatusOK, w.Code)
	var second collab.DiffUpdate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Equal(t, collab.UpdateConflict, second.Type)
	require.NotNil(t, second.Conflict)
	assert.Equal(t, collab.ConflictConcurrentModification, second.Conflict.Type)

	// Resolve in bob's favor.
	w = postJSON(t, router, "/v1/sessions/"+id+"/resolve", datatypes.ResolveConflictRequest{
		UpdateID: second.UpdateID,
		Strategy: "use_second",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resolved collab.DiffUpdate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, collab.UpdateConflictResolved, resolved.Type)
	require.NotNil(t, resolved.Change)
	assert.Equal(t, "Z", *resolved.Change.NewValue)

	// History carries all three entries; pending still has both changes.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/sessions/"+id+"/history", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		History []collab.DiffUpdate `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.History, 3)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/sessions/"+id, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var snap collab.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Len(t, snap.PendingChanges, 2)

	// End the session.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/v1/sessions/"+id, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/sessions/"+id, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlers_UnknownSession(t *testing.T) {
	router := sessionRouter(collab.NewServer())

	w := postJSON(t, router, "/v1/sessions/nope/join", datatypes.UserRequest{UserID: "alice"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(t, router, "/v1/sessions/nope/changes", datatypes.SubmitChangeRequest{
		UserID: "alice",
		Change: titlePayload("X", "Y"),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/sessions/nope", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitChange_RejectsBadChangeType(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	id := createSession(t, router)

	w := postJSON(t, router, "/v1/sessions/"+id+"/changes", datatypes.SubmitChangeRequest{
		UserID: "alice",
		Change: datatypes.ChangePayload{Type: "mutated", TargetKind: "title"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveConflict_BadStrategyRejected(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	id := createSession(t, router)

	w := postJSON(t, router, "/v1/sessions/"+id+"/resolve", datatypes.ResolveConflictRequest{
		UpdateID: "u1",
		Strategy: "coin_flip",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveConflict_UnknownUpdate(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	id := createSession(t, router)

	w := postJSON(t, router, "/v1/sessions/"+id+"/resolve", datatypes.ResolveConflictRequest{
		UpdateID: "missing",
		Strategy: "use_first",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessions_ReturnsAll(t *testing.T) {
	router := sessionRouter(collab.NewServer())
	createSession(t, router)
	createSession(t, router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/sessions", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []collab.Snapshot `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 2)
}
