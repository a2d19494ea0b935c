// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/notify"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
	"github.com/LexForgeAI/LexForge/services/revisiond/observability"
)

// wsSendBuffer is the per-connection outbound queue. Updates beyond it are
// dropped; delivery is best effort, not a durable log.
const wsSendBuffer = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// wsRequest is one inbound client message on a session socket.
type wsRequest struct {
	// Action is "submit_change", "resolve_conflict", or "ping".
	Action string `json:"action"`

	UserID       string                   `json:"user_id,omitempty"`
	Change       *datatypes.ChangePayload `json:"change,omitempty"`
	UpdateID     string                   `json:"update_id,omitempty"`
	Strategy     string                   `json:"strategy,omitempty"`
	MergedChange *datatypes.ChangePayload `json:"merged_change,omitempty"`
}

func sendJSON(ws *websocket.Conn, v any) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("failed to write websocket JSON", "error", err)
	}
	return err
}

// HandleSessionWebSocket attaches a client to a session's live update feed.
//
// # Description
//
// GET /v1/sessions/:sessionId/ws. On connect, the client joins the session
// (user id from the "user" query parameter) and is subscribed to the
// session's hub topic. Updates arriving on the topic are forwarded as JSON
// frames via a buffered send queue; a full queue drops updates rather than
// blocking the publisher. Inbound frames carry submit and resolve actions,
// so a client can edit and observe over one connection. On disconnect the
// user leaves the session and the subscription is removed.
func HandleSessionWebSocket(server *collab.Server, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		userID := c.Query("user")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user query parameter required"})
			return
		}

		if _, err := server.GetSession(sessionID); err != nil {
			c.JSON(sessionStatus(err), gin.H{"error": err.Error()})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade websocket", "session_id", sessionID, "error", err)
			return
		}
		defer ws.Close()

		if err := server.JoinSession(sessionID, userID); err != nil {
			sendJSON(ws, gin.H{"error": err.Error()})
			return
		}
		defer func() {
			if err := server.LeaveSession(sessionID, userID); err != nil {
				slog.Debug("leave on disconnect", "session_id", sessionID, "error", err)
			}
		}()

		observability.StreamOpened("websocket")
		defer observability.StreamClosed("websocket")
		slog.Info("websocket client connected", "session_id", sessionID, "user_id", userID)

		// Forward hub updates through a buffered queue so a slow client
		// cannot stall Notify. The unsubscribe defer runs before the close
		// defer, so no handler can write to a closed queue.
		sendQueue := make(chan collab.DiffUpdate, wsSendBuffer)
		defer close(sendQueue)

		topic := notify.SessionTopic(sessionID)
		subID := hub.Subscribe(topic, func(u collab.DiffUpdate) {
			select {
			case sendQueue <- u:
			default:
				slog.Warn("websocket send queue full, dropping update",
					"session_id", sessionID, "user_id", userID, "update_id", u.UpdateID)
			}
		})
		defer hub.Unsubscribe(topic, subID)

		go func() {
			for u := range sendQueue {
				if err := sendJSON(ws, gin.H{"action": "update", "update": u}); err != nil {
					return
				}
			}
		}()

		if err := sendJSON(ws, gin.H{"action": "connected", "session_id": sessionID}); err != nil {
			return
		}

		for {
			var req wsRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("websocket client disconnected",
					"session_id", sessionID, "user_id", userID, "error", err.Error())
				return
			}

			switch req.Action {
			case "ping":
				if err := sendJSON(ws, gin.H{"action": "pong"}); err != nil {
					return
				}

			case "submit_change":
				if req.Change == nil {
					sendJSON(ws, gin.H{"action": "error", "error": "change required"})
					continue
				}
				submitter := req.UserID
				if submitter == "" {
					submitter = userID
				}
				update, err := server.SubmitChange(sessionID, submitter, req.Change.ToChange())
				if err != nil {
					sendJSON(ws, gin.H{"action": "error", "error": err.Error()})
					continue
				}
				// The hub also fans this out; the direct ack carries the
				// update id the client needs for a follow-up resolve.
				if err := sendJSON(ws, gin.H{"action": "submitted", "update": update}); err != nil {
					return
				}

			case "resolve_conflict":
				res := collab.Resolution{Strategy: collab.ResolutionStrategy(req.Strategy)}
				if req.MergedChange != nil {
					merged := req.MergedChange.ToChange()
					res.MergedChange = &merged
				}
				update, err := server.ResolveConflict(sessionID, req.UpdateID, res)
				if err != nil {
					sendJSON(ws, gin.H{"action": "error", "error": err.Error()})
					continue
				}
				if err := sendJSON(ws, gin.H{"action": "resolved", "update": update}); err != nil {
					return
				}

			default:
				sendJSON(ws, gin.H{"action": "error", "error": "unknown action"})
			}
		}
	}
}
