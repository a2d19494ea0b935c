// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/notify"
	"github.com/LexForgeAI/LexForge/services/revision/rollback"
	"github.com/LexForgeAI/LexForge/services/revisiond/handlers"
	"github.com/LexForgeAI/LexForge/services/revisiond/middleware"
)

// Deps carries the shared engine components the routes close over.
type Deps struct {
	Differ          *diff.Differ
	Planner         *rollback.Planner
	Sessions        *collab.Server
	Hub             *notify.Hub
	APIKey          string
	StreamBatchSize int
}

// SetupRoutes registers every revisiond endpoint on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(deps.APIKey))
	{
		v1.POST("/diff", handlers.HandleComputeDiff(deps.Differ))
		v1.POST("/diff/stream", handlers.HandleStreamDiff(deps.Differ, deps.StreamBatchSize))
		rollbacks := v1.Group("/rollback")
		{
			rollbacks.POST("/plan", handlers.HandleRollbackPlan(deps.Planner))
			rollbacks.POST("/analyze", handlers.HandleRollbackAnalysis(deps.Planner))
			rollbacks.POST("/chain", handlers.HandleRollbackChain(deps.Planner))
			rollbacks.POST("/stats", handlers.HandleRollbackStats(deps.Planner))
		}
		// Collaborative session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(deps.Sessions))
			sessions.GET("", handlers.ListSessions(deps.Sessions))
			sessions.GET("/:sessionId", handlers.GetSession(deps.Sessions))
			sessions.DELETE("/:sessionId", handlers.EndSession(deps.Sessions))
			sessions.POST("/:sessionId/join", handlers.JoinSession(deps.Sessions))
			sessions.POST("/:sessionId/leave", handlers.LeaveSession(deps.Sessions))
			sessions.POST("/:sessionId/changes", handlers.SubmitChange(deps.Sessions))
			sessions.POST("/:sessionId/resolve", handlers.ResolveConflict(deps.Sessions))
			sessions.GET("/:sessionId/history", handlers.GetSessionHistory(deps.Sessions))
			sessions.GET("/:sessionId/users", handlers.GetSessionUsers(deps.Sessions))
			sessions.GET("/:sessionId/ws", handlers.HandleSessionWebSocket(deps.Sessions, deps.Hub))
		}
	}
}
