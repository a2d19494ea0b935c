// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for revisiond.
//
// # Description
//
// The auth middleware gates mutating endpoints behind a static API key.
// The key is supplied as a bearer token:
//
//	Authorization: Bearer <key>
//
// When revisiond is configured without a key, every request passes. This
// keeps local single-user deployments working with zero auth setup while
// letting shared deployments require a key.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth creates a middleware that checks the bearer token against the
// configured key.
//
// # Description
//
// Comparison is constant time so the key cannot be probed byte by byte.
// An empty configured key disables the check entirely.
//
// # Inputs
//
//   - key: The configured API key. Empty disables auth.
//
// # Thread Safety
//
// The returned middleware is safe for concurrent use.
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		token := extractBearerToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// extractBearerToken parses "Authorization: Bearer <token>". The scheme is
// case-insensitive per RFC 7235. Returns empty on a missing or malformed
// header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
