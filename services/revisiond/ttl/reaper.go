// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ttl expires idle revision sessions on a schedule.
//
// # Description
//
// Sessions accumulate in memory until ended; abandoned ones would leak
// without a reaper. The reaper sweeps on a fixed interval and ends every
// session whose last activity is older than the configured TTL. Expiry is
// an operational policy layered on top of the session registry, not part
// of its core operations.
package ttl

import (
	"context"
	"log/slog"
	"time"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
)

// Reaper periodically expires idle sessions in a registry.
//
// # Thread Safety
//
// Run is intended for a single goroutine; the registry it sweeps is
// internally synchronized.
type Reaper struct {
	sessions *collab.Server
	maxIdle  time.Duration
	interval time.Duration
}

// NewReaper creates a reaper over the session registry.
//
// # Inputs
//
//   - sessions: The registry to sweep.
//   - maxIdle: Idle duration after which a session is expired.
//   - interval: Sweep frequency.
func NewReaper(sessions *collab.Server, maxIdle, interval time.Duration) *Reaper {
	return &Reaper{
		sessions: sessions,
		maxIdle:  maxIdle,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled.
//
// # Outputs
//
//   - error: The context's error once cancelled; never any other error.
func (r *Reaper) Run(ctx context.Context) error {
	slog.Info("session reaper started", "max_idle", r.maxIdle, "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return ctx.Err()
		case <-ticker.C:
			if expired := r.sessions.ExpireIdleSessions(r.maxIdle); len(expired) > 0 {
				slog.Info("expired idle sessions", "count", len(expired))
			}
		}
	}
}
