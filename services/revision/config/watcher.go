// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// reloadDebounce is how long to wait after a write event before reloading;
// editors often emit several events per save.
const reloadDebounce = 200 * time.Millisecond

// PolicyWatcher hot-reloads the impact policy when the config file changes.
//
// # Description
//
// Only the impact policy is reloadable; listener and session settings take
// effect on restart. Current() is handed to the differ as its policy
// getter, so every classification reads the latest policy without
// restarting.
//
// # Thread Safety
//
// Safe for concurrent use. Current() never blocks on a reload in flight.
type PolicyWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	policy diff.ImpactPolicy

	done     chan struct{}
	stopOnce sync.Once
}

// NewPolicyWatcher starts watching the config file. The initial policy is
// taken from the already-loaded config rather than re-read from disk.
func NewPolicyWatcher(path string, initial diff.ImpactPolicy) (*PolicyWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &PolicyWatcher{
		path:    path,
		watcher: fw,
		policy:  initial,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the active impact policy.
func (w *PolicyWatcher) Current() diff.ImpactPolicy {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.policy
}

// Stop ends the watch goroutine. Idempotent.
func (w *PolicyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *PolicyWatcher) run() {
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watch error", "path", w.path, "error", err)
		}
	}
}

func (w *PolicyWatcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload failed; keeping previous policy",
			"path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.policy
	w.policy = cfg.Impact
	w.mu.Unlock()

	if old != cfg.Impact {
		slog.Info("impact policy reloaded",
			"path", w.path,
			"breaking_change_threshold", cfg.Impact.BreakingChangeThreshold,
		)
	}
}
