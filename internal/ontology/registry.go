// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultLoadConcurrency bounds how many documents Registry.Reload parses
// at once.
const DefaultLoadConcurrency = 8

// watchDebounce coalesces bursts of filesystem events (an editor's
// write-then-rename save sequence routinely fires three or four) into a
// single reload.
const watchDebounce = 250 * time.Millisecond

// Registry is the read-mostly cache of every loaded ontology, keyed by
// name. It is safe for concurrent use: readers take an RLock, and a
// reload swaps in a fresh snapshot under a brief write lock so in-flight
// verification requests never observe a half-updated map.
type Registry struct {
	src  Source
	mu   sync.RWMutex
	docs map[string]*Ontology
	err  error

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewRegistry performs an initial synchronous load and returns a ready
// Registry; a load error at construction time is returned immediately
// rather than deferred to first use, so a misconfigured ontology
// directory fails fast at startup.
func NewRegistry(ctx context.Context, src Source) (*Registry, error) {
	r := &Registry{src: src}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads and re-validates every document from the source and
// atomically replaces the cached snapshot. A failed reload leaves the
// previous snapshot in place so a transient bad write to the ontology
// directory does not take the service down.
func (r *Registry) Reload(ctx context.Context) error {
	docs, err := LoadAll(ctx, r.src, DefaultLoadConcurrency)
	if err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		slog.Error("ontology reload failed, keeping previous snapshot",
			slog.String("source", r.src.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	r.mu.Lock()
	r.docs = docs
	r.err = nil
	r.mu.Unlock()

	slog.Info("ontology registry reloaded",
		slog.String("source", r.src.String()),
		slog.Int("count", len(docs)),
	)
	return nil
}

// Get returns the named ontology and true, or nil and false if it is not
// currently loaded.
func (r *Registry) Get(name string) (*Ontology, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.docs[name]
	return o, ok
}

// LastError returns the error from the most recent Reload, or nil if the
// most recent attempt succeeded (including the initial load in
// NewRegistry). Readiness checks fail while it is non-nil, even though
// the snapshot from the last successful load is still served.
func (r *Registry) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// List returns every currently loaded ontology's name, version, and
// description, sorted by name.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.docs))
	for _, o := range r.docs {
		out = append(out, Summary{Name: o.Name, Version: o.Version, Description: o.Description, Constraints: len(o.Constraints)})
	}
	sortSummaries(out)
	return out
}

// Summary is the lightweight listing form of an ontology, for the
// "list known ontologies" operation.
type Summary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Constraints int    `json:"constraint_count"`
}

func sortSummaries(s []Summary) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Name < s[j-1].Name; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// WatchDir starts an fsnotify watch on dir, debouncing bursts of events
// and triggering Reload on settle. It watches dir whatever source the
// Registry was built over and does not check that dir is that source;
// GCS-backed registries are refreshed by polling (see WatchPoll) since
// object storage has no filesystem events to subscribe to. Callers must
// call Close to stop the watch goroutine.
func (r *Registry) WatchDir(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ontology registry: starting watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("ontology registry: watching %s: %w", dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	r.watcher = w
	r.cancel = cancel

	go r.watchLoop(watchCtx, w)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					if err := r.Reload(ctx); err != nil {
						slog.Warn("ontology registry: reload after filesystem change failed", slog.String("error", err.Error()))
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("ontology registry: watcher error", slog.String("error", err.Error()))
		}
	}
}

// WatchPoll starts a ticker-driven reload loop, for sources (like GCS)
// that have no push notification this registry subscribes to.
func (r *Registry) WatchPoll(ctx context.Context, interval time.Duration) {
	watchCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				if err := r.Reload(watchCtx); err != nil {
					slog.Warn("ontology registry: polled reload failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Close stops any running watch loop and releases the fsnotify watcher.
func (r *Registry) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
