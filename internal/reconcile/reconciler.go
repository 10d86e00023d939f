// Package reconcile keeps a subscriber's view of installed skills in sync
// with the filesystem.
//
// Watcher events and window-focus regains schedule a rescan with a
// trailing-edge debounce: a single timer slot is cancelled and rescheduled
// on every new event, so only a quiet period triggers actual work.
// Subscribers are notified only when the rescanned snapshot differs from
// the previous one.
package reconcile

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/featherline/quill/internal/core"
	"github.com/featherline/quill/internal/scopes"
)

// Watcher is the host-controlled file-watch port. Watch registers a
// directory and delivers an opaque "something changed" callback; the
// returned stop function removes the watch.
type Watcher interface {
	Watch(dir string, onEvent func()) (stop func(), err error)
}

// Scanner is the collaborator that reads installed state from disk.
type Scanner interface {
	Scan(workspaceRoot string, opts core.ScanOptions) (core.InstalledSkillsMap, error)
}

// CatalogFetcher refreshes the registry catalog before a rescan. May be nil.
type CatalogFetcher interface {
	Refresh(ctx context.Context) error
}

// Options tunes the reconciler.
type Options struct {
	Debounce time.Duration // default 500ms
	Logger   *slog.Logger
}

// Reconciler watches local skill directories and rescans installed state.
// Global directories are not watched directly; a focus regain is the
// low-cost trigger to rescan them.
type Reconciler struct {
	watcher       Watcher
	scanner       Scanner
	catalog       CatalogFetcher
	agents        []core.AgentDef
	workspaceRoot string
	debounce      time.Duration
	logger        *slog.Logger

	mu            sync.Mutex
	timer         *time.Timer
	stops         []func()
	includeLocal  bool
	includeGlobal bool
	snapshot      core.InstalledSkillsMap
	subscribers   []func(core.InstalledSkillsMap)
	closed        bool
}

// New creates a Reconciler. catalog may be nil when no registry refresh is
// wanted.
func New(watcher Watcher, scanner Scanner, catalog CatalogFetcher, agents []core.AgentDef, workspaceRoot string, opts Options) *Reconciler {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		watcher:       watcher,
		scanner:       scanner,
		catalog:       catalog,
		agents:        agents,
		workspaceRoot: workspaceRoot,
		debounce:      debounce,
		logger:        logger,
	}
}

// OnChange subscribes to snapshot changes. The handler receives the new
// snapshot and runs on the debounce timer's goroutine.
func (r *Reconciler) OnChange(fn func(core.InstalledSkillsMap)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Start applies the scope policy, registers watchers, and performs an
// initial scan so the first change notification has a baseline.
func (r *Reconciler) Start(eval scopes.Evaluation) error {
	if err := r.UpdatePolicy(eval); err != nil {
		return err
	}
	r.reconcile()
	return nil
}

// UpdatePolicy prunes and recreates watchers so scopes disallowed by the
// policy are not watched, and restricts future scans to effective scopes.
func (r *Reconciler) UpdatePolicy(eval scopes.Evaluation) error {
	includeLocal, includeGlobal := false, false
	for _, s := range eval.EffectiveScopes {
		switch s {
		case core.ScopeLocal:
			includeLocal = true
		case core.ScopeGlobal:
			includeGlobal = true
		}
	}

	r.mu.Lock()
	r.includeLocal = includeLocal
	r.includeGlobal = includeGlobal
	stops := r.stops
	r.stops = nil
	r.mu.Unlock()

	for _, stop := range stops {
		stop()
	}

	if !includeLocal || r.workspaceRoot == "" {
		return nil
	}

	var newStops []func()
	for _, agent := range r.agents {
		dir := core.ResolveAgentSkillsDir(agent, r.workspaceRoot)
		stop, err := r.watcher.Watch(dir, r.NotifyExternalChange)
		if err != nil {
			r.logger.Warn("could not watch skill directory", "dir", dir, "error", err)
			continue
		}
		newStops = append(newStops, stop)
	}

	r.mu.Lock()
	r.stops = append(r.stops, newStops...)
	r.mu.Unlock()
	return nil
}

// NotifyExternalChange schedules a debounced reconciliation. Watchers call
// this on every filesystem event.
func (r *Reconciler) NotifyExternalChange() {
	r.schedule()
}

// NotifyFocus schedules a debounced reconciliation on window-focus regain,
// covering changes to unwatched global directories.
func (r *Reconciler) NotifyFocus() {
	r.schedule()
}

// schedule resets the single-slot debounce timer.
func (r *Reconciler) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.reconcile)
}

// reconcile refreshes the catalog, rescans installed state, and notifies
// subscribers only on an actual difference.
func (r *Reconciler) reconcile() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	opts := core.ScanOptions{IncludeLocal: r.includeLocal, IncludeGlobal: r.includeGlobal}
	r.mu.Unlock()

	if r.catalog != nil {
		if err := r.catalog.Refresh(context.Background()); err != nil {
			r.logger.Warn("registry refresh failed", "error", err)
		}
	}

	snapshot, err := r.scanner.Scan(r.workspaceRoot, opts)
	if err != nil {
		r.logger.Warn("installed-state scan failed", "error", err)
		return
	}

	r.mu.Lock()
	changed := !reflect.DeepEqual(snapshot, r.snapshot)
	if changed {
		r.snapshot = snapshot
	}
	subscribers := append([]func(core.InstalledSkillsMap){}, r.subscribers...)
	r.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// Snapshot returns the last reconciled view of installed skills.
func (r *Reconciler) Snapshot() core.InstalledSkillsMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Close stops all watchers and cancels any pending debounce timer.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	stops := r.stops
	r.stops = nil
	r.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}
