// Package watcher detects settings-store mutations and applies them live.
//
// The display side cannot receive calls from the API process; the store is
// the only channel between them. The Poller reads the store revision counter
// on a fixed cadence, and only when it moves does it re-fetch settings, diff
// against what is currently applied, and hand the changed keys to an
// Applier. A failed read keeps the previous configuration authoritative.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"easel/internal/config"
)

// DefaultInterval is the poll cadence inside the display process.
const DefaultInterval = 5 * time.Second

// Store is the read surface the poller needs.
type Store interface {
	config.SettingsReader
	Revision(ctx context.Context) (int64, error)
}

// Applier receives the settings that actually changed. Implementations apply
// only those keys so an in-progress image transition is not disturbed by an
// unrelated edit.
type Applier interface {
	Apply(changed []string, resolved *config.Resolved)
}

// Poller periodically reconciles applied settings with the store.
type Poller struct {
	store   Store
	applier Applier
	logger  *slog.Logger

	interval     time.Duration
	lastRevision int64
	haveRevision bool
	applied      map[string]string
}

// New constructs a poller with the default cadence.
func New(store Store, applier Applier, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:    store,
		applier:  applier,
		logger:   logger,
		interval: DefaultInterval,
	}
}

// SetInterval overrides the poll cadence; values <= 0 keep the default.
func (p *Poller) SetInterval(interval time.Duration) {
	if interval > 0 {
		p.interval = interval
	}
}

// Seed records the snapshot already applied at startup so the first tick
// does not re-apply it.
func (p *Poller) Seed(revision int64, resolved *config.Resolved) {
	p.lastRevision = revision
	p.haveRevision = true
	p.applied = resolved.Values()
}

// Run polls until ctx is cancelled. Cancellation is process-lifetime-bound;
// a tick in flight finishes its store read.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs one reconciliation pass. An unchanged revision costs a
// single store read and nothing else.
func (p *Poller) Tick(ctx context.Context) {
	revision, err := p.store.Revision(ctx)
	if err != nil {
		p.logger.Warn("settings poll failed; keeping applied config", slog.String("error", err.Error()))
		return
	}
	if p.haveRevision && revision == p.lastRevision {
		return
	}

	resolved, err := config.FromStore(ctx, p.store)
	if err != nil {
		p.logger.Warn("settings fetch failed; keeping applied config", slog.String("error", err.Error()))
		return
	}

	values := resolved.Values()
	var changed []string
	for _, setting := range config.Schema() {
		if p.applied == nil || p.applied[setting.Key] != values[setting.Key] {
			changed = append(changed, setting.Key)
		}
	}

	if len(changed) > 0 && p.applier != nil {
		p.applier.Apply(changed, resolved)
	}
	p.applied = values
	p.lastRevision = revision
	p.haveRevision = true
}
