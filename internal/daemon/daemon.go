package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"easel/internal/api"
	"easel/internal/config"
	"easel/internal/provider"
	"easel/internal/settings"
	"easel/internal/slideshow"
	"easel/internal/watcher"
)

// Daemon coordinates the Easel services and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *settings.Store
	registry   *provider.Registry
	service    *api.Service
	controller *slideshow.Controller
	poller     *watcher.Poller
	server     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid"`
	DBPath     string `json:"dbPath"`
	LockPath   string `json:"lockPath"`
	ConfigFile string `json:"configFile,omitempty"`
	Providers  int    `json:"providers"`
	Images     int    `json:"images"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *settings.Store, registry *provider.Registry, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, registry, and logger")
	}

	service := api.NewService(store, registry, config.SearchPaths(), logger)
	controller := slideshow.NewController(logger)

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		registry:   registry,
		service:    service,
		controller: controller,
		poller:     watcher.New(store, controller, logger),
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	d.server = newAPIServer(cfg, service, d, logger)
	return d, nil
}

// Service exposes the orchestration layer, mainly for tests.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Start acquires the instance lock, seeds the store via a full resolution,
// and launches the API server and the change poller. Resolution failure
// aborts startup; a display process must never run on a half-built config.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another easeld instance holds %s", d.lockPath)
	}

	resolved, err := config.Resolve(ctx, config.SearchPaths(), d.store)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("initial settings resolution: %w", err)
	}
	for _, diag := range resolved.Diagnostics {
		d.logger.Warn("settings resolution", slog.String("detail", diag))
	}
	if resolved.FilePath != "" {
		d.logger.Info("settings seeded from file", slog.String("path", resolved.FilePath))
	}

	d.controller.ApplyInitial(resolved)
	revision, err := d.store.Revision(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("read store revision: %w", err)
	}
	d.poller.Seed(revision, resolved)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	go d.poller.Run(runCtx)

	d.running.Store(true)
	d.logger.Info("easeld started", slog.Int("pid", os.Getpid()))
	return nil
}

// Stop shuts down the API server and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", slog.String("error", err.Error()))
	}
	d.logger.Info("easeld stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports runtime information for the status endpoint and CLI.
func (d *Daemon) Status() Status {
	resolvedFile := ""
	if current := d.controller.Current(); current != nil {
		resolvedFile = current.FilePath
	}
	return Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		DBPath:     d.store.Path(),
		LockPath:   d.lockPath,
		ConfigFile: resolvedFile,
		Providers:  len(d.registry.List()),
		Images:     len(d.controller.Images()),
	}
}
