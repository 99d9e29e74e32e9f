package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"easel/internal/config"
	"easel/internal/provider"
)

// SettingsStore abstracts the persistence interactions the service needs.
type SettingsStore interface {
	GetAll(ctx context.Context) (map[string]string, error)
	UpsertMany(ctx context.Context, values map[string]string) error
	Namespace(ctx context.Context, prefix string) (map[string]string, error)
}

// Service orchestrates resolver, store, and provider registry.
type Service struct {
	store       SettingsStore
	registry    *provider.Registry
	searchPaths []string
	logger      *slog.Logger

	// TestTimeout bounds provider connectivity checks; RefreshTimeout bounds
	// a full download pass.
	TestTimeout    time.Duration
	RefreshTimeout time.Duration

	mu           sync.Mutex
	refreshLocks map[string]*sync.Mutex
}

// NewService constructs a Service around the provided collaborators.
// searchPaths is the config-file priority chain used by SyncFromFile.
func NewService(store SettingsStore, registry *provider.Registry, searchPaths []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = provider.NewRegistry()
	}
	return &Service{
		store:          store,
		registry:       registry,
		searchPaths:    searchPaths,
		logger:         logger,
		TestTimeout:    15 * time.Second,
		RefreshTimeout: 10 * time.Minute,
		refreshLocks:   make(map[string]*sync.Mutex),
	}
}

// GetSettings returns the effective settings snapshot. The store is the live
// layer here; file values participate only through Resolve/SyncFromFile.
func (s *Service) GetSettings(ctx context.Context) (*config.Resolved, error) {
	return config.FromStore(ctx, s.store)
}

// UpdateSettings validates a partial patch and, when clean, applies it as a
// single atomic batch. A non-empty field error list means the store was not
// touched.
func (s *Service) UpdateSettings(ctx context.Context, patch map[string]string) (*config.Resolved, []config.FieldError, error) {
	if len(patch) == 0 {
		resolved, err := config.FromStore(ctx, s.store)
		return resolved, nil, err
	}

	current, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read settings store: %w", err)
	}
	canonical, fieldErrs := config.ValidatePatch(patch, current)
	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}
	if err := s.store.UpsertMany(ctx, canonical); err != nil {
		return nil, nil, fmt.Errorf("write settings: %w", err)
	}

	s.logger.Info("settings updated", slog.Int("keys", len(canonical)))
	resolved, err := config.FromStore(ctx, s.store)
	return resolved, nil, err
}

// SyncFromFile re-runs full resolution (file > store > default) on demand and
// persists the merged result, reporting provenance.
func (s *Service) SyncFromFile(ctx context.Context) (*config.Resolved, error) {
	resolved, err := config.Resolve(ctx, s.searchPaths, s.store)
	if err != nil {
		return nil, err
	}
	if resolved.FilePath != "" {
		s.logger.Info("settings synced from file", slog.String("path", resolved.FilePath))
	} else {
		s.logger.Info("settings sync found no config file; store values stand")
	}
	return resolved, nil
}
