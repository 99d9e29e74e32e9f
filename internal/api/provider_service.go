package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"easel/internal/config"
	"easel/internal/provider"
)

// ListProviders returns the registered descriptors in registration order.
func (s *Service) ListProviders() []provider.Descriptor {
	return s.registry.List()
}

// GetProviderConfig returns a provider's stored configuration with password
// fields masked for display.
func (s *Service) GetProviderConfig(ctx context.Context, name string) (map[string]string, error) {
	descriptor, ok := s.registry.Describe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", provider.ErrNotFound, name)
	}
	values, err := s.store.Namespace(ctx, provider.KeyPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("read provider config: %w", err)
	}

	for key, value := range values {
		if field, ok := descriptor.Field(key); ok && field.Type == provider.FieldPassword {
			values[key] = MaskSecret(value)
		}
	}
	return values, nil
}

// SetProviderConfig validates field keys against the provider's descriptor
// and writes the namespaced rows as one atomic batch.
func (s *Service) SetProviderConfig(ctx context.Context, name string, settings map[string]string) ([]config.FieldError, error) {
	descriptor, ok := s.registry.Describe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", provider.ErrNotFound, name)
	}

	var fieldErrs []config.FieldError
	for key := range settings {
		if _, ok := descriptor.Field(key); !ok {
			fieldErrs = append(fieldErrs, config.FieldError{Field: key, Message: "unknown configuration field"})
		}
	}
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	prefix := provider.KeyPrefix(name)
	namespaced := make(map[string]string, len(settings))
	for key, value := range settings {
		namespaced[prefix+key] = value
	}
	if err := s.store.UpsertMany(ctx, namespaced); err != nil {
		return nil, fmt.Errorf("write provider config: %w", err)
	}
	s.logger.Info("provider configured", slog.String("provider", name), slog.Int("keys", len(settings)))
	return nil, nil
}

// TestProvider loads the stored configuration and performs the provider's
// read-only connectivity check under the test timeout. Failures come back
// as (false, reason); err is reserved for lookup and store problems.
func (s *Service) TestProvider(ctx context.Context, name string) (bool, string, error) {
	instance, err := s.configured(ctx, name)
	if err != nil {
		return false, "", err
	}
	if err := instance.ValidateConfig(); err != nil {
		return false, err.Error(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.TestTimeout)
	defer cancel()
	ok, message := instance.TestConnection(ctx)
	return ok, message, nil
}

// RefreshProvider downloads the provider's images into the configured
// folder. Refreshes for the same provider are serialized; different
// providers run independently.
func (s *Service) RefreshProvider(ctx context.Context, name string) (provider.Outcome, error) {
	instance, err := s.configured(ctx, name)
	if err != nil {
		return provider.Outcome{}, err
	}

	resolved, err := config.FromStore(ctx, s.store)
	if err != nil {
		return provider.Outcome{}, fmt.Errorf("resolve target folder: %w", err)
	}
	folder, err := resolved.ImagesDir()
	if err != nil {
		return provider.Outcome{}, fmt.Errorf("resolve target folder: %w", err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return provider.Outcome{}, fmt.Errorf("create target folder: %w", err)
	}

	lock := s.refreshLock(name)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.RefreshTimeout)
	defer cancel()

	outcome := instance.Refresh(ctx, folder)
	s.logger.Info("provider refresh finished",
		slog.String("provider", name),
		slog.String("status", string(outcome.Status)),
		slog.Int("downloaded", outcome.Downloaded),
		slog.Int("skipped", outcome.Skipped),
		slog.Int("failed", outcome.Failed),
	)
	return outcome, nil
}

// configured builds a fresh provider instance with its stored namespace
// applied. The instance belongs to the caller; concurrent operations on the
// same provider never see each other's configuration.
func (s *Service) configured(ctx context.Context, name string) (provider.Provider, error) {
	instance, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", provider.ErrNotFound, name)
	}
	values, err := s.store.Namespace(ctx, provider.KeyPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("read provider config: %w", err)
	}
	instance.Configure(values)
	return instance, nil
}

func (s *Service) refreshLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.refreshLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.refreshLocks[name] = lock
	}
	return lock
}

// MaskSecret hides most of a credential for display, keeping enough of the
// ends to recognize which key is stored.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) > 12 {
		return value[:8] + "..." + value[len(value)-4:]
	}
	return "****"
}
