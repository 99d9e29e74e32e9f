// Package testsupport provides shared fixtures for Easel tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"easel/internal/config"
	"easel/internal/settings"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	return &cfg
}

// MustOpenStore opens a settings.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()

	store, err := settings.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
