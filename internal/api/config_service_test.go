package api_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easel/internal/api"
	"easel/internal/config"
	"easel/internal/provider"
)

// fakeStore implements api.SettingsStore in memory.
type fakeStore struct {
	values   map[string]string
	writes   int
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) GetAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) UpsertMany(ctx context.Context, values map[string]string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for k, v := range values {
		f.values[k] = v
	}
	f.writes++
	return nil
}

func (f *fakeStore) Namespace(ctx context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range f.values {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out, nil
}

func newService(store *fakeStore, registry *provider.Registry) *api.Service {
	return api.NewService(store, registry, nil, nil)
}

func TestGetSettingsReflectsStore(t *testing.T) {
	store := newFakeStore()
	store.values[config.KeyBackgroundColor] = "navy"
	service := newService(store, nil)

	resolved, err := service.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if resolved.BackgroundColor != "navy" {
		t.Fatalf("expected store value, got %q", resolved.BackgroundColor)
	}
	if resolved.IntervalSeconds != 8 {
		t.Fatalf("expected default interval, got %d", resolved.IntervalSeconds)
	}
}

func TestUpdateSettingsAppliesCanonicalPatch(t *testing.T) {
	store := newFakeStore()
	service := newService(store, nil)

	resolved, fieldErrs, err := service.UpdateSettings(context.Background(), map[string]string{
		config.KeyDefaultInterval: " 15 ",
		config.KeyStartFullscreen: "no",
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}
	if store.values[config.KeyDefaultInterval] != "15" {
		t.Fatalf("canonical value not stored: %q", store.values[config.KeyDefaultInterval])
	}
	if store.values[config.KeyStartFullscreen] != "false" {
		t.Fatalf("canonical boolean not stored: %q", store.values[config.KeyStartFullscreen])
	}
	if resolved.IntervalSeconds != 15 {
		t.Fatalf("returned snapshot stale: %d", resolved.IntervalSeconds)
	}
	if store.writes != 1 {
		t.Fatalf("expected one atomic batch, got %d writes", store.writes)
	}
}

func TestUpdateSettingsRejectsWithoutMutation(t *testing.T) {
	store := newFakeStore()
	store.values[config.KeyDefaultInterval] = "8"
	service := newService(store, nil)

	cases := []map[string]string{
		{config.KeyDefaultInterval: "-5"},
		{"unknown_key": "x"},
		{config.KeyDefaultInterval: "20", "unknown_key": "x"},
		{config.KeyEnableInky: "true", config.KeyDefaultInterval: "5"},
	}
	for _, patch := range cases {
		_, fieldErrs, err := service.UpdateSettings(context.Background(), patch)
		if err != nil {
			t.Fatalf("UpdateSettings(%v) errored: %v", patch, err)
		}
		if len(fieldErrs) == 0 {
			t.Fatalf("expected rejection for %v", patch)
		}
	}
	if store.writes != 0 {
		t.Fatalf("rejected patches must not touch the store, got %d writes", store.writes)
	}
	if store.values[config.KeyDefaultInterval] != "8" {
		t.Fatalf("stored value mutated to %q", store.values[config.KeyDefaultInterval])
	}
}

func TestUpdateSettingsEmptyPatch(t *testing.T) {
	store := newFakeStore()
	service := newService(store, nil)

	resolved, fieldErrs, err := service.UpdateSettings(context.Background(), nil)
	if err != nil || len(fieldErrs) != 0 {
		t.Fatalf("empty patch should be a read: %v %v", err, fieldErrs)
	}
	if resolved == nil {
		t.Fatal("expected current snapshot")
	}
	if store.writes != 0 {
		t.Fatal("empty patch must not write")
	}
}

func TestUpdateSettingsSurfacesWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.writeErr = errors.New("disk full")
	service := newService(store, nil)

	_, _, err := service.UpdateSettings(context.Background(), map[string]string{
		config.KeyBackgroundColor: "white",
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func TestSyncFromFileMergesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easel.toml")
	content := "[slideshow]\ndefault_interval = 21\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store := newFakeStore()
	store.values[config.KeyDefaultInterval] = "45"
	service := api.NewService(store, nil, []string{path}, nil)

	resolved, err := service.SyncFromFile(context.Background())
	if err != nil {
		t.Fatalf("SyncFromFile failed: %v", err)
	}
	if resolved.IntervalSeconds != 21 {
		t.Fatalf("file must win on sync, got %d", resolved.IntervalSeconds)
	}
	if store.values[config.KeyDefaultInterval] != "21" {
		t.Fatalf("merged result not persisted: %q", store.values[config.KeyDefaultInterval])
	}
}
