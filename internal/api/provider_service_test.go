package api_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"easel/internal/api"
	"easel/internal/config"
	"easel/internal/provider"
)

// scriptedProvider records calls and plays back configured results.
type scriptedProvider struct {
	name        string
	fields      []provider.ConfigField
	validateErr error
	testOK      bool
	testMessage string
	outcome     provider.Outcome

	configured  map[string]string
	refreshes   int
	refreshedTo string
}

func (s *scriptedProvider) Describe() provider.Descriptor {
	return provider.Descriptor{Name: s.name, DisplayName: s.name, Fields: s.fields}
}

func (s *scriptedProvider) Configure(settings map[string]string) { s.configured = settings }

func (s *scriptedProvider) ValidateConfig() error { return s.validateErr }

func (s *scriptedProvider) TestConnection(ctx context.Context) (bool, string) {
	return s.testOK, s.testMessage
}

func (s *scriptedProvider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	s.refreshes++
	s.refreshedTo = targetFolder
	return s.outcome
}

func registryWith(t *testing.T, providers ...*scriptedProvider) *provider.Registry {
	t.Helper()
	registry := provider.NewRegistry()
	for _, p := range providers {
		instance := p
		if err := registry.Register(func() provider.Provider { return instance }); err != nil {
			t.Fatalf("Register(%s) failed: %v", p.name, err)
		}
	}
	return registry
}

func TestListProvidersOrder(t *testing.T) {
	registry := registryWith(t,
		&scriptedProvider{name: "immich"},
		&scriptedProvider{name: "s3"},
	)
	service := newService(newFakeStore(), registry)

	descriptors := service.ListProviders()
	if len(descriptors) != 2 || descriptors[0].Name != "immich" || descriptors[1].Name != "s3" {
		t.Fatalf("unexpected listing: %+v", descriptors)
	}
}

func TestGetProviderConfigMasksPasswords(t *testing.T) {
	registry := registryWith(t, &scriptedProvider{
		name: "immich",
		fields: []provider.ConfigField{
			{Key: "server_url", Type: provider.FieldText},
			{Key: "api_key", Type: provider.FieldPassword},
		},
	})
	store := newFakeStore()
	store.values["provider.immich.server_url"] = "https://photos.example.com"
	store.values["provider.immich.api_key"] = "super-secret-api-key-12345"
	service := newService(store, registry)

	values, err := service.GetProviderConfig(context.Background(), "immich")
	if err != nil {
		t.Fatalf("GetProviderConfig failed: %v", err)
	}
	if values["server_url"] != "https://photos.example.com" {
		t.Fatalf("text field must pass through: %q", values["server_url"])
	}
	if values["api_key"] == "super-secret-api-key-12345" {
		t.Fatal("password field must be masked")
	}
	if values["api_key"] != "super-se...2345" {
		t.Fatalf("unexpected mask %q", values["api_key"])
	}
}

func TestGetProviderConfigUnknownName(t *testing.T) {
	service := newService(newFakeStore(), registryWith(t))
	_, err := service.GetProviderConfig(context.Background(), "nope")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProviderConfigNamespacesKeys(t *testing.T) {
	registry := registryWith(t, &scriptedProvider{
		name: "s3",
		fields: []provider.ConfigField{
			{Key: "bucket", Type: provider.FieldText},
			{Key: "region", Type: provider.FieldText},
		},
	})
	store := newFakeStore()
	service := newService(store, registry)

	fieldErrs, err := service.SetProviderConfig(context.Background(), "s3", map[string]string{
		"bucket": "frames",
		"region": "us-east-1",
	})
	if err != nil || len(fieldErrs) != 0 {
		t.Fatalf("SetProviderConfig failed: %v %v", err, fieldErrs)
	}
	if store.values["provider.s3.bucket"] != "frames" {
		t.Fatalf("keys not namespaced: %v", store.values)
	}
	if store.writes != 1 {
		t.Fatalf("expected one atomic batch, got %d", store.writes)
	}
}

func TestSetProviderConfigRejectsUnknownFields(t *testing.T) {
	registry := registryWith(t, &scriptedProvider{
		name:   "s3",
		fields: []provider.ConfigField{{Key: "bucket", Type: provider.FieldText}},
	})
	store := newFakeStore()
	service := newService(store, registry)

	fieldErrs, err := service.SetProviderConfig(context.Background(), "s3", map[string]string{
		"bucket":  "frames",
		"mystery": "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fieldErrs) != 1 || fieldErrs[0].Field != "mystery" {
		t.Fatalf("expected unknown-field rejection, got %v", fieldErrs)
	}
	if store.writes != 0 {
		t.Fatal("rejected config must not be written")
	}
}

func TestTestProviderUsesStoredConfig(t *testing.T) {
	scripted := &scriptedProvider{name: "immich", testOK: true, testMessage: "connected"}
	registry := registryWith(t, scripted)
	store := newFakeStore()
	store.values["provider.immich.server_url"] = "https://photos.example.com"
	service := newService(store, registry)

	ok, message, err := service.TestProvider(context.Background(), "immich")
	if err != nil {
		t.Fatalf("TestProvider failed: %v", err)
	}
	if !ok || message != "connected" {
		t.Fatalf("unexpected result: %v %q", ok, message)
	}
	if scripted.configured["server_url"] != "https://photos.example.com" {
		t.Fatalf("stored config not applied: %v", scripted.configured)
	}
}

func TestTestProviderInvalidConfigIsNotAnError(t *testing.T) {
	scripted := &scriptedProvider{
		name:        "immich",
		validateErr: errors.New("server_url is required"),
	}
	service := newService(newFakeStore(), registryWith(t, scripted))

	ok, message, err := service.TestProvider(context.Background(), "immich")
	if err != nil {
		t.Fatalf("validation failure must not be a transport error: %v", err)
	}
	if ok || message != "server_url is required" {
		t.Fatalf("unexpected result: %v %q", ok, message)
	}
}

func TestTestProviderUnknownName(t *testing.T) {
	service := newService(newFakeStore(), registryWith(t))
	_, _, err := service.TestProvider(context.Background(), "nope")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshProviderCreatesTargetFolder(t *testing.T) {
	scripted := &scriptedProvider{
		name:    "s3",
		outcome: provider.Outcome{Status: provider.StatusSuccess, Downloaded: 2, Total: 2},
	}
	registry := registryWith(t, scripted)
	store := newFakeStore()
	target := t.TempDir() + "/images"
	store.values[config.KeyDefaultFolder] = target
	service := newService(store, registry)

	outcome, err := service.RefreshProvider(context.Background(), "s3")
	if err != nil {
		t.Fatalf("RefreshProvider failed: %v", err)
	}
	if outcome.Downloaded != 2 {
		t.Fatalf("outcome not passed through: %+v", outcome)
	}
	if scripted.refreshedTo != target {
		t.Fatalf("refreshed into %q, want %q", scripted.refreshedTo, target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("target folder must exist before the provider runs: %v", err)
	}
}

func TestRefreshProviderSerializesPerProvider(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	blocking := &blockingProvider{name: "slow", release: release, started: started}

	registry := provider.NewRegistry()
	if err := registry.Register(func() provider.Provider { return blocking }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	store := newFakeStore()
	store.values[config.KeyDefaultFolder] = t.TempDir()
	service := newService(store, registry)

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _ = service.RefreshProvider(context.Background(), "slow")
			done <- struct{}{}
		}()
	}

	<-started
	select {
	case <-started:
		t.Fatal("second refresh entered while the first was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done
	<-done
	if got := blocking.calls.Load(); got != 2 {
		t.Fatalf("expected both refreshes to run, got %d", got)
	}
}

func TestRefreshProviderIsolatesInFlightConfiguration(t *testing.T) {
	began := make(chan struct{}, 2)
	release := make(chan struct{})
	observed := make(chan string, 2)

	registry := provider.NewRegistry()
	err := registry.Register(func() provider.Provider {
		return &snapshotProvider{began: began, release: release, observed: observed}
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	store := newFakeStore()
	store.values[config.KeyDefaultFolder] = t.TempDir()
	store.values["provider.snapshot.server_url"] = "https://first"
	service := newService(store, registry)

	done := make(chan struct{}, 2)
	go func() {
		_, _ = service.RefreshProvider(context.Background(), "snapshot")
		done <- struct{}{}
	}()
	<-began

	// Reconfigure while the first refresh is still in flight; the second
	// call queues behind the per-provider lock.
	store.values["provider.snapshot.server_url"] = "https://second"
	go func() {
		_, _ = service.RefreshProvider(context.Background(), "snapshot")
		done <- struct{}{}
	}()

	close(release)
	<-done
	<-done

	if got := <-observed; got != "https://first" {
		t.Fatalf("running refresh saw reconfigured value %q", got)
	}
	if got := <-observed; got != "https://second" {
		t.Fatalf("queued refresh saw stale value %q", got)
	}
}

// snapshotProvider reports the configuration its instance carried while its
// refresh ran.
type snapshotProvider struct {
	serverURL string
	began     chan struct{}
	release   chan struct{}
	observed  chan string
}

func (p *snapshotProvider) Describe() provider.Descriptor {
	return provider.Descriptor{
		Name:   "snapshot",
		Fields: []provider.ConfigField{{Key: "server_url", Type: provider.FieldText}},
	}
}

func (p *snapshotProvider) Configure(settings map[string]string) {
	p.serverURL = settings["server_url"]
}

func (p *snapshotProvider) ValidateConfig() error { return nil }

func (p *snapshotProvider) TestConnection(ctx context.Context) (bool, string) { return true, "" }

func (p *snapshotProvider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	p.began <- struct{}{}
	<-p.release
	p.observed <- p.serverURL
	return provider.Outcome{Status: provider.StatusSuccess}
}

// blockingProvider parks inside Refresh until released, to observe
// serialization from the outside.
type blockingProvider struct {
	name    string
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (b *blockingProvider) Describe() provider.Descriptor {
	return provider.Descriptor{Name: b.name}
}

func (b *blockingProvider) Configure(settings map[string]string) {}

func (b *blockingProvider) ValidateConfig() error { return nil }

func (b *blockingProvider) TestConnection(ctx context.Context) (bool, string) { return true, "" }

func (b *blockingProvider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	b.calls.Add(1)
	b.started <- struct{}{}
	<-b.release
	return provider.Outcome{Status: provider.StatusSuccess}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                           "",
		"short":                      "****",
		"exactly12chr":               "****",
		"super-secret-api-key-12345": "super-se...2345",
	}
	for input, want := range cases {
		if got := api.MaskSecret(input); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", input, got, want)
		}
	}
}
