package provider_test

import (
	"context"
	"testing"

	"easel/internal/provider"
)

type stubProvider struct {
	name     string
	settings map[string]string
}

func (s *stubProvider) Describe() provider.Descriptor {
	return provider.Descriptor{Name: s.name, DisplayName: s.name}
}

func (s *stubProvider) Configure(settings map[string]string) { s.settings = settings }

func (s *stubProvider) ValidateConfig() error { return nil }

func (s *stubProvider) TestConnection(ctx context.Context) (bool, string) { return true, "ok" }

func (s *stubProvider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	return provider.Outcome{Status: provider.StatusSuccess}
}

func stubFactory(name string) provider.Factory {
	return func() provider.Provider { return &stubProvider{name: name} }
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	registry := provider.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(stubFactory(name)); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	descriptors := registry.List()
	want := []string{"zeta", "alpha", "mid"}
	if len(descriptors) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(descriptors))
	}
	for i, name := range want {
		if descriptors[i].Name != name {
			t.Errorf("descriptor[%d] = %q, want %q", i, descriptors[i].Name, name)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(stubFactory("one")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := registry.Register(stubFactory("one")); err == nil {
		t.Fatal("duplicate registration must fail")
	}
}

func TestRegistryRejectsUnnamedProviders(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(stubFactory("  ")); err == nil {
		t.Fatal("empty descriptor name must fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("nil factory must fail")
	}
}

func TestRegistryGet(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(stubFactory("known")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, ok := registry.Get("known"); !ok {
		t.Fatal("expected lookup hit")
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestRegistryGetBuildsFreshInstances(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(stubFactory("known")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	first, _ := registry.Get("known")
	second, _ := registry.Get("known")
	if first == second {
		t.Fatal("expected distinct instances from repeated lookups")
	}

	first.Configure(map[string]string{"server_url": "https://a"})
	if stub := second.(*stubProvider); stub.settings != nil {
		t.Fatalf("configuring one instance leaked into another: %v", stub.settings)
	}
}

func TestRegistryDescribe(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(stubFactory("known")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	descriptor, ok := registry.Describe("known")
	if !ok || descriptor.Name != "known" {
		t.Fatalf("Describe = %+v, %v", descriptor, ok)
	}
	if _, ok := registry.Describe("unknown"); ok {
		t.Fatal("expected describe miss")
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := provider.KeyPrefix("immich"); got != "provider.immich." {
		t.Fatalf("KeyPrefix = %q", got)
	}
}
