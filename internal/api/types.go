package api

import (
	"easel/internal/config"
	"easel/internal/provider"
)

// SettingsResponse is the transport form of a resolved settings snapshot.
type SettingsResponse struct {
	Settings    map[string]string `json:"settings"`
	Provenance  map[string]string `json:"provenance"`
	ConfigFile  string            `json:"configFile,omitempty"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

// FromResolved converts a resolved snapshot into its transport form.
func FromResolved(resolved *config.Resolved) SettingsResponse {
	provenance := make(map[string]string, len(resolved.Provenance))
	for key, source := range resolved.Provenance {
		provenance[key] = string(source)
	}
	return SettingsResponse{
		Settings:    resolved.Values(),
		Provenance:  provenance,
		ConfigFile:  resolved.FilePath,
		Diagnostics: resolved.Diagnostics,
	}
}

// ProviderConfigResponse carries a provider's stored configuration with
// password fields masked.
type ProviderConfigResponse struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config"`
}

// TestResult is the transport form of a connectivity test.
type TestResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ProviderList carries the registered provider descriptors in registration
// order.
type ProviderList struct {
	Providers []provider.Descriptor `json:"providers"`
}
