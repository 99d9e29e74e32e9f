package provider

import "context"

// Provider is the capability set every remote image source implements.
type Provider interface {
	// Describe returns static metadata and the configuration field schema.
	Describe() Descriptor

	// Configure stores the namespaced settings in memory for this instance.
	// It does not validate.
	Configure(settings map[string]string)

	// ValidateConfig checks required fields are present and well-formed.
	// Pure; no network calls. A failure wraps ErrConfigInvalid.
	ValidateConfig() error

	// TestConnection performs a live, read-only round trip with a bounded
	// timeout. It never mutates remote state and never panics past the call
	// boundary; failures come back as (false, reason).
	TestConnection(ctx context.Context) (bool, string)

	// Refresh downloads available images into targetFolder. Re-running
	// against an unchanged remote set leaves the folder unchanged.
	Refresh(ctx context.Context, targetFolder string) Outcome
}

// KeyPrefix returns the settings-store namespace for a provider's
// configuration rows.
func KeyPrefix(name string) string {
	return "provider." + name + "."
}
