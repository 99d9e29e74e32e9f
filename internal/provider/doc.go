// Package provider defines the capability contract for remote image sources
// and the registry that exposes them.
//
// A Provider owns its own credential schema (Descriptor), holds configuration
// in memory (Configure), validates it without touching the network
// (ValidateConfig), performs a read-only connectivity check (TestConnection),
// and downloads images into a target folder (Refresh). Refresh is safely
// re-runnable: assets already present are skipped, files a provider did not
// place are never deleted, and per-asset failures are counted rather than
// aborting the batch.
//
// The Registry is populated once at process start from an explicit factory
// list; there is no dynamic discovery. Lookups construct a fresh instance
// per call, so a Provider implementation does not need to be safe for
// concurrent use.
package provider
