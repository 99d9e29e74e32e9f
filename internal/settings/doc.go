// Package settings persists runtime configuration in SQLite and is the only
// channel shared between the API surface and the display side.
//
// The Store holds untyped string values keyed by setting name. Every
// successful write advances a store-wide revision counter so pollers can
// detect "nothing changed" with a single cheap read. Batch writes are
// transactional: either every key in the batch lands or none do, which keeps
// a concurrently polling display process from observing a half-applied
// configuration.
//
// Provider credentials live in the same table under a per-provider key
// prefix; use Namespace to read one provider's rows without touching global
// settings.
package settings
