// Package api orchestrates the settings store, config resolution, and the
// provider registry behind the HTTP surface.
//
// The Service validates partial settings patches before anything reaches
// storage, runs on-demand file syncs, and delegates provider operations
// (configure, test, refresh) with per-provider refresh serialization and
// bounded timeouts. Transport-friendly DTOs live in types.go so the HTTP
// layer never leaks internal types.
package api
