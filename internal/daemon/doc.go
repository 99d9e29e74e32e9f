// Package daemon coordinates the long-running Easel process.
//
// It wires the settings store, config resolution, the provider registry, the
// HTTP API, and the display-side change poller into a single lifecycle with
// flock-based locking to prevent multiple instances. Startup runs one full
// resolution to seed the store; after that the store is the only channel
// between the API surface and the display state.
//
// Keep orchestration logic here: settings semantics live in config and
// settings, provider behavior in the provider packages.
package daemon
