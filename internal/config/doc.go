// Package config loads, normalizes, and validates Easel configuration data.
//
// Two layers live here. The daemon layer ([paths] and [logging] tables) is
// fixed at process start: state directories, the API bind address, and log
// output. The slideshow layer ([slideshow] table) is the runtime settings
// schema shared with the settings store; the Resolver merges it per field
// from the highest-priority layer that defines it (config file, then store,
// then built-in defaults) and records provenance for every key.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, typed values, and clamped cross-field invariants.
package config
