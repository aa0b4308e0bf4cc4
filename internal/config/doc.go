// Package config loads, normalizes, and validates mailvet configuration data.
//
// It supplies repository defaults (including the baseline expectation suite),
// expands user paths (including tilde shortcuts), reads TOML files, and
// honours environment fallbacks such as MAILVET_NTFY_TOPIC. The Config type
// centralizes every knob the pipeline and CLI need in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
// Expectation rules are carried as declared; their semantic validation lives
// in the schema package, which owns the field registry.
package config
