// Package config loads, normalizes, and validates strmsync configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STRMSYNC_GATEWAY_TOKEN and TMDB_API_KEY. The Config type centralizes every
// knob the daemon and CLI need, so the state directory, gateway credentials,
// and engine tuning are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
