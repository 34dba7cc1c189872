// Package config loads, normalizes, and validates clipsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPSYNC_LOG_LEVEL. The Config type centralizes every knob the engine and CLI
// need, allowing cache locations, engine limits, and log settings to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical cache backends, and clear validation errors.
package config
