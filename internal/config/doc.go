// Package config loads, normalizes, and validates dubber configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEEPL_API_KEY and ELEVENLABS_API_KEY. When neither source provides a key a
// recognizable placeholder is stored so offline commands keep working;
// RequireCredentials rejects placeholders before any network call.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
