// Package config loads, normalizes, and validates the TOML configuration
// for the spool daemon and CLI.
package config
