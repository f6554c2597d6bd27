// Package config loads configuration from files, environment variables,
// and flags, and validates it.
package config
