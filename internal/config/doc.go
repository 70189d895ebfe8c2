// Package config loads and validates application configuration from YAML
// files and environment variables. Environment variables use the VIS_ prefix
// and take precedence over file values; relative paths are anchored under
// the executable directory so the binary behaves the same regardless of the
// working directory it is launched from.
package config
