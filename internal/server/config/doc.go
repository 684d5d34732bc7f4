// Package config provides server configuration for memkv.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of every section
//   - summary.go: Key/value pairs for the startup log line
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, dotenv files, environment variables, and flags.
package config
