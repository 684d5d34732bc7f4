// Package config defines the memkv-cli configuration (~/.memkv/cli.yaml).
//
// Values are layered: built-in defaults, then the YAML file, then
// MEMKV_CLI_* environment variables, then command-line flags.
package config
