// Package confloader provides configuration loading for memkv.
//
// It uses koanf as the underlying library, with a YAML file provider, an
// environment provider and a map provider for command-line overrides.
// A dotenv file, when given, is read into the process environment before
// the environment provider runs.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (WithOverrides)
//  2. Environment variables (MEMKV_SECTION_KEY)
//  3. Dotenv file (never overrides variables already set)
//  4. Configuration file
//  5. Values already present in the target struct
//
// The Watcher reports writes to the configuration file so that hot-reloadable
// settings can be applied without a restart.
package confloader
