// Package output renders server replies for memkv-cli.
//
//   - formatter.go: Formatter interface, factory and the redis-cli style text format
//   - raw.go: unadorned values for scripting
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
package output
