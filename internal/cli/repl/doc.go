// Package repl provides the interactive mode of memkv-cli.
//
//   - repl.go: read-eval-print loop and built-in commands
//   - completer.go: verb completion backed by the server grammar
//   - history.go: command history persisted under ~/.memkv
package repl
