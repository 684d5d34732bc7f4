// Package command defines the memkv-cli application.
//
// With arguments the CLI sends one command and prints the reply; without
// arguments, or with the repl subcommand, it starts an interactive
// session.
package command
