// Package main provides the entry point for memkv-cli, an interactive
// and one-shot client for memkv-server.
package main
