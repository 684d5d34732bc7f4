// Package main provides the entry point for memkv-server.
//
// memkv-server is an in-memory key-value server that speaks the Redis
// RESP protocol on a single event loop. Optional HTTP endpoints expose
// Prometheus metrics and health checks.
package main
