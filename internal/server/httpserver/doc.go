// Package httpserver exposes memkv's observability endpoints over HTTP:
// /metrics (Prometheus), /healthz (liveness) and /readyz (readiness).
//
// It uses the Go standard library net/http with a small middleware chain.
package httpserver
