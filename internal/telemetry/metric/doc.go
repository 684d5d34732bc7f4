// Package metric provides Prometheus metrics for memkv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, server metrics and HTTP handler
//   - collector.go: Keyspace collector reading per-database stats at scrape time
//
// Metrics include:
//
//   - Command counters and latency histograms
//   - Connection gauges and rejection counters
//   - Expired key counters
//   - Per-database key and TTL counts
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
