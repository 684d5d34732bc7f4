package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// KeyspaceStats is the per-database snapshot reported by a KeyspaceCollector.
type KeyspaceStats struct {
	DB      int
	Keys    int
	Expires int
}

// KeyspaceCollector reports per-database key counts at scrape time.
//
// The stats func is called from the scrape goroutine, so it must be safe to
// call concurrently with the server. The server satisfies this by publishing
// a snapshot from its loop rather than reading databases directly.
type KeyspaceCollector struct {
	stats func() []KeyspaceStats

	keys    *prometheus.Desc
	expires *prometheus.Desc
}

// NewKeyspaceCollector creates a collector backed by stats.
func NewKeyspaceCollector(stats func() []KeyspaceStats) *KeyspaceCollector {
	return &KeyspaceCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "keys"),
			"Number of keys per database.",
			[]string{"db"}, nil,
		),
		expires: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "expires"),
			"Number of keys with a TTL per database.",
			[]string{"db"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expires
}

// Collect implements prometheus.Collector. Empty databases are skipped.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.stats() {
		if s.Keys == 0 && s.Expires == 0 {
			continue
		}
		db := strconv.Itoa(s.DB)
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys), db)
		ch <- prometheus.MustNewConstMetric(c.expires, prometheus.GaugeValue, float64(s.Expires), db)
	}
}
