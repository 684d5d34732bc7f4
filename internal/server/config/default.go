package config

import "time"

// Default configuration values.
const (
	DefaultAddr            = "localhost:6379"
	DefaultDatabases       = 16
	DefaultMaxClients      = 4096
	DefaultMaxPendingBytes = 64 << 20

	DefaultSweepInterval = 100 * time.Millisecond
	DefaultSweepBatch    = 1000

	DefaultMetricsAddr      = ""
	DefaultMetricsRateLimit = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Limits enforced by Verify.
const (
	MaxDatabases  = 1 << 16
	MaxMaxClients = 65535
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultAddr,
			Databases:       DefaultDatabases,
			MaxClients:      DefaultMaxClients,
			MaxPendingBytes: DefaultMaxPendingBytes,
		},
		Storage: StorageSection{
			SweepInterval: DefaultSweepInterval,
			SweepBatch:    DefaultSweepBatch,
		},
		Metrics: MetricsSection{
			Addr:      DefaultMetricsAddr,
			RateLimit: DefaultMetricsRateLimit,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
