package config

import "time"

// ServerConfig is the root configuration for memkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP listener and client limits.
type ServerSection struct {
	// Addr is the TCP listen address.
	Addr string `koanf:"addr"`

	// Databases is the number of logical databases (SELECT 0..n-1).
	Databases int `koanf:"databases"`

	// MaxClients bounds concurrent client connections. Connections beyond
	// it are accepted and closed immediately.
	MaxClients int `koanf:"max_clients"`

	// MaxPendingBytes bounds unsent reply bytes per connection. A client
	// that stops reading is disconnected once it is exceeded.
	MaxPendingBytes int `koanf:"max_pending_bytes"`

	// RateLimit is the sustained per-connection command rate in commands
	// per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the per-connection burst size. Defaults to RateLimit
	// rounded up when zero.
	RateBurst int `koanf:"rate_burst"`

	// LockFile, when set, is held for the life of the process so that a
	// second instance refuses to start.
	LockFile string `koanf:"lock_file"`
}

// StorageSection configures the in-memory engine.
type StorageSection struct {
	// SweepInterval is the period of the active expiry pass.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// SweepBatch caps keys removed per database per pass.
	SweepBatch int `koanf:"sweep_batch"`
}

// MetricsSection configures the HTTP metrics endpoint.
type MetricsSection struct {
	// Addr is the HTTP listen address for /metrics and /healthz.
	// Empty disables the endpoint.
	Addr string `koanf:"addr"`

	// AllowList restricts /metrics to these IPs or CIDR blocks.
	// Empty allows every client.
	AllowList []string `koanf:"allow_list"`

	// RateLimit is the per-IP request rate for the HTTP endpoints.
	// Zero disables limiting.
	RateLimit int `koanf:"rate_limit"`

	// TLS serves the endpoint over HTTPS when a key pair is set.
	TLS TLSSection `koanf:"tls"`
}

// TLSSection names the PEM files for an HTTPS listener. The key pair is
// reloaded when the files change.
type TLSSection struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// ClientCAFile, when set, requires client certificates signed by
	// one of its CAs.
	ClientCAFile string `koanf:"client_ca_file"`
}

// Enabled reports whether a key pair is configured.
func (t TLSSection) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != ""
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
