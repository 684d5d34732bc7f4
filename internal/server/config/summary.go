package config

// Summary returns the effective configuration as slog key/value pairs for
// the startup log line.
func Summary(cfg *ServerConfig) []any {
	return []any{
		"addr", cfg.Server.Addr,
		"databases", cfg.Server.Databases,
		"max_clients", cfg.Server.MaxClients,
		"max_pending_bytes", cfg.Server.MaxPendingBytes,
		"rate_limit", cfg.Server.RateLimit,
		"rate_burst", cfg.Server.EffectiveBurst(),
		"lock_file", cfg.Server.LockFile,
		"sweep_interval", cfg.Storage.SweepInterval.String(),
		"sweep_batch", cfg.Storage.SweepBatch,
		"metrics_addr", cfg.Metrics.Addr,
		"metrics_allow_list", cfg.Metrics.AllowList,
		"metrics_tls", cfg.Metrics.TLS.Enabled(),
		"log_level", cfg.Log.Level,
	}
}

// EffectiveBurst returns RateBurst, or RateLimit rounded up when no burst
// is configured.
func (s ServerSection) EffectiveBurst() int {
	if s.RateBurst > 0 {
		return s.RateBurst
	}
	b := int(s.RateLimit)
	if float64(b) < s.RateLimit {
		b++
	}
	if b < 1 {
		b = 1
	}
	return b
}
