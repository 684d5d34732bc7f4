package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/memkv-go/internal/telemetry/logger"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if err := verifyAddr("server.addr", cfg.Addr); err != nil {
		errs = append(errs, err)
	}
	if cfg.Databases < 1 || cfg.Databases > MaxDatabases {
		errs = append(errs, fmt.Errorf("server.databases must be between 1 and %d, got %d", MaxDatabases, cfg.Databases))
	}
	if cfg.MaxClients < 1 || cfg.MaxClients > MaxMaxClients {
		errs = append(errs, fmt.Errorf("server.max_clients must be between 1 and %d, got %d", MaxMaxClients, cfg.MaxClients))
	}
	if cfg.MaxPendingBytes < 1 {
		errs = append(errs, errors.New("server.max_pending_bytes must be positive"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if cfg.RateBurst < 0 {
		errs = append(errs, errors.New("server.rate_burst must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	var errs []error
	if cfg.SweepInterval <= 0 {
		errs = append(errs, errors.New("storage.sweep_interval must be positive"))
	}
	if cfg.SweepBatch < 1 {
		errs = append(errs, errors.New("storage.sweep_batch must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyMetrics(cfg *MetricsSection) error {
	var errs []error
	if cfg.Addr != "" {
		if err := verifyAddr("metrics.addr", cfg.Addr); err != nil {
			errs = append(errs, err)
		}
	}
	for _, entry := range cfg.AllowList {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				errs = append(errs, fmt.Errorf("metrics.allow_list: %w", err))
			}
			continue
		}
		if net.ParseIP(entry) == nil {
			errs = append(errs, fmt.Errorf("metrics.allow_list: invalid IP %q", entry))
		}
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("metrics.rate_limit must not be negative"))
	}
	if cfg.TLS.Enabled() && (cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "") {
		errs = append(errs, errors.New("metrics.tls requires both cert_file and key_file"))
	}
	if cfg.TLS.ClientCAFile != "" && !cfg.TLS.Enabled() {
		errs = append(errs, errors.New("metrics.tls.client_ca_file requires cert_file and key_file"))
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	if !logger.ValidFormat(cfg.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errors.Join(errs...)
}

// verifyAddr checks host:port syntax. The host may be empty.
func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
