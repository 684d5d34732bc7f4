package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/internal/infra/confloader"
)

// EnvPrefix is the environment variable prefix for CLI settings, so
// MEMKV_CLI_CONNECTION_SERVER maps to connection.server.
const EnvPrefix = "MEMKV_CLI_"

// Defaults.
const (
	DefaultServer  = "localhost:6379"
	DefaultTimeout = 5 * time.Second
)

// CLIConfig is the configuration for memkv-cli.
type CLIConfig struct {
	Connection ConnectionSection `koanf:"connection"`
	Output     OutputSection     `koanf:"output"`
	History    HistorySection    `koanf:"history"`
}

// ConnectionSection selects the server and database.
type ConnectionSection struct {
	Server  string        `koanf:"server"`
	DB      int           `koanf:"db"`
	Timeout time.Duration `koanf:"timeout"`
}

// OutputSection selects the reply format.
type OutputSection struct {
	Format string `koanf:"format"`
}

// HistorySection configures REPL history. An empty file disables
// persistence.
type HistorySection struct {
	File string `koanf:"file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	homeDir, _ := os.UserHomeDir()
	return &CLIConfig{
		Connection: ConnectionSection{
			Server:  DefaultServer,
			Timeout: DefaultTimeout,
		},
		Output:  OutputSection{Format: string(output.FormatText)},
		History: HistorySection{File: filepath.Join(homeDir, ".memkv", "history")},
	}
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".memkv", "cli.yaml")
}

// Load layers path, MEMKV_CLI_* variables and overrides over the
// defaults. A missing file is skipped; an empty path means
// DefaultConfigPath. Override keys are dotted, e.g. "connection.server".
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *CLIConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Connection.Server); err != nil {
		return fmt.Errorf("connection.server %q: %w", c.Connection.Server, err)
	}
	if c.Connection.DB < 0 {
		return fmt.Errorf("connection.db must be non-negative, got %d", c.Connection.DB)
	}
	if c.Connection.Timeout <= 0 {
		return fmt.Errorf("connection.timeout must be positive, got %s", c.Connection.Timeout)
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	return nil
}
