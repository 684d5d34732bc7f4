package confloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "MEMKV_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	envFile   string
	overrides map[string]any
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithEnvFile sets a dotenv file to read before environment variables.
func WithEnvFile(path string) Option {
	return func(l *Loader) {
		l.envFile = path
	}
}

// WithOverrides sets flat dotted keys that take precedence over every
// other source. Nil values are ignored.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every configured source and unmarshals into target. Fields
// of target not named by any source keep their current values, so callers
// pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	if err := l.LoadFile(l.filePath); err != nil {
		return err
	}
	if err := l.LoadDotenv(l.envFile); err != nil {
		return err
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if err := l.LoadMap(l.overrides); err != nil {
		return err
	}
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile loads configuration from a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

// LoadDotenv reads a dotenv file into the process environment. Variables
// that are already set win. An empty path is a no-op.
func (l *Loader) LoadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads configuration from environment variables.
//
// Only the first underscore after the prefix separates section from key,
// so MEMKV_SERVER_MAX_CLIENTS maps to server.max_clients.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return envKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// envKey converts PREFIX_SECTION_KEY_NAME to section.key_name.
func envKey(prefix, s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, prefix))
	return strings.Replace(s, "_", ".", 1)
}

// LoadMap loads flat dotted keys, skipping nil values.
func (l *Loader) LoadMap(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	flat := make(map[string]any, len(data))
	for k, v := range data {
		if v != nil {
			flat[k] = v
		}
	}
	if err := l.k.Load(nested(maps.Unflatten(flat, ".")), nil); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	return nil
}

// String returns a loaded string value.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Keys returns all loaded keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// nested feeds an already-unflattened map to koanf.
type nested map[string]any

func (n nested) Read() (map[string]any, error) { return n, nil }

func (nested) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: overrides have no byte form")
}
