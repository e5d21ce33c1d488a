package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/hopper"
	"github.com/redbco/redb-hopper/pkg/keyring"
	"github.com/redbco/redb-hopper/pkg/logger"
)

// File is the hopper configuration file.
type File struct {
	Default     string                    `yaml:"default"`
	Logging     LoggingConfig             `yaml:"logging"`
	Metrics     MetricsConfig             `yaml:"metrics"`
	Health      HealthConfig              `yaml:"health"`
	Keyring     KeyringConfig             `yaml:"keyring"`
	Connections map[string]map[string]any `yaml:"connections" validate:"dive,keys,required,endkeys,required"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address" validate:"required_if=Enabled true"`
	Path      string `yaml:"path" validate:"omitempty,startswith=/,ne=/healthz"`
	Namespace string `yaml:"namespace" validate:"omitempty,alphanum"`
}

type HealthConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// KeyringConfig locates the secrets referenced as "keyring:<account>".
type KeyringConfig struct {
	Backend string `yaml:"backend" validate:"omitempty,oneof=auto system file"`
	Path    string `yaml:"path"`
	Service string `yaml:"service"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
// ${VAR} references inside connection values are expanded from the environment.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	file.applyDefaults()

	for name, conn := range file.Connections {
		if conn == nil {
			continue
		}
		file.Connections[name] = expand(conn).(map[string]any)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) applyDefaults() {
	if f.Logging.Level == "" {
		f.Logging.Level = "info"
	}
	if f.Metrics.Address == "" {
		f.Metrics.Address = ":9464"
	}
	if f.Metrics.Path == "" {
		f.Metrics.Path = "/metrics"
	}
	if f.Metrics.Namespace == "" {
		f.Metrics.Namespace = "hopper"
	}
	if f.Health.Interval == 0 {
		f.Health.Interval = 30 * time.Second
	}
	if f.Health.Timeout == 0 {
		f.Health.Timeout = 5 * time.Second
	}
	if f.Keyring.Backend == "" {
		f.Keyring.Backend = keyring.BackendAuto
	}
	if f.Keyring.Path == "" {
		f.Keyring.Path = keyring.DefaultPath()
	}
	if f.Keyring.Service == "" {
		f.Keyring.Service = keyring.DefaultService
	}
}

// OpenKeyring opens the keyring described by the keyring section.
func (f *File) OpenKeyring() (keyring.Store, error) {
	return keyring.Open(f.Keyring.Backend, f.Keyring.Path, keyring.MasterKeyFromEnv())
}

// ResolveSecrets replaces keyring references in g's connections with their
// secrets. The keyring is only opened when a reference exists.
func (f *File) ResolveSecrets(g *hopper.GlobalConfig) error {
	var store keyring.Store
	for _, name := range slices.Sorted(maps.Keys(g.Connections)) {
		conn := g.Connections[name]
		if !keyring.HasReferences(conn) {
			continue
		}

		if store == nil {
			var err error
			if store, err = f.OpenKeyring(); err != nil {
				return err
			}
		}

		resolved, err := keyring.Resolve(conn, store, f.Keyring.Service)
		if err != nil {
			return fmt.Errorf("connection %s: %w", name, err)
		}
		g.Connections[name] = resolved
	}
	return nil
}

// Validate checks the structure and that every connection names a driver.
func (f *File) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(f.Connections)) {
		driver, _ := f.Connections[name][adapter.KeyDriver].(string)
		if strings.TrimSpace(driver) == "" {
			errs = append(errs, fmt.Errorf("connections.%s.driver is required", name))
		}
	}
	if f.Default != "" {
		if _, ok := f.Connections[f.Default]; !ok {
			errs = append(errs, fmt.Errorf("default connection %q is not defined", f.Default))
		}
	}
	return errors.Join(errs...)
}

// LoggerOptions returns the logger options described by the logging section.
func (f *File) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  f.Logging.Level,
		Format: f.Logging.Format,
	}
}

// Global converts the file to a registry configuration sharing log.
func (f *File) Global(log *logger.Logger) *hopper.GlobalConfig {
	conns := make(map[string]adapter.Config, len(f.Connections))
	for name, conn := range f.Connections {
		conns[name] = adapter.Config(maps.Clone(conn))
	}

	return &hopper.GlobalConfig{
		Default:     f.Default,
		Logger:      log,
		Connections: conns,
	}
}

func expand(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = expand(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expand(item)
		}
		return out
	default:
		return v
	}
}
