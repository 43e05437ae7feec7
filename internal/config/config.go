// Package config loads tweakkit settings from defaults, an optional YAML
// config file, TWEAKKIT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvPrefix is the prefix of environment overrides, e.g. TWEAKKIT_STORAGE_BACKEND.
const EnvPrefix = "TWEAKKIT"

// Storage backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// CatalogConfig locates the tweak definitions file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig selects where overrides are persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path defaults to tweaks.state.yaml or tweaks.db depending on Backend.
	Path string `mapstructure:"path"`
}

// ServerConfig holds settings for the HTTP admin server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// ReadTokens guard read endpoints; empty means reads are open.
	ReadTokens []string `mapstructure:"read_tokens"`
	// WriteTokens guard write endpoints; empty means writes are not mounted.
	WriteTokens []string `mapstructure:"write_tokens"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // text|json
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"catalog":         "catalog.path",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"addr":            "server.addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// Load reads configuration. file is an explicit config path; when empty,
// tweakkit.yaml in the working directory is used if present. flags may be nil;
// flags that were set on the command line override every other source.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("storage.backend", BackendYAML)
	v.SetDefault("storage.path", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_tokens", []string{})
	v.SetDefault("server.write_tokens", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("tweakkit")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.normalize(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendYAML:
		if c.Storage.Path == "" {
			c.Storage.Path = "tweaks.state.yaml"
		}
	case BackendSQLite:
		if c.Storage.Path == "" {
			c.Storage.Path = "tweaks.db"
		}
	default:
		return fmt.Errorf("%w: storage.backend %q (want %s or %s)", ErrInvalidConfig, c.Storage.Backend, BackendYAML, BackendSQLite)
	}
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("%w: catalog.path is empty", ErrInvalidConfig)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format = strings.ToLower(c.Log.Format); c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidConfig, c.Log.Format)
	}
	c.Server.ReadTokens = compact(c.Server.ReadTokens)
	c.Server.WriteTokens = compact(c.Server.WriteTokens)
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, l.Level)
	}
	return lv, nil
}

func compact(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
