package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentx-labs/registrar/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Known keys.
const (
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyCatalogPaths      = "catalog.paths"
	KeyMaxExpansionDepth = "build.max_expansion_depth"
	KeyStrict            = "build.strict"
)

// Keys lists every key the CLI reads, in display order.
func Keys() []string {
	return []string{KeyLogLevel, KeyLogFormat, KeyCatalogPaths, KeyMaxExpansionDepth, KeyStrict}
}

// Dir returns the config directory: $REGISTRAR_HOME when set, otherwise
// ~/.registrar.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("home")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the default config file path.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// DefaultCatalogDir is searched when no catalog paths are configured.
func DefaultCatalogDir() string {
	return filepath.Join(Dir(), "catalog")
}

// Config is a loaded configuration.
type Config struct {
	v    *viper.Viper
	path string
}

// Load reads the config file at path (FilePath when empty) and the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FilePath()
	}
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyCatalogPaths, []string{DefaultCatalogDir()})
	v.SetDefault(KeyMaxExpansionDepth, 0)
	v.SetDefault(KeyStrict, false)

	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return &Config{v: v, path: path}, nil
}

// Path returns the file the config reads from and writes to.
func (c *Config) Path() string { return c.path }

// Get returns a value by key rendered as a string; lists are joined by ",".
func (c *Config) Get(key string) string {
	if key == KeyCatalogPaths {
		return strings.Join(c.CatalogPaths(), ",")
	}
	return c.v.GetString(key)
}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	return slices.Contains(Keys(), key)
}

// Set stores a value and writes the config file. Catalog paths are given as
// a comma separated list.
func (c *Config) Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if key == KeyCatalogPaths {
		c.v.Set(key, splitList(value))
	} else {
		c.v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", filepath.Dir(c.path), err)
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) LogLevel() string  { return c.v.GetString(KeyLogLevel) }
func (c *Config) LogFormat() string { return c.v.GetString(KeyLogFormat) }
func (c *Config) Strict() bool      { return c.v.GetBool(KeyStrict) }

// MaxExpansionDepth bounds additional-item expansion; 0 means unbounded.
func (c *Config) MaxExpansionDepth() int { return c.v.GetInt(KeyMaxExpansionDepth) }

// CatalogPaths returns the directories searched for catalog manifests, in
// priority order. Environment values are comma separated.
func (c *Config) CatalogPaths() []string {
	var paths []string
	for _, p := range c.v.GetStringSlice(KeyCatalogPaths) {
		paths = append(paths, splitList(p)...)
	}
	return paths
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
