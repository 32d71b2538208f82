package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds everything the server needs. It is built once in main and
// passed by pointer to the components that use it.
type Config struct {
	Port           int           `koanf:"port"`
	DBPath         string        `koanf:"db_path"`
	MediaRoot      string        `koanf:"media_root"`
	MediaURL       string        `koanf:"media_url"`
	MaxUploadMB    int           `koanf:"max_upload_mb"`
	LogDirectory   string        `koanf:"log_dir"`
	LogLevel       string        `koanf:"log_level"`
	LogFormat      string        `koanf:"log_format"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	AuthRateLimit  int           `koanf:"auth_rate_limit"` // requests per AuthRateWindow per IP on /login and /register
	AuthRateWindow time.Duration `koanf:"auth_rate_window"`
	BcryptCost     int           `koanf:"bcrypt_cost"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:           8000,
		DBPath:         filepath.Join(".", "data", "geocatalog.db"),
		MediaRoot:      filepath.Join(".", "images"),
		MediaURL:       "/images/",
		MaxUploadMB:    10,
		LogDirectory:   filepath.Join(".", "logs"),
		LogLevel:       "info",
		LogFormat:      "console",
		CORSOrigins:    []string{"*"},
		AuthRateLimit:  20,
		AuthRateWindow: time.Minute,
		BcryptCost:     10,
	}
}

// knownKeys maps environment variable names (lowercased) to config keys.
var knownKeys = map[string]string{
	"port":             "port",
	"db_path":          "db_path",
	"media_root":       "media_root",
	"media_url":        "media_url",
	"max_upload_mb":    "max_upload_mb",
	"log_dir":          "log_dir",
	"log_level":        "log_level",
	"log_format":       "log_format",
	"cors_origins":     "cors_origins",
	"auth_rate_limit":  "auth_rate_limit",
	"auth_rate_window": "auth_rate_window",
	"bcrypt_cost":      "bcrypt_cost",
}

// Load reads .env (if present), then layers defaults, the optional YAML file
// and environment variables, in that order of increasing priority.
func Load() (*Config, error) {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	return LoadFrom(findConfigFile())
}

// LoadFrom is Load without the .env step. An empty path skips the YAML layer.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.MediaRoot == "" {
		errs = append(errs, errors.New("media_root is required"))
	}
	if !strings.HasPrefix(c.MediaURL, "/") || !strings.HasSuffix(c.MediaURL, "/") {
		errs = append(errs, fmt.Errorf("media_url must start and end with '/', got %q", c.MediaURL))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, fmt.Errorf("auth_rate_limit must not be negative, got %d", c.AuthRateLimit))
	}
	if c.AuthRateLimit > 0 && c.AuthRateWindow <= 0 {
		errs = append(errs, errors.New("auth_rate_window must be positive when rate limiting is enabled"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between 4 and 31, got %d", c.BcryptCost))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey keeps only the variables this service understands.
func envKey(key string) string {
	return knownKeys[strings.ToLower(key)]
}

// splitList turns a comma separated string (as env vars deliver it) into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
