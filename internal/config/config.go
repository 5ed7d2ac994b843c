package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "THREADLINE_"
	configDirName  = ".threadline"
	configFileName = "config.yaml"

	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	OAuth   OAuthConfig   `yaml:"oauth" envPrefix:"OAUTH_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`

	// Instance is used for anonymous requests and whenever the active token
	// carries no issuer.
	Instance string `yaml:"instance" env:"INSTANCE"`

	StrictActive          bool          `yaml:"strict_active" env:"STRICT_ACTIVE"`
	ClearPendingOnSuccess bool          `yaml:"clear_pending_on_success" env:"CLEAR_PENDING_ON_SUCCESS"`
	ContentTTL            time.Duration `yaml:"content_ttl" env:"CONTENT_TTL"`
}

type StorageConfig struct {
	Driver        string        `yaml:"driver" env:"DRIVER"`
	Path          string        `yaml:"path" env:"PATH"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string        `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	RedisTimeout  time.Duration `yaml:"redis_timeout" env:"REDIS_TIMEOUT"`
}

type OAuthConfig struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri" env:"REDIRECT_URI"`
	UserAgent    string `yaml:"user_agent" env:"USER_AGENT"`
}

type LogConfig struct {
	Path  string `yaml:"path" env:"PATH"`
	Level string `yaml:"level" env:"LEVEL"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:      DriverFile,
			RedisPrefix: "threadline",
		},
		OAuth: OAuthConfig{
			RedirectURI: "http://127.0.0.1:65010/callback",
			UserAgent:   "threadline/0.1",
		},
		Log: LogConfig{
			Level: "info",
		},
		Instance:     "lemmy.world",
		StrictActive: true,
		ContentTTL:   10 * time.Minute,
	}
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load builds the configuration from defaults, then the YAML file at path
// (the default location when empty, skipped when missing), then .env
// files, then THREADLINE_* environment variables.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverMemory:
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.ContentTTL < 0 {
		return fmt.Errorf("content_ttl must not be negative")
	}
	return nil
}

// Save writes c as YAML to path, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
