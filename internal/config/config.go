package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`

	// redis, used for write rate limiting
	RedisHost            string `toml:"redis_host"`
	RedisPort            string `toml:"redis_port"`
	WriteRateLimitPerMin int    `toml:"write_rate_limit_per_min"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// views
	Locale      string `toml:"locale"`
	CacheSizeMB int    `toml:"cache_size_mb"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env,
// with defaults applied for unset values.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDB == "" {
		c.PostgresDB = "workoutlog"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.WriteRateLimitPerMin == 0 {
		c.WriteRateLimitPerMin = 60
	}
	if c.Locale == "" {
		c.Locale = "pt_BR"
	}
	if c.CacheSizeMB == 0 {
		c.CacheSizeMB = 16
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.PostgresHost == "" {
		return errors.New("postgres_host not set")
	}
	if c.WriteRateLimitPerMin < 0 {
		return fmt.Errorf("negative write rate limit: %d", c.WriteRateLimitPerMin)
	}
	if c.CacheSizeMB < 0 {
		return fmt.Errorf("negative cache size: %d", c.CacheSizeMB)
	}
	return nil
}
