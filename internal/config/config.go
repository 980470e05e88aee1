// Package config provides YAML-based configuration loading for shovo.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultOMDBAPIKey is the public key the OMDb client falls back to when
// neither the config file nor OMDB_API_KEY provides one.
const DefaultOMDBAPIKey = "thewdb"

// Config is the top-level shovo configuration, loaded from shovo.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Metadata MetadataConfig `yaml:"metadata"`
	Cache    CacheConfig    `yaml:"cache"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig selects and locates the durable store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	Path   string `yaml:"path"`   // sqlite file
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MetadataConfig configures the IMDb/OMDb metadata source.
type MetadataConfig struct {
	OMDBAPIKey        string        `yaml:"omdb_api_key"`
	OMDBURL           string        `yaml:"omdb_url"`
	IMDBSuggestURL    string        `yaml:"imdb_suggest_url"`
	IMDBTitleURL      string        `yaml:"imdb_title_url"`
	IMDBTrendingURL   string        `yaml:"imdb_trending_url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RatePerSecond     float64       `yaml:"rate_per_second"`
	Burst             int           `yaml:"burst"`
	SeasonConcurrency int           `yaml:"season_concurrency"`
}

// CacheConfig holds optional enrichment cache settings.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
}

// RefreshConfig holds background refresh settings.
type RefreshConfig struct {
	Schedule string `yaml:"schedule"` // 5-field cron expression; empty disables the sweep
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "shovo.sqlite3"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "shovo"
		}
	}

	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}

	m := &c.Metadata
	if key := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); key != "" {
		m.OMDBAPIKey = key
	}
	if m.OMDBAPIKey == "" {
		m.OMDBAPIKey = DefaultOMDBAPIKey
	}
	if m.OMDBURL == "" {
		m.OMDBURL = "https://www.omdbapi.com/"
	}
	if m.IMDBSuggestURL == "" {
		m.IMDBSuggestURL = "https://v3.sg.media-imdb.com/suggestion"
	}
	if m.IMDBTitleURL == "" {
		m.IMDBTitleURL = "https://www.imdb.com/title"
	}
	if m.IMDBTrendingURL == "" {
		m.IMDBTrendingURL = "https://www.imdb.com/chart/moviemeter/"
	}
	if m.UserAgent == "" {
		m.UserAgent = "shovo-movielist/1.0 (+https://example.com)"
	}
	if m.Timeout == 0 {
		m.Timeout = 10 * time.Second
	}
	if m.RatePerSecond == 0 {
		m.RatePerSecond = 5
	}
	if m.Burst == 0 {
		m.Burst = 5
	}
	if m.SeasonConcurrency == 0 {
		m.SeasonConcurrency = 4
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Metadata.Timeout < 0 {
		errs = append(errs, "metadata.timeout must be positive")
	}
	if c.Metadata.RatePerSecond < 0 {
		errs = append(errs, "metadata.rate_per_second must be positive")
	}
	if c.Metadata.Burst < 0 {
		errs = append(errs, "metadata.burst must be positive")
	}
	if c.Metadata.SeasonConcurrency < 0 {
		errs = append(errs, "metadata.season_concurrency must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not supported (text, json)", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
