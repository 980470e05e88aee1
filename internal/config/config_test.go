package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: shovo
  name: shovo_prod

server:
  port: 8081

metadata:
  omdb_api_key: secret
  user_agent: shovo-test/1.0
  timeout: 3s
  rate_per_second: 2.5
  burst: 10
  season_concurrency: 2

cache:
  redis_url: redis://localhost:6379/0

refresh:
  schedule: "0 4 * * *"

logging:
  level: debug
  format: json
`

const minimalYAML = `
server:
  port: 9000
`

func TestParse_FullConfig(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "10.0.0.5")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 3307)
	}
	if cfg.Database.Name != "shovo_prod" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "shovo_prod")
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Metadata.OMDBAPIKey != "secret" {
		t.Errorf("Metadata.OMDBAPIKey = %q, want %q", cfg.Metadata.OMDBAPIKey, "secret")
	}
	if cfg.Metadata.Timeout != 3*time.Second {
		t.Errorf("Metadata.Timeout = %s, want 3s", cfg.Metadata.Timeout)
	}
	if cfg.Metadata.RatePerSecond != 2.5 {
		t.Errorf("Metadata.RatePerSecond = %v, want 2.5", cfg.Metadata.RatePerSecond)
	}
	if cfg.Metadata.Burst != 10 {
		t.Errorf("Metadata.Burst = %d, want 10", cfg.Metadata.Burst)
	}
	if cfg.Metadata.SeasonConcurrency != 2 {
		t.Errorf("Metadata.SeasonConcurrency = %d, want 2", cfg.Metadata.SeasonConcurrency)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Cache.RedisURL = %q", cfg.Cache.RedisURL)
	}
	if cfg.Refresh.Schedule != "0 4 * * *" {
		t.Errorf("Refresh.Schedule = %q, want %q", cfg.Refresh.Schedule, "0 4 * * *")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want default %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Database.Path != "shovo.sqlite3" {
		t.Errorf("Database.Path = %q, want default %q", cfg.Database.Path, "shovo.sqlite3")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Metadata.OMDBAPIKey != DefaultOMDBAPIKey {
		t.Errorf("Metadata.OMDBAPIKey = %q, want default %q", cfg.Metadata.OMDBAPIKey, DefaultOMDBAPIKey)
	}
	if cfg.Metadata.Timeout != 10*time.Second {
		t.Errorf("Metadata.Timeout = %s, want default 10s", cfg.Metadata.Timeout)
	}
	if cfg.Metadata.SeasonConcurrency != 4 {
		t.Errorf("Metadata.SeasonConcurrency = %d, want default 4", cfg.Metadata.SeasonConcurrency)
	}
	if cfg.Refresh.Schedule != "" {
		t.Errorf("Refresh.Schedule = %q, want empty", cfg.Refresh.Schedule)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: MySQL\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want lowercased %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("Database host/port = %s:%d, want 127.0.0.1:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" || cfg.Database.Name != "shovo" {
		t.Errorf("Database user/name = %q/%q, want root/shovo", cfg.Database.User, cfg.Database.Name)
	}
	if cfg.Database.Path != "" {
		t.Errorf("Database.Path = %q, want empty for mysql", cfg.Database.Path)
	}
}

func TestParse_EnvOverridesOMDBKey(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "from-env")
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Metadata.OMDBAPIKey != "from-env" {
		t.Errorf("Metadata.OMDBAPIKey = %q, want %q", cfg.Metadata.OMDBAPIKey, "from-env")
	}
}

func TestParse_UnsupportedDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "database.driver") {
		t.Errorf("error = %q, want to mention database.driver", err.Error())
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	yaml := `
database:
  driver: oracle
server:
  port: 70000
logging:
  format: xml
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"database.driver", "server.port", "logging.format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shovo.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/shovo.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want default 5000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoadOrDefault_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected validation error to propagate")
	}
}
