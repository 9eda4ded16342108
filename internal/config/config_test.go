package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
debug: true
server:
  host: "0.0.0.0"
  port: 8060
database:
  host: "localhost"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"
scrape:
  base_url: "https://scrape.test/v1"
  api_key: "fc-test"
llm:
  model: "openai/gpt-4o-mini"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if !cfg.Debug {
		t.Error("Load() cfg.Debug = false, want true")
	}
	if cfg.Server.Port != 8060 {
		t.Errorf("Load() cfg.Server.Port = %v, want 8060", cfg.Server.Port)
	}
	if cfg.Database.DBName != "testdb" {
		t.Errorf("Load() cfg.Database.DBName = %v, want testdb", cfg.Database.DBName)
	}
	if cfg.Scrape.BaseURL != "https://scrape.test/v1" {
		t.Errorf("Load() cfg.Scrape.BaseURL = %v, want https://scrape.test/v1", cfg.Scrape.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  host: "localhost"
  user: "testuser"
  dbname: "testdb"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("cfg.Server.Port = %v, want %v", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("cfg.Server.WriteTimeout = %v, want %v", cfg.Server.WriteTimeout, defaultWriteTimeout)
	}
	if cfg.Scrape.PollInterval != 10*time.Second {
		t.Errorf("cfg.Scrape.PollInterval = %v, want 10s", cfg.Scrape.PollInterval)
	}
	if cfg.Scrape.MaxPollAttempts != defaultMaxPollAttempts {
		t.Errorf("cfg.Scrape.MaxPollAttempts = %v, want %v", cfg.Scrape.MaxPollAttempts, defaultMaxPollAttempts)
	}
	if cfg.LLM.BaseURL != defaultLLMBaseURL {
		t.Errorf("cfg.LLM.BaseURL = %v, want %v", cfg.LLM.BaseURL, defaultLLMBaseURL)
	}
	if cfg.Redis.Enabled {
		t.Error("cfg.Redis.Enabled = true, want false by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("cfg.Server.Host = %v, want 0.0.0.0", cfg.Server.Host)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 8060
database:
  host: "localhost"
  user: "configuser"
  dbname: "testdb"
`)

	t.Setenv("DB_USER", "envuser")
	t.Setenv("SCRAPE_API_KEY", "fc-env")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Database.User != "envuser" {
		t.Errorf("cfg.Database.User = %v, want envuser", cfg.Database.User)
	}
	if cfg.Scrape.APIKey != "fc-env" {
		t.Errorf("cfg.Scrape.APIKey = %v, want fc-env", cfg.Scrape.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("cfg.Server.Port = %v, want 9000", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing server host", func(c *Config) { c.Server.Host = "" }, true},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing db user", func(c *Config) { c.Database.User = "" }, true},
		{"missing db name", func(c *Config) { c.Database.DBName = "" }, true},
		{"zero poll attempts", func(c *Config) { c.Scrape.MaxPollAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.setDefaults()
			cfg.Database.User = "user"
			cfg.Database.Host = "localhost"
			cfg.Database.DBName = "db"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
