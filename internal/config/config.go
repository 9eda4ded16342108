// Package config loads service configuration from a YAML file with
// environment variable overrides. A .env file, if present, is loaded
// before overrides are applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerPort    = 8060
	defaultServerTimeout = 30 * time.Second
	// Discovery blocks its request for up to poll_interval * max_poll_attempts,
	// so the write timeout must outlast the polling ceiling.
	defaultWriteTimeout    = 6 * time.Minute
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisAddress    = "localhost:6379"

	defaultScrapeBaseURL   = "https://api.firecrawl.dev/v1"
	defaultPollInterval    = 10 * time.Second
	defaultMaxPollAttempts = 30

	defaultLLMBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMModel   = "openai/gpt-4o-mini"
)

type Config struct {
	Debug    bool           `env:"APP_DEBUG" yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection settings for event publishing.
// Enabled acts as a feature flag; the service runs without Redis.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

// ScrapeConfig describes the external batch-scrape service.
type ScrapeConfig struct {
	BaseURL         string        `env:"SCRAPE_BASE_URL" yaml:"base_url"`
	APIKey          string        `env:"SCRAPE_API_KEY"  yaml:"api_key"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
}

// LLMConfig describes the chat-completion service. Referer and Title
// are passed through as attribution headers when set.
type LLMConfig struct {
	BaseURL string `env:"LLM_BASE_URL" yaml:"base_url"`
	APIKey  string `env:"LLM_API_KEY"  yaml:"api_key"`
	Model   string `env:"LLM_MODEL"    yaml:"model"`
	Referer string `env:"LLM_REFERER"  yaml:"referer"`
	Title   string `yaml:"title"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Scrape.MaxPollAttempts <= 0 {
		return errors.New("scrape.max_poll_attempts must be positive")
	}
	return nil
}

// Load reads the YAML config at path (missing file is not an error),
// loads .env files, applies environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	// .env.local overrides .env; both are optional
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		c.Debug, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_EVENTS_ENABLED"); v != "" {
		c.Redis.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("SCRAPE_BASE_URL"); v != "" {
		c.Scrape.BaseURL = v
	}
	if v := os.Getenv("SCRAPE_API_KEY"); v != "" {
		c.Scrape.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_REFERER"); v != "" {
		c.LLM.Referer = v
	}
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultServerTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Database.Port == 0 {
		c.Database.Port = defaultDatabasePort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if c.Redis.Address == "" {
		c.Redis.Address = defaultRedisAddress
	}
	if c.Scrape.BaseURL == "" {
		c.Scrape.BaseURL = defaultScrapeBaseURL
	}
	if c.Scrape.PollInterval == 0 {
		c.Scrape.PollInterval = defaultPollInterval
	}
	if c.Scrape.MaxPollAttempts == 0 {
		c.Scrape.MaxPollAttempts = defaultMaxPollAttempts
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
}
