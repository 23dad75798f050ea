package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Gemini     GeminiConfig     `envconfig:"GEMINI"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Snippet    SnippetConfig    `envconfig:"SNIPPET"`
	Analysis   AnalysisConfig   `envconfig:"ANALYSIS"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
	HealthPort string           `envconfig:"HEALTH_PORT" default:""`
}

// GeminiConfig holds the upstream credential pool and model selection.
// APIKeys is the ordered rotation pool; empty entries are filtered out.
type GeminiConfig struct {
	APIKeys []string `envconfig:"GEMINI_API_KEYS" required:"true"`
	Model   string   `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

// DatabaseConfig represents document store connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Name           string `envconfig:"DB_NAME" default:"factwatch"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
}

// RedisConfig represents the optional run-lock backend
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a Redis host was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// ClickHouseConfig represents the optional run-metrics sink
type ClickHouseConfig struct {
	Addr     string `envconfig:"CLICKHOUSE_ADDR" default:""`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"factwatch"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
}

// Enabled reports whether a ClickHouse address was configured.
func (c *ClickHouseConfig) Enabled() bool {
	return c.Addr != ""
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s/%s", c.User, c.Password, c.Addr, c.Database)
}

// SnippetConfig controls the evidence-quote extractor
type SnippetConfig struct {
	Enabled      bool          `envconfig:"SNIPPET_ENABLED" default:"true"`
	Delay        time.Duration `envconfig:"SNIPPET_DELAY" default:"500ms"`
	FetchTimeout time.Duration `envconfig:"SNIPPET_FETCH_TIMEOUT" default:"5s"`
	MaxSnippets  int           `envconfig:"SNIPPET_MAX" default:"5"`
}

// AnalysisConfig controls the scheduled pipeline runs
type AnalysisConfig struct {
	Period        string        `envconfig:"ANALYSIS_PERIOD" default:"today"`
	Interval      time.Duration `envconfig:"ANALYSIS_INTERVAL" default:"6h"`
	WorkerEnabled bool          `envconfig:"ANALYSIS_WORKER_ENABLED" default:"true"`
}

// TelegramConfig represents crisis-alert delivery
type TelegramConfig struct {
	BotToken      string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	ChatID        int64  `envconfig:"TELEGRAM_CHAT_ID" default:"0"`
	AlertOnCrisis bool   `envconfig:"TELEGRAM_ALERT_ON_CRISIS" default:"true"`
}

// Enabled reports whether alert delivery is configured.
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	keys := c.Gemini.FilteredKeys()
	if len(keys) == 0 {
		return fmt.Errorf("at least one Gemini API key must be configured")
	}

	if c.Snippet.MaxSnippets < 0 {
		return fmt.Errorf("snippet max must not be negative")
	}
	if c.Snippet.Delay < 0 {
		return fmt.Errorf("snippet delay must not be negative")
	}

	switch c.Analysis.Period {
	case "today", "week", "month", "year":
	default:
		return fmt.Errorf("analysis period must be one of today/week/month/year, got %q", c.Analysis.Period)
	}

	if c.Analysis.Interval < time.Minute {
		return fmt.Errorf("analysis interval must be at least one minute")
	}

	return nil
}

// FilteredKeys returns the credential pool with empty entries removed,
// preserving declared order.
func (c *GeminiConfig) FilteredKeys() []string {
	keys := make([]string, 0, len(c.APIKeys))
	for _, k := range c.APIKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
