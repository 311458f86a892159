package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	AI         AIConfig         `envconfig:"AI"`
	Market     MarketConfig     `envconfig:"MARKET"`
	Forecast   ForecastConfig   `envconfig:"FORECAST"`
	Backtest   BacktestConfig   `envconfig:"BACKTEST"`
	Options    OptionsConfig    `envconfig:"OPTIONS"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Logging    LoggingConfig    `envconfig:"LOG"`
	Health     HealthConfig     `envconfig:"HEALTH"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432"`
	Name     string `envconfig:"NAME" default:"rally_radar"`
	User     string `envconfig:"USER" default:"radar"`
	Password string `envconfig:"PASSWORD"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"10"`
}

// RedisConfig configures the quote cache and the backtest run lock
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// ClickHouseConfig configures the outcome analytics sink
type ClickHouseConfig struct {
	Enabled   bool          `envconfig:"ENABLED" default:"false"`
	DSN       string        `envconfig:"DSN" default:"clickhouse://localhost:9000/rally_radar"`
	BatchSize int           `envconfig:"BATCH_SIZE" default:"100"`
	Flush     time.Duration `envconfig:"FLUSH_INTERVAL" default:"10s"`
}

// AIConfig represents reasoning provider configurations
type AIConfig struct {
	OpenAI  AIProviderConfig `envconfig:"OPENAI"`
	Claude  AIProviderConfig `envconfig:"CLAUDE"`
	Gemini  AIProviderConfig `envconfig:"GEMINI"`
	Order   []string         `envconfig:"ORDER" default:"claude,openai,gemini"`
	Timeout time.Duration    `envconfig:"TIMEOUT" default:"90s"`
}

// AIProviderConfig represents single AI provider configuration
type AIProviderConfig struct {
	APIKey      string  `envconfig:"API_KEY"`
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	Model       string  `envconfig:"MODEL"`
	BaseURL     string  `envconfig:"BASE_URL"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"4096"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.3"`
}

// MarketConfig configures the quote and options chain provider
type MarketConfig struct {
	BaseURL           string        `envconfig:"BASE_URL" default:"https://api.tradier.com"`
	Token             string        `envconfig:"TOKEN"`
	RequestsPerSecond float64       `envconfig:"RPS" default:"2"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"15s"`
	QuoteCacheTTL     time.Duration `envconfig:"QUOTE_CACHE_TTL" default:"1m"`
}

// ForecastConfig tunes the prediction orchestrator
type ForecastConfig struct {
	Schedule        string   `envconfig:"SCHEDULE" default:"0 */4 * * *"`
	MinNews         int      `envconfig:"MIN_NEWS" default:"10"`
	FetchLimit      int      `envconfig:"FETCH_LIMIT" default:"100"`
	PromptNews      int      `envconfig:"PROMPT_NEWS" default:"40"`
	SummaryLength   int      `envconfig:"SUMMARY_LENGTH" default:"200"`
	MinConfidence   int      `envconfig:"MIN_CONFIDENCE" default:"40"`
	SignalWindow    int      `envconfig:"SIGNAL_WINDOW_DAYS" default:"7"`
	PrioritySectors []string `envconfig:"PRIORITY_SECTORS" default:"AI,Semiconductors,Quantum Computing,Nuclear Energy,Biotech,Defense,Crypto,Space"`
}

// BacktestConfig tunes the evaluator
type BacktestConfig struct {
	Interval         time.Duration `envconfig:"INTERVAL" default:"6h"`
	SuccessThreshold float64       `envconfig:"SUCCESS_THRESHOLD" default:"0.02"`
	LockTTL          time.Duration `envconfig:"LOCK_TTL" default:"10m"`
}

// OptionsConfig tunes contract selection. Offsets are policy, their defaults match
// the values historical recommendations were produced with.
type OptionsConfig struct {
	LiquidityFloor  int64   `envconfig:"LIQUIDITY_FLOOR" default:"50"`
	Alternatives    int     `envconfig:"ALTERNATIVES" default:"5"`
	HighConfidence  int     `envconfig:"HIGH_CONFIDENCE" default:"75"`
	MidConfidence   int     `envconfig:"MID_CONFIDENCE" default:"50"`
	MidStrikeOffset float64 `envconfig:"MID_STRIKE_OFFSET" default:"0.05"`
	LowStrikeOffset float64 `envconfig:"LOW_STRIKE_OFFSET" default:"0.10"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	BotToken string `envconfig:"BOT_TOKEN"`
	ChatID   int64  `envconfig:"CHAT_ID"`
}

// HealthConfig configures the probe server. An empty port disables it.
type HealthConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	File  string `envconfig:"FILE"`
}

// Load reads configuration from environment variables, after loading .env when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

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
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if len(c.AI.EnabledProviders()) == 0 {
		return fmt.Errorf("at least one AI provider must be enabled and configured")
	}

	if c.Forecast.MinNews < 1 {
		return fmt.Errorf("forecast min_news must be at least 1")
	}
	if c.Forecast.PromptNews < 1 || c.Forecast.FetchLimit < c.Forecast.PromptNews {
		return fmt.Errorf("forecast fetch_limit must be >= prompt_news >= 1")
	}
	if c.Forecast.MinConfidence < 0 || c.Forecast.MinConfidence > 100 {
		return fmt.Errorf("forecast min_confidence must be between 0 and 100")
	}

	if c.Backtest.SuccessThreshold <= 0 {
		return fmt.Errorf("backtest success_threshold must be positive")
	}
	if c.Backtest.Interval <= 0 {
		return fmt.Errorf("backtest interval must be positive")
	}

	if c.Options.LiquidityFloor < 0 {
		return fmt.Errorf("options liquidity_floor must not be negative")
	}
	if c.Options.MidConfidence > c.Options.HighConfidence {
		return fmt.Errorf("options mid_confidence must not exceed high_confidence")
	}

	if c.Market.RequestsPerSecond <= 0 {
		return fmt.Errorf("market rps must be positive")
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram bot token and chat_id are required when telegram is enabled")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns host:port of the Redis server
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EnabledProviders returns enabled provider names in the configured failover order
func (c *AIConfig) EnabledProviders() []string {
	byName := map[string]AIProviderConfig{
		"openai": c.OpenAI,
		"claude": c.Claude,
		"gemini": c.Gemini,
	}

	var providers []string
	for _, name := range c.Order {
		p, ok := byName[name]
		if ok && p.Enabled && p.APIKey != "" {
			providers = append(providers, name)
		}
	}
	return providers
}
