package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string   `env:"SERVER_ADDR" env-default:":8086"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:3001"`
}

// APISportsConfig holds API-Football client configuration
type APISportsConfig struct {
	BaseURL     string        `env:"APISPORTS_BASE_URL" env-default:"https://v3.football.api-sports.io"`
	Key         string        `env:"APISPORTS_KEY"`
	Timeout     time.Duration `env:"APISPORTS_TIMEOUT" env-default:"15s"`
	RatePerMin  int           `env:"APISPORTS_RATE_PER_MIN" env-default:"0"`
	MaxAttempts int           `env:"APISPORTS_MAX_ATTEMPTS" env-default:"1"`
}

// AnalysisConfig holds analysis behaviour
type AnalysisConfig struct {
	Strategy    string        `env:"RESOLVE_STRATEGY" env-default:"first"`
	Window      int           `env:"FIXTURE_WINDOW" env-default:"10"`
	TeamTimeout time.Duration `env:"ANALYSIS_TEAM_TIMEOUT" env-default:"15s"`
}

// RedisConfig holds the fixture cache and analysis stream connection.
// Empty URL disables both; empty Stream disables publishing only.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	CacheTTL     time.Duration `env:"FIXTURE_CACHE_TTL" env-default:"10m"`
	Stream       string        `env:"ANALYSIS_STREAM" env-default:"goalanalysis.analyses"`
	StreamMaxLen int64         `env:"ANALYSIS_STREAM_MAXLEN" env-default:"1000"`
}

// HistoryConfig holds the analysis log connection. Empty DSN disables the log.
type HistoryConfig struct {
	DSN string `env:"HISTORY_DSN"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string `env:"ENV" env-default:"local"`
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	APISports APISportsConfig
	Analysis  AnalysisConfig
	Redis     RedisConfig
	History   HistoryConfig
	Log       LogConfig
}

// Load reads configuration from the environment, after loading a .env file if one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.Analysis.Strategy = strings.ToLower(strings.TrimSpace(cfg.Analysis.Strategy))
	cfg.APISports.BaseURL = strings.TrimRight(cfg.APISports.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Analysis.Strategy {
	case models.StrategyDirect, models.StrategySuggestions, models.StrategyFirst:
	default:
		return fmt.Errorf("RESOLVE_STRATEGY: unknown strategy %q", c.Analysis.Strategy)
	}
	if c.Analysis.Window <= 0 {
		return fmt.Errorf("FIXTURE_WINDOW must be positive, got %d", c.Analysis.Window)
	}
	if c.APISports.MaxAttempts < 1 {
		return fmt.Errorf("APISPORTS_MAX_ATTEMPTS must be at least 1, got %d", c.APISports.MaxAttempts)
	}
	if c.APISports.RatePerMin < 0 {
		return fmt.Errorf("APISPORTS_RATE_PER_MIN must not be negative, got %d", c.APISports.RatePerMin)
	}
	return nil
}

// CacheEnabled reports whether a Redis fixture cache is configured
func (c *Config) CacheEnabled() bool { return c.Redis.URL != "" }

// StreamEnabled reports whether finished analyses are published to Redis
func (c *Config) StreamEnabled() bool { return c.Redis.URL != "" && c.Redis.Stream != "" }

// HistoryEnabled reports whether the analysis log is configured
func (c *Config) HistoryEnabled() bool { return c.History.DSN != "" }
