package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDR", "CORS_ORIGINS", "APISPORTS_BASE_URL", "APISPORTS_KEY", "APISPORTS_TIMEOUT",
		"APISPORTS_RATE_PER_MIN", "APISPORTS_MAX_ATTEMPTS", "RESOLVE_STRATEGY", "FIXTURE_WINDOW",
		"ANALYSIS_TEAM_TIMEOUT", "REDIS_URL", "FIXTURE_CACHE_TTL", "ANALYSIS_STREAM", "ANALYSIS_STREAM_MAXLEN", "HISTORY_DSN", "ENV", "LOG_LEVEL",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8086" {
		t.Errorf("Expected default server addr ':8086', got '%s'", cfg.Server.Addr)
	}
	if cfg.APISports.BaseURL != "https://v3.football.api-sports.io" {
		t.Errorf("Expected default base URL, got '%s'", cfg.APISports.BaseURL)
	}
	if cfg.APISports.Timeout != 15*time.Second {
		t.Errorf("Expected default timeout 15s, got %v", cfg.APISports.Timeout)
	}
	if cfg.APISports.MaxAttempts != 1 {
		t.Errorf("Expected no retry by default, got %d attempts", cfg.APISports.MaxAttempts)
	}
	if cfg.Analysis.Strategy != "first" {
		t.Errorf("Expected default strategy 'first', got '%s'", cfg.Analysis.Strategy)
	}
	if cfg.Analysis.Window != 10 {
		t.Errorf("Expected default window 10, got %d", cfg.Analysis.Window)
	}
	if cfg.CacheEnabled() {
		t.Error("Expected cache disabled without REDIS_URL")
	}
	if cfg.HistoryEnabled() {
		t.Error("Expected history disabled without HISTORY_DSN")
	}
	if cfg.StreamEnabled() {
		t.Error("Expected stream disabled without REDIS_URL")
	}
	if cfg.Redis.Stream != "goalanalysis.analyses" {
		t.Errorf("Expected default stream 'goalanalysis.analyses', got '%s'", cfg.Redis.Stream)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Expected 2 default CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("APISPORTS_BASE_URL", "http://localhost:9999/")
	t.Setenv("APISPORTS_KEY", "secret")
	t.Setenv("APISPORTS_TIMEOUT", "3s")
	t.Setenv("RESOLVE_STRATEGY", " Direct ")
	t.Setenv("FIXTURE_WINDOW", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6380")
	t.Setenv("HISTORY_DSN", "postgres://localhost/goals")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected server addr ':9090', got '%s'", cfg.Server.Addr)
	}
	if cfg.APISports.BaseURL != "http://localhost:9999" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.APISports.BaseURL)
	}
	if cfg.APISports.Key != "secret" {
		t.Errorf("Expected key 'secret', got '%s'", cfg.APISports.Key)
	}
	if cfg.APISports.Timeout != 3*time.Second {
		t.Errorf("Expected timeout 3s, got %v", cfg.APISports.Timeout)
	}
	if cfg.Analysis.Strategy != "direct" {
		t.Errorf("Expected strategy normalised to 'direct', got '%s'", cfg.Analysis.Strategy)
	}
	if cfg.Analysis.Window != 5 {
		t.Errorf("Expected window 5, got %d", cfg.Analysis.Window)
	}
	if !cfg.CacheEnabled() || !cfg.HistoryEnabled() || !cfg.StreamEnabled() {
		t.Error("Expected cache, stream and history enabled")
	}
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESOLVE_STRATEGY", "random")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestValidate_Window(t *testing.T) {
	cfg := &config.Config{
		APISports: config.APISportsConfig{MaxAttempts: 1},
		Analysis:  config.AnalysisConfig{Strategy: "first", Window: 0},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero window")
	}

	cfg.Analysis.Window = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
