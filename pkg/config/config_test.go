package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/risk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8089" {
		t.Errorf("Port = %q, want 8089", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.Risk.DefaultLookbackDays != 400 {
		t.Errorf("DefaultLookbackDays = %d, want 400", cfg.Risk.DefaultLookbackDays)
	}
	if cfg.Risk.BenchmarkIndex != "SPY500-N" {
		t.Errorf("BenchmarkIndex = %q, want SPY500-N", cfg.Risk.BenchmarkIndex)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Database.MaxConnLifetime != time.Hour {
		t.Errorf("MaxConnLifetime = %v, want 1h", cfg.Database.MaxConnLifetime)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/risk")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("RISK_DEFAULT_LOOKBACK_DAYS", "250")
	t.Setenv("API_RATE_LIMIT_RPS", "5.5")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9000" || cfg.Env != "production" {
		t.Errorf("server config = %q/%q", cfg.Port, cfg.Env)
	}
	if cfg.Risk.DefaultLookbackDays != 250 {
		t.Errorf("DefaultLookbackDays = %d, want 250", cfg.Risk.DefaultLookbackDays)
	}
	if cfg.API.RateLimitRPS != 5.5 {
		t.Errorf("RateLimitRPS = %v, want 5.5", cfg.API.RateLimitRPS)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted empty DATABASE_URL")
	}
}

func TestLoad_RejectsUnknownEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/risk")
	t.Setenv("ENV", "qa")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted unknown ENV")
	}
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/risk")
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("DB_MAX_CONN_LIFETIME", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("MaxConns = %d, want default 25", cfg.Database.MaxConns)
	}
	if cfg.Database.MaxConnLifetime != time.Hour {
		t.Errorf("MaxConnLifetime = %v, want default 1h", cfg.Database.MaxConnLifetime)
	}
}
