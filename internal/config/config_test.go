package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/scheduler")
	t.Setenv("RAPIDAPI_KEY", "test-rapid-key")
}

func TestLoad_RequiredVars_Set(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost:5432/scheduler" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.RapidAPIKey != "test-rapid-key" {
		t.Errorf("RapidAPIKey = %q", cfg.RapidAPIKey)
	}
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RAPIDAPI_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("必須環境変数が未設定の場合はエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") || !strings.Contains(err.Error(), "RAPIDAPI_KEY") {
		t.Errorf("エラーに欠けている変数名が列挙されるべき, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.NearAIBaseURL != "https://api.near.ai" {
		t.Errorf("NearAIBaseURL = %q, want %q", cfg.NearAIBaseURL, "https://api.near.ai")
	}
	if cfg.NearAIAgentID != "cuongdcdev.near/ironman/0.0.1" {
		t.Errorf("NearAIAgentID = %q", cfg.NearAIAgentID)
	}
	if cfg.RewriteTimeout != 30*time.Second {
		t.Errorf("RewriteTimeout = %v, want 30s", cfg.RewriteTimeout)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
	}
	if cfg.FetchMaxConcurrent != 10 {
		t.Errorf("FetchMaxConcurrent = %d, want 10", cfg.FetchMaxConcurrent)
	}
	if cfg.FetchBatchLimit != 5 {
		t.Errorf("FetchBatchLimit = %d, want 5", cfg.FetchBatchLimit)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("FETCH_MAX_CONCURRENT", "3")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
	if cfg.FetchMaxConcurrent != 3 {
		t.Errorf("FetchMaxConcurrent = %d, want 3", cfg.FetchMaxConcurrent)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
}

func TestLoad_InvalidDuration_FallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("不正な値はデフォルトへフォールバックすべき, got %v", cfg.PollInterval)
	}
}
