// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Telegram fetch (RapidAPI)
	RapidAPIKey string

	// Rewrite service (NEAR AI)
	NearAIKey      string
	NearAIBaseURL  string
	NearAIAgentID  string
	RewriteTimeout time.Duration

	// Poll
	PollInterval       time.Duration
	FetchDelay         time.Duration // 外部フェッチ呼び出し間の最低間隔
	FetchTimeout       time.Duration
	FetchMaxConcurrent int
	FetchBatchLimit    int

	// Drain
	DrainInterval     time.Duration
	ReconcileInterval time.Duration

	// Server (ops: /health, /metrics)
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（既存の環境変数を優先）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envは任意。存在しない場合のエラーは無視する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RapidAPIKey = os.Getenv("RAPIDAPI_KEY")
	if cfg.RapidAPIKey == "" {
		missing = append(missing, "RAPIDAPI_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.NearAIKey = getEnvString("NEAR_AI_KEY", "")
	cfg.NearAIBaseURL = getEnvString("NEAR_AI_BASE_URL", "https://api.near.ai")
	cfg.NearAIAgentID = getEnvString("NEAR_AI_AGENT_ID", "cuongdcdev.near/ironman/0.0.1")
	cfg.RewriteTimeout = getEnvDuration("REWRITE_TIMEOUT", 30*time.Second)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 5*time.Minute)
	cfg.FetchDelay = getEnvDuration("FETCH_DELAY", 5*time.Second)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 10)
	cfg.FetchBatchLimit = getEnvInt("FETCH_BATCH_LIMIT", 5)
	cfg.DrainInterval = getEnvDuration("DRAIN_INTERVAL", time.Minute)
	cfg.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", time.Minute)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
