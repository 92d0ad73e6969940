// Package handler は運用HTTPサーフェスのルーティングを提供する。
// パイプライン本体は配信APIを持たず、このルーターは死活監視と
// メトリクススクレイプのためにのみ存在する。
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/middleware"
)

// healthCheckTimeout はDB疎通確認のタイムアウト。
const healthCheckTimeout = 3 * time.Second

// NewOpsRouter は /health（DB疎通確認付き）と /metrics を公開する
// chi.Routerを返す。
func NewOpsRouter(db *sql.DB, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", healthHandler(db))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	return r
}

// healthHandler はDB疎通を確認し、結果をJSONで返すハンドラーを返す。
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
