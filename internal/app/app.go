// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/config"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/database"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/handler"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/logger"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/pipeline"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/platform"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/platform/rss"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/platform/telegram"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/rewrite"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/security"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/worker/drain"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/worker/poll"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandWorker:
		return runWorker(cfg)
	default:
		return runWorker(cfg)
	}
}

// runWorker はパイプラインワーカーモードで起動する。
// DB接続を開き、巡回ポーラー・ドレインマネージャ・運用HTTPサーバーを
// 起動する。SIGINTまたはSIGTERMシグナルを受信するとグレースフル
// シャットダウンを行う。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sourceRepo := repository.NewPostgresSourceRepo(db)
	prefRepo := repository.NewPostgresPreferenceRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	channelRepo := repository.NewPostgresChannelRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. プラットフォーム能力の登録
	platforms := platform.NewRegistry()
	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}
	platforms.RegisterFetcher(model.PlatformTelegram,
		telegram.NewFetcher(fetchClient, slog.Default(), cfg.RapidAPIKey, cfg.FetchBatchLimit))
	platforms.RegisterSender(model.PlatformTelegram,
		telegram.NewSender(&http.Client{Timeout: 30 * time.Second}, slog.Default()))
	platforms.RegisterFetcher(model.PlatformRSS,
		rss.NewFetcher(ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchBatchLimit))

	// 6. パイプラインの構築
	rewriter := rewrite.NewClient(
		&http.Client{Timeout: cfg.RewriteTimeout},
		slog.Default(), cfg.NearAIBaseURL, cfg.NearAIKey, cfg.NearAIAgentID,
	)
	transformer := pipeline.NewTransformer(rewriter, collector, slog.Default())
	allocator := pipeline.NewAllocator(postRepo)
	processor := pipeline.NewProcessor(
		prefRepo, channelRepo, postRepo, transformer, allocator, collector, slog.Default(),
	)

	// 7. ワーカーの構築
	poller := poll.NewPoller(
		sourceRepo, platforms, processor, sanitizer, ssrfGuard,
		collector, slog.Default(), cfg.FetchMaxConcurrent, cfg.FetchDelay,
	)
	drainer := drain.NewDrainer(postRepo, channelRepo, platforms, collector, slog.Default())
	drainManager := drain.NewManager(userRepo, drainer, slog.Default(), cfg.DrainInterval)

	// 8. 運用HTTPサーバーの構築（/health, /metrics）
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewOpsRouter(db, registry, slog.Default()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	go func() {
		slog.Info("ops server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.Duration("drain_interval", cfg.DrainInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx, cfg.PollInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		drainManager.Start(ctx, cfg.ReconcileInterval)
	}()

	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
