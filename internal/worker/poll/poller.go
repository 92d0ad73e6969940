// Package poll はソースのバックグラウンド巡回処理を提供する。
// プラットフォームごとのフェッチ、カーソルによる重複排除、
// レート制御を含む。
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/platform"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/security"
)

// ItemProcessor はフェッチ済みアイテムを投稿へ展開するインターフェース。
type ItemProcessor interface {
	ProcessItem(ctx context.Context, source *model.Source, item *model.SourceItem) error
}

// Poller はソース巡回のスケジューリングと並列制御を行う。
// ティッカーでフェッチ対象ソースを取得し、semaphoreパターンで
// 最大並列数を制御しながらフェッチを実行する。外部APIへの
// リクエスト間隔は共有レートリミッタで制御する。
type Poller struct {
	sourceRepo     repository.SourceRepository
	registry       *platform.Registry
	processor      ItemProcessor
	sanitizer      security.ContentSanitizerService
	ssrfGuard      security.SSRFGuardService
	limiter        *rate.Limiter
	metrics        metrics.MetricsCollector
	logger         *slog.Logger
	maxConcurrency int
}

// NewPoller はPollerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
// fetchDelayは外部APIへの連続リクエストの最小間隔。
func NewPoller(
	sourceRepo repository.SourceRepository,
	registry *platform.Registry,
	processor ItemProcessor,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxConcurrency int,
	fetchDelay time.Duration,
) *Poller {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if fetchDelay <= 0 {
		fetchDelay = time.Second
	}
	return &Poller{
		sourceRepo:     sourceRepo,
		registry:       registry,
		processor:      processor,
		sanitizer:      sanitizer,
		ssrfGuard:      ssrfGuard,
		limiter:        rate.NewLimiter(rate.Every(fetchDelay), 1),
		metrics:        collector,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでポーラーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("巡回ポーラーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", p.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("巡回サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("巡回ポーラーを停止しました")
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("巡回サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はフェッチャーが登録された全プラットフォームのフェッチ対象ソースを
// 1回取得し、並列でフェッチを実行する。1ソースの失敗は他のソースの
// 巡回を妨げない。
func (p *Poller) RunOnce(ctx context.Context) error {
	start := time.Now()
	now := time.Now()

	var sources []*model.Source
	for _, kind := range p.registry.FetcherKinds() {
		due, err := p.sourceRepo.ListDueByPlatform(ctx, kind, now)
		if err != nil {
			return fmt.Errorf("フェッチ対象ソースの取得に失敗しました: %w", err)
		}
		sources = append(sources, due...)
	}

	if len(sources) == 0 {
		p.logger.Debug("フェッチ対象のソースはありません")
		return nil
	}

	p.logger.Info("巡回サイクルを開始します",
		slog.Int("source_count", len(sources)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, p.maxConcurrency)
	var wg sync.WaitGroup

	for _, source := range sources {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(s *model.Source) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := p.pollSource(ctx, s); err != nil {
				p.logger.Error("ソースの巡回に失敗しました",
					slog.String("source_id", s.ID),
					slog.String("platform", string(s.Platform)),
					slog.String("address", s.Address),
					slog.String("error", err.Error()),
				)
			}
		}(source)
	}

	wg.Wait()

	duration := time.Since(start)
	p.logger.Info("巡回サイクルが完了しました",
		slog.Int("source_count", len(sources)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// pollSource は1ソースをフェッチし、新規アイテムを投稿へ展開する。
// フェッチ失敗・アイテム処理失敗時はエラー追跡状態を記録し、
// 未処理アイテムにはカーソルを進めない。成功時はカーソルを進める。
func (p *Poller) pollSource(ctx context.Context, source *model.Source) error {
	fetcher, ok := p.registry.Fetcher(source.Platform)
	if !ok {
		return fmt.Errorf("プラットフォーム %s のフェッチャーが登録されていません", source.Platform)
	}

	// 外部APIへのリクエスト間隔を確保する
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("レートリミッタの待機に失敗しました: %w", err)
	}

	items, err := fetcher.FetchRecent(ctx, source.Address)
	if err != nil {
		p.metrics.RecordPollFailure(string(source.Platform))
		ApplyFetchFailure(source, time.Now(), err.Error())
		if updateErr := p.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
			p.logger.Error("ソース状態の更新に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return fmt.Errorf("フェッチに失敗しました: %w", err)
	}

	newItems := p.selectNewItems(source, items)

	// ID昇順で処理し、処理が完了したアイテムの最大IDのみをカーソル確定分とする。
	processedMaxID := ""
	var processErr error
	for i := range newItems {
		item := &newItems[i]
		item.Content = p.sanitizer.Sanitize(item.Content)
		if item.Media != nil {
			if err := p.ssrfGuard.ValidateURL(item.Media.URL); err != nil {
				p.logger.Warn("メディアURLの検証に失敗したためメディアを除外します",
					slog.String("source_id", source.ID),
					slog.String("media_url", item.Media.URL),
					slog.String("error", err.Error()),
				)
				item.Media = nil
			}
		}

		if err := p.processor.ProcessItem(ctx, source, item); err != nil {
			p.logger.Error("アイテムの処理に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("item_id", item.ID),
				slog.String("error", err.Error()),
			)
			processErr = fmt.Errorf("アイテムの処理に失敗しました: %w", err)
			break
		}
		processedMaxID = item.ID
	}

	if processErr != nil {
		// 処理済みアイテムまではカーソルを進め、失敗したアイテム以降は
		// 次サイクルで再取得・再処理されるようエラー状態として記録する。
		if processedMaxID != "" {
			source.LastFetchedID = processedMaxID
		}
		p.metrics.RecordPollFailure(string(source.Platform))
		ApplyFetchFailure(source, time.Now(), processErr.Error())
		if updateErr := p.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
			p.logger.Error("ソース状態の更新に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return processErr
	}

	ApplyFetchSuccess(source, processedMaxID, time.Now())
	if err := p.sourceRepo.UpdateFetchState(ctx, source); err != nil {
		return fmt.Errorf("ソース状態の更新に失敗しました: %w", err)
	}

	p.metrics.RecordPollSuccess(string(source.Platform))
	p.metrics.RecordItemsFetched(string(source.Platform), len(newItems))

	p.logger.Info("ソースの巡回が完了しました",
		slog.String("source_id", source.ID),
		slog.String("platform", string(source.Platform)),
		slog.Int("new_item_count", len(newItems)),
	)

	return nil
}

// selectNewItems はカーソルより新しいアイテムをID昇順で返す。
// カーソルが未設定の場合は全アイテムが対象になる。同一サイクル内の
// ID重複も除外する。
func (p *Poller) selectNewItems(source *model.Source, items []model.SourceItem) []model.SourceItem {
	seen := make(map[string]struct{}, len(items))
	result := make([]model.SourceItem, 0, len(items))
	for _, item := range items {
		if source.LastFetchedID != "" && CompareItemIDs(item.ID, source.LastFetchedID) <= 0 {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return CompareItemIDs(result[i].ID, result[j].ID) < 0
	})
	return result
}
