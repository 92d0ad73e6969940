package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
)

// Processor はソースアイテムを購読者ごとの投稿に展開する。
// スケジュール割り当てと投稿作成はユーザー単位のロックで直列化され、
// 複数ソースの同時フェッチ時も同一ユーザーの投稿間隔が保たれる。
type Processor struct {
	prefRepo    repository.PreferenceRepository
	channelRepo repository.ChannelRepository
	transformer *Transformer
	allocator   *Allocator
	metrics     metrics.MetricsCollector
	logger      *slog.Logger

	postRepo repository.PostRepository

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewProcessor はProcessorの新しいインスタンスを生成する。
func NewProcessor(
	prefRepo repository.PreferenceRepository,
	channelRepo repository.ChannelRepository,
	postRepo repository.PostRepository,
	transformer *Transformer,
	allocator *Allocator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		prefRepo:    prefRepo,
		channelRepo: channelRepo,
		postRepo:    postRepo,
		transformer: transformer,
		allocator:   allocator,
		metrics:     collector,
		logger:      logger,
		userLocks:   make(map[string]*sync.Mutex),
	}
}

// userLock は指定ユーザーのロックを返す。初回アクセス時に生成する。
func (p *Processor) userLock(userID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		p.userLocks[userID] = lock
	}
	return lock
}

// ProcessItem は1件のソースアイテムをソースの全購読者へ展開する。
// 購読者ごとにフィルタ判定・変換・スケジュール割り当て・投稿作成を行う。
// 1購読者の失敗は他の購読者の処理を妨げない。
func (p *Processor) ProcessItem(ctx context.Context, source *model.Source, item *model.SourceItem) error {
	prefs, err := p.prefRepo.ListBySourceID(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("購読プリファレンスの取得に失敗しました: %w", err)
	}

	for _, pref := range prefs {
		if err := p.processForPreference(ctx, source, item, pref); err != nil {
			p.logger.Error("購読者への投稿作成に失敗しました",
				slog.String("user_id", pref.UserID),
				slog.String("source_id", source.ID),
				slog.String("item_id", item.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// processForPreference は1購読者分の投稿を作成する。
func (p *Processor) processForPreference(ctx context.Context, source *model.Source, item *model.SourceItem, pref *model.Preference) error {
	if !Accept(item.Content, pref.Filter) {
		p.metrics.RecordFilterRejected()
		p.logger.Debug("フィルタにより除外しました",
			slog.String("user_id", pref.UserID),
			slog.String("item_id", item.ID),
		)
		return nil
	}

	content := p.transformer.Transform(ctx, item.Content, pref)

	channels, err := p.channelRepo.ListActiveByUserID(ctx, pref.UserID)
	if err != nil {
		return fmt.Errorf("配信チャンネルの取得に失敗しました: %w", err)
	}
	if len(channels) == 0 {
		p.logger.Debug("アクティブな配信チャンネルがないためスキップします",
			slog.String("user_id", pref.UserID),
		)
		return nil
	}

	channelIDs := make([]string, 0, len(channels))
	for _, ch := range channels {
		channelIDs = append(channelIDs, ch.ID)
	}

	lock := p.userLock(pref.UserID)
	lock.Lock()
	defer lock.Unlock()

	scheduledAt, err := p.allocator.Allocate(ctx, pref.UserID, pref.PublishSpacing(), time.Now())
	if err != nil {
		return fmt.Errorf("スケジュール割り当てに失敗しました: %w", err)
	}

	mediaURL := ""
	if item.Media != nil {
		mediaURL = item.Media.URL
	}

	now := time.Now()
	post := &model.Post{
		ID:             uuid.NewString(),
		UserID:         pref.UserID,
		Content:        content,
		MediaURL:       mediaURL,
		ScheduledAt:    scheduledAt,
		SourcePlatform: source.Platform,
		SourceItemID:   item.ID,
		SourceURL:      item.URL,
		ChannelIDs:     channelIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := p.postRepo.Create(ctx, post); err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	p.metrics.RecordPostCreated()
	p.logger.Info("投稿を作成しました",
		slog.String("post_id", post.ID),
		slog.String("user_id", pref.UserID),
		slog.String("source_id", source.ID),
		slog.String("scheduled_at", scheduledAt.Format(time.RFC3339)),
	)

	return nil
}
