// Package drain は配信期限が到来した投稿のチャンネル配信を提供する。
// ユーザーごとのドレインワーカーと、ユーザー集合の変化に追従する
// マネージャを含む。
package drain

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/platform"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
)

// captionRuneLimit はメディアキャプションとして送信できる本文の最大文字数。
// この長さ以上の本文はメディアなしのテキストメッセージとして送信される。
const captionRuneLimit = 1020

// Drainer は1ユーザー分の配信サイクルを実行する。
// 配信期限が到来した未配信投稿をリンク先チャンネルへ送信し、
// 結果にかかわらず配信試行済みとしてマークする。
type Drainer struct {
	postRepo    repository.PostRepository
	channelRepo repository.ChannelRepository
	registry    *platform.Registry
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
}

// NewDrainer はDrainerの新しいインスタンスを生成する。
func NewDrainer(
	postRepo repository.PostRepository,
	channelRepo repository.ChannelRepository,
	registry *platform.Registry,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Drainer {
	return &Drainer{
		postRepo:    postRepo,
		channelRepo: channelRepo,
		registry:    registry,
		metrics:     collector,
		logger:      logger,
	}
}

// DrainOnce は指定ユーザーの配信期限が到来した投稿を1回処理する。
// 1投稿の失敗は他の投稿の配信を妨げない。
func (d *Drainer) DrainOnce(ctx context.Context, user *model.User) error {
	start := time.Now()

	posts, err := d.postRepo.ListDueUnsentByUser(ctx, user.ID, start)
	if err != nil {
		return fmt.Errorf("配信対象投稿の取得に失敗しました: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	channels, err := d.channelRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("チャンネル一覧の取得に失敗しました: %w", err)
	}
	channelByID := make(map[string]*model.Channel, len(channels))
	for _, ch := range channels {
		channelByID[ch.ID] = ch
	}

	d.logger.Info("配信サイクルを開始します",
		slog.String("user_id", user.ID),
		slog.Int("post_count", len(posts)),
	)

	for _, post := range posts {
		d.dispatchPost(ctx, user, post, channelByID)

		// 配信結果にかかわらず試行済みとしてマークし、同一投稿の
		// 再配信による重複送信を防ぐ。
		if err := d.postRepo.MarkPosted(ctx, post.ID); err != nil {
			d.logger.Error("投稿の配信済みマークに失敗しました",
				slog.String("post_id", post.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	d.metrics.RecordDrainLatency(time.Since(start))
	return nil
}

// dispatchPost は1投稿をリンク先の全チャンネルへ送信する。
func (d *Drainer) dispatchPost(ctx context.Context, user *model.User, post *model.Post, channelByID map[string]*model.Channel) {
	rendered := RenderOutbound(post.Content)

	for _, channelID := range post.ChannelIDs {
		channel, ok := channelByID[channelID]
		if !ok || !channel.IsActive {
			continue
		}

		sender, ok := d.registry.Sender(channel.Platform)
		if !ok {
			d.logger.Warn("プラットフォームの送信実装が未登録のためスキップします",
				slog.String("channel_id", channel.ID),
				slog.String("platform", string(channel.Platform)),
			)
			continue
		}

		var err error
		if post.MediaURL != "" && utf8.RuneCountInString(rendered) < captionRuneLimit {
			err = sender.SendMedia(ctx, user.BotToken, channel.Address, post.MediaURL, rendered)
		} else {
			err = sender.SendText(ctx, user.BotToken, channel.Address, rendered)
		}

		if err != nil {
			d.metrics.RecordDispatchFailure()
			d.logger.Error("チャンネルへの配信に失敗しました",
				slog.String("post_id", post.ID),
				slog.String("channel_id", channel.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.metrics.RecordDispatchSuccess()
		d.logger.Info("チャンネルへ配信しました",
			slog.String("post_id", post.ID),
			slog.String("channel_id", channel.ID),
			slog.String("platform", string(channel.Platform)),
		)
	}
}
