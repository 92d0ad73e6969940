// Package subscription は購読の作成・解除と投稿削除の境界操作を提供する。
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
)

// SubscribeInput は購読作成・更新の入力を表す。
type SubscribeInput struct {
	UserID                 string
	SourceName             string
	Platform               model.PlatformKind
	Address                string
	FetchIntervalSeconds   int
	AutoTranslate          bool
	TranslationPrompt      string
	PublishIntervalSeconds int
	Filter                 *model.FilterConfig
}

// UnsubscribeResult は購読解除の結果を表す。
type UnsubscribeResult struct {
	// SourceRemoved は最後の購読者の解除によりソースも削除された場合にtrue。
	SourceRemoved bool
}

// Service は購読のライフサイクルを管理する。
// ソースは購読の副作用として作成・削除され、購読者のいないソースは残さない。
type Service struct {
	userRepo   repository.UserRepository
	sourceRepo repository.SourceRepository
	prefRepo   repository.PreferenceRepository
	postRepo   repository.PostRepository
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sourceRepo repository.SourceRepository,
	prefRepo repository.PreferenceRepository,
	postRepo repository.PostRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:   userRepo,
		sourceRepo: sourceRepo,
		prefRepo:   prefRepo,
		postRepo:   postRepo,
		logger:     logger,
	}
}

// Subscribe はユーザーをソースへ購読させる。ソースが未登録の場合は作成し、
// 既存の購読がある場合はプリファレンスを上書きする。
//
// 自動翻訳が有効で翻訳プロンプトが未指定の場合、ユーザーの最新の
// プリファレンスからプロンプトを引き継ぐ。引き継げるプリファレンスが
// 存在しない場合はPROMPT_REQUIREDエラーを返す。
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (*model.Preference, error) {
	if !input.Platform.IsValid() {
		return nil, model.NewInvalidPlatformError(string(input.Platform))
	}

	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(input.UserID)
	}

	prompt := input.TranslationPrompt
	if input.AutoTranslate && prompt == "" {
		recent, err := s.prefRepo.FindMostRecentByUser(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("既存プリファレンスの取得に失敗しました: %w", err)
		}
		if recent == nil || recent.TranslationPrompt == "" {
			return nil, model.NewPromptRequiredError()
		}
		prompt = recent.TranslationPrompt
		s.logger.Info("翻訳プロンプトを既存プリファレンスから引き継ぎました",
			slog.String("user_id", input.UserID),
			slog.String("inherited_from", recent.ID),
		)
	}

	source, err := s.findOrCreateSource(ctx, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.prefRepo.FindByUserAndSource(ctx, input.UserID, source.ID)
	if err != nil {
		return nil, fmt.Errorf("購読プリファレンスの取得に失敗しました: %w", err)
	}

	if existing != nil {
		existing.AutoTranslate = input.AutoTranslate
		existing.TranslationPrompt = prompt
		existing.PublishIntervalSeconds = input.PublishIntervalSeconds
		existing.Filter = input.Filter
		existing.UpdatedAt = time.Now()
		if err := s.prefRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("購読プリファレンスの更新に失敗しました: %w", err)
		}
		s.logger.Info("購読プリファレンスを更新しました",
			slog.String("user_id", input.UserID),
			slog.String("source_id", source.ID),
		)
		return existing, nil
	}

	now := time.Now()
	pref := &model.Preference{
		ID:                     uuid.NewString(),
		UserID:                 input.UserID,
		SourceID:               source.ID,
		AutoTranslate:          input.AutoTranslate,
		TranslationPrompt:      prompt,
		PublishIntervalSeconds: input.PublishIntervalSeconds,
		Filter:                 input.Filter,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.prefRepo.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("購読プリファレンスの作成に失敗しました: %w", err)
	}

	s.logger.Info("購読を作成しました",
		slog.String("user_id", input.UserID),
		slog.String("source_id", source.ID),
		slog.String("platform", string(source.Platform)),
	)

	return pref, nil
}

// findOrCreateSource はプラットフォームとアドレスの組でソースを検索し、
// 存在しない場合は作成する。新規ソースのNextFetchAtはnil（即時フェッチ可）。
func (s *Service) findOrCreateSource(ctx context.Context, input SubscribeInput) (*model.Source, error) {
	source, err := s.sourceRepo.FindByPlatformAddress(ctx, input.Platform, input.Address)
	if err != nil {
		return nil, fmt.Errorf("ソースの検索に失敗しました: %w", err)
	}
	if source != nil {
		return source, nil
	}

	interval := input.FetchIntervalSeconds
	if interval <= 0 {
		interval = model.DefaultFetchIntervalSeconds
	}

	now := time.Now()
	source = &model.Source{
		ID:                   uuid.NewString(),
		Name:                 input.SourceName,
		Platform:             input.Platform,
		Address:              input.Address,
		FetchIntervalSeconds: interval,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("ソースの作成に失敗しました: %w", err)
	}

	s.logger.Info("ソースを登録しました",
		slog.String("source_id", source.ID),
		slog.String("platform", string(source.Platform)),
		slog.String("address", source.Address),
	)

	return source, nil
}

// Unsubscribe はユーザーのソース購読を解除する。
// 解除により購読者がいなくなったソースは削除され、SourceRemovedがtrueになる。
func (s *Service) Unsubscribe(ctx context.Context, userID, sourceID string) (*UnsubscribeResult, error) {
	pref, err := s.prefRepo.FindByUserAndSource(ctx, userID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("購読プリファレンスの取得に失敗しました: %w", err)
	}
	if pref == nil {
		return nil, model.NewSubscriptionNotFoundError(userID, sourceID)
	}

	if err := s.prefRepo.Delete(ctx, pref.ID); err != nil {
		return nil, fmt.Errorf("購読プリファレンスの削除に失敗しました: %w", err)
	}

	remaining, err := s.prefRepo.CountBySourceID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}

	result := &UnsubscribeResult{}
	if remaining == 0 {
		if err := s.sourceRepo.Delete(ctx, sourceID); err != nil {
			return nil, fmt.Errorf("ソースの削除に失敗しました: %w", err)
		}
		result.SourceRemoved = true
		s.logger.Info("購読者がいなくなったためソースを削除しました",
			slog.String("source_id", sourceID),
		)
	}

	s.logger.Info("購読を解除しました",
		slog.String("user_id", userID),
		slog.String("source_id", sourceID),
		slog.Bool("source_removed", result.SourceRemoved),
	)

	return result, nil
}

// DeletePost は未配信の投稿を削除する。
// 配信試行済みの投稿はPOST_ALREADY_SENTエラー、存在しない投稿は
// POST_NOT_FOUNDエラーを返す。
func (s *Service) DeletePost(ctx context.Context, postID string) error {
	deleted, err := s.postRepo.DeleteUnsent(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("投稿を削除しました", slog.String("post_id", postID))
		return nil
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return model.NewPostNotFoundError(postID)
	}
	return model.NewPostAlreadySentError(postID)
}
