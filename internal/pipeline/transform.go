package pipeline

import (
	"context"
	"log/slog"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/metrics"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/rewrite"
)

// Transformer はフェッチしたコンテンツを最終投稿本文に変換するアダプタ。
// 自動翻訳が有効なプリファレンスに対して書き換えサービスを呼び出し、
// 失敗時は元コンテンツへフォールバックする。変換失敗が投稿の欠落に
// つながることはない。
type Transformer struct {
	rewriter rewrite.Rewriter
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewTransformer はTransformerの新しいインスタンスを生成する。
func NewTransformer(rewriter rewrite.Rewriter, collector metrics.MetricsCollector, logger *slog.Logger) *Transformer {
	return &Transformer{
		rewriter: rewriter,
		metrics:  collector,
		logger:   logger,
	}
}

// Transform はプリファレンスに従ってコンテンツを変換する。
// AutoTranslateが無効の場合はそのまま返す。書き換え失敗時は警告ログと
// メトリクスを記録し、元コンテンツを返す。リトライは行わない。
func (t *Transformer) Transform(ctx context.Context, content string, pref *model.Preference) string {
	if !pref.AutoTranslate {
		return content
	}

	result, err := t.rewriter.Rewrite(ctx, content, pref.TranslationPrompt)
	if err != nil {
		t.logger.Warn("コンテンツの書き換えに失敗したため元コンテンツを使用します",
			slog.String("user_id", pref.UserID),
			slog.String("source_id", pref.SourceID),
			slog.String("error", err.Error()),
		)
		t.metrics.RecordTransformFallback()
		return content
	}

	return result
}
