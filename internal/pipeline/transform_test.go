package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestTransform_AutoTranslateDisabled_Passthrough(t *testing.T) {
	called := false
	rewriter := &mockRewriter{
		rewriteFunc: func(ctx context.Context, content, prompt string) (string, error) {
			called = true
			return "rewritten", nil
		},
	}
	transformer := NewTransformer(rewriter, &mockCollector{}, newTestLogger())

	pref := &model.Preference{AutoTranslate: false}
	got := transformer.Transform(context.Background(), "original", pref)

	if got != "original" {
		t.Errorf("Transform() = %q, want %q", got, "original")
	}
	if called {
		t.Error("自動翻訳が無効の場合は書き換えサービスを呼び出すべきではない")
	}
}

func TestTransform_Success_ReturnsRewritten(t *testing.T) {
	rewriter := &mockRewriter{
		rewriteFunc: func(ctx context.Context, content, prompt string) (string, error) {
			if prompt != "translate to Vietnamese" {
				t.Errorf("prompt = %q, want %q", prompt, "translate to Vietnamese")
			}
			return "đã dịch", nil
		},
	}
	transformer := NewTransformer(rewriter, &mockCollector{}, newTestLogger())

	pref := &model.Preference{AutoTranslate: true, TranslationPrompt: "translate to Vietnamese"}
	got := transformer.Transform(context.Background(), "original", pref)

	if got != "đã dịch" {
		t.Errorf("Transform() = %q, want %q", got, "đã dịch")
	}
}

func TestTransform_RewriteError_FallsBackToOriginal(t *testing.T) {
	rewriter := &mockRewriter{
		rewriteFunc: func(ctx context.Context, content, prompt string) (string, error) {
			return "", errors.New("rewrite service unavailable")
		},
	}
	collector := &mockCollector{}
	transformer := NewTransformer(rewriter, collector, newTestLogger())

	pref := &model.Preference{AutoTranslate: true, TranslationPrompt: "p"}
	got := transformer.Transform(context.Background(), "original content", pref)

	if got != "original content" {
		t.Errorf("書き換え失敗時は元コンテンツへフォールバックすべき, got %q", got)
	}
	if collector.transformFallback != 1 {
		t.Errorf("フォールバックメトリクス = %d, want 1", collector.transformFallback)
	}
}
