// Package rss はRSS/Atomフィードのフェッチ能力を提供する。
// フェッチ専用のプラットフォームバインディングで、送信能力は持たない。
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
	"github.com/cuongdcdev/nearai-social-scheduler/internal/security"
)

// Fetcher はRSS/AtomフィードのFetcher実装。
// フィードURLはユーザー入力のため、SSRF検証付きHTTPクライアントでフェッチする。
type Fetcher struct {
	guard   security.SSRFGuardService
	logger  *slog.Logger
	timeout time.Duration
	limit   int
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// limitが0以下の場合はデフォルト値5を使用する。
func NewFetcher(guard security.SSRFGuardService, logger *slog.Logger, timeout time.Duration, limit int) *Fetcher {
	if limit <= 0 {
		limit = 5
	}
	return &Fetcher{
		guard:   guard,
		logger:  logger,
		timeout: timeout,
		limit:   limit,
	}
}

// FetchRecent はフィードの最新アイテムを公開日時の新しい順に取得する。
// アイテムIDは公開日時のUNIX秒をゼロ埋めした数値文字列として合成し、
// カーソルの数値文字列比較による重複排除と整合させる。
func (f *Fetcher) FetchRecent(ctx context.Context, address string) ([]model.SourceItem, error) {
	if err := f.guard.ValidateURL(address); err != nil {
		return nil, fmt.Errorf("フィードURLの検証に失敗しました: %w", err)
	}

	parser := gofeed.NewParser()
	parser.Client = f.guard.NewSafeClient(f.timeout)

	feed, err := parser.ParseURLWithContext(address, ctx)
	if err != nil {
		return nil, fmt.Errorf("フィードのフェッチに失敗しました: %w", err)
	}

	type datedItem struct {
		published time.Time
		item      *gofeed.Item
	}

	var dated []datedItem
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := itemPublishedAt(item)
		if published.IsZero() {
			// 日時のないアイテムはカーソル順序を決められないためスキップする
			continue
		}
		dated = append(dated, datedItem{published: published, item: item})
	}

	sort.Slice(dated, func(i, j int) bool { return dated[i].published.After(dated[j].published) })
	if len(dated) > f.limit {
		dated = dated[:f.limit]
	}

	items := make([]model.SourceItem, 0, len(dated))
	for _, d := range dated {
		content := d.item.Content
		if content == "" {
			content = d.item.Description
		}
		if d.item.Title != "" {
			content = fmt.Sprintf("<b>%s</b><br>%s", d.item.Title, content)
		}

		item := model.SourceItem{
			ID:      fmt.Sprintf("%020d", d.published.Unix()),
			Content: content,
			URL:     d.item.Link,
		}
		if media := itemMedia(d.item); media != nil {
			item.Media = media
		}
		items = append(items, item)
	}

	f.logger.Info("RSSフィードをフェッチしました",
		slog.String("feed_url", address),
		slog.Int("item_count", len(items)),
	)

	return items, nil
}

// itemPublishedAt はアイテムの公開日時を返す。公開日時がなければ更新日時を使う。
func itemPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// itemMedia はアイテムの画像エンクロージャをメディアとして返す。
func itemMedia(item *gofeed.Item) *model.Media {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") {
			return &model.Media{URL: enc.URL}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return &model.Media{URL: item.Image.URL}
	}
	return nil
}
