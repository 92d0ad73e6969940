// Package platform はプラットフォームごとの能力（フェッチ・送信）を定義する。
//
// プラットフォーム種別はmodel.PlatformKindの閉じた列挙型で表し、
// 各種別の能力実装はRegistryに登録する。新しいプラットフォームの追加は
// 列挙値の追加と実装の登録のみで行い、種別の文字列比較を散在させない。
package platform

import (
	"context"
	"sort"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// Fetcher はソースプラットフォームから最新アイテムを取得する能力。
type Fetcher interface {
	// FetchRecent は指定アドレスの最新アイテムを取得する。
	// 通信エラー・APIエラーは空の結果ではなくerrorとして返す。
	FetchRecent(ctx context.Context, address string) ([]model.SourceItem, error)
}

// Sender は配信プラットフォームへメッセージを送信する能力。
type Sender interface {
	// SendText はテキストメッセージを送信する。
	SendText(ctx context.Context, token, address, text string) error

	// SendMedia はメディアとキャプションを送信する。
	SendMedia(ctx context.Context, token, address, mediaURL, caption string) error
}

// Registry はプラットフォーム種別ごとの能力実装を保持する。
// 登録は起動時のワイヤリングでのみ行い、以降は読み取り専用として扱う。
type Registry struct {
	fetchers map[model.PlatformKind]Fetcher
	senders  map[model.PlatformKind]Sender
}

// NewRegistry は空のRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{
		fetchers: make(map[model.PlatformKind]Fetcher),
		senders:  make(map[model.PlatformKind]Sender),
	}
}

// RegisterFetcher は指定種別のFetcherを登録する。
func (r *Registry) RegisterFetcher(kind model.PlatformKind, f Fetcher) {
	r.fetchers[kind] = f
}

// RegisterSender は指定種別のSenderを登録する。
func (r *Registry) RegisterSender(kind model.PlatformKind, s Sender) {
	r.senders[kind] = s
}

// Fetcher は指定種別のFetcherを返す。未登録の場合は第2戻り値がfalseになる。
func (r *Registry) Fetcher(kind model.PlatformKind) (Fetcher, bool) {
	f, ok := r.fetchers[kind]
	return f, ok
}

// Sender は指定種別のSenderを返す。未登録の場合は第2戻り値がfalseになる。
func (r *Registry) Sender(kind model.PlatformKind) (Sender, bool) {
	s, ok := r.senders[kind]
	return s, ok
}

// FetcherKinds はFetcherが登録されている種別を決定的な順序で返す。
// ポーラーの巡回対象の列挙に使用する。
func (r *Registry) FetcherKinds() []model.PlatformKind {
	kinds := make([]model.PlatformKind, 0, len(r.fetchers))
	for kind := range r.fetchers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
