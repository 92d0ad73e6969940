// Package model はドメインモデルを定義する。
package model

import "time"

// PlatformKind はソース・配信先のプラットフォーム種別を表す閉じた列挙型。
// プラットフォームの追加は列挙値の追加と能力実装（Fetcher/Sender）の追加で行い、
// 文字列比較をコード中に散在させない。
type PlatformKind string

const (
	// PlatformTelegram はTelegramチャンネル。
	PlatformTelegram PlatformKind = "telegram"
	// PlatformRSS はRSS/Atomフィード。
	PlatformRSS PlatformKind = "rss"
	// PlatformTwitter はTwitter。能力実装は未登録。
	PlatformTwitter PlatformKind = "twitter"
	// PlatformMedium はMedium。能力実装は未登録。
	PlatformMedium PlatformKind = "medium"
)

// IsValid はプラットフォーム種別が既知の値かを返す。
func (k PlatformKind) IsValid() bool {
	switch k {
	case PlatformTelegram, PlatformRSS, PlatformTwitter, PlatformMedium:
		return true
	}
	return false
}

// Source は巡回対象の外部フィードを表す。
// フェッチカーソル（LastFetchedID）とエラー追跡（ErrorCount以下）を内包する。
type Source struct {
	ID                   string
	Name                 string
	Platform             PlatformKind
	Address              string // チャンネル名・フィードURLなどプラットフォーム固有のアドレス
	LastFetchedID        string // 最後に観測したアイテムID。空文字は未設定を表す。
	LastFetchAt          *time.Time
	NextFetchAt          *time.Time // nilは「即時フェッチ可」を表す。
	FetchIntervalSeconds int
	IsActive             bool
	ErrorCount           int
	LastErrorAt          *time.Time
	LastErrorMessage     string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultFetchIntervalSeconds はソースのフェッチ間隔のデフォルト値（1時間）。
const DefaultFetchIntervalSeconds = 3600

// Media はソースアイテムに付随するメディアを表す。
type Media struct {
	URL     string
	Caption string
}

// SourceItem はフェッチャーが返す1件の外部アイテム。
// IDはプラットフォームの自然順序（数値文字列比較）で比較可能であること。
type SourceItem struct {
	ID      string
	Content string // HTML形式の本文
	URL     string
	Media   *Media
}
