// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// SourceRepository はソースデータの永続化インターフェース。
type SourceRepository interface {
	// FindByID は指定IDのソースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Source, error)

	// FindByPlatformAddress はプラットフォーム種別とアドレスでソースを検索する。
	// 見つからない場合はnilを返す。
	FindByPlatformAddress(ctx context.Context, kind model.PlatformKind, address string) (*model.Source, error)

	// Create はソースを作成する。
	Create(ctx context.Context, source *model.Source) error

	// ListDueByPlatform はフェッチ対象のソースを取得する。
	// is_active かつ（next_fetch_atがNULLまたはnow以前）のソースを返す。
	ListDueByPlatform(ctx context.Context, kind model.PlatformKind, now time.Time) ([]*model.Source, error)

	// UpdateFetchState はソースのカーソル・エラー追跡状態を更新する。
	// last_fetched_id、last_fetch_at、next_fetch_at、error_count、
	// last_error_at、last_error_messageを更新する。
	UpdateFetchState(ctx context.Context, source *model.Source) error

	// Delete は指定IDのソースを削除する。
	Delete(ctx context.Context, id string) error
}

// PreferenceRepository は購読プリファレンスの永続化インターフェース。
// filtersカラムのJSONはこの境界で型付きFilterConfigに変換され、
// 呼び出し側が生のJSON文字列を扱うことはない。
type PreferenceRepository interface {
	// ListBySourceID は指定ソースを購読する全プリファレンスを返す。
	ListBySourceID(ctx context.Context, sourceID string) ([]*model.Preference, error)

	// FindByUserAndSource はユーザーIDとソースIDでプリファレンスを検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndSource(ctx context.Context, userID, sourceID string) (*model.Preference, error)

	// FindMostRecentByUser はユーザーの最新（updated_at降順）のプリファレンスを返す。
	// 翻訳プロンプトの引き継ぎに使用する。見つからない場合はnilを返す。
	FindMostRecentByUser(ctx context.Context, userID string) (*model.Preference, error)

	// Create はプリファレンスを作成する。
	Create(ctx context.Context, pref *model.Preference) error

	// Update はプリファレンスを更新する。
	Update(ctx context.Context, pref *model.Preference) error

	// Delete は指定IDのプリファレンスを削除する。
	Delete(ctx context.Context, id string) error

	// CountBySourceID は指定ソースを購読するプリファレンス数を返す。
	CountBySourceID(ctx context.Context, sourceID string) (int, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindLatestScheduledByUser はユーザーの最も新しくスケジュールされた投稿を返す。
	// scheduled_at降順、同時刻の場合はid降順で決定する。見つからない場合はnilを返す。
	FindLatestScheduledByUser(ctx context.Context, userID string) (*model.Post, error)

	// ListDueUnsentByUser は配信期限が到来した未配信投稿を返す。
	// ユーザー所有のチャンネルに1つ以上リンクされ、scheduled_at <= now の投稿が対象。
	// 各投稿のChannelIDsにはリンク先チャンネルIDが設定される。
	ListDueUnsentByUser(ctx context.Context, userID string, now time.Time) ([]*model.Post, error)

	// Create は投稿とチャンネルリンクを同一トランザクションで作成する。
	Create(ctx context.Context, post *model.Post) error

	// MarkPosted は投稿を配信試行済みとしてマークする。冪等。
	MarkPosted(ctx context.Context, postID string) error

	// DeleteUnsent は未配信の投稿を削除する。
	// is_posted = false の投稿のみ削除し、削除された行数を返す。
	DeleteUnsent(ctx context.Context, postID string) (int64, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ListWithBotToken はアウトバウンド資格情報を持つ全ユーザーを返す。
	// ドレインワーカーの起動対象の列挙に使用する。
	ListWithBotToken(ctx context.Context) ([]*model.User, error)
}

// ChannelRepository は配信チャンネルの永続化インターフェース。
type ChannelRepository interface {
	// ListByUserID はユーザーが所有するチャンネル一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Channel, error)

	// ListActiveByUserID はユーザーが所有するアクティブなチャンネル一覧を返す。
	ListActiveByUserID(ctx context.Context, userID string) ([]*model.Channel, error)
}
