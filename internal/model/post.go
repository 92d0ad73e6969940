package model

import "time"

// Post は配信待ちの1件のアウトバウンドメッセージを表す。
// ScheduledAtはスケジュールアロケータにより同一ユーザー内で単調非減少が保証される。
// IsPostedは「配信試行済み」を表し、成功・回復不能な失敗のどちらでもtrueになる。
type Post struct {
	ID             string
	UserID         string
	Content        string // 変換適用後の最終本文
	MediaURL       string
	ScheduledAt    time.Time
	IsPosted       bool
	SourcePlatform PlatformKind
	SourceItemID   string // 重複排除用の元アイテムID
	SourceURL      string
	ChannelIDs     []string // リンクされた配信チャンネルのID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Channel はユーザーが所有する配信先（Telegramチャットなど）を表す。
type Channel struct {
	ID        string
	UserID    string
	Name      string
	Platform  PlatformKind
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
