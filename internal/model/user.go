package model

import "time"

// User は配信パイプラインの所有者を表す。
// BotTokenはアウトバウンド配信の資格情報で、空のユーザーにはドレインワーカーを起動しない。
type User struct {
	ID        string
	Name      string
	BotToken  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasOutboundCredential はアウトバウンド配信の資格情報を持つかを返す。
func (u *User) HasOutboundCredential() bool {
	return u.BotToken != ""
}
