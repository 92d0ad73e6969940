package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// FilterConfig はコンテンツフィルタのルールを表す。
// リポジトリ境界でJSONカラムから1回だけデシリアライズされ、
// パイプライン内では型付き構造体としてのみ扱う。
type FilterConfig struct {
	Keywords  []string `json:"keywords,omitempty"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
}

// ParseFilterConfig はJSON文字列からFilterConfigを復元する。
// 空文字列はフィルタなし（nil）を表す。
func ParseFilterConfig(raw string) (*FilterConfig, error) {
	if raw == "" {
		return nil, nil
	}
	var f FilterConfig
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("フィルタ設定のパースに失敗しました: %w", err)
	}
	return &f, nil
}

// Encode はFilterConfigをJSON文字列に変換する。nilは空文字列になる。
func (f *FilterConfig) Encode() (string, error) {
	if f == nil {
		return "", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("フィルタ設定のエンコードに失敗しました: %w", err)
	}
	return string(b), nil
}

// Preference はユーザーとソースの購読エッジを表す。
// (UserID, SourceID) の組につき最大1件。
type Preference struct {
	ID                     string
	UserID                 string
	SourceID               string
	AutoTranslate          bool
	TranslationPrompt      string
	PublishIntervalSeconds int // 同一ユーザーの投稿間の最小間隔（秒）
	Filter                 *FilterConfig
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DefaultPublishIntervalSeconds は投稿間隔のデフォルト値（1時間）。
const DefaultPublishIntervalSeconds = 3600

// PublishSpacing は投稿間隔をtime.Durationとして返す。
// 未設定（0以下）の場合はデフォルト値を使用する。
func (p *Preference) PublishSpacing() time.Duration {
	secs := p.PublishIntervalSeconds
	if secs <= 0 {
		secs = DefaultPublishIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}
