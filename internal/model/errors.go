package model

import "fmt"

// DomainError は境界バリデーションで発生する統一エラーフォーマットを表す。
// パイプライン内部では発生させず、購読・登録などの境界操作でのみ使用する。
type DomainError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, subscription, source, post
}

// Error はerrorインターフェースを実装する。
func (e *DomainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePromptRequired       = "PROMPT_REQUIRED"
	ErrCodeInvalidPlatform      = "INVALID_PLATFORM"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeSourceNotFound       = "SOURCE_NOT_FOUND"
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodePostNotFound         = "POST_NOT_FOUND"
	ErrCodePostAlreadySent      = "POST_ALREADY_SENT"
	ErrCodeInvalidFilter        = "INVALID_FILTER"
)

// NewPromptRequiredError は翻訳プロンプト未指定エラーを生成する。
// 自動翻訳が有効で、かつ引き継げる既存プリファレンスも存在しない場合に発生する。
func NewPromptRequiredError() *DomainError {
	return &DomainError{
		Code:     ErrCodePromptRequired,
		Message:  "自動翻訳には翻訳プロンプトの指定が必要です。",
		Category: "validation",
	}
}

// NewInvalidPlatformError は未知のプラットフォーム種別エラーを生成する。
func NewInvalidPlatformError(kind string) *DomainError {
	return &DomainError{
		Code:     ErrCodeInvalidPlatform,
		Message:  fmt.Sprintf("未知のプラットフォーム種別です: %s", kind),
		Category: "validation",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *DomainError {
	return &DomainError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "subscription",
	}
}

// NewSourceNotFoundError はソース未検出エラーを生成する。
func NewSourceNotFoundError(sourceID string) *DomainError {
	return &DomainError{
		Code:     ErrCodeSourceNotFound,
		Message:  fmt.Sprintf("指定されたソースが見つかりません: %s", sourceID),
		Category: "source",
	}
}

// NewSubscriptionNotFoundError は購読未検出エラーを生成する。
func NewSubscriptionNotFoundError(userID, sourceID string) *DomainError {
	return &DomainError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  fmt.Sprintf("指定された購読が見つかりません: user=%s source=%s", userID, sourceID),
		Category: "subscription",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *DomainError {
	return &DomainError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "post",
	}
}

// NewPostAlreadySentError は配信済み投稿の削除エラーを生成する。
// 投稿はIsPostedがfalseの間のみ削除できる。
func NewPostAlreadySentError(postID string) *DomainError {
	return &DomainError{
		Code:     ErrCodePostAlreadySent,
		Message:  fmt.Sprintf("配信試行済みの投稿は削除できません: %s", postID),
		Category: "post",
	}
}

// NewInvalidFilterError は無効なフィルタ設定エラーを生成する。
func NewInvalidFilterError(reason string) *DomainError {
	return &DomainError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタ設定です: %s", reason),
		Category: "validation",
	}
}
