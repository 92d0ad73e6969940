// Package pipeline はコンテンツ処理パイプラインの中核を提供する。
// フィルタ、変換アダプタ、スケジュールアロケータ、アイテムプロセッサを含む。
package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// Accept はコンテンツがフィルタルールを満たすかを判定する純関数。
// フィルタ未設定（nil）の場合は常に受理する。
// 長さ制約（文字数ベース）とキーワード（大文字小文字を区別しない部分一致）を評価し、
// 副作用や外部呼び出しは行わない。
func Accept(content string, filter *model.FilterConfig) bool {
	if filter == nil {
		return true
	}

	length := utf8.RuneCountInString(content)
	if filter.MinLength > 0 && length < filter.MinLength {
		return false
	}
	if filter.MaxLength > 0 && length > filter.MaxLength {
		return false
	}

	if len(filter.Keywords) > 0 {
		lower := strings.ToLower(content)
		matched := false
		for _, keyword := range filter.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}
