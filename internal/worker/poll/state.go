package poll

import (
	"strings"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// ApplyFetchSuccess はフェッチ成功後のソース状態を更新する。
// カーソルを観測済み最大IDへ進め、エラー追跡状態をリセットし、
// 次回フェッチ時刻をフェッチ間隔分だけ先へ設定する。
// NextFetchAtは常にLastFetchAtより厳密に後になる。
func ApplyFetchSuccess(source *model.Source, maxItemID string, now time.Time) {
	if maxItemID != "" {
		source.LastFetchedID = maxItemID
	}

	fetchedAt := now
	source.LastFetchAt = &fetchedAt

	interval := source.FetchIntervalSeconds
	if interval <= 0 {
		interval = model.DefaultFetchIntervalSeconds
	}
	next := now.Add(time.Duration(interval) * time.Second)
	source.NextFetchAt = &next

	source.ErrorCount = 0
	source.LastErrorAt = nil
	source.LastErrorMessage = ""
	source.UpdatedAt = now
}

// ApplyFetchFailure はフェッチ失敗後のソース状態を更新する。
// エラーカウントを増やしエラー情報を記録する。カーソルと次回フェッチ時刻は
// 変更せず、次のサイクルで再試行される。
func ApplyFetchFailure(source *model.Source, now time.Time, errMsg string) {
	source.ErrorCount++
	erroredAt := now
	source.LastErrorAt = &erroredAt
	source.LastErrorMessage = errMsg
	source.UpdatedAt = now
}

// CompareItemIDs は2つのアイテムIDを比較する。
// 両方が数値文字列の場合は数値として比較し（先頭ゼロを除いた桁数、
// 次に辞書順）、それ以外は単純な文字列比較にフォールバックする。
// a < b なら負、a == b なら0、a > b なら正を返す。
func CompareItemIDs(a, b string) int {
	if isNumericID(a) && isNumericID(b) {
		ta := strings.TrimLeft(a, "0")
		tb := strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			return len(ta) - len(tb)
		}
		return strings.Compare(ta, tb)
	}
	return strings.Compare(a, b)
}

// isNumericID は文字列が空でなく数字のみで構成されるかを返す。
func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
