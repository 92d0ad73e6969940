package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/repository"
)

// Allocator はユーザー単位の投稿スケジュール時刻を割り当てる。
// 同一ユーザーの投稿が公開間隔未満の間隔で連続しないよう、
// 最新の予定時刻を基点に次のスロットを計算する。
type Allocator struct {
	postRepo repository.PostRepository
}

// NewAllocator はAllocatorの新しいインスタンスを生成する。
func NewAllocator(postRepo repository.PostRepository) *Allocator {
	return &Allocator{postRepo: postRepo}
}

// Allocate は指定ユーザーの次の投稿予定時刻を返す。
// 既存の投稿がなければ現在時刻（即時公開可能）。既存の投稿があれば
// max(最新の予定時刻, 現在時刻) + spacing を返す。過去に取り残された
// 予定時刻を基点にしないことで、長期停止後の再開時にスロットが
// 過去へ密集するのを防ぐ。
func (a *Allocator) Allocate(ctx context.Context, userID string, spacing time.Duration, now time.Time) (time.Time, error) {
	last, err := a.postRepo.FindLatestScheduledByUser(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("最新投稿の取得に失敗しました: %w", err)
	}
	if last == nil {
		return now, nil
	}

	base := last.ScheduledAt
	if now.After(base) {
		base = now
	}
	return base.Add(spacing), nil
}
