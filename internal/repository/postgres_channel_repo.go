package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// PostgresChannelRepo はPostgreSQLを使用した配信チャンネルリポジトリ。
type PostgresChannelRepo struct {
	db *sql.DB
}

// NewPostgresChannelRepo はPostgresChannelRepoを生成する。
func NewPostgresChannelRepo(db *sql.DB) *PostgresChannelRepo {
	return &PostgresChannelRepo{db: db}
}

const channelColumns = `id, user_id, name, platform, address, is_active, created_at, updated_at`

func (r *PostgresChannelRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("チャンネル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		ch := &model.Channel{}
		err := rows.Scan(&ch.ID, &ch.UserID, &ch.Name, &ch.Platform, &ch.Address,
			&ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("チャンネル行の読み込みに失敗しました: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チャンネル行の走査に失敗しました: %w", err)
	}
	return channels, nil
}

// ListByUserID はユーザーが所有するチャンネル一覧を返す。
func (r *PostgresChannelRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Channel, error) {
	return r.list(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE user_id = $1 ORDER BY created_at`,
		userID)
}

// ListActiveByUserID はユーザーが所有するアクティブなチャンネル一覧を返す。
func (r *PostgresChannelRepo) ListActiveByUserID(ctx context.Context, userID string) ([]*model.Channel, error) {
	return r.list(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE user_id = $1 AND is_active ORDER BY created_at`,
		userID)
}
