package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postColumns = `p.id, p.user_id, p.content, p.media_url, p.scheduled_at, p.is_posted,
	        p.source_platform, p.source_item_id, p.source_url, p.created_at, p.updated_at`

// scanPost は1行をmodel.Postに読み込む。ChannelIDsは含まれない。
func scanPost(row interface {
	Scan(dest ...interface{}) error
}) (*model.Post, error) {
	post := &model.Post{}
	var mediaURL, sourcePlatform, sourceItemID, sourceURL sql.NullString

	err := row.Scan(
		&post.ID, &post.UserID, &post.Content, &mediaURL,
		&post.ScheduledAt, &post.IsPosted,
		&sourcePlatform, &sourceItemID, &sourceURL,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.MediaURL = nullStringValue(mediaURL)
	post.SourcePlatform = model.PlatformKind(nullStringValue(sourcePlatform))
	post.SourceItemID = nullStringValue(sourceItemID)
	post.SourceURL = nullStringValue(sourceURL)

	return post, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	if err := r.loadChannelIDs(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// FindLatestScheduledByUser はユーザーの最も新しくスケジュールされた投稿を返す。
// scheduled_at降順、同時刻の場合はid降順で決定する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindLatestScheduledByUser(ctx context.Context, userID string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p WHERE p.user_id = $1
		 ORDER BY p.scheduled_at DESC, p.id DESC LIMIT 1`,
		userID)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最新スケジュール投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// ListDueUnsentByUser は配信期限が到来した未配信投稿を返す。
// ユーザー所有のチャンネルに1つ以上リンクされた投稿のみが対象。
func (r *PostgresPostRepo) ListDueUnsentByUser(ctx context.Context, userID string, now time.Time) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+postColumns+`
		 FROM posts p
		 JOIN post_channels pc ON pc.post_id = p.id
		 JOIN channels c ON c.id = pc.channel_id AND c.user_id = $1
		 WHERE p.user_id = $1 AND NOT p.is_posted AND p.scheduled_at <= $2
		 ORDER BY p.scheduled_at, p.id`,
		userID, now)
	if err != nil {
		return nil, fmt.Errorf("配信対象投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("投稿行の読み込みに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿行の走査に失敗しました: %w", err)
	}

	for _, post := range posts {
		if err := r.loadChannelIDs(ctx, post); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// loadChannelIDs は投稿にリンクされたチャンネルIDを読み込む。
func (r *PostgresPostRepo) loadChannelIDs(ctx context.Context, post *model.Post) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT channel_id FROM post_channels WHERE post_id = $1`, post.ID)
	if err != nil {
		return fmt.Errorf("チャンネルリンクの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	post.ChannelIDs = post.ChannelIDs[:0]
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("チャンネルリンク行の読み込みに失敗しました: %w", err)
		}
		post.ChannelIDs = append(post.ChannelIDs, id)
	}
	return rows.Err()
}

// Create は投稿とチャンネルリンクを同一トランザクションで作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, media_url, scheduled_at, is_posted,
		                    source_platform, source_item_id, source_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.UserID, post.Content, nullString(post.MediaURL),
		post.ScheduledAt, post.IsPosted,
		nullString(string(post.SourcePlatform)), nullString(post.SourceItemID),
		nullString(post.SourceURL), post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	if len(post.ChannelIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO post_channels (post_id, channel_id)
			 SELECT $1, unnest($2::uuid[])`,
			post.ID, pq.Array(post.ChannelIDs),
		)
		if err != nil {
			return fmt.Errorf("チャンネルリンクの作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// MarkPosted は投稿を配信試行済みとしてマークする。冪等。
func (r *PostgresPostRepo) MarkPosted(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET is_posted = TRUE, updated_at = now() WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("投稿の配信済みマークに失敗しました: %w", err)
	}
	return nil
}

// DeleteUnsent は未配信の投稿を削除し、削除された行数を返す。
// is_posted = false の投稿のみ削除する。
func (r *PostgresPostRepo) DeleteUnsent(ctx context.Context, postID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND NOT is_posted`, postID)
	if err != nil {
		return 0, fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}
