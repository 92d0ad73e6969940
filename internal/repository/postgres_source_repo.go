package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// PostgresSourceRepo はPostgreSQLを使用したソースリポジトリ。
type PostgresSourceRepo struct {
	db *sql.DB
}

// NewPostgresSourceRepo はPostgresSourceRepoを生成する。
func NewPostgresSourceRepo(db *sql.DB) *PostgresSourceRepo {
	return &PostgresSourceRepo{db: db}
}

const sourceColumns = `id, name, platform, address, last_fetched_id, last_fetch_at,
	        next_fetch_at, fetch_interval_seconds, is_active, error_count,
	        last_error_at, last_error_message, created_at, updated_at`

// scanSource は1行をmodel.Sourceに読み込む。
func scanSource(row interface {
	Scan(dest ...interface{}) error
}) (*model.Source, error) {
	source := &model.Source{}
	var lastFetchedID, lastErrorMessage sql.NullString
	var lastFetchAt, nextFetchAt, lastErrorAt sql.NullTime

	err := row.Scan(
		&source.ID, &source.Name, &source.Platform, &source.Address,
		&lastFetchedID, &lastFetchAt, &nextFetchAt,
		&source.FetchIntervalSeconds, &source.IsActive, &source.ErrorCount,
		&lastErrorAt, &lastErrorMessage, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	source.LastFetchedID = nullStringValue(lastFetchedID)
	source.LastFetchAt = nullTimeValue(lastFetchAt)
	source.NextFetchAt = nullTimeValue(nextFetchAt)
	source.LastErrorAt = nullTimeValue(lastErrorAt)
	source.LastErrorMessage = nullStringValue(lastErrorMessage)

	return source, nil
}

// FindByID は指定IDのソースを取得する。見つからない場合はnilを返す。
func (r *PostgresSourceRepo) FindByID(ctx context.Context, id string) (*model.Source, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ソースの取得に失敗しました: %w", err)
	}
	return source, nil
}

// FindByPlatformAddress はプラットフォーム種別とアドレスでソースを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresSourceRepo) FindByPlatformAddress(ctx context.Context, kind model.PlatformKind, address string) (*model.Source, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE platform = $1 AND address = $2`,
		string(kind), address)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ソースの検索に失敗しました: %w", err)
	}
	return source, nil
}

// Create はソースを作成する。
func (r *PostgresSourceRepo) Create(ctx context.Context, source *model.Source) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (id, name, platform, address, last_fetched_id, last_fetch_at,
		                      next_fetch_at, fetch_interval_seconds, is_active, error_count,
		                      last_error_at, last_error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		source.ID, source.Name, string(source.Platform), source.Address,
		nullString(source.LastFetchedID), nullTime(source.LastFetchAt),
		nullTime(source.NextFetchAt), source.FetchIntervalSeconds,
		source.IsActive, source.ErrorCount,
		nullTime(source.LastErrorAt), nullString(source.LastErrorMessage),
		source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ソースの作成に失敗しました: %w", err)
	}
	return nil
}

// ListDueByPlatform はフェッチ対象のソースを取得する。
// is_active かつ（next_fetch_atがNULLまたはnow以前）のソースを返す。
func (r *PostgresSourceRepo) ListDueByPlatform(ctx context.Context, kind model.PlatformKind, now time.Time) ([]*model.Source, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sourceColumns+`
		 FROM sources
		 WHERE platform = $1 AND is_active
		   AND (next_fetch_at IS NULL OR next_fetch_at <= $2)
		 ORDER BY next_fetch_at NULLS FIRST`,
		string(kind), now)
	if err != nil {
		return nil, fmt.Errorf("フェッチ対象ソースの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []*model.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ソース行の読み込みに失敗しました: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ソース行の走査に失敗しました: %w", err)
	}
	return sources, nil
}

// UpdateFetchState はソースのカーソル・エラー追跡状態を更新する。
func (r *PostgresSourceRepo) UpdateFetchState(ctx context.Context, source *model.Source) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sources
		 SET last_fetched_id = $2, last_fetch_at = $3, next_fetch_at = $4,
		     error_count = $5, last_error_at = $6, last_error_message = $7,
		     updated_at = $8
		 WHERE id = $1`,
		source.ID,
		nullString(source.LastFetchedID), nullTime(source.LastFetchAt),
		nullTime(source.NextFetchAt), source.ErrorCount,
		nullTime(source.LastErrorAt), nullString(source.LastErrorMessage),
		source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ソース状態の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのソースを削除する。
func (r *PostgresSourceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ソースの削除に失敗しました: %w", err)
	}
	return nil
}
