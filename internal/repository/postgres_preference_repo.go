package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cuongdcdev/nearai-social-scheduler/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用したプリファレンスリポジトリ。
// filtersカラムのJSON文字列はこの層で型付きFilterConfigに変換する。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

const preferenceColumns = `id, user_id, source_id, auto_translate, translation_prompt,
	        publish_interval_seconds, filters, created_at, updated_at`

// scanPreference は1行をmodel.Preferenceに読み込み、filtersをデシリアライズする。
func scanPreference(row interface {
	Scan(dest ...interface{}) error
}) (*model.Preference, error) {
	pref := &model.Preference{}
	var prompt, filters sql.NullString

	err := row.Scan(
		&pref.ID, &pref.UserID, &pref.SourceID, &pref.AutoTranslate,
		&prompt, &pref.PublishIntervalSeconds, &filters,
		&pref.CreatedAt, &pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pref.TranslationPrompt = nullStringValue(prompt)

	filter, err := model.ParseFilterConfig(nullStringValue(filters))
	if err != nil {
		return nil, err
	}
	pref.Filter = filter

	return pref, nil
}

// ListBySourceID は指定ソースを購読する全プリファレンスを返す。
func (r *PostgresPreferenceRepo) ListBySourceID(ctx context.Context, sourceID string) ([]*model.Preference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+preferenceColumns+` FROM preferences WHERE source_id = $1 ORDER BY created_at`,
		sourceID)
	if err != nil {
		return nil, fmt.Errorf("プリファレンス一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var prefs []*model.Preference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("プリファレンス行の読み込みに失敗しました: %w", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プリファレンス行の走査に失敗しました: %w", err)
	}
	return prefs, nil
}

// FindByUserAndSource はユーザーIDとソースIDでプリファレンスを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByUserAndSource(ctx context.Context, userID, sourceID string) (*model.Preference, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM preferences WHERE user_id = $1 AND source_id = $2`,
		userID, sourceID)

	pref, err := scanPreference(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プリファレンスの検索に失敗しました: %w", err)
	}
	return pref, nil
}

// FindMostRecentByUser はユーザーの最新のプリファレンスを返す。
// 翻訳プロンプトの引き継ぎに使用する。見つからない場合はnilを返す。
func (r *PostgresPreferenceRepo) FindMostRecentByUser(ctx context.Context, userID string) (*model.Preference, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+`
		 FROM preferences WHERE user_id = $1
		 ORDER BY updated_at DESC, id DESC LIMIT 1`,
		userID)

	pref, err := scanPreference(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最新プリファレンスの検索に失敗しました: %w", err)
	}
	return pref, nil
}

// Create はプリファレンスを作成する。
func (r *PostgresPreferenceRepo) Create(ctx context.Context, pref *model.Preference) error {
	filters, err := pref.Filter.Encode()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO preferences (id, user_id, source_id, auto_translate, translation_prompt,
		                          publish_interval_seconds, filters, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pref.ID, pref.UserID, pref.SourceID, pref.AutoTranslate,
		nullString(pref.TranslationPrompt), pref.PublishIntervalSeconds,
		nullString(filters), pref.CreatedAt, pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プリファレンスの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプリファレンスを更新する。
func (r *PostgresPreferenceRepo) Update(ctx context.Context, pref *model.Preference) error {
	filters, err := pref.Filter.Encode()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE preferences
		 SET auto_translate = $2, translation_prompt = $3,
		     publish_interval_seconds = $4, filters = $5, updated_at = $6
		 WHERE id = $1`,
		pref.ID, pref.AutoTranslate, nullString(pref.TranslationPrompt),
		pref.PublishIntervalSeconds, nullString(filters), pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プリファレンスの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのプリファレンスを削除する。
func (r *PostgresPreferenceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("プリファレンスの削除に失敗しました: %w", err)
	}
	return nil
}

// CountBySourceID は指定ソースを購読するプリファレンス数を返す。
func (r *PostgresPreferenceRepo) CountBySourceID(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM preferences WHERE source_id = $1`, sourceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("購読数の取得に失敗しました: %w", err)
	}
	return count, nil
}
