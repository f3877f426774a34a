package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

// PostgresDraftRepo はPostgreSQLを使用した下書きリポジトリ。
type PostgresDraftRepo struct {
	db *sql.DB
}

// NewPostgresDraftRepo はPostgresDraftRepoを生成する。
func NewPostgresDraftRepo(db *sql.DB) *PostgresDraftRepo {
	return &PostgresDraftRepo{db: db}
}

const draftColumns = `id, title, page_url, talk_page_url, status, submitted_at, afc_log_url,
	coi_disclosed, coi_details, notes, created_at, last_edited_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDraft は1行を読み取り、状態カラムからDraftStateを復元する。
func scanDraft(s rowScanner) (*model.Draft, error) {
	var (
		d           model.Draft
		status      string
		submittedAt sql.NullTime
		afcLogURL   sql.NullString
	)
	if err := s.Scan(&d.ID, &d.Title, &d.PageURL, &d.TalkPageURL, &status, &submittedAt, &afcLogURL,
		&d.COIDisclosed, &d.COIDetails, &d.Notes, &d.CreatedAt, &d.LastEditedAt); err != nil {
		return nil, err
	}

	var at *time.Time
	if submittedAt.Valid {
		at = &submittedAt.Time
	}
	state, err := model.NewDraftState(model.DraftStatus(status), at, afcLogURL.String)
	if err != nil {
		return nil, fmt.Errorf("draft %s has inconsistent state: %w", d.ID, err)
	}
	d.State = state
	return &d, nil
}

// draftStateColumns はDraftStateを保存用のカラム値に分解する。
func draftStateColumns(d *model.Draft) (string, sql.NullTime, sql.NullString) {
	at, url := d.SubmissionInfo()
	var (
		submittedAt sql.NullTime
		afcLogURL   sql.NullString
	)
	if at != nil {
		submittedAt = sql.NullTime{Time: *at, Valid: true}
		afcLogURL = sql.NullString{String: url, Valid: true}
	}
	return string(d.Status()), submittedAt, afcLogURL
}

// List は全下書きを最終編集日時の新しい順に返す。
func (r *PostgresDraftRepo) List(ctx context.Context) ([]model.Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+draftColumns+` FROM drafts ORDER BY last_edited_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	drafts := []model.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drafts: %w", err)
	}
	return drafts, nil
}

// FindByID は指定IDの下書きを取得する。見つからない場合はnilを返す。
func (r *PostgresDraftRepo) FindByID(ctx context.Context, id string) (*model.Draft, error) {
	d, err := scanDraft(r.db.QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find draft by ID: %w", err)
	}
	return d, nil
}

// Create は下書きを作成する。
func (r *PostgresDraftRepo) Create(ctx context.Context, d *model.Draft) error {
	status, submittedAt, afcLogURL := draftStateColumns(d)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drafts (`+draftColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.Title, d.PageURL, d.TalkPageURL, status, submittedAt, afcLogURL,
		d.COIDisclosed, d.COIDetails, d.Notes, d.CreatedAt, d.LastEditedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}
	return nil
}

// Update は下書きを更新する。作成日時は変更しない。
func (r *PostgresDraftRepo) Update(ctx context.Context, d *model.Draft) error {
	status, submittedAt, afcLogURL := draftStateColumns(d)
	result, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET title = $2, page_url = $3, talk_page_url = $4, status = $5,
		   submitted_at = $6, afc_log_url = $7, coi_disclosed = $8, coi_details = $9,
		   notes = $10, last_edited_at = $11
		 WHERE id = $1`,
		d.ID, d.Title, d.PageURL, d.TalkPageURL, status, submittedAt, afcLogURL,
		d.COIDisclosed, d.COIDetails, d.Notes, d.LastEditedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return checkAffected(result)
}

// DeleteByID は指定IDの下書きを削除する。
func (r *PostgresDraftRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return checkAffected(result)
}

// checkAffected は更新件数が0の場合にErrNotFoundを返す。
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ DraftRepository = (*PostgresDraftRepo)(nil)
