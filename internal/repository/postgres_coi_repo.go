package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wikidash/internal/model"
)

// PostgresCOIDisclosureRepo はPostgreSQLを使用した利益相反開示リポジトリ。
type PostgresCOIDisclosureRepo struct {
	db *sql.DB
}

// NewPostgresCOIDisclosureRepo はPostgresCOIDisclosureRepoを生成する。
func NewPostgresCOIDisclosureRepo(db *sql.DB) *PostgresCOIDisclosureRepo {
	return &PostgresCOIDisclosureRepo{db: db}
}

// List は全開示を開示日時の新しい順に返す。
func (r *PostgresCOIDisclosureRepo) List(ctx context.Context) ([]model.COIDisclosure, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, article_title, relationship, disclosed_at, disclosure_url
		 FROM coi_disclosures ORDER BY disclosed_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list COI disclosures: %w", err)
	}
	defer rows.Close()

	disclosures := []model.COIDisclosure{}
	for rows.Next() {
		var d model.COIDisclosure
		if err := rows.Scan(&d.ID, &d.ArticleTitle, &d.Relationship, &d.DisclosedAt, &d.DisclosureURL); err != nil {
			return nil, fmt.Errorf("failed to scan COI disclosure: %w", err)
		}
		disclosures = append(disclosures, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate COI disclosures: %w", err)
	}
	return disclosures, nil
}

// Create は開示を作成する。
func (r *PostgresCOIDisclosureRepo) Create(ctx context.Context, d *model.COIDisclosure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO coi_disclosures (id, article_title, relationship, disclosed_at, disclosure_url)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.ArticleTitle, d.Relationship, d.DisclosedAt, d.DisclosureURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert COI disclosure: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの開示を削除する。
func (r *PostgresCOIDisclosureRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM coi_disclosures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete COI disclosure: %w", err)
	}
	return checkAffected(result)
}

// compile-time interface check
var _ COIDisclosureRepository = (*PostgresCOIDisclosureRepo)(nil)
