package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/wikidash/internal/model"
)

// PostgresFocusAreaRepo はPostgreSQLを使用した重点分野リポジトリ。
// 対象記事の一覧はJSONBカラムに保存する。
type PostgresFocusAreaRepo struct {
	db *sql.DB
}

// NewPostgresFocusAreaRepo はPostgresFocusAreaRepoを生成する。
func NewPostgresFocusAreaRepo(db *sql.DB) *PostgresFocusAreaRepo {
	return &PostgresFocusAreaRepo{db: db}
}

const focusAreaColumns = `id, name, description, status, articles, wiki_projects`

func scanFocusArea(s rowScanner) (*model.FocusArea, error) {
	var (
		a        model.FocusArea
		status   string
		articles []byte
		projects pq.StringArray
	)
	if err := s.Scan(&a.ID, &a.Name, &a.Description, &status, &articles, &projects); err != nil {
		return nil, err
	}
	a.Status = model.FocusAreaStatus(status)
	a.Articles = []model.FocusAreaArticle{}
	if len(articles) > 0 {
		if err := json.Unmarshal(articles, &a.Articles); err != nil {
			return nil, fmt.Errorf("failed to decode articles of focus area %s: %w", a.ID, err)
		}
	}
	a.WikiProjects = []string(projects)
	if a.WikiProjects == nil {
		a.WikiProjects = []string{}
	}
	return &a, nil
}

// List は全重点分野を名前順に返す。
func (r *PostgresFocusAreaRepo) List(ctx context.Context) ([]model.FocusArea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+focusAreaColumns+` FROM focus_areas ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list focus areas: %w", err)
	}
	defer rows.Close()

	areas := []model.FocusArea{}
	for rows.Next() {
		a, err := scanFocusArea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus area: %w", err)
		}
		areas = append(areas, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate focus areas: %w", err)
	}
	return areas, nil
}

// FindByID は指定IDの重点分野を取得する。見つからない場合はnilを返す。
func (r *PostgresFocusAreaRepo) FindByID(ctx context.Context, id string) (*model.FocusArea, error) {
	a, err := scanFocusArea(r.db.QueryRowContext(ctx,
		`SELECT `+focusAreaColumns+` FROM focus_areas WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find focus area by ID: %w", err)
	}
	return a, nil
}

// Create は重点分野を作成する。
func (r *PostgresFocusAreaRepo) Create(ctx context.Context, a *model.FocusArea) error {
	articles := a.Articles
	if articles == nil {
		articles = []model.FocusAreaArticle{}
	}
	encoded, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to encode focus area articles: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO focus_areas (`+focusAreaColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.Description, string(a.Status), encoded, textArray(a.WikiProjects),
	)
	if err != nil {
		return fmt.Errorf("failed to insert focus area: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの重点分野を削除する。
func (r *PostgresFocusAreaRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM focus_areas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete focus area: %w", err)
	}
	return checkAffected(result)
}

// compile-time interface check
var _ FocusAreaRepository = (*PostgresFocusAreaRepo)(nil)
