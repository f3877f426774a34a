// Package repository はデータ永続化と上流データ取得のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

// ErrNotFound は更新・削除対象のレコードが存在しないことを表す。
var ErrNotFound = errors.New("record not found")

// DraftRepository は下書きの永続化インターフェース。
type DraftRepository interface {
	// List は全下書きを最終編集日時の新しい順に返す。
	List(ctx context.Context) ([]model.Draft, error)
	// FindByID は指定IDの下書きを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Draft, error)
	Create(ctx context.Context, draft *model.Draft) error
	// Update は下書きを更新する。存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, draft *model.Draft) error
	// DeleteByID は下書きを削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// TaskRepository はタスクの永続化インターフェース。
type TaskRepository interface {
	// List は全タスクを作成日時順に返す。
	List(ctx context.Context) ([]model.Task, error)
	FindByID(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	DeleteByID(ctx context.Context, id string) error
	// DeleteCompletedBefore はcutoffより前に完了したタスクを削除し、削除件数を返す。
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// FocusAreaRepository は重点分野の永続化インターフェース。
type FocusAreaRepository interface {
	List(ctx context.Context) ([]model.FocusArea, error)
	FindByID(ctx context.Context, id string) (*model.FocusArea, error)
	Create(ctx context.Context, area *model.FocusArea) error
	DeleteByID(ctx context.Context, id string) error
}

// COIDisclosureRepository は利益相反開示の永続化インターフェース。
type COIDisclosureRepository interface {
	// List は全開示を開示日時の新しい順に返す。
	List(ctx context.Context) ([]model.COIDisclosure, error)
	Create(ctx context.Context, d *model.COIDisclosure) error
	DeleteByID(ctx context.Context, id string) error
}

// ProfileSource は上流から編集者プロフィールを取得する。
type ProfileSource interface {
	GetUserProfile(ctx context.Context, username string) (*model.WikiUser, error)
}

// EditSource は上流から直近の編集レコードを取得する。
type EditSource interface {
	GetRecentEdits(ctx context.Context, username string, limit int) ([]model.RawEdit, error)
}

// StatsSource は上流から編集数統計を取得する。
type StatsSource interface {
	GetEditorStats(ctx context.Context, username string) (*model.EditorStats, error)
}

// ProfileRepository はキャッシュ付きのプロフィール取得インターフェース。
type ProfileRepository interface {
	GetProfile(ctx context.Context, username string) (*model.WikiUser, error)
	// ReloadProfile はキャッシュを参照せずに取得し、成功した場合のみキャッシュを置き換える。
	ReloadProfile(ctx context.Context, username string) (*model.WikiUser, error)
	Invalidate(username string)
}

// ContributionRepository はキャッシュ付きの分類済み投稿履歴取得インターフェース。
type ContributionRepository interface {
	// GetRecentContributions は直近の投稿を新しい順に返す。
	GetRecentContributions(ctx context.Context, username string) ([]model.Contribution, error)
	// ReloadContributions はキャッシュを参照せずに取得し、成功した場合のみキャッシュを置き換える。
	ReloadContributions(ctx context.Context, username string) ([]model.Contribution, error)
	// Limit は1回の取得で返す最大件数。
	Limit() int
	Invalidate(username string)
}

// StatsRepository はキャッシュ付きの編集数統計取得インターフェース。
type StatsRepository interface {
	GetEditorStats(ctx context.Context, username string) (*model.EditorStats, error)
	ReloadEditorStats(ctx context.Context, username string) (*model.EditorStats, error)
	Invalidate(username string)
}
