package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wikidash/internal/model"
)

// LinkValidator は利用者が登録するURLを検証する。
type LinkValidator interface {
	ValidateLink(rawURL string) error
}

// TextSanitizer は利用者が入力したテキストからマークアップを取り除く。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// SnapshotInvalidator はキャッシュ済みのダッシュボードを破棄する。
// ローカルのコレクションを変更した後に呼び出す。
type SnapshotInvalidator interface {
	InvalidateAll()
}

// CollectionOptions はローカルコレクションのハンドラーが共有する依存関係。
type CollectionOptions struct {
	Links       LinkValidator
	Sanitizer   TextSanitizer
	Invalidator SnapshotInvalidator
	NewID       func() string    // 未指定の場合はUUIDv4
	Now         func() time.Time // 未指定の場合はtime.Now
}

// collectionSupport はコレクションハンドラー共通の入力検証と後処理を提供する。
type collectionSupport struct {
	links       LinkValidator
	sanitizer   TextSanitizer
	invalidator SnapshotInvalidator
	newID       func() string
	now         func() time.Time
}

func newCollectionSupport(opts CollectionOptions) collectionSupport {
	s := collectionSupport{
		links:       opts.Links,
		sanitizer:   opts.Sanitizer,
		invalidator: opts.Invalidator,
		newID:       opts.NewID,
		now:         opts.Now,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// clean はテキストをサニタイズする。サニタイザ未設定の場合はそのまま返す。
func (s collectionSupport) clean(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}

// checkLink は空でないURLを検証し、不正な場合は検証エラーを返す。
func (s collectionSupport) checkLink(field, rawURL string) *model.APIError {
	if rawURL == "" || s.links == nil {
		return nil
	}
	if err := s.links.ValidateLink(rawURL); err != nil {
		return model.NewValidationError(fmt.Sprintf("%sが不正です: %v", field, err))
	}
	return nil
}

// invalidate はダッシュボードのスナップショットを破棄する。
func (s collectionSupport) invalidate() {
	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}
}
