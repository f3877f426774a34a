// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: upstream, validation, collection, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeDraftNotFound         = "DRAFT_NOT_FOUND"
	ErrCodeTaskNotFound          = "TASK_NOT_FOUND"
	ErrCodeFocusAreaNotFound     = "FOCUS_AREA_NOT_FOUND"
	ErrCodeCOIDisclosureNotFound = "COI_DISCLOSURE_NOT_FOUND"
)

// NewUpstreamUnavailableError は上流API（プロフィール・投稿履歴・統計）の失敗を表すエラーを生成する。
// sourceには失敗した上流の名前を指定する。
func NewUpstreamUnavailableError(source, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("%s からの取得に失敗しました: %s", source, reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError は上流に存在しないユーザー名を指定された場合のエラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "upstream",
		Action:   "ユーザー名の綴りを確認してください。",
	}
}

// NewValidationError はリクエスト内容の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewDraftNotFoundError は下書き未検出エラーを生成する。
func NewDraftNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeDraftNotFound,
		Message:  fmt.Sprintf("指定された下書きが見つかりません: %s", id),
		Category: "collection",
		Action:   "下書きIDを確認してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", id),
		Category: "collection",
		Action:   "タスクIDを確認してください。",
	}
}

// NewFocusAreaNotFoundError は重点分野未検出エラーを生成する。
func NewFocusAreaNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeFocusAreaNotFound,
		Message:  fmt.Sprintf("指定された重点分野が見つかりません: %s", id),
		Category: "collection",
		Action:   "重点分野IDを確認してください。",
	}
}

// NewCOIDisclosureNotFoundError は利益相反開示未検出エラーを生成する。
func NewCOIDisclosureNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCOIDisclosureNotFound,
		Message:  fmt.Sprintf("指定された利益相反開示が見つかりません: %s", id),
		Category: "collection",
		Action:   "開示IDを確認してください。",
	}
}
