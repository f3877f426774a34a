package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は利用者入力や上流の編集要約からマークアップを除去する。
// 出力はエスケープしないプレーンテキストで、表示時のエスケープは呼び出し側が行う。
type TextSanitizer interface {
	Sanitize(raw string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はすべてのタグを除去するTextSanitizerを生成する。
// script/styleは要素の中身ごと除去される。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// bluemondayは残したテキストをエスケープして返すため、保存前に元の文字へ戻す
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
