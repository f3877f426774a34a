package wikiapi

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeUsername はMediaWikiの正規化規則に合わせてユーザー名を整える。
// 前後の空白を除き、アンダースコアを空白に置き換え、先頭の文字を大文字にする。
// キャッシュのキーを表記ゆれで分けないために使う。
func NormalizeUsername(raw string) string {
	name := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
