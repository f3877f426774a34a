package wikiapi

import (
	"net/url"
	"strings"
)

// ArticleURL は記事タイトルからページURLを組み立てる。
// 空白はアンダースコアに置き換え、"/" で区切られたサブページ部分ごとにエスケープする。
func ArticleURL(base, title string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	segments := strings.Split(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + strings.Join(segments, "/")
}
