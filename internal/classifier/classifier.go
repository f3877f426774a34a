// Package classifier は編集レコードを意味的な投稿種別に分類する。
package classifier

import (
	"strings"

	"github.com/hitoshi/wikidash/internal/model"
)

const (
	// DefaultMajorExpansionBytes は大規模編集とみなすバイト差分の閾値。
	// この値を「超える」差分が大規模編集になる。
	DefaultMajorExpansionBytes = 1000
)

// 名前空間ID（MediaWiki標準）
const (
	NamespaceTalk          = 1
	NamespaceUserTalk      = 3
	NamespaceWikipediaTalk = 5
)

// DefaultRevertMarkers は差し戻しと判定するタグ中の部分文字列。
var DefaultRevertMarkers = []string{"revert", "undo"}

// DefaultTalkNamespaces はノートページとして扱う名前空間。
var DefaultTalkNamespaces = []int{NamespaceTalk, NamespaceUserTalk, NamespaceWikipediaTalk}

// Config は分類器のヒューリスティックを保持する。
type Config struct {
	MajorExpansionBytes int
	RevertMarkers       []string
	TalkNamespaces      []int
}

// DefaultConfig はデフォルトの分類設定を返す。
func DefaultConfig() Config {
	return Config{
		MajorExpansionBytes: DefaultMajorExpansionBytes,
		RevertMarkers:       append([]string(nil), DefaultRevertMarkers...),
		TalkNamespaces:      append([]int(nil), DefaultTalkNamespaces...),
	}
}

// Classifier は編集レコードを分類する。生成後は不変でゴルーチン間で共有できる。
type Classifier struct {
	majorExpansionBytes int
	revertMarkers       []string
	talkNamespaces      map[int]struct{}
}

// New はClassifierを生成する。
// 空のフィールドにはデフォルト値を使用する。
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.MajorExpansionBytes <= 0 {
		cfg.MajorExpansionBytes = def.MajorExpansionBytes
	}
	if len(cfg.RevertMarkers) == 0 {
		cfg.RevertMarkers = def.RevertMarkers
	}
	if len(cfg.TalkNamespaces) == 0 {
		cfg.TalkNamespaces = def.TalkNamespaces
	}

	markers := make([]string, 0, len(cfg.RevertMarkers))
	for _, m := range cfg.RevertMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	namespaces := make(map[int]struct{}, len(cfg.TalkNamespaces))
	for _, ns := range cfg.TalkNamespaces {
		namespaces[ns] = struct{}{}
	}

	return &Classifier{
		majorExpansionBytes: cfg.MajorExpansionBytes,
		revertMarkers:       markers,
		talkNamespaces:      namespaces,
	}
}

// Classify は編集レコードを投稿種別に分類する。
// 判定順序: ノート名前空間 → 差し戻しタグ → 新規作成 → 大規模編集 → 小規模編集。
// 順序に意味があり、差し戻しタグ付きの新規作成は revert になる。
func (c *Classifier) Classify(raw model.RawEdit) model.ContributionType {
	switch {
	case c.isTalkNamespace(raw.Namespace):
		return model.ContributionTalkPage
	case c.hasRevertTag(raw.Tags):
		return model.ContributionRevert
	case raw.ParentID == 0:
		return model.ContributionNewArticle
	case abs(raw.SizeDiff) > c.majorExpansionBytes:
		return model.ContributionMajorExpansion
	default:
		return model.ContributionMinorEdit
	}
}

func (c *Classifier) isTalkNamespace(ns int) bool {
	_, ok := c.talkNamespaces[ns]
	return ok
}

func (c *Classifier) hasRevertTag(tags []string) bool {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, marker := range c.revertMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

var _ model.ContributionClassifier = (*Classifier)(nil)
