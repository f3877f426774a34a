// Package model はドメインモデルを定義する。
package model

import "time"

// ContributionType は編集の意味的な分類を表す。
type ContributionType string

const (
	// ContributionMajorExpansion は大きな加筆・削除を伴う編集。
	ContributionMajorExpansion ContributionType = "major_expansion"
	// ContributionMinorEdit は小規模な編集。
	ContributionMinorEdit ContributionType = "minor_edit"
	// ContributionNewArticle はページの新規作成。
	ContributionNewArticle ContributionType = "new_article"
	// ContributionRevert は差し戻し・取り消し。
	ContributionRevert ContributionType = "revert"
	// ContributionTalkPage はノートページでの編集。
	ContributionTalkPage ContributionType = "talk_page"
)

// AllContributionTypes は集計時に必ず出力する分類の一覧。
var AllContributionTypes = []ContributionType{
	ContributionMajorExpansion,
	ContributionMinorEdit,
	ContributionNewArticle,
	ContributionRevert,
	ContributionTalkPage,
}

// RawEdit は上流APIから取得した未分類の編集レコード。
type RawEdit struct {
	RevID     int64
	Title     string
	Namespace int
	Timestamp time.Time
	SizeDiff  int
	ParentID  int64 // 親版がない場合は0
	Tags      []string
	Minor     bool
	Comment   string
}

// Contribution は分類済みの編集を表す。
// Typeは分類器のみが設定し、生成後に変更しない。
type Contribution struct {
	RevisionID   int64
	ArticleTitle string
	ArticleURL   string
	Timestamp    time.Time
	Type         ContributionType
	ByteDiff     int
	Summary      string
	IsMinor      bool
	Tags         []string
}

// ContributionClassifier は編集レコードを分類するインターフェース。
type ContributionClassifier interface {
	Classify(raw RawEdit) ContributionType
}

// NewContribution はRawEditを分類してContributionを生成する。
func NewContribution(raw RawEdit, articleURL string, c ContributionClassifier) Contribution {
	tags := make([]string, len(raw.Tags))
	copy(tags, raw.Tags)
	return Contribution{
		RevisionID:   raw.RevID,
		ArticleTitle: raw.Title,
		ArticleURL:   articleURL,
		Timestamp:    raw.Timestamp,
		Type:         c.Classify(raw),
		ByteDiff:     raw.SizeDiff,
		Summary:      raw.Comment,
		IsMinor:      raw.Minor,
		Tags:         tags,
	}
}
