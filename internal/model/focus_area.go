// Package model はドメインモデルを定義する。
package model

import "time"

// FocusAreaStatus は重点分野の状態を表す。
type FocusAreaStatus string

const (
	FocusAreaActive    FocusAreaStatus = "active"
	FocusAreaPlanned   FocusAreaStatus = "planned"
	FocusAreaCompleted FocusAreaStatus = "completed"
	FocusAreaBlocked   FocusAreaStatus = "blocked"
)

// Valid は定義済みの状態かを返す。
func (s FocusAreaStatus) Valid() bool {
	switch s {
	case FocusAreaActive, FocusAreaPlanned, FocusAreaCompleted, FocusAreaBlocked:
		return true
	default:
		return false
	}
}

// FocusAreaArticle は重点分野に属する記事。
// QualityStatusはウィキプロジェクトの品質評価（FA, GA, B, Stub など）。
type FocusAreaArticle struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	QualityStatus string     `json:"quality_status"`
	LastEdited    *time.Time `json:"last_edited,omitempty"`
}

// FocusArea は編集者が継続的に取り組む分野を表す。
type FocusArea struct {
	ID           string
	Name         string
	Description  string
	Status       FocusAreaStatus
	Articles     []FocusAreaArticle
	WikiProjects []string
}

// COIDisclosure は利益相反（COI）の開示記録を表す。
type COIDisclosure struct {
	ID            string
	ArticleTitle  string
	Relationship  string
	DisclosedAt   time.Time
	DisclosureURL string
}
