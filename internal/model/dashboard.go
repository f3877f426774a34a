// Package model はドメインモデルを定義する。
package model

import "time"

// WikiUser は上流から取得した編集者プロフィール。
type WikiUser struct {
	Username     string
	UserID       int64
	RegisteredAt *time.Time // 古いアカウントでは登録日時が記録されていない
	EditCount    int
	Groups       []string
}

// EditorStats は統計APIから取得した編集数の集計値。
type EditorStats struct {
	Username         string
	LiveEditCount    int
	DeletedEditCount int
	TotalEditCount   int
}

// DraftSummary は下書きの状態別集計。
type DraftSummary struct {
	Total    int
	ByStatus map[DraftStatus]int
}

// ArticleEditCount は記事ごとの編集回数。
type ArticleEditCount struct {
	Title string
	Count int
}

// ContributionSummary は投稿履歴の集計。
// TotalBytesAddedは正の差分のみを合計した値。
type ContributionSummary struct {
	TotalEdits         int
	TotalBytesAdded    int
	ByType             map[ContributionType]int
	MostEditedArticles []ArticleEditCount
}

// FocusAreaProgress は重点分野ごとの進捗。
type FocusAreaProgress struct {
	Area              FocusArea
	TotalArticles     int
	CompletedArticles int
	ProgressPercent   int
}

// DashboardStats はダッシュボードに表示する派生統計。
type DashboardStats struct {
	EditCount        int
	LiveEditCount    int
	DeletedEditCount int
	Contributions    ContributionSummary
	Drafts           DraftSummary
	OpenTasks        int
	ActiveFocusAreas int
}

// EditorDashboard はダッシュボード全体のスナップショット。
// リフレッシュごとに新しく構築され、構築後は変更しない。
type EditorDashboard struct {
	User                WikiUser
	Stats               DashboardStats
	Drafts              []Draft
	RecentContributions []Contribution
	FocusAreas          []FocusArea
	Tasks               []Task
	COIDisclosures      []COIDisclosure
	LastUpdated         time.Time
}
