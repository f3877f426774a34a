package handler

import (
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

// --- レスポンス型 ---

type userResponse struct {
	Username     string     `json:"username"`
	UserID       int64      `json:"user_id"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	EditCount    int        `json:"edit_count"`
	Groups       []string   `json:"groups"`
}

type contributionResponse struct {
	RevisionID   int64     `json:"revision_id"`
	ArticleTitle string    `json:"article_title"`
	ArticleURL   string    `json:"article_url"`
	Timestamp    time.Time `json:"timestamp"`
	Type         string    `json:"type"`
	ByteDiff     int       `json:"byte_diff"`
	Summary      string    `json:"summary"`
	IsMinor      bool      `json:"is_minor"`
	Tags         []string  `json:"tags"`
}

type articleEditCountResponse struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

type contributionSummaryResponse struct {
	TotalEdits         int                        `json:"total_edits"`
	TotalBytesAdded    int                        `json:"total_bytes_added"`
	ByType             map[string]int             `json:"by_type"`
	MostEditedArticles []articleEditCountResponse `json:"most_edited_articles"`
}

type draftSummaryResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type draftResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	PageURL      string     `json:"page_url"`
	TalkPageURL  string     `json:"talk_page_url"`
	Status       string     `json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	AFCLogURL    string     `json:"afc_log_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastEditedAt time.Time  `json:"last_edited_at"`
	COIDisclosed bool       `json:"coi_disclosed"`
	COIDetails   string     `json:"coi_details"`
	Notes        string     `json:"notes"`
}

type taskResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	RelatedArticles []string   `json:"related_articles"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type focusAreaResponse struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	Status       string                   `json:"status"`
	Articles     []model.FocusAreaArticle `json:"articles"`
	WikiProjects []string                 `json:"wiki_projects"`
}

type focusAreaProgressResponse struct {
	Area              focusAreaResponse `json:"area"`
	TotalArticles     int               `json:"total_articles"`
	CompletedArticles int               `json:"completed_articles"`
	ProgressPercent   int               `json:"progress_percent"`
}

type coiDisclosureResponse struct {
	ID            string    `json:"id"`
	ArticleTitle  string    `json:"article_title"`
	Relationship  string    `json:"relationship"`
	DisclosedAt   time.Time `json:"disclosed_at"`
	DisclosureURL string    `json:"disclosure_url"`
}

type dashboardStatsResponse struct {
	EditCount        int                         `json:"edit_count"`
	LiveEditCount    int                         `json:"live_edit_count"`
	DeletedEditCount int                         `json:"deleted_edit_count"`
	Contributions    contributionSummaryResponse `json:"contributions"`
	Drafts           draftSummaryResponse        `json:"drafts"`
	OpenTasks        int                         `json:"open_tasks"`
	ActiveFocusAreas int                         `json:"active_focus_areas"`
}

type dashboardResponse struct {
	User                userResponse            `json:"user"`
	Stats               dashboardStatsResponse  `json:"stats"`
	Drafts              []draftResponse         `json:"drafts"`
	RecentContributions []contributionResponse  `json:"recent_contributions"`
	FocusAreas          []focusAreaResponse     `json:"focus_areas"`
	Tasks               []taskResponse          `json:"tasks"`
	COIDisclosures      []coiDisclosureResponse `json:"coi_disclosures"`
	LastUpdated         time.Time               `json:"last_updated"`
}

// --- 変換関数 ---

func toUserResponse(u model.WikiUser) userResponse {
	groups := u.Groups
	if groups == nil {
		groups = []string{}
	}
	return userResponse{
		Username:     u.Username,
		UserID:       u.UserID,
		RegisteredAt: u.RegisteredAt,
		EditCount:    u.EditCount,
		Groups:       groups,
	}
}

func toContributionResponses(cs []model.Contribution) []contributionResponse {
	out := make([]contributionResponse, len(cs))
	for i, c := range cs {
		tags := c.Tags
		if tags == nil {
			tags = []string{}
		}
		out[i] = contributionResponse{
			RevisionID:   c.RevisionID,
			ArticleTitle: c.ArticleTitle,
			ArticleURL:   c.ArticleURL,
			Timestamp:    c.Timestamp,
			Type:         string(c.Type),
			ByteDiff:     c.ByteDiff,
			Summary:      c.Summary,
			IsMinor:      c.IsMinor,
			Tags:         tags,
		}
	}
	return out
}

func toContributionSummaryResponse(s model.ContributionSummary) contributionSummaryResponse {
	byType := make(map[string]int, len(s.ByType))
	for k, v := range s.ByType {
		byType[string(k)] = v
	}
	articles := make([]articleEditCountResponse, len(s.MostEditedArticles))
	for i, a := range s.MostEditedArticles {
		articles[i] = articleEditCountResponse{Title: a.Title, Count: a.Count}
	}
	return contributionSummaryResponse{
		TotalEdits:         s.TotalEdits,
		TotalBytesAdded:    s.TotalBytesAdded,
		ByType:             byType,
		MostEditedArticles: articles,
	}
}

func toDraftSummaryResponse(s model.DraftSummary) draftSummaryResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[string(k)] = v
	}
	return draftSummaryResponse{Total: s.Total, ByStatus: byStatus}
}

func toDraftResponse(d model.Draft) draftResponse {
	submittedAt, afcLogURL := d.SubmissionInfo()
	return draftResponse{
		ID:           d.ID,
		Title:        d.Title,
		PageURL:      d.PageURL,
		TalkPageURL:  d.TalkPageURL,
		Status:       string(d.Status()),
		SubmittedAt:  submittedAt,
		AFCLogURL:    afcLogURL,
		CreatedAt:    d.CreatedAt,
		LastEditedAt: d.LastEditedAt,
		COIDisclosed: d.COIDisclosed,
		COIDetails:   d.COIDetails,
		Notes:        d.Notes,
	}
}

func toDraftResponses(ds []model.Draft) []draftResponse {
	out := make([]draftResponse, len(ds))
	for i, d := range ds {
		out[i] = toDraftResponse(d)
	}
	return out
}

func toTaskResponse(t model.Task) taskResponse {
	related := t.RelatedArticles
	if related == nil {
		related = []string{}
	}
	return taskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		DueDate:         t.DueDate,
		RelatedArticles: related,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

func toTaskResponses(ts []model.Task) []taskResponse {
	out := make([]taskResponse, len(ts))
	for i, t := range ts {
		out[i] = toTaskResponse(t)
	}
	return out
}

func toFocusAreaResponse(a model.FocusArea) focusAreaResponse {
	articles := a.Articles
	if articles == nil {
		articles = []model.FocusAreaArticle{}
	}
	projects := a.WikiProjects
	if projects == nil {
		projects = []string{}
	}
	return focusAreaResponse{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Status:       string(a.Status),
		Articles:     articles,
		WikiProjects: projects,
	}
}

func toFocusAreaResponses(as []model.FocusArea) []focusAreaResponse {
	out := make([]focusAreaResponse, len(as))
	for i, a := range as {
		out[i] = toFocusAreaResponse(a)
	}
	return out
}

func toFocusAreaProgressResponses(ps []model.FocusAreaProgress) []focusAreaProgressResponse {
	out := make([]focusAreaProgressResponse, len(ps))
	for i, p := range ps {
		out[i] = focusAreaProgressResponse{
			Area:              toFocusAreaResponse(p.Area),
			TotalArticles:     p.TotalArticles,
			CompletedArticles: p.CompletedArticles,
			ProgressPercent:   p.ProgressPercent,
		}
	}
	return out
}

func toCOIDisclosureResponse(d model.COIDisclosure) coiDisclosureResponse {
	return coiDisclosureResponse{
		ID:            d.ID,
		ArticleTitle:  d.ArticleTitle,
		Relationship:  d.Relationship,
		DisclosedAt:   d.DisclosedAt,
		DisclosureURL: d.DisclosureURL,
	}
}

func toCOIDisclosureResponses(ds []model.COIDisclosure) []coiDisclosureResponse {
	out := make([]coiDisclosureResponse, len(ds))
	for i, d := range ds {
		out[i] = toCOIDisclosureResponse(d)
	}
	return out
}

func toDashboardResponse(d *model.EditorDashboard) dashboardResponse {
	return dashboardResponse{
		User: toUserResponse(d.User),
		Stats: dashboardStatsResponse{
			EditCount:        d.Stats.EditCount,
			LiveEditCount:    d.Stats.LiveEditCount,
			DeletedEditCount: d.Stats.DeletedEditCount,
			Contributions:    toContributionSummaryResponse(d.Stats.Contributions),
			Drafts:           toDraftSummaryResponse(d.Stats.Drafts),
			OpenTasks:        d.Stats.OpenTasks,
			ActiveFocusAreas: d.Stats.ActiveFocusAreas,
		},
		Drafts:              toDraftResponses(d.Drafts),
		RecentContributions: toContributionResponses(d.RecentContributions),
		FocusAreas:          toFocusAreaResponses(d.FocusAreas),
		Tasks:               toTaskResponses(d.Tasks),
		COIDisclosures:      toCOIDisclosureResponses(d.COIDisclosures),
		LastUpdated:         d.LastUpdated,
	}
}
