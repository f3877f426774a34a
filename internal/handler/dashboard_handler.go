package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/summary"
	"github.com/hitoshi/wikidash/internal/wikiapi"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	// GetDashboard は有効期間内のスナップショットを返し、なければ再構築する。
	GetDashboard(ctx context.Context, username string) (*model.EditorDashboard, error)
	// ForceRefresh は上流のキャッシュを参照せずに取得し直してスナップショットを再構築する。
	ForceRefresh(ctx context.Context, username string) (*model.EditorDashboard, error)
}

// DashboardHandler はダッシュボードと投稿履歴のHTTPハンドラー。
type DashboardHandler struct {
	service       DashboardServiceInterface
	contributions repository.ContributionRepository
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface, contributions repository.ContributionRepository) *DashboardHandler {
	return &DashboardHandler{
		service:       service,
		contributions: contributions,
	}
}

// contributionListResponse は投稿履歴一覧のレスポンス。
type contributionListResponse struct {
	Username      string                      `json:"username"`
	Contributions []contributionResponse      `json:"contributions"`
	Summary       contributionSummaryResponse `json:"summary"`
}

// GetDashboard はダッシュボードのスナップショットを返す。
// GET /api/dashboard/{username}
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	d, err := h.service.GetDashboard(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardResponse(d))
}

// RefreshDashboard は上流から取得し直したスナップショットを返す。
// POST /api/dashboard/{username}/refresh
func (h *DashboardHandler) RefreshDashboard(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	d, err := h.service.ForceRefresh(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardResponse(d))
}

// ListContributions は分類済みの投稿履歴と集計を返す。
// GET /api/contributions/{username}?limit=N
// limitは1から取得上限までに丸める。
func (h *DashboardHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	limit := h.contributions.Limit()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limitは整数で指定してください"))
			return
		}
		limit = min(max(n, 1), limit)
	}

	contributions, err := h.contributions.GetRecentContributions(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if len(contributions) > limit {
		contributions = contributions[:limit]
	}

	writeJSON(w, http.StatusOK, contributionListResponse{
		Username:      username,
		Contributions: toContributionResponses(contributions),
		Summary:       toContributionSummaryResponse(summary.SummarizeContributions(contributions)),
	})
}

// usernameParam はURLパラメータのユーザー名を正規化して返す。
// 空の場合は400を書き込み、falseを返す。
func usernameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "username")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	username := wikiapi.NormalizeUsername(raw)
	if username == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ユーザー名が空です"))
		return "", false
	}
	return username, true
}
