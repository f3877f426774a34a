package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/summary"
)

// FocusAreaHandler は重点分野管理のHTTPハンドラー。
type FocusAreaHandler struct {
	repo repository.FocusAreaRepository
	collectionSupport
}

// NewFocusAreaHandler はFocusAreaHandlerを生成する。
func NewFocusAreaHandler(repo repository.FocusAreaRepository, opts CollectionOptions) *FocusAreaHandler {
	return &FocusAreaHandler{
		repo:              repo,
		collectionSupport: newCollectionSupport(opts),
	}
}

// focusAreaRequest は重点分野作成リクエストのボディ。
type focusAreaRequest struct {
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	Status       string                   `json:"status"`
	Articles     []model.FocusAreaArticle `json:"articles"`
	WikiProjects []string                 `json:"wiki_projects"`
}

// ListFocusAreas は重点分野一覧を返す。
// GET /api/focus-areas
func (h *FocusAreaHandler) ListFocusAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFocusAreaResponses(areas))
}

// GetProgress は重点分野ごとの記事品質の進捗を返す。
// GET /api/focus-areas/progress
func (h *FocusAreaHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	areas, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFocusAreaProgressResponses(summary.CalculateFocusAreaProgress(areas)))
}

// CreateFocusArea は重点分野を登録する。
// POST /api/focus-areas
func (h *FocusAreaHandler) CreateFocusArea(w http.ResponseWriter, r *http.Request) {
	var req focusAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	area, apiErr := h.buildFocusArea(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	area.ID = h.newID()

	if err := h.repo.Create(r.Context(), &area); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusCreated, toFocusAreaResponse(area))
}

// DeleteFocusArea は重点分野を削除する。
// DELETE /api/focus-areas/{id}
func (h *FocusAreaHandler) DeleteFocusArea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewFocusAreaNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	w.WriteHeader(http.StatusNoContent)
}

func (h *FocusAreaHandler) buildFocusArea(req focusAreaRequest) (model.FocusArea, *model.APIError) {
	name := h.clean(req.Name)
	if name == "" {
		return model.FocusArea{}, model.NewValidationError("名前は必須です")
	}

	status := model.FocusAreaActive
	if req.Status != "" {
		status = model.FocusAreaStatus(req.Status)
	}
	if !status.Valid() {
		return model.FocusArea{}, model.NewValidationError("不明なstatusです: " + req.Status)
	}

	articles := make([]model.FocusAreaArticle, 0, len(req.Articles))
	for i, a := range req.Articles {
		a.Title = h.clean(a.Title)
		if a.Title == "" {
			return model.FocusArea{}, model.NewValidationError(fmt.Sprintf("articles[%d]のタイトルは必須です", i))
		}
		if apiErr := h.checkLink(fmt.Sprintf("articles[%d].url", i), a.URL); apiErr != nil {
			return model.FocusArea{}, apiErr
		}
		a.QualityStatus = h.clean(a.QualityStatus)
		articles = append(articles, a)
	}

	projects := make([]string, 0, len(req.WikiProjects))
	for _, p := range req.WikiProjects {
		if p = h.clean(p); p != "" {
			projects = append(projects, p)
		}
	}

	return model.FocusArea{
		Name:         name,
		Description:  h.clean(req.Description),
		Status:       status,
		Articles:     articles,
		WikiProjects: projects,
	}, nil
}
