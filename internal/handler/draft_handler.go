package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/summary"
)

// DraftHandler は下書き管理のHTTPハンドラー。
type DraftHandler struct {
	repo repository.DraftRepository
	collectionSupport
}

// NewDraftHandler はDraftHandlerを生成する。
func NewDraftHandler(repo repository.DraftRepository, opts CollectionOptions) *DraftHandler {
	return &DraftHandler{
		repo:              repo,
		collectionSupport: newCollectionSupport(opts),
	}
}

// draftRequest は下書き作成・更新リクエストのボディ。
// submitted_atとafc_log_urlは提出後の状態でのみ必須。
type draftRequest struct {
	Title        string     `json:"title"`
	PageURL      string     `json:"page_url"`
	TalkPageURL  string     `json:"talk_page_url"`
	Status       string     `json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	AFCLogURL    string     `json:"afc_log_url"`
	COIDisclosed bool       `json:"coi_disclosed"`
	COIDetails   string     `json:"coi_details"`
	Notes        string     `json:"notes"`
}

// ListDrafts は下書き一覧を返す。
// GET /api/drafts
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponses(drafts))
}

// GetDraftSummary は下書きの状態別集計を返す。
// GET /api/drafts/summary
func (h *DraftHandler) GetDraftSummary(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftSummaryResponse(summary.SummarizeDrafts(drafts)))
}

// GetDraft は下書き詳細を返す。
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	draft, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if draft == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDraftNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toDraftResponse(*draft))
}

// CreateDraft は下書きを登録する。
// POST /api/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, apiErr := h.buildDraft(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	now := h.now()
	draft.ID = h.newID()
	draft.CreatedAt = now
	draft.LastEditedAt = now

	if err := h.repo.Create(r.Context(), &draft); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusCreated, toDraftResponse(draft))
}

// UpdateDraft は下書きを置き換える。作成日時は維持し、最終編集日時を現在時刻にする。
// PUT /api/drafts/{id}
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req draftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, apiErr := h.buildDraft(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDraftNotFoundError(id))
		return
	}

	draft.ID = existing.ID
	draft.CreatedAt = existing.CreatedAt
	draft.LastEditedAt = h.now()
	if draft.LastEditedAt.Before(draft.CreatedAt) {
		draft.LastEditedAt = draft.CreatedAt
	}

	if err := h.repo.Update(r.Context(), &draft); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewDraftNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusOK, toDraftResponse(draft))
}

// DeleteDraft は下書きを削除する。
// DELETE /api/drafts/{id}
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewDraftNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// buildDraft はリクエストを検証し、ID・日時以外のフィールドを設定した下書きを返す。
func (h *DraftHandler) buildDraft(req draftRequest) (model.Draft, *model.APIError) {
	title := h.clean(req.Title)
	if title == "" {
		return model.Draft{}, model.NewValidationError("タイトルは必須です")
	}

	status := model.DraftInDevelopment
	if req.Status != "" {
		status = model.DraftStatus(req.Status)
	}
	state, err := model.NewDraftState(status, req.SubmittedAt, req.AFCLogURL)
	if err != nil {
		return model.Draft{}, model.NewValidationError(err.Error())
	}

	for _, link := range []struct{ field, url string }{
		{"page_url", req.PageURL},
		{"talk_page_url", req.TalkPageURL},
		{"afc_log_url", req.AFCLogURL},
	} {
		if apiErr := h.checkLink(link.field, link.url); apiErr != nil {
			return model.Draft{}, apiErr
		}
	}

	return model.Draft{
		Title:        title,
		PageURL:      req.PageURL,
		TalkPageURL:  req.TalkPageURL,
		State:        state,
		COIDisclosed: req.COIDisclosed,
		COIDetails:   h.clean(req.COIDetails),
		Notes:        h.clean(req.Notes),
	}, nil
}
