package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
)

// COIDisclosureHandler は利益相反開示のHTTPハンドラー。
type COIDisclosureHandler struct {
	repo repository.COIDisclosureRepository
	collectionSupport
}

// NewCOIDisclosureHandler はCOIDisclosureHandlerを生成する。
func NewCOIDisclosureHandler(repo repository.COIDisclosureRepository, opts CollectionOptions) *COIDisclosureHandler {
	return &COIDisclosureHandler{
		repo:              repo,
		collectionSupport: newCollectionSupport(opts),
	}
}

// coiDisclosureRequest は開示登録リクエストのボディ。
// disclosed_atを省略した場合は登録時刻を使う。
type coiDisclosureRequest struct {
	ArticleTitle  string     `json:"article_title"`
	Relationship  string     `json:"relationship"`
	DisclosedAt   *time.Time `json:"disclosed_at"`
	DisclosureURL string     `json:"disclosure_url"`
}

// ListDisclosures は開示一覧を返す。
// GET /api/coi-disclosures
func (h *COIDisclosureHandler) ListDisclosures(w http.ResponseWriter, r *http.Request) {
	disclosures, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCOIDisclosureResponses(disclosures))
}

// CreateDisclosure は開示を登録する。
// POST /api/coi-disclosures
func (h *COIDisclosureHandler) CreateDisclosure(w http.ResponseWriter, r *http.Request) {
	var req coiDisclosureRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := h.clean(req.ArticleTitle)
	relationship := h.clean(req.Relationship)
	if title == "" || relationship == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("article_titleとrelationshipは必須です"))
		return
	}
	if apiErr := h.checkLink("disclosure_url", req.DisclosureURL); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	disclosedAt := h.now()
	if req.DisclosedAt != nil {
		disclosedAt = *req.DisclosedAt
	}

	d := model.COIDisclosure{
		ID:            h.newID(),
		ArticleTitle:  title,
		Relationship:  relationship,
		DisclosedAt:   disclosedAt,
		DisclosureURL: req.DisclosureURL,
	}
	if err := h.repo.Create(r.Context(), &d); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusCreated, toCOIDisclosureResponse(d))
}

// DeleteDisclosure は開示を削除する。
// DELETE /api/coi-disclosures/{id}
func (h *COIDisclosureHandler) DeleteDisclosure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewCOIDisclosureNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	w.WriteHeader(http.StatusNoContent)
}
