package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
)

func TestFocusAreaHandler_CreateFocusArea_Success(t *testing.T) {
	var created *model.FocusArea
	repo := &mockFocusAreaRepo{
		createFn: func(ctx context.Context, a *model.FocusArea) error {
			created = a
			return nil
		},
	}
	inv := &countingInvalidator{}
	h := NewFocusAreaHandler(repo, testCollectionOptions(inv))

	body := `{
		"name": " <b>Japanese railways</b> ",
		"articles": [
			{"title": "Yamanote Line", "url": "https://en.wikipedia.org/wiki/Yamanote_Line", "quality_status": "GA"},
			{"title": "Keio Line", "quality_status": "C"}
		],
		"wiki_projects": ["WikiProject Trains", ""]
	}`
	w := httptest.NewRecorder()
	h.CreateFocusArea(w, httptest.NewRequest(http.MethodPost, "/api/focus-areas", bytes.NewBufferString(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	if created.ID != "new-id" || created.Name != "Japanese railways" {
		t.Errorf("ID/Name = %q/%q", created.ID, created.Name)
	}
	if created.Status != model.FocusAreaActive {
		t.Errorf("Status = %q, want %q", created.Status, model.FocusAreaActive)
	}
	if len(created.Articles) != 2 || len(created.WikiProjects) != 1 {
		t.Errorf("articles=%d projects=%d, want 2/1", len(created.Articles), len(created.WikiProjects))
	}
	if inv.calls != 1 {
		t.Errorf("invalidations = %d, want 1", inv.calls)
	}
}

func TestFocusAreaHandler_CreateFocusArea_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"名前なし", `{"name": "<b></b>"}`},
		{"不明な状態", `{"name": "X", "status": "archived"}`},
		{"記事タイトルなし", `{"name": "X", "articles": [{"title": " "}]}`},
		{"記事URLが不正", `{"name": "X", "articles": [{"title": "A", "url": "ftp://example.org/a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockFocusAreaRepo{
				createFn: func(ctx context.Context, a *model.FocusArea) error {
					t.Fatal("Create should not be called")
					return nil
				},
			}
			inv := &countingInvalidator{}
			h := NewFocusAreaHandler(repo, testCollectionOptions(inv))

			w := httptest.NewRecorder()
			h.CreateFocusArea(w, httptest.NewRequest(http.MethodPost, "/api/focus-areas", bytes.NewBufferString(tt.body)))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if inv.calls != 0 {
				t.Errorf("invalidations = %d, want 0", inv.calls)
			}
		})
	}
}

func TestFocusAreaHandler_GetProgress(t *testing.T) {
	repo := &mockFocusAreaRepo{
		listFn: func(ctx context.Context) ([]model.FocusArea, error) {
			return []model.FocusArea{
				{
					ID: "a1", Name: "Railways", Status: model.FocusAreaActive,
					Articles: []model.FocusAreaArticle{
						{Title: "A", QualityStatus: "FA"},
						{Title: "B", QualityStatus: "GA"},
						{Title: "C", QualityStatus: "Stub"},
					},
				},
				{ID: "a2", Name: "Empty", Status: model.FocusAreaPlanned},
			}, nil
		},
	}
	h := NewFocusAreaHandler(repo, testCollectionOptions(&countingInvalidator{}))

	w := httptest.NewRecorder()
	h.GetProgress(w, httptest.NewRequest(http.MethodGet, "/api/focus-areas/progress", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody[[]focusAreaProgressResponse](t, w)
	if len(body) != 2 {
		t.Fatalf("got %d entries, want 2", len(body))
	}
	if body[0].TotalArticles != 3 || body[0].CompletedArticles != 2 || body[0].ProgressPercent != 67 {
		t.Errorf("progress[0] = %+v", body[0])
	}
	if body[1].ProgressPercent != 0 || body[1].Area.Articles == nil {
		t.Errorf("progress[1] = %+v, want 0%% with empty articles", body[1])
	}
}

func TestFocusAreaHandler_ListFocusAreas_RepoError(t *testing.T) {
	repo := &mockFocusAreaRepo{
		listFn: func(ctx context.Context) ([]model.FocusArea, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewFocusAreaHandler(repo, testCollectionOptions(&countingInvalidator{}))

	w := httptest.NewRecorder()
	h.ListFocusAreas(w, httptest.NewRequest(http.MethodGet, "/api/focus-areas", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestFocusAreaHandler_DeleteFocusArea_NotFound(t *testing.T) {
	repo := &mockFocusAreaRepo{
		deleteFn: func(ctx context.Context, id string) error { return repository.ErrNotFound },
	}
	inv := &countingInvalidator{}
	h := NewFocusAreaHandler(repo, testCollectionOptions(inv))

	w := httptest.NewRecorder()
	h.DeleteFocusArea(w, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/focus-areas/x", nil), "id", "x"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeFocusAreaNotFound {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeFocusAreaNotFound)
	}
	if inv.calls != 0 {
		t.Errorf("invalidations = %d, want 0", inv.calls)
	}
}
