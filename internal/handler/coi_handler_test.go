package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
)

func TestCOIDisclosureHandler_CreateDisclosure(t *testing.T) {
	explicit := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		body            string
		wantDisclosedAt time.Time
	}{
		{
			name:            "開示日時の省略時は登録時刻",
			body:            `{"article_title": "Acme Corp", "relationship": "Employee"}`,
			wantDisclosedAt: fixedNow,
		},
		{
			name:            "開示日時を指定",
			body:            `{"article_title": "Acme Corp", "relationship": "Employee", "disclosed_at": "2025-12-24T00:00:00Z", "disclosure_url": "https://en.wikipedia.org/wiki/User:Example"}`,
			wantDisclosedAt: explicit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *model.COIDisclosure
			repo := &mockCOIRepo{
				createFn: func(ctx context.Context, d *model.COIDisclosure) error {
					created = d
					return nil
				},
			}
			inv := &countingInvalidator{}
			h := NewCOIDisclosureHandler(repo, testCollectionOptions(inv))

			w := httptest.NewRecorder()
			h.CreateDisclosure(w, httptest.NewRequest(http.MethodPost, "/api/coi-disclosures", bytes.NewBufferString(tt.body)))

			if w.Code != http.StatusCreated {
				t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
			}
			if created.ID != "new-id" {
				t.Errorf("ID = %q, want new-id", created.ID)
			}
			if !created.DisclosedAt.Equal(tt.wantDisclosedAt) {
				t.Errorf("DisclosedAt = %v, want %v", created.DisclosedAt, tt.wantDisclosedAt)
			}
			if inv.calls != 1 {
				t.Errorf("invalidations = %d, want 1", inv.calls)
			}
		})
	}
}

func TestCOIDisclosureHandler_CreateDisclosure_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"記事名なし", `{"relationship": "Employee"}`},
		{"関係なし", `{"article_title": "Acme Corp", "relationship": "<script></script>"}`},
		{"開示URLが不正", `{"article_title": "Acme Corp", "relationship": "Employee", "disclosure_url": "http://10.0.0.1/"}`},
		{"未知のフィールド", `{"article_title": "Acme Corp", "relationship": "Employee", "extra": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCOIDisclosureHandler(&mockCOIRepo{}, testCollectionOptions(&countingInvalidator{}))

			w := httptest.NewRecorder()
			h.CreateDisclosure(w, httptest.NewRequest(http.MethodPost, "/api/coi-disclosures", bytes.NewBufferString(tt.body)))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCOIDisclosureHandler_ListDisclosures_EmptyIsArray(t *testing.T) {
	h := NewCOIDisclosureHandler(&mockCOIRepo{}, testCollectionOptions(&countingInvalidator{}))

	w := httptest.NewRecorder()
	h.ListDisclosures(w, httptest.NewRequest(http.MethodGet, "/api/coi-disclosures", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestCOIDisclosureHandler_DeleteDisclosure(t *testing.T) {
	tests := []struct {
		name       string
		deleteErr  error
		wantStatus int
	}{
		{"削除成功", nil, http.StatusNoContent},
		{"存在しない", repository.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCOIRepo{
				deleteFn: func(ctx context.Context, id string) error { return tt.deleteErr },
			}
			h := NewCOIDisclosureHandler(repo, testCollectionOptions(&countingInvalidator{}))

			w := httptest.NewRecorder()
			h.DeleteDisclosure(w, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/coi-disclosures/c1", nil), "id", "c1"))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
