package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
)

// --- モック定義 ---

type mockDashboardService struct {
	getDashboardFn func(ctx context.Context, username string) (*model.EditorDashboard, error)
	forceRefreshFn func(ctx context.Context, username string) (*model.EditorDashboard, error)
}

func (m *mockDashboardService) GetDashboard(ctx context.Context, username string) (*model.EditorDashboard, error) {
	if m.getDashboardFn != nil {
		return m.getDashboardFn(ctx, username)
	}
	return &model.EditorDashboard{User: model.WikiUser{Username: username}}, nil
}

func (m *mockDashboardService) ForceRefresh(ctx context.Context, username string) (*model.EditorDashboard, error) {
	if m.forceRefreshFn != nil {
		return m.forceRefreshFn(ctx, username)
	}
	return &model.EditorDashboard{User: model.WikiUser{Username: username}}, nil
}

type mockContributionRepo struct {
	getFn func(ctx context.Context, username string) ([]model.Contribution, error)
	limit int
}

func (m *mockContributionRepo) GetRecentContributions(ctx context.Context, username string) ([]model.Contribution, error) {
	if m.getFn != nil {
		return m.getFn(ctx, username)
	}
	return nil, nil
}

func (m *mockContributionRepo) ReloadContributions(ctx context.Context, username string) ([]model.Contribution, error) {
	return m.GetRecentContributions(ctx, username)
}

func (m *mockContributionRepo) Limit() int {
	if m.limit == 0 {
		return 50
	}
	return m.limit
}

func (m *mockContributionRepo) Invalidate(username string) {}

type mockDraftRepo struct {
	listFn     func(ctx context.Context) ([]model.Draft, error)
	findByIDFn func(ctx context.Context, id string) (*model.Draft, error)
	createFn   func(ctx context.Context, d *model.Draft) error
	updateFn   func(ctx context.Context, d *model.Draft) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockDraftRepo) List(ctx context.Context) ([]model.Draft, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockDraftRepo) FindByID(ctx context.Context, id string) (*model.Draft, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDraftRepo) Create(ctx context.Context, d *model.Draft) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}

func (m *mockDraftRepo) Update(ctx context.Context, d *model.Draft) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, d)
	}
	return nil
}

func (m *mockDraftRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockTaskRepo struct {
	listFn     func(ctx context.Context) ([]model.Task, error)
	findByIDFn func(ctx context.Context, id string) (*model.Task, error)
	createFn   func(ctx context.Context, t *model.Task) error
	updateFn   func(ctx context.Context, t *model.Task) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockTaskRepo) List(ctx context.Context) ([]model.Task, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, t *model.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, t *model.Task) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, t)
	}
	return nil
}

func (m *mockTaskRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTaskRepo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type mockFocusAreaRepo struct {
	listFn   func(ctx context.Context) ([]model.FocusArea, error)
	createFn func(ctx context.Context, a *model.FocusArea) error
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockFocusAreaRepo) List(ctx context.Context) ([]model.FocusArea, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockFocusAreaRepo) FindByID(ctx context.Context, id string) (*model.FocusArea, error) {
	return nil, nil
}

func (m *mockFocusAreaRepo) Create(ctx context.Context, a *model.FocusArea) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockFocusAreaRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockCOIRepo struct {
	listFn   func(ctx context.Context) ([]model.COIDisclosure, error)
	createFn func(ctx context.Context, d *model.COIDisclosure) error
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCOIRepo) List(ctx context.Context) ([]model.COIDisclosure, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCOIRepo) Create(ctx context.Context, d *model.COIDisclosure) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}

func (m *mockCOIRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockLinkValidator はhttps以外のURLを拒否する。
type mockLinkValidator struct{}

func (mockLinkValidator) ValidateLink(rawURL string) error {
	if !strings.HasPrefix(rawURL, "https://") {
		return errors.New("scheme not allowed")
	}
	return nil
}

// mockSanitizer は山括弧を取り除き前後の空白を削る。
type mockSanitizer struct{}

func (mockSanitizer) Sanitize(raw string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<script>", "", "</script>", "")
	return strings.TrimSpace(r.Replace(raw))
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateAll() { c.calls++ }

// --- テストヘルパー ---

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// testCollectionOptions は固定ID・固定時刻のCollectionOptionsを返す。
func testCollectionOptions(inv *countingInvalidator) CollectionOptions {
	return CollectionOptions{
		Links:       mockLinkValidator{},
		Sanitizer:   mockSanitizer{},
		Invalidator: inv,
		NewID:       func() string { return "new-id" },
		Now:         func() time.Time { return fixedNow },
	}
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディを任意の型にデコードするヘルパー。
func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v\nraw: %s", err, w.Body.String())
	}
	return v
}
