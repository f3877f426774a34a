package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/middleware"
	"github.com/hitoshi/wikidash/internal/model"
)

type mockHealthChecker struct {
	err error
}

func (m mockHealthChecker) PingContext(ctx context.Context) error { return m.err }

// newTestRouter はモックを組み込んだルーターを返す。
func newTestRouter(t *testing.T, modify func(*RouterDeps)) http.Handler {
	t.Helper()

	deps := &RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		CORSAllowedOrigin: "http://localhost:3000",
		Dashboard: &mockDashboardService{
			getDashboardFn: func(ctx context.Context, username string) (*model.EditorDashboard, error) {
				return sampleDashboard(username), nil
			},
			forceRefreshFn: func(ctx context.Context, username string) (*model.EditorDashboard, error) {
				return sampleDashboard(username), nil
			},
		},
		Contributions:  &mockContributionRepo{},
		Drafts:         &mockDraftRepo{},
		Tasks:          &mockTaskRepo{},
		FocusAreas:     &mockFocusAreaRepo{},
		COIDisclosures: &mockCOIRepo{},
		Collection:     testCollectionOptions(&countingInvalidator{}),
	}
	if modify != nil {
		modify(deps)
	}
	return NewRouter(deps)
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantStatus int
		wantDB     string
	}{
		{"DB未設定", nil, http.StatusOK, "skipped"},
		{"DB正常", mockHealthChecker{}, http.StatusOK, "ok"},
		{"DB到達不可", mockHealthChecker{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, func(d *RouterDeps) { d.HealthChecker = tt.checker })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody[healthResponse](t, w)
			if body.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", body.Database, tt.wantDB)
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.RecordCacheHit("profile")

	router := newTestRouter(t, func(d *RouterDeps) { d.MetricsHandler = metrics.Handler(reg) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `wikidash_cache_hit_total{cache="profile"} 1`) {
		t.Errorf("metrics output missing cache hit counter:\n%s", w.Body.String())
	}
}

func TestRouter_UnknownRouteReturnsJSON404(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", body["code"])
	}
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := map[string]string{
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
		"Access-Control-Allow-Origin": "http://localhost:3000",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/tasks", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/api/dashboard/Jimbo_Wales", "", http.StatusOK},
		{http.MethodPost, "/api/dashboard/Jimbo_Wales/refresh", "", http.StatusOK},
		{http.MethodGet, "/api/contributions/Jimbo_Wales", "", http.StatusOK},
		{http.MethodGet, "/api/drafts", "", http.StatusOK},
		{http.MethodGet, "/api/drafts/summary", "", http.StatusOK},
		{http.MethodPost, "/api/drafts", `{"title": "Draft:X"}`, http.StatusCreated},
		{http.MethodGet, "/api/drafts/d1", "", http.StatusNotFound},
		{http.MethodDelete, "/api/drafts/d1", "", http.StatusNoContent},
		{http.MethodGet, "/api/tasks?sort=priority", "", http.StatusOK},
		{http.MethodPost, "/api/tasks", `{"title": "T"}`, http.StatusCreated},
		{http.MethodPut, "/api/tasks/t1", `{"title": "T"}`, http.StatusNotFound},
		{http.MethodDelete, "/api/tasks/t1", "", http.StatusNoContent},
		{http.MethodGet, "/api/focus-areas", "", http.StatusOK},
		{http.MethodGet, "/api/focus-areas/progress", "", http.StatusOK},
		{http.MethodPost, "/api/focus-areas", `{"name": "F"}`, http.StatusCreated},
		{http.MethodDelete, "/api/focus-areas/f1", "", http.StatusNoContent},
		{http.MethodGet, "/api/coi-disclosures", "", http.StatusOK},
		{http.MethodPost, "/api/coi-disclosures", `{"article_title": "A", "relationship": "R"}`, http.StatusCreated},
		{http.MethodDelete, "/api/coi-disclosures/c1", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var body *bytes.Buffer
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			} else {
				body = &bytes.Buffer{}
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, body))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouter_RefreshRateLimitIsStricter(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(600, 1))
	defer rl.Stop()

	router := newTestRouter(t, func(d *RouterDeps) { d.RateLimiter = rl })

	post := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/dashboard/Alice/refresh", nil))
		return w.Code
	}

	if got := post(); got != http.StatusOK {
		t.Fatalf("first refresh status = %d, want %d", got, http.StatusOK)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Fatalf("second refresh status = %d, want %d", got, http.StatusTooManyRequests)
	}

	// 通常の参照はリフレッシュの制限を受けない
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/Alice", nil))
	if w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_HealthBypassesRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1, 1))
	defer rl.Stop()

	router := newTestRouter(t, func(d *RouterDeps) { d.RateLimiter = rl })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first api status = %d, want %d", w.Code, http.StatusOK)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second api status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}
