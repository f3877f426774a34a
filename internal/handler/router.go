package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/wikidash/internal/middleware"
	"github.com/hitoshi/wikidash/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ダッシュボード
	Dashboard     DashboardServiceInterface
	Contributions repository.ContributionRepository

	// ローカルコレクション
	Drafts         repository.DraftRepository
	Tasks          repository.TaskRepository
	FocusAreas     repository.FocusAreaRepository
	COIDisclosures repository.COIDisclosureRepository
	Collection     CollectionOptions
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → SecurityHeaders → CORS → Logging → Recovery → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, notFoundRouteError())
	})

	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Contributions)
	draftHandler := NewDraftHandler(deps.Drafts, deps.Collection)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Collection)
	focusAreaHandler := NewFocusAreaHandler(deps.FocusAreas, deps.Collection)
	coiHandler := NewCOIDisclosureHandler(deps.COIDisclosures, deps.Collection)

	// --- レート制限対象外のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/api/dashboard/{username}", func(r chi.Router) {
			r.Get("/", dashboardHandler.GetDashboard)
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh", dashboardHandler.RefreshDashboard)
			} else {
				r.Post("/refresh", dashboardHandler.RefreshDashboard)
			}
		})

		r.Get("/api/contributions/{username}", dashboardHandler.ListContributions)

		r.Route("/api/drafts", func(r chi.Router) {
			r.Get("/", draftHandler.ListDrafts)
			r.Post("/", draftHandler.CreateDraft)
			r.Get("/summary", draftHandler.GetDraftSummary)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", draftHandler.GetDraft)
				r.Put("/", draftHandler.UpdateDraft)
				r.Delete("/", draftHandler.DeleteDraft)
			})
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})

		r.Route("/api/focus-areas", func(r chi.Router) {
			r.Get("/", focusAreaHandler.ListFocusAreas)
			r.Post("/", focusAreaHandler.CreateFocusArea)
			r.Get("/progress", focusAreaHandler.GetProgress)
			r.Delete("/{id}", focusAreaHandler.DeleteFocusArea)
		})

		r.Route("/api/coi-disclosures", func(r chi.Router) {
			r.Get("/", coiHandler.ListDisclosures)
			r.Post("/", coiHandler.CreateDisclosure)
			r.Delete("/{id}", coiHandler.DeleteDisclosure)
		})
	})

	return r
}
