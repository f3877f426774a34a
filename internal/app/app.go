package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/wikidash/internal/cache"
	"github.com/hitoshi/wikidash/internal/classifier"
	"github.com/hitoshi/wikidash/internal/config"
	"github.com/hitoshi/wikidash/internal/dashboard"
	"github.com/hitoshi/wikidash/internal/database"
	"github.com/hitoshi/wikidash/internal/handler"
	"github.com/hitoshi/wikidash/internal/logger"
	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/middleware"
	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/security"
	"github.com/hitoshi/wikidash/internal/wikiapi"
	"github.com/hitoshi/wikidash/internal/worker/cleanup"
	"github.com/hitoshi/wikidash/internal/worker/refresh"
)

const (
	// cacheSweepInterval は各キャッシュの期限切れエントリを掃除する間隔。
	cacheSweepInterval = time.Minute
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを作り直す
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("wiki_api_url", cfg.WikiAPIURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// services はserveモードで組み立てる依存関係一式。
type services struct {
	router    http.Handler
	refresher *refresh.Scheduler
	cleanup   *cleanup.CleanupJob
	closers   []func()
}

// close はレートリミッターとキャッシュのバックグラウンド処理を停止する。
func (s *services) close() {
	for _, c := range s.closers {
		c()
	}
}

// buildServices は設定とDB接続から全依存関係をワイヤリングする。
// DBへの接続確認は行わない。
func buildServices(cfg *config.Config, db *sql.DB, reg *prometheus.Registry, log *slog.Logger) *services {
	s := &services{}

	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. リポジトリの初期化
	draftRepo := repository.NewPostgresDraftRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	focusAreaRepo := repository.NewPostgresFocusAreaRepo(db)
	coiRepo := repository.NewPostgresCOIDisclosureRepo(db)

	// 3. セキュリティサービスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewTextSanitizer()

	// 4. 上流APIクライアントの初期化（MediaWikiとXToolsで同じリミッターを共有する）
	upstreamHTTP := urlGuard.NewUpstreamClient(cfg.UpstreamTimeout)
	clientOpts := wikiapi.Options{
		UserAgent: cfg.UserAgent,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.UpstreamRatePerSec), max(1, int(cfg.UpstreamRatePerSec))),
		Metrics:   collector,
	}
	wikiClient := wikiapi.NewClient(upstreamHTTP, log, cfg.WikiAPIURL, clientOpts)
	xtoolsClient := wikiapi.NewXToolsClient(upstreamHTTP, log, cfg.XToolsAPIURL, cfg.WikiProject, clientOpts)

	// 5. キャッシュ付き上流リポジトリの初期化
	profileCache := cache.New[string, *model.WikiUser](cfg.ProfileCacheTTL)
	contributionCache := cache.New[string, []model.Contribution](cfg.ContributionCacheTTL)
	statsCache := cache.New[string, *model.EditorStats](cfg.StatsCacheTTL)
	dashboardCache := cache.New[string, *model.EditorDashboard](cfg.DashboardCacheTTL)

	profileCache.StartJanitor(cacheSweepInterval)
	contributionCache.StartJanitor(cacheSweepInterval)
	statsCache.StartJanitor(cacheSweepInterval)
	dashboardCache.StartJanitor(cacheSweepInterval)
	s.closers = append(s.closers, profileCache.Stop, contributionCache.Stop, statsCache.Stop, dashboardCache.Stop)

	contributionClassifier := classifier.New(classifier.Config{
		MajorExpansionBytes: cfg.MajorExpansionBytes,
		RevertMarkers:       cfg.RevertTagMarkers,
	})

	profiles := repository.NewCachedProfileRepo(wikiClient, profileCache, collector)
	contributions := repository.NewCachedContributionRepo(
		wikiClient, contributionClassifier, sanitizer,
		repository.ContributionRepoConfig{ArticleBase: cfg.WikiBaseURL, Limit: cfg.ContributionLimit},
		contributionCache, collector,
	)
	stats := repository.NewCachedStatsRepo(xtoolsClient, statsCache, collector)

	// 6. ダッシュボードの初期化
	dashboardRepo := dashboard.NewRepository(dashboard.Sources{
		Profiles:       profiles,
		Contributions:  contributions,
		Stats:          stats,
		Drafts:         draftRepo,
		Tasks:          taskRepo,
		FocusAreas:     focusAreaRepo,
		COIDisclosures: coiRepo,
	}, dashboardCache, collector, log)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRefresh))
	s.closers = append(s.closers, rateLimiter.Stop)

	s.router = handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		Dashboard:     dashboardRepo,
		Contributions: contributions,

		Drafts:         draftRepo,
		Tasks:          taskRepo,
		FocusAreas:     focusAreaRepo,
		COIDisclosures: coiRepo,
		Collection: handler.CollectionOptions{
			Links:       urlGuard,
			Sanitizer:   sanitizer,
			Invalidator: dashboardRepo,
		},
	})

	// 8. バックグラウンドジョブの初期化
	s.refresher = refresh.NewScheduler(dashboardRepo, cfg.WatchedUsers, log, collector, cfg.RefreshMaxConcurrent)
	s.cleanup = cleanup.NewCleanupJob(taskRepo, log, collector, cfg.TaskRetentionDays)

	return s
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーと
// 事前更新スケジューラ・タスククリーンアップを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	cleanupSchedule, err := cleanup.ParseSchedule(cfg.CleanupSchedule)
	if err != nil {
		return fmt.Errorf("invalid CLEANUP_SCHEDULE: %w", err)
	}

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	reg := prometheus.NewRegistry()
	svc := buildServices(cfg, db, reg, slog.Default())
	defer svc.close()

	// 3. HTTPサーバーの構築
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      svc.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. バックグラウンドジョブの起動
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.refresher.Start(ctx, cfg.RefreshInterval)
	}()
	go func() {
		defer wg.Done()
		svc.cleanup.Start(ctx, cleanupSchedule)
	}()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Int("watched_users", len(svc.refresher.Users())),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down API server...")
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("server listen error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	wg.Wait()

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
