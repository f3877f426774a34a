// Package dashboard は編集者ダッシュボードのスナップショットを組み立てる。
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/wikidash/internal/cache"
	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/summary"
)

// CacheName はダッシュボードキャッシュのメトリクスラベル。
const CacheName = "dashboard"

// Sources はスナップショットの構築に使う取得元の一覧。
type Sources struct {
	Profiles       repository.ProfileRepository
	Contributions  repository.ContributionRepository
	Stats          repository.StatsRepository
	Drafts         repository.DraftRepository
	Tasks          repository.TaskRepository
	FocusAreas     repository.FocusAreaRepository
	COIDisclosures repository.COIDisclosureRepository
}

// Repository はユーザー名単位でダッシュボードのスナップショットを構築・キャッシュする。
// 返すスナップショットは共有されるため、呼び出し元は変更してはならない。
type Repository struct {
	src     Sources
	cache   *cache.TTL[string, *model.EditorDashboard]
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time

	// generationはInvalidateAllのたびに進み、構築中に世代が変わったスナップショットは保存しない
	mu         sync.Mutex
	generation uint64
}

// upstreamFetchers は上流データの取得方法の組。
type upstreamFetchers struct {
	profile       func(ctx context.Context, username string) (*model.WikiUser, error)
	stats         func(ctx context.Context, username string) (*model.EditorStats, error)
	contributions func(ctx context.Context, username string) ([]model.Contribution, error)
}

// NewRepository はRepositoryを生成する。
func NewRepository(src Sources, c *cache.TTL[string, *model.EditorDashboard], m metrics.MetricsCollector, logger *slog.Logger) *Repository {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Repository{
		src:     src,
		cache:   c,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// GetDashboard は有効期間内のスナップショットがあればそれを返し、なければ再構築する。
func (r *Repository) GetDashboard(ctx context.Context, username string) (*model.EditorDashboard, error) {
	if d, ok := r.cache.Get(username); ok {
		r.metrics.RecordCacheHit(CacheName)
		return d, nil
	}
	r.metrics.RecordCacheMiss(CacheName)
	return r.RefreshDashboard(ctx, username)
}

// RefreshDashboard はプロフィール・編集数統計・投稿履歴を並行して取得し、
// ローカルのコレクションと合わせて新しいスナップショットを構築する。
// 上流のいずれかが失敗した場合はそのエラーをそのまま返し、既存のスナップショットは変更しない。
func (r *Repository) RefreshDashboard(ctx context.Context, username string) (*model.EditorDashboard, error) {
	return r.build(ctx, username, upstreamFetchers{
		profile:       r.src.Profiles.GetProfile,
		stats:         r.src.Stats.GetEditorStats,
		contributions: r.src.Contributions.GetRecentContributions,
	})
}

// ForceRefresh は上流データのキャッシュを参照せずに取得し直してスナップショットを再構築する。
// 上流のキャッシュは取得に成功したものだけが置き換わり、失敗した場合は既存のエントリとスナップショットが残る。
func (r *Repository) ForceRefresh(ctx context.Context, username string) (*model.EditorDashboard, error) {
	return r.build(ctx, username, upstreamFetchers{
		profile:       r.src.Profiles.ReloadProfile,
		stats:         r.src.Stats.ReloadEditorStats,
		contributions: r.src.Contributions.ReloadContributions,
	})
}

func (r *Repository) build(ctx context.Context, username string, fetch upstreamFetchers) (*model.EditorDashboard, error) {
	start := r.now()
	generation := r.currentGeneration()

	var (
		user          *model.WikiUser
		stats         *model.EditorStats
		contributions []model.Contribution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = fetch.profile(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = fetch.stats(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		contributions, err = fetch.contributions(gctx, username)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("ダッシュボードの更新に失敗しました",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	drafts, err := r.src.Drafts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	tasks, err := r.src.Tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	areas, err := r.src.FocusAreas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load focus areas: %w", err)
	}
	disclosures, err := r.src.COIDisclosures.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load COI disclosures: %w", err)
	}

	d := &model.EditorDashboard{
		User: *user,
		Stats: model.DashboardStats{
			EditCount:        stats.TotalEditCount,
			LiveEditCount:    stats.LiveEditCount,
			DeletedEditCount: stats.DeletedEditCount,
			Contributions:    summary.SummarizeContributions(contributions),
			Drafts:           summary.SummarizeDrafts(drafts),
			OpenTasks:        summary.CountOpenTasks(tasks),
			ActiveFocusAreas: summary.CountActiveFocusAreas(areas),
		},
		Drafts:              drafts,
		RecentContributions: contributions,
		FocusAreas:          areas,
		Tasks:               summary.SortTasksByPriority(tasks),
		COIDisclosures:      disclosures,
		LastUpdated:         r.now(),
	}

	if !r.store(username, d, generation) {
		r.logger.Debug("構築中にコレクションが変更されたためスナップショットを保存しません",
			slog.String("username", username),
		)
	}

	r.logger.Info("ダッシュボードを更新しました",
		slog.String("username", username),
		slog.Int("contributions", len(contributions)),
		slog.Float64("duration_ms", float64(r.now().Sub(start).Milliseconds())),
	)
	return d, nil
}

// InvalidateAll は全ユーザーのスナップショットを破棄する。
// ローカルのコレクションが変更されたときに呼び出す。
// 呼び出し前に読み込みを始めた構築処理の結果も保存されなくなる。
func (r *Repository) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.cache.Clear()
}

func (r *Repository) currentGeneration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// store は世代が変わっていない場合のみスナップショットを保存する。
func (r *Repository) store(username string, d *model.EditorDashboard, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != generation {
		return false
	}
	r.cache.Set(username, d)
	return true
}
