package repository

import (
	"context"
	"slices"

	"github.com/hitoshi/wikidash/internal/cache"
	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/wikiapi"
)

// キャッシュ名（メトリクスのラベル）
const (
	CacheProfile       = "profile"
	CacheContributions = "contributions"
	CacheStats         = "stats"
)

// CachedProfileRepo は上流のプロフィールをユーザー名単位でキャッシュする。
// 取得に失敗した場合はキャッシュを変更せずエラーをそのまま返す。
type CachedProfileRepo struct {
	source  ProfileSource
	cache   *cache.TTL[string, *model.WikiUser]
	metrics metrics.MetricsCollector
}

// NewCachedProfileRepo はCachedProfileRepoを生成する。
func NewCachedProfileRepo(source ProfileSource, c *cache.TTL[string, *model.WikiUser], m metrics.MetricsCollector) *CachedProfileRepo {
	return &CachedProfileRepo{source: source, cache: c, metrics: m}
}

func (r *CachedProfileRepo) GetProfile(ctx context.Context, username string) (*model.WikiUser, error) {
	if u, ok := r.cache.Get(username); ok {
		r.metrics.RecordCacheHit(CacheProfile)
		return u, nil
	}
	r.metrics.RecordCacheMiss(CacheProfile)
	return r.ReloadProfile(ctx, username)
}

func (r *CachedProfileRepo) ReloadProfile(ctx context.Context, username string) (*model.WikiUser, error) {
	u, err := r.source.GetUserProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	r.cache.Set(username, u)
	return u, nil
}

func (r *CachedProfileRepo) Invalidate(username string) {
	r.cache.Invalidate(username)
}

// TextCleaner は編集要約からマークアップを除去する。
type TextCleaner interface {
	Sanitize(raw string) string
}

// CachedContributionRepo は上流の編集レコードを分類し、分類済みの投稿履歴をキャッシュする。
type CachedContributionRepo struct {
	source      EditSource
	classifier  model.ContributionClassifier
	cleaner     TextCleaner
	articleBase string
	limit       int
	cache       *cache.TTL[string, []model.Contribution]
	metrics     metrics.MetricsCollector
}

// ContributionRepoConfig はCachedContributionRepoの設定。
type ContributionRepoConfig struct {
	// ArticleBase は記事URLのベース（例: https://en.wikipedia.org/wiki/）。
	ArticleBase string
	// Limit は1回に取得する編集の件数。
	Limit int
}

// NewCachedContributionRepo はCachedContributionRepoを生成する。
// cleanerがnilの場合は編集要約をそのまま使う。
func NewCachedContributionRepo(
	source EditSource,
	classifier model.ContributionClassifier,
	cleaner TextCleaner,
	cfg ContributionRepoConfig,
	c *cache.TTL[string, []model.Contribution],
	m metrics.MetricsCollector,
) *CachedContributionRepo {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	return &CachedContributionRepo{
		source:      source,
		classifier:  classifier,
		cleaner:     cleaner,
		articleBase: cfg.ArticleBase,
		limit:       cfg.Limit,
		cache:       c,
		metrics:     m,
	}
}

// GetRecentContributions は分類済みの直近の投稿を返す。
// 返すスライスは呼び出し元が変更してよいコピー。
func (r *CachedContributionRepo) GetRecentContributions(ctx context.Context, username string) ([]model.Contribution, error) {
	if cs, ok := r.cache.Get(username); ok {
		r.metrics.RecordCacheHit(CacheContributions)
		return slices.Clone(cs), nil
	}
	r.metrics.RecordCacheMiss(CacheContributions)
	return r.ReloadContributions(ctx, username)
}

// ReloadContributions は上流から取得し直して分類し、成功した場合のみキャッシュを置き換える。
func (r *CachedContributionRepo) ReloadContributions(ctx context.Context, username string) ([]model.Contribution, error) {
	edits, err := r.source.GetRecentEdits(ctx, username, r.limit)
	if err != nil {
		return nil, err
	}

	contributions := make([]model.Contribution, 0, len(edits))
	for _, e := range edits {
		if r.cleaner != nil {
			e.Comment = r.cleaner.Sanitize(e.Comment)
		}
		contributions = append(contributions,
			model.NewContribution(e, wikiapi.ArticleURL(r.articleBase, e.Title), r.classifier))
	}

	r.cache.Set(username, contributions)
	return slices.Clone(contributions), nil
}

func (r *CachedContributionRepo) Limit() int {
	return r.limit
}

func (r *CachedContributionRepo) Invalidate(username string) {
	r.cache.Invalidate(username)
}

// CachedStatsRepo は上流の編集数統計をキャッシュする。
type CachedStatsRepo struct {
	source  StatsSource
	cache   *cache.TTL[string, *model.EditorStats]
	metrics metrics.MetricsCollector
}

// NewCachedStatsRepo はCachedStatsRepoを生成する。
func NewCachedStatsRepo(source StatsSource, c *cache.TTL[string, *model.EditorStats], m metrics.MetricsCollector) *CachedStatsRepo {
	return &CachedStatsRepo{source: source, cache: c, metrics: m}
}

func (r *CachedStatsRepo) GetEditorStats(ctx context.Context, username string) (*model.EditorStats, error) {
	if s, ok := r.cache.Get(username); ok {
		r.metrics.RecordCacheHit(CacheStats)
		return s, nil
	}
	r.metrics.RecordCacheMiss(CacheStats)
	return r.ReloadEditorStats(ctx, username)
}

func (r *CachedStatsRepo) ReloadEditorStats(ctx context.Context, username string) (*model.EditorStats, error) {
	s, err := r.source.GetEditorStats(ctx, username)
	if err != nil {
		return nil, err
	}
	r.cache.Set(username, s)
	return s, nil
}

func (r *CachedStatsRepo) Invalidate(username string) {
	r.cache.Invalidate(username)
}

// compile-time interface checks
var (
	_ ProfileRepository      = (*CachedProfileRepo)(nil)
	_ ContributionRepository = (*CachedContributionRepo)(nil)
	_ StatsRepository        = (*CachedStatsRepo)(nil)
)
