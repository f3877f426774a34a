// Package refresh は監視対象ユーザーのダッシュボードをバックグラウンドで事前更新する。
// スケジューラとバックオフ戦略を含む。
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/wikiapi"
)

// DashboardRefresher はダッシュボードを上流から再構築するインターフェース。
type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context, username string) (*model.EditorDashboard, error)
}

// Scheduler は監視対象ユーザーの事前更新のスケジューリングと並列制御を行う。
// ティッカーごとに更新時刻を迎えたユーザーを選び、
// semaphoreパターンで最大並列数を制御しながら更新する。
type Scheduler struct {
	refresher      DashboardRefresher
	users          []string
	logger         *slog.Logger
	metrics        metrics.MetricsCollector
	maxConcurrency int
	now            func() time.Time

	mu     sync.Mutex
	states map[string]*UserState
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// ユーザー名は正規化し、重複と空要素を取り除く。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	refresher DashboardRefresher,
	users []string,
	logger *slog.Logger,
	m metrics.MetricsCollector,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	if m == nil {
		m = metrics.Nop{}
	}

	seen := make(map[string]bool, len(users))
	normalized := make([]string, 0, len(users))
	states := make(map[string]*UserState, len(users))
	for _, u := range users {
		name := wikiapi.NormalizeUsername(u)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
		states[name] = &UserState{}
	}

	return &Scheduler{
		refresher:      refresher,
		users:          normalized,
		logger:         logger,
		metrics:        m,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
		states:         states,
	}
}

// Users は監視対象のユーザー名を返す。
func (s *Scheduler) Users() []string {
	out := make([]string, len(s.users))
	copy(out, s.users)
	return out
}

// State はユーザーの現在の更新状態を返す。
func (s *Scheduler) State(username string) (UserState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[username]
	if !ok {
		return UserState{}, false
	}
	return *st, true
}

// Start はinterval間隔のティッカーでスケジューラを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if len(s.users) == 0 {
		s.logger.Info("事前更新の対象ユーザーがいないため、スケジューラを起動しません")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("事前更新スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("user_count", len(s.users)),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("事前更新スケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は更新時刻を迎えたユーザーのダッシュボードを並列で更新する。
// 更新したユーザー数を返す。
func (s *Scheduler) RunOnce(ctx context.Context) int {
	start := s.now()

	due := s.dueUsers(start)
	if len(due) == 0 {
		s.logger.Debug("事前更新の対象ユーザーはいません")
		return 0
	}

	s.logger.Info("事前更新サイクルを開始します",
		slog.Int("user_count", len(due)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

loop:
	for _, username := range due {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			s.refreshUser(ctx, name)
		}(username)
	}

	wg.Wait()

	s.logger.Info("事前更新サイクルが完了しました",
		slog.Int("user_count", len(due)),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	return len(due)
}

func (s *Scheduler) dueUsers(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for _, u := range s.users {
		if s.states[u].due(now) {
			due = append(due, u)
		}
	}
	return due
}

// refreshUser は1ユーザーを更新し、結果に応じて状態とメトリクスを更新する。
func (s *Scheduler) refreshUser(ctx context.Context, username string) {
	_, err := s.refresher.RefreshDashboard(ctx, username)
	result := ClassifyError(err)
	if result == ResultCanceled || (err != nil && ctx.Err() != nil) {
		return
	}

	s.mu.Lock()
	st := s.states[username]
	switch result {
	case ResultOK:
		st.applySuccess()
	case ResultStop:
		st.applyStop(err.Error())
	default:
		st.applyBackoff(s.now(), err.Error())
	}
	snapshot := *st
	s.mu.Unlock()

	switch result {
	case ResultOK:
		s.metrics.RecordRefreshSuccess(username)
	case ResultStop:
		s.metrics.RecordRefreshFailure(username, failureReason(err))
		s.logger.Warn("ユーザーが見つからないため事前更新を停止しました",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	default:
		s.metrics.RecordRefreshFailure(username, failureReason(err))
		s.logger.Error("ダッシュボードの事前更新に失敗しました",
			slog.String("username", username),
			slog.Int("consecutive_errors", snapshot.ConsecutiveErrors),
			slog.Time("next_attempt_at", snapshot.NextAttemptAt),
			slog.String("error", err.Error()),
		)
	}
}
