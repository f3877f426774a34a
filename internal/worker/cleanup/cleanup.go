// Package cleanup は完了タスクの自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超えて完了状態のタスクをcronスケジュールに従って削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hitoshi/wikidash/internal/metrics"
)

// DefaultSchedule は毎日3時（ローカル時刻）に実行するcron式。
const DefaultSchedule = "0 3 * * *"

// TaskPurger は完了タスクの一括削除を抽象化するインターフェース。
// repository.TaskRepositoryが満たす。
type TaskPurger interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した完了タスクの自動削除ジョブ。
// 削除条件は完了日時のみで決まるため、何度実行しても結果は変わらない。
type CleanupJob struct {
	purger        TaskPurger
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	now           func() time.Time
	RetentionDays int // 完了タスクの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はデフォルトの90日を使う。
func NewCleanupJob(purger TaskPurger, logger *slog.Logger, m metrics.MetricsCollector, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &CleanupJob{
		purger:        purger,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
		RetentionDays: retentionDays,
	}
}

// Cutoff はnow時点の削除基準日時を返す。これより前に完了したタスクが削除対象。
func (j *CleanupJob) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -j.RetentionDays)
}

// Run は保持期間を超過した完了タスクを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := j.Cutoff(start)

	deletedCount, err := j.purger.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("タスククリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("タスククリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordTasksPurged(int(deletedCount))

	j.logger.Info("タスククリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)

	return nil
}

// ParseSchedule は5フィールド（分 時 日 月 曜日）のcron式を解析する。
// 空文字列の場合はDefaultScheduleを使う。
func ParseSchedule(expr string) (cron.Schedule, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron式 %q の解析に失敗: %w", expr, err)
	}
	return sched, nil
}

// Start は起動直後に1回実行し、その後scheduleに従って繰り返す。
// コンテキストがキャンセルされるまで継続する。
func (j *CleanupJob) Start(ctx context.Context, schedule cron.Schedule) {
	j.runLogged(ctx)

	for {
		now := j.now()
		next := schedule.Next(now)
		if next.IsZero() {
			j.logger.Warn("cron式に一致する次回実行時刻がないためクリーンアップを停止します")
			return
		}
		j.logger.Info("次回のタスククリーンアップを予約しました", slog.Time("next_run_at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}
}
