package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

// Result はダッシュボード更新結果の分類。
type Result int

const (
	// ResultOK は更新成功。
	ResultOK Result = iota
	// ResultBackoff は一時的な失敗で、バックオフ後に再試行する。
	ResultBackoff
	// ResultStop はユーザーが存在しないなど、再試行しても回復しない失敗。
	ResultStop
	// ResultCanceled はシャットダウンによる中断。失敗として数えない。
	ResultCanceled
)

const (
	// initialBackoff は指数バックオフの初回遅延（30分）。
	initialBackoff = 30 * time.Minute
	// maxBackoff は指数バックオフの最大遅延（12時間）。
	maxBackoff = 12 * time.Hour
)

// ClassifyError は更新時のエラーを分類する。
func ClassifyError(err error) Result {
	if err == nil {
		return ResultOK
	}
	if errors.Is(err, context.Canceled) {
		return ResultCanceled
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
		return ResultStop
	}
	return ResultBackoff
}

// failureReason はメトリクスのラベルに使う失敗理由を返す。
func failureReason(err error) string {
	var apiErr *model.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound:
		return "user_not_found"
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// CalculateBackoff は連続エラー回数に基づいて指数バックオフ遅延を計算する。
// 初回30分、2倍ずつ増加、最大12時間。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// UserState は監視対象ユーザーごとの更新状態。
type UserState struct {
	ConsecutiveErrors int
	NextAttemptAt     time.Time
	LastError         string
	Stopped           bool
}

// due はnow時点で更新対象かを返す。
func (s UserState) due(now time.Time) bool {
	return !s.Stopped && !now.Before(s.NextAttemptAt)
}

// applySuccess は成功時に連続エラー回数とエラーメッセージをリセットする。
func (s *UserState) applySuccess() {
	s.ConsecutiveErrors = 0
	s.LastError = ""
	s.NextAttemptAt = time.Time{}
}

// applyBackoff は連続エラー回数をインクリメントし、次回の更新時刻を遅らせる。
func (s *UserState) applyBackoff(now time.Time, reason string) {
	s.ConsecutiveErrors++
	s.LastError = reason
	s.NextAttemptAt = now.Add(CalculateBackoff(s.ConsecutiveErrors - 1))
}

// applyStop はユーザーの更新を停止する。
func (s *UserState) applyStop(reason string) {
	s.ConsecutiveErrors++
	s.LastError = reason
	s.Stopped = true
}
