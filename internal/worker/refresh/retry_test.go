package refresh

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		consecutiveErrors int
		want              time.Duration
	}{
		{0, 30 * time.Minute},
		{1, time.Hour},
		{2, 2 * time.Hour},
		{3, 4 * time.Hour},
		{4, 8 * time.Hour},
		{5, 12 * time.Hour},
		{20, 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("errors=%d", tt.consecutiveErrors), func(t *testing.T) {
			if got := CalculateBackoff(tt.consecutiveErrors); got != tt.want {
				t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.consecutiveErrors, got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"成功", nil, ResultOK},
		{"ユーザー不在", model.NewUserNotFoundError("Ghost"), ResultStop},
		{"ラップされたユーザー不在", fmt.Errorf("profile: %w", model.NewUserNotFoundError("Ghost")), ResultStop},
		{"上流障害", model.NewUpstreamUnavailableError("wiki", "status 503"), ResultBackoff},
		{"タイムアウト", context.DeadlineExceeded, ResultBackoff},
		{"キャンセル", fmt.Errorf("get: %w", context.Canceled), ResultCanceled},
		{"その他", errors.New("boom"), ResultBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{model.NewUserNotFoundError("Ghost"), "user_not_found"},
		{model.NewUpstreamUnavailableError("xtools", "status 502"), "upstream_unavailable"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserState_Transitions(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var st UserState

	if !st.due(now) {
		t.Fatal("new state should be due")
	}

	st.applyBackoff(now, "first")
	if st.ConsecutiveErrors != 1 || !st.NextAttemptAt.Equal(now.Add(30*time.Minute)) {
		t.Errorf("after first failure: %+v", st)
	}
	if st.due(now.Add(29 * time.Minute)) {
		t.Error("should not be due during backoff")
	}

	st.applyBackoff(now, "second")
	if !st.NextAttemptAt.Equal(now.Add(time.Hour)) {
		t.Errorf("NextAttemptAt = %v, want +1h", st.NextAttemptAt)
	}

	st.applySuccess()
	if st.ConsecutiveErrors != 0 || st.LastError != "" || !st.due(now) {
		t.Errorf("after success: %+v", st)
	}

	st.applyStop("gone")
	if !st.Stopped || st.due(now.Add(24*time.Hour)) {
		t.Errorf("stopped state should never be due: %+v", st)
	}
}
