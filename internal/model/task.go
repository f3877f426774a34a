// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"time"
)

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// Rank は並び替え用の順位を返す。高優先度ほど小さい。
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 0
	case TaskPriorityMedium:
		return 1
	case TaskPriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid は定義済みの優先度かを返す。
func (p TaskPriority) Valid() bool {
	return p.Rank() < 3
}

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

// Valid は定義済みの状態かを返す。
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	default:
		return false
	}
}

// Task は編集者の作業タスクを表す。
// CompletedAtはStatusがcompletedの場合に限り設定される。
type Task struct {
	ID              string
	Title           string
	Description     string
	Priority        TaskPriority
	Status          TaskStatus
	DueDate         *time.Time
	RelatedArticles []string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Validate はタスクの不変条件を検証する。
func (t Task) Validate() error {
	var errs []error
	if t.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if !t.Priority.Valid() {
		errs = append(errs, fmt.Errorf("unknown priority: %q", t.Priority))
	}
	if !t.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status: %q", t.Status))
	}
	if t.Status == TaskCompleted && t.CompletedAt == nil {
		errs = append(errs, errors.New("completed task requires completed_at"))
	}
	if t.Status != TaskCompleted && t.CompletedAt != nil {
		errs = append(errs, errors.New("completed_at is only allowed for completed tasks"))
	}
	return errors.Join(errs...)
}

// WithStatus は状態を変更したタスクのコピーを返す。
// completedへの遷移ではCompletedAtをnowに、それ以外ではnilにする。
func (t Task) WithStatus(status TaskStatus, now time.Time) Task {
	t.Status = status
	if status == TaskCompleted {
		if t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
	} else {
		t.CompletedAt = nil
	}
	return t
}

// TaskFilter はタスク一覧の絞り込み条件。
// nilまたは空のフィールドは条件なしを意味する。
type TaskFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
	Search   string
}
