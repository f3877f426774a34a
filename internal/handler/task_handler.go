package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikidash/internal/model"
	"github.com/hitoshi/wikidash/internal/repository"
	"github.com/hitoshi/wikidash/internal/summary"
)

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	repo repository.TaskRepository
	collectionSupport
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(repo repository.TaskRepository, opts CollectionOptions) *TaskHandler {
	return &TaskHandler{
		repo:              repo,
		collectionSupport: newCollectionSupport(opts),
	}
}

// taskRequest はタスク作成・更新リクエストのボディ。
type taskRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	DueDate         *time.Time `json:"due_date"`
	RelatedArticles []string   `json:"related_articles"`
}

// ListTasks はタスク一覧を返す。
// GET /api/tasks?status=&priority=&q=&sort=priority
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter model.TaskFilter
	if v := query.Get("status"); v != "" {
		status := model.TaskStatus(v)
		if !status.Valid() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("不明なstatusです: "+v))
			return
		}
		filter.Status = &status
	}
	if v := query.Get("priority"); v != "" {
		priority := model.TaskPriority(v)
		if !priority.Valid() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("不明なpriorityです: "+v))
			return
		}
		filter.Priority = &priority
	}
	filter.Search = query.Get("q")

	sortBy := query.Get("sort")
	if sortBy != "" && sortBy != "priority" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("sortにはpriorityのみ指定できます"))
		return
	}

	tasks, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tasks = summary.FilterTasks(tasks, filter)
	if sortBy == "priority" {
		tasks = summary.SortTasksByPriority(tasks)
	}

	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// CreateTask はタスクを登録する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	now := h.now()
	task := h.buildTask(req).WithStatus(taskStatusOrDefault(req.Status), now)
	task.ID = h.newID()
	task.CreatedAt = now

	if err := task.Validate(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	if err := h.repo.Create(r.Context(), &task); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// UpdateTask はタスクを置き換える。
// 完了済みのタスクを完了のまま更新した場合は完了日時を維持する。
// PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTaskNotFoundError(id))
		return
	}

	task := h.buildTask(req)
	task.ID = existing.ID
	task.CreatedAt = existing.CreatedAt
	task.Status = existing.Status
	task.CompletedAt = existing.CompletedAt
	task = task.WithStatus(taskStatusOrDefault(req.Status), h.now())

	if err := task.Validate(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	if err := h.repo.Update(r.Context(), &task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewTaskNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewTaskNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}
	h.invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// buildTask は状態以外のフィールドをリクエストから設定する。
func (h *TaskHandler) buildTask(req taskRequest) model.Task {
	priority := model.TaskPriorityMedium
	if req.Priority != "" {
		priority = model.TaskPriority(req.Priority)
	}

	related := make([]string, 0, len(req.RelatedArticles))
	for _, title := range req.RelatedArticles {
		if title = h.clean(title); title != "" {
			related = append(related, title)
		}
	}

	return model.Task{
		Title:           h.clean(req.Title),
		Description:     h.clean(req.Description),
		Priority:        priority,
		DueDate:         req.DueDate,
		RelatedArticles: related,
	}
}

func taskStatusOrDefault(s string) model.TaskStatus {
	if s == "" {
		return model.TaskNotStarted
	}
	return model.TaskStatus(s)
}
