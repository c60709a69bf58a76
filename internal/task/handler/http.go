package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/platform/httpx"
	"devspaces/internal/task/domain"
)

// Tasks is the task surface the handler serves.
type Tasks interface {
	Create(ctx context.Context, workspaceName, title, description string) (*domain.Task, error)
	List(ctx context.Context, workspaceName string) ([]*domain.Task, error)
	Assign(ctx context.Context, workspaceName, taskID, assigneeID string) (*domain.Task, error)
}

type Handler struct {
	tasks Tasks
	log   *slog.Logger
}

func NewHandler(tasks Tasks, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{tasks: tasks, log: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/workspaces/{name}/tasks", h.list)
	r.Post("/workspaces/{name}/tasks", h.create)
	r.Post("/workspaces/{name}/tasks/{taskID}/assign", h.assign)
}

type TaskView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
}

func newTaskView(t *domain.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		AssigneeID:  t.AssigneeID,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), httpx.PathParam(r, "name"))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	httpx.OK(w, httpx.Fields{"tasks": views})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	t, err := h.tasks.Create(r.Context(), httpx.PathParam(r, "name"), req.Title, req.Description)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"task": newTaskView(t)})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	t, err := h.tasks.Assign(r.Context(), httpx.PathParam(r, "name"), httpx.PathParam(r, "taskID"), req.UserID)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"task": newTaskView(t)})
}
