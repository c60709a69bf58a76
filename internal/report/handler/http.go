package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/platform/httpx"
	"devspaces/internal/report/domain"
)

// Reporter files workspace reports.
type Reporter interface {
	Create(ctx context.Context, workspaceName, reason, description string) (*domain.Report, error)
}

type Handler struct {
	reports Reporter
	log     *slog.Logger
}

func NewHandler(reports Reporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reports: reports, log: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/workspaces/{name}/reports", h.create)
}

type ReportView struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewReportView(r *domain.Report) ReportView {
	return ReportView{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Reason:      r.Reason,
		Description: r.Description,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason      string `json:"reason"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	rep, err := h.reports.Create(r.Context(), httpx.PathParam(r, "name"), req.Reason, req.Description)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"report": NewReportView(rep)})
}
