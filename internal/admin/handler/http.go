// Package handler exposes the site administration surface under /admin.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	announcementdomain "devspaces/internal/announcement/domain"
	announcementhandler "devspaces/internal/announcement/handler"
	auditdomain "devspaces/internal/audit/domain"
	"devspaces/internal/platform/httpx"
	reportdomain "devspaces/internal/report/domain"
	reporthandler "devspaces/internal/report/handler"
	userdomain "devspaces/internal/user/domain"
	userhandler "devspaces/internal/user/handler"
	workspacedomain "devspaces/internal/workspace/domain"
	workspacehandler "devspaces/internal/workspace/handler"
)

// Admin is the administration surface the handler serves.
type Admin interface {
	ListUsers(ctx context.Context) ([]*userdomain.User, error)
	SetRole(ctx context.Context, targetID, roleName string) (*userdomain.User, error)
	ToggleAdmin(ctx context.Context, targetID string, admin bool) (*userdomain.User, error)
	DeleteUser(ctx context.Context, targetID string) error
	SetSubscription(ctx context.Context, targetID, tier string) (*userdomain.User, error)
	ListWorkspaces(ctx context.Context) ([]*workspacedomain.Summary, error)
	DeleteWorkspace(ctx context.Context, id string) error
	ListReports(ctx context.Context) ([]*reportdomain.Summary, error)
	UpdateReportStatus(ctx context.Context, id, status string) (*reportdomain.Report, error)
	PostSiteAnnouncement(ctx context.Context, title, message, level string) (*announcementdomain.SiteAnnouncement, error)
	AuditLogs(ctx context.Context, workspaceID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

type Handler struct {
	admin Admin
	log   *slog.Logger
}

func NewHandler(admin Admin, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{admin: admin, log: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/users", h.listUsers)
	r.Post("/admin/users/{id}/role", h.setRole)
	r.Post("/admin/users/{id}/admin", h.toggleAdmin)
	r.Post("/admin/users/{id}/subscription", h.setSubscription)
	r.Delete("/admin/users/{id}", h.deleteUser)
	r.Get("/admin/workspaces", h.listWorkspaces)
	r.Delete("/admin/workspaces/{id}", h.deleteWorkspace)
	r.Get("/admin/reports", h.listReports)
	r.Patch("/admin/reports/{id}", h.updateReport)
	r.Post("/admin/announcements", h.postAnnouncement)
	r.Get("/admin/audit", h.auditLogs)
}

type workspaceSummaryView struct {
	workspacehandler.WorkspaceView
	CreatorUsername string `json:"creator_username,omitempty"`
	CreatorEmail    string `json:"creator_email,omitempty"`
}

type reportSummaryView struct {
	reporthandler.ReportView
	WorkspaceName    string `json:"workspace_name"`
	ReporterUsername string `json:"reporter_username,omitempty"`
	ReporterEmail    string `json:"reporter_email,omitempty"`
}

type auditLogView struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	IP          string    `json:"ip"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]userhandler.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userhandler.NewUserView(u))
	}
	httpx.OK(w, httpx.Fields{"users": views})
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	h.writeUser(w, r)(h.admin.SetRole(r.Context(), httpx.PathParam(r, "id"), req.Role))
}

func (h *Handler) toggleAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin *bool `json:"is_admin"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if req.IsAdmin == nil {
		httpx.Fail(w, http.StatusBadRequest, "is_admin is required")
		return
	}
	h.writeUser(w, r)(h.admin.ToggleAdmin(r.Context(), httpx.PathParam(r, "id"), *req.IsAdmin))
}

func (h *Handler) setSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subscription string `json:"subscription"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	h.writeUser(w, r)(h.admin.SetSubscription(r.Context(), httpx.PathParam(r, "id"), req.Subscription))
}

// writeUser returns a sink for the (user, error) result of a user mutation.
func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request) func(*userdomain.User, error) {
	return func(u *userdomain.User, err error) {
		if err != nil {
			httpx.Error(w, r, h.log, err)
			return
		}
		httpx.OK(w, httpx.Fields{"user": userhandler.NewUserView(u)})
	}
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), httpx.PathParam(r, "id")); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.ListWorkspaces(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]workspaceSummaryView, 0, len(list))
	for _, s := range list {
		views = append(views, workspaceSummaryView{
			WorkspaceView:   workspacehandler.NewWorkspaceView(&s.Workspace),
			CreatorUsername: s.CreatorUsername,
			CreatorEmail:    s.CreatorEmail,
		})
	}
	httpx.OK(w, httpx.Fields{"workspaces": views})
}

func (h *Handler) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteWorkspace(r.Context(), httpx.PathParam(r, "id")); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.ListReports(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]reportSummaryView, 0, len(list))
	for _, s := range list {
		views = append(views, reportSummaryView{
			ReportView:       reporthandler.NewReportView(&s.Report),
			WorkspaceName:    s.WorkspaceName,
			ReporterUsername: s.ReporterUsername,
			ReporterEmail:    s.ReporterEmail,
		})
	}
	httpx.OK(w, httpx.Fields{"reports": views})
}

func (h *Handler) updateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	rep, err := h.admin.UpdateReportStatus(r.Context(), httpx.PathParam(r, "id"), req.Status)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"report": reporthandler.NewReportView(rep)})
}

func (h *Handler) postAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Level   string `json:"level"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	a, err := h.admin.PostSiteAnnouncement(r.Context(), req.Title, req.Message, req.Level)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"announcement": announcementhandler.NewSiteAnnouncementView(a)})
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	limit := httpx.QueryInt(r, "limit", 0)
	offset := httpx.QueryInt(r, "offset", 0)
	logs, err := h.admin.AuditLogs(r.Context(), r.URL.Query().Get("workspace_id"), int32(limit), int32(offset))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]auditLogView, 0, len(logs))
	for _, l := range logs {
		views = append(views, auditLogView{
			ID:          l.ID,
			WorkspaceID: l.WorkspaceID,
			UserID:      l.UserID,
			Action:      l.Action,
			Resource:    l.Resource,
			IP:          l.IP,
			Metadata:    l.Metadata,
			CreatedAt:   l.CreatedAt,
		})
	}
	httpx.OK(w, httpx.Fields{"audit_logs": views})
}
