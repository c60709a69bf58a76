package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/announcement/domain"
	"devspaces/internal/platform/httpx"
)

// Announcements is the announcement surface the handler serves.
type Announcements interface {
	PostWorkspace(ctx context.Context, workspaceName, message string) (*domain.WorkspaceAnnouncement, error)
	ListWorkspace(ctx context.Context, workspaceName string) ([]*domain.WorkspaceAnnouncement, error)
	ListSite(ctx context.Context) ([]*domain.SiteAnnouncement, error)
	Latest(ctx context.Context) (*domain.SiteAnnouncement, bool, error)
	MarkSeen(ctx context.Context, announcementID string) error
}

type Handler struct {
	announcements Announcements
	log           *slog.Logger
}

func NewHandler(announcements Announcements, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{announcements: announcements, log: logger}
}

// Register mounts workspace and site announcement routes. Posting site announcements
// belongs to the admin surface.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workspaces/{name}/announcements", h.listWorkspace)
	r.Post("/workspaces/{name}/announcements", h.postWorkspace)
	r.Get("/site-announcements", h.listSite)
	r.Get("/site-announcements/latest", h.latest)
	r.Post("/site-announcements/{id}/seen", h.markSeen)
}

type WorkspaceAnnouncementView struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type SiteAnnouncementView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Level      string    `json:"level"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewSiteAnnouncementView(a *domain.SiteAnnouncement) SiteAnnouncementView {
	return SiteAnnouncementView{
		ID:         a.ID,
		Title:      a.Title,
		Message:    a.Message,
		Level:      string(a.Level),
		AuthorName: a.AuthorName,
		CreatedAt:  a.CreatedAt,
	}
}

func newWorkspaceAnnouncementView(a *domain.WorkspaceAnnouncement) WorkspaceAnnouncementView {
	return WorkspaceAnnouncementView{
		ID:         a.ID,
		AuthorID:   a.AuthorID,
		AuthorName: a.AuthorName,
		Message:    a.Message,
		CreatedAt:  a.CreatedAt,
	}
}

func (h *Handler) listWorkspace(w http.ResponseWriter, r *http.Request) {
	list, err := h.announcements.ListWorkspace(r.Context(), httpx.PathParam(r, "name"))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]WorkspaceAnnouncementView, 0, len(list))
	for _, a := range list {
		views = append(views, newWorkspaceAnnouncementView(a))
	}
	httpx.OK(w, httpx.Fields{"announcements": views})
}

func (h *Handler) postWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	a, err := h.announcements.PostWorkspace(r.Context(), httpx.PathParam(r, "name"), req.Message)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"announcement": newWorkspaceAnnouncementView(a)})
}

func (h *Handler) listSite(w http.ResponseWriter, r *http.Request) {
	list, err := h.announcements.ListSite(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]SiteAnnouncementView, 0, len(list))
	for _, a := range list {
		views = append(views, NewSiteAnnouncementView(a))
	}
	httpx.OK(w, httpx.Fields{"announcements": views})
}

// latest answers with a null announcement when none has been posted.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	a, seen, err := h.announcements.Latest(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if a == nil {
		httpx.OK(w, httpx.Fields{"announcement": nil, "seen": false})
		return
	}
	httpx.OK(w, httpx.Fields{"announcement": NewSiteAnnouncementView(a), "seen": seen})
}

func (h *Handler) markSeen(w http.ResponseWriter, r *http.Request) {
	if err := h.announcements.MarkSeen(r.Context(), httpx.PathParam(r, "id")); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"seen": true})
}
