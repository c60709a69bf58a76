package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	membershipdomain "devspaces/internal/membership/domain"
	"devspaces/internal/platform/httpx"
	"devspaces/internal/workspace/domain"
	"devspaces/internal/workspace/service"
)

// Workspaces is the workspace surface the handler serves.
type Workspaces interface {
	Create(ctx context.Context, name, description string) (*domain.Workspace, error)
	ListMine(ctx context.Context) ([]*domain.Workspace, error)
	Update(ctx context.Context, name string, req service.UpdateRequest) (*domain.Workspace, error)
	Delete(ctx context.Context, name string) error
	Members(ctx context.Context, name string) (*service.MembersView, error)
	AddMember(ctx context.Context, name, email, roleName string) (*membershipdomain.Member, error)
}

type Handler struct {
	workspaces Workspaces
	log        *slog.Logger
}

func NewHandler(workspaces Workspaces, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{workspaces: workspaces, log: logger}
}

// Register mounts the workspace and member routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workspaces", h.list)
	r.Post("/workspaces", h.create)
	r.Patch("/workspaces/{name}", h.update)
	r.Delete("/workspaces/{name}", h.delete)
	r.Get("/workspaces/{name}/members", h.members)
	r.Post("/workspaces/{name}/members", h.addMember)
}

type WorkspaceView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewWorkspaceView(w *domain.Workspace) WorkspaceView {
	return WorkspaceView{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		CreatedBy:   w.CreatedBy,
		CreatedAt:   w.CreatedAt,
	}
}

type MemberView struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func newMemberView(m *membershipdomain.Member) MemberView {
	return MemberView{UserID: m.UserID, Username: m.Username, Email: m.Email, Role: string(m.Role)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.workspaces.ListMine(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	views := make([]WorkspaceView, 0, len(list))
	for _, ws := range list {
		views = append(views, NewWorkspaceView(ws))
	}
	httpx.OK(w, httpx.Fields{"workspaces": views})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	ws, err := h.workspaces.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"workspace": NewWorkspaceView(ws)})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	ws, err := h.workspaces.Update(r.Context(), httpx.PathParam(r, "name"), service.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"workspace": NewWorkspaceView(ws)})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.workspaces.Delete(r.Context(), httpx.PathParam(r, "name")); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaces.Members(r.Context(), httpx.PathParam(r, "name"))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	members := make([]MemberView, 0, len(view.Members))
	for _, m := range view.Members {
		members = append(members, newMemberView(m))
	}
	httpx.OK(w, httpx.Fields{
		"workspace":             NewWorkspaceView(view.Workspace),
		"members":               members,
		"requester_role":        string(view.RequesterRole),
		"requester_global_role": string(view.RequesterGlobalRole),
	})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	m, err := h.workspaces.AddMember(r.Context(), httpx.PathParam(r, "name"), req.Email, req.Role)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.Created(w, httpx.Fields{"member": newMemberView(m)})
}
