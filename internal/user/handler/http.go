package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/platform/httpx"
	"devspaces/internal/user/domain"
)

// ProfileService is the profile surface the handler serves.
type ProfileService interface {
	Me(ctx context.Context) (*domain.User, error)
	UpdateUsername(ctx context.Context, username string) (*domain.User, error)
	SetNotifyAnnouncements(ctx context.Context, notify bool) (*domain.User, error)
}

// Handler serves /me.
type Handler struct {
	profiles ProfileService
	log      *slog.Logger
}

// NewHandler returns a profile handler. logger may be nil.
func NewHandler(profiles ProfileService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{profiles: profiles, log: logger}
}

// Register mounts the profile routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/me/update", h.updateUsername)
	r.Post("/me/preferences", h.preferences)
}

// UserView is the JSON shape of an account.
type UserView struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	IsAdmin             bool      `json:"is_admin"`
	Subscription        string    `json:"subscription"`
	NotifyAnnouncements bool      `json:"notify_announcements"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewUserView converts u for the wire.
func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Role:                string(u.Role),
		IsAdmin:             u.IsAdmin(),
		Subscription:        string(u.Subscription),
		NotifyAnnouncements: u.NotifyAnnouncements,
		CreatedAt:           u.CreatedAt,
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.profiles.Me(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"user": NewUserView(u)})
}

func (h *Handler) updateUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	u, err := h.profiles.UpdateUsername(r.Context(), req.Username)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"user": NewUserView(u)})
}

func (h *Handler) preferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotifyAnnouncements *bool `json:"notify_announcements"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if req.NotifyAnnouncements == nil {
		httpx.Fail(w, http.StatusBadRequest, "notify_announcements is required")
		return
	}
	u, err := h.profiles.SetNotifyAnnouncements(r.Context(), *req.NotifyAnnouncements)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, httpx.Fields{"user": NewUserView(u)})
}
