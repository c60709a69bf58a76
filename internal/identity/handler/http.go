// Package handler serves signup, login, logout and password change over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"devspaces/internal/identity/service"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/httpx"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
	userhandler "devspaces/internal/user/handler"
)

// Authenticator is the account surface behind the handler.
type Authenticator interface {
	Register(ctx context.Context, req service.SignupRequest) (*userdomain.User, error)
	Login(ctx context.Context, email, password string) (*userdomain.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// TokenIssuer issues bearer access tokens.
type TokenIssuer interface {
	IssueAccess(userID string) (token string, expiresAt time.Time, err error)
}

// Handler serves the auth routes. Sessions carry the signed-in user for browser clients;
// tokens, when configured, give API clients a bearer credential at login.
type Handler struct {
	auth     Authenticator
	sessions *scs.SessionManager
	tokens   TokenIssuer
	limit    func(http.Handler) http.Handler
	log      *slog.Logger
}

// NewHandler returns an auth handler. tokens may be nil to disable bearer tokens.
func NewHandler(auth Authenticator, sessions *scs.SessionManager, tokens TokenIssuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, sessions: sessions, tokens: tokens, log: logger}
}

// WithRateLimit guards the credential routes (signup, login, password change) with mw.
func (h *Handler) WithRateLimit(mw func(http.Handler) http.Handler) *Handler {
	h.limit = mw
	return h
}

// Register mounts the auth routes on r.
func (h *Handler) Register(r chi.Router) {
	credentials := r
	if h.limit != nil {
		credentials = r.With(h.limit)
	}
	credentials.Post("/signup", h.signup)
	credentials.Post("/login", h.login)
	r.Post("/logout", h.logout)
	credentials.Post("/me/password", h.changePassword)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	u, err := h.auth.Register(r.Context(), service.SignupRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	middleware.SetUserID(r.Context(), u.ID)
	httpx.Created(w, httpx.Fields{"user": userhandler.NewUserView(u)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	ctx := r.Context()
	u, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if err := h.sessions.RenewToken(ctx); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	h.sessions.Put(ctx, middleware.SessionUserKey, u.ID)
	middleware.SetUserID(ctx, u.ID)

	fields := httpx.Fields{"user": userhandler.NewUserView(u)}
	if h.tokens != nil {
		token, expiresAt, err := h.tokens.IssueAccess(u.ID)
		if err != nil {
			httpx.Error(w, r, h.log, err)
			return
		}
		fields["access_token"] = token
		fields["expires_at"] = expiresAt
	}
	httpx.OK(w, fields)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, r, h.log, apperr.Unauthenticated("login required"))
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.OK(w, nil)
}
