// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: existing accounts, workspaces and announcements are left as they are.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	announcementrepo "devspaces/internal/announcement/repository"
	announcementservice "devspaces/internal/announcement/service"
	"devspaces/internal/config"
	"devspaces/internal/db"
	identityrepo "devspaces/internal/identity/repository"
	identityservice "devspaces/internal/identity/service"
	membershiprepo "devspaces/internal/membership/repository"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/logging"
	"devspaces/internal/platform/rbac"
	"devspaces/internal/security"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
	userrepo "devspaces/internal/user/repository"
	workspacerepo "devspaces/internal/workspace/repository"
	workspaceservice "devspaces/internal/workspace/service"
)

const (
	devOwnerEmail  = "dev@example.com"
	devMemberEmail = "member@example.com"
	devPassword    = "password123"
	devWorkspace   = "sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "", "info").Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := seed(context.Background(), conn, cfg, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "owner", devOwnerEmail, "member", devMemberEmail, "password", devPassword, "workspace", devWorkspace)
}

type seeder struct {
	users   userrepo.Repository
	auth    *identityservice.AuthService
	spaces  *workspaceservice.Service
	notices *announcementservice.Service
	logger  *slog.Logger
}

func seed(ctx context.Context, conn *sql.DB, cfg *config.Config, logger *slog.Logger) error {
	users := userrepo.NewPostgresRepository(conn)
	members := membershiprepo.NewPostgresRepository(conn)
	workspaces := workspacerepo.NewPostgresRepository(conn)
	engine := rbac.NewEngine(users, members, logger)

	bootstrap := cfg.BootstrapOwnerEmail
	if bootstrap == "" {
		bootstrap = devOwnerEmail
	}
	s := &seeder{
		users:   users,
		auth:    identityservice.NewAuthService(users, identityrepo.NewPostgresRepository(conn), security.NewHasher(cfg.BcryptCost), bootstrap, logger),
		spaces:  workspaceservice.NewService(engine, workspaces, members, users, logger),
		notices: announcementservice.NewService(engine, workspaces, announcementrepo.NewPostgresRepository(conn), logger),
		logger:  logger,
	}

	owner, err := s.account(ctx, "dev", devOwnerEmail)
	if err != nil {
		return err
	}
	if _, err := s.account(ctx, "member", devMemberEmail); err != nil {
		return err
	}

	ownerCtx := middleware.WithIdentity(middleware.WithScope(ctx, "127.0.0.1"), owner.ID)
	created := true
	if _, err := s.spaces.Create(ownerCtx, devWorkspace, "Sample workspace for local development"); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			return fmt.Errorf("create workspace: %w", err)
		}
		created = false
	}
	if _, err := s.spaces.AddMember(ownerCtx, devWorkspace, devMemberEmail, "developer"); err != nil && !errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("add member: %w", err)
	}

	existing, err := s.notices.ListSite(ownerCtx)
	if err != nil {
		return fmt.Errorf("list site announcements: %w", err)
	}
	if len(existing) == 0 {
		if _, err := s.notices.PostSite(ownerCtx, owner, "Welcome", "Welcome to devspaces. Create a workspace to get started.", "info"); err != nil {
			return fmt.Errorf("post site announcement: %w", err)
		}
	}
	if created {
		if _, err := s.notices.PostWorkspace(ownerCtx, devWorkspace, "Sandbox is ready for experiments."); err != nil {
			return fmt.Errorf("post workspace announcement: %w", err)
		}
	}
	return nil
}

// account returns the user registered under email, creating it when missing.
func (s *seeder) account(ctx context.Context, username, email string) (*userdomain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}
	if u != nil {
		s.logger.Info("account exists", "email", email, "role", u.Role)
		return u, nil
	}
	u, err = s.auth.Register(ctx, identityservice.SignupRequest{Username: username, Email: email, Password: devPassword})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	s.logger.Info("account created", "email", email, "role", u.Role)
	return u, nil
}
