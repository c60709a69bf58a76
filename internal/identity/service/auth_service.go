package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "devspaces/internal/identity/domain"
	identityrepo "devspaces/internal/identity/repository"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/security"
	userdomain "devspaces/internal/user/domain"
)

const (
	MinPasswordLength = 8
	maxUsernameLength = 50
)

// ErrInvalidCredentials is the single reason given for every failed login.
var ErrInvalidCredentials = apperr.Unauthenticated("invalid credentials")

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	Register(ctx context.Context, u *userdomain.User, i *identitydomain.Identity, roleFor identityrepo.RoleFor) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// SignupRequest carries the signup form. PasswordConfirm is checked only when non-empty.
type SignupRequest struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthService implements local password signup, login and password change.
type AuthService struct {
	users          UserRepo
	identities     IdentityRepo
	hasher         PasswordHasher
	bootstrapEmail string
	log            *slog.Logger
}

// NewAuthService returns an AuthService. bootstrapEmail is the configured address that is
// always created as owner; empty disables it. logger may be nil.
func NewAuthService(users UserRepo, identities IdentityRepo, hasher PasswordHasher, bootstrapEmail string, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:          users,
		identities:     identities,
		hasher:         hasher,
		bootstrapEmail: strings.ToLower(strings.TrimSpace(bootstrapEmail)),
		log:            logger,
	}
}

// InitialRole returns the global role for a new account: owner for the very first account
// and for the bootstrap email, user otherwise.
func InitialRole(existing int64, email, bootstrapEmail string) userdomain.Role {
	if existing == 0 {
		return userdomain.RoleOwner
	}
	if bootstrapEmail != "" && strings.EqualFold(strings.TrimSpace(email), bootstrapEmail) {
		return userdomain.RoleOwner
	}
	return userdomain.RoleUser
}

// Register validates the request and creates the account with its local identity.
func (s *AuthService) Register(ctx context.Context, req SignupRequest) (*userdomain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.PasswordConfirm != "" && req.PasswordConfirm != req.Password {
		return nil, apperr.InvalidInput("passwords do not match")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Storage("look up email", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(identityrepo.ErrEmailTaken.Error())
	}
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &userdomain.User{
		ID:                  uuid.New().String(),
		Username:            username,
		Email:               email,
		Subscription:        userdomain.SubscriptionNone,
		NotifyAnnouncements: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := u.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	ident := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       u.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	roleFor := func(existing int64) userdomain.Role {
		return InitialRole(existing, email, s.bootstrapEmail)
	}
	if err := s.identities.Register(ctx, u, ident, roleFor); err != nil {
		if errors.Is(err, identityrepo.ErrEmailTaken) {
			return nil, apperr.Conflict(err.Error())
		}
		return nil, apperr.Storage("register user", err)
	}
	if u.Role == userdomain.RoleOwner {
		s.log.InfoContext(ctx, "signup: account created as owner", "user_id", u.ID)
	}
	return u, nil
}

// Login verifies email and password. Every failure that is not a storage error is
// reported as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*userdomain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Storage("look up email", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.verify(ctx, u.ID, password); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	ident, err := s.identities.GetByUserAndProvider(ctx, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return apperr.Storage("load identity", err)
	}
	if ident == nil {
		return apperr.NotFound("no password is set for this account")
	}
	if err := s.hasher.Verify(ident.PasswordHash, current); err != nil {
		return apperr.Forbidden("current password is incorrect")
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.identities.UpdatePasswordHash(ctx, ident.ID, hashed); err != nil {
		return apperr.Storage("update password", err)
	}
	return nil
}

func (s *AuthService) verify(ctx context.Context, userID, password string) error {
	ident, err := s.identities.GetByUserAndProvider(ctx, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return apperr.Storage("load identity", err)
	}
	if ident == nil || ident.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := s.hasher.Verify(ident.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.log.WarnContext(ctx, "login: stored hash unusable", "user_id", userID, "error", err)
		}
		return ErrInvalidCredentials
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperr.InvalidInput("a username is required")
	}
	if len(username) > maxUsernameLength {
		return apperr.InvalidInput("username must be at most 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.InvalidInput("an email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.InvalidInput("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.InvalidInput("a password is required")
	}
	if len(password) < MinPasswordLength {
		return apperr.InvalidInput("password must be at least 8 characters")
	}
	return nil
}
