package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/config"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
)

type AuthService struct {
	store  *repository.Store
	tokens *auth.TokenIssuer
}

func NewAuthService(store *repository.Store, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
}

const badCredentials = "invalid email or password"

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		auth.RejectPassword(password)
		return LoginResult{}, apperrors.Unauthenticated(badCredentials)
	}
	if err != nil {
		return LoginResult{}, apperrors.Internal("login", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		log.Printf("login rejected user_id=%d reason=password", user.ID)
		return LoginResult{}, apperrors.Unauthenticated(badCredentials)
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, apperrors.Internal("issue token", err)
	}
	return LoginResult{AccessToken: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate verifies token and reloads the user so role and links are current.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	claimed, err := s.tokens.Verify(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return auth.Principal{}, apperrors.Unauthenticated("access token is expired")
	}
	if err != nil {
		return auth.Principal{}, apperrors.Unauthenticated("access token is invalid")
	}

	user, err := s.store.Users.Get(ctx, claimed.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Principal{}, apperrors.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return auth.Principal{}, apperrors.Internal("load user", err)
	}
	return auth.Principal{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		CourierID:      user.CourierID,
	}, nil
}

func (s *AuthService) Me(ctx context.Context, p auth.Principal) (models.User, error) {
	user, err := s.store.Users.Get(ctx, p.UserID)
	if err != nil {
		return models.User{}, notFoundOr(err, "user")
	}
	return user, nil
}

// EnsureSuperadmin creates the bootstrap superadmin when it does not exist yet.
func (s *AuthService) EnsureSuperadmin(ctx context.Context, cfg config.SuperadminConfig) error {
	if cfg.Email == "" {
		return nil
	}
	email, err := normalizeEmail(cfg.Email)
	if err != nil {
		return err
	}

	_, err = s.store.Users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return apperrors.Internal("lookup superadmin", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return apperrors.InvalidArgument(err.Error())
	}
	id, err := s.store.Users.Create(ctx, &models.User{
		Email:        email,
		Name:         cfg.Name,
		Role:         models.RoleSuperadmin,
		PasswordHash: hash,
	})
	if err != nil {
		return apperrors.Internal("create superadmin", err)
	}
	log.Printf("superadmin bootstrapped user_id=%d email=%s", id, email)
	return nil
}
