package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// RegisterInput is the body of POST /v1/auth/register.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN SELLER"`
}

// LoginInput is the body of POST /v1/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput is the body of POST /v1/auth/refresh.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService handles registration, credential checks and token issuance.
type AuthService struct {
	repos      *repositories.Repositories
	signer     *auth.Signer
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(repos *repositories.Repositories, signer *auth.Signer, refreshTTL time.Duration) *AuthService {
	return &AuthService{repos: repos, signer: signer, refreshTTL: refreshTTL, now: time.Now}
}

// WithClock replaces the time source; tests use it to expire tokens.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.repos.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	user := &models.User{Email: in.Email, Password: hash, Role: in.Role}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Validate returns the user when the credentials match, otherwise nil.
func (s *AuthService) Validate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, nil
	}
	return user, nil
}

// Login issues an access token and stores a fresh refresh token.
func (s *AuthService) Login(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.signer.Sign(user.ID, user.Role, user.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("sign access token: %w", err))
	}
	rt := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.refreshTTL),
	}
	if err := s.repos.Tokens.Create(ctx, rt); err != nil {
		return nil, apperr.Internal(fmt.Errorf("store refresh token: %w", err))
	}
	return &TokenPair{AccessToken: access, RefreshToken: rt.Token}, nil
}

// Refresh consumes token and logs its owner in again. It returns nil for an
// unknown, expired or already consumed token.
func (s *AuthService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	var user *models.User
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		rt, err := tx.Tokens.Find(ctx, token)
		if err != nil || rt == nil {
			return err
		}
		if rt.ExpiresAt.Before(s.now().UTC()) {
			return nil
		}
		consumed, err := tx.Tokens.Delete(ctx, token)
		if err != nil || !consumed {
			return err
		}
		user, err = tx.Users.FindByID(ctx, rt.UserID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, nil
	}
	return s.Login(ctx, user)
}

// PurgeExpired deletes refresh tokens that can no longer be used.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.Tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.WithCtx(ctx).Info("expired refresh tokens purged", "count", n)
	}
	return n, nil
}
