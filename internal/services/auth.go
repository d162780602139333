package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/auth"
	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

const minPasswordLen = 8

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type AuthService struct {
	store  store.Store
	tokens *auth.Tokens
	log    zerolog.Logger
}

func NewAuthService(s store.Store, tokens *auth.Tokens, log zerolog.Logger) *AuthService {
	return &AuthService{store: s, tokens: tokens, log: log}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users().Create(ctx, &model.User{Email: email, Name: strings.TrimSpace(in.Name), PasswordHash: hash})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user", u.UserID).Msg("account registered")
	return s.issue(u)
}

// Login never tells apart an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
		}
		return nil, err
	}
	return s.issue(u)
}

// Authenticate validates a bearer token.
func (s *AuthService) Authenticate(_ context.Context, token string) (*auth.Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}
	return &auth.Principal{UserID: claims.Subject, Email: claims.Email}, nil
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	tok, exp, err := s.tokens.Issue(u.UserID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: tok, ExpiresAt: exp, User: u}, nil
}
