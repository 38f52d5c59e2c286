// Package service implements authentication: credential checks, JWT access
// tokens and rotating refresh tokens.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leadmarket_backend/internal/auth/password"
	"leadmarket_backend/internal/auth/repository"
	"leadmarket_backend/internal/auth/token"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/logger"
)

const (
	refreshTokenTTL  = 30 * 24 * time.Hour
	refreshTokenSize = 32

	msgInvalidCredentials = "invalid credentials"
	msgTokenInvalid       = "invalid refresh token"
)

// TokenPair is an issued access/refresh token set.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Service implements authentication operations.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

// New creates the auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn checks credentials and issues a token pair. Disabled accounts and
// unknown emails fail identically so the response leaks nothing.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return TokenPair{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if !user.IsActive {
		return TokenPair{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(msgTokenInvalid)
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return TokenPair{}, err
	}

	if time.Now().After(expiresAt) {
		return TokenPair{}, apperr.Unauthorized(msgTokenInvalid)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(msgTokenInvalid)
	}
	if !user.IsActive {
		return TokenPair{}, apperr.Unauthorized(msgTokenInvalid)
	}

	return s.issueTokens(ctx, user)
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

// CreateUser provisions a portal account. Agent users must be linked to an
// agent record; admin users must not be.
func (s *Service) CreateUser(ctx context.Context, email, plainPassword, role string, agentID *uuid.UUID) (repository.User, error) {
	switch role {
	case httpkit.RoleAdmin:
		if agentID != nil {
			return repository.User{}, apperr.Validation("admin users cannot be linked to an agent")
		}
	case httpkit.RoleAgent:
		if agentID == nil {
			return repository.User{}, apperr.Validation("agent users must be linked to an agent")
		}
	default:
		return repository.User{}, apperr.Validation("unknown role")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return repository.User{}, apperr.Conflict("a user with this email already exists")
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AgentID:      agentID,
	})
	if err != nil {
		return repository.User{}, err
	}

	s.log.Info("user created", "userId", user.ID, "role", user.Role)
	return user, nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (TokenPair, error) {
	ttl := s.cfg.GetAccessTokenTTL()
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if user.AgentID != nil {
		claims["agentId"] = user.AgentID.String()
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := token.GenerateRandomToken(refreshTokenSize)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.repo.StoreRefreshToken(ctx, user.ID, token.HashSHA256(refreshToken), now.Add(refreshTokenTTL)); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(ttl.Seconds()),
	}, nil
}
