package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a portal account. Admin users manage campaigns; agent users are
// linked to the agent record whose orders and leads they may see.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	AgentID      *uuid.UUID
	IsActive     bool
	CreatedAt    string
	UpdatedAt    string
}

// CreateParams carries the fields persisted when inserting a user.
type CreateParams struct {
	Email        string
	PasswordHash string
	Role         string
	AgentID      *uuid.UUID
}

// Repository is the persistence port for users and refresh tokens.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, params CreateParams) (User, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error

	// StoreRefreshToken persists the hash of an issued refresh token.
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// GetRefreshToken resolves a token hash to its user and expiry.
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}
