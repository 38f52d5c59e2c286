package repository

import (
	"context"

	"github.com/google/uuid"
)

// Campaign is a vertical lead market (for example solar installations in one
// region) with its own pricing and administrator notification list.
type Campaign struct {
	ID                        uuid.UUID
	Name                      string
	Description               string
	PricePerLeadCents         int64
	PricePerSecondChanceCents int64
	AdminEmails               []string
	IsActive                  bool
	CreatedAt                 string
	UpdatedAt                 string
}

// CreateParams carries the fields persisted when inserting a campaign.
type CreateParams struct {
	Name                      string
	Description               string
	PricePerLeadCents         int64
	PricePerSecondChanceCents int64
	AdminEmails               []string
}

// UpdateParams carries optional field updates; nil fields are left unchanged.
type UpdateParams struct {
	ID                        uuid.UUID
	Name                      *string
	Description               *string
	PricePerLeadCents         *int64
	PricePerSecondChanceCents *int64
	AdminEmails               []string
}

// Repository is the persistence port for campaigns.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Campaign, error)
	List(ctx context.Context) ([]Campaign, error)
	ListActive(ctx context.Context) ([]Campaign, error)
	Create(ctx context.Context, params CreateParams) (Campaign, error)
	Update(ctx context.Context, params UpdateParams) (Campaign, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error
}
