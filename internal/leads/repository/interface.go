package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lead is a consumer inquiry that can be sold once fresh and once more as a
// second-chance lead. The order links are immutable once set; fulfillment
// counts are derived by counting them, never stored on orders.
type Lead struct {
	ID                  uuid.UUID
	CampaignID          uuid.UUID
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	State               string
	Origin              string
	CustomFields        map[string]string
	BuyerID             *uuid.UUID
	SecondChanceBuyerID *uuid.UUID
	FreshOrderID        *uuid.UUID
	SecondChanceOrderID *uuid.UUID
	SoldAt              *time.Time
	SecondChanceSoldAt  *time.Time
	CreatedAt           time.Time
}

// CreateParams carries the fields persisted when inserting a lead.
type CreateParams struct {
	CampaignID   uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	State        string
	Origin       string
	CustomFields map[string]string
}

// ListParams filters lead listings.
type ListParams struct {
	CampaignID *uuid.UUID
	BuyerID    *uuid.UUID
	Unsold     bool
	Limit      int
	Offset     int
}

// Repository is the persistence port for leads.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	Create(ctx context.Context, params CreateParams) (Lead, error)
	CreateBatch(ctx context.Context, params []CreateParams) (int, error)

	// FindByName returns campaign leads sharing the probe's lowercased last
	// name initial. Candidates for fuzzy duplicate matching; the similarity
	// decision is the service's.
	FindByName(ctx context.Context, campaignID uuid.UUID, lastName string) ([]Lead, error)

	// LinkFresh records the fresh sale. The link is immutable: the update is
	// guarded by fresh_order_id IS NULL and a second attempt fails with
	// apperr.Conflict.
	LinkFresh(ctx context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (Lead, error)

	// LinkSecondChance records the second-chance sale. Guarded the same way,
	// and additionally rejects selling back to the fresh buyer.
	LinkSecondChance(ctx context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (Lead, error)

	// SoldTodayCount counts leads sold to the agent for the campaign since
	// the start of the current UTC day, both legs included. Input for daily
	// limit enforcement.
	SoldTodayCount(ctx context.Context, agentID, campaignID uuid.UUID) (int, error)
}
