package repository

import (
	"context"

	"github.com/google/uuid"
)

// Agent is a lead buyer: a person or company purchasing leads from one or
// more campaigns.
type Agent struct {
	ID               uuid.UUID
	Name             string
	Email            string
	Phone            string
	Company          string
	DistributionType string
	CRMWebhookURL    string
	CRMAuthToken     string
	IsActive         bool
	CreatedAt        string
	UpdatedAt        string
}

// Membership is an agent's per-campaign record: running balance, optional
// price overrides, and the daily distribution cap.
type Membership struct {
	AgentID                        uuid.UUID
	CampaignID                     uuid.UUID
	BalanceCents                   int64
	LeadPriceOverrideCents         *int64
	SecondChancePriceOverrideCents *int64
	DailyLeadLimit                 int
	CreatedAt                      string
	UpdatedAt                      string
}

// CreateParams carries the fields persisted when inserting an agent.
type CreateParams struct {
	Name             string
	Email            string
	Phone            string
	Company          string
	DistributionType string
	CRMWebhookURL    string
	CRMAuthToken     string
}

// UpdateParams carries optional agent field updates; nil fields are left
// unchanged.
type UpdateParams struct {
	ID               uuid.UUID
	Name             *string
	Email            *string
	Phone            *string
	Company          *string
	DistributionType *string
	CRMWebhookURL    *string
	CRMAuthToken     *string
}

// MembershipParams carries the fields persisted when upserting a membership.
type MembershipParams struct {
	AgentID                        uuid.UUID
	CampaignID                     uuid.UUID
	LeadPriceOverrideCents         *int64
	SecondChancePriceOverrideCents *int64
	DailyLeadLimit                 *int
}

// Repository is the persistence port for agents and their campaign
// memberships.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Agent, error)
	GetByEmail(ctx context.Context, email string) (Agent, error)
	List(ctx context.Context) ([]Agent, error)
	Create(ctx context.Context, params CreateParams) (Agent, error)
	Update(ctx context.Context, params UpdateParams) (Agent, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error

	GetMembership(ctx context.Context, agentID, campaignID uuid.UUID) (Membership, error)
	ListMemberships(ctx context.Context, agentID uuid.UUID) ([]Membership, error)
	UpsertMembership(ctx context.Context, params MembershipParams) (Membership, error)
	SetDailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID, limit int) error

	// AdjustBalance adds delta to the membership balance and returns the new
	// balance. Negative deltas draw the balance down.
	AdjustBalance(ctx context.Context, agentID, campaignID uuid.UUID, deltaCents int64) (int64, error)
}
