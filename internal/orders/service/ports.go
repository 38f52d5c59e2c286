package service

import (
	"context"

	"github.com/google/uuid"

	"leadmarket_backend/internal/orders/repository"
)

// DistributionType controls how an order's spend is split between fresh and
// second-chance leads.
type DistributionType string

const (
	DistributionFreshOnly        DistributionType = "fresh_only"
	DistributionSecondChanceOnly DistributionType = "second_chance_only"
	DistributionMixed            DistributionType = "mixed"
)

// CampaignPricing is the slice of campaign state the fulfillment domain
// consumes: per-lead prices and the administrator notification targets.
type CampaignPricing struct {
	ID                        uuid.UUID
	Name                      string
	PricePerLeadCents         int64
	PricePerSecondChanceCents int64
	AdminEmails               []string
}

// AgentProfile is the slice of agent state the fulfillment domain consumes.
type AgentProfile struct {
	ID               uuid.UUID
	Name             string
	DistributionType DistributionType
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
}

// FreshPriceCents resolves the effective fresh-lead price: the agent override
// when present, otherwise the campaign price.
func (m Membership) FreshPriceCents(campaign CampaignPricing) int64 {
	if m.LeadPriceOverrideCents != nil {
		return *m.LeadPriceOverrideCents
	}
	return campaign.PricePerLeadCents
}

// SecondChancePriceCents resolves the effective second-chance-lead price.
func (m Membership) SecondChancePriceCents(campaign CampaignPricing) int64 {
	if m.SecondChancePriceOverrideCents != nil {
		return *m.SecondChancePriceOverrideCents
	}
	return campaign.PricePerSecondChanceCents
}

// CampaignReader exposes campaign pricing to the orders module.
type CampaignReader interface {
	GetPricing(ctx context.Context, campaignID uuid.UUID) (CampaignPricing, error)
}

// AgentDirectory exposes agent and membership state to the orders module and
// accepts the recomputed daily limit after order creation.
type AgentDirectory interface {
	GetProfile(ctx context.Context, agentID uuid.UUID) (AgentProfile, error)
	GetMembership(ctx context.Context, agentID, campaignID uuid.UUID) (Membership, error)
	SetDailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID, limit int) error
}

// LimitRecalculator derives a new daily distribution cap for an agent and
// campaign from recent order volume. Implementations must be deterministic
// for a given agent and order, and must not mutate agent or order state; the
// orchestrator performs the persistence.
type LimitRecalculator interface {
	Recalculate(ctx context.Context, agentID, campaignID uuid.UUID, order repository.Order) (int, error)
}
