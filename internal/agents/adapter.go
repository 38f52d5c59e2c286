package agents

import (
	"context"

	"github.com/google/uuid"

	"leadmarket_backend/internal/agents/repository"
	ordersvc "leadmarket_backend/internal/orders/service"
	"leadmarket_backend/platform/apperr"
)

// DirectoryAdapter exposes agent and membership state through the orders
// module's AgentDirectory port.
type DirectoryAdapter struct {
	repo repository.Repository
}

// NewDirectoryAdapter creates the orders-facing agent directory adapter.
func NewDirectoryAdapter(repo repository.Repository) *DirectoryAdapter {
	return &DirectoryAdapter{repo: repo}
}

// GetProfile returns the fulfillment slice of an agent. Inactive agents are
// rejected so payments cannot create orders for retired buyers.
func (a *DirectoryAdapter) GetProfile(ctx context.Context, agentID uuid.UUID) (ordersvc.AgentProfile, error) {
	agent, err := a.repo.GetByID(ctx, agentID)
	if err != nil {
		return ordersvc.AgentProfile{}, err
	}
	if !agent.IsActive {
		return ordersvc.AgentProfile{}, apperr.Conflict("agent is not active")
	}

	return ordersvc.AgentProfile{
		ID:               agent.ID,
		Name:             agent.Name,
		DistributionType: ordersvc.DistributionType(agent.DistributionType),
	}, nil
}

// GetMembership returns the agent's membership terms for a campaign.
func (a *DirectoryAdapter) GetMembership(ctx context.Context, agentID, campaignID uuid.UUID) (ordersvc.Membership, error) {
	membership, err := a.repo.GetMembership(ctx, agentID, campaignID)
	if err != nil {
		return ordersvc.Membership{}, err
	}

	return ordersvc.Membership{
		AgentID:                        membership.AgentID,
		CampaignID:                     membership.CampaignID,
		BalanceCents:                   membership.BalanceCents,
		LeadPriceOverrideCents:         membership.LeadPriceOverrideCents,
		SecondChancePriceOverrideCents: membership.SecondChancePriceOverrideCents,
		DailyLeadLimit:                 membership.DailyLeadLimit,
	}, nil
}

// DailyLeadLimit returns the agent's current daily cap for a campaign.
func (a *DirectoryAdapter) DailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID) (int, error) {
	membership, err := a.repo.GetMembership(ctx, agentID, campaignID)
	if err != nil {
		return 0, err
	}
	return membership.DailyLeadLimit, nil
}

// SetDailyLeadLimit persists the recalculated daily distribution cap.
func (a *DirectoryAdapter) SetDailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID, limit int) error {
	return a.repo.SetDailyLeadLimit(ctx, agentID, campaignID, limit)
}

// Compile-time check that DirectoryAdapter implements the orders port.
var _ ordersvc.AgentDirectory = (*DirectoryAdapter)(nil)
