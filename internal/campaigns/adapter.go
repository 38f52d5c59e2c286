package campaigns

import (
	"context"

	"github.com/google/uuid"

	"leadmarket_backend/internal/campaigns/repository"
	ordersvc "leadmarket_backend/internal/orders/service"
	"leadmarket_backend/platform/apperr"
)

// PricingAdapter exposes campaign pricing through the orders module's
// CampaignReader port.
type PricingAdapter struct {
	repo repository.Repository
}

// NewPricingAdapter creates the orders-facing pricing adapter.
func NewPricingAdapter(repo repository.Repository) *PricingAdapter {
	return &PricingAdapter{repo: repo}
}

// GetPricing returns the pricing slice of a campaign. Inactive campaigns are
// rejected: payments should never land on a retired market.
func (a *PricingAdapter) GetPricing(ctx context.Context, campaignID uuid.UUID) (ordersvc.CampaignPricing, error) {
	campaign, err := a.repo.GetByID(ctx, campaignID)
	if err != nil {
		return ordersvc.CampaignPricing{}, err
	}
	if !campaign.IsActive {
		return ordersvc.CampaignPricing{}, apperr.Conflict("campaign is not active")
	}

	return ordersvc.CampaignPricing{
		ID:                        campaign.ID,
		Name:                      campaign.Name,
		PricePerLeadCents:         campaign.PricePerLeadCents,
		PricePerSecondChanceCents: campaign.PricePerSecondChanceCents,
		AdminEmails:               campaign.AdminEmails,
	}, nil
}

// Compile-time check that PricingAdapter implements the orders port.
var _ ordersvc.CampaignReader = (*PricingAdapter)(nil)
