package service

import (
	"fmt"

	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/apperr"
)

// Product names accepted on one-time checkouts with discrete line items.
const (
	ProductFreshLead        = "Fresh Lead"
	ProductAgedLead         = "Aged Lead"
	ProductSecondChanceLead = "Second Chance Lead"
)

// The mixed split funds fresh leads with 80% of the order total and
// second-chance leads with the remaining 20%. Each bucket is floor-divided
// by its own price; rounding loss is forfeited, never redistributed.
const (
	mixedFreshPercent        = 80
	mixedSecondChancePercent = 20
)

// DetermineDistributionType decides how an order's spend is split, in
// priority order: explicit one-time quantities, the refund rule, then the
// agent's configured preference.
func DetermineDistributionType(order repository.Order, agent AgentProfile) DistributionType {
	switch order.Type {
	case repository.OrderTypeOneTime:
		// Only meaningful when the order already carries explicit
		// per-product quantities; before quantities exist both targets are
		// zero and this falls through to mixed.
		if order.FreshTarget > 0 && order.SecondChanceTarget == 0 {
			return DistributionFreshOnly
		}
		if order.SecondChanceTarget > 0 && order.FreshTarget == 0 {
			return DistributionSecondChanceOnly
		}
		return DistributionMixed
	case repository.OrderTypeRefund:
		return DistributionFreshOnly
	default:
		return agent.DistributionType
	}
}

// LeadAmountsByDistribution converts an order total into lead counts given
// per-lead prices and a distribution type.
func LeadAmountsByDistribution(totalCents, freshPriceCents, secondChancePriceCents int64, dt DistributionType) (int, int, error) {
	switch dt {
	case DistributionFreshOnly:
		if freshPriceCents <= 0 {
			return 0, 0, apperr.Validation("fresh lead price must be positive")
		}
		return int(totalCents / freshPriceCents), 0, nil

	case DistributionSecondChanceOnly:
		if secondChancePriceCents <= 0 {
			return 0, 0, apperr.Validation("second chance lead price must be positive")
		}
		return 0, int(totalCents / secondChancePriceCents), nil

	case DistributionMixed:
		if freshPriceCents <= 0 {
			return 0, 0, apperr.Validation("fresh lead price must be positive")
		}
		if secondChancePriceCents <= 0 {
			return 0, 0, apperr.Validation("second chance lead price must be positive")
		}
		freshBudget := totalCents * mixedFreshPercent / 100
		secondChanceBudget := totalCents * mixedSecondChancePercent / 100
		return int(freshBudget / freshPriceCents), int(secondChanceBudget / secondChancePriceCents), nil

	default:
		return 0, 0, apperr.Validation(fmt.Sprintf("unknown distribution type %q", dt))
	}
}

// ApplyLeadAmounts sets the order's target counts.
//
// With an explicit product list (one-time checkout), each product OVERWRITES
// its leg's target with the product quantity; a later product of the same
// type wins over an earlier one. Without products, targets computed from the
// order total and effective prices are ADDED onto whatever the order already
// carries. The overwrite/add asymmetry is intentional: discrete SKUs state an
// absolute entitlement, a priced total tops an existing cycle up.
func ApplyLeadAmounts(order *repository.Order, campaign CampaignPricing, membership Membership, agent AgentProfile, products []transport.OrderProduct) error {
	if len(products) > 0 {
		for _, product := range products {
			// Quantities arrive unvalidated from payment metadata, not just
			// from the HTTP surface. Targets must never go negative.
			if product.Quantity < 1 {
				return apperr.Validation(fmt.Sprintf("product %q quantity must be at least 1", product.Name))
			}
			switch product.Name {
			case ProductFreshLead:
				order.FreshTarget = product.Quantity
			case ProductAgedLead, ProductSecondChanceLead:
				order.SecondChanceTarget = product.Quantity
			default:
				return apperr.Validation(fmt.Sprintf("unknown product %q", product.Name))
			}
		}
		return nil
	}

	dt := DetermineDistributionType(*order, agent)
	fresh, secondChance, err := LeadAmountsByDistribution(
		order.TotalCents,
		membership.FreshPriceCents(campaign),
		membership.SecondChancePriceCents(campaign),
		dt,
	)
	if err != nil {
		return err
	}

	order.FreshTarget += fresh
	order.SecondChanceTarget += secondChance
	return nil
}
