package service

import (
	"testing"

	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/apperr"
)

func TestDetermineDistributionTypeOneTimeQuantities(t *testing.T) {
	agent := AgentProfile{DistributionType: DistributionSecondChanceOnly}

	order := repository.Order{Type: repository.OrderTypeOneTime, FreshTarget: 5}
	if got := DetermineDistributionType(order, agent); got != DistributionFreshOnly {
		t.Fatalf("expected fresh_only, got %s", got)
	}

	order = repository.Order{Type: repository.OrderTypeOneTime, SecondChanceTarget: 3}
	if got := DetermineDistributionType(order, agent); got != DistributionSecondChanceOnly {
		t.Fatalf("expected second_chance_only, got %s", got)
	}

	order = repository.Order{Type: repository.OrderTypeOneTime}
	if got := DetermineDistributionType(order, agent); got != DistributionMixed {
		t.Fatalf("expected mixed for one-time without quantities, got %s", got)
	}
}

func TestDetermineDistributionTypeRefundIsAlwaysFresh(t *testing.T) {
	agent := AgentProfile{DistributionType: DistributionMixed}
	order := repository.Order{Type: repository.OrderTypeRefund}

	if got := DetermineDistributionType(order, agent); got != DistributionFreshOnly {
		t.Fatalf("expected fresh_only for refund, got %s", got)
	}
}

func TestDetermineDistributionTypeFallsBackToAgentPreference(t *testing.T) {
	agent := AgentProfile{DistributionType: DistributionSecondChanceOnly}
	order := repository.Order{Type: repository.OrderTypeRecurring}

	if got := DetermineDistributionType(order, agent); got != DistributionSecondChanceOnly {
		t.Fatalf("expected agent preference, got %s", got)
	}
}

func TestLeadAmountsMixedSplitsBudgetsIndependently(t *testing.T) {
	// $100 total, fresh at $5, second chance at $2.50: 80% funds 16 fresh,
	// 20% funds 8 second chance.
	fresh, secondChance, err := LeadAmountsByDistribution(10000, 500, 250, DistributionMixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != 16 || secondChance != 8 {
		t.Fatalf("expected (16, 8), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeadAmountsMixedForfeitsRoundingLoss(t *testing.T) {
	// 80% of 1099 is 879, buying 1 fresh at 500 with 379 stranded. The
	// remainder never moves to the other bucket.
	fresh, secondChance, err := LeadAmountsByDistribution(1099, 500, 250, DistributionMixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != 1 {
		t.Fatalf("expected 1 fresh, got %d", fresh)
	}
	if secondChance != 0 {
		t.Fatalf("expected 0 second chance from 219 budget, got %d", secondChance)
	}
}

func TestLeadAmountsSingleLegFloorDivision(t *testing.T) {
	fresh, secondChance, err := LeadAmountsByDistribution(1999, 500, 0, DistributionFreshOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != 3 || secondChance != 0 {
		t.Fatalf("expected (3, 0), got (%d, %d)", fresh, secondChance)
	}

	fresh, secondChance, err = LeadAmountsByDistribution(1000, 0, 250, DistributionSecondChanceOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != 0 || secondChance != 4 {
		t.Fatalf("expected (0, 4), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeadAmountsRejectsNonPositivePrices(t *testing.T) {
	if _, _, err := LeadAmountsByDistribution(1000, 0, 250, DistributionFreshOnly); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for zero fresh price, got %v", err)
	}
	if _, _, err := LeadAmountsByDistribution(1000, 500, -1, DistributionMixed); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for negative second chance price, got %v", err)
	}
}

func TestApplyLeadAmountsProductsOverwriteTargets(t *testing.T) {
	order := repository.Order{Type: repository.OrderTypeOneTime, FreshTarget: 99, SecondChanceTarget: 99}

	err := ApplyLeadAmounts(&order, CampaignPricing{}, Membership{}, AgentProfile{}, []transport.OrderProduct{
		{Name: ProductFreshLead, Quantity: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 10 {
		t.Fatalf("expected fresh target overwritten to 10, got %d", order.FreshTarget)
	}
	// Only the legs named by products change.
	if order.SecondChanceTarget != 99 {
		t.Fatalf("expected second chance target untouched, got %d", order.SecondChanceTarget)
	}
}

func TestApplyLeadAmountsLastProductWins(t *testing.T) {
	order := repository.Order{Type: repository.OrderTypeOneTime}

	err := ApplyLeadAmounts(&order, CampaignPricing{}, Membership{}, AgentProfile{}, []transport.OrderProduct{
		{Name: ProductFreshLead, Quantity: 10},
		{Name: ProductAgedLead, Quantity: 4},
		{Name: ProductFreshLead, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 2 {
		t.Fatalf("expected later fresh product to win with 2, got %d", order.FreshTarget)
	}
	if order.SecondChanceTarget != 4 {
		t.Fatalf("expected second chance target 4, got %d", order.SecondChanceTarget)
	}
}

func TestApplyLeadAmountsRejectsUnknownProduct(t *testing.T) {
	order := repository.Order{Type: repository.OrderTypeOneTime}

	err := ApplyLeadAmounts(&order, CampaignPricing{}, Membership{}, AgentProfile{}, []transport.OrderProduct{
		{Name: "Premium Lead", Quantity: 1},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestApplyLeadAmountsRejectsNonPositiveQuantity(t *testing.T) {
	for _, quantity := range []int{0, -5} {
		order := repository.Order{Type: repository.OrderTypeOneTime}

		err := ApplyLeadAmounts(&order, CampaignPricing{}, Membership{}, AgentProfile{}, []transport.OrderProduct{
			{Name: ProductFreshLead, Quantity: quantity},
		})
		if apperr.GetKind(err) != apperr.KindValidation {
			t.Fatalf("expected validation error for quantity %d, got %v", quantity, err)
		}
		if order.FreshTarget != 0 || order.SecondChanceTarget != 0 {
			t.Fatalf("expected targets untouched, got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
		}
	}
}

func TestApplyLeadAmountsPricePathAddsToExistingTargets(t *testing.T) {
	order := repository.Order{Type: repository.OrderTypeRecurring, TotalCents: 10000, FreshTarget: 2, SecondChanceTarget: 1}
	campaign := CampaignPricing{PricePerLeadCents: 500, PricePerSecondChanceCents: 250}
	agent := AgentProfile{DistributionType: DistributionMixed}

	err := ApplyLeadAmounts(&order, campaign, Membership{}, agent, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 18 {
		t.Fatalf("expected fresh target 2+16=18, got %d", order.FreshTarget)
	}
	if order.SecondChanceTarget != 9 {
		t.Fatalf("expected second chance target 1+8=9, got %d", order.SecondChanceTarget)
	}
}

func TestApplyLeadAmountsUsesMembershipOverrides(t *testing.T) {
	override := int64(1000)
	order := repository.Order{Type: repository.OrderTypeRecurring, TotalCents: 10000}
	campaign := CampaignPricing{PricePerLeadCents: 500, PricePerSecondChanceCents: 250}
	membership := Membership{LeadPriceOverrideCents: &override}
	agent := AgentProfile{DistributionType: DistributionFreshOnly}

	err := ApplyLeadAmounts(&order, campaign, membership, agent, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 10 {
		t.Fatalf("expected 10 fresh at override price, got %d", order.FreshTarget)
	}
}
