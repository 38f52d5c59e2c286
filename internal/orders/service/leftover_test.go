package service

import "testing"

func TestLeftoverExtraLeadsSingleLeg(t *testing.T) {
	fresh, secondChance := LeftoverExtraLeads(1200, 500, 250, DistributionFreshOnly)
	if fresh != 2 || secondChance != 0 {
		t.Fatalf("expected (2, 0), got (%d, %d)", fresh, secondChance)
	}

	fresh, secondChance = LeftoverExtraLeads(1200, 500, 250, DistributionSecondChanceOnly)
	if fresh != 0 || secondChance != 4 {
		t.Fatalf("expected (0, 4), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeftoverExtraLeadsMixedDrawsFreshFirst(t *testing.T) {
	// 1200 buys 2 fresh at 500, leaving 200, which is under the 250
	// second-chance price. The mixed draw is sequential, not an 80/20 split.
	fresh, secondChance := LeftoverExtraLeads(1200, 500, 250, DistributionMixed)
	if fresh != 2 || secondChance != 0 {
		t.Fatalf("expected (2, 0), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeftoverExtraLeadsMixedRemainderBuysSecondChance(t *testing.T) {
	// 1300 buys 2 fresh at 500, and the 300 remainder buys 1 second chance.
	fresh, secondChance := LeftoverExtraLeads(1300, 500, 250, DistributionMixed)
	if fresh != 2 || secondChance != 1 {
		t.Fatalf("expected (2, 1), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeftoverExtraLeadsMixedBelowFreshPrice(t *testing.T) {
	// Too small for a fresh lead but enough for a second chance.
	fresh, secondChance := LeftoverExtraLeads(300, 500, 250, DistributionMixed)
	if fresh != 0 || secondChance != 1 {
		t.Fatalf("expected (0, 1), got (%d, %d)", fresh, secondChance)
	}
}

func TestLeftoverExtraLeadsNonPositiveInputs(t *testing.T) {
	if fresh, secondChance := LeftoverExtraLeads(0, 500, 250, DistributionMixed); fresh != 0 || secondChance != 0 {
		t.Fatalf("expected zero leads for zero leftover, got (%d, %d)", fresh, secondChance)
	}
	if fresh, secondChance := LeftoverExtraLeads(-100, 500, 250, DistributionFreshOnly); fresh != 0 || secondChance != 0 {
		t.Fatalf("expected zero leads for negative leftover, got (%d, %d)", fresh, secondChance)
	}
	if fresh, secondChance := LeftoverExtraLeads(1000, 0, 0, DistributionMixed); fresh != 0 || secondChance != 0 {
		t.Fatalf("expected zero leads for zero prices, got (%d, %d)", fresh, secondChance)
	}
}
