package service

// LeftoverExtraLeads converts a carried-over balance from a fully consumed
// prior cycle into extra lead counts. The caller adds the returned counts to
// the order's already-computed targets.
//
// For the mixed type the draw is sequential, not proportional: fresh leads
// drain the balance first and second-chance leads only see the remainder.
func LeftoverExtraLeads(leftoverCents, freshPriceCents, secondChancePriceCents int64, dt DistributionType) (int, int) {
	if leftoverCents <= 0 {
		return 0, 0
	}

	switch dt {
	case DistributionFreshOnly:
		if freshPriceCents <= 0 {
			return 0, 0
		}
		return int(leftoverCents / freshPriceCents), 0

	case DistributionSecondChanceOnly:
		if secondChancePriceCents <= 0 {
			return 0, 0
		}
		return 0, int(leftoverCents / secondChancePriceCents)

	case DistributionMixed:
		remaining := leftoverCents
		fresh := 0
		if freshPriceCents > 0 && remaining >= freshPriceCents {
			fresh = int(remaining / freshPriceCents)
			remaining -= int64(fresh) * freshPriceCents
		}
		secondChance := 0
		if secondChancePriceCents > 0 && remaining >= secondChancePriceCents {
			secondChance = int(remaining / secondChancePriceCents)
		}
		return fresh, secondChance

	default:
		return 0, 0
	}
}
