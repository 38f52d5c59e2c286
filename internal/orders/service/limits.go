package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/orders/repository"
)

// volumeWindow is the lookback used when deriving a daily cap from order
// volume.
const volumeWindow = 30 * 24 * time.Hour

// VolumeLimitRecalculator derives a daily lead cap from the agent's recent
// order volume for the campaign: total leads purchased over the last 30 days,
// averaged per day, with the order being created included in the volume.
type VolumeLimitRecalculator struct {
	repo repository.Repository
}

// NewVolumeLimitRecalculator creates the default limit recalculator.
func NewVolumeLimitRecalculator(repo repository.Repository) *VolumeLimitRecalculator {
	return &VolumeLimitRecalculator{repo: repo}
}

// Recalculate returns a non-negative daily cap. It reads order history only;
// persistence of the result is the orchestrator's job.
func (r *VolumeLimitRecalculator) Recalculate(ctx context.Context, agentID, campaignID uuid.UUID, order repository.Order) (int, error) {
	since := time.Now().UTC().Add(-volumeWindow)
	volume, err := r.repo.LeadVolumeSince(ctx, agentID, campaignID, since)
	if err != nil {
		return 0, err
	}

	// The triggering order may not be persisted yet; count its targets too.
	volume += order.FreshTarget + order.SecondChanceTarget

	days := int(volumeWindow / (24 * time.Hour))
	limit := volume / days
	if limit < 0 {
		limit = 0
	}
	return limit, nil
}

// Compile-time check that VolumeLimitRecalculator implements LimitRecalculator.
var _ LimitRecalculator = (*VolumeLimitRecalculator)(nil)
