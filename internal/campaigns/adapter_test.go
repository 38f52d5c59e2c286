package campaigns

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadmarket_backend/internal/campaigns/repository"
	"leadmarket_backend/platform/apperr"
)

type fakeRepo struct {
	campaign repository.Campaign
	err      error
}

func (f *fakeRepo) GetByID(_ context.Context, _ uuid.UUID) (repository.Campaign, error) {
	return f.campaign, f.err
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Campaign, error)       { return nil, nil }
func (f *fakeRepo) ListActive(_ context.Context) ([]repository.Campaign, error) { return nil, nil }
func (f *fakeRepo) Create(_ context.Context, _ repository.CreateParams) (repository.Campaign, error) {
	return repository.Campaign{}, nil
}
func (f *fakeRepo) Update(_ context.Context, _ repository.UpdateParams) (repository.Campaign, error) {
	return repository.Campaign{}, nil
}
func (f *fakeRepo) SetActive(_ context.Context, _ uuid.UUID, _ bool) error { return nil }

func TestPricingAdapterMapsCampaign(t *testing.T) {
	campaign := repository.Campaign{
		ID:                        uuid.New(),
		Name:                      "Solar NL",
		PricePerLeadCents:         500,
		PricePerSecondChanceCents: 250,
		AdminEmails:               []string{"ops@example.com"},
		IsActive:                  true,
	}
	adapter := NewPricingAdapter(&fakeRepo{campaign: campaign})

	pricing, err := adapter.GetPricing(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pricing.PricePerLeadCents != 500 || pricing.PricePerSecondChanceCents != 250 {
		t.Fatalf("unexpected pricing: %+v", pricing)
	}
	if len(pricing.AdminEmails) != 1 {
		t.Fatalf("expected admin emails carried over, got %v", pricing.AdminEmails)
	}
}

func TestPricingAdapterRejectsInactiveCampaign(t *testing.T) {
	adapter := NewPricingAdapter(&fakeRepo{campaign: repository.Campaign{IsActive: false}})

	_, err := adapter.GetPricing(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for inactive campaign, got %v", err)
	}
}
