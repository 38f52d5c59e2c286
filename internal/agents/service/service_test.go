package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/agents/repository"
	"leadmarket_backend/internal/agents/transport"
	"leadmarket_backend/platform/logger"
)

type fakeRepo struct {
	created     []repository.CreateParams
	memberships map[uuid.UUID]repository.Membership
	balances    map[uuid.UUID]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		memberships: make(map[uuid.UUID]repository.Membership),
		balances:    make(map[uuid.UUID]int64),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	return repository.Agent{ID: id, IsActive: true}, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, _ string) (repository.Agent, error) {
	return repository.Agent{}, nil
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Agent, error) {
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Agent, error) {
	f.created = append(f.created, params)
	return repository.Agent{
		ID:               uuid.New(),
		Name:             params.Name,
		Email:            params.Email,
		Phone:            params.Phone,
		Company:          params.Company,
		DistributionType: params.DistributionType,
		CRMWebhookURL:    params.CRMWebhookURL,
		CRMAuthToken:     params.CRMAuthToken,
		IsActive:         true,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Agent, error) {
	agent := repository.Agent{ID: params.ID, IsActive: true}
	if params.Phone != nil {
		agent.Phone = *params.Phone
	}
	return agent, nil
}

func (f *fakeRepo) SetActive(_ context.Context, _ uuid.UUID, _ bool) error {
	return nil
}

func (f *fakeRepo) GetMembership(_ context.Context, agentID, campaignID uuid.UUID) (repository.Membership, error) {
	return f.memberships[campaignID], nil
}

func (f *fakeRepo) ListMemberships(_ context.Context, _ uuid.UUID) ([]repository.Membership, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertMembership(_ context.Context, params repository.MembershipParams) (repository.Membership, error) {
	membership := repository.Membership{
		AgentID:                        params.AgentID,
		CampaignID:                     params.CampaignID,
		BalanceCents:                   f.balances[params.CampaignID],
		LeadPriceOverrideCents:         params.LeadPriceOverrideCents,
		SecondChancePriceOverrideCents: params.SecondChancePriceOverrideCents,
	}
	if params.DailyLeadLimit != nil {
		membership.DailyLeadLimit = *params.DailyLeadLimit
	}
	f.memberships[params.CampaignID] = membership
	return membership, nil
}

func (f *fakeRepo) SetDailyLeadLimit(_ context.Context, _, campaignID uuid.UUID, limit int) error {
	membership := f.memberships[campaignID]
	membership.DailyLeadLimit = limit
	f.memberships[campaignID] = membership
	return nil
}

func (f *fakeRepo) AdjustBalance(_ context.Context, _, campaignID uuid.UUID, deltaCents int64) (int64, error) {
	f.balances[campaignID] += deltaCents
	return f.balances[campaignID], nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func newTestService(repo repository.Repository) *Service {
	return New(repo, logger.New("development"))
}

func TestCreateDefaultsDistributionType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	resp, err := svc.Create(context.Background(), transport.CreateAgentRequest{
		Name:  "Acme Roofing",
		Email: "sales@acme.test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DistributionType != "mixed" {
		t.Fatalf("expected default distribution type mixed, got %q", resp.DistributionType)
	}
}

func TestCreateNormalizesPhone(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), transport.CreateAgentRequest{
		Name:  "Acme Roofing",
		Email: "sales@acme.test",
		Phone: "(212) 555-0123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(repo.created))
	}
	if got := repo.created[0].Phone; got != "+12125550123" {
		t.Fatalf("expected E.164 phone +12125550123, got %q", got)
	}
}

func TestCreateKeepsExplicitDistributionType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	resp, err := svc.Create(context.Background(), transport.CreateAgentRequest{
		Name:             "Acme Roofing",
		Email:            "sales@acme.test",
		DistributionType: "fresh_only",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DistributionType != "fresh_only" {
		t.Fatalf("expected fresh_only, got %q", resp.DistributionType)
	}
}

func TestAdjustBalanceAccumulates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	agentID := uuid.New()
	campaignID := uuid.New()

	if _, err := svc.AdjustBalance(context.Background(), agentID, transport.AdjustBalanceRequest{
		CampaignID: campaignID,
		DeltaCents: 5000,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := svc.AdjustBalance(context.Background(), agentID, transport.AdjustBalanceRequest{
		CampaignID: campaignID,
		DeltaCents: -1500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BalanceCents != 3500 {
		t.Fatalf("expected balance 3500, got %d", resp.BalanceCents)
	}
}
