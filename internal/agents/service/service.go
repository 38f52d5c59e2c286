package service

import (
	"context"

	"github.com/google/uuid"

	"leadmarket_backend/internal/agents/repository"
	"leadmarket_backend/internal/agents/transport"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/phone"
)

// DefaultDistributionType is assigned to agents that never expressed a
// preference.
const DefaultDistributionType = "mixed"

// Service provides business logic for agents and their campaign memberships.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new agents service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves an agent by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return toResponse(agent), nil
}

// List retrieves all agents.
func (s *Service) List(ctx context.Context) (transport.AgentListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.AgentListResponse{}, err
	}

	responses := make([]transport.AgentResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.AgentListResponse{Items: responses, Total: len(items)}, nil
}

// Create registers a new agent. Phone numbers are normalized to E.164 when
// present; normalization failures keep the raw input.
func (s *Service) Create(ctx context.Context, req transport.CreateAgentRequest) (transport.AgentResponse, error) {
	distributionType := req.DistributionType
	if distributionType == "" {
		distributionType = DefaultDistributionType
	}

	agent, err := s.repo.Create(ctx, repository.CreateParams{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            phone.NormalizeE164(req.Phone),
		Company:          req.Company,
		DistributionType: distributionType,
		CRMWebhookURL:    req.CRMWebhookURL,
		CRMAuthToken:     req.CRMAuthToken,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent created", "id", agent.ID, "name", agent.Name)
	return toResponse(agent), nil
}

// Update updates an existing agent.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgentRequest) (transport.AgentResponse, error) {
	phoneNumber := req.Phone
	if phoneNumber != nil {
		normalized := phone.NormalizeE164(*phoneNumber)
		phoneNumber = &normalized
	}

	agent, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:               id,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            phoneNumber,
		Company:          req.Company,
		DistributionType: req.DistributionType,
		CRMWebhookURL:    req.CRMWebhookURL,
		CRMAuthToken:     req.CRMAuthToken,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent updated", "id", agent.ID)
	return toResponse(agent), nil
}

// SetActive activates or deactivates an agent.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (transport.AgentResponse, error) {
	if err := s.repo.SetActive(ctx, id, isActive); err != nil {
		return transport.AgentResponse{}, err
	}

	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent active changed", "id", id, "isActive", isActive)
	return toResponse(agent), nil
}

// ListMemberships retrieves all campaign memberships for an agent.
func (s *Service) ListMemberships(ctx context.Context, agentID uuid.UUID) (transport.MembershipListResponse, error) {
	items, err := s.repo.ListMemberships(ctx, agentID)
	if err != nil {
		return transport.MembershipListResponse{}, err
	}

	responses := make([]transport.MembershipResponse, len(items))
	for i, item := range items {
		responses[i] = toMembershipResponse(item)
	}
	return transport.MembershipListResponse{Items: responses, Total: len(items)}, nil
}

// UpsertMembership enrolls an agent in a campaign or updates the terms.
func (s *Service) UpsertMembership(ctx context.Context, agentID uuid.UUID, req transport.UpsertMembershipRequest) (transport.MembershipResponse, error) {
	membership, err := s.repo.UpsertMembership(ctx, repository.MembershipParams{
		AgentID:                        agentID,
		CampaignID:                     req.CampaignID,
		LeadPriceOverrideCents:         req.LeadPriceOverrideCents,
		SecondChancePriceOverrideCents: req.SecondChancePriceOverrideCents,
		DailyLeadLimit:                 req.DailyLeadLimit,
	})
	if err != nil {
		return transport.MembershipResponse{}, err
	}

	s.log.Info("membership upserted", "agentId", agentID, "campaignId", req.CampaignID)
	return toMembershipResponse(membership), nil
}

// AdjustBalance credits or debits a membership balance.
func (s *Service) AdjustBalance(ctx context.Context, agentID uuid.UUID, req transport.AdjustBalanceRequest) (transport.BalanceResponse, error) {
	balance, err := s.repo.AdjustBalance(ctx, agentID, req.CampaignID, req.DeltaCents)
	if err != nil {
		return transport.BalanceResponse{}, err
	}

	s.log.Info("membership balance adjusted",
		"agentId", agentID, "campaignId", req.CampaignID,
		"deltaCents", req.DeltaCents, "balanceCents", balance,
	)
	return transport.BalanceResponse{
		AgentID:      agentID,
		CampaignID:   req.CampaignID,
		BalanceCents: balance,
	}, nil
}

func toResponse(agent repository.Agent) transport.AgentResponse {
	return transport.AgentResponse{
		ID:               agent.ID,
		Name:             agent.Name,
		Email:            agent.Email,
		Phone:            agent.Phone,
		Company:          agent.Company,
		DistributionType: agent.DistributionType,
		CRMWebhookURL:    agent.CRMWebhookURL,
		IsActive:         agent.IsActive,
		CreatedAt:        agent.CreatedAt,
		UpdatedAt:        agent.UpdatedAt,
	}
}

func toMembershipResponse(membership repository.Membership) transport.MembershipResponse {
	return transport.MembershipResponse{
		AgentID:                        membership.AgentID,
		CampaignID:                     membership.CampaignID,
		BalanceCents:                   membership.BalanceCents,
		LeadPriceOverrideCents:         membership.LeadPriceOverrideCents,
		SecondChancePriceOverrideCents: membership.SecondChancePriceOverrideCents,
		DailyLeadLimit:                 membership.DailyLeadLimit,
		CreatedAt:                      membership.CreatedAt,
		UpdatedAt:                      membership.UpdatedAt,
	}
}
