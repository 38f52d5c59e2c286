package service

import (
	"context"

	"github.com/google/uuid"

	"leadmarket_backend/internal/campaigns/repository"
	"leadmarket_backend/internal/campaigns/transport"
	"leadmarket_backend/platform/logger"
)

// Service provides business logic for campaigns.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new campaigns service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves a campaign by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CampaignResponse, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	return toResponse(campaign), nil
}

// List retrieves all campaigns.
func (s *Service) List(ctx context.Context) (transport.CampaignListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.CampaignListResponse{}, err
	}
	return toListResponse(items), nil
}

// ListActive retrieves only active campaigns.
func (s *Service) ListActive(ctx context.Context) (transport.CampaignListResponse, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return transport.CampaignListResponse{}, err
	}
	return toListResponse(items), nil
}

// Create creates a new campaign.
func (s *Service) Create(ctx context.Context, req transport.CreateCampaignRequest) (transport.CampaignResponse, error) {
	campaign, err := s.repo.Create(ctx, repository.CreateParams{
		Name:                      req.Name,
		Description:               req.Description,
		PricePerLeadCents:         req.PricePerLeadCents,
		PricePerSecondChanceCents: req.PricePerSecondChanceCents,
		AdminEmails:               req.AdminEmails,
	})
	if err != nil {
		return transport.CampaignResponse{}, err
	}

	s.log.Info("campaign created", "id", campaign.ID, "name", campaign.Name)
	return toResponse(campaign), nil
}

// Update updates an existing campaign.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCampaignRequest) (transport.CampaignResponse, error) {
	campaign, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:                        id,
		Name:                      req.Name,
		Description:               req.Description,
		PricePerLeadCents:         req.PricePerLeadCents,
		PricePerSecondChanceCents: req.PricePerSecondChanceCents,
		AdminEmails:               req.AdminEmails,
	})
	if err != nil {
		return transport.CampaignResponse{}, err
	}

	s.log.Info("campaign updated", "id", campaign.ID, "name", campaign.Name)
	return toResponse(campaign), nil
}

// SetActive activates or deactivates a campaign. Deactivation stops new
// orders and imports; existing orders keep fulfilling.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (transport.CampaignResponse, error) {
	if err := s.repo.SetActive(ctx, id, isActive); err != nil {
		return transport.CampaignResponse{}, err
	}

	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}

	s.log.Info("campaign active changed", "id", id, "isActive", isActive)
	return toResponse(campaign), nil
}

func toResponse(campaign repository.Campaign) transport.CampaignResponse {
	return transport.CampaignResponse{
		ID:                        campaign.ID,
		Name:                      campaign.Name,
		Description:               campaign.Description,
		PricePerLeadCents:         campaign.PricePerLeadCents,
		PricePerSecondChanceCents: campaign.PricePerSecondChanceCents,
		AdminEmails:               campaign.AdminEmails,
		IsActive:                  campaign.IsActive,
		CreatedAt:                 campaign.CreatedAt,
		UpdatedAt:                 campaign.UpdatedAt,
	}
}

func toListResponse(items []repository.Campaign) transport.CampaignListResponse {
	responses := make([]transport.CampaignResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.CampaignListResponse{Items: responses, Total: len(items)}
}
