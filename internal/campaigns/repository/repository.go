package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

const campaignNotFoundMessage = "campaign not found"

const campaignColumns = `id, name, description, price_per_lead_cents, price_per_second_chance_cents, admin_emails, is_active, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new campaigns repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a campaign by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return Campaign{}, fmt.Errorf("get campaign by id: %w", err)
	}

	return campaign, nil
}

// List retrieves all campaigns ordered by name.
func (r *Repo) List(ctx context.Context) ([]Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// ListActive retrieves only active campaigns ordered by name.
func (r *Repo) ListActive(ctx context.Context) ([]Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE is_active = true ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// Create creates a new campaign.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Campaign, error) {
	query := `
		INSERT INTO campaigns (name, description, price_per_lead_cents, price_per_second_chance_cents, admin_emails)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + campaignColumns

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query,
		params.Name, params.Description, params.PricePerLeadCents, params.PricePerSecondChanceCents, params.AdminEmails,
	))
	if err != nil {
		return Campaign{}, fmt.Errorf("create campaign: %w", err)
	}

	return campaign, nil
}

// Update updates an existing campaign.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Campaign, error) {
	query := `
		UPDATE campaigns SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price_per_lead_cents = COALESCE($4, price_per_lead_cents),
			price_per_second_chance_cents = COALESCE($5, price_per_second_chance_cents),
			admin_emails = COALESCE($6, admin_emails),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + campaignColumns

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.PricePerLeadCents, params.PricePerSecondChanceCents, params.AdminEmails,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return Campaign{}, fmt.Errorf("update campaign: %w", err)
	}

	return campaign, nil
}

// SetActive sets the is_active flag for a campaign.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	query := `UPDATE campaigns SET is_active = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, isActive)
	if err != nil {
		return fmt.Errorf("set campaign active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(campaignNotFoundMessage)
	}

	return nil
}

func scanCampaign(row pgx.Row) (Campaign, error) {
	var campaign Campaign
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&campaign.ID, &campaign.Name, &campaign.Description,
		&campaign.PricePerLeadCents, &campaign.PricePerSecondChanceCents,
		&campaign.AdminEmails, &campaign.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return Campaign{}, err
	}

	campaign.CreatedAt = createdAt.Format(time.RFC3339)
	campaign.UpdatedAt = updatedAt.Format(time.RFC3339)

	return campaign, nil
}

func scanCampaigns(rows pgx.Rows) ([]Campaign, error) {
	var results []Campaign

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		results = append(results, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}

	return results, nil
}
