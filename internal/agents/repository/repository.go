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

const (
	agentNotFoundMessage      = "agent not found"
	membershipNotFoundMessage = "agent is not a member of this campaign"
)

const agentColumns = `id, name, email, phone, company, distribution_type, crm_webhook_url, crm_auth_token, is_active, created_at, updated_at`

const membershipColumns = `agent_id, campaign_id, balance_cents, lead_price_override_cents, second_chance_price_override_cents, daily_lead_limit, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves an agent by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	agent, err := scanAgent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("get agent by id: %w", err)
	}

	return agent, nil
}

// GetByEmail retrieves an agent by email.
func (r *Repo) GetByEmail(ctx context.Context, email string) (Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE lower(email) = lower($1)`

	agent, err := scanAgent(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("get agent by email: %w", err)
	}

	return agent, nil
}

// List retrieves all agents ordered by name.
func (r *Repo) List(ctx context.Context) ([]Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var results []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		results = append(results, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return results, nil
}

// Create creates a new agent.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Agent, error) {
	query := `
		INSERT INTO agents (name, email, phone, company, distribution_type, crm_webhook_url, crm_auth_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + agentColumns

	agent, err := scanAgent(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Company,
		params.DistributionType, params.CRMWebhookURL, params.CRMAuthToken,
	))
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}

	return agent, nil
}

// Update updates an existing agent.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Agent, error) {
	query := `
		UPDATE agents SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			company = COALESCE($5, company),
			distribution_type = COALESCE($6, distribution_type),
			crm_webhook_url = COALESCE($7, crm_webhook_url),
			crm_auth_token = COALESCE($8, crm_auth_token),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + agentColumns

	agent, err := scanAgent(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Email, params.Phone, params.Company,
		params.DistributionType, params.CRMWebhookURL, params.CRMAuthToken,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("update agent: %w", err)
	}

	return agent, nil
}

// SetActive sets the is_active flag for an agent.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	query := `UPDATE agents SET is_active = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, isActive)
	if err != nil {
		return fmt.Errorf("set agent active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMessage)
	}

	return nil
}

// GetMembership retrieves an agent's membership in a campaign.
func (r *Repo) GetMembership(ctx context.Context, agentID, campaignID uuid.UUID) (Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM agent_campaigns WHERE agent_id = $1 AND campaign_id = $2`

	membership, err := scanMembership(r.pool.QueryRow(ctx, query, agentID, campaignID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, apperr.NotFound(membershipNotFoundMessage)
		}
		return Membership{}, fmt.Errorf("get membership: %w", err)
	}

	return membership, nil
}

// ListMemberships retrieves all campaign memberships for an agent.
func (r *Repo) ListMemberships(ctx context.Context, agentID uuid.UUID) ([]Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM agent_campaigns WHERE agent_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var results []Membership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		results = append(results, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return results, nil
}

// UpsertMembership creates or updates an agent's membership in a campaign.
// Omitted override and limit fields keep their stored values on conflict.
func (r *Repo) UpsertMembership(ctx context.Context, params MembershipParams) (Membership, error) {
	query := `
		INSERT INTO agent_campaigns (agent_id, campaign_id, lead_price_override_cents, second_chance_price_override_cents, daily_lead_limit)
		VALUES ($1, $2, $3, $4, COALESCE($5, 0))
		ON CONFLICT (agent_id, campaign_id) DO UPDATE SET
			lead_price_override_cents = COALESCE($3, agent_campaigns.lead_price_override_cents),
			second_chance_price_override_cents = COALESCE($4, agent_campaigns.second_chance_price_override_cents),
			daily_lead_limit = COALESCE($5, agent_campaigns.daily_lead_limit),
			updated_at = now()
		RETURNING ` + membershipColumns

	membership, err := scanMembership(r.pool.QueryRow(ctx, query,
		params.AgentID, params.CampaignID,
		params.LeadPriceOverrideCents, params.SecondChancePriceOverrideCents, params.DailyLeadLimit,
	))
	if err != nil {
		return Membership{}, fmt.Errorf("upsert membership: %w", err)
	}

	return membership, nil
}

// SetDailyLeadLimit writes the recalculated daily distribution cap.
func (r *Repo) SetDailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID, limit int) error {
	query := `UPDATE agent_campaigns SET daily_lead_limit = $3, updated_at = now() WHERE agent_id = $1 AND campaign_id = $2`

	result, err := r.pool.Exec(ctx, query, agentID, campaignID, limit)
	if err != nil {
		return fmt.Errorf("set daily lead limit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(membershipNotFoundMessage)
	}

	return nil
}

// AdjustBalance adds delta to the membership balance atomically.
func (r *Repo) AdjustBalance(ctx context.Context, agentID, campaignID uuid.UUID, deltaCents int64) (int64, error) {
	query := `
		UPDATE agent_campaigns
		SET balance_cents = balance_cents + $3, updated_at = now()
		WHERE agent_id = $1 AND campaign_id = $2
		RETURNING balance_cents`

	var balance int64
	err := r.pool.QueryRow(ctx, query, agentID, campaignID, deltaCents).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound(membershipNotFoundMessage)
		}
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	return balance, nil
}

func scanAgent(row pgx.Row) (Agent, error) {
	var agent Agent
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&agent.ID, &agent.Name, &agent.Email, &agent.Phone, &agent.Company,
		&agent.DistributionType, &agent.CRMWebhookURL, &agent.CRMAuthToken,
		&agent.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return Agent{}, err
	}

	agent.CreatedAt = createdAt.Format(time.RFC3339)
	agent.UpdatedAt = updatedAt.Format(time.RFC3339)

	return agent, nil
}

func scanMembership(row pgx.Row) (Membership, error) {
	var membership Membership
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&membership.AgentID, &membership.CampaignID, &membership.BalanceCents,
		&membership.LeadPriceOverrideCents, &membership.SecondChancePriceOverrideCents,
		&membership.DailyLeadLimit, &createdAt, &updatedAt,
	)
	if err != nil {
		return Membership{}, err
	}

	membership.CreatedAt = createdAt.Format(time.RFC3339)
	membership.UpdatedAt = updatedAt.Format(time.RFC3339)

	return membership, nil
}
