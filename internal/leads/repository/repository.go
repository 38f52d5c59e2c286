package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

const leadColumns = `id, campaign_id, first_name, last_name, email, phone, state, origin, custom_fields, buyer_id, second_chance_buyer_id, fresh_order_id, second_chance_order_id, sold_at, second_chance_sold_at, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}

	return lead, nil
}

// List retrieves leads with filters and pagination, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	var campaignParam, buyerParam interface{}
	if params.CampaignID != nil {
		campaignParam = *params.CampaignID
	}
	if params.BuyerID != nil {
		buyerParam = *params.BuyerID
	}

	filter := `
		WHERE ($1::uuid IS NULL OR campaign_id = $1)
			AND ($2::uuid IS NULL OR buyer_id = $2 OR second_chance_buyer_id = $2)
			AND ($3::boolean = false OR fresh_order_id IS NULL)`

	var total int
	countQuery := `SELECT COUNT(*) FROM leads` + filter
	if err := r.pool.QueryRow(ctx, countQuery, campaignParam, buyerParam, params.Unsold).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + filter + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, campaignParam, buyerParam, params.Unsold, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// Create creates a single lead.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Lead, error) {
	customFields, err := marshalCustomFields(params.CustomFields)
	if err != nil {
		return Lead{}, err
	}

	query := `
		INSERT INTO leads (campaign_id, first_name, last_name, email, phone, state, origin, custom_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.CampaignID, params.FirstName, params.LastName, params.Email,
		params.Phone, params.State, params.Origin, customFields,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}

	return lead, nil
}

// CreateBatch inserts an import batch in one transaction and returns the
// number of rows written. An empty batch is a no-op.
func (r *Repo) CreateBatch(ctx context.Context, params []CreateParams) (int, error) {
	if len(params) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin lead batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO leads (campaign_id, first_name, last_name, email, phone, state, origin, custom_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for _, p := range params {
		customFields, err := marshalCustomFields(p.CustomFields)
		if err != nil {
			return 0, err
		}
		batch.Queue(query, p.CampaignID, p.FirstName, p.LastName, p.Email, p.Phone, p.State, p.Origin, customFields)
	}

	results := tx.SendBatch(ctx, batch)
	for range params {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("insert lead batch row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close lead batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit lead batch: %w", err)
	}

	return len(params), nil
}

// FindByName returns duplicate-match candidates for a campaign.
func (r *Repo) FindByName(ctx context.Context, campaignID uuid.UUID, lastName string) ([]Lead, error) {
	if lastName == "" {
		return nil, nil
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE campaign_id = $1 AND lower(left(last_name, 1)) = lower(left($2, 1))
		ORDER BY created_at DESC
		LIMIT 200`

	rows, err := r.pool.Query(ctx, query, campaignID, lastName)
	if err != nil {
		return nil, fmt.Errorf("find leads by name: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// LinkFresh records the fresh sale with the immutability guard in SQL.
func (r *Repo) LinkFresh(ctx context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (Lead, error) {
	query := `
		UPDATE leads
		SET buyer_id = $2, fresh_order_id = $3, sold_at = $4
		WHERE id = $1 AND fresh_order_id IS NULL
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, leadID, buyerID, orderID, soldAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.linkConflict(ctx, leadID, "lead already sold")
		}
		return Lead{}, fmt.Errorf("link fresh sale: %w", err)
	}

	return lead, nil
}

// LinkSecondChance records the second-chance sale. The fresh buyer never
// receives the same lead twice.
func (r *Repo) LinkSecondChance(ctx context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (Lead, error) {
	query := `
		UPDATE leads
		SET second_chance_buyer_id = $2, second_chance_order_id = $3, second_chance_sold_at = $4
		WHERE id = $1
			AND second_chance_order_id IS NULL
			AND (buyer_id IS NULL OR buyer_id <> $2)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, leadID, buyerID, orderID, soldAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.linkConflict(ctx, leadID, "lead not eligible for second chance sale")
		}
		return Lead{}, fmt.Errorf("link second chance sale: %w", err)
	}

	return lead, nil
}

// SoldTodayCount counts today's distributions to the agent, both legs.
func (r *Repo) SoldTodayCount(ctx context.Context, agentID, campaignID uuid.UUID) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM leads WHERE campaign_id = $2 AND buyer_id = $1 AND sold_at >= date_trunc('day', now() AT TIME ZONE 'utc'))
			+
			(SELECT COUNT(*) FROM leads WHERE campaign_id = $2 AND second_chance_buyer_id = $1 AND second_chance_sold_at >= date_trunc('day', now() AT TIME ZONE 'utc'))`

	var count int
	if err := r.pool.QueryRow(ctx, query, agentID, campaignID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads sold today: %w", err)
	}

	return count, nil
}

// linkConflict distinguishes a missing lead from a guarded update that
// matched no rows.
func (r *Repo) linkConflict(ctx context.Context, leadID uuid.UUID, message string) (Lead, error) {
	if _, err := r.GetByID(ctx, leadID); err != nil {
		return Lead{}, err
	}
	return Lead{}, apperr.Conflict(message)
}

func marshalCustomFields(fields map[string]string) ([]byte, error) {
	if len(fields) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal custom fields: %w", err)
	}
	return data, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var customFields []byte

	err := row.Scan(
		&lead.ID, &lead.CampaignID, &lead.FirstName, &lead.LastName,
		&lead.Email, &lead.Phone, &lead.State, &lead.Origin, &customFields,
		&lead.BuyerID, &lead.SecondChanceBuyerID,
		&lead.FreshOrderID, &lead.SecondChanceOrderID,
		&lead.SoldAt, &lead.SecondChanceSoldAt, &lead.CreatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &lead.CustomFields); err != nil {
			return Lead{}, fmt.Errorf("unmarshal custom fields: %w", err)
		}
	}

	return lead, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var results []Lead

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}
