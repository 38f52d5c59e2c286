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

const orderNotFoundMessage = "order not found"

const orderColumns = `
	id, campaign_id, agent_id, total_cents, order_type, status,
	fresh_target, second_chance_target, payment_id,
	priority, priority_history, rules, created_at, completed_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves an order by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get order by id: %w", err)
	}
	return o, nil
}

// GetByPaymentID retrieves the order created for an upstream payment.
func (r *Repo) GetByPaymentID(ctx context.Context, paymentID string) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get order by payment id: %w", err)
	}
	return o, nil
}

// List retrieves orders matching the filter, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Order, int, error) {
	limit := params.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	where := `
		WHERE ($1::uuid IS NULL OR campaign_id = $1)
			AND ($2::uuid IS NULL OR agent_id = $2)
			AND ($3::text IS NULL OR status = $3)`

	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM orders` + where
	if err := r.pool.QueryRow(ctx, countQuery, params.CampaignID, params.AgentID, statusParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, params.CampaignID, params.AgentID, statusParam, limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	results, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Create inserts a new open order.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Order, error) {
	rules, err := marshalRules(params.Rules)
	if err != nil {
		return Order{}, fmt.Errorf("encode order rules: %w", err)
	}

	query := `
		INSERT INTO orders (campaign_id, agent_id, total_cents, order_type, fresh_target, second_chance_target, payment_id, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query,
		params.CampaignID, params.AgentID, params.TotalCents, params.Type,
		params.FreshTarget, params.SecondChanceTarget, params.PaymentID, rules,
	))
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// Fulfillment counts the leads linked to the order on each leg.
func (r *Repo) Fulfillment(ctx context.Context, orderID uuid.UUID) (FulfillmentCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM leads WHERE fresh_order_id = $1),
			(SELECT COUNT(*) FROM leads WHERE second_chance_order_id = $1)`

	var counts FulfillmentCounts
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(&counts.Fresh, &counts.SecondChance); err != nil {
		return FulfillmentCounts{}, fmt.Errorf("count order fulfillment: %w", err)
	}
	return counts, nil
}

// Close flips an open order to closed. The status guard in the UPDATE keeps
// the call idempotent and the transition one-way.
func (r *Repo) Close(ctx context.Context, orderID uuid.UUID, completedAt time.Time) (Order, error) {
	query := `
		UPDATE orders SET status = 'closed', completed_at = $2
		WHERE id = $1 AND status = 'open'
		RETURNING ` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, completedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already closed (or missing): return the stored row unchanged.
			return r.GetByID(ctx, orderID)
		}
		return Order{}, fmt.Errorf("close order: %w", err)
	}
	return o, nil
}

// MostRecentClosed returns the newest closed order for the agent and campaign.
func (r *Repo) MostRecentClosed(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE agent_id = $1 AND campaign_id = $2 AND status = 'closed'
		ORDER BY created_at DESC
		LIMIT 1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, agentID, campaignID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get most recent closed order: %w", err)
	}
	return o, nil
}

// OldestOpenForFresh returns the earliest open order with fresh capacity left.
func (r *Repo) OldestOpenForFresh(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error) {
	return r.oldestOpenForLeg(ctx, agentID, campaignID, "fresh_target", "fresh_order_id")
}

// OldestOpenForSecondChance returns the earliest open order with
// second-chance capacity left.
func (r *Repo) OldestOpenForSecondChance(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error) {
	return r.oldestOpenForLeg(ctx, agentID, campaignID, "second_chance_target", "second_chance_order_id")
}

// oldestOpenForLeg treats "open" per leg: an order whose leg target is
// already met is skipped even while the stored status is still open because
// the other leg is outstanding. Ties break on earliest order date.
func (r *Repo) oldestOpenForLeg(ctx context.Context, agentID, campaignID uuid.UUID, targetCol, linkCol string) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.agent_id = $1 AND o.campaign_id = $2 AND o.status = 'open'
			AND o.` + targetCol + ` > (SELECT COUNT(*) FROM leads l WHERE l.` + linkCol + ` = o.id)
		ORDER BY o.created_at ASC
		LIMIT 1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, agentID, campaignID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get oldest open order for %s: %w", targetCol, err)
	}
	return o, nil
}

// LeadVolumeSince sums lead targets across the agent's campaign orders
// created on or after the cutoff.
func (r *Repo) LeadVolumeSince(ctx context.Context, agentID, campaignID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(fresh_target + second_chance_target), 0)
		FROM orders
		WHERE agent_id = $1 AND campaign_id = $2 AND created_at >= $3`

	var volume int
	if err := r.pool.QueryRow(ctx, query, agentID, campaignID, since).Scan(&volume); err != nil {
		return 0, fmt.Errorf("sum order lead volume: %w", err)
	}
	return volume, nil
}

// SetPriority activates a priority window, archiving the current one.
func (r *Repo) SetPriority(ctx context.Context, orderID uuid.UUID, window PriorityWindow) (Order, error) {
	encoded, err := json.Marshal(window)
	if err != nil {
		return Order{}, fmt.Errorf("encode priority window: %w", err)
	}

	query := `
		UPDATE orders SET
			priority_history = CASE
				WHEN priority IS NULL THEN priority_history
				ELSE priority_history || jsonb_build_array(priority)
			END,
			priority = $2
		WHERE id = $1
		RETURNING ` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, encoded))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("set order priority: %w", err)
	}
	return o, nil
}

func marshalRules(rules map[string]interface{}) ([]byte, error) {
	if rules == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(rules)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o           Order
		priorityRaw []byte
		historyRaw  []byte
		rulesRaw    []byte
	)

	err := row.Scan(
		&o.ID, &o.CampaignID, &o.AgentID, &o.TotalCents, &o.Type, &o.Status,
		&o.FreshTarget, &o.SecondChanceTarget, &o.PaymentID,
		&priorityRaw, &historyRaw, &rulesRaw, &o.CreatedAt, &o.CompletedAt,
	)
	if err != nil {
		return Order{}, err
	}

	if len(priorityRaw) > 0 {
		var window PriorityWindow
		if err := json.Unmarshal(priorityRaw, &window); err != nil {
			return Order{}, fmt.Errorf("decode order priority: %w", err)
		}
		o.Priority = &window
	}
	if len(historyRaw) > 0 {
		if err := json.Unmarshal(historyRaw, &o.PriorityHistory); err != nil {
			return Order{}, fmt.Errorf("decode order priority history: %w", err)
		}
	}
	if len(rulesRaw) > 0 {
		if err := json.Unmarshal(rulesRaw, &o.Rules); err != nil {
			return Order{}, fmt.Errorf("decode order rules: %w", err)
		}
	}

	return o, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var results []Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		results = append(results, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return results, nil
}
