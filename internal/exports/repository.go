package exports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaleRow is one sold lead leg flattened for CSV export. A lead sold twice
// appears as two rows, one per leg.
type SaleRow struct {
	LeadID     uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	State      string
	Origin     string
	AgentName  string
	AgentEmail string
	OrderID    uuid.UUID
	Leg        string
	SoldAt     time.Time
}

// Repository reads sold leads for export.
type Repository interface {
	ListSales(ctx context.Context, campaignID uuid.UUID, from, to time.Time) ([]SaleRow, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates an exports repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// ListSales returns both sale legs of a campaign's leads within [from, to),
// ordered by sale time.
func (r *Repo) ListSales(ctx context.Context, campaignID uuid.UUID, from, to time.Time) ([]SaleRow, error) {
	query := `
		SELECT l.id, l.first_name, l.last_name, l.email, l.phone, l.state, l.origin,
		       a.name, a.email, l.fresh_order_id, 'fresh', l.sold_at
		FROM leads l
		JOIN agents a ON a.id = l.buyer_id
		WHERE l.campaign_id = $1 AND l.sold_at >= $2 AND l.sold_at < $3
		UNION ALL
		SELECT l.id, l.first_name, l.last_name, l.email, l.phone, l.state, l.origin,
		       a.name, a.email, l.second_chance_order_id, 'second_chance', l.second_chance_sold_at
		FROM leads l
		JOIN agents a ON a.id = l.second_chance_buyer_id
		WHERE l.campaign_id = $1 AND l.second_chance_sold_at >= $2 AND l.second_chance_sold_at < $3
		ORDER BY 12 ASC`

	rows, err := r.pool.Query(ctx, query, campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []SaleRow
	for rows.Next() {
		var row SaleRow
		if err := rows.Scan(
			&row.LeadID, &row.FirstName, &row.LastName, &row.Email, &row.Phone,
			&row.State, &row.Origin, &row.AgentName, &row.AgentEmail,
			&row.OrderID, &row.Leg, &row.SoldAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		sales = append(sales, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale rows: %w", err)
	}

	return sales, nil
}
