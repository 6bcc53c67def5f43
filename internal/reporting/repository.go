package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keruru-amuri/spog-management/internal/items"
)

// Repository exposes the aggregate queries the report views rely on.
type Repository interface {
	UsageTotals(ctx context.Context, filter UsageFilter) ([]UsageRow, error)
	LowStock(ctx context.Context, locationID int64) ([]LowStockRow, error)
}

// PGRepository runs the report queries against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// UsageTotals sums ledger amounts per item over the window, busiest
// items first.
func (r *PGRepository) UsageTotals(ctx context.Context, filter UsageFilter) ([]UsageRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.code, i.name, i.consumption_unit, COALESCE(SUM(c.amount), 0), COUNT(c.id)
FROM consumption_records c
JOIN inventory_items i ON i.id = c.item_id
WHERE c.recorded_at BETWEEN COALESCE($1, '-infinity') AND COALESCE($2, 'infinity')
  AND ($3 = 0 OR i.location_id = $3)
GROUP BY i.id, i.code, i.name, i.consumption_unit
ORDER BY SUM(c.amount) DESC`, nullTime(filter.From), nullTime(filter.To), filter.LocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UsageRow{}
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.ItemID, &row.Code, &row.Name, &row.Unit, &row.TotalAmount, &row.Events); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LowStock lists items at or below their minimum threshold, most
// depleted first. Status is derived here the same way the item views
// derive it.
func (r *PGRepository) LowStock(ctx context.Context, locationID int64) ([]LowStockRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, location_id, unit, current_balance, min_threshold, critical_threshold
FROM inventory_items
WHERE current_balance <= min_threshold
  AND ($1 = 0 OR location_id = $1)
ORDER BY current_balance / NULLIF(min_threshold, 0) ASC NULLS FIRST, code`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LowStockRow{}
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ItemID, &row.Code, &row.Name, &row.LocationID, &row.Unit,
			&row.CurrentBalance, &row.MinThreshold, &row.CriticalThreshold); err != nil {
			return nil, err
		}
		row.Status = string(items.ComputeStatus(row.CurrentBalance, row.MinThreshold, row.CriticalThreshold))
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
