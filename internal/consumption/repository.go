package consumption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keruru-amuri/spog-management/internal/items"
	"github.com/keruru-amuri/spog-management/internal/platform/db"
	"github.com/keruru-amuri/spog-management/internal/shared"
)

// TxRepository exposes the operations the coordinator runs inside one
// transaction. The item row stays locked from GetItemForUpdate until
// commit, serializing concurrent transactions per item.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, itemID int64) (items.Item, error)
	UpdateItemBalance(ctx context.Context, itemID int64, newBalance float64) error
	InsertRecord(ctx context.Context, rec Record) error
	RecordActivity(ctx context.Context, entry shared.ActivityEntry) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
}

// Repository persists the transaction core in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListRecords reads ledger entries, newest first.
func (r *Repository) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, actor_id, amount, reason, recorded_at
FROM consumption_records
WHERE ($1 = 0 OR item_id = $1)
  AND recorded_at BETWEEN COALESCE($2, '-infinity') AND COALESCE($3, 'infinity')
ORDER BY recorded_at DESC, id DESC
LIMIT $4`, filter.ItemID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.ActorID, &rec.Amount, &rec.Reason, &rec.RecordedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, itemID int64) (items.Item, error) {
	var it items.Item
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, location_id, unit, consumption_unit, current_balance, original_amount, min_threshold, critical_threshold, created_at, updated_at
FROM inventory_items WHERE id=$1 FOR UPDATE`, itemID).
		Scan(&it.ID, &it.Code, &it.Name, &it.LocationID, &it.Unit, &it.ConsumptionUnit,
			&it.CurrentBalance, &it.OriginalAmount, &it.MinThreshold, &it.CriticalThreshold,
			&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return items.Item{}, fmt.Errorf("item %d: %w", itemID, shared.ErrNotFound)
		}
		return items.Item{}, err
	}
	return it, nil
}

func (r *txRepository) UpdateItemBalance(ctx context.Context, itemID int64, newBalance float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inventory_items SET current_balance=$2, updated_at=NOW() WHERE id=$1`, itemID, newBalance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", itemID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertRecord(ctx context.Context, rec Record) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO consumption_records (id, item_id, actor_id, amount, reason, recorded_at)
VALUES ($1,$2,$3,$4,$5,$6)`, rec.ID, rec.ItemID, rec.ActorID, rec.Amount, rec.Reason, rec.RecordedAt)
	return err
}

func (r *txRepository) RecordActivity(ctx context.Context, entry shared.ActivityEntry) error {
	return shared.NewActivityLogger(r.tx).Record(ctx, entry)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
