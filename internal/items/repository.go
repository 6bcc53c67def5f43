package items

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keruru-amuri/spog-management/internal/shared"
)

// Repository abstracts item persistence for the service.
type Repository interface {
	Get(ctx context.Context, id int64) (Item, error)
	GetByCode(ctx context.Context, code string) (Item, error)
	List(ctx context.Context, filter ListFilter) ([]Item, int, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id int64, patch Patch) (Item, error)
	Delete(ctx context.Context, id int64) error
	LocationExists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository persists items in PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, code, name, location_id, unit, consumption_unit, current_balance, original_amount, min_threshold, critical_threshold, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Code, &it.Name, &it.LocationID, &it.Unit, &it.ConsumptionUnit,
		&it.CurrentBalance, &it.OriginalAmount, &it.MinThreshold, &it.CriticalThreshold,
		&it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %q: %w", code, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM inventory_items WHERE 1=1`
	args := []any{}
	if filter.LocationID != 0 {
		args = append(args, filter.LocationID)
		clause := ` AND location_id=$` + strconv.Itoa(len(args))
		query += clause
		countQuery += clause
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY code ASC`
	if filter.PerPage > 0 {
		args = append(args, filter.PerPage)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filter.Page - 1) * filter.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	now := time.Now().UTC()
	it, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO inventory_items
(code, name, location_id, unit, consumption_unit, current_balance, original_amount, min_threshold, critical_threshold, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING `+itemColumns,
		item.Code, item.Name, item.LocationID, item.Unit, item.ConsumptionUnit,
		item.CurrentBalance, item.OriginalAmount, item.MinThreshold, item.CriticalThreshold, now))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, ErrCodeExists
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) Update(ctx context.Context, id int64, patch Patch) (Item, error) {
	set := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+"=$"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.LocationID != nil {
		add("location_id", *patch.LocationID)
	}
	if patch.Unit != nil {
		add("unit", *patch.Unit)
	}
	if patch.ConsumptionUnit != nil {
		add("consumption_unit", *patch.ConsumptionUnit)
	}
	if patch.MinThreshold != nil {
		add("min_threshold", *patch.MinThreshold)
	}
	if patch.CriticalThreshold != nil {
		add("critical_threshold", *patch.CriticalThreshold)
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := `UPDATE inventory_items SET `
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += ` WHERE id=$` + strconv.Itoa(len(args)) + ` RETURNING ` + itemColumns

	it, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) LocationExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}
