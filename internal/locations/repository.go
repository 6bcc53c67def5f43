package locations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keruru-amuri/spog-management/internal/shared"
)

// Repository abstracts location persistence.
type Repository interface {
	List(ctx context.Context) ([]Location, error)
	Get(ctx context.Context, id int64) (Location, error)
	Create(ctx context.Context, loc Location) (Location, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository persists locations in PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, created_at, updated_at FROM locations ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Code, &loc.Name, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, created_at, updated_at FROM locations WHERE id=$1`, id).
		Scan(&loc.ID, &loc.Code, &loc.Name, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, fmt.Errorf("location %d: %w", id, shared.ErrNotFound)
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *repository) Create(ctx context.Context, loc Location) (Location, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `INSERT INTO locations (code, name, created_at, updated_at) VALUES ($1,$2,$3,$3)
RETURNING id, code, name, created_at, updated_at`, loc.Code, loc.Name, now).
		Scan(&loc.ID, &loc.Code, &loc.Name, &loc.CreatedAt, &loc.UpdatedAt)
	return loc, err
}
