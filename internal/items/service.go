package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keruru-amuri/spog-management/internal/shared"
)

// AuditPort records activity log entries.
type AuditPort interface {
	Record(ctx context.Context, entry shared.ActivityEntry) error
}

// CreateInput carries the fields for the add-item operation.
type CreateInput struct {
	Code              string
	Name              string
	LocationID        int64
	Unit              string
	ConsumptionUnit   string
	OriginalAmount    float64
	CurrentBalance    *float64
	MinThreshold      *float64
	CriticalThreshold *float64
	ActorID           int64
}

// Patch is a partial update; nil fields are left unchanged. Balances
// are deliberately absent: they move only through the consumption
// coordinator or the adjustment path.
type Patch struct {
	Name              *string
	LocationID        *int64
	Unit              *string
	ConsumptionUnit   *string
	MinThreshold      *float64
	CriticalThreshold *float64
}

// ErrValidation wraps input validation failures on item operations.
var ErrValidation = errors.New("items: validation failed")

// Service exposes the item store operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Get fetches an item by id with its status derived.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("%w: invalid item id", ErrValidation)
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return item.WithStatus(), nil
}

// GetByCode fetches an item by its user-assigned code.
func (s *Service) GetByCode(ctx context.Context, code string) (Item, error) {
	if strings.TrimSpace(code) == "" {
		return Item{}, fmt.Errorf("%w: item code required", ErrValidation)
	}
	item, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Item{}, err
	}
	return item.WithStatus(), nil
}

// List returns items, optionally filtered by location, with statuses
// derived.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range items {
		items[i] = items[i].WithStatus()
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Create adds a new item, applying the documented defaults: balance
// falls back to the original amount, consumption unit to the stocking
// unit, thresholds to 20%/10% of the original amount (floored).
func (s *Service) Create(ctx context.Context, input CreateInput) (Item, error) {
	if strings.TrimSpace(input.Code) == "" {
		return Item{}, fmt.Errorf("%w: item code required", ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return Item{}, fmt.Errorf("%w: item name required", ErrValidation)
	}
	if strings.TrimSpace(input.Unit) == "" {
		return Item{}, fmt.Errorf("%w: stocking unit required", ErrValidation)
	}
	if input.OriginalAmount <= 0 {
		return Item{}, fmt.Errorf("%w: original amount must be positive", ErrValidation)
	}
	if input.LocationID <= 0 {
		return Item{}, fmt.Errorf("%w: location required", ErrValidation)
	}
	exists, err := s.repo.LocationExists(ctx, input.LocationID)
	if err != nil {
		return Item{}, err
	}
	if !exists {
		return Item{}, fmt.Errorf("location %d: %w", input.LocationID, shared.ErrNotFound)
	}

	item := Item{
		Code:            strings.TrimSpace(input.Code),
		Name:            strings.TrimSpace(input.Name),
		LocationID:      input.LocationID,
		Unit:            strings.TrimSpace(input.Unit),
		ConsumptionUnit: strings.TrimSpace(input.ConsumptionUnit),
		OriginalAmount:  input.OriginalAmount,
	}
	if item.ConsumptionUnit == "" {
		item.ConsumptionUnit = item.Unit
	}
	if input.CurrentBalance != nil {
		if *input.CurrentBalance < 0 {
			return Item{}, fmt.Errorf("%w: balance must be non-negative", ErrValidation)
		}
		item.CurrentBalance = *input.CurrentBalance
	} else {
		item.CurrentBalance = input.OriginalAmount
	}
	defMin, defCritical := DefaultThresholds(input.OriginalAmount)
	item.MinThreshold = defMin
	item.CriticalThreshold = defCritical
	if input.MinThreshold != nil {
		item.MinThreshold = *input.MinThreshold
	}
	if input.CriticalThreshold != nil {
		item.CriticalThreshold = *input.CriticalThreshold
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return Item{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.ActivityEntry{
			ActorID: input.ActorID,
			Action:  shared.ActionAddition,
			ItemID:  created.ID,
			Details: map[string]any{
				"code":    created.Code,
				"amount":  created.CurrentBalance,
				"unit":    created.Unit,
				"balance": created.CurrentBalance,
			},
		})
	}
	return created.WithStatus(), nil
}

// Update applies a partial patch. Status is never stored, so no
// recomputation is persisted.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("%w: invalid item id", ErrValidation)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Item{}, fmt.Errorf("%w: item name required", ErrValidation)
	}
	if patch.Unit != nil && strings.TrimSpace(*patch.Unit) == "" {
		return Item{}, fmt.Errorf("%w: stocking unit required", ErrValidation)
	}
	if patch.MinThreshold != nil && *patch.MinThreshold < 0 {
		return Item{}, fmt.Errorf("%w: min threshold must be non-negative", ErrValidation)
	}
	if patch.CriticalThreshold != nil && *patch.CriticalThreshold < 0 {
		return Item{}, fmt.Errorf("%w: critical threshold must be non-negative", ErrValidation)
	}
	if patch.LocationID != nil {
		exists, err := s.repo.LocationExists(ctx, *patch.LocationID)
		if err != nil {
			return Item{}, err
		}
		if !exists {
			return Item{}, fmt.Errorf("location %d: %w", *patch.LocationID, shared.ErrNotFound)
		}
	}
	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Item{}, err
	}
	return item.WithStatus(), nil
}

// Delete removes an item. Admin CRUD operation, outside the
// transaction core.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid item id", ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
