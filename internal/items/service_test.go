package items

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keruru-amuri/spog-management/internal/shared"
)

type memoryRepo struct {
	items     map[int64]Item
	locations map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item), locations: map[int64]bool{1: true}}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Item, error) {
	if it, ok := r.items[id]; ok {
		return it, nil
	}
	return Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (Item, error) {
	for _, it := range r.items {
		if it.Code == code {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("item %q: %w", code, shared.ErrNotFound)
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	out := []Item{}
	for _, it := range r.items {
		if filter.LocationID != 0 && it.LocationID != filter.LocationID {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, item Item) (Item, error) {
	for _, existing := range r.items {
		if existing.Code == item.Code {
			return Item{}, ErrCodeExists
		}
	}
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, patch Patch) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.LocationID != nil {
		it.LocationID = *patch.LocationID
	}
	if patch.Unit != nil {
		it.Unit = *patch.Unit
	}
	if patch.ConsumptionUnit != nil {
		it.ConsumptionUnit = *patch.ConsumptionUnit
	}
	if patch.MinThreshold != nil {
		it.MinThreshold = *patch.MinThreshold
	}
	if patch.CriticalThreshold != nil {
		it.CriticalThreshold = *patch.CriticalThreshold
	}
	r.items[id] = it
	return it, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) LocationExists(ctx context.Context, id int64) (bool, error) {
	return r.locations[id], nil
}

type recordingAudit struct {
	entries []shared.ActivityEntry
}

func (a *recordingAudit) Record(ctx context.Context, entry shared.ActivityEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func TestCreateDefaults(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit)
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateInput{
		Code:           "SEAL-001",
		Name:           "Polysulfide sealant",
		LocationID:     1,
		Unit:           "ml",
		OriginalAmount: 1000,
		ActorID:        7,
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, item.CurrentBalance)
	require.Equal(t, "ml", item.ConsumptionUnit)
	require.Equal(t, 200.0, item.MinThreshold)
	require.Equal(t, 100.0, item.CriticalThreshold)
	require.Equal(t, StatusNormal, item.Status)

	require.Len(t, audit.entries, 1)
	require.Equal(t, shared.ActionAddition, audit.entries[0].Action)
	require.Equal(t, item.ID, audit.entries[0].ItemID)
}

func TestCreateExplicitOverrides(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	balance := 400.0
	min := 350.0
	item, err := svc.Create(ctx, CreateInput{
		Code:            "GRS-002",
		Name:            "Bearing grease",
		LocationID:      1,
		Unit:            "g",
		ConsumptionUnit: "oz",
		OriginalAmount:  800,
		CurrentBalance:  &balance,
		MinThreshold:    &min,
	})
	require.NoError(t, err)
	require.Equal(t, 400.0, item.CurrentBalance)
	require.Equal(t, "oz", item.ConsumptionUnit)
	require.Equal(t, 350.0, item.MinThreshold)
	// Critical threshold still defaults from the original amount.
	require.Equal(t, 80.0, item.CriticalThreshold)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "x", LocationID: 1, Unit: "ml", OriginalAmount: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Code: "C", Name: "x", LocationID: 1, Unit: "ml", OriginalAmount: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Code: "C", Name: "x", LocationID: 99, Unit: "ml", OriginalAmount: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	input := CreateInput{Code: "OIL-1", Name: "Turbine oil", LocationID: 1, Unit: "l", OriginalAmount: 20}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	require.ErrorIs(t, err, ErrCodeExists)
}

func TestUpdatePatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Code: "P-1", Name: "Primer", LocationID: 1, Unit: "ml", OriginalAmount: 500})
	require.NoError(t, err)

	name := "Primer, grey"
	min := 450.0
	updated, err := svc.Update(ctx, created.ID, Patch{Name: &name, MinThreshold: &min})
	require.NoError(t, err)
	require.Equal(t, "Primer, grey", updated.Name)
	require.Equal(t, 450.0, updated.MinThreshold)
	// Untouched fields survive the patch.
	require.Equal(t, 500.0, updated.CurrentBalance)
	require.Equal(t, StatusLow, updated.Status)
}

func TestUpdateUnknownLocation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Code: "P-2", Name: "Paint", LocationID: 1, Unit: "l", OriginalAmount: 10})
	require.NoError(t, err)

	badLoc := int64(42)
	_, err = svc.Update(ctx, created.ID, Patch{LocationID: &badLoc})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetDerivesStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	balance := 90.0
	created, err := svc.Create(ctx, CreateInput{Code: "S-1", Name: "Solvent", LocationID: 1, Unit: "ml", OriginalAmount: 1000, CurrentBalance: &balance})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCritical, got.Status)
}
