package consumption

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keruru-amuri/spog-management/internal/items"
	"github.com/keruru-amuri/spog-management/internal/shared"
)

// memoryRepo emulates the datastore: WithTx holds a mutex for the whole
// callback (standing in for the row lock) and applies staged writes
// only on success, so a failed transaction leaves no partial effects.
type memoryRepo struct {
	mu         sync.Mutex
	items      map[int64]items.Item
	records    []Record
	activities []shared.ActivityEntry

	// failOn forces an error in the named tx step to exercise rollback.
	failOn string
}

type memoryTx struct {
	repo       *memoryRepo
	balances   map[int64]float64
	records    []Record
	activities []shared.ActivityEntry
}

func newMemoryRepo(seed ...items.Item) *memoryRepo {
	repo := &memoryRepo{items: make(map[int64]items.Item)}
	for _, it := range seed {
		repo.items[it.ID] = it
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{repo: r, balances: make(map[int64]float64)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, balance := range tx.balances {
		it := r.items[id]
		it.CurrentBalance = balance
		r.items[id] = it
	}
	r.records = append(r.records, tx.records...)
	r.activities = append(r.activities, tx.activities...)
	return nil
}

func (r *memoryRepo) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *memoryRepo) balance(id int64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].CurrentBalance
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, itemID int64) (items.Item, error) {
	it, ok := tx.repo.items[itemID]
	if !ok {
		return items.Item{}, fmt.Errorf("item %d: %w", itemID, shared.ErrNotFound)
	}
	return it, nil
}

func (tx *memoryTx) UpdateItemBalance(ctx context.Context, itemID int64, newBalance float64) error {
	if tx.repo.failOn == "update_balance" {
		return errors.New("boom")
	}
	tx.balances[itemID] = newBalance
	return nil
}

func (tx *memoryTx) InsertRecord(ctx context.Context, rec Record) error {
	if tx.repo.failOn == "insert_record" {
		return errors.New("boom")
	}
	tx.records = append(tx.records, rec)
	return nil
}

func (tx *memoryTx) RecordActivity(ctx context.Context, entry shared.ActivityEntry) error {
	if tx.repo.failOn == "record_activity" {
		return errors.New("boom")
	}
	tx.activities = append(tx.activities, entry)
	return nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *memoryIdempotency) Claim(ctx context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *memoryIdempotency) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func sealantItem() items.Item {
	return items.Item{
		ID:                1,
		Code:              "SEAL-001",
		Name:              "Polysulfide sealant",
		LocationID:        1,
		Unit:              "ml",
		ConsumptionUnit:   "ml",
		CurrentBalance:    100,
		OriginalAmount:    1000,
		MinThreshold:      200,
		CriticalThreshold: 100,
	}
}

func TestRecordConsumption(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, ActorID: 7, Amount: 40, Reason: "wing panel"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Item)
	require.InDelta(t, 60.0, result.Item.CurrentBalance, 1e-9)
	require.Equal(t, items.StatusCritical, result.Item.Status)
	require.InDelta(t, 60.0, repo.balance(1), 1e-9)

	require.Len(t, repo.records, 1)
	require.Equal(t, 40.0, repo.records[0].Amount)
	require.Equal(t, int64(7), repo.records[0].ActorID)

	require.Len(t, repo.activities, 1)
	entry := repo.activities[0]
	require.Equal(t, shared.ActionConsumption, entry.Action)
	require.Equal(t, 100.0, entry.Details["previous_balance"])
	require.Equal(t, 60.0, entry.Details["new_balance"])
}

func TestRecordConsumptionInsufficient(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, ActorID: 7, Amount: 150})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "100.000 ml available")
	require.Contains(t, result.Message, "150.000 ml")

	// No mutation, no ledger entry, no activity entry.
	require.InDelta(t, 100.0, repo.balance(1), 1e-9)
	require.Empty(t, repo.records)
	require.Empty(t, repo.activities)
}

func TestRecordConsumptionConvertsBeforeCheck(t *testing.T) {
	item := sealantItem()
	item.Unit = "l"
	item.ConsumptionUnit = "ml"
	item.CurrentBalance = 5
	item.MinThreshold = 1
	item.CriticalThreshold = 0.5
	repo := newMemoryRepo(item)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 4000})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.InDelta(t, 1.0, result.Item.CurrentBalance, 1e-9)
	// Ledger keeps the entered amount, not the converted one.
	require.Equal(t, 4000.0, repo.records[0].Amount)
	require.Equal(t, 4.0, repo.activities[0].Details["converted_amount"])

	result, err = svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 6000})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.False(t, result.Success)
	require.InDelta(t, 1.0, repo.balance(1), 1e-9)
}

func TestRecordConsumptionUnsupportedConversionFallback(t *testing.T) {
	item := sealantItem()
	item.Unit = "l"
	item.ConsumptionUnit = "shots"
	item.CurrentBalance = 10
	repo := newMemoryRepo(item)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 3})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.Warning)
	// Fallback applies the entered amount as if already in litres.
	require.InDelta(t, 7.0, result.Item.CurrentBalance, 1e-9)
}

func TestRecordConsumptionExactBalance(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 100})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 0.0, result.Item.CurrentBalance)
}

func TestRecordConsumptionNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.RecordConsumption(context.Background(), ConsumeInput{ItemID: 9, Amount: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.False(t, result.Success)
}

func TestRecordConsumptionInvalidAmount(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: -5})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.InDelta(t, 100.0, repo.balance(1), 1e-9)
}

func TestRecordConsumptionRollsBackOnLedgerFailure(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	repo.failOn = "insert_record"
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.RecordConsumption(context.Background(), ConsumeInput{ItemID: 1, Amount: 40})
	require.Error(t, err)
	require.False(t, result.Success)
	// The balance update is rolled back with the rest of the tx.
	require.InDelta(t, 100.0, repo.balance(1), 1e-9)
	require.Empty(t, repo.records)
}

func TestRecordConsumptionIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	idem := &memoryIdempotency{}
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()

	input := ConsumeInput{ItemID: 1, Amount: 10, IdempotencyKey: "req-1"}
	_, err := svc.RecordConsumption(ctx, input)
	require.NoError(t, err)

	_, err = svc.RecordConsumption(ctx, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.InDelta(t, 90.0, repo.balance(1), 1e-9)

	// A failed transaction releases its key so the client may retry.
	failRepo := newMemoryRepo(sealantItem())
	failRepo.failOn = "insert_record"
	failSvc := NewService(failRepo, nil, idem, nil)
	_, err = failSvc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 10, IdempotencyKey: "req-2"})
	require.Error(t, err)
	failRepo.failOn = ""
	_, err = failSvc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 10, IdempotencyKey: "req-2"})
	require.NoError(t, err)
}

func TestAdjustBalance(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.AdjustBalance(ctx, AdjustInput{ItemID: 1, ActorID: 3, NewBalance: 950, Reason: "recount"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.InDelta(t, 950.0, repo.balance(1), 1e-9)
	require.Equal(t, items.StatusNormal, result.Item.Status)

	// Adjustments never write a ledger entry, only an activity entry.
	require.Empty(t, repo.records)
	require.Len(t, repo.activities, 1)
	require.Equal(t, shared.ActionAdjustment, repo.activities[0].Action)
	require.Equal(t, 100.0, repo.activities[0].Details["previous_balance"])
	require.Equal(t, 950.0, repo.activities[0].Details["new_balance"])
}

func TestAdjustBalanceNegativeRejected(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.AdjustBalance(context.Background(), AdjustInput{ItemID: 1, NewBalance: -1})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.False(t, result.Success)
	require.InDelta(t, 100.0, repo.balance(1), 1e-9)
}

func TestAdjustBalanceToZero(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)

	result, err := svc.AdjustBalance(context.Background(), AdjustInput{ItemID: 1, NewBalance: 0})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Item.CurrentBalance)
	require.Equal(t, items.StatusCritical, result.Item.Status)
}

func TestLedgerImmutable(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 10, Reason: "first"})
	require.NoError(t, err)
	before, err := svc.ListRecords(ctx, RecordFilter{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Further operations must not touch the existing entry.
	_, err = svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 5})
	require.NoError(t, err)
	_, err = svc.AdjustBalance(ctx, AdjustInput{ItemID: 1, NewBalance: 500})
	require.NoError(t, err)

	after, err := svc.ListRecords(ctx, RecordFilter{ItemID: 1})
	require.NoError(t, err)
	require.Contains(t, after, before[0])
}

func TestConcurrentConsumptionRace(t *testing.T) {
	repo := newMemoryRepo(sealantItem())
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.RecordConsumption(ctx, ConsumeInput{ItemID: 1, Amount: 60})
		}(i)
	}
	wg.Wait()

	// Exactly one of the two 60-unit requests against a balance of 100
	// may succeed; the loser observes the reduced balance and fails.
	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	require.Equal(t, 1, successes)
	require.InDelta(t, 40.0, repo.balance(1), 1e-9)
	require.Len(t, repo.records, 1)
}
