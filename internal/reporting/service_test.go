package reporting

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockRepo struct {
	usageRows     []UsageRow
	usageCalls    int
	lowStockRows  []LowStockRow
	lowStockCalls int
}

func (m *mockRepo) UsageTotals(ctx context.Context, filter UsageFilter) ([]UsageRow, error) {
	m.usageCalls++
	return m.usageRows, nil
}

func (m *mockRepo) LowStock(ctx context.Context, locationID int64) ([]LowStockRow, error) {
	m.lowStockCalls++
	return m.lowStockRows, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestUsageCaches(t *testing.T) {
	repo := &mockRepo{
		usageRows: []UsageRow{
			{ItemID: 1, Code: "SEAL-001", Name: "Polysulfide sealant", Unit: "ml", TotalAmount: 1200, Events: 4},
			{ItemID: 2, Code: "GRS-014", Name: "Bearing grease", Unit: "g", TotalAmount: 300, Events: 2},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	filter := UsageFilter{From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)}
	rows, err := svc.Usage(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].TotalAmount != 1200 {
		t.Fatalf("unexpected rows %#v", rows)
	}
	if repo.usageCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.usageCalls)
	}

	// Second call should hit cache.
	if _, err := svc.Usage(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.usageCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.usageCalls)
	}

	// Invalidation after a transaction should trigger reload.
	if err := svc.cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	repo.usageRows[0].TotalAmount = 1500
	rows, err = svc.Usage(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].TotalAmount != 1500 {
		t.Fatalf("expected refreshed value 1500 got %.2f", rows[0].TotalAmount)
	}
	if repo.usageCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.usageCalls)
	}
}

func TestUsageFiltersAreSeparateKeys(t *testing.T) {
	repo := &mockRepo{usageRows: []UsageRow{{ItemID: 1, TotalAmount: 10}}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Usage(ctx, UsageFilter{LocationID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Usage(ctx, UsageFilter{LocationID: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.usageCalls != 2 {
		t.Fatalf("expected distinct cache keys per location, calls %d", repo.usageCalls)
	}
}

func TestLowStockCaches(t *testing.T) {
	repo := &mockRepo{
		lowStockRows: []LowStockRow{
			{ItemID: 3, Code: "OIL-002", CurrentBalance: 40, MinThreshold: 200, CriticalThreshold: 100, Status: "critical"},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	rows, err := svc.LowStock(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != "critical" {
		t.Fatalf("unexpected rows %#v", rows)
	}
	if _, err := svc.LowStock(ctx, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lowStockCalls != 1 {
		t.Fatalf("expected cached low stock, calls %d", repo.lowStockCalls)
	}
}

func TestNilCacheFallsThrough(t *testing.T) {
	repo := &mockRepo{usageRows: []UsageRow{{ItemID: 1}}}
	svc := NewService(repo, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Usage(ctx, UsageFilter{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.usageCalls != 2 {
		t.Fatalf("expected loader per call without redis, calls %d", repo.usageCalls)
	}
}
