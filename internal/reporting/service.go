package reporting

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Service coordinates report query execution with the cache layer.
// Concurrent requests for the same uncached report are collapsed into
// one database round trip.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Usage returns per-item consumption totals over the window.
func (s *Service) Usage(ctx context.Context, filter UsageFilter) ([]UsageRow, error) {
	key, err := s.cache.BuildKey(ctx, keyUsage(filter)...)
	if err != nil {
		return nil, err
	}
	var out []UsageRow
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.UsageTotals(ctx, filter)
	})
	return out, err
}

// LowStock returns items at or below their minimum threshold.
func (s *Service) LowStock(ctx context.Context, locationID int64) ([]LowStockRow, error) {
	key, err := s.cache.BuildKey(ctx, keyLowStock(locationID)...)
	if err != nil {
		return nil, err
	}
	var out []LowStockRow
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.LowStock(ctx, locationID)
	})
	return out, err
}

func (s *Service) fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		return nil, s.cache.FetchJSON(ctx, key, dest, loader)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			// A concurrent caller populated the cache; re-read it so
			// dest is filled for this request too.
			return s.cache.FetchJSON(ctx, key, dest, loader)
		}
		return nil
	}
}

// InvalidationChannel exposes the bump channel name for subscribers.
func InvalidationChannel() string {
	return bumpChannel
}
