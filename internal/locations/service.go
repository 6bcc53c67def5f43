package locations

import (
	"context"
	"errors"
	"strings"
)

// Service exposes location lookups and creation.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Location, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, errors.New("locations: invalid location id")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, loc Location) (Location, error) {
	if strings.TrimSpace(loc.Code) == "" {
		return Location{}, errors.New("locations: code is required")
	}
	if strings.TrimSpace(loc.Name) == "" {
		return Location{}, errors.New("locations: name is required")
	}
	loc.Code = strings.TrimSpace(loc.Code)
	loc.Name = strings.TrimSpace(loc.Name)
	return s.repo.Create(ctx, loc)
}
