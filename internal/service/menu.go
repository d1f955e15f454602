package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/repository"
)

// MenuService serves the restaurant menu.
type MenuService struct {
	repo   repository.MenuRepository
	logger *slog.Logger
}

// NewMenuService creates a new menu service.
func NewMenuService(repo repository.MenuRepository, logger *slog.Logger) *MenuService {
	return &MenuService{repo: repo, logger: logger}
}

// ListMenu returns every dish in display order.
func (s *MenuService) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// GetItem returns a single dish.
func (s *MenuService) GetItem(ctx context.Context, id int) (*domain.MenuItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get menu item %d: %w", id, err)
	}
	return item, nil
}
