package memory

import (
	"context"
	"slices"
	"strconv"

	"github.com/zensushi/zen/internal/domain"
	apperrors "github.com/zensushi/zen/pkg/errors"
)

// MenuRepository serves a fixed menu held in memory.
type MenuRepository struct {
	items []domain.MenuItem
	byID  map[int]int
}

// NewMenuRepository creates a repository over items. The slice is copied.
func NewMenuRepository(items []domain.MenuItem) *MenuRepository {
	r := &MenuRepository{
		items: slices.Clone(items),
		byID:  make(map[int]int, len(items)),
	}
	for i, item := range r.items {
		r.byID[item.ID] = i
	}
	return r
}

// List returns a copy of the menu.
func (r *MenuRepository) List(_ context.Context) ([]domain.MenuItem, error) {
	return slices.Clone(r.items), nil
}

// Get returns the dish with the given id.
func (r *MenuRepository) Get(_ context.Context, id int) (*domain.MenuItem, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("menu item", strconv.Itoa(id))
	}
	item := r.items[i]
	return &item, nil
}
