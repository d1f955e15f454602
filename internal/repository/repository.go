package repository

import (
	"context"

	"github.com/zensushi/zen/internal/domain"
)

// MenuRepository defines read access to the menu.
type MenuRepository interface {
	// List returns every dish in display order.
	List(ctx context.Context) ([]domain.MenuItem, error)

	// Get returns a dish by id, or an apperrors NotFound error.
	Get(ctx context.Context, id int) (*domain.MenuItem, error)
}
