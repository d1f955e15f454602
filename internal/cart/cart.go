// Package cart keeps the kiosk's shopping cart: an ordered list of line
// items whose total always equals the sum of their prices.
package cart

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zensushi/zen/internal/domain"
	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/money"
)

// LineItem is one dish in the cart. Build it with NewLineItem.
type LineItem struct {
	name  string
	price money.Cents
}

// NewLineItem validates and returns a line item. The name must not be
// blank and the price must lie in [0, money.MaxAmount].
func NewLineItem(name string, price money.Cents) (LineItem, error) {
	if strings.TrimSpace(name) == "" {
		return LineItem{}, apperrors.InvalidInput("item name must not be empty")
	}
	if price.IsNegative() {
		return LineItem{}, apperrors.InvalidInput("item price must not be negative")
	}
	if price > money.MaxAmount {
		return LineItem{}, apperrors.InvalidInput("item price must not exceed " + money.MaxAmount.BRL())
	}
	return LineItem{name: name, price: price}, nil
}

// Name returns the dish name.
func (i LineItem) Name() string { return i.name }

// Price returns the dish price.
func (i LineItem) Price() money.Cents { return i.price }

// OrderItem converts the line for the wire.
func (i LineItem) OrderItem() domain.OrderItem {
	return domain.OrderItem{Name: i.name, Price: i.price}
}

// Snapshot is an immutable view of the cart.
type Snapshot struct {
	Items []LineItem
	Total money.Cents
}

// Len returns the number of items.
func (s Snapshot) Len() int { return len(s.Items) }

// IsEmpty reports whether the snapshot has no items.
func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }

// Store is the cart of one kiosk session. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	items  []LineItem
	total  money.Cents
	logger *slog.Logger
}

// NewStore creates an empty cart.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Add validates name and price and appends the item.
func (s *Store) Add(name string, price money.Cents) (LineItem, error) {
	item, err := NewLineItem(name, price)
	if err != nil {
		return LineItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.total.Add(item.price)
	if err != nil {
		return LineItem{}, apperrors.InvalidInput("cart total out of range")
	}
	s.items = append(s.items, item)
	s.total = total
	return item, nil
}

// RemoveAt removes the item at index i. An index outside [0, len) leaves
// the cart unchanged, logs a warning and returns false.
func (s *Store) RemoveAt(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.items) {
		s.logger.Warn("ignoring remove of invalid cart index",
			slog.Int("index", i),
			slog.Int("len", len(s.items)),
		)
		return false
	}

	s.total -= s.items[i].price
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// RemoveAtParam is RemoveAt for an index given as text, as read from a
// terminal or a form field. Text that is not an integer is a no-op.
func (s *Store) RemoveAtParam(param string) bool {
	i, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil {
		s.logger.Warn("ignoring remove with non-numeric cart index",
			slog.String("index", param),
		)
		return false
	}
	return s.RemoveAt(i)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.total = 0
	s.mu.Unlock()
}

// Snapshot returns a copy of the current items and total.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{Items: slices.Clone(s.items), Total: s.total}
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
