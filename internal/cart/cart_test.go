package cart

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/money"
)

func newTestStore() *Store {
	return NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sumOf(items []LineItem) money.Cents {
	var total money.Cents
	for _, item := range items {
		total += item.Price()
	}
	return total
}

func TestNewLineItem(t *testing.T) {
	item, err := NewLineItem("Sushi Especial", 2500)
	require.NoError(t, err)
	assert.Equal(t, "Sushi Especial", item.Name())
	assert.Equal(t, money.Cents(2500), item.Price())

	free, err := NewLineItem("Chá", 0)
	require.NoError(t, err)
	assert.Zero(t, free.Price())

	_, err = NewLineItem("", 100)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewLineItem("   ", 100)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewLineItem("Yakisoba", -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStore_AddRejectsPriceAboveMaxAmount(t *testing.T) {
	s := newTestStore()

	item, err := s.Add("Barco Zen", money.MaxAmount)
	require.NoError(t, err)
	assert.Equal(t, money.MaxAmount, item.Price())

	huge := money.Cents(math.MaxInt64/2 + 1)
	for range 2 {
		_, err = s.Add("Sushi Especial", huge)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	_, err = s.Add("Sushi Especial", money.MaxAmount+1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, money.MaxAmount, snap.Total)
	assert.False(t, snap.Total.IsNegative())
}

func TestStore_AddRejectsInvalidWithoutMutation(t *testing.T) {
	s := newTestStore()
	_, err := s.Add("Yakisoba", 3000)
	require.NoError(t, err)

	_, err = s.Add("", 100)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, money.Cents(3000), snap.Total)
}

func TestStore_SushiAndYakisoba(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("Sushi Especial", 2500)
	require.NoError(t, err)
	_, err = s.Add("Yakisoba", 3000)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "Sushi Especial", snap.Items[0].Name())
	assert.Equal(t, "Yakisoba", snap.Items[1].Name())
	assert.Equal(t, money.Cents(5500), snap.Total)
	assert.Equal(t, "55.00", snap.Total.String())

	require.True(t, s.RemoveAt(0))
	snap = s.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "Yakisoba", snap.Items[0].Name())
	assert.Equal(t, money.Cents(3000), snap.Total)
}

func TestStore_RemoveAtInvalidIsNoOpWithWarning(t *testing.T) {
	var buf bytes.Buffer
	s := NewStore(slog.New(slog.NewJSONHandler(&buf, nil)))
	_, _ = s.Add("Sushi Especial", 2500)
	_, _ = s.Add("Yakisoba", 3000)
	before := s.Snapshot()

	for _, i := range []int{-1, 2, 100} {
		assert.False(t, s.RemoveAt(i), "index %d", i)
	}
	for _, p := range []string{"abc", "", "1.5", "NaN"} {
		assert.False(t, s.RemoveAtParam(p), "param %q", p)
	}

	assert.Equal(t, before, s.Snapshot())
	assert.Contains(t, buf.String(), "ignoring remove of invalid cart index")
	assert.Contains(t, buf.String(), "ignoring remove with non-numeric cart index")
}

func TestStore_RemoveAtParam(t *testing.T) {
	s := newTestStore()
	_, _ = s.Add("Sushi Especial", 2500)
	_, _ = s.Add("Yakisoba", 3000)

	assert.True(t, s.RemoveAtParam(" 1 "))
	assert.Equal(t, money.Cents(2500), s.Snapshot().Total)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s := newTestStore()
	_, _ = s.Add("Missoshiru", 1200)

	s.Clear()
	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Total)
	assert.True(t, snap.IsEmpty())
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := newTestStore()
	_, _ = s.Add("Gyoza de Porco", 2700)

	snap := s.Snapshot()
	_, _ = s.Add("Missoshiru", 1200)
	s.RemoveAt(0)

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, "Gyoza de Porco", snap.Items[0].Name())
	assert.Equal(t, money.Cents(2700), snap.Total)
}

func TestStore_RandomOperationsKeepTotalEqualToSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	s := newTestStore()

	for step := range 5000 {
		switch op := rng.IntN(10); {
		case op < 6:
			_, err := s.Add("item-"+strconv.Itoa(step), money.Cents(rng.Int64N(10_000)))
			require.NoError(t, err)
		case op < 9:
			before := s.Snapshot()
			i := rng.IntN(before.Len()+4) - 2
			if !s.RemoveAt(i) {
				assert.Equal(t, before, s.Snapshot(), "invalid remove changed cart at step %d", step)
			}
		default:
			s.Clear()
		}

		snap := s.Snapshot()
		require.Equal(t, sumOf(snap.Items), snap.Total, "step %d", step)
		require.False(t, snap.Total.IsNegative())
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := newTestStore()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add("Harumaki Vegetariano", 1800)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 50, snap.Len())
	assert.Equal(t, money.Cents(50*1800), snap.Total)
}
