package failedswaps

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse13/agi-solver/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "failed_swaps.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRow(orderID uint64) models.FailedSwap {
	return models.FailedSwap{
		Timestamp:    1700000000,
		OrderID:      orderID,
		ErrorMessage: "Swap failed for AGI 1 at attempt 2",
		IntentType:   0,
		AssetToSell:  "0x1111111111111111111111111111111111111111",
		AmountToSell: "1000000000000000000",
		AssetToBuy:   "0x2222222222222222222222222222222222222222",
		OrderStatus:  1,
	}
}

func TestRecordAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Record(sampleRow(1)))

	got, exists, err := store.Get(1)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, sampleRow(1), got)
}

func TestRecordKeepsFirstRow(t *testing.T) {
	store := newTestStore(t)

	first := sampleRow(1)
	require.NoError(t, store.Record(first))

	second := sampleRow(1)
	second.ErrorMessage = "a different message"
	require.NoError(t, store.Record(second))

	got, exists, err := store.Get(1)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, first.ErrorMessage, got.ErrorMessage, "the original row should be untouched")

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetMissingRow(t *testing.T) {
	store := newTestStore(t)

	_, exists, err := store.Get(42)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Record(sampleRow(1)))
	require.NoError(t, store.Delete(1))

	_, exists, err := store.Get(1)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent row is not an error
	require.NoError(t, store.Delete(99))
}

func TestListOrderedByOrderID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Record(sampleRow(3)))
	require.NoError(t, store.Record(sampleRow(1)))
	require.NoError(t, store.Record(sampleRow(2)))

	rows, err := store.List()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(1), rows[0].OrderID)
	assert.Equal(t, uint64(2), rows[1].OrderID)
	assert.Equal(t, uint64(3), rows[2].OrderID)
}

func TestRowsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_swaps.db")

	store, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Record(sampleRow(7)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, exists, err := reopened.Get(7)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(7), got.OrderID)
}
