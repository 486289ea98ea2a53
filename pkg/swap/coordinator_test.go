package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse13/agi-solver/pkg/models"
)

// stubSwapper counts calls and returns a fixed result or error
type stubSwapper struct {
	mu     sync.Mutex
	calls  int
	amount *big.Int
	err    error
}

func (s *stubSwapper) Swap(_ context.Context, _, _ common.Address, _ *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.amount, nil
}

func testAGI(orderID uint64) models.AGI {
	return models.AGI{
		OrderID:      orderID,
		IntentType:   models.IntentTypeTrade,
		AssetToSell:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
		AmountToSell: big.NewInt(1000),
		AssetToBuy:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}
}

func TestExecuteSwapRecordsResult(t *testing.T) {
	swapper := &stubSwapper{amount: big.NewInt(995)}
	c := NewCoordinator(swapper, 2, nil)

	err := c.ExecuteSwap(context.Background(), testAGI(1))
	require.NoError(t, err)

	record, ok := c.Record(1)
	require.True(t, ok)
	assert.Equal(t, models.SwapCompleted, record.Phase)
	assert.Equal(t, "995", record.AmountToBuy.String())
	assert.Equal(t, 1, record.Attempts)
}

func TestExecuteSwapIsIdempotentOnceCompleted(t *testing.T) {
	swapper := &stubSwapper{amount: big.NewInt(995)}
	c := NewCoordinator(swapper, 2, nil)

	require.NoError(t, c.ExecuteSwap(context.Background(), testAGI(1)))
	require.NoError(t, c.ExecuteSwap(context.Background(), testAGI(1)))
	require.NoError(t, c.ExecuteSwap(context.Background(), testAGI(1)))

	assert.Equal(t, 1, swapper.calls, "a completed swap must never be re-executed")

	record, _ := c.Record(1)
	assert.Equal(t, 1, record.Attempts)
}

func TestExecuteSwapWrapsFailures(t *testing.T) {
	swapper := &stubSwapper{err: errors.New("aggregator unavailable")}
	c := NewCoordinator(swapper, 2, nil)

	err := c.ExecuteSwap(context.Background(), testAGI(3))
	require.Error(t, err)
	assert.True(t, IsSwapError(err), "failures must be reported as swap errors")

	var swapErr *SwapError
	require.ErrorAs(t, err, &swapErr)
	assert.Equal(t, uint64(3), swapErr.OrderID)

	record, ok := c.Record(3)
	require.True(t, ok)
	assert.Equal(t, models.SwapFailed, record.Phase)
	assert.Equal(t, 1, record.Attempts)
}

func TestAttemptsOnlyMoveForward(t *testing.T) {
	swapper := &stubSwapper{err: errors.New("aggregator unavailable")}
	c := NewCoordinator(swapper, 3, nil)

	for i := 1; i <= 3; i++ {
		err := c.ExecuteSwap(context.Background(), testAGI(4))
		require.Error(t, err)
		assert.Equal(t, i, c.Attempts(4))
	}
}

func TestExhausted(t *testing.T) {
	swapper := &stubSwapper{err: errors.New("aggregator unavailable")}
	c := NewCoordinator(swapper, 2, nil)

	assert.False(t, c.Exhausted(5), "unknown intent is not exhausted")

	_ = c.ExecuteSwap(context.Background(), testAGI(5))
	assert.False(t, c.Exhausted(5), "one failure below the ceiling is not exhausted")

	_ = c.ExecuteSwap(context.Background(), testAGI(5))
	assert.True(t, c.Exhausted(5))

	assert.Equal(t, []uint64{5}, c.ExhaustedIDs())
}

func TestDropClearsRecord(t *testing.T) {
	swapper := &stubSwapper{amount: big.NewInt(995)}
	c := NewCoordinator(swapper, 2, nil)

	require.NoError(t, c.ExecuteSwap(context.Background(), testAGI(6)))
	c.Drop(6)

	_, ok := c.Record(6)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Attempts(6))
}

func TestIsSwapError(t *testing.T) {
	plain := errors.New("boom")
	wrapped := &SwapError{OrderID: 9, Err: plain}

	assert.True(t, IsSwapError(wrapped))
	assert.True(t, IsSwapError(fmt.Errorf("context: %w", wrapped)))
	assert.False(t, IsSwapError(plain))
	assert.False(t, IsSwapError(nil))
	assert.Equal(t, plain, errors.Unwrap(wrapped))
}
