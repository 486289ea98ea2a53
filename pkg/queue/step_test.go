package queue

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse13/agi-solver/pkg/models"
)

func tradeAGI(orderID uint64, status models.ExtendedStatus) models.AGI {
	return models.AGI{
		OrderID:      orderID,
		IntentType:   models.IntentTypeTrade,
		AssetToSell:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
		AmountToSell: big.NewInt(1000),
		AssetToBuy:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		OrderStatus:  status,
	}
}

// stepPast advances the clock past any retry delay and runs one step
func (f *fixture) stepPast() {
	f.clock.Advance(time.Minute)
	f.manager.step()
}

func TestStepRotatesHeadToTail(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(1, models.StatusPendingDispense))
	f.executor.setAGI(tradeAGI(2, models.StatusPendingDispense))
	f.executor.setAGI(tradeAGI(3, models.StatusPendingDispense))
	f.enqueue(1, 2, 3)

	f.manager.step()

	assert.Equal(t, []uint64{2, 3, 1}, f.manager.Queued(),
		"the processed intent should move to the tail")
}

func TestStepHonorsRetryDelay(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(1, models.StatusPendingDispense))
	f.enqueue(1)

	f.manager.step()
	require.Len(t, f.executor.withdrawals, 1)

	// Within the retry delay nothing should happen
	f.clock.Advance(100 * time.Millisecond)
	f.manager.step()
	assert.Nil(t, f.manager.progress[1].ExtStatus, "step inside the retry delay should be a no-op")

	f.clock.Advance(time.Second)
	f.manager.step()
	require.NotNil(t, f.manager.progress[1].ExtStatus, "step past the retry delay should proceed")
	assert.Equal(t, models.StatusSwapInitiated, *f.manager.progress[1].ExtStatus)
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(5, models.StatusPendingDispense))
	f.enqueue(5)

	// Withdraw the sell asset, nothing else on this pass
	f.manager.step()
	require.Equal(t, []uint64{5}, f.executor.withdrawals)
	assert.Nil(t, f.manager.progress[5].ExtStatus, "withdrawal and overlay flip take separate passes")
	assert.Empty(t, f.coordinator.executed)

	// Mark the swap due, no chain call
	f.stepPast()
	require.NotNil(t, f.manager.progress[5].ExtStatus)
	assert.Equal(t, models.StatusSwapInitiated, *f.manager.progress[5].ExtStatus)
	assert.Empty(t, f.coordinator.executed)

	// Swap
	f.stepPast()
	require.Equal(t, []uint64{5}, f.coordinator.executed)

	// Deposit the proceeds
	f.stepPast()
	require.NotNil(t, f.executor.deposits[5])
	assert.Equal(t, "995", f.executor.deposits[5].String(),
		"the deposit should use the amount recorded at swap time")

	// Finalize
	f.stepPast()
	assert.Equal(t, 0, f.manager.Len(), "a settled intent should leave the queue")
	assert.Equal(t, []uint64{5}, f.coordinator.dropped)
	assert.Equal(t, []uint64{5}, f.store.deleted, "any stale failure row should be cleared on completion")
}

func TestDispensedWithoutOverlayMarksSwapDue(t *testing.T) {
	f := newFixture(t)

	// Contract already dispensed before the solver saw the intent
	f.executor.setAGI(tradeAGI(6, models.StatusDispensedPendingProceeds))
	f.enqueue(6)

	f.manager.step()

	assert.Empty(t, f.executor.withdrawals, "no withdrawal for an already dispensed intent")
	assert.Empty(t, f.coordinator.executed, "the swap runs on the next pass, not this one")

	f.stepPast()
	assert.Equal(t, []uint64{6}, f.coordinator.executed)
}

func TestSwapErrorSchedulesLongerRetry(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(7, models.StatusDispensedPendingProceeds))
	f.enqueue(7)
	f.coordinator.swapErr = errors.New("aggregator unavailable")

	f.manager.step() // marks swap due
	f.stepPast()     // first failed attempt

	require.Equal(t, 1, f.coordinator.Attempts(7))
	assert.Equal(t, 1, f.manager.Len(), "a failed swap below the retry ceiling stays queued")

	prog := f.manager.progress[7]
	assert.Equal(t, 30*time.Second, prog.RequiredDelay, "swap failures should wait the longer delay")
}

func TestEvictionAfterRetriesExhausted(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(8, models.StatusDispensedPendingProceeds))
	f.enqueue(8)
	f.coordinator.swapErr = errors.New("aggregator unavailable")

	f.manager.step() // marks swap due
	f.stepPast()     // attempt 1
	f.stepPast()     // attempt 2, hits the ceiling

	assert.Equal(t, 0, f.manager.Len(), "an exhausted intent should be evicted")

	row, exists := f.store.rows[8]
	require.True(t, exists, "eviction should write a durable failure record")
	assert.Equal(t, "Swap failed for AGI 8 at attempt 2", row.ErrorMessage)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", common.HexToAddress(row.AssetToSell).Hex())
	assert.Equal(t, "1000", row.AmountToSell)
	assert.Equal(t, uint8(models.StatusDispensedPendingProceeds), row.OrderStatus)

	// The swap record survives eviction so re-admission is refused
	f.manager.Add(8)
	assert.Equal(t, 0, f.manager.Len())
}

func TestCompletedSwapIsNotReExecuted(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(9, models.StatusDispensedPendingProceeds))
	f.enqueue(9)
	f.coordinator.records[9] = models.SwapRecord{
		Phase:       models.SwapCompleted,
		AmountToBuy: big.NewInt(1234),
		Attempts:    1,
	}

	f.manager.step() // marks swap due
	f.stepPast()     // sees the completed record, moves straight on
	f.stepPast()     // deposits

	assert.Empty(t, f.coordinator.executed, "a completed swap must never run again")
	require.NotNil(t, f.executor.deposits[9])
	assert.Equal(t, "1234", f.executor.deposits[9].String())
}

func TestDepositFailureReusesSwapResult(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(10, models.StatusDispensedPendingProceeds))
	f.enqueue(10)

	f.manager.step() // marks swap due
	f.stepPast()     // swap succeeds

	f.executor.depositErr = errors.New("nonce too low")
	f.stepPast() // deposit fails
	assert.Equal(t, 1, f.manager.Len(), "a failed deposit keeps the intent queued")

	f.executor.depositErr = nil
	f.stepPast() // deposit retried

	assert.Len(t, f.coordinator.executed, 1, "the swap must not re-run across deposit retries")
	require.NotNil(t, f.executor.deposits[10])
	assert.Equal(t, "995", f.executor.deposits[10].String())
}

func TestSwapCompletedWithoutRecordRestartsSwap(t *testing.T) {
	f := newFixture(t)

	f.executor.setAGI(tradeAGI(11, models.StatusDispensedPendingProceeds))
	f.enqueue(11)

	// Force the overlay into SwapCompleted with no record behind it
	prog := &models.IntentProgress{}
	prog.SetExtStatus(models.StatusSwapCompleted)
	f.manager.progress[11] = prog

	f.manager.step()

	assert.Empty(t, f.executor.deposits, "no deposit without a completed swap record")
	require.NotNil(t, prog.ExtStatus)
	assert.Equal(t, models.StatusSwapInitiated, *prog.ExtStatus, "the swap should be restarted")
}

func TestRejectsUnsupportedIntentType(t *testing.T) {
	f := newFixture(t)

	agi := tradeAGI(12, models.StatusPendingDispense)
	agi.IntentType = 3
	f.executor.setAGI(agi)
	f.enqueue(12)

	f.manager.step()

	assert.Equal(t, 0, f.manager.Len(), "an unsupported intent type should be dropped")
	assert.Empty(t, f.executor.withdrawals)
}

func TestViewErrorKeepsIntentQueued(t *testing.T) {
	f := newFixture(t)

	f.executor.viewErr = errors.New("connection refused")
	f.enqueue(13)

	f.manager.step()

	assert.Equal(t, 1, f.manager.Len(), "a read failure should not drop the intent")
	assert.Equal(t, time.Second, f.manager.progress[13].RequiredDelay)
}

func TestEffectiveStatus(t *testing.T) {
	overlay := models.StatusSwapCompleted

	tests := []struct {
		name     string
		contract models.ExtendedStatus
		overlay  *models.ExtendedStatus
		want     models.ExtendedStatus
	}{
		{
			name:     "no overlay uses contract status",
			contract: models.StatusPendingDispense,
			want:     models.StatusPendingDispense,
		},
		{
			name:     "overlay applies while dispensed",
			contract: models.StatusDispensedPendingProceeds,
			overlay:  &overlay,
			want:     models.StatusSwapCompleted,
		},
		{
			name:     "contract wins once proceeds received",
			contract: models.StatusProceedsReceived,
			overlay:  &overlay,
			want:     models.StatusProceedsReceived,
		},
		{
			name:     "contract wins before dispense",
			contract: models.StatusPendingDispense,
			overlay:  &overlay,
			want:     models.StatusPendingDispense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agi := models.AGI{OrderStatus: tt.contract}
			prog := &models.IntentProgress{ExtStatus: tt.overlay}
			assert.Equal(t, tt.want, effectiveStatus(agi, prog))
		})
	}
}
