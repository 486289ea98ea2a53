package swap

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"
)

// Swapper executes a swap and returns the amount of buy asset received.
type Swapper interface {
	Swap(ctx context.Context, sellToken, buyToken common.Address, sellAmount *big.Int) (*big.Int, error)
}

// Coordinator keeps one swap record per intent so swap execution stays
// idempotent: a completed swap is never re-executed and its result is reused
// through any number of deposit retries. Records outlive queue eviction so an
// exhausted intent can still be reported and refused re-admission.
type Coordinator struct {
	swapper    Swapper
	maxRetries int
	records    map[uint64]*models.SwapRecord
	logger     logger.Logger
	mu         sync.Mutex
}

// NewCoordinator creates a swap coordinator
func NewCoordinator(swapper Swapper, maxRetries int, lg logger.Logger) *Coordinator {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}
	return &Coordinator{
		swapper:    swapper,
		maxRetries: maxRetries,
		records:    make(map[uint64]*models.SwapRecord),
		logger:     lg,
	}
}

// Record returns a copy of the swap record for an intent.
func (c *Coordinator) Record(orderID uint64) (models.SwapRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, exists := c.records[orderID]
	if !exists {
		return models.SwapRecord{}, false
	}
	return *record, true
}

// ExecuteSwap runs one swap attempt for the intent. A completed record is
// returned as-is without touching the aggregator. Attempt counts only move
// forward; a failure past the retry ceiling is left to the caller to evict.
func (c *Coordinator) ExecuteSwap(ctx context.Context, agi models.AGI) error {
	c.mu.Lock()
	record, exists := c.records[agi.OrderID]
	if !exists {
		record = &models.SwapRecord{}
		c.records[agi.OrderID] = record
	}

	if record.Phase == models.SwapCompleted {
		c.mu.Unlock()
		return nil
	}

	record.Attempts++
	record.Phase = models.SwapPending
	attempt := record.Attempts
	c.mu.Unlock()

	c.logger.InfoWith(logger.Swap, "executing swap for AGI %d (attempt %d/%d)", agi.OrderID, attempt, c.maxRetries)
	metrics.SwapAttempts.Inc()

	amountBought, err := c.swapper.Swap(ctx, agi.AssetToSell, agi.AssetToBuy, agi.AmountToSell)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		record.Phase = models.SwapFailed
		metrics.SwapFailures.Inc()
		return &SwapError{OrderID: agi.OrderID, Err: err}
	}

	record.AmountToBuy = amountBought
	record.Phase = models.SwapCompleted
	c.logger.NoticeWith(logger.Swap, "swap completed for AGI %d: bought %s", agi.OrderID, amountBought.String())
	return nil
}

// Attempts returns the number of swap attempts made for an intent.
func (c *Coordinator) Attempts(orderID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, exists := c.records[orderID]
	if !exists {
		return 0
	}
	return record.Attempts
}

// Exhausted reports whether the intent has failed its final swap attempt.
func (c *Coordinator) Exhausted(orderID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, exists := c.records[orderID]
	if !exists {
		return false
	}
	return record.Phase == models.SwapFailed && record.Attempts >= c.maxRetries
}

// Drop removes the swap record for an intent once it is fully settled.
func (c *Coordinator) Drop(orderID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, orderID)
}

// ExhaustedIDs lists the intents whose swap records are burnt out.
func (c *Coordinator) ExhaustedIDs() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []uint64
	for orderID, record := range c.records {
		if record.Phase == models.SwapFailed && record.Attempts >= c.maxRetries {
			ids = append(ids, orderID)
		}
	}
	return ids
}
