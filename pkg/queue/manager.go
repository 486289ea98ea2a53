// Package queue schedules intent processing. A single goroutine steps through
// the queue on a ticker, so at most one intent is being reconciled at any
// moment, while Add stays safe to call from any goroutine.
package queue

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/warehouse13/agi-solver/pkg/config"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"
)

// Executor is the chain capability the queue needs: reading intent state and
// submitting the two escrow transactions.
type Executor interface {
	ViewAGI(ctx context.Context, orderID uint64) (models.AGI, error)
	WithdrawAsset(ctx context.Context, orderID uint64) error
	DepositAsset(ctx context.Context, orderID uint64, assetToBuy common.Address, amount *big.Int) error
}

// SwapCoordinator is the swap capability plus the per-intent bookkeeping that
// keeps swap execution idempotent.
type SwapCoordinator interface {
	ExecuteSwap(ctx context.Context, agi models.AGI) error
	Record(orderID uint64) (models.SwapRecord, bool)
	Attempts(orderID uint64) int
	Exhausted(orderID uint64) bool
	ExhaustedIDs() []uint64
	Drop(orderID uint64)
}

// FailedSwapStore is the durable record of evicted intents.
type FailedSwapStore interface {
	Record(fs models.FailedSwap) error
	Delete(orderID uint64) error
	List() ([]models.FailedSwap, error)
}

// Manager owns the intent queue and its processing loop.
type Manager struct {
	executor    Executor
	coordinator SwapCoordinator
	store       FailedSwapStore
	logger      logger.Logger

	checkInterval  time.Duration
	retryDelay     time.Duration
	swapRetryDelay time.Duration
	maxRetries     int

	mu       sync.Mutex
	queue    []uint64
	inQueue  map[uint64]bool
	progress map[uint64]*models.IntentProgress
	running  bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// NewManager creates a queue manager wired to the given capabilities.
func NewManager(cfg *config.Config, executor Executor, coordinator SwapCoordinator, store FailedSwapStore, lg logger.Logger) *Manager {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		executor:       executor,
		coordinator:    coordinator,
		store:          store,
		logger:         lg,
		checkInterval:  cfg.CheckInterval,
		retryDelay:     cfg.RetryDelay,
		swapRetryDelay: cfg.SwapRetryDelay,
		maxRetries:     cfg.MaxRetries,
		inQueue:        make(map[uint64]bool),
		progress:       make(map[uint64]*models.IntentProgress),
		ctx:            ctx,
		cancel:         cancel,
		now:            time.Now,
	}
}

// Add admits an intent to the queue. Adding an intent that is already queued
// is a no-op, and an intent that burnt through its swap retries is refused.
// The processing loop is started on demand and stops again once the queue
// drains, so an idle solver holds no ticker.
func (m *Manager) Add(orderID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if m.inQueue[orderID] {
		m.logger.DebugWith(logger.Queue, "AGI %d already queued", orderID)
		return
	}

	if m.coordinator.Exhausted(orderID) {
		m.logger.NoticeWith(logger.Queue, "refusing AGI %d: swap retries exhausted", orderID)
		return
	}

	m.queue = append(m.queue, orderID)
	m.inQueue[orderID] = true
	metrics.QueueSize.Set(float64(len(m.queue)))
	m.logger.InfoWith(logger.Queue, "AGI %d added to queue (depth: %d)", orderID, len(m.queue))

	if !m.running {
		m.running = true
		m.wg.Add(1)
		go m.run()
	}
}

// Len returns the current queue depth.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Queued returns a snapshot of the queued intent ids in processing order.
func (m *Manager) Queued() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]uint64, len(m.queue))
	copy(snapshot, m.queue)
	return snapshot
}

// FailedSwapReport returns one failure record per exhausted intent. Durable
// rows cover evictions from earlier runs; the coordinator's retained swap
// records cover any intent this process burnt out whose row never made it to
// the store.
func (m *Manager) FailedSwapReport() ([]models.FailedSwap, error) {
	rows, err := m.store.List()
	if err != nil {
		return nil, err
	}

	recorded := make(map[uint64]bool, len(rows))
	for _, row := range rows {
		recorded[row.OrderID] = true
	}

	for _, orderID := range m.coordinator.ExhaustedIDs() {
		if recorded[orderID] {
			continue
		}
		rows = append(rows, models.FailedSwap{
			Timestamp:    m.now().Unix(),
			OrderID:      orderID,
			ErrorMessage: fmt.Sprintf("Swap failed for AGI %d at attempt %d", orderID, m.coordinator.Attempts(orderID)),
		})
	}
	return rows, nil
}

// Close stops the processing loop and waits for an in-flight step to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.logger.InfoWith(logger.Queue, "queue manager stopped")
}

// run steps the queue until it drains or the manager is closed.
func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			return
		case <-ticker.C:
			m.step()

			m.mu.Lock()
			if len(m.queue) == 0 {
				m.running = false
				m.mu.Unlock()
				m.logger.DebugWith(logger.Queue, "queue drained, stopping ticker")
				return
			}
			m.mu.Unlock()
		}
	}
}
