package queue

import (
	"fmt"
	"time"

	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"
	"github.com/warehouse13/agi-solver/pkg/swap"
)

// step processes the intent at the head of the queue. The head is rotated to
// the tail first so a stuck intent cannot starve the rest of the queue.
func (m *Manager) step() {
	started := time.Now()

	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}
	orderID := m.queue[0]
	if len(m.queue) > 1 {
		m.queue = append(m.queue[1:], orderID)
	}
	prog, exists := m.progress[orderID]
	if !exists {
		prog = &models.IntentProgress{}
		m.progress[orderID] = prog
	}
	m.mu.Unlock()

	// Honor the retry delay without blocking the loop
	if !prog.LastAttemptAt.IsZero() && m.now().Sub(prog.LastAttemptAt) < prog.RequiredDelay {
		return
	}

	agi, err := m.process(orderID, prog)
	prog.LastAttemptAt = m.now()

	switch {
	case err == nil:
		prog.RequiredDelay = m.retryDelay
		metrics.StepsProcessed.WithLabelValues("ok").Inc()

	case swap.IsSwapError(err):
		metrics.StepsProcessed.WithLabelValues("swap_error").Inc()
		m.logger.ErrorWith(logger.Queue, "swap attempt for AGI %d failed: %v", orderID, err)

		attempts := m.coordinator.Attempts(orderID)
		if attempts >= m.maxRetries {
			m.evict(agi, attempts)
		} else {
			prog.RequiredDelay = m.swapRetryDelay
		}

	default:
		prog.RequiredDelay = m.retryDelay
		metrics.StepsProcessed.WithLabelValues("error").Inc()
		m.logger.ErrorWith(logger.Queue, "processing AGI %d failed: %v", orderID, err)
	}

	metrics.StepDuration.Observe(time.Since(started).Seconds())
}

// process runs one reconciliation pass for the intent: read the contract
// state, merge in the internal overlay, and perform the action the effective
// status calls for.
func (m *Manager) process(orderID uint64, prog *models.IntentProgress) (models.AGI, error) {
	agi, err := m.executor.ViewAGI(m.ctx, orderID)
	if err != nil {
		return models.AGI{OrderID: orderID}, err
	}

	if agi.IntentType != models.IntentTypeTrade {
		m.logger.ErrorWith(logger.Queue, "rejecting AGI %d: unsupported intent type %d", orderID, agi.IntentType)
		metrics.IntentsRejected.Inc()
		m.remove(orderID)
		return agi, nil
	}

	status := effectiveStatus(agi, prog)
	m.logger.DebugWith(logger.Queue, "AGI %d effective status: %s", orderID, status)

	switch status {
	case models.StatusPendingDispense:
		return agi, m.handlePendingDispense(agi)
	case models.StatusDispensedPendingProceeds:
		// Sell asset is in custody and no swap has been started yet
		prog.SetExtStatus(models.StatusSwapInitiated)
		return agi, nil
	case models.StatusSwapInitiated:
		return agi, m.handleSwapInitiated(agi, prog)
	case models.StatusSwapCompleted:
		return agi, m.handleSwapCompleted(agi, prog)
	case models.StatusProceedsReceived:
		m.handleProceedsReceived(agi)
		return agi, nil
	default:
		return agi, fmt.Errorf("AGI %d has unknown status %d", orderID, status)
	}
}

// effectiveStatus merges the contract status with the internal overlay. The
// overlay only applies while the contract reports DispensedPendingProceeds;
// in every other state the contract is authoritative.
func effectiveStatus(agi models.AGI, prog *models.IntentProgress) models.ExtendedStatus {
	if agi.OrderStatus == models.StatusDispensedPendingProceeds && prog.ExtStatus != nil {
		return *prog.ExtStatus
	}
	return agi.OrderStatus
}

// handlePendingDispense pulls the sell asset out of the escrow. The contract
// flips to DispensedPendingProceeds once the withdrawal mines; the next pass
// sees that status and marks the swap due.
func (m *Manager) handlePendingDispense(agi models.AGI) error {
	if err := m.executor.WithdrawAsset(m.ctx, agi.OrderID); err != nil {
		return err
	}
	m.logger.InfoWith(logger.Queue, "AGI %d dispensed", agi.OrderID)
	return nil
}

// handleSwapInitiated runs one swap attempt unless the coordinator already
// has a result or an attempt in flight for this intent.
func (m *Manager) handleSwapInitiated(agi models.AGI, prog *models.IntentProgress) error {
	if record, ok := m.coordinator.Record(agi.OrderID); ok {
		switch record.Phase {
		case models.SwapPending:
			return nil
		case models.SwapCompleted:
			prog.SetExtStatus(models.StatusSwapCompleted)
			return nil
		case models.SwapFailed:
			if record.Attempts >= m.maxRetries {
				return nil
			}
		}
	}

	if err := m.coordinator.ExecuteSwap(m.ctx, agi); err != nil {
		return err
	}
	prog.SetExtStatus(models.StatusSwapCompleted)
	return nil
}

// handleSwapCompleted deposits the recorded swap proceeds back into the
// escrow. The deposit always uses the amount captured at swap time.
func (m *Manager) handleSwapCompleted(agi models.AGI, prog *models.IntentProgress) error {
	record, ok := m.coordinator.Record(agi.OrderID)
	if !ok || record.Phase != models.SwapCompleted || record.AmountToBuy == nil {
		m.logger.ErrorWith(logger.Queue, "AGI %d has no completed swap record, restarting swap", agi.OrderID)
		prog.SetExtStatus(models.StatusSwapInitiated)
		return nil
	}

	if err := m.executor.DepositAsset(m.ctx, agi.OrderID, agi.AssetToBuy, record.AmountToBuy); err != nil {
		return err
	}

	// The contract reports ProceedsReceived from here on, so the overlay is done
	prog.ExtStatus = nil
	m.logger.InfoWith(logger.Queue, "AGI %d proceeds deposited: %s", agi.OrderID, record.AmountToBuy.String())
	return nil
}

// handleProceedsReceived finalizes a settled intent: the swap record, any
// stale failed swap row and the queue entry are all cleared.
func (m *Manager) handleProceedsReceived(agi models.AGI) {
	m.coordinator.Drop(agi.OrderID)
	if err := m.store.Delete(agi.OrderID); err != nil {
		m.logger.ErrorWith(logger.Queue, "failed to clear failed swap record for AGI %d: %v", agi.OrderID, err)
	}
	m.remove(agi.OrderID)
	metrics.IntentsCompleted.Inc()
	m.logger.NoticeWith(logger.Queue, "AGI %d completed", agi.OrderID)
}

// evict drops an intent that burnt through its swap retries and writes the
// durable failure record. The swap record is retained so re-admission of the
// same id is refused.
func (m *Manager) evict(agi models.AGI, attempts int) {
	msg := fmt.Sprintf("Swap failed for AGI %d at attempt %d", agi.OrderID, attempts)

	row := models.FailedSwap{
		Timestamp:    m.now().Unix(),
		OrderID:      agi.OrderID,
		ErrorMessage: msg,
		IntentType:   agi.IntentType,
		AssetToSell:  agi.AssetToSell.Hex(),
		AmountToSell: agi.AmountToSell.String(),
		AssetToBuy:   agi.AssetToBuy.Hex(),
		OrderStatus:  uint8(agi.OrderStatus),
	}
	if err := m.store.Record(row); err != nil {
		m.logger.ErrorWith(logger.Queue, "failed to record eviction for AGI %d: %v", agi.OrderID, err)
	}

	m.remove(agi.OrderID)
	metrics.Evictions.Inc()
	m.logger.ErrorWith(logger.Queue, "%s", msg)
}

// remove takes an intent out of the queue and drops its processing state.
func (m *Manager) remove(orderID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.queue {
		if id == orderID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	delete(m.inQueue, orderID)
	delete(m.progress, orderID)
	metrics.QueueSize.Set(float64(len(m.queue)))
}
