// Package events feeds the queue: a backlog scan on startup picks up intents
// published while the solver was down, and a live subscription admits new
// ones as they are published.
package events

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/warehouse13/agi-solver/pkg/blockchain"
	"github.com/warehouse13/agi-solver/pkg/contracts"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
)

const (
	// pollInterval is how often the log poller runs when no websocket
	// endpoint is configured
	pollInterval = 5 * time.Second

	// resubscribeDelay is the pause before a dropped subscription is retried
	resubscribeDelay = 5 * time.Second
)

// Admitter accepts intent ids for processing.
type Admitter interface {
	Add(orderID uint64)
}

// Source discovers intents on the escrow and admits them to the queue.
type Source struct {
	chain   *blockchain.ChainConfig
	queue   Admitter
	logger  logger.Logger
	watcher *contracts.Escrow
}

// NewSource creates an admission source. When the chain has a websocket
// client the AGIPublished subscription runs over it; otherwise the source
// falls back to polling the logs over the HTTP client.
func NewSource(chain *blockchain.ChainConfig, queue Admitter, lg logger.Logger) (*Source, error) {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}

	s := &Source{
		chain:  chain,
		queue:  queue,
		logger: lg,
	}

	if chain.WSClient != nil {
		watcher, err := contracts.NewEscrow(common.HexToAddress(chain.EscrowAddress), chain.WSClient)
		if err != nil {
			return nil, fmt.Errorf("failed to bind escrow over websocket: %v", err)
		}
		s.watcher = watcher
	}

	return s, nil
}

// Backfill admits every published intent the escrow has not yet marked
// processed. Ids run from 1 to nextOrderId-1.
func (s *Source) Backfill(ctx context.Context) error {
	callOpts := &bind.CallOpts{Context: ctx}

	nextOrderID, err := s.chain.Escrow.NextOrderId(callOpts)
	if err != nil {
		return fmt.Errorf("failed to read nextOrderId: %v", err)
	}

	processedLen, err := s.chain.Escrow.ProcessedAGIsLength(callOpts)
	if err != nil {
		return fmt.Errorf("failed to read processedAGIsLength: %v", err)
	}

	processed := make(map[uint64]bool)
	if processedLen.Sign() > 0 {
		processedIDs, err := s.chain.Escrow.GetProcessedAGIs(callOpts, big.NewInt(0), processedLen)
		if err != nil {
			return fmt.Errorf("failed to read processed AGIs: %v", err)
		}
		for _, id := range processedIDs {
			processed[id.Uint64()] = true
		}
	}

	next := nextOrderID.Uint64()
	admitted := 0
	for orderID := uint64(1); orderID < next; orderID++ {
		if processed[orderID] {
			continue
		}
		s.queue.Add(orderID)
		metrics.IntentsAdmitted.WithLabelValues("backfill").Inc()
		admitted++
	}

	s.logger.InfoWith(logger.Events, "backlog scan complete: %d of %d intents admitted", admitted, next-1)
	return nil
}

// Run admits newly published intents until ctx is cancelled.
func (s *Source) Run(ctx context.Context) {
	if s.watcher != nil {
		s.runSubscription(ctx)
		return
	}
	s.runPolling(ctx)
}

// runSubscription watches AGIPublished over the websocket, resubscribing
// whenever the subscription drops.
func (s *Source) runSubscription(ctx context.Context) {
	for {
		sink := make(chan *contracts.EscrowAGIPublished, 16)
		sub, err := s.watcher.WatchAGIPublished(&bind.WatchOpts{Context: ctx}, sink, nil)
		if err != nil {
			s.logger.ErrorWith(logger.Events, "failed to subscribe to AGIPublished: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
				continue
			}
		}

		s.logger.InfoWith(logger.Events, "subscribed to AGIPublished")

	recv:
		for {
			select {
			case <-ctx.Done():
				sub.Unsubscribe()
				return
			case err := <-sub.Err():
				s.logger.ErrorWith(logger.Events, "AGIPublished subscription dropped: %v", err)
				sub.Unsubscribe()
				break recv
			case ev := <-sink:
				s.admit(ev)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

// runPolling filters AGIPublished logs over the HTTP client from the block
// after the last one seen.
func (s *Source) runPolling(ctx context.Context) {
	s.logger.InfoWith(logger.Events, "no websocket endpoint, polling for AGIPublished logs")

	lastBlock, err := s.chain.GetLatestBlockNumber(ctx)
	if err != nil {
		s.logger.ErrorWith(logger.Events, "failed to read latest block: %v", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			latest, err := s.chain.GetLatestBlockNumber(ctx)
			if err != nil {
				s.logger.ErrorWith(logger.Events, "failed to read latest block: %v", err)
				continue
			}
			if latest <= lastBlock {
				continue
			}

			from := lastBlock + 1
			iter, err := s.chain.Escrow.FilterAGIPublished(&bind.FilterOpts{
				Start:   from,
				End:     &latest,
				Context: ctx,
			}, nil)
			if err != nil {
				s.logger.ErrorWith(logger.Events, "failed to filter AGIPublished logs: %v", err)
				continue
			}

			for iter.Next() {
				s.admit(iter.Event)
			}
			if err := iter.Error(); err != nil {
				s.logger.ErrorWith(logger.Events, "AGIPublished iterator error: %v", err)
				iter.Close()
				continue
			}
			iter.Close()

			lastBlock = latest
		}
	}
}

func (s *Source) admit(ev *contracts.EscrowAGIPublished) {
	orderID := ev.OrderId.Uint64()
	s.logger.InfoWith(logger.Events, "AGI %d published (sell: %s, buy: %s)",
		orderID, ev.AssetToSell.Hex(), ev.AssetToBuy.Hex())
	s.queue.Add(orderID)
	metrics.IntentsAdmitted.WithLabelValues("event").Inc()
}
