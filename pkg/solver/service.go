// Package solver wires the solver together: chain connection, swap stack,
// queue manager, event source and the health server.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/warehouse13/agi-solver/pkg/blockchain"
	"github.com/warehouse13/agi-solver/pkg/circuitbreaker"
	"github.com/warehouse13/agi-solver/pkg/config"
	"github.com/warehouse13/agi-solver/pkg/events"
	"github.com/warehouse13/agi-solver/pkg/failedswaps"
	"github.com/warehouse13/agi-solver/pkg/health"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/queue"
	"github.com/warehouse13/agi-solver/pkg/swap"
)

// Service owns the solver's components and their lifecycle.
type Service struct {
	config       *config.Config
	chain        *blockchain.ChainConfig
	store        *failedswaps.Store
	breaker      *circuitbreaker.CircuitBreaker
	queue        *queue.Manager
	source       *events.Source
	nonceManager *blockchain.NonceManager
	logger       logger.Logger
}

// NewService connects to the chain and builds the solver components.
func NewService(cfg *config.Config, lg logger.Logger) (*Service, error) {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}

	chain := blockchain.NewChainConfig(cfg.RPCURL, cfg.WSURL, cfg.EscrowAddress, cfg.MaxGasPrice)
	if err := chain.Connect(cfg.PrivateKey); err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %v", err)
	}

	store, err := failedswaps.NewStore(cfg.FailedSwapsDB, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open failed swaps store: %v", err)
	}

	breaker := circuitbreaker.NewCircuitBreaker(
		cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold,
		cfg.CircuitBreaker.WindowDuration,
		cfg.CircuitBreaker.ResetTimeout,
		lg,
	)

	aggregator := swap.NewAggregatorClient(
		cfg.AggregatorURL,
		cfg.DefaultSlippage,
		chain.SolverAddress,
		breaker,
		lg,
	)
	coordinator := swap.NewCoordinator(aggregator, cfg.MaxRetries, lg)

	nonceManager := blockchain.NewNonceManager()
	nonceManager.SetTransactionTimeout(10 * time.Minute)
	executor := blockchain.NewExecutor(chain, nonceManager, lg, cfg.ReceiptPollInterval, cfg.ReceiptMaxAttempts)

	manager := queue.NewManager(cfg, executor, coordinator, store, lg)

	source, err := events.NewSource(chain, manager, lg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Service{
		config:       cfg,
		chain:        chain,
		store:        store,
		breaker:      breaker,
		queue:        manager,
		source:       source,
		nonceManager: nonceManager,
		logger:       lg,
	}, nil
}

// Start runs the solver until ctx is cancelled. The backlog scan runs first
// so intents published while the solver was down are admitted before live
// events.
func (s *Service) Start(ctx context.Context) {
	healthServer := health.NewServer(s.config.MetricsPort, s.chain, s.breaker, s.queue, s.logger)
	go healthServer.Start()

	go s.transactionRecovery(ctx)

	s.logger.Info("solver running as %s against escrow %s",
		s.chain.SolverAddress.Hex(), common.HexToAddress(s.chain.EscrowAddress).Hex())

	if err := s.source.Backfill(ctx); err != nil {
		s.logger.ErrorWith(logger.Events, "backlog scan failed: %v", err)
	}

	s.source.Run(ctx)

	s.queue.Close()
	if err := s.store.Close(); err != nil {
		s.logger.ErrorWith(logger.Store, "failed to close failed swaps store: %v", err)
	}
	s.logger.Notice("solver stopped")
}

// transactionRecovery sweeps for submitted transactions that never produced a
// receipt and resynchronizes the nonce counter with the node when it finds
// any.
func (s *Service) transactionRecovery(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			timedOut := s.nonceManager.FindTimeoutTransactions()
			if len(timedOut) == 0 {
				continue
			}

			s.logger.ErrorWith(logger.Chain, "%d transactions timed out, resyncing nonce", len(timedOut))
			for _, nonce := range timedOut {
				s.nonceManager.ReuseNonce(nonce)
			}
			if err := s.nonceManager.SyncWithBlockchain(ctx, s.chain.Client, s.chain.SolverAddress); err != nil {
				s.logger.ErrorWith(logger.Chain, "nonce resync failed: %v", err)
			}
		}
	}
}
