package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/warehouse13/agi-solver/pkg/contracts"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"
)

// AllowanceCacheKey identifies one owner/spender pair for a token
type AllowanceCacheKey struct {
	TokenAddr   common.Address
	OwnerAddr   common.Address
	SpenderAddr common.Address
}

// AllowanceCacheEntry holds a cached allowance value
type AllowanceCacheEntry struct {
	Allowance  *big.Int
	UpdatedAt  time.Time
	Expiration time.Time
}

// Executor submits escrow transactions for the solver account and waits for
// their receipts. All submissions go through the nonce manager so concurrent
// callers never race on nonce allocation.
type Executor struct {
	chain               *ChainConfig
	nonceManager        *NonceManager
	logger              logger.Logger
	receiptPollInterval time.Duration
	receiptMaxAttempts  int
	allowanceCache      map[AllowanceCacheKey]AllowanceCacheEntry
	allowanceMu         sync.RWMutex
}

// NewExecutor creates a transaction executor bound to the connected chain.
func NewExecutor(chain *ChainConfig, nonceManager *NonceManager, lg logger.Logger, receiptPollInterval time.Duration, receiptMaxAttempts int) *Executor {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}
	return &Executor{
		chain:               chain,
		nonceManager:        nonceManager,
		logger:              lg,
		receiptPollInterval: receiptPollInterval,
		receiptMaxAttempts:  receiptMaxAttempts,
		allowanceCache:      make(map[AllowanceCacheKey]AllowanceCacheEntry),
	}
}

// ViewAGI reads the current on-chain state of one intent.
func (e *Executor) ViewAGI(ctx context.Context, orderID uint64) (models.AGI, error) {
	view, err := e.chain.Escrow.ViewAGI(&bind.CallOpts{Context: ctx}, new(big.Int).SetUint64(orderID))
	if err != nil {
		return models.AGI{}, fmt.Errorf("failed to view AGI %d: %v", orderID, err)
	}

	return models.AGI{
		OrderID:      view.OrderId.Uint64(),
		IntentType:   view.IntentType,
		AssetToSell:  view.AssetToSell,
		AmountToSell: view.AmountToSell,
		AssetToBuy:   view.AssetToBuy,
		OrderStatus:  models.ExtendedStatus(view.OrderStatus),
	}, nil
}

// WithdrawAsset pulls the sell asset for one intent out of the escrow into
// the solver's custody.
func (e *Executor) WithdrawAsset(ctx context.Context, orderID uint64) error {
	txOpts, nonce, err := e.prepareTransactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := e.chain.Escrow.WithdrawAsset(txOpts, new(big.Int).SetUint64(orderID))
	if err != nil {
		e.nonceManager.ReuseNonce(nonce)
		return fmt.Errorf("failed to send withdrawAsset for AGI %d: %v", orderID, err)
	}
	e.nonceManager.TrackTransaction(tx.Hash(), nonce)

	e.logger.InfoWith(logger.Chain, "withdrawAsset sent for AGI %d: %s (nonce: %d)", orderID, tx.Hash().Hex(), nonce)

	if err := e.waitReceipt(ctx, tx, nonce); err != nil {
		return err
	}

	metrics.WithdrawalsTotal.Inc()
	return nil
}

// DepositAsset returns the swap proceeds to the escrow, approving the escrow
// to pull the buy asset first when the current allowance is insufficient.
func (e *Executor) DepositAsset(ctx context.Context, orderID uint64, assetToBuy common.Address, amount *big.Int) error {
	escrowAddress := common.HexToAddress(e.chain.EscrowAddress)

	hasAllowance, err := e.checkAndCacheAllowance(ctx, assetToBuy, e.chain.SolverAddress, escrowAddress, amount)
	if err != nil {
		e.logger.ErrorWith(logger.Chain, "failed to check allowance for AGI %d: %v", orderID, err)
		hasAllowance = false
	}

	if !hasAllowance {
		if err := e.approveMax(ctx, assetToBuy, escrowAddress); err != nil {
			return err
		}
	}

	txOpts, nonce, err := e.prepareTransactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := e.chain.Escrow.DepositAsset(txOpts, new(big.Int).SetUint64(orderID), amount)
	if err != nil {
		e.nonceManager.ReuseNonce(nonce)
		return fmt.Errorf("failed to send depositAsset for AGI %d: %v", orderID, err)
	}
	e.nonceManager.TrackTransaction(tx.Hash(), nonce)

	e.logger.InfoWith(logger.Chain, "depositAsset sent for AGI %d: %s (amount: %s, nonce: %d)",
		orderID, tx.Hash().Hex(), amount.String(), nonce)

	if err := e.waitReceipt(ctx, tx, nonce); err != nil {
		return err
	}

	metrics.DepositsTotal.Inc()
	return nil
}

// approveMax grants the spender an unlimited allowance on the token.
func (e *Executor) approveMax(ctx context.Context, tokenAddress, spenderAddress common.Address) error {
	token, err := contracts.NewERC20(tokenAddress, e.chain.Client)
	if err != nil {
		return fmt.Errorf("failed to create ERC20 binding: %v", err)
	}

	txOpts, nonce, err := e.prepareTransactOpts(ctx)
	if err != nil {
		return err
	}

	// Use max uint256 value for unlimited approval to avoid future approval transactions
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tx, err := token.Approve(txOpts, spenderAddress, maxUint256)
	if err != nil {
		e.nonceManager.ReuseNonce(nonce)
		return fmt.Errorf("failed to approve token transfer: %v", err)
	}
	e.nonceManager.TrackTransaction(tx.Hash(), nonce)

	e.logger.InfoWith(logger.Chain, "approval sent for token %s: %s (nonce: %d)",
		tokenAddress.Hex(), tx.Hash().Hex(), nonce)

	if err := e.waitReceipt(ctx, tx, nonce); err != nil {
		return err
	}

	e.updateAllowanceCache(tokenAddress, e.chain.SolverAddress, spenderAddress, maxUint256)
	return nil
}

// prepareTransactOpts refreshes the gas price, reserves a nonce and returns a
// per-call copy of the transactor so concurrent submissions do not share state.
func (e *Executor) prepareTransactOpts(ctx context.Context) (*bind.TransactOpts, uint64, error) {
	finalGasPrice, err := e.chain.UpdateGasPrice(ctx)
	if err != nil {
		e.logger.ErrorWith(logger.Chain, "failed to update gas price: %v", err)
		// Continue with default/previous gas price
	} else {
		gasPriceGwei := new(big.Float).Quo(
			new(big.Float).SetInt(finalGasPrice),
			big.NewFloat(1e9),
		)
		gweiFlt, _ := gasPriceGwei.Float64()
		metrics.GasPrice.Set(gweiFlt)
	}

	txOpts := *e.chain.Auth
	txOpts.Context = ctx

	nonce, err := e.nonceManager.GetNonce(ctx, e.chain.Client, txOpts.From)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get nonce: %v", err)
	}
	txOpts.Nonce = big.NewInt(int64(nonce))

	return &txOpts, nonce, nil
}

// waitReceipt polls for the receipt of tx until it lands, the attempt cap is
// reached or ctx is cancelled. A mined-but-reverted transaction yields a
// TxRevertedError.
func (e *Executor) waitReceipt(ctx context.Context, tx *types.Transaction, nonce uint64) error {
	started := time.Now()

	for attempt := 1; attempt <= e.receiptMaxAttempts; attempt++ {
		receipt, err := e.chain.Client.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			metrics.ReceiptWaitSeconds.Observe(time.Since(started).Seconds())

			if receipt.Status == 0 {
				e.nonceManager.MarkTransactionFailed(nonce)
				return &TxRevertedError{TxHash: tx.Hash()}
			}

			e.nonceManager.MarkTransactionConfirmed(nonce)
			e.logger.DebugWith(logger.Chain, "transaction mined: %s (gas used: %d)", tx.Hash().Hex(), receipt.GasUsed)
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			e.logger.DebugWith(logger.Chain, "receipt poll for %s: %v", tx.Hash().Hex(), err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.receiptPollInterval):
		}
	}

	e.nonceManager.MarkTransactionFailed(nonce)
	return &ErrReceiptTimeout{TxHash: tx.Hash(), Attempts: e.receiptMaxAttempts}
}

// checkAndCacheAllowance checks if there's enough token allowance and caches the result
func (e *Executor) checkAndCacheAllowance(ctx context.Context, tokenAddress, ownerAddress, spenderAddress common.Address, requiredAmount *big.Int) (bool, error) {
	cacheKey := AllowanceCacheKey{
		TokenAddr:   tokenAddress,
		OwnerAddr:   ownerAddress,
		SpenderAddr: spenderAddress,
	}

	// Check cache first (with read lock)
	e.allowanceMu.RLock()
	entry, exists := e.allowanceCache[cacheKey]
	e.allowanceMu.RUnlock()

	now := time.Now()
	// If we have a cached entry that's still valid and sufficient
	if exists && now.Before(entry.Expiration) && entry.Allowance.Cmp(requiredAmount) >= 0 {
		e.logger.DebugWith(logger.Chain, "using cached allowance for token %s: %s",
			tokenAddress.Hex(), entry.Allowance.String())
		return true, nil
	}

	token, err := contracts.NewERC20(tokenAddress, e.chain.Client)
	if err != nil {
		return false, fmt.Errorf("failed to create ERC20 binding: %v", err)
	}

	allowance, err := token.Allowance(&bind.CallOpts{Context: ctx}, ownerAddress, spenderAddress)
	if err != nil {
		return false, fmt.Errorf("failed to check allowance: %v", err)
	}

	// Cache the result (with write lock)
	e.allowanceMu.Lock()
	e.allowanceCache[cacheKey] = AllowanceCacheEntry{
		Allowance:  allowance,
		UpdatedAt:  now,
		Expiration: now.Add(10 * time.Minute), // Cache for 10 minutes
	}
	e.allowanceMu.Unlock()

	return allowance.Cmp(requiredAmount) >= 0, nil
}

// updateAllowanceCache updates the cache after a successful approval
func (e *Executor) updateAllowanceCache(tokenAddr, ownerAddr, spenderAddr common.Address, newAllowance *big.Int) {
	cacheKey := AllowanceCacheKey{
		TokenAddr:   tokenAddr,
		OwnerAddr:   ownerAddr,
		SpenderAddr: spenderAddr,
	}

	now := time.Now()
	e.allowanceMu.Lock()
	e.allowanceCache[cacheKey] = AllowanceCacheEntry{
		Allowance:  newAllowance,
		UpdatedAt:  now,
		Expiration: now.Add(10 * time.Minute),
	}
	e.allowanceMu.Unlock()
}
