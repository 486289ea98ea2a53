package blockchain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TxRevertedError is returned when a transaction was mined but its receipt
// reports failure. The queue handles it like any other non-swap error: the
// intent stays queued and is retried after the generic retry delay.
type TxRevertedError struct {
	TxHash common.Hash
}

func (e *TxRevertedError) Error() string {
	return fmt.Sprintf("transaction reverted: %s", e.TxHash.Hex())
}

// ErrReceiptTimeout is returned when receipt polling gives up before the
// transaction is mined.
type ErrReceiptTimeout struct {
	TxHash   common.Hash
	Attempts int
}

func (e *ErrReceiptTimeout) Error() string {
	return fmt.Sprintf("no receipt for transaction %s after %d attempts", e.TxHash.Hex(), e.Attempts)
}
