package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExtendedStatus is the status space the solver tracks for an intent. The
// escrow contract only knows PendingDispense, DispensedPendingProceeds and
// ProceedsReceived; SwapInitiated and SwapCompleted exist solely in solver
// memory while the sold asset is in the solver's custody.
type ExtendedStatus uint8

const (
	// StatusPendingDispense means the escrow still holds the sell asset and
	// is waiting for the solver to call withdrawAsset.
	StatusPendingDispense ExtendedStatus = 0
	// StatusDispensedPendingProceeds means the sell asset is in the solver's
	// custody and the swap has not started yet.
	StatusDispensedPendingProceeds ExtendedStatus = 1
	// StatusProceedsReceived is the terminal success state on the contract.
	StatusProceedsReceived ExtendedStatus = 2
	// StatusSwapInitiated is internal: the swap is in progress or due.
	StatusSwapInitiated ExtendedStatus = 3
	// StatusSwapCompleted is internal: the buy amount is known and the
	// deposit is pending.
	StatusSwapCompleted ExtendedStatus = 4
)

// String implements fmt.Stringer.
func (s ExtendedStatus) String() string {
	switch s {
	case StatusPendingDispense:
		return "PendingDispense"
	case StatusDispensedPendingProceeds:
		return "DispensedPendingProceeds"
	case StatusProceedsReceived:
		return "ProceedsReceived"
	case StatusSwapInitiated:
		return "SwapInitiated"
	case StatusSwapCompleted:
		return "SwapCompleted"
	default:
		return "Unknown"
	}
}

// IntentTypeTrade is the only intent type the solver executes.
const IntentTypeTrade uint8 = 0

// AGI is an agent generated intent as read from the escrow contract.
type AGI struct {
	OrderID      uint64
	IntentType   uint8
	AssetToSell  common.Address
	AmountToSell *big.Int
	AssetToBuy   common.Address
	OrderStatus  ExtendedStatus
}
