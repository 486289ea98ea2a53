package models

// FailedSwap is the durable record written when an intent is evicted after
// exhausting its swap retries. AmountToSell is a decimal string so the full
// uint256 value survives the round trip through the store.
type FailedSwap struct {
	Timestamp    int64
	OrderID      uint64
	ErrorMessage string
	IntentType   uint8
	AssetToSell  string
	AmountToSell string
	AssetToBuy   string
	OrderStatus  uint8
}
