package domain

// Tick is the publicly advertised snapshot of an order, anchored to a block
// of the trust ledger.
type Tick struct {
	OrderID   OrderID
	Assets    AssetPair
	Timeout   Timeout
	Timestamp Timestamp
	IsAsk     bool
	Traded    uint64
	BlockHash BlockHash
}

// NewTickFromOrder snapshots the current state of the given order.
func NewTickFromOrder(order *Order, blockHash BlockHash) *Tick {
	return &Tick{
		OrderID:   order.ID,
		Assets:    order.Assets,
		Timeout:   order.Timeout,
		Timestamp: order.Timestamp,
		IsAsk:     order.IsAsk,
		Traded:    order.TradedQuantity,
		BlockHash: blockHash,
	}
}

// IsValid returns whether the tick is not expired at now.
func (t *Tick) IsValid(now Timestamp) bool {
	return !t.Timeout.IsTimedOut(t.Timestamp, now)
}
