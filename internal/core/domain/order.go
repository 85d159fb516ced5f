package domain

const (
	OrderStatusUnverified = "unverified"
	OrderStatusOpen       = "open"
	OrderStatusCompleted  = "completed"
	OrderStatusExpired    = "expired"
	OrderStatusCancelled  = "cancelled"
)

// Order is a trader's standing offer to exchange the first asset of the pair
// for the second one.
type Order struct {
	ID                 OrderID
	Assets             AssetPair
	TradedQuantity     uint64
	ReceivedQuantity   uint64
	Timeout            Timeout
	Timestamp          Timestamp
	CompletedTimestamp *Timestamp
	IsAsk              bool
	Cancelled          bool
	Verified           bool
	// ReservedTicks maps a counterpart order to the quantity of this order
	// locked for it during negotiation.
	ReservedTicks map[OrderID]uint64
}

// NewOrder returns an open, unverified order with no reservations.
func NewOrder(
	id OrderID, assets AssetPair, timeout Timeout, timestamp Timestamp,
	isAsk bool,
) (*Order, error) {
	if id.OrderNumber == 0 {
		return nil, ErrInvalidOrderNumber
	}
	if _, err := NewAssetPair(assets.First, assets.Second); err != nil {
		return nil, err
	}
	if timeout < 0 {
		return nil, ErrInvalidTimeout
	}
	if timestamp < 0 {
		return nil, ErrInvalidTimestamp
	}

	return &Order{
		ID:            id,
		Assets:        assets,
		Timeout:       timeout,
		Timestamp:     timestamp,
		IsAsk:         isAsk,
		ReservedTicks: make(map[OrderID]uint64),
	}, nil
}

// ReservedQuantity returns the total quantity locked by reservations.
func (o *Order) ReservedQuantity() uint64 {
	var total uint64
	for _, qty := range o.ReservedTicks {
		total += qty
	}
	return total
}

// AvailableQuantity returns the quantity neither traded nor reserved.
func (o *Order) AvailableQuantity() uint64 {
	locked := o.TradedQuantity + o.ReservedQuantity()
	if locked >= o.Assets.First.Amount {
		return 0
	}
	return o.Assets.First.Amount - locked
}

// ReserveQuantity locks the given quantity for the counterpart order. The
// sum of the reservations never exceeds the untraded quantity.
func (o *Order) ReserveQuantity(counterpart OrderID, quantity uint64) error {
	if o.Cancelled {
		return ErrOrderClosed
	}
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if quantity > o.AvailableQuantity() {
		return ErrInsufficientQuantity
	}

	if o.ReservedTicks == nil {
		o.ReservedTicks = make(map[OrderID]uint64)
	}
	o.ReservedTicks[counterpart] += quantity
	return nil
}

// ReleaseQuantity unlocks the given quantity previously reserved for the
// counterpart order.
func (o *Order) ReleaseQuantity(counterpart OrderID, quantity uint64) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	reserved, ok := o.ReservedTicks[counterpart]
	if !ok || reserved < quantity {
		return ErrReservationNotFound
	}

	if reserved == quantity {
		delete(o.ReservedTicks, counterpart)
		return nil
	}
	o.ReservedTicks[counterpart] = reserved - quantity
	return nil
}

// AddTrade records a fill against the counterpart order. The counterpart
// reservation, if any, is consumed first. Quantity reserved for other
// counterparts can't be traded.
func (o *Order) AddTrade(counterpart OrderID, quantity uint64, at Timestamp) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if quantity > o.AvailableQuantity()+o.ReservedTicks[counterpart] {
		return ErrInsufficientQuantity
	}
	if reserved, ok := o.ReservedTicks[counterpart]; ok {
		release := quantity
		if release > reserved {
			release = reserved
		}
		if err := o.ReleaseQuantity(counterpart, release); err != nil {
			return err
		}
	}

	o.TradedQuantity += quantity
	if o.IsComplete() && o.CompletedTimestamp == nil {
		completedAt := at
		o.CompletedTimestamp = &completedAt
	}
	return nil
}

// Cancel closes the order and drops any reservation.
func (o *Order) Cancel() {
	o.Cancelled = true
	o.ReservedTicks = make(map[OrderID]uint64)
}

func (o *Order) IsComplete() bool {
	return o.TradedQuantity >= o.Assets.First.Amount
}

func (o *Order) IsExpired(now Timestamp) bool {
	return o.Timeout.IsTimedOut(o.Timestamp, now)
}

// Status returns the lifecycle state of the order at the given time.
func (o *Order) Status(now Timestamp) string {
	switch {
	case o.Cancelled:
		return OrderStatusCancelled
	case o.IsComplete():
		return OrderStatusCompleted
	case o.IsExpired(now):
		return OrderStatusExpired
	case !o.Verified:
		return OrderStatusUnverified
	default:
		return OrderStatusOpen
	}
}

// ReservedTick is a single persisted reservation of an order.
type ReservedTick struct {
	OrderID  OrderID
	Quantity uint64
}

// ReservedTickList returns the reservations of the order as a list.
func (o *Order) ReservedTickList() []ReservedTick {
	list := make([]ReservedTick, 0, len(o.ReservedTicks))
	for id, qty := range o.ReservedTicks {
		list = append(list, ReservedTick{id, qty})
	}
	return list
}
