package domain

import "context"

// OrderRepository is the abstraction for any kind of database intended to
// persist Orders together with their reservation sets.
type OrderRepository interface {
	// GetAllOrders returns every stored order, each with its full
	// reservation set.
	GetAllOrders(ctx context.Context) ([]*Order, error)
	// GetOrder returns the order with the given id, or nil if not found.
	GetOrder(ctx context.Context, id OrderID) (*Order, error)
	// AddOrder stores the order and its reservations as a single unit of
	// work. Adding an already existing order returns an error wrapping
	// ErrDuplicateKey.
	AddOrder(ctx context.Context, order *Order) error
	// UpdateOrder allows to commit multiple changes to the same order in a
	// transactional way. The reservation set returned by updateFn replaces
	// the stored one as a whole.
	UpdateOrder(
		ctx context.Context,
		id OrderID,
		updateFn func(o *Order) (*Order, error),
	) error
	// DeleteOrder removes the order and its reservations. Deleting a
	// missing order is a no-op.
	DeleteOrder(ctx context.Context, id OrderID) error
	// GetNextOrderNumber returns the highest order number stored, for any
	// trader, plus one.
	GetNextOrderNumber(ctx context.Context) (OrderNumber, error)
	// AddReservedTick stores a single reservation of the given order.
	AddReservedTick(
		ctx context.Context, id, counterpart OrderID, quantity uint64,
	) error
	// DeleteReservedTicks removes all the reservations of the given order.
	DeleteReservedTicks(ctx context.Context, id OrderID) error
	// GetReservedTicks returns the reservations of the given order.
	GetReservedTicks(ctx context.Context, id OrderID) ([]ReservedTick, error)
}
