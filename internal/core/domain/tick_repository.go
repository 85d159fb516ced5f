package domain

import "context"

// TickRepository is the abstraction for any kind of database intended to
// persist the locally known public order book.
type TickRepository interface {
	// AddTick stores the tick. Adding a tick for an already stored order id
	// returns an error wrapping ErrDuplicateKey.
	AddTick(ctx context.Context, tick *Tick) error
	// DeleteAllTicks clears the order book.
	DeleteAllTicks(ctx context.Context) error
	// GetTicks returns all stored ticks.
	GetTicks(ctx context.Context) ([]*Tick, error)
}
