package application

import "errors"

var (
	// ErrOrderExpired is returned when reserving quantity of an order whose
	// timeout elapsed.
	ErrOrderExpired = errors.New("order is expired")
	// ErrTradeQuantityDecreased is returned when a newer state of a recorded
	// transaction commits less than the stored one.
	ErrTradeQuantityDecreased = errors.New(
		"committed trade quantity can't decrease",
	)
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
)
