package domain

import "errors"

// Validation errors, returned by constructors and by the storage layer when
// decoding a persisted row that doesn't satisfy the domain constraints.
var (
	// ErrInvalidTraderID ...
	ErrInvalidTraderID = errors.New("invalid trader id")
	// ErrInvalidOrderNumber ...
	ErrInvalidOrderNumber = errors.New("order number must be strictly positive")
	// ErrInvalidTransactionID ...
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidPaymentID ...
	ErrInvalidPaymentID = errors.New("payment id must not be empty")
	// ErrInvalidBlockHash ...
	ErrInvalidBlockHash = errors.New("invalid block hash")
	// ErrInvalidAssetID ...
	ErrInvalidAssetID = errors.New("asset id must not be empty")
	// ErrInvalidAssetAmount is returned for amounts out of the storable range.
	ErrInvalidAssetAmount = errors.New("asset amount out of range")
	// ErrInvalidTimestamp ...
	ErrInvalidTimestamp = errors.New("timestamp must not be negative")
	// ErrInvalidTimeout ...
	ErrInvalidTimeout = errors.New("timeout must not be negative")
)

// Order errors.
var (
	// ErrInvalidQuantity is returned when reserving or releasing a zero
	// quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInsufficientQuantity is returned when trying to reserve more than
	// the available quantity of an order.
	ErrInsufficientQuantity = errors.New("not enough available quantity")
	// ErrReservationNotFound is returned when releasing quantity for a
	// counterpart that holds no reservation, or less than requested.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrOrderClosed is returned when mutating a cancelled order.
	ErrOrderClosed = errors.New("order is cancelled")
	// ErrOrderNotFound ...
	ErrOrderNotFound = errors.New("order not found")
)

// Storage errors.
var (
	// ErrDuplicateKey wraps the engine error returned when inserting a record
	// whose primary key is already stored.
	ErrDuplicateKey = errors.New("duplicate primary key")
)
