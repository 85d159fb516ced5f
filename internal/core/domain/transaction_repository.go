package domain

import "context"

// TransactionRepository is the abstraction for any kind of database intended
// to persist Transactions and their Payments.
type TransactionRepository interface {
	// GetAllTransactions returns every stored transaction with its payments
	// sorted by timestamp.
	GetAllTransactions(ctx context.Context) ([]*Transaction, error)
	// GetTransaction returns the transaction with the given id, or nil if
	// not found.
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	// AddTransaction stores the transaction and replaces the stored payment
	// set with the one attached to it.
	AddTransaction(ctx context.Context, transaction *Transaction) error
	// InsertOrUpdateTransaction inserts the transaction if missing.
	// Otherwise, only amounts, transferred amounts and timestamp are
	// updated, and only if the given timestamp is strictly newer than the
	// stored one. Payments are never touched.
	InsertOrUpdateTransaction(ctx context.Context, transaction *Transaction) error
	// DeleteTransaction removes the transaction and its payments.
	DeleteTransaction(ctx context.Context, id TransactionID) error
	// AddPayment stores a single payment without touching its siblings.
	AddPayment(ctx context.Context, payment Payment) error
	// GetPayments returns the payments of a transaction sorted by
	// timestamp.
	GetPayments(ctx context.Context, id TransactionID) ([]Payment, error)
	// DeletePayments removes all payments of a transaction.
	DeletePayments(ctx context.Context, id TransactionID) error
}
