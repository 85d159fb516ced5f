package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/pkg/stats"
	"github.com/timshannon/badgerhold/v4"
)

type transactionRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTransactionRepositoryImpl initialize a badger implementation of the
// domain.TransactionRepository
func NewTransactionRepositoryImpl(
	store *badgerhold.Store,
) domain.TransactionRepository {
	return transactionRepositoryImpl{store}
}

func (r transactionRepositoryImpl) GetAllTransactions(
	ctx context.Context,
) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	err := view(ctx, r.store, func(tx *badger.Txn) error {
		var records []transactionRecord
		if err := r.store.TxFind(tx, &records, nil); err != nil {
			return err
		}

		transactions = make([]*domain.Transaction, 0, len(records))
		for _, rec := range records {
			t, err := r.toTransaction(tx, rec)
			if err != nil {
				return err
			}
			transactions = append(transactions, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r transactionRepositoryImpl) GetTransaction(
	ctx context.Context, id domain.TransactionID,
) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := view(ctx, r.store, func(tx *badger.Txn) error {
		var rec transactionRecord
		if err := r.store.TxGet(tx, transactionKey(id), &rec); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}

		t, err := r.toTransaction(tx, rec)
		if err != nil {
			return err
		}
		transaction = t
		return nil
	})
	return transaction, err
}

func (r transactionRepositoryImpl) AddTransaction(
	ctx context.Context, transaction *domain.Transaction,
) error {
	rec, err := newTransactionRecord(transaction)
	if err != nil {
		return err
	}

	return update(ctx, r.store, func(tx *badger.Txn) error {
		if err := r.store.TxInsert(
			tx, transactionKey(transaction.ID), rec,
		); err != nil {
			return insertErr(err)
		}

		if err := r.deletePayments(tx, transaction.ID); err != nil {
			return err
		}
		for _, p := range transaction.Payments {
			if err := r.insertPayment(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r transactionRepositoryImpl) InsertOrUpdateTransaction(
	ctx context.Context, transaction *domain.Transaction,
) error {
	key := transactionKey(transaction.ID)
	newRec, err := newTransactionRecord(transaction)
	if err != nil {
		return err
	}

	return update(ctx, r.store, func(tx *badger.Txn) error {
		var rec transactionRecord
		if err := r.store.TxGet(tx, key, &rec); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return r.store.TxInsert(tx, key, newRec)
			}
			return err
		}

		if int64(transaction.Timestamp) <= rec.TransactionTimestamp {
			stats.StaleTransactionUpdates.Inc()
			log.Debugf(
				"ignoring stale update for transaction %s: %d <= %d",
				transaction.ID, transaction.Timestamp, rec.TransactionTimestamp,
			)
			return nil
		}

		rec.Asset1Amount = newRec.Asset1Amount
		rec.Asset1Transferred = newRec.Asset1Transferred
		rec.Asset2Amount = newRec.Asset2Amount
		rec.Asset2Transferred = newRec.Asset2Transferred
		rec.TransactionTimestamp = newRec.TransactionTimestamp

		return r.store.TxUpdate(tx, key, rec)
	})
}

func (r transactionRepositoryImpl) DeleteTransaction(
	ctx context.Context, id domain.TransactionID,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		if err := r.store.TxDelete(
			tx, transactionKey(id), transactionRecord{},
		); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		return r.deletePayments(tx, id)
	})
}

func (r transactionRepositoryImpl) AddPayment(
	ctx context.Context, payment domain.Payment,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		return r.insertPayment(tx, payment)
	})
}

func (r transactionRepositoryImpl) GetPayments(
	ctx context.Context, id domain.TransactionID,
) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := view(ctx, r.store, func(tx *badger.Txn) error {
		records, err := r.findPayments(tx, id)
		if err != nil {
			return err
		}

		payments = make([]domain.Payment, 0, len(records))
		for _, rec := range records {
			p, err := rec.toDomain()
			if err != nil {
				return err
			}
			payments = append(payments, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r transactionRepositoryImpl) DeletePayments(
	ctx context.Context, id domain.TransactionID,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		return r.deletePayments(tx, id)
	})
}

func (r transactionRepositoryImpl) toTransaction(
	tx *badger.Txn, rec transactionRecord,
) (*domain.Transaction, error) {
	id, err := domain.NewTransactionIDFromString(rec.TransactionID)
	if err != nil {
		return nil, err
	}
	payments, err := r.findPayments(tx, id)
	if err != nil {
		return nil, err
	}
	return rec.toDomain(payments)
}

func (r transactionRepositoryImpl) findPayments(
	tx *badger.Txn, id domain.TransactionID,
) ([]paymentRecord, error) {
	query := badgerhold.Where("TransactionID").Eq(id.String()).
		SortBy("Timestamp")

	var records []paymentRecord
	if err := r.store.TxFind(tx, &records, query); err != nil {
		return nil, err
	}
	return records, nil
}

func (r transactionRepositoryImpl) insertPayment(
	tx *badger.Txn, payment domain.Payment,
) error {
	rec, err := newPaymentRecord(payment)
	if err != nil {
		return err
	}
	if err := r.store.TxInsert(tx, paymentKey(payment), rec); err != nil {
		return insertErr(err)
	}
	return nil
}

func (r transactionRepositoryImpl) deletePayments(
	tx *badger.Txn, id domain.TransactionID,
) error {
	query := badgerhold.Where("TransactionID").Eq(id.String())
	return r.store.TxDeleteMatching(tx, &paymentRecord{}, query)
}
