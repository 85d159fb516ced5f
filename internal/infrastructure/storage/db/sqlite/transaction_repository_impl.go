package sqlitedb

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/pkg/stats"
)

const (
	selectTransactionsQuery = "SELECT " + transactionColumns + " FROM transactions"
	selectTransactionQuery  = selectTransactionsQuery + " WHERE transaction_id = ?"
	insertTransactionQuery  = "INSERT INTO transactions(" + transactionColumns +
		") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	insertOrIgnoreTransactionQuery = "INSERT OR IGNORE INTO transactions(" +
		transactionColumns +
		") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	updateTransactionQuery = `UPDATE transactions SET asset1_amount = ?,
 asset1_transferred = ?, asset2_amount = ?, asset2_transferred = ?,
 transaction_timestamp = ? WHERE transaction_id = ? AND transaction_timestamp < ?`
	deleteTransactionQuery = "DELETE FROM transactions WHERE transaction_id = ?"

	selectPaymentsQuery = "SELECT " + paymentColumns +
		" FROM payments WHERE transaction_id = ? ORDER BY timestamp ASC"
	insertPaymentQuery = "INSERT INTO payments(" + paymentColumns +
		") VALUES(?, ?, ?, ?, ?, ?, ?, ?)"
	deletePaymentsQuery = "DELETE FROM payments WHERE transaction_id = ?"
)

type transactionRepositoryImpl struct {
	db *dbHandle
}

// NewTransactionRepositoryImpl initialize a sqlite implementation of the
// domain.TransactionRepository
func NewTransactionRepositoryImpl(db *dbHandle) domain.TransactionRepository {
	return transactionRepositoryImpl{db}
}

func (r transactionRepositoryImpl) GetAllTransactions(
	ctx context.Context,
) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	err := r.db.read(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, selectTransactionsQuery)
		if err != nil {
			return err
		}

		records := make([]transactionRow, 0)
		for rows.Next() {
			row, err := scanTransactionRow(rows)
			if err != nil {
				rows.Close()
				return err
			}
			records = append(records, row)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		transactions = make([]*domain.Transaction, 0, len(records))
		for _, row := range records {
			t, err := r.toTransaction(ctx, q, row)
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
	err := r.db.read(ctx, func(q querier) error {
		row, err := scanTransactionRow(
			q.QueryRowContext(ctx, selectTransactionQuery, id.String()),
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		t, err := r.toTransaction(ctx, q, row)
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
	row, err := newTransactionRow(transaction)
	if err != nil {
		return err
	}
	payments := make([]paymentRow, 0, len(transaction.Payments))
	for _, p := range transaction.Payments {
		pr, err := newPaymentRow(p)
		if err != nil {
			return err
		}
		payments = append(payments, pr)
	}

	return r.db.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(
			ctx, insertTransactionQuery, row.args()...,
		); err != nil {
			return insertErr(err)
		}

		if _, err := q.ExecContext(
			ctx, deletePaymentsQuery, row.TransactionID,
		); err != nil {
			return err
		}
		for _, p := range payments {
			if err := insertPayment(ctx, q, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r transactionRepositoryImpl) InsertOrUpdateTransaction(
	ctx context.Context, transaction *domain.Transaction,
) error {
	row, err := newTransactionRow(transaction)
	if err != nil {
		return err
	}

	return r.db.write(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, insertOrIgnoreTransactionQuery, row.args()...)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted > 0 {
			return nil
		}

		res, err = q.ExecContext(
			ctx, updateTransactionQuery,
			row.Asset1Amount, row.Asset1Transferred, row.Asset2Amount,
			row.Asset2Transferred, row.TransactionTimestamp, row.TransactionID,
			row.TransactionTimestamp,
		)
		if err != nil {
			return err
		}
		updated, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if updated == 0 {
			stats.StaleTransactionUpdates.Inc()
			log.Debugf(
				"ignoring stale update for transaction %s at %d",
				transaction.ID, transaction.Timestamp,
			)
		}
		return nil
	})
}

func (r transactionRepositoryImpl) DeleteTransaction(
	ctx context.Context, id domain.TransactionID,
) error {
	return r.db.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(
			ctx, deleteTransactionQuery, id.String(),
		); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, deletePaymentsQuery, id.String())
		return err
	})
}

func (r transactionRepositoryImpl) AddPayment(
	ctx context.Context, payment domain.Payment,
) error {
	row, err := newPaymentRow(payment)
	if err != nil {
		return err
	}
	return r.db.write(ctx, func(q querier) error {
		return insertPayment(ctx, q, row)
	})
}

func (r transactionRepositoryImpl) GetPayments(
	ctx context.Context, id domain.TransactionID,
) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.read(ctx, func(q querier) error {
		rows, err := findPayments(ctx, q, id)
		if err != nil {
			return err
		}

		payments = make([]domain.Payment, 0, len(rows))
		for _, row := range rows {
			p, err := row.toDomain()
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
	return r.db.write(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, deletePaymentsQuery, id.String())
		return err
	})
}

func (r transactionRepositoryImpl) toTransaction(
	ctx context.Context, q querier, row transactionRow,
) (*domain.Transaction, error) {
	id, err := domain.NewTransactionIDFromString(row.TransactionID)
	if err != nil {
		return nil, err
	}
	payments, err := findPayments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(payments)
}

func findPayments(
	ctx context.Context, q querier, id domain.TransactionID,
) ([]paymentRow, error) {
	rows, err := q.QueryContext(ctx, selectPaymentsQuery, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]paymentRow, 0)
	for rows.Next() {
		row, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, row)
	}
	return records, rows.Err()
}

func insertPayment(ctx context.Context, q querier, row paymentRow) error {
	if _, err := q.ExecContext(ctx, insertPaymentQuery, row.args()...); err != nil {
		return insertErr(err)
	}
	return nil
}
