package sqlitedb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tdex-network/market-store/internal/core/domain"
)

const (
	selectOrdersQuery = "SELECT " + orderColumns + " FROM orders"
	selectOrderQuery  = selectOrdersQuery +
		" WHERE trader_id = ? AND order_number = ?"
	insertOrderQuery = "INSERT INTO orders(" + orderColumns +
		") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	updateOrderQuery = `UPDATE orders SET asset1_amount = ?, asset1_type = ?,
 asset2_amount = ?, asset2_type = ?, traded_quantity = ?, received_quantity = ?,
 timeout = ?, order_timestamp = ?, completed_timestamp = ?, is_ask = ?,
 cancelled = ?, verified = ? WHERE trader_id = ? AND order_number = ?`
	deleteOrderQuery    = "DELETE FROM orders WHERE trader_id = ? AND order_number = ?"
	maxOrderNumberQuery = "SELECT MAX(order_number) FROM orders"

	selectReservedTicksQuery = "SELECT " + reservedTickColumns +
		" FROM orders_reserved_ticks WHERE trader_id = ? AND order_number = ?"
	insertReservedTickQuery = "INSERT INTO orders_reserved_ticks(" +
		reservedTickColumns + ") VALUES(?, ?, ?, ?, ?)"
	deleteReservedTicksQuery = "DELETE FROM orders_reserved_ticks " +
		"WHERE trader_id = ? AND order_number = ?"
)

type orderRepositoryImpl struct {
	db *dbHandle
}

// NewOrderRepositoryImpl initialize a sqlite implementation of the
// domain.OrderRepository
func NewOrderRepositoryImpl(db *dbHandle) domain.OrderRepository {
	return orderRepositoryImpl{db}
}

func (r orderRepositoryImpl) GetAllOrders(
	ctx context.Context,
) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.read(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, selectOrdersQuery)
		if err != nil {
			return err
		}

		records := make([]orderRow, 0)
		for rows.Next() {
			row, err := scanOrderRow(rows)
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

		orders = make([]*domain.Order, 0, len(records))
		for _, row := range records {
			order, err := r.toOrder(ctx, q, row)
			if err != nil {
				return err
			}
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r orderRepositoryImpl) GetOrder(
	ctx context.Context, id domain.OrderID,
) (*domain.Order, error) {
	var order *domain.Order
	err := r.db.read(ctx, func(q querier) (err error) {
		order, err = r.getOrder(ctx, q, id)
		return
	})
	return order, err
}

func (r orderRepositoryImpl) AddOrder(
	ctx context.Context, order *domain.Order,
) error {
	row, err := newOrderRow(order)
	if err != nil {
		return err
	}

	return r.db.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, insertOrderQuery, row.args()...); err != nil {
			return insertErr(err)
		}
		return r.insertReservedTicks(ctx, q, order)
	})
}

func (r orderRepositoryImpl) UpdateOrder(
	ctx context.Context,
	id domain.OrderID,
	updateFn func(o *domain.Order) (*domain.Order, error),
) error {
	return r.db.write(ctx, func(q querier) error {
		order, err := r.getOrder(ctx, q, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}

		updatedOrder, err := updateFn(order)
		if err != nil {
			return err
		}
		updatedOrder.ID = id

		row, err := newOrderRow(updatedOrder)
		if err != nil {
			return err
		}
		// Key columns go last in the update statement.
		cols := row.args()
		args := make([]interface{}, 0, len(cols))
		args = append(args, cols[2:]...)
		args = append(args, cols[0], cols[1])
		if _, err := q.ExecContext(ctx, updateOrderQuery, args...); err != nil {
			return err
		}

		if err := r.deleteReservedTicks(ctx, q, id); err != nil {
			return err
		}
		return r.insertReservedTicks(ctx, q, updatedOrder)
	})
}

func (r orderRepositoryImpl) DeleteOrder(
	ctx context.Context, id domain.OrderID,
) error {
	return r.db.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(
			ctx, deleteOrderQuery, id.TraderID.String(), int64(id.OrderNumber),
		); err != nil {
			return err
		}
		return r.deleteReservedTicks(ctx, q, id)
	})
}

func (r orderRepositoryImpl) GetNextOrderNumber(
	ctx context.Context,
) (domain.OrderNumber, error) {
	var max sql.NullInt64
	if err := r.db.read(ctx, func(q querier) error {
		return q.QueryRowContext(ctx, maxOrderNumberQuery).Scan(&max)
	}); err != nil {
		return 0, err
	}

	if !max.Valid || max.Int64 < 1 {
		return 1, nil
	}
	return domain.OrderNumber(max.Int64 + 1), nil
}

func (r orderRepositoryImpl) AddReservedTick(
	ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
) error {
	return r.db.write(ctx, func(q querier) error {
		return r.insertReservedTick(ctx, q, id, counterpart, quantity)
	})
}

func (r orderRepositoryImpl) DeleteReservedTicks(
	ctx context.Context, id domain.OrderID,
) error {
	return r.db.write(ctx, func(q querier) error {
		return r.deleteReservedTicks(ctx, q, id)
	})
}

func (r orderRepositoryImpl) GetReservedTicks(
	ctx context.Context, id domain.OrderID,
) ([]domain.ReservedTick, error) {
	var ticks []domain.ReservedTick
	err := r.db.read(ctx, func(q querier) error {
		rows, err := r.findReservedTicks(ctx, q, id)
		if err != nil {
			return err
		}

		ticks = make([]domain.ReservedTick, 0, len(rows))
		for _, row := range rows {
			tick, err := row.toDomain()
			if err != nil {
				return err
			}
			ticks = append(ticks, tick)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticks, nil
}

func (r orderRepositoryImpl) getOrder(
	ctx context.Context, q querier, id domain.OrderID,
) (*domain.Order, error) {
	row, err := scanOrderRow(q.QueryRowContext(
		ctx, selectOrderQuery, id.TraderID.String(), int64(id.OrderNumber),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.toOrder(ctx, q, row)
}

func (r orderRepositoryImpl) toOrder(
	ctx context.Context, q querier, row orderRow,
) (*domain.Order, error) {
	id, err := parseOrderID(row.TraderID, row.OrderNumber)
	if err != nil {
		return nil, err
	}
	reserved, err := r.findReservedTicks(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(reserved)
}

func (r orderRepositoryImpl) findReservedTicks(
	ctx context.Context, q querier, id domain.OrderID,
) ([]reservedTickRow, error) {
	rows, err := q.QueryContext(
		ctx, selectReservedTicksQuery, id.TraderID.String(), int64(id.OrderNumber),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]reservedTickRow, 0)
	for rows.Next() {
		row, err := scanReservedTickRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, row)
	}
	return records, rows.Err()
}

func (r orderRepositoryImpl) insertReservedTicks(
	ctx context.Context, q querier, order *domain.Order,
) error {
	for counterpart, quantity := range order.ReservedTicks {
		if err := r.insertReservedTick(
			ctx, q, order.ID, counterpart, quantity,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r orderRepositoryImpl) insertReservedTick(
	ctx context.Context, q querier,
	id, counterpart domain.OrderID, quantity uint64,
) error {
	row, err := newReservedTickRow(id, counterpart, quantity)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(
		ctx, insertReservedTickQuery, row.args()...,
	); err != nil {
		return insertErr(err)
	}
	return nil
}

func (r orderRepositoryImpl) deleteReservedTicks(
	ctx context.Context, q querier, id domain.OrderID,
) error {
	_, err := q.ExecContext(
		ctx, deleteReservedTicksQuery, id.TraderID.String(), int64(id.OrderNumber),
	)
	return err
}
