package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type orderRepositoryImpl struct {
	store *badgerhold.Store
}

// NewOrderRepositoryImpl initialize a badger implementation of the
// domain.OrderRepository
func NewOrderRepositoryImpl(store *badgerhold.Store) domain.OrderRepository {
	return orderRepositoryImpl{store}
}

func (r orderRepositoryImpl) GetAllOrders(
	ctx context.Context,
) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := view(ctx, r.store, func(tx *badger.Txn) error {
		var records []orderRecord
		if err := r.store.TxFind(tx, &records, nil); err != nil {
			return err
		}

		orders = make([]*domain.Order, 0, len(records))
		for _, rec := range records {
			order, err := r.toOrder(tx, rec)
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
	err := view(ctx, r.store, func(tx *badger.Txn) (err error) {
		order, err = r.getOrder(tx, id)
		return
	})
	return order, err
}

func (r orderRepositoryImpl) AddOrder(
	ctx context.Context, order *domain.Order,
) error {
	rec, err := newOrderRecord(order)
	if err != nil {
		return err
	}

	return update(ctx, r.store, func(tx *badger.Txn) error {
		if err := r.store.TxInsert(tx, orderKey(order.ID), rec); err != nil {
			return insertErr(err)
		}
		return r.insertReservedTicks(tx, order)
	})
}

func (r orderRepositoryImpl) UpdateOrder(
	ctx context.Context,
	id domain.OrderID,
	updateFn func(o *domain.Order) (*domain.Order, error),
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		order, err := r.getOrder(tx, id)
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

		rec, err := newOrderRecord(updatedOrder)
		if err != nil {
			return err
		}
		if err := r.store.TxUpdate(tx, orderKey(id), rec); err != nil {
			return err
		}
		if err := r.deleteReservedTicks(tx, id); err != nil {
			return err
		}
		return r.insertReservedTicks(tx, updatedOrder)
	})
}

func (r orderRepositoryImpl) DeleteOrder(
	ctx context.Context, id domain.OrderID,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		if err := r.store.TxDelete(
			tx, orderKey(id), orderRecord{},
		); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		return r.deleteReservedTicks(tx, id)
	})
}

func (r orderRepositoryImpl) GetNextOrderNumber(
	ctx context.Context,
) (domain.OrderNumber, error) {
	query := badgerhold.Where("OrderNumber").Ge(uint64(1)).
		SortBy("OrderNumber").
		Reverse().
		Limit(1)

	var records []orderRecord
	if err := view(ctx, r.store, func(tx *badger.Txn) error {
		return r.store.TxFind(tx, &records, query)
	}); err != nil {
		return 0, err
	}

	if len(records) <= 0 {
		return 1, nil
	}
	return domain.OrderNumber(records[0].OrderNumber + 1), nil
}

func (r orderRepositoryImpl) AddReservedTick(
	ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		return r.insertReservedTick(tx, id, counterpart, quantity)
	})
}

func (r orderRepositoryImpl) DeleteReservedTicks(
	ctx context.Context, id domain.OrderID,
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		return r.deleteReservedTicks(tx, id)
	})
}

func (r orderRepositoryImpl) GetReservedTicks(
	ctx context.Context, id domain.OrderID,
) ([]domain.ReservedTick, error) {
	var ticks []domain.ReservedTick
	err := view(ctx, r.store, func(tx *badger.Txn) error {
		records, err := r.findReservedTicks(tx, id)
		if err != nil {
			return err
		}

		ticks = make([]domain.ReservedTick, 0, len(records))
		for _, rec := range records {
			tick, err := rec.toDomain()
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
	tx *badger.Txn, id domain.OrderID,
) (*domain.Order, error) {
	var rec orderRecord
	if err := r.store.TxGet(tx, orderKey(id), &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toOrder(tx, rec)
}

func (r orderRepositoryImpl) toOrder(
	tx *badger.Txn, rec orderRecord,
) (*domain.Order, error) {
	id, err := parseOrderID(rec.TraderID, rec.OrderNumber)
	if err != nil {
		return nil, err
	}
	reserved, err := r.findReservedTicks(tx, id)
	if err != nil {
		return nil, err
	}
	return rec.toDomain(reserved)
}

func (r orderRepositoryImpl) findReservedTicks(
	tx *badger.Txn, id domain.OrderID,
) ([]reservedTickRecord, error) {
	var records []reservedTickRecord
	if err := r.store.TxFind(tx, &records, reservedTicksQuery(id)); err != nil {
		return nil, err
	}
	return records, nil
}

func (r orderRepositoryImpl) insertReservedTicks(
	tx *badger.Txn, order *domain.Order,
) error {
	for counterpart, quantity := range order.ReservedTicks {
		if err := r.insertReservedTick(
			tx, order.ID, counterpart, quantity,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r orderRepositoryImpl) insertReservedTick(
	tx *badger.Txn, id, counterpart domain.OrderID, quantity uint64,
) error {
	rec, err := newReservedTickRecord(id, counterpart, quantity)
	if err != nil {
		return err
	}
	if err := r.store.TxInsert(
		tx, reservedTickKey(id, counterpart), rec,
	); err != nil {
		return insertErr(err)
	}
	return nil
}

func (r orderRepositoryImpl) deleteReservedTicks(
	tx *badger.Txn, id domain.OrderID,
) error {
	return r.store.TxDeleteMatching(tx, &reservedTickRecord{}, reservedTicksQuery(id))
}

func reservedTicksQuery(id domain.OrderID) *badgerhold.Query {
	return badgerhold.Where("TraderID").Eq(id.TraderID.String()).
		And("OrderNumber").Eq(uint64(id.OrderNumber))
}
