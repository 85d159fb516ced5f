package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type tickRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTickRepositoryImpl initialize a badger implementation of the
// domain.TickRepository
func NewTickRepositoryImpl(store *badgerhold.Store) domain.TickRepository {
	return tickRepositoryImpl{store}
}

func (r tickRepositoryImpl) AddTick(ctx context.Context, tick *domain.Tick) error {
	rec, err := newTickRecord(tick)
	if err != nil {
		return err
	}

	return update(ctx, r.store, func(tx *badger.Txn) error {
		if err := r.store.TxInsert(tx, orderKey(tick.OrderID), rec); err != nil {
			return insertErr(err)
		}
		return nil
	})
}

func (r tickRepositoryImpl) DeleteAllTicks(ctx context.Context) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		return r.store.TxDeleteMatching(tx, &tickRecord{}, nil)
	})
}

func (r tickRepositoryImpl) GetTicks(ctx context.Context) ([]*domain.Tick, error) {
	var records []tickRecord
	if err := view(ctx, r.store, func(tx *badger.Txn) error {
		return r.store.TxFind(tx, &records, nil)
	}); err != nil {
		return nil, err
	}

	ticks := make([]*domain.Tick, 0, len(records))
	for _, rec := range records {
		tick, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}
