package sqlitedb

import (
	"context"

	"github.com/tdex-network/market-store/internal/core/domain"
)

const (
	insertTickQuery = "INSERT INTO ticks(" + tickColumns +
		") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	selectTicksQuery    = "SELECT " + tickColumns + " FROM ticks"
	deleteAllTicksQuery = "DELETE FROM ticks"
)

type tickRepositoryImpl struct {
	db *dbHandle
}

// NewTickRepositoryImpl initialize a sqlite implementation of the
// domain.TickRepository
func NewTickRepositoryImpl(db *dbHandle) domain.TickRepository {
	return tickRepositoryImpl{db}
}

func (r tickRepositoryImpl) AddTick(ctx context.Context, tick *domain.Tick) error {
	row, err := newTickRow(tick)
	if err != nil {
		return err
	}
	return r.db.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, insertTickQuery, row.args()...); err != nil {
			return insertErr(err)
		}
		return nil
	})
}

func (r tickRepositoryImpl) DeleteAllTicks(ctx context.Context) error {
	return r.db.write(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, deleteAllTicksQuery)
		return err
	})
}

func (r tickRepositoryImpl) GetTicks(ctx context.Context) ([]*domain.Tick, error) {
	var ticks []*domain.Tick
	err := r.db.read(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, selectTicksQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		ticks = make([]*domain.Tick, 0)
		for rows.Next() {
			row, err := scanTickRow(rows)
			if err != nil {
				return err
			}
			tick, err := row.toDomain()
			if err != nil {
				return err
			}
			ticks = append(ticks, tick)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ticks, nil
}
