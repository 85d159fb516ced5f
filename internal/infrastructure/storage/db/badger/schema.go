package dbbadger

import (
	"context"
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/market-store/internal/infrastructure/storage/db/migration"
	"github.com/timshannon/badgerhold/v4"
)

// schema maps every table of the market schema to a badgerhold record type.
// Record types need no creation, so only the option record is written when
// creating the schema.
type schema struct {
	store *badgerhold.Store
	steps map[int]migration.Step
}

func newSchema(store *badgerhold.Store) *schema {
	s := &schema{store: store}
	s.steps = map[int]migration.Step{
		1: s.dropAll,
		2: s.dropAll,
		3: s.dropAll,
		4: s.dropAll,
	}
	return s
}

func (s *schema) UpgradeStep(version int) migration.Step {
	return s.steps[version]
}

func (s *schema) Create(ctx context.Context) error {
	return s.WriteVersion(ctx, migration.LatestVersion)
}

func (s *schema) ReadVersion(ctx context.Context) (string, error) {
	var option optionRecord
	err := view(ctx, s.store, func(tx *badger.Txn) error {
		return s.store.TxGet(tx, migration.VersionKey, &option)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "0", nil
		}
		return "", err
	}
	return option.Value, nil
}

func (s *schema) WriteVersion(ctx context.Context, version int) error {
	option := optionRecord{migration.VersionKey, strconv.Itoa(version)}
	return update(ctx, s.store, func(tx *badger.Txn) error {
		return s.store.TxUpsert(tx, option.Key, option)
	})
}

func (s *schema) RunTransaction(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	if _, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(ctx)
	}

	tx := s.store.Badger().NewTransaction(true)
	defer tx.Discard()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *schema) dropAll(ctx context.Context) error {
	records := []interface{}{
		&orderRecord{},
		&transactionRecord{},
		&paymentRecord{},
		&tickRecord{},
		&reservedTickRecord{},
		&optionRecord{},
	}
	return update(ctx, s.store, func(tx *badger.Txn) error {
		for _, r := range records {
			if err := s.store.TxDeleteMatching(tx, r, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
