package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/internal/core/ports"
	"github.com/tdex-network/market-store/internal/infrastructure/storage/db/migration"
	"github.com/timshannon/badgerhold/v4"
)

const (
	marketDbDir = "market"
	gcInterval  = 30 * time.Minute
)

type txKey struct{}

type repoManager struct {
	store  *badgerhold.Store
	schema migration.Schema
	stopGC chan struct{}

	orderRepository       domain.OrderRepository
	transactionRepository domain.TransactionRepository
	tickRepository        domain.TickRepository
}

// NewRepoManager opens (or creates if not exists) the badger store under
// baseDbDir and brings its schema to the latest version. An empty baseDbDir
// makes the store live in memory only.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, marketDbDir)
	}

	store, stopGC, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening market db: %w", err)
	}

	rm := &repoManager{
		store:                 store,
		schema:                newSchema(store),
		stopGC:                stopGC,
		orderRepository:       NewOrderRepositoryImpl(store),
		transactionRepository: NewTransactionRepositoryImpl(store),
		tickRepository:        NewTickRepositoryImpl(store),
	}

	if _, err := migration.Open(context.Background(), rm.schema); err != nil {
		rm.Close()
		return nil, fmt.Errorf("checking market db version: %w", err)
	}

	return rm, nil
}

// ReadVersion returns the schema version persisted in the badger store under
// baseDbDir without upgrading it.
func ReadVersion(
	ctx context.Context, baseDbDir string, logger badger.Logger,
) (string, error) {
	store, stopGC, err := createDb(filepath.Join(baseDbDir, marketDbDir), logger)
	if err != nil {
		return "", fmt.Errorf("opening market db: %w", err)
	}
	rm := &repoManager{store: store, stopGC: stopGC}
	defer rm.Close()

	return newSchema(store).ReadVersion(ctx)
}

func (r *repoManager) OrderRepository() domain.OrderRepository {
	return r.orderRepository
}

func (r *repoManager) TransactionRepository() domain.TransactionRepository {
	return r.transactionRepository
}

func (r *repoManager) TickRepository() domain.TickRepository {
	return r.tickRepository
}

func (r *repoManager) DatabaseVersion(ctx context.Context) (string, error) {
	return r.schema.ReadVersion(ctx)
}

func (r *repoManager) CheckDatabase(
	ctx context.Context, version string,
) (int, error) {
	latest, err := migration.CheckDatabase(ctx, r.schema, version)
	if err != nil {
		return -1, err
	}
	if err := r.schema.WriteVersion(ctx, latest); err != nil {
		return -1, err
	}
	return latest, nil
}

func (r *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	// Join the ongoing transaction if any.
	if _, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return handler(ctx)
	}

	tx := r.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}

	if readOnly {
		return res, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repoManager) Close() {
	if r.stopGC != nil {
		close(r.stopGC)
		r.stopGC = nil
	}
	if err := r.store.Close(); err != nil {
		log.WithError(err).Warn("closing market db")
	}
}

// update runs fn within the transaction carried by ctx if any, otherwise in a
// new read-write transaction committed right after.
func update(
	ctx context.Context, store *badgerhold.Store, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	return store.Badger().Update(fn)
}

// view is like update, but opens a read-only transaction.
func view(
	ctx context.Context, store *badgerhold.Store, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	return store.Badger().View(fn)
}

func insertErr(err error) error {
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("%w: %w", domain.ErrDuplicateKey, err)
	}
	return err
}

func createDb(
	dbDir string, logger badger.Logger,
) (*badgerhold.Store, chan struct{}, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	if isInMemory {
		return db, nil, nil
	}

	stop := make(chan struct{})
	ticker := time.NewTicker(gcInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			case <-stop:
				return
			}
		}
	}()

	return db, stop, nil
}
