package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/go-sqlite"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/internal/core/ports"
	"github.com/tdex-network/market-store/internal/infrastructure/storage/db/migration"
)

const (
	sqliteDriver   = "sqlite"
	inMemoryDb     = ":memory:"
	marketDbFile   = "market.db"
	uniqueViolated = "UNIQUE constraint failed"

	queryOnlyOn  = "PRAGMA query_only = ON;"
	queryOnlyOff = "PRAGMA query_only = OFF;"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// dbHandle runs queries within the transaction carried by the context, if
// any.
type dbHandle struct {
	db *sql.DB
}

func (d *dbHandle) read(ctx context.Context, fn func(q querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(tx)
	}
	return fn(d.db)
}

func (d *dbHandle) write(ctx context.Context, fn func(q querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(tx)
	}
	return d.execTx(ctx, false, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

func (d *dbHandle) execTx(
	ctx context.Context, readOnly bool, txBody func(*sql.Tx) error,
) error {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return err
	}

	// The driver doesn't enforce read-only txs, the connection is switched
	// to query only mode for the lifetime of the tx instead.
	if readOnly {
		if _, err := tx.ExecContext(ctx, queryOnlyOn); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	// Rollback is safe to call even if the tx is already closed, so if
	// the tx commits successfully, this is a no-op.
	defer func() {
		if readOnly {
			if _, err := tx.ExecContext(
				context.Background(), queryOnlyOff,
			); err != nil {
				log.Errorf("unable to reset query only mode: %v", err)
			}
		}
		err := tx.Rollback()
		switch {
		// If the tx was already closed (it was successfully executed)
		// we do not need to log that error.
		case errors.Is(err, sql.ErrTxDone):
			return

		// If this is an unexpected error, log it.
		case err != nil:
			log.Errorf("unable to rollback db tx: %v", err)
		}
	}()

	if err := txBody(tx); err != nil {
		return err
	}
	if readOnly {
		return nil
	}

	return tx.Commit()
}

type repoManager struct {
	db     *dbHandle
	schema migration.Schema

	orderRepository       domain.OrderRepository
	transactionRepository domain.TransactionRepository
	tickRepository        domain.TickRepository
}

// NewRepoManager opens (or creates if not exists) the sqlite database under
// baseDbDir and brings its schema to the latest version. An empty baseDbDir
// makes the database live in memory only.
func NewRepoManager(baseDbDir string) (ports.RepoManager, error) {
	dataSource := inMemoryDb
	if len(baseDbDir) > 0 {
		dataSource = filepath.Join(baseDbDir, marketDbFile)
	}

	db, err := connect(dataSource)
	if err != nil {
		return nil, fmt.Errorf("opening market db: %w", err)
	}

	handle := &dbHandle{db}
	rm := &repoManager{
		db:                    handle,
		schema:                newSchema(handle),
		orderRepository:       NewOrderRepositoryImpl(handle),
		transactionRepository: NewTransactionRepositoryImpl(handle),
		tickRepository:        NewTickRepositoryImpl(handle),
	}

	if _, err := migration.Open(context.Background(), rm.schema); err != nil {
		rm.Close()
		return nil, fmt.Errorf("checking market db version: %w", err)
	}

	return rm, nil
}

// ReadVersion returns the schema version persisted in the sqlite database
// under baseDbDir without upgrading it.
func ReadVersion(ctx context.Context, baseDbDir string) (string, error) {
	db, err := connect(filepath.Join(baseDbDir, marketDbFile))
	if err != nil {
		return "", fmt.Errorf("opening market db: %w", err)
	}
	rm := &repoManager{db: &dbHandle{db}}
	defer rm.Close()

	return newSchema(rm.db).ReadVersion(ctx)
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
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return handler(ctx)
	}

	var res interface{}
	if err := r.db.execTx(ctx, readOnly, func(tx *sql.Tx) error {
		var err error
		res, err = handler(context.WithValue(ctx, txKey{}, tx))
		return err
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repoManager) Close() {
	if err := r.db.db.Close(); err != nil {
		log.WithError(err).Warn("closing market db")
	}
}

func connect(dataSource string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers, and keeps an in-memory
	// database alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)

	if dataSource == inMemoryDb {
		return db, nil
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	return db, nil
}

func insertErr(err error) error {
	if err != nil && strings.Contains(err.Error(), uniqueViolated) {
		return fmt.Errorf("%w: %w", domain.ErrDuplicateKey, err)
	}
	return err
}
