package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/tdex-network/market-store/internal/infrastructure/storage/db/migration"
)

var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders(
 trader_id            TEXT NOT NULL,
 order_number         INTEGER NOT NULL,
 asset1_amount        BIGINT NOT NULL,
 asset1_type          TEXT NOT NULL,
 asset2_amount        BIGINT NOT NULL,
 asset2_type          TEXT NOT NULL,
 traded_quantity      BIGINT NOT NULL,
 received_quantity    BIGINT NOT NULL,
 timeout              INTEGER NOT NULL,
 order_timestamp      BIGINT NOT NULL,
 completed_timestamp  BIGINT,
 is_ask               INTEGER NOT NULL,
 cancelled            INTEGER NOT NULL,
 verified             INTEGER NOT NULL,

 PRIMARY KEY (trader_id, order_number)
)`,
	`CREATE TABLE IF NOT EXISTS transactions(
 trader_id                TEXT NOT NULL,
 transaction_id           TEXT NOT NULL,
 order_number             INTEGER NOT NULL,
 partner_trader_id        TEXT NOT NULL,
 partner_order_number     INTEGER NOT NULL,
 asset1_amount            BIGINT NOT NULL,
 asset1_type              TEXT NOT NULL,
 asset1_transferred       BIGINT NOT NULL,
 asset2_amount            BIGINT NOT NULL,
 asset2_type              TEXT NOT NULL,
 asset2_transferred       BIGINT NOT NULL,
 transaction_timestamp    BIGINT NOT NULL,
 sent_wallet_info         INTEGER NOT NULL,
 received_wallet_info     INTEGER NOT NULL,
 incoming_address         TEXT NOT NULL,
 outgoing_address         TEXT NOT NULL,
 partner_incoming_address TEXT NOT NULL,
 partner_outgoing_address TEXT NOT NULL,

 PRIMARY KEY (transaction_id)
)`,
	`CREATE TABLE IF NOT EXISTS payments(
 trader_id                TEXT NOT NULL,
 transaction_id           TEXT NOT NULL,
 payment_id               TEXT NOT NULL,
 transferred_amount       BIGINT NOT NULL,
 transferred_type         TEXT NOT NULL,
 address_from             TEXT NOT NULL,
 address_to               TEXT NOT NULL,
 timestamp                BIGINT NOT NULL,

 PRIMARY KEY (trader_id, payment_id, transaction_id)
)`,
	`CREATE TABLE IF NOT EXISTS ticks(
 trader_id            TEXT NOT NULL,
 order_number         INTEGER NOT NULL,
 asset1_amount        BIGINT NOT NULL,
 asset1_type          TEXT NOT NULL,
 asset2_amount        BIGINT NOT NULL,
 asset2_type          TEXT NOT NULL,
 timeout              INTEGER NOT NULL,
 timestamp            BIGINT NOT NULL,
 is_ask               INTEGER NOT NULL,
 traded               BIGINT NOT NULL,
 block_hash           TEXT NOT NULL,

 PRIMARY KEY (trader_id, order_number)
)`,
	`CREATE TABLE IF NOT EXISTS orders_reserved_ticks(
 trader_id              TEXT NOT NULL,
 order_number           INTEGER NOT NULL,
 reserved_trader_id     TEXT NOT NULL,
 reserved_order_number  INTEGER NOT NULL,
 quantity               BIGINT NOT NULL,

 PRIMARY KEY (trader_id, order_number, reserved_trader_id, reserved_order_number)
)`,
	`CREATE TABLE IF NOT EXISTS option(key TEXT PRIMARY KEY, value BLOB)`,
}

// Legacy schemas are not worth migrating, their tables are dropped.
var dropStatements = []string{
	"DROP TABLE IF EXISTS orders",
	"DROP TABLE IF EXISTS transactions",
	"DROP TABLE IF EXISTS payments",
	"DROP TABLE IF EXISTS ticks",
	"DROP TABLE IF EXISTS orders_reserved_ticks",
	"DROP TABLE IF EXISTS option",
	"DROP TABLE IF EXISTS traders",
}

const (
	upsertOptionQuery = "INSERT OR REPLACE INTO option(key, value) VALUES(?, ?)"
	selectOptionQuery = "SELECT value FROM option WHERE key = ?"
	tableExistsQuery  = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
)

type schema struct {
	db    *dbHandle
	steps map[int]migration.Step
}

func newSchema(db *dbHandle) *schema {
	s := &schema{db: db}
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
	return s.db.write(ctx, func(q querier) error {
		if err := execScript(ctx, q, createStatements); err != nil {
			return err
		}
		_, err := q.ExecContext(
			ctx, upsertOptionQuery,
			migration.VersionKey, strconv.Itoa(migration.LatestVersion),
		)
		return err
	})
}

func (s *schema) ReadVersion(ctx context.Context) (string, error) {
	version := "0"
	err := s.db.read(ctx, func(q querier) error {
		var count int
		if err := q.QueryRowContext(
			ctx, tableExistsQuery, "option",
		).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		var value string
		if err := q.QueryRowContext(
			ctx, selectOptionQuery, migration.VersionKey,
		).Scan(&value); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		version = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (s *schema) WriteVersion(ctx context.Context, version int) error {
	return s.db.write(ctx, func(q querier) error {
		_, err := q.ExecContext(
			ctx, upsertOptionQuery, migration.VersionKey, strconv.Itoa(version),
		)
		return err
	})
}

func (s *schema) RunTransaction(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	return s.db.write(ctx, func(q querier) error {
		tx, ok := q.(*sql.Tx)
		if !ok {
			return fmt.Errorf("unexpected querier %T", q)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (s *schema) dropAll(ctx context.Context) error {
	return s.db.write(ctx, func(q querier) error {
		return execScript(ctx, q, dropStatements)
	})
}

func execScript(ctx context.Context, q querier, statements []string) error {
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
