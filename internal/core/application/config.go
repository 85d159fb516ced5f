package application

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/ports"
	dbbadger "github.com/tdex-network/market-store/internal/infrastructure/storage/db/badger"
	sqlitedb "github.com/tdex-network/market-store/internal/infrastructure/storage/db/sqlite"
)

const (
	DBBadger = "badger"
	DBSqlite = "sqlite"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger: {},
		DBSqlite: {},
	}
)

// Config lazily builds the store and the services on top of it.
type Config struct {
	DBType string
	// DBDir is the directory holding the database, empty for an in-memory
	// one.
	DBDir string

	repo   ports.RepoManager
	market MarketService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %q", c.DBType)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	return nil
}

// DatabaseVersion returns the schema version persisted in the store. Unlike
// Validate, it doesn't upgrade a store left at an older version.
func (c *Config) DatabaseVersion(ctx context.Context) (string, error) {
	if c.repo != nil {
		return c.repo.DatabaseVersion(ctx)
	}
	if len(c.DBDir) <= 0 {
		return "0", nil
	}
	if _, err := os.Stat(c.DBDir); errors.Is(err, os.ErrNotExist) {
		return "0", nil
	}

	switch c.DBType {
	case DBBadger:
		return dbbadger.ReadVersion(ctx, c.DBDir, log.StandardLogger())
	case DBSqlite:
		return sqlitedb.ReadVersion(ctx, c.DBDir)
	default:
		return "", fmt.Errorf("unsupported db type %q", c.DBType)
	}
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) MarketService() MarketService {
	svc, _ := c.marketService()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo != nil {
		return c.repo, nil
	}

	var (
		repoManager ports.RepoManager
		err         error
	)
	switch c.DBType {
	case DBBadger:
		repoManager, err = dbbadger.NewRepoManager(c.DBDir, log.StandardLogger())
	case DBSqlite:
		repoManager, err = sqlitedb.NewRepoManager(c.DBDir)
	default:
		err = fmt.Errorf("unsupported db type %q", c.DBType)
	}
	if err != nil {
		return nil, err
	}

	c.repo = repoManager
	return c.repo, nil
}

func (c *Config) marketService() (MarketService, error) {
	if c.market == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		c.market = NewMarketService(repo)
	}
	return c.market, nil
}
