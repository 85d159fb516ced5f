package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/config"
	"github.com/tdex-network/market-store/internal/core/application"
	"github.com/urfave/cli/v2"
)

var (
	defaultDatadir = btcutil.AppDataDir("market-store", false)

	datadirFlag = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "market store data directory",
		EnvVars: []string{"MARKET_DATADIR"},
		Value:   defaultDatadir,
	}
	dbTypeFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "database type, either badger or sqlite",
		EnvVars: []string{"MARKET_DB_TYPE"},
		Value:   application.DBBadger,
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "market store CLI"
	app.Usage = "Inspect and maintain a market store database"
	app.Flags = []cli.Flag{datadirFlag, dbTypeFlag}
	app.Commands = append(
		app.Commands,
		&version,
		&orders,
		&transactions,
		&ticks,
		&cleanticks,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

// getStore opens the store at the configured location, migrating it to the
// latest schema version if needed.
func getStore(ctx *cli.Context) (*application.Config, func(), error) {
	cfg, err := getStoreConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cleanup := func() { cfg.RepoManager().Close() }

	return cfg, cleanup, nil
}

// getStoreConfig returns the config of the store at the configured location
// without opening it.
func getStoreConfig(ctx *cli.Context) (*application.Config, error) {
	datadir := ctx.String(datadirFlag.Name)
	if _, err := os.Stat(datadir); err != nil {
		return nil, fmt.Errorf("datadir %s not found", datadir)
	}

	// Keep the output clean, only warnings and errors of the store are shown.
	log.SetLevel(log.WarnLevel)

	return &application.Config{
		DBType: ctx.String(dbTypeFlag.Name),
		DBDir:  filepath.Join(datadir, config.DbLocation),
	}, nil
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}

	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[marketdb] %v\n", err)
	}
	os.Exit(1)
}
