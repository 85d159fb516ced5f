package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/config"
	"github.com/tdex-network/market-store/internal/core/application"
	"github.com/tdex-network/market-store/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(config.GetLogLevel())

	appConfig := &application.Config{
		DBType: config.GetString(config.DBTypeKey),
		DBDir:  config.GetDbDir(),
	}
	// Opening the store brings its schema to the latest version before
	// anything else touches it.
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("failed to open market store")
	}
	repoManager := appConfig.RepoManager()
	defer repoManager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	version, err := repoManager.DatabaseVersion(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to read market store version")
	}
	log.Infof(
		"market store ready (type: %s, version: %s, datadir: %s)",
		appConfig.DBType, version, config.GetDatadir(),
	)

	statsEnabled := config.GetBool(config.EnableStatsKey)
	if statsEnabled {
		stats.EnableStoreStatistics(
			ctx, config.GetStatsInterval(), appConfig.MarketService().StoreStats,
		)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down market store")
	cancel()

	if statsEnabled {
		if err := stats.DumpPrometheusDefaults(config.GetStatsDumpPath()); err != nil {
			log.WithError(err).Warn("unable to dump prometheus metrics")
		}
	}
}
