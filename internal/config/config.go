package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the market database
	DatadirKey = "DATADIR"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// EnableStatsKey enables the periodic logging of store statistics
	EnableStatsKey = "ENABLE_STATS"
	// StatsIntervalKey defines interval (in seconds) for printing store
	// statistics
	StatsIntervalKey = "STATS_INTERVAL"

	// DBBadger selects the badger storage backend.
	DBBadger = "badger"
	// DBSqlite selects the sqlite storage backend.
	DBSqlite = "sqlite"

	DbLocation    = "db"
	StatsLocation = "stats"
	statsDumpFile = "metrics.txt"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("market-store", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("MARKET")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(EnableStatsKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory holding the market database.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetStatsInterval returns how often store statistics are collected.
func GetStatsInterval() time.Duration {
	return time.Duration(GetInt(StatsIntervalKey)) * time.Second
}

// GetStatsDumpPath returns the file where prometheus metrics are dumped on
// shutdown.
func GetStatsDumpPath() string {
	return filepath.Join(GetDatadir(), StatsLocation, statsDumpFile)
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBBadger && dbType != DBSqlite {
		return fmt.Errorf(
			"%s must be one of %s, %s, got %q", DBTypeKey, DBBadger, DBSqlite, dbType,
		)
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("%s must be in range [%d, %d]",
			LogLevelKey, log.PanicLevel, log.TraceLevel,
		)
	}

	if GetBool(EnableStatsKey) && GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", StatsIntervalKey)
	}

	return nil
}

func initDatadir() error {
	if err := makeDirectoryIfNotExists(GetDbDir()); err != nil {
		return err
	}

	if GetBool(EnableStatsKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(GetDatadir(), StatsLocation),
		); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
