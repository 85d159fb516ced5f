package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("MARKET_DATADIR", datadir)
	t.Setenv("MARKET_ENABLE_STATS", "true")
	t.Setenv("MARKET_STATS_INTERVAL", "5")

	require.NoError(t, InitConfig())
	require.Equal(t, datadir, GetDatadir())
	require.Equal(t, DBBadger, GetString(DBTypeKey))
	require.Equal(t, log.InfoLevel, GetLogLevel())
	require.Equal(t, 5*time.Second, GetStatsInterval())

	for _, dir := range []string{DbLocation, StatsLocation} {
		info, err := os.Stat(filepath.Join(datadir, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestFailingInitConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown_db_type",
			env:  map[string]string{"MARKET_DB_TYPE": "postgres"},
		},
		{
			name: "log_level_out_of_range",
			env:  map[string]string{"MARKET_LOG_LEVEL": "7"},
		},
		{
			name: "zero_stats_interval",
			env: map[string]string{
				"MARKET_ENABLE_STATS":   "true",
				"MARKET_STATS_INTERVAL": "0",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKET_DATADIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Error(t, InitConfig())
		})
	}
}
