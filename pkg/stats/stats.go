package stats

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	// StaleTransactionUpdates counts transaction updates ignored because not
	// newer than the stored state.
	StaleTransactionUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market",
		Name:      "stale_transaction_updates_total",
		Help:      "Transaction updates ignored because not newer than the stored state.",
	})

	storedOrders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market",
		Name:      "orders",
		Help:      "Number of orders in the store.",
	})
	reservedQuantity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market",
		Name:      "reserved_quantity",
		Help:      "Total quantity locked by reservations.",
	})
	storedTransactions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market",
		Name:      "transactions",
		Help:      "Number of transactions in the store.",
	})
	storedTicks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market",
		Name:      "ticks",
		Help:      "Number of ticks in the local order book.",
	})
)

func init() {
	prometheus.MustRegister(
		StaleTransactionUpdates,
		storedOrders,
		reservedQuantity,
		storedTransactions,
		storedTicks,
	)
}

// StoreStats holds a snapshot of the store content.
type StoreStats struct {
	Orders           int
	ReservedQuantity uint64
	Transactions     int
	Ticks            int
}

// StatsSource returns a fresh snapshot of the store content.
type StatsSource func(ctx context.Context) (*StoreStats, error)

// EnableStoreStatistics starts a go routine that periodically updates the
// store gauges and logs them until ctx is done.
func EnableStoreStatistics(
	ctx context.Context, interval time.Duration, source StatsSource,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s, err := source(ctx)
				if err != nil {
					log.WithError(err).Warn("unable to collect store statistics")
					continue
				}
				Update(s)
				PrintStoreStatistics(s)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Update sets the store gauges.
func Update(s *StoreStats) {
	storedOrders.Set(float64(s.Orders))
	reservedQuantity.Set(float64(s.ReservedQuantity))
	storedTransactions.Set(float64(s.Transactions))
	storedTicks.Set(float64(s.Ticks))
}

// PrintStoreStatistics logs the given snapshot.
func PrintStoreStatistics(s *StoreStats) {
	log.Infof(
		"Orders: %d, Reserved quantity: %d, Transactions: %d, Ticks: %d",
		s.Orders, s.ReservedQuantity, s.Transactions, s.Ticks,
	)
}

// DumpPrometheusDefaults write default Prometheus metrics to a file
func DumpPrometheusDefaults(path string) error {
	file, err := os.OpenFile(
		path,
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}
