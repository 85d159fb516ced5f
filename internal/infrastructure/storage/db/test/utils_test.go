package db_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/internal/core/ports"
	dbbadger "github.com/tdex-network/market-store/internal/infrastructure/storage/db/badger"
	sqlitedb "github.com/tdex-network/market-store/internal/infrastructure/storage/db/sqlite"
)

var ctx = context.Background()

type repoManager struct {
	Name string
	ports.RepoManager
}

func (r repoManager) read(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.RunTransaction(ctx, true, query)
}

func (r repoManager) write(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.RunTransaction(ctx, false, query)
}

// createRepoManagers returns a fresh in-memory instance of every storage
// backend, closed at the end of the test.
func createRepoManagers(t *testing.T) []repoManager {
	badgerDBManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(badgerDBManager.Close)

	sqliteDBManager, err := sqlitedb.NewRepoManager("")
	require.NoError(t, err)
	t.Cleanup(sqliteDBManager.Close)

	return []repoManager{
		{Name: "badger", RepoManager: badgerDBManager},
		{Name: "sqlite", RepoManager: sqliteDBManager},
	}
}

func makeRandomOrderID(number uint64) domain.OrderID {
	traderID, _ := domain.NewTraderID(randomBytes(domain.TraderIDLength))
	return domain.OrderID{
		TraderID:    traderID,
		OrderNumber: domain.OrderNumber(number),
	}
}

func makeRandomAssetPair() domain.AssetPair {
	return domain.AssetPair{
		First: domain.AssetAmount{
			Amount:  uint64(randomIntInRange(1000, 100000)),
			AssetID: randomHex(32),
		},
		Second: domain.AssetAmount{
			Amount:  uint64(randomIntInRange(1000, 100000)),
			AssetID: randomHex(32),
		},
	}
}

func makeRandomOrder(number uint64) *domain.Order {
	order, _ := domain.NewOrder(
		makeRandomOrderID(number),
		makeRandomAssetPair(),
		domain.Timeout(randomIntInRange(60, 3600)),
		randomTimestamp(),
		randomIntInRange(0, 2) == 1,
	)
	return order
}

func makeRandomTransaction(timestamp domain.Timestamp) *domain.Transaction {
	id, _ := domain.RandomTransactionID()
	tx, _ := domain.NewTransaction(
		id,
		makeRandomOrderID(uint64(randomIntInRange(1, 1000))),
		makeRandomOrderID(uint64(randomIntInRange(1, 1000))),
		makeRandomAssetPair(),
		timestamp,
	)
	tx.IncomingAddress = domain.WalletAddress(randomHex(20))
	tx.OutgoingAddress = domain.WalletAddress(randomHex(20))
	tx.PartnerIncomingAddress = domain.WalletAddress(randomHex(20))
	tx.PartnerOutgoingAddress = domain.WalletAddress(randomHex(20))
	return tx
}

func makeRandomPayment(
	tx *domain.Transaction, assetID string, timestamp domain.Timestamp,
) domain.Payment {
	return domain.Payment{
		TraderID:      tx.OrderID.TraderID,
		TransactionID: tx.ID,
		PaymentID:     domain.NewRandomPaymentID(),
		TransferredAssets: domain.AssetAmount{
			Amount:  uint64(randomIntInRange(1, 100)),
			AssetID: assetID,
		},
		AddressFrom: domain.WalletAddress(randomHex(20)),
		AddressTo:   domain.WalletAddress(randomHex(20)),
		Timestamp:   timestamp,
	}
}

func makeRandomTick(number uint64) *domain.Tick {
	blockHash, _ := domain.NewBlockHash(randomBytes(32))
	return domain.NewTickFromOrder(makeRandomOrder(number), blockHash)
}

func randomTimestamp() domain.Timestamp {
	return domain.Timestamp(randomIntInRange(1000000000000, 1662688000000))
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

// randomIntInRange returns a random number in [min, max).
func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	return int(n.Int64()) + min
}
