package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/market-store/internal/core/domain"
)

func TestAssetPair(t *testing.T) {
	pair := newTestAssetPair(t, 4, 10)
	require.True(t, decimal.RequireFromString("2.5").Equal(pair.Price()))
	require.Equal(t, uint64(5), pair.Proportional(2))
	require.Equal(t, uint64(2), pair.Proportional(1))

	zero := domain.AssetPair{
		First:  domain.AssetAmount{Amount: 0, AssetID: "btc"},
		Second: domain.AssetAmount{Amount: 10, AssetID: "mb"},
	}
	require.True(t, zero.Price().IsZero())

	_, err := domain.NewAssetAmount(domain.MaxAssetAmount+1, "btc")
	require.ErrorIs(t, err, domain.ErrInvalidAssetAmount)
	_, err = domain.NewAssetAmount(1, "")
	require.ErrorIs(t, err, domain.ErrInvalidAssetID)
}

func TestNewTransaction(t *testing.T) {
	tx := newTestTransaction(t)
	require.Zero(t, tx.TransferredAssets.First.Amount)
	require.Zero(t, tx.TransferredAssets.Second.Amount)
	require.Equal(t, tx.Assets.First.AssetID, tx.TransferredAssets.First.AssetID)
	require.Equal(t, tx.Assets.Second.AssetID, tx.TransferredAssets.Second.AssetID)
	require.NotNil(t, tx.Payments)
	require.False(t, tx.IsPaymentComplete())

	_, err := domain.NewTransaction(
		tx.ID, tx.OrderID, tx.PartnerOrderID, tx.Assets, -1,
	)
	require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}

func TestAddPayment(t *testing.T) {
	tx := newTestTransaction(t)

	payments := []domain.Payment{
		newTestPayment(tx, "btc", 60, 3000),
		newTestPayment(tx, "mb", 200, 1000),
		newTestPayment(tx, "btc", 40, 2000),
		newTestPayment(tx, "mb", 300, 4000),
	}
	for _, p := range payments {
		require.NoError(t, tx.AddPayment(p))
	}

	require.Equal(t, uint64(100), tx.TransferredAssets.First.Amount)
	require.Equal(t, uint64(500), tx.TransferredAssets.Second.Amount)
	require.True(t, tx.IsPaymentComplete())

	require.Len(t, tx.Payments, len(payments))
	for i := 1; i < len(tx.Payments); i++ {
		require.LessOrEqual(t, tx.Payments[i-1].Timestamp, tx.Payments[i].Timestamp)
	}

	err := tx.AddPayment(newTestPayment(tx, "eur", 1, 5000))
	require.ErrorIs(t, err, domain.ErrInvalidAssetID)
	require.Len(t, tx.Payments, len(payments))
}

func TestSortPaymentsIsStable(t *testing.T) {
	tx := newTestTransaction(t)
	p1 := newTestPayment(tx, "btc", 1, 1000)
	p2 := newTestPayment(tx, "btc", 2, 1000)
	p3 := newTestPayment(tx, "btc", 3, 500)

	payments := []domain.Payment{p1, p2, p3}
	domain.SortPayments(payments)
	require.Equal(t, []domain.Payment{p3, p1, p2}, payments)
}

func TestTick(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	require.NoError(t, order.AddTrade(newTestOrderID(t, 2), 10, order.Timestamp))

	blockHash, err := domain.NewBlockHash(randomBytes(32))
	require.NoError(t, err)

	tick := domain.NewTickFromOrder(order, blockHash)
	require.Equal(t, order.ID, tick.OrderID)
	require.Equal(t, order.Assets, tick.Assets)
	require.Equal(t, uint64(10), tick.Traded)
	require.Equal(t, blockHash, tick.BlockHash)

	require.True(t, tick.IsValid(order.Timestamp))
	expiredAt := order.Timestamp + domain.Timestamp(tick.Timeout.Duration().Milliseconds()) + 1
	require.False(t, tick.IsValid(expiredAt))
}

func newTestTransaction(t *testing.T) *domain.Transaction {
	id, err := domain.RandomTransactionID()
	require.NoError(t, err)

	tx, err := domain.NewTransaction(
		id, newTestOrderID(t, 1), newTestOrderID(t, 2),
		newTestAssetPair(t, 100, 500), 1600000000000,
	)
	require.NoError(t, err)
	return tx
}

func newTestPayment(
	tx *domain.Transaction, assetID string, amount uint64, ts domain.Timestamp,
) domain.Payment {
	return domain.Payment{
		TraderID:          tx.OrderID.TraderID,
		TransactionID:     tx.ID,
		PaymentID:         domain.NewRandomPaymentID(),
		TransferredAssets: domain.AssetAmount{Amount: amount, AssetID: assetID},
		Timestamp:         ts,
	}
}
