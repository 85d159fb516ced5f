package application

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/market-store/internal/core/domain"
	dbbadger "github.com/tdex-network/market-store/internal/infrastructure/storage/db/badger"
)

var ctx = context.Background()

const testNow = domain.Timestamp(1600000000000)

func TestPlaceOrder(t *testing.T) {
	svc := newTestService(t)
	traderID := randomTraderID(t)

	first, err := svc.PlaceOrder(ctx, traderID, testAssets(t), 60, true)
	require.NoError(t, err)
	require.Equal(t, domain.OrderNumber(1), first.ID.OrderNumber)
	require.Equal(t, testNow, first.Timestamp)

	second, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, false)
	require.NoError(t, err)
	require.Equal(t, domain.OrderNumber(2), second.ID.OrderNumber)

	got, err := svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)

	_, err = svc.GetOrder(ctx, domain.OrderID{TraderID: traderID, OrderNumber: 9})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = svc.PlaceOrder(ctx, traderID, domain.AssetPair{}, 60, true)
	require.ErrorIs(t, err, domain.ErrInvalidAssetID)
}

func TestOrderLifecycle(t *testing.T) {
	svc := newTestService(t)

	order, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx, domain.OrderStatusUnverified)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, svc.VerifyOrder(ctx, order.ID))
	orders, err = svc.ListOrders(ctx, domain.OrderStatusOpen)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	counterpart := domain.OrderID{TraderID: randomTraderID(t), OrderNumber: 1}
	require.NoError(t, svc.ReserveQuantity(ctx, order.ID, counterpart, 60))

	err = svc.ReserveQuantity(ctx, order.ID, counterpart, 41)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	require.NoError(t, svc.ReleaseQuantity(ctx, order.ID, counterpart, 20))
	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(40), got.ReservedTicks[counterpart])

	require.NoError(t, svc.CancelOrder(ctx, order.ID))
	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, got.ReservedTicks)
	require.Equal(t, domain.OrderStatusCancelled, got.Status(testNow))

	err = svc.VerifyOrder(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrOrderClosed)

	orders, err = svc.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestReserveExpiredOrder(t *testing.T) {
	svc := newTestService(t)

	order, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
	require.NoError(t, err)

	svc.now = func() domain.Timestamp { return testNow + 61*1000 }
	counterpart := domain.OrderID{TraderID: randomTraderID(t), OrderNumber: 1}
	err = svc.ReserveQuantity(ctx, order.ID, counterpart, 1)
	require.ErrorIs(t, err, ErrOrderExpired)
}

func TestRecordTradeAndPayments(t *testing.T) {
	svc := newTestService(t)

	order, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
	require.NoError(t, err)
	counterpart := domain.OrderID{TraderID: randomTraderID(t), OrderNumber: 3}
	require.NoError(t, svc.ReserveQuantity(ctx, order.ID, counterpart, 100))

	txID, err := domain.RandomTransactionID()
	require.NoError(t, err)
	tx, err := domain.NewTransaction(
		txID, order.ID, counterpart, order.Assets, testNow+10,
	)
	require.NoError(t, err)

	require.NoError(t, svc.RecordTrade(ctx, tx))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, got.IsComplete())
	require.Empty(t, got.ReservedTicks)
	require.Equal(t, testNow+10, *got.CompletedTimestamp)

	// The order is complete, nothing left to trade.
	otherTxID, err := domain.RandomTransactionID()
	require.NoError(t, err)
	otherTx, err := domain.NewTransaction(
		otherTxID, order.ID, counterpart, order.Assets, testNow+15,
	)
	require.NoError(t, err)
	err = svc.RecordTrade(ctx, otherTx)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	payment := domain.Payment{
		TraderID:          order.ID.TraderID,
		TransactionID:     txID,
		PaymentID:         domain.NewRandomPaymentID(),
		TransferredAssets: domain.AssetAmount{Amount: 100, AssetID: "btc"},
		Timestamp:         testNow + 20,
	}
	updated, err := svc.AddPayment(ctx, payment)
	require.NoError(t, err)
	require.Equal(t, uint64(100), updated.TransferredAssets.First.Amount)
	require.Len(t, updated.Payments, 1)

	payment.PaymentID = domain.NewRandomPaymentID()
	payment.TransferredAssets = domain.AssetAmount{Amount: 500, AssetID: "mb"}
	payment.Timestamp = testNow + 30
	updated, err = svc.AddPayment(ctx, payment)
	require.NoError(t, err)
	require.True(t, updated.IsPaymentComplete())

	stored, err := svc.repoManager.TransactionRepository().GetTransaction(ctx, txID)
	require.NoError(t, err)
	require.Equal(t, updated, stored)

	payment.TransactionID, err = domain.RandomTransactionID()
	require.NoError(t, err)
	_, err = svc.AddPayment(ctx, payment)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestRecordTradeRedelivery(t *testing.T) {
	svc := newTestService(t)

	order, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
	require.NoError(t, err)
	counterpart := domain.OrderID{TraderID: randomTraderID(t), OrderNumber: 3}

	txID, err := domain.RandomTransactionID()
	require.NoError(t, err)
	newTx := func(amount uint64, ts domain.Timestamp) *domain.Transaction {
		assets, err := domain.NewAssetPair(
			domain.AssetAmount{Amount: amount, AssetID: "btc"},
			domain.AssetAmount{Amount: amount * 5, AssetID: "mb"},
		)
		require.NoError(t, err)
		tx, err := domain.NewTransaction(txID, order.ID, counterpart, assets, ts)
		require.NoError(t, err)
		return tx
	}
	requireTraded := func(expected uint64) {
		got, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, expected, got.TradedQuantity)
	}

	tx := newTx(40, testNow+10)
	require.NoError(t, svc.RecordTrade(ctx, tx))
	requireTraded(40)

	// Same delivery twice.
	require.NoError(t, svc.RecordTrade(ctx, tx))
	requireTraded(40)

	// Older state, even with a different quantity.
	require.NoError(t, svc.RecordTrade(ctx, newTx(60, testNow+5)))
	requireTraded(40)

	stored, err := svc.repoManager.TransactionRepository().GetTransaction(ctx, txID)
	require.NoError(t, err)
	require.Equal(t, uint64(40), stored.Assets.First.Amount)
	require.Equal(t, testNow+10, stored.Timestamp)

	// Newer state fills the order only with the added quantity.
	require.NoError(t, svc.RecordTrade(ctx, newTx(70, testNow+20)))
	requireTraded(70)

	require.NoError(t, svc.RecordTrade(ctx, newTx(70, testNow+30)))
	requireTraded(70)

	err = svc.RecordTrade(ctx, newTx(50, testNow+40))
	require.ErrorIs(t, err, ErrTradeQuantityDecreased)
	requireTraded(70)

	stored, err = svc.repoManager.TransactionRepository().GetTransaction(ctx, txID)
	require.NoError(t, err)
	require.Equal(t, uint64(70), stored.Assets.First.Amount)
	require.Equal(t, testNow+30, stored.Timestamp)
}

func TestRebuildOrderBook(t *testing.T) {
	svc := newTestService(t)

	var open []*domain.Order
	for i := 0; i < 3; i++ {
		order, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
		require.NoError(t, err)
		require.NoError(t, svc.VerifyOrder(ctx, order.ID))
		open = append(open, order)
	}
	// Unverified and cancelled orders are not advertised.
	_, err := svc.PlaceOrder(ctx, randomTraderID(t), testAssets(t), 60, true)
	require.NoError(t, err)
	require.NoError(t, svc.CancelOrder(ctx, open[2].ID))

	blockHash, err := domain.NewBlockHash(randomBytes(32))
	require.NoError(t, err)

	count, err := svc.RebuildOrderBook(ctx, blockHash)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Rebuilding replaces the previous snapshot.
	count, err = svc.RebuildOrderBook(ctx, blockHash)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	ticks, err := svc.repoManager.TickRepository().GetTicks(ctx)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	for _, tick := range ticks {
		require.Equal(t, blockHash, tick.BlockHash)
		require.NotEqual(t, open[2].ID, tick.OrderID)
	}

	st, err := svc.StoreStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, st.Orders)
	require.Equal(t, 2, st.Ticks)
	require.Zero(t, st.Transactions)
	require.Zero(t, st.ReservedQuantity)
}

func newTestService(t *testing.T) *marketService {
	repoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)

	return newMarketService(repoManager, func() domain.Timestamp {
		return testNow
	})
}

func testAssets(t *testing.T) domain.AssetPair {
	assets, err := domain.NewAssetPair(
		domain.AssetAmount{Amount: 100, AssetID: "btc"},
		domain.AssetAmount{Amount: 500, AssetID: "mb"},
	)
	require.NoError(t, err)
	return assets
}

func randomTraderID(t *testing.T) domain.TraderID {
	id, err := domain.NewTraderID(randomBytes(domain.TraderIDLength))
	require.NoError(t, err)
	return id
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}
