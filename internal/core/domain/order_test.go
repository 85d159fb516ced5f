package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/market-store/internal/core/domain"
)

func TestNewOrder(t *testing.T) {
	order := newTestOrder(t, 1000, 2000)
	require.NotNil(t, order.ReservedTicks)
	require.Empty(t, order.ReservedTicks)
	require.Zero(t, order.TradedQuantity)
	require.Nil(t, order.CompletedTimestamp)
	require.Equal(t, uint64(1000), order.AvailableQuantity())
	require.Equal(t, domain.OrderStatusUnverified, order.Status(order.Timestamp))
}

func TestFailingNewOrder(t *testing.T) {
	validAssets := newTestAssetPair(t, 10, 20)

	tests := []struct {
		name        string
		id          domain.OrderID
		assets      domain.AssetPair
		timeout     domain.Timeout
		timestamp   domain.Timestamp
		expectedErr error
	}{
		{
			name:        "zero_order_number",
			id:          domain.OrderID{TraderID: newTestTraderID(t)},
			assets:      validAssets,
			expectedErr: domain.ErrInvalidOrderNumber,
		},
		{
			name: "empty_asset_id",
			id:   newTestOrderID(t, 1),
			assets: domain.AssetPair{
				First:  domain.AssetAmount{Amount: 10},
				Second: validAssets.Second,
			},
			expectedErr: domain.ErrInvalidAssetID,
		},
		{
			name:        "negative_timeout",
			id:          newTestOrderID(t, 1),
			assets:      validAssets,
			timeout:     -1,
			expectedErr: domain.ErrInvalidTimeout,
		},
		{
			name:        "negative_timestamp",
			id:          newTestOrderID(t, 1),
			assets:      validAssets,
			timestamp:   -1,
			expectedErr: domain.ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			order, err := domain.NewOrder(
				tt.id, tt.assets, tt.timeout, tt.timestamp, false,
			)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, order)
		})
	}
}

func TestReserveReleaseQuantity(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	first := newTestOrderID(t, 10)
	second := newTestOrderID(t, 11)

	require.NoError(t, order.ReserveQuantity(first, 30))
	require.NoError(t, order.ReserveQuantity(second, 50))
	require.NoError(t, order.ReserveQuantity(first, 10))
	require.Equal(t, uint64(90), order.ReservedQuantity())
	require.Equal(t, uint64(10), order.AvailableQuantity())
	require.Len(t, order.ReservedTickList(), 2)

	require.NoError(t, order.ReleaseQuantity(first, 40))
	_, ok := order.ReservedTicks[first]
	require.False(t, ok)

	require.NoError(t, order.ReleaseQuantity(second, 20))
	require.Equal(t, uint64(30), order.ReservedTicks[second])
	require.Equal(t, uint64(70), order.AvailableQuantity())
}

func TestFailingReserveReleaseQuantity(t *testing.T) {
	counterpart := newTestOrderID(t, 10)

	t.Run("reserve", func(t *testing.T) {
		order := newTestOrder(t, 100, 200)

		err := order.ReserveQuantity(counterpart, 0)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)

		err = order.ReserveQuantity(counterpart, 101)
		require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

		require.NoError(t, order.AddTrade(newTestOrderID(t, 11), 60, 1))
		err = order.ReserveQuantity(counterpart, 41)
		require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

		order.Cancel()
		err = order.ReserveQuantity(counterpart, 1)
		require.ErrorIs(t, err, domain.ErrOrderClosed)
	})

	t.Run("release", func(t *testing.T) {
		order := newTestOrder(t, 100, 200)

		err := order.ReleaseQuantity(counterpart, 1)
		require.ErrorIs(t, err, domain.ErrReservationNotFound)

		require.NoError(t, order.ReserveQuantity(counterpart, 10))
		err = order.ReleaseQuantity(counterpart, 11)
		require.ErrorIs(t, err, domain.ErrReservationNotFound)

		err = order.ReleaseQuantity(counterpart, 0)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		require.Equal(t, uint64(10), order.ReservedTicks[counterpart])
	})
}

func TestAddTrade(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	counterpart := newTestOrderID(t, 10)
	require.NoError(t, order.ReserveQuantity(counterpart, 40))

	require.NoError(t, order.AddTrade(counterpart, 30, 1000))
	require.Equal(t, uint64(30), order.TradedQuantity)
	require.Equal(t, uint64(10), order.ReservedTicks[counterpart])
	require.Nil(t, order.CompletedTimestamp)

	require.NoError(t, order.AddTrade(counterpart, 70, 2000))
	require.True(t, order.IsComplete())
	require.Empty(t, order.ReservedTicks)
	require.NotNil(t, order.CompletedTimestamp)
	require.Equal(t, domain.Timestamp(2000), *order.CompletedTimestamp)
	require.Equal(t, domain.OrderStatusCompleted, order.Status(2000))

	err := order.AddTrade(counterpart, 1, 3000)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	require.Equal(t, domain.Timestamp(2000), *order.CompletedTimestamp)
}

func TestFailingAddTradeLeavesOrderUntouched(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	counterpart := newTestOrderID(t, 10)
	require.NoError(t, order.ReserveQuantity(counterpart, 40))

	err := order.AddTrade(counterpart, 101, 1000)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	require.Equal(t, uint64(40), order.ReservedTicks[counterpart])
	require.Zero(t, order.TradedQuantity)

	err = order.AddTrade(counterpart, 0, 1000)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddTradeKeepsOtherReservations(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	first := newTestOrderID(t, 10)
	second := newTestOrderID(t, 11)
	require.NoError(t, order.ReserveQuantity(first, 60))
	require.NoError(t, order.ReserveQuantity(second, 40))

	err := order.AddTrade(newTestOrderID(t, 12), 50, 1000)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	require.Zero(t, order.TradedQuantity)
	require.Equal(t, uint64(100), order.ReservedQuantity())

	err = order.AddTrade(first, 61, 1000)
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	require.NoError(t, order.ReleaseQuantity(second, 10))
	require.NoError(t, order.AddTrade(first, 70, 1000))
	require.Equal(t, uint64(70), order.TradedQuantity)
	require.Empty(t, order.ReservedTicks[first])
	require.Equal(t, uint64(30), order.ReservedQuantity())
	require.LessOrEqual(t, order.ReservedQuantity(), 100-order.TradedQuantity)
}

func TestOrderStatus(t *testing.T) {
	order := newTestOrder(t, 100, 200)
	createdAt := order.Timestamp

	require.Equal(t, domain.OrderStatusUnverified, order.Status(createdAt))

	order.Verified = true
	require.Equal(t, domain.OrderStatusOpen, order.Status(createdAt))

	expiredAt := createdAt + domain.Timestamp(order.Timeout.Duration().Milliseconds()) + 1
	require.True(t, order.IsExpired(expiredAt))
	require.Equal(t, domain.OrderStatusExpired, order.Status(expiredAt))

	order.Cancel()
	require.Equal(t, domain.OrderStatusCancelled, order.Status(createdAt))
}

func newTestTraderID(t *testing.T) domain.TraderID {
	id, err := domain.NewTraderID(randomBytes(domain.TraderIDLength))
	require.NoError(t, err)
	return id
}

func newTestOrderID(t *testing.T, number domain.OrderNumber) domain.OrderID {
	id, err := domain.NewOrderID(newTestTraderID(t), number)
	require.NoError(t, err)
	return id
}

func newTestAssetPair(t *testing.T, first, second uint64) domain.AssetPair {
	pair, err := domain.NewAssetPair(
		domain.AssetAmount{Amount: first, AssetID: "btc"},
		domain.AssetAmount{Amount: second, AssetID: "mb"},
	)
	require.NoError(t, err)
	return pair
}

func newTestOrder(t *testing.T, first, second uint64) *domain.Order {
	order, err := domain.NewOrder(
		newTestOrderID(t, 1), newTestAssetPair(t, first, second), 60,
		1600000000000, true,
	)
	require.NoError(t, err)
	return order
}
