package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/tdex-network/market-store/internal/core/ports"
	"github.com/tdex-network/market-store/pkg/stats"
)

// MarketService defines the use cases composing store operations. Every
// method runs in a single store transaction.
type MarketService interface {
	PlaceOrder(
		ctx context.Context,
		traderID domain.TraderID,
		assets domain.AssetPair,
		timeout domain.Timeout,
		isAsk bool,
	) (*domain.Order, error)
	GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListOrders(ctx context.Context, status string) ([]*domain.Order, error)
	VerifyOrder(ctx context.Context, id domain.OrderID) error
	CancelOrder(ctx context.Context, id domain.OrderID) error
	ReserveQuantity(
		ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
	) error
	ReleaseQuantity(
		ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
	) error
	RecordTrade(ctx context.Context, tx *domain.Transaction) error
	AddPayment(ctx context.Context, payment domain.Payment) (*domain.Transaction, error)
	RebuildOrderBook(ctx context.Context, blockHash domain.BlockHash) (int, error)
	StoreStats(ctx context.Context) (*stats.StoreStats, error)
}

type marketService struct {
	repoManager ports.RepoManager
	now         func() domain.Timestamp
}

// NewMarketService returns a MarketService backed by the given store.
func NewMarketService(repoManager ports.RepoManager) MarketService {
	return newMarketService(repoManager, domain.Now)
}

func newMarketService(
	repoManager ports.RepoManager, now func() domain.Timestamp,
) *marketService {
	return &marketService{repoManager, now}
}

func (s *marketService) PlaceOrder(
	ctx context.Context,
	traderID domain.TraderID,
	assets domain.AssetPair,
	timeout domain.Timeout,
	isAsk bool,
) (*domain.Order, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			orderRepo := s.repoManager.OrderRepository()

			number, err := orderRepo.GetNextOrderNumber(ctx)
			if err != nil {
				return nil, err
			}
			id, err := domain.NewOrderID(traderID, number)
			if err != nil {
				return nil, err
			}
			order, err := domain.NewOrder(id, assets, timeout, s.now(), isAsk)
			if err != nil {
				return nil, err
			}
			if err := orderRepo.AddOrder(ctx, order); err != nil {
				return nil, err
			}
			return order, nil
		},
	)
	if err != nil {
		return nil, err
	}

	order := res.(*domain.Order)
	log.Debugf("placed order %s", order.ID)
	return order, nil
}

func (s *marketService) GetOrder(
	ctx context.Context, id domain.OrderID,
) (*domain.Order, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.OrderRepository().GetOrder(ctx, id)
		},
	)
	if err != nil {
		return nil, err
	}
	order := res.(*domain.Order)
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the orders in the given status, or all of them if
// status is empty.
func (s *marketService) ListOrders(
	ctx context.Context, status string,
) ([]*domain.Order, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.OrderRepository().GetAllOrders(ctx)
		},
	)
	if err != nil {
		return nil, err
	}

	orders := res.([]*domain.Order)
	if len(status) <= 0 {
		return orders, nil
	}

	now := s.now()
	filtered := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status(now) == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func (s *marketService) VerifyOrder(ctx context.Context, id domain.OrderID) error {
	return s.updateOrder(ctx, id, func(o *domain.Order) (*domain.Order, error) {
		if o.Cancelled {
			return nil, domain.ErrOrderClosed
		}
		o.Verified = true
		return o, nil
	})
}

func (s *marketService) CancelOrder(ctx context.Context, id domain.OrderID) error {
	return s.updateOrder(ctx, id, func(o *domain.Order) (*domain.Order, error) {
		o.Cancel()
		return o, nil
	})
}

func (s *marketService) ReserveQuantity(
	ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
) error {
	return s.updateOrder(ctx, id, func(o *domain.Order) (*domain.Order, error) {
		if o.IsExpired(s.now()) {
			return nil, ErrOrderExpired
		}
		if err := o.ReserveQuantity(counterpart, quantity); err != nil {
			return nil, err
		}
		return o, nil
	})
}

func (s *marketService) ReleaseQuantity(
	ctx context.Context, id, counterpart domain.OrderID, quantity uint64,
) error {
	return s.updateOrder(ctx, id, func(o *domain.Order) (*domain.Order, error) {
		if err := o.ReleaseQuantity(counterpart, quantity); err != nil {
			return nil, err
		}
		return o, nil
	})
}

// RecordTrade stores the transaction and fills its local order with the
// committed quantity of the trade. Deliveries not newer than the stored
// state leave both the order and the transaction untouched, a newer one
// fills the order only with the quantity added since the stored state.
func (s *marketService) RecordTrade(
	ctx context.Context, tx *domain.Transaction,
) error {
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			txRepo := s.repoManager.TransactionRepository()

			stored, err := txRepo.GetTransaction(ctx, tx.ID)
			if err != nil {
				return nil, err
			}

			quantity := tx.Assets.First.Amount
			if stored != nil {
				if tx.Timestamp <= stored.Timestamp {
					// Counted and logged as stale by the repository.
					return nil, txRepo.InsertOrUpdateTransaction(ctx, tx)
				}
				if quantity < stored.Assets.First.Amount {
					return nil, ErrTradeQuantityDecreased
				}
				quantity -= stored.Assets.First.Amount
			}

			if quantity > 0 {
				if err := s.repoManager.OrderRepository().UpdateOrder(
					ctx, tx.OrderID, func(o *domain.Order) (*domain.Order, error) {
						if err := o.AddTrade(
							tx.PartnerOrderID, quantity, tx.Timestamp,
						); err != nil {
							return nil, err
						}
						return o, nil
					},
				); err != nil {
					return nil, err
				}
			}
			return nil, txRepo.InsertOrUpdateTransaction(ctx, tx)
		},
	)
	return err
}

// AddPayment attaches the payment to its transaction and stores the
// transaction with its whole payment set.
func (s *marketService) AddPayment(
	ctx context.Context, payment domain.Payment,
) (*domain.Transaction, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			txRepo := s.repoManager.TransactionRepository()

			tx, err := txRepo.GetTransaction(ctx, payment.TransactionID)
			if err != nil {
				return nil, err
			}
			if tx == nil {
				return nil, ErrTransactionNotFound
			}
			if err := tx.AddPayment(payment); err != nil {
				return nil, err
			}

			if err := txRepo.DeleteTransaction(ctx, tx.ID); err != nil {
				return nil, err
			}
			if err := txRepo.AddTransaction(ctx, tx); err != nil {
				return nil, err
			}
			return tx, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return res.(*domain.Transaction), nil
}

// RebuildOrderBook replaces the local order book with a snapshot of every
// order still open at the given block. It returns the number of ticks.
func (s *marketService) RebuildOrderBook(
	ctx context.Context, blockHash domain.BlockHash,
) (int, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			tickRepo := s.repoManager.TickRepository()
			if err := tickRepo.DeleteAllTicks(ctx); err != nil {
				return nil, err
			}

			orders, err := s.repoManager.OrderRepository().GetAllOrders(ctx)
			if err != nil {
				return nil, err
			}

			now := s.now()
			count := 0
			for _, o := range orders {
				if o.Status(now) != domain.OrderStatusOpen {
					continue
				}
				if err := tickRepo.AddTick(
					ctx, domain.NewTickFromOrder(o, blockHash),
				); err != nil {
					return nil, err
				}
				count++
			}
			return count, nil
		},
	)
	if err != nil {
		return -1, err
	}

	count := res.(int)
	log.Infof("order book rebuilt at block %s with %d ticks", blockHash, count)
	return count, nil
}

// StoreStats returns a snapshot of the store content. It can be used as a
// stats.StatsSource.
func (s *marketService) StoreStats(ctx context.Context) (*stats.StoreStats, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			orders, err := s.repoManager.OrderRepository().GetAllOrders(ctx)
			if err != nil {
				return nil, err
			}
			txs, err := s.repoManager.TransactionRepository().GetAllTransactions(ctx)
			if err != nil {
				return nil, err
			}
			ticks, err := s.repoManager.TickRepository().GetTicks(ctx)
			if err != nil {
				return nil, err
			}

			st := &stats.StoreStats{
				Orders:       len(orders),
				Transactions: len(txs),
				Ticks:        len(ticks),
			}
			for _, o := range orders {
				st.ReservedQuantity += o.ReservedQuantity()
			}
			return st, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return res.(*stats.StoreStats), nil
}

func (s *marketService) updateOrder(
	ctx context.Context,
	id domain.OrderID,
	updateFn func(o *domain.Order) (*domain.Order, error),
) error {
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.OrderRepository().UpdateOrder(ctx, id, updateFn)
		},
	)
	return err
}
