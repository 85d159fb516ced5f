package dbbadger

import (
	"fmt"

	"github.com/tdex-network/market-store/internal/core/domain"
)

// Every record type maps a table of the market schema. Ids are stored in
// their hex form so that they can be matched by badgerhold queries.

type orderRecord struct {
	TraderID           string
	OrderNumber        uint64
	Asset1Amount       uint64
	Asset1Type         string
	Asset2Amount       uint64
	Asset2Type         string
	TradedQuantity     uint64
	ReceivedQuantity   uint64
	Timeout            int64
	OrderTimestamp     int64
	CompletedTimestamp *int64
	IsAsk              bool
	Cancelled          bool
	Verified           bool
}

type reservedTickRecord struct {
	TraderID            string
	OrderNumber         uint64
	ReservedTraderID    string
	ReservedOrderNumber uint64
	Quantity            uint64
}

type transactionRecord struct {
	TraderID               string
	TransactionID          string
	OrderNumber            uint64
	PartnerTraderID        string
	PartnerOrderNumber     uint64
	Asset1Amount           uint64
	Asset1Type             string
	Asset1Transferred      uint64
	Asset2Amount           uint64
	Asset2Type             string
	Asset2Transferred      uint64
	TransactionTimestamp   int64
	SentWalletInfo         bool
	ReceivedWalletInfo     bool
	IncomingAddress        string
	OutgoingAddress        string
	PartnerIncomingAddress string
	PartnerOutgoingAddress string
}

type paymentRecord struct {
	TraderID          string
	TransactionID     string
	PaymentID         string
	TransferredAmount uint64
	TransferredType   string
	AddressFrom       string
	AddressTo         string
	Timestamp         int64
}

type tickRecord struct {
	TraderID     string
	OrderNumber  uint64
	Asset1Amount uint64
	Asset1Type   string
	Asset2Amount uint64
	Asset2Type   string
	Timeout      int64
	Timestamp    int64
	IsAsk        bool
	Traded       uint64
	BlockHash    string
}

type optionRecord struct {
	Key   string
	Value string
}

func orderKey(id domain.OrderID) string {
	return fmt.Sprintf("%s:%d", id.TraderID, uint64(id.OrderNumber))
}

func reservedTickKey(id, counterpart domain.OrderID) string {
	return fmt.Sprintf("%s:%s", orderKey(id), orderKey(counterpart))
}

func transactionKey(id domain.TransactionID) string {
	return id.String()
}

func paymentKey(p domain.Payment) string {
	return fmt.Sprintf("%s:%s:%s", p.TraderID, p.PaymentID, p.TransactionID)
}

// Every newXRecord checks the record decodes back, so that a stored record
// never breaks the reads.

func newOrderRecord(o *domain.Order) (orderRecord, error) {
	var completed *int64
	if o.CompletedTimestamp != nil {
		ts := int64(*o.CompletedTimestamp)
		completed = &ts
	}
	rec := orderRecord{
		TraderID:           o.ID.TraderID.String(),
		OrderNumber:        uint64(o.ID.OrderNumber),
		Asset1Amount:       o.Assets.First.Amount,
		Asset1Type:         o.Assets.First.AssetID,
		Asset2Amount:       o.Assets.Second.Amount,
		Asset2Type:         o.Assets.Second.AssetID,
		TradedQuantity:     o.TradedQuantity,
		ReceivedQuantity:   o.ReceivedQuantity,
		Timeout:            int64(o.Timeout),
		OrderTimestamp:     int64(o.Timestamp),
		CompletedTimestamp: completed,
		IsAsk:              o.IsAsk,
		Cancelled:          o.Cancelled,
		Verified:           o.Verified,
	}
	if _, err := rec.toDomain(nil); err != nil {
		return orderRecord{}, err
	}
	return rec, nil
}

func (r orderRecord) toDomain(reserved []reservedTickRecord) (*domain.Order, error) {
	id, err := parseOrderID(r.TraderID, r.OrderNumber)
	if err != nil {
		return nil, err
	}
	assets, err := parseAssetPair(
		r.Asset1Amount, r.Asset1Type, r.Asset2Amount, r.Asset2Type,
	)
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(
		id, assets, domain.Timeout(r.Timeout), domain.Timestamp(r.OrderTimestamp),
		r.IsAsk,
	)
	if err != nil {
		return nil, err
	}
	if err := checkQuantities(r.TradedQuantity, r.ReceivedQuantity); err != nil {
		return nil, err
	}
	if r.CompletedTimestamp != nil && *r.CompletedTimestamp < 0 {
		return nil, domain.ErrInvalidTimestamp
	}
	order.TradedQuantity = r.TradedQuantity
	order.ReceivedQuantity = r.ReceivedQuantity
	order.Cancelled = r.Cancelled
	order.Verified = r.Verified
	if r.CompletedTimestamp != nil {
		ts := domain.Timestamp(*r.CompletedTimestamp)
		order.CompletedTimestamp = &ts
	}

	for _, rt := range reserved {
		tick, err := rt.toDomain()
		if err != nil {
			return nil, err
		}
		order.ReservedTicks[tick.OrderID] = tick.Quantity
	}
	return order, nil
}

func newReservedTickRecord(
	id, counterpart domain.OrderID, quantity uint64,
) (reservedTickRecord, error) {
	rec := reservedTickRecord{
		TraderID:            id.TraderID.String(),
		OrderNumber:         uint64(id.OrderNumber),
		ReservedTraderID:    counterpart.TraderID.String(),
		ReservedOrderNumber: uint64(counterpart.OrderNumber),
		Quantity:            quantity,
	}
	if _, err := parseOrderID(rec.TraderID, rec.OrderNumber); err != nil {
		return reservedTickRecord{}, err
	}
	if _, err := rec.toDomain(); err != nil {
		return reservedTickRecord{}, err
	}
	return rec, nil
}

func (r reservedTickRecord) toDomain() (domain.ReservedTick, error) {
	id, err := parseOrderID(r.ReservedTraderID, r.ReservedOrderNumber)
	if err != nil {
		return domain.ReservedTick{}, err
	}
	if err := checkQuantities(r.Quantity); err != nil {
		return domain.ReservedTick{}, err
	}
	return domain.ReservedTick{OrderID: id, Quantity: r.Quantity}, nil
}

func newTransactionRecord(t *domain.Transaction) (transactionRecord, error) {
	rec := transactionRecord{
		TraderID:               t.OrderID.TraderID.String(),
		TransactionID:          t.ID.String(),
		OrderNumber:            uint64(t.OrderID.OrderNumber),
		PartnerTraderID:        t.PartnerOrderID.TraderID.String(),
		PartnerOrderNumber:     uint64(t.PartnerOrderID.OrderNumber),
		Asset1Amount:           t.Assets.First.Amount,
		Asset1Type:             t.Assets.First.AssetID,
		Asset1Transferred:      t.TransferredAssets.First.Amount,
		Asset2Amount:           t.Assets.Second.Amount,
		Asset2Type:             t.Assets.Second.AssetID,
		Asset2Transferred:      t.TransferredAssets.Second.Amount,
		TransactionTimestamp:   int64(t.Timestamp),
		SentWalletInfo:         t.SentWalletInfo,
		ReceivedWalletInfo:     t.ReceivedWalletInfo,
		IncomingAddress:        string(t.IncomingAddress),
		OutgoingAddress:        string(t.OutgoingAddress),
		PartnerIncomingAddress: string(t.PartnerIncomingAddress),
		PartnerOutgoingAddress: string(t.PartnerOutgoingAddress),
	}
	if _, err := rec.toDomain(nil); err != nil {
		return transactionRecord{}, err
	}
	return rec, nil
}

func (r transactionRecord) toDomain(
	payments []paymentRecord,
) (*domain.Transaction, error) {
	id, err := domain.NewTransactionIDFromString(r.TransactionID)
	if err != nil {
		return nil, err
	}
	orderID, err := parseOrderID(r.TraderID, r.OrderNumber)
	if err != nil {
		return nil, err
	}
	partnerOrderID, err := parseOrderID(r.PartnerTraderID, r.PartnerOrderNumber)
	if err != nil {
		return nil, err
	}
	assets, err := parseAssetPair(
		r.Asset1Amount, r.Asset1Type, r.Asset2Amount, r.Asset2Type,
	)
	if err != nil {
		return nil, err
	}
	transferred, err := parseAssetPair(
		r.Asset1Transferred, r.Asset1Type, r.Asset2Transferred, r.Asset2Type,
	)
	if err != nil {
		return nil, err
	}

	t, err := domain.NewTransaction(
		id, orderID, partnerOrderID, assets,
		domain.Timestamp(r.TransactionTimestamp),
	)
	if err != nil {
		return nil, err
	}
	t.TransferredAssets = transferred
	t.SentWalletInfo = r.SentWalletInfo
	t.ReceivedWalletInfo = r.ReceivedWalletInfo
	t.IncomingAddress = domain.WalletAddress(r.IncomingAddress)
	t.OutgoingAddress = domain.WalletAddress(r.OutgoingAddress)
	t.PartnerIncomingAddress = domain.WalletAddress(r.PartnerIncomingAddress)
	t.PartnerOutgoingAddress = domain.WalletAddress(r.PartnerOutgoingAddress)

	for _, p := range payments {
		payment, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		t.Payments = append(t.Payments, *payment)
	}
	return t, nil
}

func newPaymentRecord(p domain.Payment) (paymentRecord, error) {
	rec := paymentRecord{
		TraderID:          p.TraderID.String(),
		TransactionID:     p.TransactionID.String(),
		PaymentID:         p.PaymentID.String(),
		TransferredAmount: p.TransferredAssets.Amount,
		TransferredType:   p.TransferredAssets.AssetID,
		AddressFrom:       string(p.AddressFrom),
		AddressTo:         string(p.AddressTo),
		Timestamp:         int64(p.Timestamp),
	}
	if _, err := rec.toDomain(); err != nil {
		return paymentRecord{}, err
	}
	return rec, nil
}

func (r paymentRecord) toDomain() (*domain.Payment, error) {
	traderID, err := domain.NewTraderIDFromString(r.TraderID)
	if err != nil {
		return nil, err
	}
	txID, err := domain.NewTransactionIDFromString(r.TransactionID)
	if err != nil {
		return nil, err
	}
	paymentID, err := domain.NewPaymentID(r.PaymentID)
	if err != nil {
		return nil, err
	}
	transferred, err := domain.NewAssetAmount(r.TransferredAmount, r.TransferredType)
	if err != nil {
		return nil, err
	}
	if r.Timestamp < 0 {
		return nil, domain.ErrInvalidTimestamp
	}

	return &domain.Payment{
		TraderID:          traderID,
		TransactionID:     txID,
		PaymentID:         paymentID,
		TransferredAssets: transferred,
		AddressFrom:       domain.WalletAddress(r.AddressFrom),
		AddressTo:         domain.WalletAddress(r.AddressTo),
		Timestamp:         domain.Timestamp(r.Timestamp),
	}, nil
}

func newTickRecord(t *domain.Tick) (tickRecord, error) {
	rec := tickRecord{
		TraderID:     t.OrderID.TraderID.String(),
		OrderNumber:  uint64(t.OrderID.OrderNumber),
		Asset1Amount: t.Assets.First.Amount,
		Asset1Type:   t.Assets.First.AssetID,
		Asset2Amount: t.Assets.Second.Amount,
		Asset2Type:   t.Assets.Second.AssetID,
		Timeout:      int64(t.Timeout),
		Timestamp:    int64(t.Timestamp),
		IsAsk:        t.IsAsk,
		Traded:       t.Traded,
		BlockHash:    t.BlockHash.String(),
	}
	if _, err := rec.toDomain(); err != nil {
		return tickRecord{}, err
	}
	return rec, nil
}

func (r tickRecord) toDomain() (*domain.Tick, error) {
	id, err := parseOrderID(r.TraderID, r.OrderNumber)
	if err != nil {
		return nil, err
	}
	assets, err := parseAssetPair(
		r.Asset1Amount, r.Asset1Type, r.Asset2Amount, r.Asset2Type,
	)
	if err != nil {
		return nil, err
	}
	blockHash, err := domain.NewBlockHashFromString(r.BlockHash)
	if err != nil {
		return nil, err
	}
	if r.Timeout < 0 {
		return nil, domain.ErrInvalidTimeout
	}
	if r.Timestamp < 0 {
		return nil, domain.ErrInvalidTimestamp
	}
	if err := checkQuantities(r.Traded); err != nil {
		return nil, err
	}

	return &domain.Tick{
		OrderID:   id,
		Assets:    assets,
		Timeout:   domain.Timeout(r.Timeout),
		Timestamp: domain.Timestamp(r.Timestamp),
		IsAsk:     r.IsAsk,
		Traded:    r.Traded,
		BlockHash: blockHash,
	}, nil
}

func parseOrderID(traderID string, orderNumber uint64) (domain.OrderID, error) {
	tid, err := domain.NewTraderIDFromString(traderID)
	if err != nil {
		return domain.OrderID{}, err
	}
	if orderNumber > uint64(domain.MaxAssetAmount) {
		return domain.OrderID{}, domain.ErrInvalidOrderNumber
	}
	number, err := domain.NewOrderNumber(int64(orderNumber))
	if err != nil {
		return domain.OrderID{}, err
	}
	return domain.NewOrderID(tid, number)
}

func parseAssetPair(
	amount1 uint64, type1 string, amount2 uint64, type2 string,
) (domain.AssetPair, error) {
	first, err := domain.NewAssetAmount(amount1, type1)
	if err != nil {
		return domain.AssetPair{}, err
	}
	second, err := domain.NewAssetAmount(amount2, type2)
	if err != nil {
		return domain.AssetPair{}, err
	}
	return domain.NewAssetPair(first, second)
}

// checkQuantities makes quantities share the range of asset amounts.
func checkQuantities(quantities ...uint64) error {
	for _, q := range quantities {
		if q > domain.MaxAssetAmount {
			return fmt.Errorf("%w: %d", domain.ErrInvalidAssetAmount, q)
		}
	}
	return nil
}
