package sqlitedb

import (
	"database/sql"
	"fmt"

	"github.com/tdex-network/market-store/internal/core/domain"
)

// Each row type mirrors a table of the schema column by column. Rows are
// built from and mapped to domain entities by pure functions, validating
// numeric ranges and ids at the boundary. A row is only built if it maps
// back to the domain.

const (
	orderColumns = "trader_id, order_number, asset1_amount, asset1_type, " +
		"asset2_amount, asset2_type, traded_quantity, received_quantity, " +
		"timeout, order_timestamp, completed_timestamp, is_ask, cancelled, verified"
	reservedTickColumns = "trader_id, order_number, reserved_trader_id, " +
		"reserved_order_number, quantity"
	transactionColumns = "trader_id, transaction_id, order_number, " +
		"partner_trader_id, partner_order_number, asset1_amount, asset1_type, " +
		"asset1_transferred, asset2_amount, asset2_type, asset2_transferred, " +
		"transaction_timestamp, sent_wallet_info, received_wallet_info, " +
		"incoming_address, outgoing_address, partner_incoming_address, " +
		"partner_outgoing_address"
	paymentColumns = "trader_id, transaction_id, payment_id, transferred_amount, " +
		"transferred_type, address_from, address_to, timestamp"
	tickColumns = "trader_id, order_number, asset1_amount, asset1_type, " +
		"asset2_amount, asset2_type, timeout, timestamp, is_ask, traded, block_hash"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

type orderRow struct {
	TraderID           string
	OrderNumber        int64
	Asset1Amount       int64
	Asset1Type         string
	Asset2Amount       int64
	Asset2Type         string
	TradedQuantity     int64
	ReceivedQuantity   int64
	Timeout            int64
	OrderTimestamp     int64
	CompletedTimestamp sql.NullInt64
	IsAsk              bool
	Cancelled          bool
	Verified           bool
}

func newOrderRow(o *domain.Order) (orderRow, error) {
	amounts, err := toBigInts(
		uint64(o.ID.OrderNumber), o.Assets.First.Amount, o.Assets.Second.Amount,
		o.TradedQuantity, o.ReceivedQuantity,
	)
	if err != nil {
		return orderRow{}, err
	}

	var completed sql.NullInt64
	if o.CompletedTimestamp != nil {
		completed = sql.NullInt64{Int64: int64(*o.CompletedTimestamp), Valid: true}
	}

	row := orderRow{
		TraderID:           o.ID.TraderID.String(),
		OrderNumber:        amounts[0],
		Asset1Amount:       amounts[1],
		Asset1Type:         o.Assets.First.AssetID,
		Asset2Amount:       amounts[2],
		Asset2Type:         o.Assets.Second.AssetID,
		TradedQuantity:     amounts[3],
		ReceivedQuantity:   amounts[4],
		Timeout:            int64(o.Timeout),
		OrderTimestamp:     int64(o.Timestamp),
		CompletedTimestamp: completed,
		IsAsk:              o.IsAsk,
		Cancelled:          o.Cancelled,
		Verified:           o.Verified,
	}
	if _, err := row.toDomain(nil); err != nil {
		return orderRow{}, err
	}
	return row, nil
}

func (r orderRow) args() []interface{} {
	var completed interface{}
	if r.CompletedTimestamp.Valid {
		completed = r.CompletedTimestamp.Int64
	}
	return []interface{}{
		r.TraderID, r.OrderNumber, r.Asset1Amount, r.Asset1Type, r.Asset2Amount,
		r.Asset2Type, r.TradedQuantity, r.ReceivedQuantity, r.Timeout,
		r.OrderTimestamp, completed, boolToInt(r.IsAsk), boolToInt(r.Cancelled),
		boolToInt(r.Verified),
	}
}

func scanOrderRow(s scanner) (orderRow, error) {
	var r orderRow
	var isAsk, cancelled, verified int64
	if err := s.Scan(
		&r.TraderID, &r.OrderNumber, &r.Asset1Amount, &r.Asset1Type,
		&r.Asset2Amount, &r.Asset2Type, &r.TradedQuantity, &r.ReceivedQuantity,
		&r.Timeout, &r.OrderTimestamp, &r.CompletedTimestamp, &isAsk, &cancelled,
		&verified,
	); err != nil {
		return orderRow{}, err
	}
	r.IsAsk, r.Cancelled, r.Verified = isAsk != 0, cancelled != 0, verified != 0
	return r, nil
}

func (r orderRow) toDomain(reserved []reservedTickRow) (*domain.Order, error) {
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
	quantities, err := fromBigInts(r.TradedQuantity, r.ReceivedQuantity)
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
	if r.CompletedTimestamp.Valid && r.CompletedTimestamp.Int64 < 0 {
		return nil, domain.ErrInvalidTimestamp
	}
	order.TradedQuantity = quantities[0]
	order.ReceivedQuantity = quantities[1]
	order.Cancelled = r.Cancelled
	order.Verified = r.Verified
	if r.CompletedTimestamp.Valid {
		ts := domain.Timestamp(r.CompletedTimestamp.Int64)
		order.CompletedTimestamp = &ts
	}

	for _, row := range reserved {
		tick, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		order.ReservedTicks[tick.OrderID] = tick.Quantity
	}
	return order, nil
}

type reservedTickRow struct {
	TraderID            string
	OrderNumber         int64
	ReservedTraderID    string
	ReservedOrderNumber int64
	Quantity            int64
}

func newReservedTickRow(
	id, counterpart domain.OrderID, quantity uint64,
) (reservedTickRow, error) {
	values, err := toBigInts(
		uint64(id.OrderNumber), uint64(counterpart.OrderNumber), quantity,
	)
	if err != nil {
		return reservedTickRow{}, err
	}
	row := reservedTickRow{
		TraderID:            id.TraderID.String(),
		OrderNumber:         values[0],
		ReservedTraderID:    counterpart.TraderID.String(),
		ReservedOrderNumber: values[1],
		Quantity:            values[2],
	}
	if _, err := parseOrderID(row.TraderID, row.OrderNumber); err != nil {
		return reservedTickRow{}, err
	}
	if _, err := row.toDomain(); err != nil {
		return reservedTickRow{}, err
	}
	return row, nil
}

func (r reservedTickRow) args() []interface{} {
	return []interface{}{
		r.TraderID, r.OrderNumber, r.ReservedTraderID, r.ReservedOrderNumber,
		r.Quantity,
	}
}

func scanReservedTickRow(s scanner) (reservedTickRow, error) {
	var r reservedTickRow
	err := s.Scan(
		&r.TraderID, &r.OrderNumber, &r.ReservedTraderID, &r.ReservedOrderNumber,
		&r.Quantity,
	)
	return r, err
}

func (r reservedTickRow) toDomain() (domain.ReservedTick, error) {
	id, err := parseOrderID(r.ReservedTraderID, r.ReservedOrderNumber)
	if err != nil {
		return domain.ReservedTick{}, err
	}
	quantity, err := fromBigInts(r.Quantity)
	if err != nil {
		return domain.ReservedTick{}, err
	}
	return domain.ReservedTick{OrderID: id, Quantity: quantity[0]}, nil
}

type transactionRow struct {
	TraderID               string
	TransactionID          string
	OrderNumber            int64
	PartnerTraderID        string
	PartnerOrderNumber     int64
	Asset1Amount           int64
	Asset1Type             string
	Asset1Transferred      int64
	Asset2Amount           int64
	Asset2Type             string
	Asset2Transferred      int64
	TransactionTimestamp   int64
	SentWalletInfo         bool
	ReceivedWalletInfo     bool
	IncomingAddress        string
	OutgoingAddress        string
	PartnerIncomingAddress string
	PartnerOutgoingAddress string
}

func newTransactionRow(t *domain.Transaction) (transactionRow, error) {
	values, err := toBigInts(
		uint64(t.OrderID.OrderNumber), uint64(t.PartnerOrderID.OrderNumber),
		t.Assets.First.Amount, t.TransferredAssets.First.Amount,
		t.Assets.Second.Amount, t.TransferredAssets.Second.Amount,
	)
	if err != nil {
		return transactionRow{}, err
	}

	row := transactionRow{
		TraderID:               t.OrderID.TraderID.String(),
		TransactionID:          t.ID.String(),
		OrderNumber:            values[0],
		PartnerTraderID:        t.PartnerOrderID.TraderID.String(),
		PartnerOrderNumber:     values[1],
		Asset1Amount:           values[2],
		Asset1Type:             t.Assets.First.AssetID,
		Asset1Transferred:      values[3],
		Asset2Amount:           values[4],
		Asset2Type:             t.Assets.Second.AssetID,
		Asset2Transferred:      values[5],
		TransactionTimestamp:   int64(t.Timestamp),
		SentWalletInfo:         t.SentWalletInfo,
		ReceivedWalletInfo:     t.ReceivedWalletInfo,
		IncomingAddress:        string(t.IncomingAddress),
		OutgoingAddress:        string(t.OutgoingAddress),
		PartnerIncomingAddress: string(t.PartnerIncomingAddress),
		PartnerOutgoingAddress: string(t.PartnerOutgoingAddress),
	}
	if _, err := row.toDomain(nil); err != nil {
		return transactionRow{}, err
	}
	return row, nil
}

func (r transactionRow) args() []interface{} {
	return []interface{}{
		r.TraderID, r.TransactionID, r.OrderNumber, r.PartnerTraderID,
		r.PartnerOrderNumber, r.Asset1Amount, r.Asset1Type, r.Asset1Transferred,
		r.Asset2Amount, r.Asset2Type, r.Asset2Transferred, r.TransactionTimestamp,
		boolToInt(r.SentWalletInfo), boolToInt(r.ReceivedWalletInfo),
		r.IncomingAddress, r.OutgoingAddress, r.PartnerIncomingAddress,
		r.PartnerOutgoingAddress,
	}
}

func scanTransactionRow(s scanner) (transactionRow, error) {
	var r transactionRow
	var sent, received int64
	if err := s.Scan(
		&r.TraderID, &r.TransactionID, &r.OrderNumber, &r.PartnerTraderID,
		&r.PartnerOrderNumber, &r.Asset1Amount, &r.Asset1Type, &r.Asset1Transferred,
		&r.Asset2Amount, &r.Asset2Type, &r.Asset2Transferred,
		&r.TransactionTimestamp, &sent, &received, &r.IncomingAddress,
		&r.OutgoingAddress, &r.PartnerIncomingAddress, &r.PartnerOutgoingAddress,
	); err != nil {
		return transactionRow{}, err
	}
	r.SentWalletInfo, r.ReceivedWalletInfo = sent != 0, received != 0
	return r, nil
}

func (r transactionRow) toDomain(payments []paymentRow) (*domain.Transaction, error) {
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

	for _, row := range payments {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		t.Payments = append(t.Payments, *p)
	}
	return t, nil
}

type paymentRow struct {
	TraderID          string
	TransactionID     string
	PaymentID         string
	TransferredAmount int64
	TransferredType   string
	AddressFrom       string
	AddressTo         string
	Timestamp         int64
}

func newPaymentRow(p domain.Payment) (paymentRow, error) {
	amount, err := toBigInts(p.TransferredAssets.Amount)
	if err != nil {
		return paymentRow{}, err
	}
	row := paymentRow{
		TraderID:          p.TraderID.String(),
		TransactionID:     p.TransactionID.String(),
		PaymentID:         p.PaymentID.String(),
		TransferredAmount: amount[0],
		TransferredType:   p.TransferredAssets.AssetID,
		AddressFrom:       string(p.AddressFrom),
		AddressTo:         string(p.AddressTo),
		Timestamp:         int64(p.Timestamp),
	}
	if _, err := row.toDomain(); err != nil {
		return paymentRow{}, err
	}
	return row, nil
}

func (r paymentRow) args() []interface{} {
	return []interface{}{
		r.TraderID, r.TransactionID, r.PaymentID, r.TransferredAmount,
		r.TransferredType, r.AddressFrom, r.AddressTo, r.Timestamp,
	}
}

func scanPaymentRow(s scanner) (paymentRow, error) {
	var r paymentRow
	err := s.Scan(
		&r.TraderID, &r.TransactionID, &r.PaymentID, &r.TransferredAmount,
		&r.TransferredType, &r.AddressFrom, &r.AddressTo, &r.Timestamp,
	)
	return r, err
}

func (r paymentRow) toDomain() (*domain.Payment, error) {
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
	amount, err := fromBigInts(r.TransferredAmount)
	if err != nil {
		return nil, err
	}
	transferred, err := domain.NewAssetAmount(amount[0], r.TransferredType)
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

type tickRow struct {
	TraderID     string
	OrderNumber  int64
	Asset1Amount int64
	Asset1Type   string
	Asset2Amount int64
	Asset2Type   string
	Timeout      int64
	Timestamp    int64
	IsAsk        bool
	Traded       int64
	BlockHash    string
}

func newTickRow(t *domain.Tick) (tickRow, error) {
	values, err := toBigInts(
		uint64(t.OrderID.OrderNumber), t.Assets.First.Amount,
		t.Assets.Second.Amount, t.Traded,
	)
	if err != nil {
		return tickRow{}, err
	}
	row := tickRow{
		TraderID:     t.OrderID.TraderID.String(),
		OrderNumber:  values[0],
		Asset1Amount: values[1],
		Asset1Type:   t.Assets.First.AssetID,
		Asset2Amount: values[2],
		Asset2Type:   t.Assets.Second.AssetID,
		Timeout:      int64(t.Timeout),
		Timestamp:    int64(t.Timestamp),
		IsAsk:        t.IsAsk,
		Traded:       values[3],
		BlockHash:    t.BlockHash.String(),
	}
	if _, err := row.toDomain(); err != nil {
		return tickRow{}, err
	}
	return row, nil
}

func (r tickRow) args() []interface{} {
	return []interface{}{
		r.TraderID, r.OrderNumber, r.Asset1Amount, r.Asset1Type, r.Asset2Amount,
		r.Asset2Type, r.Timeout, r.Timestamp, boolToInt(r.IsAsk), r.Traded,
		r.BlockHash,
	}
}

func scanTickRow(s scanner) (tickRow, error) {
	var r tickRow
	var isAsk int64
	if err := s.Scan(
		&r.TraderID, &r.OrderNumber, &r.Asset1Amount, &r.Asset1Type,
		&r.Asset2Amount, &r.Asset2Type, &r.Timeout, &r.Timestamp, &isAsk,
		&r.Traded, &r.BlockHash,
	); err != nil {
		return tickRow{}, err
	}
	r.IsAsk = isAsk != 0
	return r, nil
}

func (r tickRow) toDomain() (*domain.Tick, error) {
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
	traded, err := fromBigInts(r.Traded)
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

	return &domain.Tick{
		OrderID:   id,
		Assets:    assets,
		Timeout:   domain.Timeout(r.Timeout),
		Timestamp: domain.Timestamp(r.Timestamp),
		IsAsk:     r.IsAsk,
		Traded:    traded[0],
		BlockHash: blockHash,
	}, nil
}

func parseOrderID(traderID string, orderNumber int64) (domain.OrderID, error) {
	tid, err := domain.NewTraderIDFromString(traderID)
	if err != nil {
		return domain.OrderID{}, err
	}
	number, err := domain.NewOrderNumber(orderNumber)
	if err != nil {
		return domain.OrderID{}, err
	}
	return domain.NewOrderID(tid, number)
}

func parseAssetPair(
	amount1 int64, type1 string, amount2 int64, type2 string,
) (domain.AssetPair, error) {
	amounts, err := fromBigInts(amount1, amount2)
	if err != nil {
		return domain.AssetPair{}, err
	}
	first, err := domain.NewAssetAmount(amounts[0], type1)
	if err != nil {
		return domain.AssetPair{}, err
	}
	second, err := domain.NewAssetAmount(amounts[1], type2)
	if err != nil {
		return domain.AssetPair{}, err
	}
	return domain.NewAssetPair(first, second)
}

// toBigInts converts the values to the signed BIGINT range.
func toBigInts(values ...uint64) ([]int64, error) {
	res := make([]int64, 0, len(values))
	for _, v := range values {
		if v > domain.MaxAssetAmount {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAssetAmount, v)
		}
		res = append(res, int64(v))
	}
	return res, nil
}

func fromBigInts(values ...int64) ([]uint64, error) {
	res := make([]uint64, 0, len(values))
	for _, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAssetAmount, v)
		}
		res = append(res, uint64(v))
	}
	return res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
