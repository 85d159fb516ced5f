package domain

import "sort"

// Transaction is the durable record of a trade agreed between a local order
// and a partner order, including its progressive settlement state.
type Transaction struct {
	ID             TransactionID
	OrderID        OrderID
	PartnerOrderID OrderID
	// Assets are the committed amounts of the trade.
	Assets AssetPair
	// TransferredAssets are the amounts settled so far. They never decrease.
	TransferredAssets      AssetPair
	Timestamp              Timestamp
	SentWalletInfo         bool
	ReceivedWalletInfo     bool
	IncomingAddress        WalletAddress
	OutgoingAddress        WalletAddress
	PartnerIncomingAddress WalletAddress
	PartnerOutgoingAddress WalletAddress
	// Payments are kept sorted by timestamp.
	Payments []Payment
}

// NewTransaction returns a transaction with nothing transferred yet.
func NewTransaction(
	id TransactionID, orderID, partnerOrderID OrderID, assets AssetPair,
	timestamp Timestamp,
) (*Transaction, error) {
	if _, err := NewAssetPair(assets.First, assets.Second); err != nil {
		return nil, err
	}
	if timestamp < 0 {
		return nil, ErrInvalidTimestamp
	}

	return &Transaction{
		ID:             id,
		OrderID:        orderID,
		PartnerOrderID: partnerOrderID,
		Assets:         assets,
		TransferredAssets: AssetPair{
			First:  AssetAmount{0, assets.First.AssetID},
			Second: AssetAmount{0, assets.Second.AssetID},
		},
		Timestamp: timestamp,
		Payments:  make([]Payment, 0),
	}, nil
}

// AddPayment attaches the payment and bumps the transferred amount of the leg
// matching the payment asset.
func (t *Transaction) AddPayment(p Payment) error {
	if err := p.TransferredAssets.Validate(); err != nil {
		return err
	}

	switch p.TransferredAssets.AssetID {
	case t.TransferredAssets.First.AssetID:
		t.TransferredAssets.First.Amount += p.TransferredAssets.Amount
	case t.TransferredAssets.Second.AssetID:
		t.TransferredAssets.Second.Amount += p.TransferredAssets.Amount
	default:
		return ErrInvalidAssetID
	}

	t.Payments = append(t.Payments, p)
	SortPayments(t.Payments)
	return nil
}

// IsPaymentComplete returns whether both legs are fully transferred.
func (t *Transaction) IsPaymentComplete() bool {
	return t.TransferredAssets.First.Amount >= t.Assets.First.Amount &&
		t.TransferredAssets.Second.Amount >= t.Assets.Second.Amount
}

// Payment is one discrete transfer settling part of a transaction.
type Payment struct {
	TraderID          TraderID
	TransactionID     TransactionID
	PaymentID         PaymentID
	TransferredAssets AssetAmount
	AddressFrom       WalletAddress
	AddressTo         WalletAddress
	Timestamp         Timestamp
}

// SortPayments sorts payments by timestamp, oldest first.
func SortPayments(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Timestamp < payments[j].Timestamp
	})
}
