package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// TraderIDLength is the byte length of a trader identity.
	TraderIDLength = 20
	// TransactionIDLength is the byte length of a transaction identity.
	TransactionIDLength = 32
)

// TraderID identifies a network participant.
type TraderID [TraderIDLength]byte

// NewTraderID returns a TraderID from its binary form.
func NewTraderID(buf []byte) (TraderID, error) {
	var id TraderID
	if len(buf) != TraderIDLength {
		return id, fmt.Errorf(
			"%w: expected %d bytes, got %d", ErrInvalidTraderID, TraderIDLength, len(buf),
		)
	}
	copy(id[:], buf)
	return id, nil
}

// NewTraderIDFromString returns a TraderID from its hex encoded form.
func NewTraderIDFromString(str string) (TraderID, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return TraderID{}, fmt.Errorf("%w: %s", ErrInvalidTraderID, err)
	}
	return NewTraderID(buf)
}

func (t TraderID) Bytes() []byte {
	return t[:]
}

func (t TraderID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TraderID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// OrderNumber is a strictly positive order counter.
type OrderNumber uint64

// NewOrderNumber validates the given number.
func NewOrderNumber(n int64) (OrderNumber, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOrderNumber, n)
	}
	return OrderNumber(n), nil
}

func (n OrderNumber) String() string {
	return fmt.Sprintf("%d", uint64(n))
}

// OrderID is the primary key of an Order, unique per trader.
type OrderID struct {
	TraderID    TraderID
	OrderNumber OrderNumber
}

// NewOrderID returns the composite id of an order.
func NewOrderID(traderID TraderID, number OrderNumber) (OrderID, error) {
	if number == 0 {
		return OrderID{}, fmt.Errorf("%w: 0", ErrInvalidOrderNumber)
	}
	return OrderID{traderID, number}, nil
}

// NewOrderIDFromString parses an order id in the form <trader_id>.<number>.
func NewOrderIDFromString(str string) (OrderID, error) {
	parts := strings.Split(str, ".")
	if len(parts) != 2 {
		return OrderID{}, fmt.Errorf("malformed order id %q", str)
	}
	traderID, err := NewTraderIDFromString(parts[0])
	if err != nil {
		return OrderID{}, err
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return OrderID{}, fmt.Errorf("%w: %s", ErrInvalidOrderNumber, parts[1])
	}
	number, err := NewOrderNumber(n)
	if err != nil {
		return OrderID{}, err
	}
	return OrderID{traderID, number}, nil
}

func (o OrderID) String() string {
	return fmt.Sprintf("%s.%d", o.TraderID, uint64(o.OrderNumber))
}

// MarshalText makes OrderID usable as a JSON object key.
func (o OrderID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// TransactionID identifies a trade globally.
type TransactionID [TransactionIDLength]byte

// NewTransactionID returns a TransactionID from its binary form.
func NewTransactionID(buf []byte) (TransactionID, error) {
	var id TransactionID
	if len(buf) != TransactionIDLength {
		return id, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidTransactionID, TransactionIDLength, len(buf),
		)
	}
	copy(id[:], buf)
	return id, nil
}

// NewTransactionIDFromString returns a TransactionID from its hex encoded form.
func NewTransactionIDFromString(str string) (TransactionID, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return TransactionID{}, fmt.Errorf("%w: %s", ErrInvalidTransactionID, err)
	}
	return NewTransactionID(buf)
}

// RandomTransactionID returns a new random transaction id.
func RandomTransactionID() (TransactionID, error) {
	var id TransactionID
	if _, err := rand.Read(id[:]); err != nil {
		return id, err
	}
	return id, nil
}

func (t TransactionID) Bytes() []byte {
	return t[:]
}

func (t TransactionID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TransactionID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// PaymentID identifies a payment within its transaction and trader context.
type PaymentID struct {
	id string
}

// NewPaymentID validates the given payment id.
func NewPaymentID(id string) (PaymentID, error) {
	if len(strings.TrimSpace(id)) <= 0 {
		return PaymentID{}, ErrInvalidPaymentID
	}
	return PaymentID{id}, nil
}

// NewRandomPaymentID returns a fresh unique payment id.
func NewRandomPaymentID() PaymentID {
	return PaymentID{uuid.New().String()}
}

func (p PaymentID) String() string {
	return p.id
}

func (p PaymentID) MarshalText() ([]byte, error) {
	return []byte(p.id), nil
}

// BlockHash references a block of the external trust ledger. It is stored
// and compared, never interpreted.
type BlockHash [32]byte

// NewBlockHash returns a BlockHash from its binary form.
func NewBlockHash(buf []byte) (BlockHash, error) {
	var h BlockHash
	if len(buf) != len(h) {
		return h, fmt.Errorf(
			"%w: expected %d bytes, got %d", ErrInvalidBlockHash, len(h), len(buf),
		)
	}
	copy(h[:], buf)
	return h, nil
}

// NewBlockHashFromString returns a BlockHash from its hex encoded form.
func NewBlockHashFromString(str string) (BlockHash, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return BlockHash{}, fmt.Errorf("%w: %s", ErrInvalidBlockHash, err)
	}
	return NewBlockHash(buf)
}

func (h BlockHash) String() string {
	return hex.EncodeToString(h[:])
}

func (h BlockHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
