package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAssetAmount is the largest amount that fits a BIGINT column.
const MaxAssetAmount = uint64(math.MaxInt64)

// AssetAmount is an amount of a given asset.
type AssetAmount struct {
	Amount  uint64
	AssetID string
}

// NewAssetAmount validates the amount range and the asset id.
func NewAssetAmount(amount uint64, assetID string) (AssetAmount, error) {
	a := AssetAmount{amount, assetID}
	if err := a.Validate(); err != nil {
		return AssetAmount{}, err
	}
	return a, nil
}

func (a AssetAmount) Validate() error {
	if len(a.AssetID) <= 0 {
		return ErrInvalidAssetID
	}
	if a.Amount > MaxAssetAmount {
		return fmt.Errorf("%w: %d", ErrInvalidAssetAmount, a.Amount)
	}
	return nil
}

func (a AssetAmount) String() string {
	return fmt.Sprintf("%d %s", a.Amount, a.AssetID)
}

// AssetPair describes the two legs of an order, tick or transaction: what is
// offered (First) and what is wanted in exchange (Second).
type AssetPair struct {
	First  AssetAmount
	Second AssetAmount
}

// NewAssetPair returns a validated pair.
func NewAssetPair(first, second AssetAmount) (AssetPair, error) {
	if err := first.Validate(); err != nil {
		return AssetPair{}, err
	}
	if err := second.Validate(); err != nil {
		return AssetPair{}, err
	}
	return AssetPair{first, second}, nil
}

// Price returns how many units of the second asset are exchanged for one
// unit of the first one.
func (p AssetPair) Price() decimal.Decimal {
	if p.First.Amount == 0 {
		return decimal.Zero
	}
	second := decimal.NewFromInt(int64(p.Second.Amount))
	first := decimal.NewFromInt(int64(p.First.Amount))
	return second.Div(first)
}

// Proportional returns the amount of the second asset matching the given
// quantity of the first one, according to the pair price.
func (p AssetPair) Proportional(quantity uint64) uint64 {
	amount := p.Price().Mul(decimal.NewFromInt(int64(quantity)))
	return uint64(amount.Floor().IntPart())
}

// Timestamp is expressed in milliseconds since unix epoch.
type Timestamp int64

// NewTimestamp converts the given time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Now returns the current Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// Timeout is a relative validity expressed in seconds.
type Timeout int64

func (t Timeout) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// IsTimedOut returns whether an entity created at the given time is expired
// at now.
func (t Timeout) IsTimedOut(createdAt, now Timestamp) bool {
	return createdAt.Time().Add(t.Duration()).Before(now.Time())
}

// WalletAddress is an opaque wallet address.
type WalletAddress string
