// Package minbid computes the smallest amount a new bid may legally carry.
//
// The marketplace uses a flat increment over the current bid rather than a
// percentage step, so a EUR 10 auction and a EUR 100,000 auction advance by
// the same amount. That is product policy, not an engineering invariant,
// which is why the increment is carried as configuration instead of being
// hard-coded here.
package minbid

import (
	"fmt"

	"marketplace-bidding/internal/biderrors"

	"github.com/shopspring/decimal"
)

// DefaultIncrement is the flat step added on top of an existing current bid.
var DefaultIncrement = decimal.New(50, -2) // 0.50

// Calculator derives minimum bids from authoritative auction state.
type Calculator struct {
	increment decimal.Decimal
}

// New returns a Calculator using the given increment. Non-positive
// increments fall back to DefaultIncrement.
func New(increment decimal.Decimal) Calculator {
	if increment.Sign() <= 0 {
		increment = DefaultIncrement
	}
	return Calculator{increment: increment}
}

// Increment returns the configured bid step.
func (c Calculator) Increment() decimal.Decimal {
	return c.increment
}

// Minimum returns the smallest acceptable next bid. With an existing current
// bid the minimum is that bid plus the increment; without one it is the
// start price. An auction carrying neither is an error, never a silent zero.
func (c Calculator) Minimum(currentBid, startPrice *decimal.Decimal) (decimal.Decimal, error) {
	if currentBid != nil {
		return currentBid.Add(c.increment), nil
	}
	if startPrice != nil {
		return *startPrice, nil
	}
	return decimal.Decimal{}, fmt.Errorf("minbid: %w", biderrors.ErrNoPrice)
}
