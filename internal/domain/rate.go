package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate source labels.
const (
	RateSourceLive     = "live"
	RateSourceCached   = "cached"
	RateSourceFallback = "fallback"
)

// Rate is an immutable snapshot of gold prices per gram.
type Rate struct {
	BuyPrice   decimal.Decimal
	SellPrice  decimal.Decimal
	CapturedAt time.Time
	// BlockID binds an order to the rate in effect at confirmation time.
	BlockID string
	Source  string
}

// PriceFor returns the canonical price field for the operation:
// buys are quoted at BuyPrice, sells at SellPrice.
func (r Rate) PriceFor(op Operation) decimal.Decimal {
	if op == OperationSell {
		return r.SellPrice
	}
	return r.BuyPrice
}

// IsLive reports whether the rate came straight from the backend.
func (r Rate) IsLive() bool {
	return r.Source == "" || r.Source == RateSourceLive
}
