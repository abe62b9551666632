package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.openly.dev/pointy"
)

// MetalGold is the only metal the workflow trades.
const MetalGold = "gold"

// OrderInput is the transient state of one order-entry session.
type OrderInput struct {
	Operation Operation
	Mode      InputMode
	RawValue  string
	// Bank is nil until the user picks one.
	Bank *BankAccount
}

// ParsedValue returns the raw value as a decimal and whether it is a finite number.
func (in OrderInput) ParsedValue() (decimal.Decimal, bool) {
	return ParseValue(in.RawValue)
}

// ParseValue parses user input as a decimal. Empty or non-numeric input is not ok.
func ParseValue(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// Resolve splits the input and its calculated counterpart into (quantity, amount).
func (in OrderInput) Resolve(calculated decimal.Decimal) (quantity, amount decimal.Decimal) {
	v, _ := in.ParsedValue()
	if in.Mode == InputModeQuantity {
		return v, calculated
	}
	return calculated, v
}

// Payout carries the bank fields a sell order pays out to.
type Payout struct {
	UserBankID    string
	AccountName   string
	AccountNumber string
	IFSCCode      string
}

// OrderRequest is a buy or sell request to the backend.
// Exactly one of Quantity and Amount is set.
type OrderRequest struct {
	Operation             Operation
	MerchantTransactionID string
	UniqueID              string
	LockPrice             decimal.Decimal
	MetalType             string
	BlockID               string
	ModeOfPayment         string
	Quantity              *decimal.Decimal
	Amount                *decimal.Decimal
	// Payout is set for sell orders only.
	Payout *Payout
}

// WithSize sets the field matching the input mode and clears the other one.
func (r *OrderRequest) WithSize(mode InputMode, quantity, amount decimal.Decimal) {
	if mode == InputModeQuantity {
		r.Quantity = pointy.Pointer(quantity)
		r.Amount = nil
		return
	}
	r.Amount = pointy.Pointer(amount)
	r.Quantity = nil
}
