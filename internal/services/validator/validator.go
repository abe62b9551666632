// Package validator enforces the rules an order must satisfy before the user is asked to confirm it.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/aurum/internal/domain"
)

var (
	// MinimumBuyAmount is the smallest purchase in INR.
	MinimumBuyAmount = decimal.NewFromInt(50)
	// MinimumSellAmount is the smallest sale in INR.
	MinimumSellAmount = decimal.NewFromInt(100)
)

// MinimumAmount returns the minimum order amount for the operation.
func MinimumAmount(op domain.Operation) decimal.Decimal {
	if op == domain.OperationSell {
		return MinimumSellAmount
	}
	return MinimumBuyAmount
}

// Error is a failed validation. It matches its domain sentinel via errors.Is.
type Error struct {
	Reason error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason.Error(), e.Detail)
}

// Unwrap exposes the domain sentinel.
func (e *Error) Unwrap() error {
	return e.Reason
}

// Validate checks the order input against the calculated counterpart value.
// available is the user's holding in grams and only consulted for sells.
// Rules are evaluated in order and the first failure wins. Nil means the
// order may be shown to the user for final confirmation.
func Validate(in domain.OrderInput, calculated, available decimal.Decimal) error {
	v, ok := in.ParsedValue()
	if !ok || !v.IsPositive() {
		return &Error{Reason: domain.ErrInvalidInput, Detail: fmt.Sprintf("%q is not a positive %s", in.RawValue, in.Mode)}
	}

	if in.Bank == nil {
		return &Error{Reason: domain.ErrNoBankSelected}
	}

	quantity, amount := in.Resolve(calculated)

	minimum := MinimumAmount(in.Operation)
	if amount.LessThan(minimum) {
		return &Error{
			Reason: domain.ErrBelowMinimum,
			Detail: fmt.Sprintf("minimum %s amount is %s, got %s", in.Operation, domain.FormatINR(minimum), domain.FormatINR(amount)),
		}
	}

	if in.Operation == domain.OperationSell && quantity.GreaterThan(available) {
		return &Error{
			Reason: domain.ErrInsufficientBalance,
			Detail: fmt.Sprintf("only %s available, trying to sell %s", domain.FormatGrams(available), domain.FormatGrams(quantity)),
		}
	}

	return nil
}
