package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   decimal.Decimal
		wantOK bool
	}{
		{raw: "1000", want: decimal.NewFromInt(1000), wantOK: true},
		{raw: " 0.05 ", want: decimal.RequireFromString("0.05"), wantOK: true},
		{raw: "", want: decimal.Zero, wantOK: false},
		{raw: "abc", want: decimal.Zero, wantOK: false},
		{raw: "12abc", want: decimal.Zero, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseValue(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestOrderInput_Resolve(t *testing.T) {
	calculated := decimal.RequireFromString("0.1639")

	in := OrderInput{Mode: InputModeAmount, RawValue: "1000"}
	q, a := in.Resolve(calculated)
	assert.True(t, q.Equal(calculated))
	assert.True(t, a.Equal(decimal.NewFromInt(1000)))

	in = OrderInput{Mode: InputModeQuantity, RawValue: "2"}
	q, a = in.Resolve(decimal.NewFromInt(12200))
	assert.True(t, q.Equal(decimal.NewFromInt(2)))
	assert.True(t, a.Equal(decimal.NewFromInt(12200)))
}

func TestOrderRequest_WithSize(t *testing.T) {
	var r OrderRequest

	r.WithSize(InputModeQuantity, decimal.NewFromInt(2), decimal.NewFromInt(12200))
	require.NotNil(t, r.Quantity)
	assert.Nil(t, r.Amount)
	assert.True(t, r.Quantity.Equal(decimal.NewFromInt(2)))

	r.WithSize(InputModeAmount, decimal.NewFromInt(2), decimal.NewFromInt(12200))
	require.NotNil(t, r.Amount)
	assert.Nil(t, r.Quantity)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(12200)))
}

func TestRate_PriceFor(t *testing.T) {
	r := Rate{BuyPrice: decimal.NewFromInt(6100), SellPrice: decimal.NewFromInt(6000)}
	assert.True(t, r.PriceFor(OperationBuy).Equal(decimal.NewFromInt(6100)))
	assert.True(t, r.PriceFor(OperationSell).Equal(decimal.NewFromInt(6000)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.1639g", FormatGrams(decimal.RequireFromString("0.16393442")))
	assert.Equal(t, "₹1000.00", FormatINR(decimal.NewFromInt(1000)))
}

func TestBankAccount_MaskedNumber(t *testing.T) {
	b := BankAccount{AccountNumber: "1234567890"}
	assert.Equal(t, "XXXX7890", b.MaskedNumber())
	assert.Equal(t, "123", BankAccount{AccountNumber: "123"}.MaskedNumber())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsInputError(ErrBelowMinimum))
	assert.False(t, IsInputError(ErrPaymentCancelled))
	assert.True(t, IsPaymentError(ErrVerificationFailed))
	assert.False(t, IsPaymentError(ErrNoBankSelected))
}
