package validator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/calculator"
)

var testBank = &domain.BankAccount{ID: "1", BankName: "State Bank of India", AccountNumber: "1234567890"}

func TestValidate(t *testing.T) {
	sellRate := decimal.NewFromInt(6000)
	buyRate := decimal.NewFromInt(6100)

	tests := []struct {
		name      string
		input     domain.OrderInput
		rate      decimal.Decimal
		available decimal.Decimal
		wantErr   error
	}{
		{
			name:    "buy below minimum",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeAmount, RawValue: "49.99", Bank: testBank},
			rate:    buyRate,
			wantErr: domain.ErrBelowMinimum,
		},
		{
			name:  "buy at minimum",
			input: domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeAmount, RawValue: "50.00", Bank: testBank},
			rate:  buyRate,
		},
		{
			name:      "sell below minimum",
			input:     domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeAmount, RawValue: "99.99", Bank: testBank},
			rate:      sellRate,
			available: decimal.NewFromInt(10),
			wantErr:   domain.ErrBelowMinimum,
		},
		{
			name:      "sell at minimum",
			input:     domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeAmount, RawValue: "100.00", Bank: testBank},
			rate:      sellRate,
			available: decimal.NewFromInt(10),
		},
		{
			name:      "sell more than held",
			input:     domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeQuantity, RawValue: "5", Bank: testBank},
			rate:      sellRate,
			available: decimal.NewFromInt(3),
			wantErr:   domain.ErrInsufficientBalance,
		},
		{
			name:      "sell within holding",
			input:     domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeQuantity, RawValue: "2", Bank: testBank},
			rate:      sellRate,
			available: decimal.NewFromInt(3),
		},
		{
			name:      "sell 0.05g with 0.016g held",
			input:     domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeQuantity, RawValue: "0.05", Bank: testBank},
			rate:      sellRate,
			available: decimal.RequireFromString("0.016"),
			wantErr:   domain.ErrInsufficientBalance,
		},
		{
			name:    "empty input",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeAmount, RawValue: "", Bank: testBank},
			rate:    buyRate,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "zero input",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeQuantity, RawValue: "0", Bank: testBank},
			rate:    buyRate,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative input",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeAmount, RawValue: "-100", Bank: testBank},
			rate:    buyRate,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "no bank",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeAmount, RawValue: "1000"},
			rate:    buyRate,
			wantErr: domain.ErrNoBankSelected,
		},
		{
			name:    "quantity mode resolves amount from calculation",
			input:   domain.OrderInput{Operation: domain.OperationBuy, Mode: domain.InputModeQuantity, RawValue: "0.001", Bank: testBank},
			rate:    buyRate,
			wantErr: domain.ErrBelowMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calculated := calculator.Calculate(tt.input.RawValue, tt.input.Mode, tt.rate)
			err := Validate(tt.input, calculated, tt.available)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantErr, verr.Reason)
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	// invalid input and no bank: input rule fires first
	err := Validate(domain.OrderInput{Operation: domain.OperationSell, RawValue: "x"}, decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// below minimum and insufficient balance: minimum fires first
	in := domain.OrderInput{Operation: domain.OperationSell, Mode: domain.InputModeAmount, RawValue: "10", Bank: testBank}
	err = Validate(in, calculator.Calculate("10", domain.InputModeAmount, decimal.NewFromInt(6000)), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)
}

func TestMinimumAmount(t *testing.T) {
	assert.True(t, MinimumAmount(domain.OperationBuy).Equal(decimal.NewFromInt(50)))
	assert.True(t, MinimumAmount(domain.OperationSell).Equal(decimal.NewFromInt(100)))
}
