package clients

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// FallbackRate is the placeholder quote shown when no live or cached rate exists.
func FallbackRate(now time.Time) domain.Rate {
	return domain.Rate{
		BuyPrice:   decimal.NewFromInt(6100),
		SellPrice:  decimal.NewFromInt(6000),
		CapturedAt: now,
		BlockID:    fmt.Sprintf("MOCK_BLOCK_%d", now.UnixMilli()),
		Source:     domain.RateSourceFallback,
	}
}

// FallbackBanks are test accounts offered when the bank list cannot be fetched.
func FallbackBanks() []domain.BankAccount {
	return []domain.BankAccount{
		{
			ID:                "mock_1",
			AccountHolderName: "Test User",
			AccountNumber:     "1234567890",
			IFSCCode:          "SBIN0001234",
			BankName:          "State Bank of India",
		},
		{
			ID:                "mock_2",
			AccountHolderName: "Test User 2",
			AccountNumber:     "9876543210",
			IFSCCode:          "HDFC0001234",
			BankName:          "HDFC Bank",
		},
	}
}

// FallbackHolding is the test balance used when the dashboard is unreachable.
func FallbackHolding() domain.Holding {
	return domain.Holding{
		Grams:    decimal.RequireFromString("0.016"),
		ValueINR: decimal.RequireFromString("98.36"),
		Source:   domain.RateSourceFallback,
	}
}

func demoHistory(now time.Time) domain.HistoryPage {
	day := 24 * time.Hour
	return domain.HistoryPage{
		Demo: true,
		Entries: []domain.HistoryEntry{
			{
				ID:          "demo_1",
				Type:        domain.OperationBuy.String(),
				Amount:      decimal.NewFromInt(1000),
				Grams:       decimal.RequireFromString("0.1639"),
				Rate:        decimal.NewFromInt(6100),
				Status:      domain.TransactionCompleted,
				TxnID:       fmt.Sprintf("TXN_%d", now.Add(-2*day).UnixMilli()),
				PaymentMode: "upi",
				Date:        now.Add(-2 * day).Format(time.DateOnly),
			},
			{
				ID:          "demo_2",
				Type:        domain.OperationSell.String(),
				Amount:      decimal.NewFromInt(600),
				Grams:       decimal.RequireFromString("0.1"),
				Rate:        decimal.NewFromInt(6000),
				Status:      domain.TransactionPending,
				TxnID:       fmt.Sprintf("SELL_%d", now.Add(-day).UnixMilli()),
				PaymentMode: "bank_transfer",
				Date:        now.Add(-day).Format(time.DateOnly),
			},
		},
	}
}
