package setup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/gateway"
	"github.com/vadiminshakov/aurum/internal/services/workflow"
	"github.com/vadiminshakov/aurum/internal/storage/orderjournal"
)

func TestRenderRate(t *testing.T) {
	live := domain.Rate{BuyPrice: decimal.NewFromInt(6100), SellPrice: decimal.NewFromInt(6000), Source: domain.RateSourceLive}
	out := RenderRate(live)
	assert.Contains(t, out, "₹6100.00/g")
	assert.Contains(t, out, "₹6000.00/g")
	assert.NotContains(t, out, "fallback")

	live.Source = domain.RateSourceFallback
	assert.Contains(t, RenderRate(live), "fallback rates")
}

func TestRenderQuote(t *testing.T) {
	q := workflow.Quote{
		Operation: domain.OperationBuy,
		Price:     decimal.NewFromInt(6100),
		Quantity:  decimal.RequireFromString("0.1639"),
		Amount:    decimal.NewFromInt(1000),
	}
	bank := &domain.BankAccount{BankName: "HDFC Bank", AccountNumber: "50100012345678", AccountHolderName: "Stub User"}

	out := RenderQuote(q, bank)
	assert.Contains(t, out, "0.1639g")
	assert.Contains(t, out, "₹1000.00")
	assert.Contains(t, out, "XXXX5678")
}

func TestRenderAlert(t *testing.T) {
	out := RenderAlert(workflow.Alert{Title: "Payment Cancelled", Message: "You cancelled the payment.", NextStep: "Try again."})
	assert.Contains(t, out, "Payment Cancelled")
	assert.Contains(t, out, "Try again.")
}

func TestRenderStage(t *testing.T) {
	assert.Contains(t, RenderStage(gateway.StageConnect), "Connecting to payment gateway...")
}

func TestRenderTransaction(t *testing.T) {
	tx := domain.Transaction{
		MerchantTransactionID: "TXN_1_abc",
		Status:                domain.TransactionCompleted,
		Quantity:              decimal.RequireFromString("0.1639"),
		Amount:                decimal.NewFromInt(1000),
		PaymentReference:      "pay_1_x",
	}
	out := RenderTransaction(tx)
	assert.Contains(t, out, "Order completed")
	assert.Contains(t, out, "pay_1_x")

	tx.Simulated = true
	tx.Status = domain.TransactionPending
	assert.Contains(t, RenderTransaction(tx), "simulated")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(domain.HistoryPage{}), "No transactions")

	page := domain.HistoryPage{
		Entries: []domain.HistoryEntry{{
			Type: "buy", Grams: decimal.RequireFromString("0.5"), Amount: decimal.NewFromInt(3050),
			Status: domain.TransactionCompleted, TxnID: "TXN_42", Date: "2026-01-02",
		}},
		Demo: true,
	}
	out := RenderHistory(page)
	assert.Contains(t, out, "TXN_42")
	assert.Contains(t, out, "0.5000g")
	assert.Contains(t, out, "Sample data")
}

func TestRenderPending(t *testing.T) {
	assert.Contains(t, RenderPending(nil), "No unreconciled")

	out := RenderPending([]orderjournal.Record{{
		MerchantTransactionID: "TXN_7",
		Operation:             domain.OperationBuy,
		Amount:                decimal.NewFromInt(61),
		Status:                orderjournal.StatusCancelled,
		CreatedAt:             time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "TXN_7")
	assert.Contains(t, out, "cancelled")
	assert.Contains(t, out, "2026-01-02 03:04")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateMobile("8374670704"))
	assert.Error(t, validateMobile("83746"))
	assert.Error(t, validateMobile("83746707ab"))

	assert.NoError(t, validateURL("https://gold.example.com/api"))
	assert.Error(t, validateURL("gold.example.com"))

	assert.NoError(t, validatePositiveDuration("30s"))
	assert.Error(t, validatePositiveDuration("0s"))
	assert.Error(t, validatePositiveDuration("soon"))
}
