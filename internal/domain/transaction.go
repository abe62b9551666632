package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a backend transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is a gold order as known to the backend.
type Transaction struct {
	MerchantTransactionID string
	Operation             Operation
	Status                TransactionStatus
	PaymentStatus         string
	Quantity              decimal.Decimal
	Amount                decimal.Decimal
	LockPrice             decimal.Decimal
	BlockID               string
	CreatedAt             time.Time
	PaymentReference      string
	// Simulated marks a transaction created locally because the backend
	// rejected the order with a rate-limit or auth failure. It never reached the ledger.
	Simulated bool
}

// IsFinal reports whether the transaction left the pending state.
func (t Transaction) IsFinal() bool {
	return t.Status != TransactionPending && t.Status != ""
}

// MockPaymentResult holds synthetic checkout credentials with no cryptographic meaning.
type MockPaymentResult struct {
	PaymentID string
	OrderID   string
	Signature string
}

// Holding is the user's current gold balance.
type Holding struct {
	Grams    decimal.Decimal
	ValueINR decimal.Decimal
	Source   string
}

// HistoryEntry is a row of the transaction history.
type HistoryEntry struct {
	ID          string
	Type        string
	Amount      decimal.Decimal
	Grams       decimal.Decimal
	Rate        decimal.Decimal
	Status      TransactionStatus
	TxnID       string
	PaymentMode string
	ReferenceID string
	Date        string
}

// HistoryPage is one page of transaction history.
type HistoryPage struct {
	Entries []HistoryEntry
	HasMore bool
	// Demo is set when the rows are placeholders shown while the backend is unreachable.
	Demo bool
}

// User is the authenticated identity of the session.
type User struct {
	UniqueID  string
	Mobile    string
	Name      string
	Email     string
	KYCStatus string
}
