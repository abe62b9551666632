package clients

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.openly.dev/pointy"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// envelope is the response shape shared by every backend endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// flexString decodes ids the backend sends either as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type rateQuote struct {
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Source    string          `json:"source"`
	UpdatedAt string          `json:"updated_at"`
	BlockID   string          `json:"block_id"`
}

type ratesData struct {
	Current rateQuote `json:"current"`
	Rates   struct {
		Gold struct {
			BlockID string `json:"block_id"`
		} `json:"gold"`
	} `json:"rates"`
}

func (d ratesData) toDomain(now time.Time) domain.Rate {
	blockID := d.Current.BlockID
	if blockID == "" {
		blockID = d.Rates.Gold.BlockID
	}
	capturedAt := now
	if t, err := time.Parse(time.RFC3339, d.Current.UpdatedAt); err == nil {
		capturedAt = t
	}
	source := d.Current.Source
	if source == "" {
		source = domain.RateSourceLive
	}
	return domain.Rate{
		BuyPrice:   d.Current.BuyPrice,
		SellPrice:  d.Current.SellPrice,
		CapturedAt: capturedAt,
		BlockID:    blockID,
		Source:     source,
	}
}

type bankAccount struct {
	ID            flexString `json:"id"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	IFSCCode      string     `json:"ifsc_code"`
	BankName      string     `json:"bank_name"`
	Status        string     `json:"status"`
}

type banksData struct {
	BankAccounts []bankAccount `json:"bank_accounts"`
}

func (d banksData) toDomain() []domain.BankAccount {
	banks := make([]domain.BankAccount, 0, len(d.BankAccounts))
	for _, b := range d.BankAccounts {
		if b.Status != "" && b.Status != "active" {
			continue
		}
		banks = append(banks, domain.BankAccount{
			ID:                string(b.ID),
			AccountHolderName: b.AccountName,
			AccountNumber:     b.AccountNumber,
			IFSCCode:          b.IFSCCode,
			BankName:          b.BankName,
		})
	}
	return banks
}

type holdingData struct {
	BalanceGrams decimal.Decimal `json:"balance_grams"`
	BalanceINR   decimal.Decimal `json:"balance_inr"`
}

// orderRequest is the body of buy.php and sell.php.
// Quantity and Amount are numbers on the wire and mutually exclusive.
type orderRequest struct {
	LockPrice             json.Number  `json:"lockPrice"`
	MetalType             string       `json:"metalType"`
	MerchantTransactionID string       `json:"merchantTransactionId"`
	UniqueID              string       `json:"uniqueId"`
	BlockID               string       `json:"blockId"`
	ModeOfPayment         string       `json:"modeOfPayment"`
	Quantity              *json.Number `json:"quantity,omitempty"`
	Amount                *json.Number `json:"amount,omitempty"`
	UserBankID            string       `json:"userBankId,omitempty"`
	AccountName           string       `json:"accountName,omitempty"`
	AccountNumber         string       `json:"accountNumber,omitempty"`
	IFSCCode              string       `json:"ifscCode,omitempty"`
}

func newOrderRequest(req domain.OrderRequest) orderRequest {
	out := orderRequest{
		LockPrice:             json.Number(req.LockPrice.String()),
		MetalType:             req.MetalType,
		MerchantTransactionID: req.MerchantTransactionID,
		UniqueID:              req.UniqueID,
		BlockID:               req.BlockID,
		ModeOfPayment:         req.ModeOfPayment,
	}
	if req.Quantity != nil {
		out.Quantity = pointy.Pointer(json.Number(req.Quantity.String()))
	}
	if req.Amount != nil {
		out.Amount = pointy.Pointer(json.Number(req.Amount.String()))
	}
	if req.Payout != nil {
		out.UserBankID = req.Payout.UserBankID
		out.AccountName = req.Payout.AccountName
		out.AccountNumber = req.Payout.AccountNumber
		out.IFSCCode = req.Payout.IFSCCode
	}
	return out
}

type transaction struct {
	MerchantTransactionID string          `json:"merchant_transaction_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	Amount                decimal.Decimal `json:"amount"`
	LockPrice             decimal.Decimal `json:"lock_price"`
	Status                string          `json:"status"`
	PaymentStatus         string          `json:"payment_status"`
	BlockID               string          `json:"block_id"`
	CreatedAt             string          `json:"created_at"`
}

type buyData struct {
	BuyTransaction *transaction `json:"buy_transaction"`
}

type sellData struct {
	SellTransaction *transaction `json:"sell_transaction"`
}

// toDomain fills gaps in the backend's echo from the request that produced it.
func (t transaction) toDomain(req domain.OrderRequest, now time.Time) domain.Transaction {
	tx := domain.Transaction{
		MerchantTransactionID: t.MerchantTransactionID,
		Operation:             req.Operation,
		Status:                domain.TransactionStatus(t.Status),
		PaymentStatus:         t.PaymentStatus,
		Quantity:              t.Quantity,
		Amount:                t.Amount,
		LockPrice:             t.LockPrice,
		BlockID:               t.BlockID,
		CreatedAt:             now,
	}
	if tx.MerchantTransactionID == "" {
		tx.MerchantTransactionID = req.MerchantTransactionID
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionPending
	}
	if tx.Quantity.IsZero() && req.Quantity != nil {
		tx.Quantity = *req.Quantity
	}
	if tx.Amount.IsZero() && req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if tx.LockPrice.IsZero() {
		tx.LockPrice = req.LockPrice
	}
	if tx.BlockID == "" {
		tx.BlockID = req.BlockID
	}
	if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		tx.CreatedAt = ts
	}
	return tx
}

type createOrderRequest struct {
	Amount                json.Number `json:"amount"`
	Currency              string      `json:"currency"`
	MerchantTransactionID string      `json:"merchant_transaction_id"`
}

type createOrderData struct {
	OrderID string `json:"order_id"`
}

type verifyPaymentRequest struct {
	OrderID               string `json:"razorpay_order_id"`
	PaymentID             string `json:"razorpay_payment_id"`
	Signature             string `json:"razorpay_signature"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
}

type updateStatusRequest struct {
	MerchantTransactionID string `json:"merchant_transaction_id"`
	Status                string `json:"status"`
	PaymentStatus         string `json:"payment_status"`
	PaymentMethod         string `json:"payment_method"`
	PaymentReference      string `json:"payment_reference"`
}

type historyRow struct {
	ID          flexString      `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Grams       decimal.Decimal `json:"grams"`
	Rate        decimal.Decimal `json:"rate"`
	Status      string          `json:"status"`
	TxnID       string          `json:"txn_id"`
	PaymentMode string          `json:"payment_mode"`
	ReferenceID string          `json:"reference_id"`
	Date        string          `json:"date"`
}

type historyData struct {
	Transactions []historyRow `json:"transactions"`
	Pagination   struct {
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

func (d historyData) toDomain() domain.HistoryPage {
	page := domain.HistoryPage{
		Entries: make([]domain.HistoryEntry, 0, len(d.Transactions)),
		HasMore: d.Pagination.HasMore,
	}
	for _, r := range d.Transactions {
		page.Entries = append(page.Entries, domain.HistoryEntry{
			ID:          string(r.ID),
			Type:        r.Type,
			Amount:      r.Amount,
			Grams:       r.Grams,
			Rate:        r.Rate,
			Status:      domain.TransactionStatus(r.Status),
			TxnID:       r.TxnID,
			PaymentMode: r.PaymentMode,
			ReferenceID: r.ReferenceID,
			Date:        r.Date,
		})
	}
	return page
}

type sendOTPRequest struct {
	Mobile string `json:"mobile"`
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

type verifyOTPData struct {
	Token     string     `json:"token"`
	KYCStatus string     `json:"kyc_status"`
	UniqueID  flexString `json:"unique_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
}
