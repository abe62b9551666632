package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

func (s *Server) handleRates(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	buy, sell := s.buyPrice, s.sellPrice
	s.mu.Unlock()

	ok(w, map[string]any{
		"current": map[string]any{
			"buy_price":  json.Number(buy.String()),
			"sell_price": json.Number(sell.String()),
			"source":     domain.RateSourceLive,
			"updated_at": s.now().UTC().Format(time.RFC3339),
			"block_id":   s.blockID(),
		},
	})
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := decode(r, &req); err != nil || len(req.Mobile) < 10 {
		fail(w, http.StatusBadRequest, "Valid mobile number is required")
		return
	}
	ok(w, map[string]any{"mobile": req.Mobile, "expires_in": 300})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mobile string `json:"mobile"`
		OTP    string `json:"otp"`
	}
	if err := decode(r, &req); err != nil || req.Mobile == "" {
		fail(w, http.StatusBadRequest, "Mobile and OTP are required")
		return
	}
	if req.OTP != DefaultOTP {
		fail(w, http.StatusUnauthorized, "Invalid OTP")
		return
	}

	token, err := s.IssueToken(req.Mobile)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	ok(w, map[string]any{
		"token":      token,
		"unique_id":  req.Mobile,
		"kyc_status": "approved",
		"name":       "Stub User",
	})
}

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("unique_id") == "" {
		fail(w, http.StatusBadRequest, "unique_id is required")
		return
	}

	s.mu.Lock()
	accounts := make([]map[string]any, 0, len(s.banks))
	for _, b := range s.banks {
		accounts = append(accounts, map[string]any{
			"id":             b.ID,
			"account_number": b.AccountNumber,
			"account_name":   b.AccountHolderName,
			"ifsc_code":      b.IFSCCode,
			"bank_name":      b.BankName,
			"status":         "active",
		})
	}
	s.mu.Unlock()

	ok(w, map[string]any{"bank_accounts": accounts})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	grams := s.holding
	value := grams.Mul(s.sellPrice).Round(2)
	buy, sell := s.buyPrice, s.sellPrice
	s.mu.Unlock()

	ok(w, map[string]any{
		"balance_grams": json.Number(grams.String()),
		"balance_inr":   json.Number(value.StringFixed(2)),
		"buy_price":     json.Number(buy.String()),
		"sell_price":    json.Number(sell.String()),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("type")
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	matched := make([]*transaction, 0, len(s.txOrder))
	for i := len(s.txOrder) - 1; i >= 0; i-- {
		tx := s.transactions[s.txOrder[i]]
		if kind != "" && tx.Operation.String() != kind {
			continue
		}
		matched = append(matched, tx)
	}
	s.mu.Unlock()

	end := min(offset+limit, len(matched))
	start := min(offset, end)

	rows := make([]map[string]any, 0, end-start)
	for i, tx := range matched[start:end] {
		rows = append(rows, map[string]any{
			"id":           start + i + 1,
			"type":         tx.Operation.String(),
			"amount":       json.Number(tx.Amount.StringFixed(2)),
			"grams":        json.Number(tx.Quantity.StringFixed(4)),
			"rate":         json.Number(tx.LockPrice.String()),
			"status":       string(tx.Status),
			"txn_id":       tx.MerchantTransactionID,
			"payment_mode": "razorpay",
			"reference_id": tx.PaymentReference,
			"date":         tx.CreatedAt.Format(time.DateTime),
		})
	}

	ok(w, map[string]any{
		"transactions": rows,
		"pagination":   map[string]any{"has_more": end < len(matched), "limit": limit, "offset": offset},
	})
}

type orderBody struct {
	LockPrice             json.Number  `json:"lockPrice"`
	MetalType             string       `json:"metalType"`
	MerchantTransactionID string       `json:"merchantTransactionId"`
	UniqueID              string       `json:"uniqueId"`
	BlockID               string       `json:"blockId"`
	Quantity              *json.Number `json:"quantity"`
	Amount                *json.Number `json:"amount"`
	UserBankID            string       `json:"userBankId"`
	AccountNumber         string       `json:"accountNumber"`
	IFSCCode              string       `json:"ifscCode"`
}

func (s *Server) handleOrder(op domain.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orderBody
		if err := decode(r, &body); err != nil {
			fail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if body.MerchantTransactionID == "" || body.UniqueID == "" {
			fail(w, http.StatusBadRequest, "merchantTransactionId and uniqueId are required")
			return
		}
		if (body.Quantity == nil) == (body.Amount == nil) {
			fail(w, http.StatusBadRequest, "Provide either quantity or amount")
			return
		}
		if op == domain.OperationSell && (body.UserBankID == "" || body.IFSCCode == "") {
			fail(w, http.StatusBadRequest, "Bank details are required for sell")
			return
		}

		price, err := decimal.NewFromString(body.LockPrice.String())
		if err != nil || !price.IsPositive() {
			fail(w, http.StatusBadRequest, "Invalid lockPrice")
			return
		}

		var quantity, amount decimal.Decimal
		if body.Quantity != nil {
			quantity, err = decimal.NewFromString(body.Quantity.String())
			amount = quantity.Mul(price)
		} else {
			amount, err = decimal.NewFromString(body.Amount.String())
			quantity = amount.DivRound(price, 4)
		}
		if err != nil || !amount.IsPositive() {
			fail(w, http.StatusBadRequest, "Invalid quantity or amount")
			return
		}

		minimum := minimumBuy
		if op == domain.OperationSell {
			minimum = minimumSell
		}
		if amount.LessThan(minimum) {
			fail(w, http.StatusBadRequest, fmt.Sprintf("Minimum %s amount is ₹%s", op, minimum))
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, dup := s.transactions[body.MerchantTransactionID]; dup {
			fail(w, http.StatusConflict, "Duplicate merchantTransactionId")
			return
		}
		if op == domain.OperationSell {
			if quantity.GreaterThan(s.holding) {
				fail(w, http.StatusBadRequest, "Insufficient gold balance")
				return
			}
			s.holding = s.holding.Sub(quantity)
		}

		tx := &transaction{
			Transaction: domain.Transaction{
				MerchantTransactionID: body.MerchantTransactionID,
				Operation:             op,
				Status:                domain.TransactionPending,
				PaymentStatus:         string(domain.TransactionPending),
				Quantity:              quantity,
				Amount:                amount,
				LockPrice:             price,
				BlockID:               body.BlockID,
				CreatedAt:             s.now(),
			},
			UniqueID: body.UniqueID,
		}
		s.transactions[tx.MerchantTransactionID] = tx
		s.txOrder = append(s.txOrder, tx.MerchantTransactionID)

		s.l.Info("stub order created",
			zap.String("merchant_transaction_id", tx.MerchantTransactionID),
			zap.String("operation", op.String()),
			zap.String("amount", amount.String()))

		key := "buy_transaction"
		if op == domain.OperationSell {
			key = "sell_transaction"
		}
		ok(w, map[string]any{key: wireTransaction(tx)})
	}
}

func wireTransaction(tx *transaction) map[string]any {
	return map[string]any{
		"merchant_transaction_id": tx.MerchantTransactionID,
		"unique_id":               tx.UniqueID,
		"metal_type":              domain.MetalGold,
		"quantity":                json.Number(tx.Quantity.String()),
		"amount":                  json.Number(tx.Amount.StringFixed(2)),
		"lock_price":              json.Number(tx.LockPrice.String()),
		"status":                  string(tx.Status),
		"payment_status":          tx.PaymentStatus,
		"block_id":                tx.BlockID,
		"created_at":              tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount                json.Number `json:"amount"`
		Currency              string      `json:"currency"`
		MerchantTransactionID string      `json:"merchant_transaction_id"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Currency != "INR" {
		fail(w, http.StatusBadRequest, "Only INR is supported")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, found := s.transactions[req.MerchantTransactionID]
	if !found {
		fail(w, http.StatusNotFound, "Transaction not found")
		return
	}

	orderID := "order_" + s.genID()
	tx.OrderID = orderID
	s.orders[orderID] = tx.MerchantTransactionID

	ok(w, map[string]any{"order_id": orderID, "amount": req.Amount, "currency": req.Currency})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID               string `json:"razorpay_order_id"`
		PaymentID             string `json:"razorpay_payment_id"`
		Signature             string `json:"razorpay_signature"`
		MerchantTransactionID string `json:"merchant_transaction_id"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	mtid, found := s.orders[req.OrderID]
	s.mu.Unlock()

	switch {
	case !found || mtid != req.MerchantTransactionID:
		fail(w, http.StatusBadRequest, "Order does not match transaction")
	case !strings.HasPrefix(req.PaymentID, "pay_") || !strings.HasPrefix(req.Signature, "mock_signature_"):
		fail(w, http.StatusBadRequest, "Invalid payment signature")
	default:
		ok(w, map[string]any{"verified": true})
	}
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MerchantTransactionID string `json:"merchant_transaction_id"`
		Status                string `json:"status"`
		PaymentStatus         string `json:"payment_status"`
		PaymentReference      string `json:"payment_reference"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, found := s.transactions[req.MerchantTransactionID]
	if !found {
		fail(w, http.StatusNotFound, "Transaction not found")
		return
	}

	status := domain.TransactionStatus(req.Status)
	if tx.Status != domain.TransactionCompleted && status == domain.TransactionCompleted && tx.Operation == domain.OperationBuy {
		s.holding = s.holding.Add(tx.Quantity)
	}
	tx.Status = status
	tx.PaymentStatus = req.PaymentStatus
	tx.PaymentReference = req.PaymentReference

	ok(w, map[string]any{"merchant_transaction_id": tx.MerchantTransactionID, "status": req.Status})
}
