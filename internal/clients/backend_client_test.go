package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/pkg/retrier"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithRateLimit(1000, 100),
		WithRetrier(retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(time.Millisecond),
			retrier.WithRetryIf(IsNetworkError),
		)),
	}, opts...)

	c, err := NewBackendClient(srv.URL, staticToken("tok-123"), zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBackendClient_GetRates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gold/rates.php", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"current": map[string]any{"buy_price": 6100, "sell_price": "6000.50"},
				"rates":   map[string]any{"gold": map[string]any{"block_id": "BLK_1"}},
			},
		})
	})

	r, err := c.GetRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "6100", r.BuyPrice.String())
	assert.Equal(t, "6000.5", r.SellPrice.String())
	assert.Equal(t, "BLK_1", r.BlockID)
	assert.Equal(t, domain.RateSourceLive, r.Source)
}

func TestBackendClient_MalformedResponse(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.GetRates(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, int32(3), calls.Load(), "reads are retried on network errors")
}

func TestBackendClient_RetryRecovers(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, "not json")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"balance_grams": "0.5", "balance_inr": 3050},
		})
	})

	h, err := c.GetHolding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5", h.Grams.String())
	assert.Equal(t, int32(2), calls.Load())
}

func TestBackendClient_BusinessError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"success": false,
			"message": "Rate limit exceeded, try later",
		})
	})

	_, err := c.ListBanks(context.Background(), "8374670704")
	require.Error(t, err)
	assert.False(t, IsNetworkError(err))
	assert.True(t, IsRateLimited(err))
	assert.False(t, IsAuthFailure(err))
	assert.Equal(t, int32(1), calls.Load(), "business rejections are not retried")

	msg, ok := BusinessMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Rate limit exceeded, try later", msg)
}

func TestBackendClient_NonOKWithEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"data": map[string]any{"bank_accounts": []map[string]any{
				{"id": 7, "account_number": "1234567890", "account_name": "A", "ifsc_code": "SBIN0001234", "bank_name": "SBI", "status": "active"},
				{"id": "8", "account_number": "555", "status": "inactive"},
			}},
		})
	})

	banks, err := c.ListBanks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "7", banks[0].ID)
	assert.Equal(t, "XXXX7890", banks[0].MaskedNumber())
}

func TestBackendClient_BuyGold_QuantityOnly(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gold/buy.php", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{"buy_transaction": map[string]any{
				"merchant_transaction_id": body["merchantTransactionId"],
				"status":                  "pending",
			}},
		})
	})

	req := domain.OrderRequest{
		Operation:             domain.OperationBuy,
		MerchantTransactionID: "TXN_1",
		UniqueID:              "u1",
		LockPrice:             decimal.NewFromInt(6100),
		MetalType:             domain.MetalGold,
		BlockID:               "BLK_1",
		ModeOfPayment:         "razorpay",
	}
	req.WithSize(domain.InputModeQuantity, decimal.NewFromInt(2), decimal.NewFromInt(12200))

	tx, err := c.BuyGold(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, body, "quantity")
	assert.NotContains(t, body, "amount")
	assert.NotContains(t, body, "userBankId")
	assert.Equal(t, float64(2), body["quantity"], "sizes are sent as JSON numbers")
	assert.Equal(t, float64(6100), body["lockPrice"])

	assert.Equal(t, "TXN_1", tx.MerchantTransactionID)
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.Equal(t, "2", tx.Quantity.String(), "missing echo fields are taken from the request")
	assert.False(t, tx.Simulated)
}

func TestBackendClient_SellGold_Payout(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"sell_transaction": map[string]any{"quantity": "0.0167", "amount": 100}},
		})
	})

	req := domain.OrderRequest{
		Operation:             domain.OperationSell,
		MerchantTransactionID: "SELL_1",
		LockPrice:             decimal.NewFromInt(6000),
		Payout:                &domain.Payout{UserBankID: "mock_1", AccountName: "Test User", AccountNumber: "1234567890", IFSCCode: "SBIN0001234"},
	}
	req.WithSize(domain.InputModeAmount, decimal.Zero, decimal.NewFromInt(100))

	tx, err := c.SellGold(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "mock_1", body["userBankId"])
	assert.Equal(t, "SBIN0001234", body["ifscCode"])
	assert.NotContains(t, body, "quantity")
	assert.Equal(t, "SELL_1", tx.MerchantTransactionID)
	assert.Equal(t, "0.0167", tx.Quantity.String())
}

func TestBackendClient_PaymentCalls(t *testing.T) {
	bodies := map[string]map[string]any{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies[r.URL.Path] = body

		data := map[string]any{}
		if r.URL.Path == "/payments/razorpay/create-order.php" {
			data["order_id"] = "order_42"
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	})
	ctx := context.Background()

	orderID, err := c.CreatePaymentOrder(ctx, "TXN_1", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "order_42", orderID)

	result := domain.MockPaymentResult{PaymentID: "pay_1", OrderID: orderID, Signature: "sig"}
	require.NoError(t, c.VerifyPayment(ctx, "TXN_1", result))
	require.NoError(t, c.UpdateTransactionStatus(ctx, StatusUpdate{
		MerchantTransactionID: "TXN_1",
		Status:                domain.TransactionCompleted,
		PaymentMethod:         "razorpay",
		PaymentReference:      "pay_1",
	}))

	assert.Equal(t, "INR", bodies["/payments/razorpay/create-order.php"]["currency"])
	assert.Equal(t, "order_42", bodies["/payments/razorpay/verify-payment.php"]["razorpay_order_id"])
	assert.Equal(t, "sig", bodies["/payments/razorpay/verify-payment.php"]["razorpay_signature"])
	update := bodies["/gold/update-transaction-status.php"]
	assert.Equal(t, "completed", update["status"])
	assert.Equal(t, "completed", update["payment_status"])
	assert.Equal(t, "pay_1", update["payment_reference"])
}

func TestBackendClient_VerifyOTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"token": "jwt", "kyc_status": "approved"},
		})
	})

	user, token, err := c.VerifyOTP(context.Background(), "8374670704", "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	assert.Equal(t, "8374670704", user.UniqueID)
	assert.Equal(t, "approved", user.KYCStatus)
}

func TestBackendClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(30*time.Millisecond))

	err := c.SendOTP(context.Background(), "8374670704")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestBackendClient_History(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "buy", r.URL.Query().Get("type"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"transactions": []map[string]any{{"id": 1, "type": "buy", "amount": "1000", "grams": "0.1639", "status": "completed", "txn_id": "TXN_1"}},
				"pagination":   map[string]any{"has_more": true},
			},
		})
	})

	page, err := c.ListHistory(context.Background(), HistoryQuery{Type: "buy", Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.HasMore)
	assert.Equal(t, "1", page.Entries[0].ID)
	assert.Equal(t, domain.TransactionCompleted, page.Entries[0].Status)
}

func TestNewBackendClient_InvalidURL(t *testing.T) {
	_, err := NewBackendClient("::not a url", nil, nil)
	assert.Error(t, err)
}
