package clients

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetRates(ctx context.Context) (domain.Rate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Rate), args.Error(1)
}

func (m *mockBackend) ListBanks(ctx context.Context, uniqueID string) ([]domain.BankAccount, error) {
	args := m.Called(ctx, uniqueID)
	banks, _ := args.Get(0).([]domain.BankAccount)
	return banks, args.Error(1)
}

func (m *mockBackend) GetHolding(ctx context.Context) (domain.Holding, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Holding), args.Error(1)
}

func (m *mockBackend) ListHistory(ctx context.Context, q HistoryQuery) (domain.HistoryPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.HistoryPage), args.Error(1)
}

func (m *mockBackend) BuyGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Transaction), args.Error(1)
}

func (m *mockBackend) SellGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Transaction), args.Error(1)
}

func (m *mockBackend) CreatePaymentOrder(ctx context.Context, merchantTransactionID string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, merchantTransactionID, amount)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) VerifyPayment(ctx context.Context, merchantTransactionID string, result domain.MockPaymentResult) error {
	args := m.Called(ctx, merchantTransactionID, result)
	return args.Error(0)
}

func (m *mockBackend) UpdateTransactionStatus(ctx context.Context, update StatusUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *mockBackend) SendOTP(ctx context.Context, mobile string) error {
	args := m.Called(ctx, mobile)
	return args.Error(0)
}

func (m *mockBackend) VerifyOTP(ctx context.Context, mobile, otp string) (domain.User, string, error) {
	args := m.Called(ctx, mobile, otp)
	return args.Get(0).(domain.User), args.String(1), args.Error(2)
}

var errUnreachable = &NetworkError{Op: "test", Err: errors.New("connection refused")}

func TestDegradedBackend_Rates(t *testing.T) {
	ctx := context.Background()
	live := domain.Rate{BuyPrice: decimal.NewFromInt(6200), SellPrice: decimal.NewFromInt(6050), Source: domain.RateSourceLive}

	t.Run("fallback without cache", func(t *testing.T) {
		m := &mockBackend{}
		m.On("GetRates", mock.Anything).Return(domain.Rate{}, errUnreachable)

		d := NewDegradedBackend(m, time.Minute, zap.NewNop())
		r, err := d.GetRates(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RateSourceFallback, r.Source)
		assert.Equal(t, "6100", r.BuyPrice.String())
		assert.Equal(t, "6000", r.SellPrice.String())
		assert.Contains(t, r.BlockID, "MOCK_BLOCK_")
	})

	t.Run("cached after a good read", func(t *testing.T) {
		m := &mockBackend{}
		m.On("GetRates", mock.Anything).Return(live, nil).Once()
		m.On("GetRates", mock.Anything).Return(domain.Rate{}, errUnreachable)

		d := NewDegradedBackend(m, time.Minute, zap.NewNop())
		_, err := d.GetRates(ctx)
		require.NoError(t, err)

		r, err := d.GetRates(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.RateSourceCached, r.Source)
		assert.Equal(t, "6200", r.BuyPrice.String())
	})

	t.Run("cancellation is not masked", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		m := &mockBackend{}
		m.On("GetRates", mock.Anything).Return(domain.Rate{}, &NetworkError{Op: "test", Err: context.Canceled})

		d := NewDegradedBackend(m, time.Minute, zap.NewNop())
		_, err := d.GetRates(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDegradedBackend_BanksAndHolding(t *testing.T) {
	ctx := context.Background()
	m := &mockBackend{}
	m.On("ListBanks", mock.Anything, "u1").Return(nil, errUnreachable)
	m.On("GetHolding", mock.Anything).Return(domain.Holding{}, &BusinessError{Op: "dashboard", Message: "Internal error"})

	d := NewDegradedBackend(m, time.Minute, zap.NewNop())

	banks, err := d.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "mock_1", banks[0].ID)
	assert.Equal(t, "HDFC Bank", banks[1].BankName)

	h, err := d.GetHolding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.016", h.Grams.String())
	assert.Equal(t, domain.RateSourceFallback, h.Source)
}

func TestDegradedBackend_History(t *testing.T) {
	m := &mockBackend{}
	q := HistoryQuery{Type: domain.OperationSell.String(), Limit: 10}
	m.On("ListHistory", mock.Anything, q).Return(domain.HistoryPage{}, errUnreachable)

	d := NewDegradedBackend(m, time.Minute, zap.NewNop())
	page, err := d.ListHistory(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, page.Demo)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "sell", page.Entries[0].Type)
}

func TestDegradedBackend_OrderSimulation(t *testing.T) {
	req := domain.OrderRequest{
		Operation:             domain.OperationBuy,
		MerchantTransactionID: "TXN_1",
		LockPrice:             decimal.NewFromInt(6100),
		BlockID:               "BLK",
	}
	req.WithSize(domain.InputModeAmount, decimal.Zero, decimal.NewFromInt(1000))

	tests := []struct {
		name      string
		err       error
		simulated bool
	}{
		{"rate limited", &BusinessError{Op: "buy gold", Message: "Rate limit exceeded"}, true},
		{"auth failed", &BusinessError{Op: "buy gold", Message: "Authentication failed"}, true},
		{"plain rejection", &BusinessError{Op: "buy gold", Message: "KYC pending"}, false},
		{"network", errUnreachable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockBackend{}
			m.On("BuyGold", mock.Anything, req).Return(domain.Transaction{}, tt.err)

			d := NewDegradedBackend(m, time.Minute, zap.NewNop())
			tx, err := d.BuyGold(context.Background(), req)
			if !tt.simulated {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.True(t, tx.Simulated)
			assert.Equal(t, "TXN_1", tx.MerchantTransactionID)
			assert.Equal(t, domain.TransactionPending, tx.Status)
			assert.Equal(t, "1000", tx.Amount.String())
			assert.Equal(t, "0.1639", tx.Quantity.StringFixed(4))
		})
	}
}

func TestDegradedBackend_VerifyPassesThrough(t *testing.T) {
	rejected := &BusinessError{Op: "verify payment", Message: "Authentication failed"}
	m := &mockBackend{}
	m.On("VerifyPayment", mock.Anything, "TXN_1", mock.Anything).Return(rejected)

	d := NewDegradedBackend(m, time.Minute, zap.NewNop())
	err := d.VerifyPayment(context.Background(), "TXN_1", domain.MockPaymentResult{})
	assert.ErrorIs(t, err, rejected)
	m.AssertExpectations(t)
}
