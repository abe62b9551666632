package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

const (
	ratesKey   = "rates"
	holdingKey = "holding"
)

// DegradedBackend keeps the workflow usable while the backend misbehaves.
//
// Reads (rates, banks, holding, history) fall back to the last good value and
// then to built-in placeholder data, labelled via Source or Demo. Order
// submissions rejected for rate limiting or authentication become a locally
// simulated pending transaction. Payment calls are passed through untouched.
type DegradedBackend struct {
	Backend
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewDegradedBackend wraps next. ttl bounds how long a last good value is reused.
func NewDegradedBackend(next Backend, ttl time.Duration, logger *zap.Logger) *DegradedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DegradedBackend{
		Backend: next,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
		now:     time.Now,
	}
}

func (d *DegradedBackend) GetRates(ctx context.Context) (domain.Rate, error) {
	r, err := d.Backend.GetRates(ctx)
	if err == nil {
		d.cache.Set(ratesKey, r, cache.DefaultExpiration)
		return r, nil
	}
	if isCanceled(ctx, err) {
		return domain.Rate{}, err
	}

	if cached, ok := d.cache.Get(ratesKey); ok {
		r := cached.(domain.Rate)
		r.Source = domain.RateSourceCached
		d.logger.Warn("using cached gold rate", zap.Error(err), zap.Time("captured_at", r.CapturedAt))
		return r, nil
	}

	d.logger.Warn("using fallback gold rate", zap.Error(err))
	return FallbackRate(d.now()), nil
}

func (d *DegradedBackend) ListBanks(ctx context.Context, uniqueID string) ([]domain.BankAccount, error) {
	key := "banks:" + uniqueID

	banks, err := d.Backend.ListBanks(ctx, uniqueID)
	if err == nil {
		d.cache.Set(key, banks, cache.DefaultExpiration)
		return banks, nil
	}
	if isCanceled(ctx, err) {
		return nil, err
	}

	if cached, ok := d.cache.Get(key); ok {
		d.logger.Warn("using cached bank list", zap.Error(err))
		return cached.([]domain.BankAccount), nil
	}

	d.logger.Warn("using test bank accounts", zap.Error(err))
	return FallbackBanks(), nil
}

func (d *DegradedBackend) GetHolding(ctx context.Context) (domain.Holding, error) {
	h, err := d.Backend.GetHolding(ctx)
	if err == nil {
		d.cache.Set(holdingKey, h, cache.DefaultExpiration)
		return h, nil
	}
	if isCanceled(ctx, err) {
		return domain.Holding{}, err
	}

	if cached, ok := d.cache.Get(holdingKey); ok {
		h := cached.(domain.Holding)
		h.Source = domain.RateSourceCached
		d.logger.Warn("using cached holding", zap.Error(err))
		return h, nil
	}

	d.logger.Warn("using fallback holding", zap.Error(err))
	return FallbackHolding(), nil
}

func (d *DegradedBackend) ListHistory(ctx context.Context, q HistoryQuery) (domain.HistoryPage, error) {
	key := fmt.Sprintf("history:%s:%d:%d", q.Type, q.Limit, q.Offset)

	page, err := d.Backend.ListHistory(ctx, q)
	if err == nil {
		d.cache.Set(key, page, cache.DefaultExpiration)
		return page, nil
	}
	if isCanceled(ctx, err) {
		return domain.HistoryPage{}, err
	}

	if cached, ok := d.cache.Get(key); ok {
		d.logger.Warn("using cached history", zap.Error(err))
		return cached.(domain.HistoryPage), nil
	}

	d.logger.Warn("showing demo history", zap.Error(err))
	demo := demoHistory(d.now())
	if q.Type != "" {
		filtered := demo.Entries[:0]
		for _, e := range demo.Entries {
			if e.Type == q.Type {
				filtered = append(filtered, e)
			}
		}
		demo.Entries = filtered
	}
	return demo, nil
}

func (d *DegradedBackend) BuyGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	tx, err := d.Backend.BuyGold(ctx, req)
	return d.orDemo(req, tx, err)
}

func (d *DegradedBackend) SellGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	tx, err := d.Backend.SellGold(ctx, req)
	return d.orDemo(req, tx, err)
}

func (d *DegradedBackend) orDemo(req domain.OrderRequest, tx domain.Transaction, err error) (domain.Transaction, error) {
	if err == nil {
		return tx, nil
	}
	if !IsRateLimited(err) && !IsAuthFailure(err) {
		return domain.Transaction{}, err
	}

	d.logger.Warn("backend rejected order, simulating pending transaction",
		zap.String("merchant_transaction_id", req.MerchantTransactionID),
		zap.String("operation", req.Operation.String()),
		zap.Error(err))

	return simulate(req, d.now()), nil
}

// simulate builds a pending transaction that never reached the backend ledger.
func simulate(req domain.OrderRequest, now time.Time) domain.Transaction {
	var quantity, amount decimal.Decimal
	switch {
	case req.Quantity != nil:
		quantity = *req.Quantity
		amount = quantity.Mul(req.LockPrice)
	case req.Amount != nil:
		amount = *req.Amount
		if req.LockPrice.IsPositive() {
			quantity = amount.Div(req.LockPrice)
		}
	}

	return domain.Transaction{
		MerchantTransactionID: req.MerchantTransactionID,
		Operation:             req.Operation,
		Status:                domain.TransactionPending,
		PaymentStatus:         string(domain.TransactionPending),
		Quantity:              quantity,
		Amount:                amount,
		LockPrice:             req.LockPrice,
		BlockID:               req.BlockID,
		CreatedAt:             now,
		Simulated:             true,
	}
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
