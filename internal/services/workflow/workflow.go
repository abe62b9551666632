// Package workflow runs the order session end to end: quote, validate,
// submit, pay through the mock gateway and reconcile.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/banks"
	"github.com/vadiminshakov/aurum/internal/services/calculator"
	"github.com/vadiminshakov/aurum/internal/services/gateway"
	"github.com/vadiminshakov/aurum/internal/services/navigation"
	"github.com/vadiminshakov/aurum/internal/services/order"
	"github.com/vadiminshakov/aurum/internal/services/reconciler"
	"github.com/vadiminshakov/aurum/internal/services/validator"
)

// ErrNoRate is returned when a quote is requested before the first refresh.
var ErrNoRate = errors.New("gold rate not loaded")

type marketData interface {
	GetRates(ctx context.Context) (domain.Rate, error)
	GetHolding(ctx context.Context) (domain.Holding, error)
}

type paymentOrders interface {
	CreatePaymentOrder(ctx context.Context, merchantTransactionID string, amount decimal.Decimal) (string, error)
}

type orderTracker interface {
	AttachOrder(merchantTransactionID, orderID string) error
}

// Deps wires the workflow. Journal and Logger are optional.
type Deps struct {
	Market        marketData
	Payments      paymentOrders
	Banks         *banks.Selector
	Submitter     *order.Submitter
	Gateway       *gateway.MockGateway
	Reconciler    *reconciler.Reconciler
	Journal       orderTracker
	RedirectDelay time.Duration
	Logger        *zap.Logger
}

// Snapshot is what the order screen shows after a refresh.
type Snapshot struct {
	Rate     domain.Rate
	Banks    []domain.BankAccount
	Selected *domain.BankAccount
	Holding  domain.Holding
}

// Quote is the live preview of an order input.
type Quote struct {
	Operation  domain.Operation
	Mode       domain.InputMode
	Price      decimal.Decimal
	Calculated decimal.Decimal
	Quantity   decimal.Decimal
	Amount     decimal.Decimal
	RateSource string
}

// Summary renders the quote for the confirmation prompt.
func (q Quote) Summary() string {
	return domain.FormatGrams(q.Quantity) + " for " + domain.FormatINR(q.Amount) + " at " + domain.FormatINR(q.Price) + "/g"
}

// Workflow is one user's order session. Methods are meant to be called
// sequentially from the UI loop; the gateway enforces a single open checkout.
type Workflow struct {
	market        marketData
	payments      paymentOrders
	banks         *banks.Selector
	submitter     *order.Submitter
	gateway       *gateway.MockGateway
	reconciler    *reconciler.Reconciler
	journal       orderTracker
	redirectDelay time.Duration
	l             *zap.Logger

	mu      sync.RWMutex
	rate    *domain.Rate
	holding domain.Holding
}

// New creates a workflow from its dependencies.
func New(d Deps) *Workflow {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RedirectDelay <= 0 {
		d.RedirectDelay = navigation.DefaultDelay
	}
	return &Workflow{
		market:        d.Market,
		payments:      d.Payments,
		banks:         d.Banks,
		submitter:     d.Submitter,
		gateway:       d.Gateway,
		reconciler:    d.Reconciler,
		journal:       d.Journal,
		redirectDelay: d.RedirectDelay,
		l:             d.Logger,
	}
}

// Refresh reloads rate, bank accounts and holding in parallel, as on screen focus.
func (w *Workflow) Refresh(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		bank []domain.BankAccount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := w.market.GetRates(gctx)
		if err != nil {
			return errors.Wrap(err, "load gold rate")
		}
		snap.Rate = r
		return nil
	})
	g.Go(func() error {
		b, err := w.banks.Load(gctx)
		if err != nil {
			return err
		}
		bank = b
		return nil
	})
	g.Go(func() error {
		h, err := w.market.GetHolding(gctx)
		if err != nil {
			return errors.Wrap(err, "load holding")
		}
		snap.Holding = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap.Banks = bank
	snap.Selected = w.banks.Selected()

	w.mu.Lock()
	w.rate = &snap.Rate
	w.holding = snap.Holding
	w.mu.Unlock()

	w.l.Debug("order screen refreshed",
		zap.String("buy_price", snap.Rate.BuyPrice.String()),
		zap.String("sell_price", snap.Rate.SellPrice.String()),
		zap.String("rate_source", snap.Rate.Source),
		zap.Int("banks", len(snap.Banks)),
		zap.String("holding_grams", snap.Holding.Grams.String()))
	return snap, nil
}

// Rate returns the rate captured by the last refresh.
func (w *Workflow) Rate() (domain.Rate, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.rate == nil {
		return domain.Rate{}, false
	}
	return *w.rate, true
}

// Holding returns the balance captured by the last refresh.
func (w *Workflow) Holding() domain.Holding {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.holding
}

// Preview computes the counterpart value of the input at the current rate.
func (w *Workflow) Preview(in domain.OrderInput) (Quote, error) {
	rate, ok := w.Rate()
	if !ok {
		return Quote{}, ErrNoRate
	}

	price := rate.PriceFor(in.Operation)
	calculated := calculator.Calculate(in.RawValue, in.Mode, price)
	quantity, amount := in.Resolve(calculated)

	return Quote{
		Operation:  in.Operation,
		Mode:       in.Mode,
		Price:      price,
		Calculated: calculated,
		Quantity:   quantity,
		Amount:     amount,
		RateSource: rate.Source,
	}, nil
}

// Check validates the input and returns the quote the user confirms.
// The selected bank is used when the input does not carry one.
func (w *Workflow) Check(in domain.OrderInput) (domain.OrderInput, Quote, error) {
	if in.Bank == nil {
		in.Bank = w.banks.Selected()
	}

	q, err := w.Preview(in)
	if err != nil {
		return in, Quote{}, err
	}
	if err := validator.Validate(in, q.Calculated, w.Holding().Grams); err != nil {
		return in, q, err
	}
	return in, q, nil
}

// Place validates and submits the order at the current rate.
func (w *Workflow) Place(ctx context.Context, in domain.OrderInput) (domain.Transaction, error) {
	in, q, err := w.Check(in)
	if err != nil {
		return domain.Transaction{}, err
	}
	rate, _ := w.Rate()

	tx, err := w.submitter.Submit(ctx, in, q.Calculated, rate)
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// NeedsPayment reports whether the transaction goes through the checkout.
// Sells pay out to the bank and simulated orders never reached the ledger.
func NeedsPayment(tx domain.Transaction) bool {
	return tx.Operation == domain.OperationBuy && !tx.Simulated
}

// Pay creates the payment order and opens a checkout for it.
func (w *Workflow) Pay(ctx context.Context, tx domain.Transaction) (*gateway.Checkout, error) {
	if !NeedsPayment(tx) {
		return nil, errors.Errorf("transaction %s does not take a payment", tx.MerchantTransactionID)
	}

	if !tx.Amount.IsPositive() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "transaction %s has no amount to pay", tx.MerchantTransactionID)
	}

	orderID, err := w.payments.CreatePaymentOrder(ctx, tx.MerchantTransactionID, tx.Amount)
	if err != nil {
		cause := errors.Wrapf(domain.ErrPaymentOrderFailed, "%s: %v", tx.MerchantTransactionID, err)
		w.reconciler.Abandon(tx, cause)
		return nil, cause
	}

	if w.journal != nil {
		if err := w.journal.AttachOrder(tx.MerchantTransactionID, orderID); err != nil {
			w.l.Error("failed to journal payment order", zap.String("merchant_transaction_id", tx.MerchantTransactionID), zap.Error(err))
		}
	}

	checkout, err := w.gateway.Open(orderID, tx.Amount)
	if err != nil {
		return nil, err
	}
	return checkout, nil
}

// Complete waits for the checkout and reconciles its result.
// A cancelled checkout leaves the backend transaction pending. When ctx ends
// first the checkout is cancelled too, so nothing settles unobserved.
func (w *Workflow) Complete(ctx context.Context, tx domain.Transaction, checkout *gateway.Checkout) (domain.Transaction, error) {
	result, err := checkout.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			checkout.Cancel()
		}
		if state, _ := checkout.State(); state == gateway.StateCancelled {
			w.reconciler.Abandon(tx, domain.ErrPaymentCancelled)
		}
		return tx, err
	}
	return w.reconciler.Reconcile(ctx, tx, result)
}

// RedirectToHistory schedules the move to the history screen.
func (w *Workflow) RedirectToHistory(target func()) *navigation.Redirect {
	return navigation.Schedule(w.redirectDelay, target)
}
