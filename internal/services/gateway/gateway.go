// Package gateway simulates an external checkout: the user picks a payment
// method, the checkout walks through timed processing stages and settles
// with synthetic credentials. No money moves.
package gateway

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/vadiminshakov/aurum/internal/domain"
)

var (
	ErrCheckoutActive = errors.New("a checkout is already open")
	ErrInvalidState   = errors.New("operation not allowed in current checkout state")
	ErrUnknownMethod  = errors.New("unknown payment method")
)

const defaultMerchantName = "Aurum Gold"

type stageRecorder interface {
	ObserveGatewayStage(stage string, elapsed time.Duration)
}

// StageHook is notified when a checkout enters a stage or settles.
// It runs on a timer goroutine and must not block.
type StageHook func(orderID string, state State, stage Stage)

// Option configures a MockGateway.
type Option func(*MockGateway)

// WithSchedule overrides the stage durations.
func WithSchedule(s Schedule) Option {
	return func(g *MockGateway) {
		g.schedule = s
	}
}

// WithMerchantName sets the merchant shown on the checkout header.
func WithMerchantName(name string) Option {
	return func(g *MockGateway) {
		if name != "" {
			g.merchantName = name
		}
	}
}

// WithStageHook registers a hook for stage narration.
func WithStageHook(h StageHook) Option {
	return func(g *MockGateway) {
		g.hook = h
	}
}

// WithStageRecorder reports per-stage timings.
func WithStageRecorder(r stageRecorder) Option {
	return func(g *MockGateway) {
		g.recorder = r
	}
}

// MockGateway hands out at most one open checkout at a time.
type MockGateway struct {
	mu           sync.Mutex
	active       *Checkout
	schedule     Schedule
	merchantName string
	hook         StageHook
	recorder     stageRecorder
	suffix       func() string
	now          func() time.Time
	l            *zap.Logger
}

// New creates a mock gateway with the default schedule unless overridden.
func New(l *zap.Logger, opts ...Option) (*MockGateway, error) {
	if l == nil {
		l = zap.NewNop()
	}

	suffix, err := nanoid.Standard(9)
	if err != nil {
		return nil, errors.Wrap(err, "init payment id generator")
	}

	g := &MockGateway{
		schedule:     DefaultSchedule,
		merchantName: defaultMerchantName,
		suffix:       suffix,
		now:          time.Now,
		l:            l,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// MerchantName is shown on the checkout header.
func (g *MockGateway) MerchantName() string {
	return g.merchantName
}

// Open starts a checkout for a payment order. It fails while another checkout is unsettled.
func (g *MockGateway) Open(orderID string, amount decimal.Decimal) (*Checkout, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return nil, errors.Wrapf(ErrCheckoutActive, "order %s", g.active.orderID)
	}

	c := &Checkout{
		g:       g,
		orderID: orderID,
		amount:  amount,
		state:   StateMethodSelection,
		done:    make(chan struct{}),
	}
	g.active = c

	g.l.Info("checkout opened", zap.String("order_id", orderID), zap.String("amount", amount.String()))
	return c, nil
}

func (g *MockGateway) release(c *Checkout) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == c {
		g.active = nil
	}
}

func (g *MockGateway) notify(orderID string, state State, stage Stage) {
	if g.hook != nil {
		g.hook(orderID, state, stage)
	}
}

func (g *MockGateway) synthesize(orderID string) domain.MockPaymentResult {
	ts := g.now().UnixMilli()
	paymentID := fmt.Sprintf("pay_%d_%s", ts, g.suffix())

	digest := blake2b.Sum256([]byte(orderID + "|" + paymentID))
	return domain.MockPaymentResult{
		PaymentID: paymentID,
		OrderID:   orderID,
		Signature: fmt.Sprintf("mock_signature_%d_%s", ts, hex.EncodeToString(digest[:8])),
	}
}

// Checkout is one payment attempt.
type Checkout struct {
	g       *MockGateway
	orderID string
	amount  decimal.Decimal

	mu         sync.Mutex
	state      State
	stage      Stage
	method     Method
	timer      *time.Timer
	stageStart time.Time
	result     domain.MockPaymentResult
	err        error
	done       chan struct{}
}

func (c *Checkout) OrderID() string         { return c.orderID }
func (c *Checkout) Amount() decimal.Decimal { return c.amount }

// Methods lists the selectable payment methods.
func (c *Checkout) Methods() []Method {
	return Methods()
}

// State returns the current state and stage.
func (c *Checkout) State() (State, Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.stage
}

// Method returns the selected method, zero before selection.
func (c *Checkout) Method() Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// Select starts processing with the chosen method. Cancelling ctx cancels the checkout.
func (c *Checkout) Select(ctx context.Context, methodID string) error {
	method, ok := findMethod(methodID)
	if !ok {
		return errors.Wrapf(ErrUnknownMethod, "%q", methodID)
	}

	c.mu.Lock()
	if c.state != StateMethodSelection {
		state := c.state
		c.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "select in %s", state)
	}
	c.method = method
	c.state = StateProcessing
	c.stage = StageInitiate
	c.mu.Unlock()

	c.g.l.Info("payment method selected", zap.String("order_id", c.orderID), zap.String("method", method.ID))
	c.g.notify(c.orderID, StateProcessing, StageInitiate)

	c.arm(StageInitiate)

	go func() {
		select {
		case <-ctx.Done():
			c.Cancel()
		case <-c.done:
		}
	}()
	return nil
}

// arm starts the timer for stage unless the checkout moved on meanwhile.
// Stages are announced before their timer starts so hooks see them in order.
func (c *Checkout) arm(stage Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateProcessing || c.stage != stage {
		return
	}
	c.stageStart = c.g.now()
	c.timer = time.AfterFunc(c.g.schedule.duration(stage), func() {
		c.advance(stage)
	})
}

// advance runs when stage's timer fires. A stale or cancelled checkout ignores it.
func (c *Checkout) advance(stage Stage) {
	c.mu.Lock()
	if c.state != StateProcessing || c.stage != stage {
		c.mu.Unlock()
		return
	}

	if c.g.recorder != nil {
		c.g.recorder.ObserveGatewayStage(stage.String(), c.g.now().Sub(c.stageStart))
	}

	if stage == StageVerify {
		c.result = c.g.synthesize(c.orderID)
		c.state = StateSucceeded
		c.timer = nil
		paymentID := c.result.PaymentID
		c.mu.Unlock()

		c.g.release(c)
		c.g.l.Info("checkout settled", zap.String("order_id", c.orderID), zap.String("payment_id", paymentID))
		c.g.notify(c.orderID, StateSucceeded, stage)
		close(c.done)
		return
	}

	next := stage + 1
	c.stage = next
	c.timer = nil
	c.mu.Unlock()

	c.g.notify(c.orderID, StateProcessing, next)
	c.arm(next)
}

// Cancel settles the checkout as cancelled from any unsettled state.
// Pending stage timers are suppressed and no success can follow.
func (c *Checkout) Cancel() {
	c.mu.Lock()
	if c.state.Settled() {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	stage := c.stage
	c.state = StateCancelled
	c.err = domain.ErrPaymentCancelled
	c.mu.Unlock()

	c.g.release(c)
	c.g.l.Info("checkout cancelled", zap.String("order_id", c.orderID), zap.String("stage", stage.String()))
	c.g.notify(c.orderID, StateCancelled, stage)
	close(c.done)
}

// Done is closed when the checkout settles, after the gateway is released
// and the stage hook has seen the final state.
func (c *Checkout) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the checkout settles or ctx ends.
func (c *Checkout) Wait(ctx context.Context) (domain.MockPaymentResult, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return domain.MockPaymentResult{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.MockPaymentResult{}, c.err
	}
	return c.result, nil
}

func findMethod(id string) (Method, bool) {
	for _, m := range methods {
		if m.ID == id {
			return m, true
		}
	}
	return Method{}, false
}
