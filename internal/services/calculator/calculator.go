// Package calculator converts between a currency amount and a gold quantity.
package calculator

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// DefaultDebounce is the recommended delay before recalculating on fast typing.
const DefaultDebounce = 300 * time.Millisecond

// Calculate converts raw input given the rate per gram.
// Amount mode returns grams receivable (raw / rate), quantity mode returns the cost (raw * rate).
// Non-numeric, empty or negative input and a non-positive rate all yield zero.
func Calculate(raw string, mode domain.InputMode, rate decimal.Decimal) decimal.Decimal {
	v, ok := domain.ParseValue(raw)
	if !ok || v.IsNegative() {
		return decimal.Zero
	}
	if !rate.IsPositive() {
		return decimal.Zero
	}

	if mode == domain.InputModeQuantity {
		return v.Mul(rate)
	}
	return v.Div(rate)
}

// Debouncer delays recalculation until input settles. A later Schedule
// supersedes any earlier one still pending, so only the result for the most
// recent input is ever delivered.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	seq      uint64
	onResult func(raw string, result decimal.Decimal)
}

// NewDebouncer creates a debouncer delivering results to onResult.
func NewDebouncer(delay time.Duration, onResult func(raw string, result decimal.Decimal)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, onResult: onResult}
}

// Schedule queues a recalculation for the given input.
func (d *Debouncer) Schedule(raw string, mode domain.InputMode, rate decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq

	d.timer = time.AfterFunc(d.delay, func() {
		result := Calculate(raw, mode, rate)

		d.mu.Lock()
		stale := seq != d.seq
		d.mu.Unlock()
		if stale {
			return
		}
		d.onResult(raw, result)
	})
}

// Stop drops any pending recalculation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
}
