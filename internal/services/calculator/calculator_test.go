package calculator

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/aurum/internal/domain"
)

var tolerance = decimal.RequireFromString("0.000000001")

func TestCalculate(t *testing.T) {
	rate := decimal.NewFromInt(6100)

	q := Calculate("1000", domain.InputModeAmount, rate)
	assert.Equal(t, "0.1639", q.StringFixed(4))

	a := Calculate("2", domain.InputModeQuantity, rate)
	assert.True(t, a.Equal(decimal.NewFromInt(12200)))
}

func TestCalculate_InvalidInput(t *testing.T) {
	rate := decimal.NewFromInt(6100)

	for _, raw := range []string{"", "abc", "-5", "1,000"} {
		assert.True(t, Calculate(raw, domain.InputModeAmount, rate).IsZero(), raw)
		assert.True(t, Calculate(raw, domain.InputModeQuantity, rate).IsZero(), raw)
	}
}

func TestCalculate_ZeroRate(t *testing.T) {
	for _, raw := range []string{"0", "1", "1000", "0.0001"} {
		for _, mode := range []domain.InputMode{domain.InputModeAmount, domain.InputModeQuantity} {
			assert.True(t, Calculate(raw, mode, decimal.Zero).IsZero())
			assert.True(t, Calculate(raw, mode, decimal.Decimal{}).IsZero())
			assert.True(t, Calculate(raw, mode, decimal.NewFromInt(-1)).IsZero())
		}
	}
}

func TestCalculate_RoundTrip(t *testing.T) {
	rates := []string{"6100", "6000.55", "1", "0.37"}
	values := []string{"0", "50", "99.99", "1000", "0.016", "123456.789"}

	for _, r := range rates {
		rate := decimal.RequireFromString(r)
		for _, v := range values {
			val := decimal.RequireFromString(v)

			back := Calculate(v, domain.InputModeAmount, rate).Mul(rate)
			assert.True(t, back.Sub(val).Abs().LessThan(tolerance), "amount %s @ %s -> %s", v, r, back)

			back = Calculate(v, domain.InputModeQuantity, rate).Div(rate)
			assert.True(t, back.Sub(val).Abs().LessThan(tolerance), "quantity %s @ %s -> %s", v, r, back)
		}
	}
}

func TestDebouncer_LatestInputWins(t *testing.T) {
	var (
		mu      sync.Mutex
		results []string
	)
	done := make(chan struct{}, 4)

	d := NewDebouncer(20*time.Millisecond, func(raw string, result decimal.Decimal) {
		mu.Lock()
		results = append(results, raw+"="+result.StringFixed(2))
		mu.Unlock()
		done <- struct{}{}
	})

	rate := decimal.NewFromInt(100)
	d.Schedule("1", domain.InputModeQuantity, rate)
	d.Schedule("10", domain.InputModeQuantity, rate)
	d.Schedule("100", domain.InputModeQuantity, rate)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced result was not delivered")
	}
	// give superseded timers a chance to misfire
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.Equal(t, "100=10000.00", results[0])
}

func TestDebouncer_Stop(t *testing.T) {
	called := make(chan struct{}, 1)
	d := NewDebouncer(10*time.Millisecond, func(string, decimal.Decimal) {
		called <- struct{}{}
	})

	d.Schedule("1", domain.InputModeAmount, decimal.NewFromInt(10))
	d.Stop()

	select {
	case <-called:
		t.Fatal("stopped debouncer delivered a result")
	case <-time.After(50 * time.Millisecond):
	}
}
