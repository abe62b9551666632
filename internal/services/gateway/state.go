package gateway

import "time"

// State of a checkout.
type State int

const (
	StateIdle State = iota
	StateMethodSelection
	StateProcessing
	StateSucceeded
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMethodSelection:
		return "method_selection"
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Settled reports whether the checkout reached a terminal state.
func (s State) Settled() bool {
	return s == StateSucceeded || s == StateCancelled
}

// Stage is a step of the processing sequence.
type Stage int

const (
	StageNone Stage = iota
	StageInitiate
	StageConnect
	StageProcess
	StageVerify
)

func (s Stage) String() string {
	switch s {
	case StageInitiate:
		return "initiate"
	case StageConnect:
		return "connect"
	case StageProcess:
		return "process"
	case StageVerify:
		return "verify"
	default:
		return "none"
	}
}

// Description is the narration shown while the stage runs.
func (s Stage) Description() string {
	switch s {
	case StageInitiate:
		return "Initiating payment..."
	case StageConnect:
		return "Connecting to payment gateway..."
	case StageProcess:
		return "Processing payment..."
	case StageVerify:
		return "Verifying payment..."
	default:
		return ""
	}
}

// Schedule is how long each stage lasts before the next one starts.
type Schedule struct {
	Initiate time.Duration
	Connect  time.Duration
	Process  time.Duration
	Verify   time.Duration
}

// DefaultSchedule settles 3.5s after a method is selected.
var DefaultSchedule = Schedule{
	Initiate: 500 * time.Millisecond,
	Connect:  time.Second,
	Process:  time.Second,
	Verify:   time.Second,
}

func (s Schedule) duration(stage Stage) time.Duration {
	switch stage {
	case StageInitiate:
		return s.Initiate
	case StageConnect:
		return s.Connect
	case StageProcess:
		return s.Process
	default:
		return s.Verify
	}
}

// Total is the time from method selection to settlement.
func (s Schedule) Total() time.Duration {
	return s.Initiate + s.Connect + s.Process + s.Verify
}

// Method is a simulated payment method category.
type Method struct {
	ID          string
	Name        string
	Description string
}

var methods = []Method{
	{ID: "card", Name: "Credit/Debit Card", Description: "Visa, Mastercard, RuPay"},
	{ID: "upi", Name: "UPI", Description: "Google Pay, PhonePe, Paytm"},
	{ID: "netbanking", Name: "Net Banking", Description: "All major banks"},
	{ID: "wallet", Name: "Wallets", Description: "Paytm, Mobikwik, Freecharge"},
	{ID: "emi", Name: "EMI", Description: "Easy installments"},
}

// Methods lists the payment methods offered at checkout.
func Methods() []Method {
	return append([]Method(nil), methods...)
}
