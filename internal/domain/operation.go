// Package domain defines core data structures of the gold order workflow.
package domain

// Operation is the direction of a gold order.
type Operation int

const (
	OperationBuy Operation = iota
	OperationSell
)

// operation string constants to avoid magic strings
const (
	operationStringBuy  = "buy"
	operationStringSell = "sell"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OperationBuy:
		return operationStringBuy
	case OperationSell:
		return operationStringSell
	default:
		return "unknown"
	}
}

// ParseOperation converts "buy"/"sell" into an Operation.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case operationStringBuy:
		return OperationBuy, true
	case operationStringSell:
		return OperationSell, true
	}
	return OperationBuy, false
}

// TransactionPrefix is the merchant transaction id prefix used by the backend for this operation.
func (o Operation) TransactionPrefix() string {
	if o == OperationSell {
		return "SELL_"
	}
	return "TXN_"
}

// InputMode tells how the user entered the order size.
type InputMode int

const (
	// InputModeAmount means the raw value is a currency amount in INR.
	InputModeAmount InputMode = iota
	// InputModeQuantity means the raw value is a metal quantity in grams.
	InputModeQuantity
)

// String returns the string representation of the input mode.
func (m InputMode) String() string {
	switch m {
	case InputModeAmount:
		return "amount"
	case InputModeQuantity:
		return "quantity"
	default:
		return "unknown"
	}
}
