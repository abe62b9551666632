package domain

import "github.com/pkg/errors"

// Input errors. Recovered locally, the order is not submitted.
var (
	ErrInvalidInput        = errors.New("invalid amount or quantity")
	ErrNoBankSelected      = errors.New("no bank account selected")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrInsufficientBalance = errors.New("insufficient gold balance")
)

// Payment errors. Always surfaced, never retried.
var (
	ErrPaymentCancelled   = errors.New("payment cancelled by user")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrPaymentOrderFailed = errors.New("payment order creation failed")
)

// ErrNotAuthenticated is returned when an operation needs a logged-in session.
var ErrNotAuthenticated = errors.New("not authenticated")

// IsInputError reports whether err is one of the locally recoverable input errors.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNoBankSelected) ||
		errors.Is(err, ErrBelowMinimum) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsPaymentError reports whether err came from the checkout or its verification.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrPaymentCancelled) ||
		errors.Is(err, ErrVerificationFailed) ||
		errors.Is(err, ErrPaymentOrderFailed)
}
