package workflow

import (
	"github.com/pkg/errors"

	"github.com/vadiminshakov/aurum/internal/clients"
	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/validator"
)

// Alert is the single message shown for a terminal error.
type Alert struct {
	Title    string
	Message  string
	NextStep string
}

// AlertFor maps an error to user-facing text with a next step.
func AlertFor(err error) Alert {
	detail := err.Error()
	var verr *validator.Error
	if errors.As(err, &verr) && verr.Detail != "" {
		detail = verr.Detail
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return Alert{"Invalid Input", "Please enter a valid amount or quantity.", "Enter a number greater than zero."}
	case errors.Is(err, domain.ErrNoBankSelected):
		return Alert{"Bank Account Required", "Select a bank account for this order.", "Add a bank account in your profile if none is listed."}
	case errors.Is(err, domain.ErrBelowMinimum):
		return Alert{"Amount Too Low", capitalize(detail) + ".", "Increase the amount and try again."}
	case errors.Is(err, domain.ErrInsufficientBalance):
		return Alert{"Insufficient Gold", capitalize(detail) + ".", "Reduce the quantity to at most your available balance."}
	case errors.Is(err, domain.ErrPaymentCancelled):
		return Alert{"Payment Cancelled", "You cancelled the payment. Your order was not paid.", "Start a new purchase when you are ready."}
	case errors.Is(err, domain.ErrVerificationFailed):
		return Alert{"Payment Verification Failed", "We could not verify your payment.", "Contact support with your transaction ID before retrying."}
	case errors.Is(err, domain.ErrPaymentOrderFailed):
		return Alert{"Payment Error", "The payment could not be started.", "Try again in a moment."}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return Alert{"Login Required", "You are not logged in.", "Run \"aurum login\" and try again."}
	case errors.Is(err, ErrNoRate):
		return Alert{"Rates Unavailable", "Gold rates have not been loaded yet.", "Refresh and try again."}
	case clients.IsRateLimited(err):
		return Alert{"Service Temporarily Unavailable", "Gold trading is temporarily unavailable due to high demand.", "Please try again in a few minutes."}
	case clients.IsAuthFailure(err):
		return Alert{"Authentication Failed", "Your session was rejected by the gold provider.", "Log in again and retry."}
	case clients.IsNetworkError(err):
		return Alert{"Connection Problem", "Could not reach the gold service.", "Check your connection and retry."}
	}

	if msg, ok := clients.BusinessMessage(err); ok && msg != "" {
		return Alert{"Order Failed", msg, "Check the order details and try again."}
	}
	return Alert{"Something Went Wrong", detail, "Try again."}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
