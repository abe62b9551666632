package reconciler

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/clients"
	"github.com/vadiminshakov/aurum/internal/domain"
)

const paymentMethod = "razorpay"

type backend interface {
	VerifyPayment(ctx context.Context, merchantTransactionID string, result domain.MockPaymentResult) error
	UpdateTransactionStatus(ctx context.Context, update clients.StatusUpdate) error
}

type journal interface {
	MarkCompleted(merchantTransactionID, paymentReference string) error
	MarkFailed(merchantTransactionID string, cause error) error
	MarkCancelled(merchantTransactionID string) error
}

type recorder interface {
	OrderCompleted(operation string)
	OrderFailed(operation, reason string)
}

// Reconciler confirms a checkout result with the backend and finalizes the transaction.
type Reconciler struct {
	backend backend
	journal journal
	metrics recorder
	l       *zap.Logger
}

// New creates a reconciler. journal and metrics may be nil.
func New(b backend, j journal, m recorder, l *zap.Logger) *Reconciler {
	if l == nil {
		l = zap.NewNop()
	}
	return &Reconciler{backend: b, journal: j, metrics: m, l: l}
}

// Reconcile verifies the payment, then marks the transaction completed.
//
// Verification failure is final and is not retried. A failed status update
// after successful verification is logged and the transaction is still
// reported completed; the backend owns the repair.
func (r *Reconciler) Reconcile(ctx context.Context, tx domain.Transaction, result domain.MockPaymentResult) (domain.Transaction, error) {
	l := r.l.With(
		zap.String("merchant_transaction_id", tx.MerchantTransactionID),
		zap.String("order_id", result.OrderID),
		zap.String("payment_id", result.PaymentID))

	if err := r.backend.VerifyPayment(ctx, tx.MerchantTransactionID, result); err != nil {
		l.Error("payment verification failed", zap.Error(err))
		r.fail(tx, "verification", err)
		return tx, errors.Wrapf(domain.ErrVerificationFailed, "%s: %v", tx.MerchantTransactionID, err)
	}

	update := clients.StatusUpdate{
		MerchantTransactionID: tx.MerchantTransactionID,
		Status:                domain.TransactionCompleted,
		PaymentMethod:         paymentMethod,
		PaymentReference:      result.PaymentID,
	}
	if err := r.backend.UpdateTransactionStatus(ctx, update); err != nil {
		l.Warn("transaction status update failed after verified payment", zap.Error(err))
	}

	tx.Status = domain.TransactionCompleted
	tx.PaymentStatus = string(domain.TransactionCompleted)
	tx.PaymentReference = result.PaymentID

	if r.journal != nil {
		if err := r.journal.MarkCompleted(tx.MerchantTransactionID, result.PaymentID); err != nil {
			l.Error("failed to journal completion", zap.Error(err))
		}
	}
	if r.metrics != nil {
		r.metrics.OrderCompleted(tx.Operation.String())
	}

	l.Info("payment reconciled")
	return tx, nil
}

// Abandon records a checkout that ended without a verifiable payment.
// The backend transaction is left pending.
func (r *Reconciler) Abandon(tx domain.Transaction, cause error) {
	reason := reasonFor(cause)
	if reason != "cancelled" {
		r.fail(tx, reason, cause)
		return
	}

	if r.metrics != nil {
		r.metrics.OrderFailed(tx.Operation.String(), reason)
	}
	if r.journal == nil {
		return
	}
	if err := r.journal.MarkCancelled(tx.MerchantTransactionID); err != nil {
		r.l.Error("failed to journal cancellation",
			zap.String("merchant_transaction_id", tx.MerchantTransactionID),
			zap.Error(err))
	}
}

func (r *Reconciler) fail(tx domain.Transaction, reason string, cause error) {
	if r.metrics != nil {
		r.metrics.OrderFailed(tx.Operation.String(), reason)
	}
	if r.journal == nil {
		return
	}
	if err := r.journal.MarkFailed(tx.MerchantTransactionID, cause); err != nil {
		r.l.Error("failed to journal failure",
			zap.String("merchant_transaction_id", tx.MerchantTransactionID),
			zap.Error(err))
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrPaymentCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrPaymentOrderFailed):
		return "payment_order"
	case errors.Is(err, domain.ErrVerificationFailed):
		return "verification"
	default:
		return "other"
	}
}
