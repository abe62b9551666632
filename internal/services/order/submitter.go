package order

import (
	"context"
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/storage/orderjournal"
)

const defaultModeOfPayment = "Bank Transfer"

type backend interface {
	BuyGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error)
	SellGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error)
}

type identity interface {
	UniqueID() (string, error)
}

type journal interface {
	Prepare(tx domain.Transaction) (orderjournal.Record, error)
}

type recorder interface {
	OrderSubmitted(operation string, simulated bool)
}

// Submitter turns a validated order input into a pending backend transaction.
type Submitter struct {
	backend   backend
	user      identity
	journal   journal
	metrics   recorder
	metalType string
	suffix    func() string
	now       func() time.Time
	l         *zap.Logger
}

// NewSubmitter creates a submitter. journal and metrics may be nil.
func NewSubmitter(b backend, user identity, j journal, m recorder, metalType string, l *zap.Logger) (*Submitter, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if metalType == "" {
		metalType = domain.MetalGold
	}

	suffix, err := nanoid.Standard(8)
	if err != nil {
		return nil, errors.Wrap(err, "init transaction id generator")
	}

	return &Submitter{
		backend:   b,
		user:      user,
		journal:   j,
		metrics:   m,
		metalType: metalType,
		suffix:    suffix,
		now:       time.Now,
		l:         l,
	}, nil
}

// Submit creates the transaction at the locked rate. The caller validates the input first.
func (s *Submitter) Submit(ctx context.Context, in domain.OrderInput, calculated decimal.Decimal, rate domain.Rate) (domain.Transaction, error) {
	req, err := s.BuildRequest(in, calculated, rate)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.l.Info("submitting order",
		zap.String("merchant_transaction_id", req.MerchantTransactionID),
		zap.String("operation", req.Operation.String()),
		zap.String("mode", in.Mode.String()),
		zap.String("lock_price", req.LockPrice.String()))

	var tx domain.Transaction
	switch in.Operation {
	case domain.OperationSell:
		tx, err = s.backend.SellGold(ctx, req)
	default:
		tx, err = s.backend.BuyGold(ctx, req)
	}
	if err != nil {
		return domain.Transaction{}, errors.Wrapf(err, "submit %s order %s", in.Operation, req.MerchantTransactionID)
	}
	fillSize(&tx, in, calculated, req.LockPrice)

	if s.metrics != nil {
		s.metrics.OrderSubmitted(in.Operation.String(), tx.Simulated)
	}
	if s.journal != nil {
		if _, err := s.journal.Prepare(tx); err != nil {
			s.l.Error("failed to journal order",
				zap.String("merchant_transaction_id", tx.MerchantTransactionID),
				zap.Error(err))
		}
	}

	if tx.Simulated {
		s.l.Warn("order simulated locally", zap.String("merchant_transaction_id", tx.MerchantTransactionID))
	}
	return tx, nil
}

// BuildRequest assembles the backend request without sending it.
func (s *Submitter) BuildRequest(in domain.OrderInput, calculated decimal.Decimal, rate domain.Rate) (domain.OrderRequest, error) {
	uniqueID, err := s.user.UniqueID()
	if err != nil {
		return domain.OrderRequest{}, err
	}
	if in.Bank == nil {
		return domain.OrderRequest{}, domain.ErrNoBankSelected
	}

	req := domain.OrderRequest{
		Operation:             in.Operation,
		MerchantTransactionID: s.transactionID(in.Operation),
		UniqueID:              uniqueID,
		LockPrice:             rate.PriceFor(in.Operation),
		MetalType:             s.metalType,
		BlockID:               rate.BlockID,
		ModeOfPayment:         in.Bank.BankName,
	}
	if req.ModeOfPayment == "" {
		req.ModeOfPayment = defaultModeOfPayment
	}

	quantity, amount := in.Resolve(calculated)
	req.WithSize(in.Mode, quantity, amount)

	if in.Operation == domain.OperationSell {
		req.Payout = &domain.Payout{
			UserBankID:    in.Bank.ID,
			AccountName:   in.Bank.AccountHolderName,
			AccountNumber: in.Bank.AccountNumber,
			IFSCCode:      in.Bank.IFSCCode,
		}
	}
	return req, nil
}

// fillSize restores the size fields the backend did not echo. Only one of
// quantity or amount is transmitted, the other is the locally calculated value.
func fillSize(tx *domain.Transaction, in domain.OrderInput, calculated, lockPrice decimal.Decimal) {
	quantity, amount := in.Resolve(calculated)
	if tx.Quantity.IsZero() {
		tx.Quantity = quantity
	}
	if tx.Amount.IsZero() {
		tx.Amount = amount
	}
	if tx.LockPrice.IsZero() {
		tx.LockPrice = lockPrice
	}
}

func (s *Submitter) transactionID(op domain.Operation) string {
	return fmt.Sprintf("%s%d_%s", op.TransactionPrefix(), s.now().UnixMilli(), s.suffix())
}
