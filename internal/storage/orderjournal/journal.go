// Package orderjournal keeps a local write-ahead log of submitted orders and
// their lifecycle so unreconciled orders survive restarts.
package orderjournal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

const (
	DefaultDir   = "./wal/orders"
	segmentLimit = 100
	maxSegments  = 10

	orderKeyPrefix = "order_"
)

// Status is the local lifecycle of a journaled order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Record is one journaled order. The latest write for a merchant transaction id wins.
type Record struct {
	ID                    string           `json:"id"`
	MerchantTransactionID string           `json:"merchant_transaction_id"`
	Operation             domain.Operation `json:"operation"`
	Status                Status           `json:"status"`
	Quantity              decimal.Decimal  `json:"quantity"`
	Amount                decimal.Decimal  `json:"amount"`
	LockPrice             decimal.Decimal  `json:"lock_price"`
	Simulated             bool             `json:"simulated,omitempty"`
	OrderID               string           `json:"order_id,omitempty"`
	PaymentReference      string           `json:"payment_reference,omitempty"`
	Error                 string           `json:"error,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// Journal is a WAL-backed order journal.
type Journal struct {
	wal     *gowal.Wal
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
	l       *zap.Logger
}

// Open creates or recovers a journal in dir.
func Open(dir string, l *zap.Logger) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if l == nil {
		l = zap.NewNop()
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "order_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init order journal WAL")
	}

	records := make(map[string]*Record)
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, orderKeyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			l.Error("failed to unmarshal order record", zap.Error(err), zap.String("key", msg.Key))
			continue
		}
		recCopy := rec
		records[rec.MerchantTransactionID] = &recCopy
	}

	return &Journal{wal: wal, records: records, now: time.Now, l: l}, nil
}

// Prepare journals a freshly submitted transaction as pending.
func (j *Journal) Prepare(tx domain.Transaction) (Record, error) {
	if tx.MerchantTransactionID == "" {
		return Record{}, errors.New("merchant transaction id is required")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	rec := &Record{
		ID:                    uuid.New().String(),
		MerchantTransactionID: tx.MerchantTransactionID,
		Operation:             tx.Operation,
		Status:                StatusPending,
		Quantity:              tx.Quantity,
		Amount:                tx.Amount,
		LockPrice:             tx.LockPrice,
		Simulated:             tx.Simulated,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := j.persist(rec); err != nil {
		return Record{}, err
	}
	j.records[rec.MerchantTransactionID] = rec
	return *rec, nil
}

// AttachOrder records the payment order created for the transaction.
func (j *Journal) AttachOrder(merchantTransactionID, orderID string) error {
	return j.update(merchantTransactionID, func(r *Record) {
		r.OrderID = orderID
	})
}

// MarkCompleted finalizes a reconciled order.
func (j *Journal) MarkCompleted(merchantTransactionID, paymentReference string) error {
	return j.update(merchantTransactionID, func(r *Record) {
		r.Status = StatusCompleted
		r.PaymentReference = paymentReference
		r.Error = ""
	})
}

// MarkFailed records a failed payment or verification.
func (j *Journal) MarkFailed(merchantTransactionID string, cause error) error {
	return j.update(merchantTransactionID, func(r *Record) {
		r.Status = StatusFailed
		if cause != nil {
			r.Error = cause.Error()
		}
	})
}

// MarkCancelled records a checkout the user abandoned. The backend transaction stays pending.
func (j *Journal) MarkCancelled(merchantTransactionID string) error {
	return j.update(merchantTransactionID, func(r *Record) {
		r.Status = StatusCancelled
	})
}

// Get returns the latest record for a merchant transaction id.
func (j *Journal) Get(merchantTransactionID string) (Record, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, ok := j.records[merchantTransactionID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Pending lists orders not yet reconciled, oldest first.
// Cancelled and failed orders are included since the backend still holds them as pending.
func (j *Journal) Pending() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Record, 0)
	for _, rec := range j.records {
		if rec.Status == StatusCompleted || rec.Simulated {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.Close()
}

func (j *Journal) update(merchantTransactionID string, fn func(*Record)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, ok := j.records[merchantTransactionID]
	if !ok {
		return errors.Errorf("order %s is not journaled", merchantTransactionID)
	}

	next := *rec
	fn(&next)
	next.UpdatedAt = j.now()
	if err := j.persist(&next); err != nil {
		return err
	}
	j.records[merchantTransactionID] = &next
	return nil
}

func (j *Journal) persist(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order record")
	}
	key := fmt.Sprintf("%s%s", orderKeyPrefix, rec.MerchantTransactionID)
	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, data)
}
