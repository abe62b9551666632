// Package web serves the operational endpoints of the client: Prometheus
// metrics and the orders still awaiting reconciliation.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/storage/orderjournal"
)

type pendingReader interface {
	Pending() []orderjournal.Record
}

// Server exposes /metrics, /orders/pending and /healthz.
type Server struct {
	Addr    string
	Journal pendingReader
	Metrics http.Handler
	l       *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, journal pendingReader, metrics http.Handler, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Addr: addr, Journal: journal, Metrics: metrics, l: l}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/orders/pending", s.handlePending)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("serving metrics", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type pendingOrder struct {
	MerchantTransactionID string    `json:"merchant_transaction_id"`
	Operation             string    `json:"operation"`
	Status                string    `json:"status"`
	Amount                string    `json:"amount"`
	Quantity              string    `json:"quantity"`
	OrderID               string    `json:"order_id,omitempty"`
	Error                 string    `json:"error,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Journal == nil {
		http.Error(w, "order journal not available", http.StatusServiceUnavailable)
		return
	}

	records := s.Journal.Pending()
	out := make([]pendingOrder, 0, len(records))
	for _, rec := range records {
		out = append(out, pendingOrder{
			MerchantTransactionID: rec.MerchantTransactionID,
			Operation:             rec.Operation.String(),
			Status:                string(rec.Status),
			Amount:                rec.Amount.StringFixed(2),
			Quantity:              rec.Quantity.StringFixed(4),
			OrderID:               rec.OrderID,
			Error:                 rec.Error,
			CreatedAt:             rec.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.l.Warn("failed to write pending orders", zap.Error(err))
	}
}
