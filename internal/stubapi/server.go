// Package stubapi is an in-memory implementation of the gold backend
// contract for local runs and end-to-end tests.
package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// DefaultOTP is accepted for every mobile number.
const DefaultOTP = "123456"

var (
	minimumBuy  = decimal.NewFromInt(50)
	minimumSell = decimal.NewFromInt(100)
)

type transaction struct {
	domain.Transaction
	UniqueID string
	OrderID  string
}

// Server is the stub backend. It is safe for concurrent use.
type Server struct {
	mu           sync.Mutex
	buyPrice     decimal.Decimal
	sellPrice    decimal.Decimal
	holding      decimal.Decimal
	banks        []domain.BankAccount
	transactions map[string]*transaction
	txOrder      []string
	orders       map[string]string
	calls        map[string]int

	rateLimited  atomic.Bool
	authFailing  atomic.Bool
	requireAuth  bool
	secret       []byte
	tokenTTL     time.Duration
	genID        func() string
	now          func() time.Time
	l            *zap.Logger
}

// Option configures the stub.
type Option func(*Server)

// WithRequireAuth rejects user endpoints without a valid bearer token.
func WithRequireAuth() Option {
	return func(s *Server) {
		s.requireAuth = true
	}
}

// WithHolding sets the initial gold balance in grams.
func WithHolding(grams decimal.Decimal) Option {
	return func(s *Server) {
		s.holding = grams
	}
}

// WithBanks replaces the default bank accounts.
func WithBanks(banks []domain.BankAccount) Option {
	return func(s *Server) {
		s.banks = banks
	}
}

// New creates a stub quoting 6100 buy / 6000 sell.
func New(l *zap.Logger, opts ...Option) (*Server, error) {
	if l == nil {
		l = zap.NewNop()
	}
	genID, err := nanoid.Standard(12)
	if err != nil {
		return nil, errors.Wrap(err, "init id generator")
	}

	s := &Server{
		buyPrice:     decimal.NewFromInt(6100),
		sellPrice:    decimal.NewFromInt(6000),
		holding:      decimal.Zero,
		banks:        defaultBanks(),
		transactions: make(map[string]*transaction),
		orders:       make(map[string]string),
		calls:        make(map[string]int),
		secret:       []byte("stub-signing-key"),
		tokenTTL:     24 * time.Hour,
		genID:        genID,
		now:          time.Now,
		l:            l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func defaultBanks() []domain.BankAccount {
	return []domain.BankAccount{{
		ID:                "1",
		AccountHolderName: "Stub User",
		AccountNumber:     "50100012345678",
		IFSCCode:          "HDFC0000123",
		BankName:          "HDFC Bank",
	}}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countCalls)

	r.Get("/gold/rates.php", s.handleRates)
	r.Post("/auth/send-otp.php", s.handleSendOTP)
	r.Post("/auth/verify-otp.php", s.handleVerifyOTP)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/users/banks/list.php", s.handleBanks)
		r.Get("/user/dashboard.php", s.handleDashboard)
		r.Get("/user/transactions.php", s.handleTransactions)
		r.Post("/payments/razorpay/create-order.php", s.handleCreateOrder)
		r.Post("/payments/razorpay/verify-payment.php", s.handleVerifyPayment)
		r.Post("/gold/update-transaction-status.php", s.handleUpdateStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.orderSwitches)
			r.Post("/gold/buy.php", s.handleOrder(domain.OperationBuy))
			r.Post("/gold/sell.php", s.handleOrder(domain.OperationSell))
		})
	})

	return r
}

// ForceRateLimit makes order endpoints answer with a rate-limit rejection.
func (s *Server) ForceRateLimit(on bool) { s.rateLimited.Store(on) }

// ForceAuthFailure makes order endpoints answer with an authentication failure.
func (s *Server) ForceAuthFailure(on bool) { s.authFailing.Store(on) }

// SetRates changes the quoted prices.
func (s *Server) SetRates(buy, sell decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyPrice, s.sellPrice = buy, sell
}

// Holding returns the current balance in grams.
func (s *Server) Holding() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Transaction returns a stored transaction.
func (s *Server) Transaction(merchantTransactionID string) (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[merchantTransactionID]
	if !ok {
		return domain.Transaction{}, false
	}
	return tx.Transaction, true
}

// IssueToken mints a session token for mobile, as verify-otp does.
func (s *Server) IssueToken(mobile string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   mobile,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" && !s.requireAuth {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			fail(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			s.l.Debug("rejected token", zap.Error(err))
			fail(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) orderSwitches(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case s.rateLimited.Load():
			fail(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		case s.authFailing.Load():
			fail(w, http.StatusUnauthorized, "Authentication failed with gold provider")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func (s *Server) blockID() string {
	return fmt.Sprintf("BLK_%d", s.now().Unix()/60)
}
