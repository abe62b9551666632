package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/pkg/retrier"
)

const (
	defaultBackendTimeout = 30 * time.Second
	defaultRateLimit      = 5
	defaultBurst          = 10
	maxResponseBytes      = 1 << 20
)

// Backend is the gold backend port. Both the HTTP client and the degraded
// adapter implement it.
type Backend interface {
	GetRates(ctx context.Context) (domain.Rate, error)
	ListBanks(ctx context.Context, uniqueID string) ([]domain.BankAccount, error)
	GetHolding(ctx context.Context) (domain.Holding, error)
	ListHistory(ctx context.Context, q HistoryQuery) (domain.HistoryPage, error)
	BuyGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error)
	SellGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error)
	CreatePaymentOrder(ctx context.Context, merchantTransactionID string, amount decimal.Decimal) (string, error)
	VerifyPayment(ctx context.Context, merchantTransactionID string, result domain.MockPaymentResult) error
	UpdateTransactionStatus(ctx context.Context, update StatusUpdate) error
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, otp string) (domain.User, string, error)
}

// HistoryQuery filters the transaction history. Empty Type lists all.
type HistoryQuery struct {
	Type   string
	Limit  int
	Offset int
}

// StatusUpdate reports the final state of a transaction after payment.
type StatusUpdate struct {
	MerchantTransactionID string
	Status                domain.TransactionStatus
	PaymentMethod         string
	PaymentReference      string
}

type tokenSource interface {
	Token() (string, bool)
}

// CallObserver receives timing of every backend call.
type CallObserver interface {
	ObserveBackendCall(endpoint, outcome string, elapsed time.Duration)
}

// BackendClient talks to the gold backend over HTTP/JSON.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	session    tokenSource
	limiter    *rate.Limiter
	retrier    *retrier.Retrier
	observer   CallObserver
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a BackendClient.
type Option func(*BackendClient)

// WithTimeout bounds every call, including the time spent waiting on the limiter.
func WithTimeout(d time.Duration) Option {
	return func(c *BackendClient) {
		c.timeout = d
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BackendClient) {
		c.httpClient = hc
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *BackendClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetrier sets the retry policy for idempotent reads.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *BackendClient) {
		c.retrier = r
	}
}

// WithObserver reports call latency, e.g. to metrics.
func WithObserver(o CallObserver) Option {
	return func(c *BackendClient) {
		c.observer = o
	}
}

// NewBackendClient creates a client for baseURL. sess supplies the bearer token and may be nil.
func NewBackendClient(baseURL string, sess tokenSource, logger *zap.Logger, opts ...Option) (*BackendClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid backend url %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultBackendTimeout},
		timeout:    defaultBackendTimeout,
		session:    sess,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(250*time.Millisecond),
			retrier.WithMaxInterval(2*time.Second),
			retrier.WithRetryIf(IsNetworkError),
			retrier.WithOnRetry(func(retry int, err error, wait time.Duration) {
				logger.Debug("retrying backend call", zap.Int("retry", retry), zap.Duration("wait", wait), zap.Error(err))
			}),
		),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetRates fetches the current gold quote.
func (c *BackendClient) GetRates(ctx context.Context) (domain.Rate, error) {
	const op = "gold rates"

	var data ratesData
	if err := c.get(ctx, op, "/gold/rates.php", nil, &data); err != nil {
		return domain.Rate{}, err
	}

	r := data.toDomain(c.now())
	if !r.BuyPrice.IsPositive() || !r.SellPrice.IsPositive() {
		return domain.Rate{}, &NetworkError{Op: op, Err: errors.New("rate payload without prices")}
	}
	return r, nil
}

// ListBanks returns the user's active bank accounts.
func (c *BackendClient) ListBanks(ctx context.Context, uniqueID string) ([]domain.BankAccount, error) {
	q := url.Values{}
	q.Set("unique_id", uniqueID)

	var data banksData
	if err := c.get(ctx, "bank list", "/users/banks/list.php", q, &data); err != nil {
		return nil, err
	}
	return data.toDomain(), nil
}

// GetHolding returns the user's gold balance.
func (c *BackendClient) GetHolding(ctx context.Context) (domain.Holding, error) {
	var data holdingData
	if err := c.get(ctx, "dashboard", "/user/dashboard.php", nil, &data); err != nil {
		return domain.Holding{}, err
	}
	return domain.Holding{
		Grams:    data.BalanceGrams,
		ValueINR: data.BalanceINR,
		Source:   domain.RateSourceLive,
	}, nil
}

// ListHistory returns one page of the user's transactions.
func (c *BackendClient) ListHistory(ctx context.Context, hq HistoryQuery) (domain.HistoryPage, error) {
	q := url.Values{}
	if hq.Type != "" {
		q.Set("type", hq.Type)
	}
	if hq.Limit > 0 {
		q.Set("limit", strconv.Itoa(hq.Limit))
	}
	if hq.Offset > 0 {
		q.Set("offset", strconv.Itoa(hq.Offset))
	}

	var data historyData
	if err := c.get(ctx, "transactions", "/user/transactions.php", q, &data); err != nil {
		return domain.HistoryPage{}, err
	}
	return data.toDomain(), nil
}

// BuyGold creates a pending buy transaction.
func (c *BackendClient) BuyGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	const op = "buy gold"

	var data buyData
	if err := c.call(ctx, op, http.MethodPost, "/gold/buy.php", nil, newOrderRequest(req), &data); err != nil {
		return domain.Transaction{}, err
	}
	if data.BuyTransaction == nil {
		return domain.Transaction{}, &NetworkError{Op: op, Err: errors.New("response without buy_transaction")}
	}
	return data.BuyTransaction.toDomain(req, c.now()), nil
}

// SellGold creates a pending sell transaction.
func (c *BackendClient) SellGold(ctx context.Context, req domain.OrderRequest) (domain.Transaction, error) {
	const op = "sell gold"

	var data sellData
	if err := c.call(ctx, op, http.MethodPost, "/gold/sell.php", nil, newOrderRequest(req), &data); err != nil {
		return domain.Transaction{}, err
	}
	if data.SellTransaction == nil {
		return domain.Transaction{}, &NetworkError{Op: op, Err: errors.New("response without sell_transaction")}
	}
	return data.SellTransaction.toDomain(req, c.now()), nil
}

// CreatePaymentOrder registers a payment for the transaction and returns the order id.
func (c *BackendClient) CreatePaymentOrder(ctx context.Context, merchantTransactionID string, amount decimal.Decimal) (string, error) {
	const op = "create payment order"

	body := createOrderRequest{
		Amount:                json.Number(amount.StringFixed(2)),
		Currency:              "INR",
		MerchantTransactionID: merchantTransactionID,
	}

	var data createOrderData
	if err := c.call(ctx, op, http.MethodPost, "/payments/razorpay/create-order.php", nil, body, &data); err != nil {
		return "", err
	}
	if data.OrderID == "" {
		return "", &NetworkError{Op: op, Err: errors.New("response without order_id")}
	}
	return data.OrderID, nil
}

// VerifyPayment asks the backend to accept the checkout result.
func (c *BackendClient) VerifyPayment(ctx context.Context, merchantTransactionID string, result domain.MockPaymentResult) error {
	body := verifyPaymentRequest{
		OrderID:               result.OrderID,
		PaymentID:             result.PaymentID,
		Signature:             result.Signature,
		MerchantTransactionID: merchantTransactionID,
	}
	return c.call(ctx, "verify payment", http.MethodPost, "/payments/razorpay/verify-payment.php", nil, body, nil)
}

// UpdateTransactionStatus records the final status of a transaction.
func (c *BackendClient) UpdateTransactionStatus(ctx context.Context, update StatusUpdate) error {
	body := updateStatusRequest{
		MerchantTransactionID: update.MerchantTransactionID,
		Status:                string(update.Status),
		PaymentStatus:         string(update.Status),
		PaymentMethod:         update.PaymentMethod,
		PaymentReference:      update.PaymentReference,
	}
	return c.call(ctx, "update transaction status", http.MethodPost, "/gold/update-transaction-status.php", nil, body, nil)
}

// SendOTP requests a one-time password for mobile.
func (c *BackendClient) SendOTP(ctx context.Context, mobile string) error {
	return c.call(ctx, "send otp", http.MethodPost, "/auth/send-otp.php", nil, sendOTPRequest{Mobile: mobile}, nil)
}

// VerifyOTP exchanges the one-time password for a session token.
func (c *BackendClient) VerifyOTP(ctx context.Context, mobile, otp string) (domain.User, string, error) {
	const op = "verify otp"

	var data verifyOTPData
	if err := c.call(ctx, op, http.MethodPost, "/auth/verify-otp.php", nil, verifyOTPRequest{Mobile: mobile, OTP: otp}, &data); err != nil {
		return domain.User{}, "", err
	}
	if data.Token == "" {
		return domain.User{}, "", &NetworkError{Op: op, Err: errors.New("response without token")}
	}

	user := domain.User{
		UniqueID:  string(data.UniqueID),
		Mobile:    mobile,
		Name:      data.Name,
		Email:     data.Email,
		KYCStatus: data.KYCStatus,
	}
	if user.UniqueID == "" {
		user.UniqueID = mobile
	}
	return user, data.Token, nil
}

// get performs an idempotent read with retries on network errors.
func (c *BackendClient) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.call(ctx, op, http.MethodGet, path, query, nil, out)
	})
}

func (c *BackendClient) call(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := c.now()
	defer func() {
		c.observe(path, err, start)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: errors.Wrap(err, "rate limiter")}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return errors.Wrapf(err, "build %s request", op)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "read response body")}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		c.logger.Debug("malformed backend response",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(raw, 256)))
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New("malformed response")}
	}

	if !*env.Success {
		return &BusinessError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decode response data")}
	}
	return nil
}

func (c *BackendClient) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.session != nil {
		if token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}
	return req, nil
}

func (c *BackendClient) observe(path string, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case IsNetworkError(err):
		outcome = "network_error"
	default:
		outcome = "rejected"
	}
	c.observer.ObserveBackendCall(path, outcome, c.now().Sub(start))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
