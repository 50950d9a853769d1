// Package payment is a stand-in payment processor. Nothing leaves the
// process; amounts are whole US dollars.
package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

const (
	DefaultCurrency    = "usd"
	mockClientSecret   = "mock_client_secret"
	defaultIntentDelay = time.Second
)

// Service is a payment processor.
type Service interface {
	CreatePaymentIntent(ctx context.Context, amount int, currency string) (*models.PaymentIntent, error)
	ProcessPayment(ctx context.Context, method string, amount int) (*models.PaymentResult, error)
}

// Transaction is a processed payment kept for the billing history.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	Amount      int
}

// MockService approves every charge after a delay and keeps a
// transaction log.
type MockService struct {
	intentLatency  time.Duration
	processLatency time.Duration
	now            func() time.Time

	mu      sync.Mutex
	history []Transaction
	lastMs  int64
}

// Option configures a MockService.
type Option func(*MockService)

// WithLatency sets the simulated delay of intents and charges.
func WithLatency(intent, process time.Duration) Option {
	return func(m *MockService) {
		m.intentLatency = intent
		m.processLatency = process
	}
}

// WithClock overrides the clock used for transaction ids and dates.
func WithClock(now func() time.Time) Option {
	return func(m *MockService) { m.now = now }
}

// NewMockService constructs a MockService.
func NewMockService(opts ...Option) *MockService {
	m := &MockService{
		intentLatency:  defaultIntentDelay,
		processLatency: 2 * time.Second,
		now:            time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreatePaymentIntent returns an intent for amount; currency defaults to
// "usd".
func (m *MockService) CreatePaymentIntent(ctx context.Context, amount int, currency string) (*models.PaymentIntent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment intent for %d: %w", amount, common.ErrInvalidAmount)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if err := common.SleepContext(ctx, m.intentLatency); err != nil {
		return nil, err
	}
	return &models.PaymentIntent{ClientSecret: mockClientSecret, Amount: amount, Currency: currency}, nil
}

// ProcessPayment always succeeds for a positive amount. Transaction ids
// are txn_<unix ms>, kept unique even within one millisecond.
func (m *MockService) ProcessPayment(ctx context.Context, method string, amount int) (*models.PaymentResult, error) {
	return m.charge(ctx, method, amount, "")
}

// Charge is ProcessPayment with a description recorded in the history.
func (m *MockService) Charge(ctx context.Context, amount int, description string) (*models.PaymentResult, error) {
	return m.charge(ctx, "card", amount, description)
}

func (m *MockService) charge(ctx context.Context, method string, amount int, description string) (*models.PaymentResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment of %d: %w", amount, common.ErrInvalidAmount)
	}
	if err := common.SleepContext(ctx, m.processLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ms := now.UnixMilli()
	if ms <= m.lastMs {
		ms = m.lastMs + 1
	}
	m.lastMs = ms

	if description == "" {
		description = fmt.Sprintf("Payment via %s", method)
	}
	txn := Transaction{ID: fmt.Sprintf("txn_%d", ms), Date: now, Description: description, Amount: amount}
	m.history = append(m.history, txn)

	return &models.PaymentResult{Success: true, TransactionID: txn.ID, Amount: amount}, nil
}

// Transactions returns processed payments, newest first.
func (m *MockService) Transactions() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Transaction, len(m.history))
	for i, t := range m.history {
		out[len(m.history)-1-i] = t
	}
	return out
}
