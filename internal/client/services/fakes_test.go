package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

// fakeLedger is a minimal in-memory CreditLedger.
type fakeLedger struct {
	mu       sync.Mutex
	loggedIn bool
	credits  int
	sub      *models.Subscription

	AddErr error
}

func newLedger(credits int) *fakeLedger {
	return &fakeLedger{loggedIn: true, credits: credits}
}

func (f *fakeLedger) State() models.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := models.SessionState{Credits: f.credits, Subscription: f.sub}
	if f.loggedIn {
		st.User = &models.User{ID: "u-1"}
	}
	return st
}

func (f *fakeLedger) DeductCredit(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credits <= 0 {
		return false, nil
	}
	f.credits--
	return true, nil
}

func (f *fakeLedger) AddCredits(ctx context.Context, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	if !f.loggedIn {
		return common.ErrNotLoggedIn
	}
	f.credits += amount
	return nil
}

func (f *fakeLedger) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sub = &sub
	return nil
}

func (f *fakeLedger) balance() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits
}

// fakeAPI is a scripted leadapi.Service.
type fakeAPI struct {
	mu          sync.Mutex
	results     []models.Lead
	err         error
	searchCalls int
	enrichCalls int
}

func (f *fakeAPI) SearchLeads(ctx context.Context, q models.SearchQuery) ([]models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeAPI) EnrichContact(ctx context.Context, email string) (*models.Enrichment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrichCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Enrichment{Email: email, Verified: true}, nil
}

// fakePayments records charges.
type fakePayments struct {
	intents  int
	charges  []int
	declined bool
	err      error
}

func (f *fakePayments) CreatePaymentIntent(ctx context.Context, amount int, currency string) (*models.PaymentIntent, error) {
	f.intents++
	return &models.PaymentIntent{ClientSecret: "s", Amount: amount, Currency: currency}, nil
}

func (f *fakePayments) Charge(ctx context.Context, amount int, description string) (*models.PaymentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.charges = append(f.charges, amount)
	return &models.PaymentResult{Success: !f.declined, TransactionID: "txn_1", Amount: amount}, nil
}
