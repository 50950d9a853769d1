package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/leadkeeper/internal/client/leads"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acme = []models.Lead{
	{ID: 1, Name: "John", Email: "john@acme.com", Company: "Acme"},
	{ID: 2, Name: "Jane", Email: "jane@acme.com", Company: "Acme"},
}

func newLeadService(credits int) (LeadService, *fakeLedger, *leads.Store, *fakeAPI) {
	ledger := newLedger(credits)
	store := leads.New()
	api := &fakeAPI{results: acme}
	return NewLeadService(ledger, store, api, logging.Discard()), ledger, store, api
}

func TestSearch_ChargesAndRecords(t *testing.T) {
	svc, ledger, store, _ := newLeadService(5)
	q := models.SearchQuery{Company: "acme"}

	got, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, acme, got)

	assert.Equal(t, 4, ledger.balance())
	assert.Equal(t, acme, store.Leads())
	require.Len(t, store.SearchHistory(), 1)
	assert.Equal(t, q, store.SearchHistory()[0].SearchQuery)
	assert.False(t, store.Loading())
}

func TestSearch_NoCredits(t *testing.T) {
	svc, ledger, store, api := newLeadService(0)

	_, err := svc.Search(context.Background(), models.SearchQuery{})
	require.ErrorIs(t, err, common.ErrInsufficientCredits)
	assert.Equal(t, 0, api.searchCalls)
	assert.Equal(t, 0, ledger.balance())
	assert.Empty(t, store.SearchHistory())
}

func TestSearch_NotLoggedIn(t *testing.T) {
	svc, ledger, _, api := newLeadService(5)
	ledger.loggedIn = false

	_, err := svc.Search(context.Background(), models.SearchQuery{})
	require.ErrorIs(t, err, common.ErrNotLoggedIn)
	assert.Equal(t, 0, api.searchCalls)
}

func TestSearch_FailureRefunds(t *testing.T) {
	svc, ledger, store, api := newLeadService(3)
	store.SetLeads(acme[:1])
	api.err = errors.New("rate limited")

	_, err := svc.Search(context.Background(), models.SearchQuery{Company: "x"})
	require.ErrorIs(t, err, api.err)

	assert.Equal(t, 3, ledger.balance())
	assert.Equal(t, acme[:1], store.Leads(), "previous results stay")
	assert.Empty(t, store.SearchHistory())
	assert.False(t, store.Loading())
}

func TestSearch_RefundSurvivesCancelledContext(t *testing.T) {
	svc, ledger, _, api := newLeadService(1)
	api.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, models.SearchQuery{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ledger.balance())
}

func TestSearch_ConcurrentNeverOverspends(t *testing.T) {
	svc, ledger, _, api := newLeadService(5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, refused := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Search(context.Background(), models.SearchQuery{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, common.ErrInsufficientCredits):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 15, refused)
	assert.Equal(t, 0, ledger.balance())
	assert.Equal(t, 5, api.searchCalls)
}

func TestSaveContact(t *testing.T) {
	svc, ledger, store, _ := newLeadService(2)
	ctx := context.Background()

	require.NoError(t, svc.SaveContact(ctx, acme[0]))
	assert.Equal(t, 1, ledger.balance())
	assert.True(t, store.IsSaved("john@acme.com"))

	dup := acme[0]
	dup.ID = 99
	require.ErrorIs(t, svc.SaveContact(ctx, dup), common.ErrAlreadySaved)
	assert.Equal(t, 1, ledger.balance(), "duplicates are free")
	require.Len(t, store.SavedContacts(), 1)
	assert.Equal(t, 1, store.SavedContacts()[0].ID)

	require.NoError(t, svc.SaveContact(ctx, acme[1]))
	assert.Equal(t, 0, ledger.balance())

	err := svc.SaveContact(ctx, models.Lead{ID: 3, Email: "new@acme.com"})
	require.ErrorIs(t, err, common.ErrInsufficientCredits)
	assert.False(t, store.IsSaved("new@acme.com"))
}

func TestSaveContact_ConcurrentDuplicateChargesOnce(t *testing.T) {
	svc, ledger, store, _ := newLeadService(10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.SaveContact(context.Background(), acme[0])
			if err != nil {
				assert.ErrorIs(t, err, common.ErrAlreadySaved)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, store.SavedContacts(), 1)
	assert.Equal(t, 9, ledger.balance())
}

func TestEnrich(t *testing.T) {
	svc, ledger, _, api := newLeadService(0)

	e, err := svc.Enrich(context.Background(), "john@acme.com")
	require.NoError(t, err)
	assert.True(t, e.Verified)
	assert.Equal(t, 0, ledger.balance(), "enrichment is free")

	api.err = errors.New("down")
	_, err = svc.Enrich(context.Background(), "john@acme.com")
	require.ErrorIs(t, err, api.err)

	ledger.loggedIn = false
	_, err = svc.Enrich(context.Background(), "john@acme.com")
	require.ErrorIs(t, err, common.ErrNotLoggedIn)
}
