package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/leadkeeper/internal/client/leadapi"
	"github.com/dmitrijs2005/leadkeeper/internal/client/leads"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

// LeadService runs the credit-charged lead flows.
//
// A credit is reserved before the lead API is called and refunded if the
// call fails, so concurrent flows can never spend the same credit.
type LeadService interface {
	Search(ctx context.Context, query models.SearchQuery) ([]models.Lead, error)
	SaveContact(ctx context.Context, lead models.Lead) error
	Enrich(ctx context.Context, email string) (*models.Enrichment, error)
}

type leadService struct {
	ledger CreditLedger
	leads  *leads.Store
	api    leadapi.Service
	log    logging.Logger
}

// NewLeadService constructs a LeadService that charges ledger and records
// results in store.
func NewLeadService(ledger CreditLedger, store *leads.Store, api leadapi.Service, log logging.Logger) LeadService {
	return &leadService{ledger: ledger, leads: store, api: api, log: log}
}

// reserve takes one credit or reports why it could not.
func (s *leadService) reserve(ctx context.Context) error {
	if !s.ledger.State().LoggedIn() {
		return common.ErrNotLoggedIn
	}
	ok, err := s.ledger.DeductCredit(ctx)
	if err != nil {
		return fmt.Errorf("reserve credit: %w", err)
	}
	if !ok {
		return common.ErrInsufficientCredits
	}
	return nil
}

// refund returns a reserved credit. It runs even if ctx was cancelled.
func (s *leadService) refund(ctx context.Context, reason error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.ledger.AddCredits(ctx, 1); err != nil {
		s.log.Warn(ctx, "credit refund failed", "reason", reason, "error", err)
		return
	}
	s.log.Debug(ctx, "credit refunded", "reason", reason)
}

// Search spends one credit, replaces the current results and records the
// query in the history.
func (s *leadService) Search(ctx context.Context, query models.SearchQuery) ([]models.Lead, error) {
	if err := s.reserve(ctx); err != nil {
		return nil, err
	}

	s.leads.SetLoading(true)
	defer s.leads.SetLoading(false)

	results, err := s.api.SearchLeads(ctx, query)
	if err != nil {
		s.refund(ctx, err)
		return nil, fmt.Errorf("search leads: %w", err)
	}

	s.leads.SetLeads(results)
	s.leads.AddSearchHistory(query)
	s.log.Info(ctx, "lead search", "company", query.Company, "results", len(results))
	return results, nil
}

// SaveContact spends one credit to add lead to the contact book. Saving an
// email that is already there costs nothing and returns ErrAlreadySaved.
func (s *leadService) SaveContact(ctx context.Context, lead models.Lead) error {
	if !s.ledger.State().LoggedIn() {
		return common.ErrNotLoggedIn
	}
	if s.leads.IsSaved(lead.Email) {
		return common.ErrAlreadySaved
	}

	if err := s.reserve(ctx); err != nil {
		return err
	}

	if !s.leads.SaveContact(lead) {
		s.refund(ctx, common.ErrAlreadySaved)
		return common.ErrAlreadySaved
	}

	s.log.Info(ctx, "contact saved", "email", lead.Email)
	return nil
}

// Enrich is free and does not require a credit.
func (s *leadService) Enrich(ctx context.Context, email string) (*models.Enrichment, error) {
	if !s.ledger.State().LoggedIn() {
		return nil, common.ErrNotLoggedIn
	}
	e, err := s.api.EnrichContact(ctx, email)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("enrich %s: %w", email, err)
	}
	return e, nil
}
