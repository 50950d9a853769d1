// Package leads holds the in-memory Leads Store: the current search
// results, the saved contact book and the recent search history.
//
// Nothing here is persisted and no operation fails. All methods are safe
// for concurrent use.
package leads

import (
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// MaxSearchHistory bounds the search history; older entries are evicted.
const MaxSearchHistory = 10

// creditsBaseline is the reference balance the dashboard measures usage
// against.
const creditsBaseline = 100

// Store is the Leads Store.
type Store struct {
	now func() time.Time

	mu       sync.Mutex
	leads    []models.Lead
	contacts []models.SavedContact
	history  []models.SearchHistoryEntry
	loading  bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for SavedAt and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetLeads replaces the current results.
func (s *Store) SetLeads(list []models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append([]models.Lead(nil), list...)
}

// AddLead appends one result.
func (s *Store) AddLead(lead models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
}

// Leads returns a copy of the current results.
func (s *Store) Leads() []models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Lead(nil), s.leads...)
}

// ClearLeads drops the current results.
func (s *Store) ClearLeads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = nil
}

// SaveContact adds lead to the contact book, stamped with the current time.
// It reports false and changes nothing if a contact with the same email is
// already saved.
func (s *Store) SaveContact(lead models.Lead) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByEmailLocked(lead.Email) >= 0 {
		return false
	}
	s.contacts = append(s.contacts, models.SavedContact{Lead: lead, SavedAt: s.now()})
	return true
}

// RemoveContact drops every saved contact with the given id.
func (s *Store) RemoveContact(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.contacts[:0]
	for _, c := range s.contacts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.contacts = kept
}

// Reset drops results, contacts and history, for example when another
// account signs in.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = nil
	s.contacts = nil
	s.history = nil
	s.loading = false
}

// SavedContacts returns a copy of the contact book, oldest first.
func (s *Store) SavedContacts() []models.SavedContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SavedContact(nil), s.contacts...)
}

// IsSaved matches emails exactly, like SaveContact.
func (s *Store) IsSaved(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexByEmailLocked(email) >= 0
}

func (s *Store) indexByEmailLocked(email string) int {
	for i, c := range s.contacts {
		if c.Email == email {
			return i
		}
	}
	return -1
}

// AddSearchHistory records query as the most recent search.
func (s *Store) AddSearchHistory(query models.SearchQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.SearchHistoryEntry{SearchQuery: query, Timestamp: s.now()}
	next := make([]models.SearchHistoryEntry, 0, MaxSearchHistory)
	next = append(next, entry)
	for _, e := range s.history {
		if len(next) == MaxSearchHistory {
			break
		}
		next = append(next, e)
	}
	s.history = next
}

// SearchHistory returns the history, most recent first.
func (s *Store) SearchHistory() []models.SearchHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SearchHistoryEntry(nil), s.history...)
}

// SetLoading marks a search as in flight.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading reports whether a search is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Stats computes the dashboard counters for the given credit balance.
func (s *Store) Stats(credits int) models.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := creditsBaseline - credits
	if used < 0 {
		used = 0
	}
	return models.DashboardStats{
		TotalContacts: len(s.contacts),
		TotalSearches: len(s.history),
		CreditsUsed:   used,
	}
}

// FilterContacts returns saved contacts whose name, email or company
// contains term, ignoring case. An empty term matches everything.
func (s *Store) FilterContacts(term string) []models.SavedContact {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	var out []models.SavedContact
	for _, c := range s.contacts {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Email), term) ||
			strings.Contains(strings.ToLower(c.Company), term) {
			out = append(out, c)
		}
	}
	return out
}
