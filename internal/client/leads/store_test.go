package leads

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tick struct {
	mu sync.Mutex
	t  time.Time
}

// now advances by one second on every call.
func (c *tick) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() (*Store, *tick) {
	clk := &tick{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(WithClock(clk.now)), clk
}

func lead(id int, email string) models.Lead {
	return models.Lead{ID: id, Name: fmt.Sprintf("Lead %d", id), Email: email, Company: "Acme"}
}

func TestLeads_SetAddClear(t *testing.T) {
	s, _ := newStore()

	in := []models.Lead{lead(1, "a@x.com"), lead(2, "b@x.com")}
	s.SetLeads(in)
	in[0].Name = "mutated"
	assert.Equal(t, "Lead 1", s.Leads()[0].Name, "SetLeads copies its input")

	s.AddLead(lead(3, "c@x.com"))
	require.Len(t, s.Leads(), 3)
	assert.Equal(t, 3, s.Leads()[2].ID)

	s.ClearLeads()
	assert.Empty(t, s.Leads())
}

func TestSaveContact_DuplicateEmailKeepsFirst(t *testing.T) {
	s, _ := newStore()

	require.True(t, s.SaveContact(lead(1, "a@x.com")))
	before := s.SavedContacts()

	require.False(t, s.SaveContact(lead(2, "a@x.com")))
	after := s.SavedContacts()

	require.Len(t, after, 1)
	assert.Equal(t, 1, after[0].ID)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("second save changed the contact book (-before +after):\n%s", diff)
	}
}

func TestSaveContact_StampsSavedAt(t *testing.T) {
	s, _ := newStore()

	s.SaveContact(lead(1, "a@x.com"))
	s.SaveContact(lead(2, "b@x.com"))

	got := s.SavedContacts()
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC), got[0].SavedAt)
	assert.True(t, got[1].SavedAt.After(got[0].SavedAt))
	assert.True(t, s.IsSaved("b@x.com"))
	assert.False(t, s.IsSaved("B@x.com"))
}

func TestRemoveContact(t *testing.T) {
	s, _ := newStore()
	s.SaveContact(lead(1, "a@x.com"))
	s.SaveContact(lead(2, "b@x.com"))

	s.RemoveContact(42)
	assert.Len(t, s.SavedContacts(), 2)

	s.RemoveContact(1)
	got := s.SavedContacts()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	assert.False(t, s.IsSaved("a@x.com"))
}

func TestAddSearchHistory_KeepsTenMostRecent(t *testing.T) {
	s, _ := newStore()

	for i := 1; i <= 11; i++ {
		s.AddSearchHistory(models.SearchQuery{Company: fmt.Sprintf("c%d", i)})
	}

	h := s.SearchHistory()
	require.Len(t, h, MaxSearchHistory)
	for i, e := range h {
		assert.Equal(t, fmt.Sprintf("c%d", 11-i), e.Company)
	}
	for i := 1; i < len(h); i++ {
		assert.True(t, h[i-1].Timestamp.After(h[i].Timestamp))
	}
}

func TestLoadingFlag(t *testing.T) {
	s, _ := newStore()
	assert.False(t, s.Loading())
	s.SetLoading(true)
	assert.True(t, s.Loading())
}

func TestReset(t *testing.T) {
	s, _ := newStore()
	s.SetLeads([]models.Lead{lead(1, "a@x.com")})
	s.SaveContact(lead(1, "a@x.com"))
	s.AddSearchHistory(models.SearchQuery{Company: "Acme"})
	s.SetLoading(true)

	s.Reset()

	assert.Empty(t, s.Leads())
	assert.Empty(t, s.SavedContacts())
	assert.Empty(t, s.SearchHistory())
	assert.False(t, s.Loading())
	assert.False(t, s.IsSaved("a@x.com"))
}

func TestStats(t *testing.T) {
	s, _ := newStore()
	s.SaveContact(lead(1, "a@x.com"))
	s.AddSearchHistory(models.SearchQuery{Company: "Acme"})
	s.AddSearchHistory(models.SearchQuery{Company: "Globex"})

	assert.Equal(t, models.DashboardStats{TotalContacts: 1, TotalSearches: 2, CreditsUsed: 60}, s.Stats(40))
	assert.Equal(t, 0, s.Stats(150).CreditsUsed)
}

func TestFilterContacts(t *testing.T) {
	s, _ := newStore()
	s.SaveContact(models.Lead{ID: 1, Name: "John Smith", Email: "john@techcorp.com", Company: "TechCorp"})
	s.SaveContact(models.Lead{ID: 2, Name: "Sarah Johnson", Email: "sarah@startup.io", Company: "StartupIO"})

	assert.Len(t, s.FilterContacts(""), 2)
	assert.Len(t, s.FilterContacts("JOHN"), 2)
	got := s.FilterContacts("startup")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s, _ := newStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SaveContact(lead(i, fmt.Sprintf("user%d@x.com", i%10)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.SavedContacts(), 10)
}
