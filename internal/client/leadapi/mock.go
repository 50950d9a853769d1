package leadapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

const (
	verifiedThreshold = 0.3
	lastActiveWindow  = 30 * 24 * time.Hour
)

// ErrInvalidEmail is returned by EnrichContact for a malformed address.
var ErrInvalidEmail = errors.New("invalid email")

var catalog = []models.Lead{
	{
		ID:          1,
		Name:        "John Smith",
		Email:       "john.smith@techcorp.com",
		Company:     "TechCorp Inc.",
		Title:       "VP of Sales",
		Phone:       "+1-555-0123",
		LinkedIn:    "https://linkedin.com/in/johnsmith",
		Location:    "San Francisco, CA",
		Industry:    "Technology",
		CompanySize: "100-500",
		Revenue:     "$10M-$50M",
	},
	{
		ID:          2,
		Name:        "Sarah Johnson",
		Email:       "sarah.johnson@innovate.com",
		Company:     "Innovate Solutions",
		Title:       "Marketing Director",
		Phone:       "+1-555-0124",
		LinkedIn:    "https://linkedin.com/in/sarahjohnson",
		Location:    "New York, NY",
		Industry:    "Marketing",
		CompanySize: "50-100",
		Revenue:     "$5M-$10M",
	},
	{
		ID:          3,
		Name:        "Michael Chen",
		Email:       "michael.chen@startup.io",
		Company:     "Startup.io",
		Title:       "CEO",
		Phone:       "+1-555-0125",
		LinkedIn:    "https://linkedin.com/in/michaelchen",
		Location:    "Austin, TX",
		Industry:    "SaaS",
		CompanySize: "10-50",
		Revenue:     "$1M-$5M",
	},
}

// MockService serves a fixed lead catalog after an artificial delay.
type MockService struct {
	searchLatency time.Duration
	enrichLatency time.Duration
	now           func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// MockOption configures a MockService.
type MockOption func(*MockService)

// WithLatency sets the simulated delay of searches and enrichments.
func WithLatency(search, enrich time.Duration) MockOption {
	return func(m *MockService) {
		m.searchLatency = search
		m.enrichLatency = enrich
	}
}

// WithRand sets the random source used for enrichment.
func WithRand(r *rand.Rand) MockOption {
	return func(m *MockService) { m.rnd = r }
}

// WithClock overrides the clock used for lastActive.
func WithClock(now func() time.Time) MockOption {
	return func(m *MockService) { m.now = now }
}

// NewMockService constructs a MockService over the built-in catalog.
func NewMockService(opts ...MockOption) *MockService {
	m := &MockService{
		searchLatency: 1500 * time.Millisecond,
		enrichLatency: time.Second,
		now:           time.Now,
		rnd:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SearchLeads matches the company filter as a case-insensitive substring.
// The other filters are accepted but do not narrow the mock catalog.
func (m *MockService) SearchLeads(ctx context.Context, query models.SearchQuery) ([]models.Lead, error) {
	if err := common.SleepContext(ctx, m.searchLatency); err != nil {
		return nil, err
	}

	company := strings.ToLower(strings.TrimSpace(query.Company))
	out := make([]models.Lead, 0, len(catalog))
	for _, l := range catalog {
		if company == "" || strings.Contains(strings.ToLower(l.Company), company) {
			out = append(out, l)
		}
	}
	return out, nil
}

// EnrichContact fabricates verification and social data for email.
func (m *MockService) EnrichContact(ctx context.Context, email string) (*models.Enrichment, error) {
	local, _, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return nil, ErrInvalidEmail
	}

	if err := common.SleepContext(ctx, m.enrichLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	verified := m.rnd.Float64() > verifiedThreshold
	ago := time.Duration(m.rnd.Int64N(int64(lastActiveWindow)))
	m.mu.Unlock()

	return &models.Enrichment{
		Email:    email,
		Verified: verified,
		SocialProfiles: models.SocialProfiles{
			LinkedIn: "https://linkedin.com/in/" + local,
			Twitter:  "https://twitter.com/" + local,
		},
		LastActive: m.now().Add(-ago),
	}, nil
}
