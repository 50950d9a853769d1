package leadapi

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastMock(opts ...MockOption) *MockService {
	return NewMockService(append([]MockOption{WithLatency(0, 0)}, opts...)...)
}

func TestSearchLeads_CompanyFilter(t *testing.T) {
	m := newFastMock()
	ctx := context.Background()

	tests := []struct {
		company string
		wantIDs []int
	}{
		{"", []int{1, 2, 3}},
		{"tech", []int{1}},
		{"INNOVATE", []int{2}},
		{"  startup ", []int{3}},
		{"o", []int{1, 2, 3}},
		{"nobody", []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.company, func(t *testing.T) {
			got, err := m.SearchLeads(ctx, models.SearchQuery{Company: tc.company, Title: "ignored"})
			require.NoError(t, err)
			ids := []int{}
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestSearchLeads_ReturnsCopies(t *testing.T) {
	m := newFastMock()
	got, err := m.SearchLeads(context.Background(), models.SearchQuery{})
	require.NoError(t, err)
	got[0].Name = "changed"

	again, err := m.SearchLeads(context.Background(), models.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, "John Smith", again[0].Name)
}

func TestSearchLeads_HonorsContext(t *testing.T) {
	m := NewMockService(WithLatency(time.Hour, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.SearchLeads(ctx, models.SearchQuery{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = m.EnrichContact(ctx, "a@b.c")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnrichContact(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	m := newFastMock(WithClock(func() time.Time { return now }), WithRand(rand.New(rand.NewPCG(1, 2))))

	verified := 0
	for i := 0; i < 200; i++ {
		e, err := m.EnrichContact(context.Background(), "jane.doe@example.com")
		require.NoError(t, err)

		assert.Equal(t, "jane.doe@example.com", e.Email)
		assert.Equal(t, "https://linkedin.com/in/jane.doe", e.SocialProfiles.LinkedIn)
		assert.Equal(t, "https://twitter.com/jane.doe", e.SocialProfiles.Twitter)
		assert.False(t, e.LastActive.After(now))
		assert.True(t, e.LastActive.After(now.Add(-lastActiveWindow-time.Second)))
		if e.Verified {
			verified++
		}
	}
	assert.Greater(t, verified, 100)
	assert.Less(t, verified, 190)
}

func TestEnrichContact_InvalidEmail(t *testing.T) {
	m := newFastMock()
	for _, email := range []string{"", "nobody", "@example.com"} {
		_, err := m.EnrichContact(context.Background(), email)
		require.ErrorIs(t, err, ErrInvalidEmail, email)
	}
}
