package cli

import (
	"context"
)

// Dashboard prints the account overview and the latest searches.
func (a *App) Dashboard(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	st := a.auth.State()
	stats := a.leads.Stats(st.Credits)

	a.printf("Welcome back, %s!\n", displayName(st.User))
	a.printf("Total contacts:    %d\n", stats.TotalContacts)
	a.printf("Searches:          %d\n", stats.TotalSearches)
	a.printf("Credits remaining: %d\n", st.Credits)
	a.printf("Credits used:      %d\n", stats.CreditsUsed)
	if st.Subscription != nil {
		a.printf("Plan:              %s\n", st.Subscription.Plan)
	}

	recent := a.leads.SearchHistory()
	if len(recent) > 3 {
		recent = recent[:3]
	}
	if len(recent) > 0 {
		a.println("Recent searches:")
		for _, h := range recent {
			a.printf("  %s  %s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), describeQuery(h.SearchQuery))
		}
	}
	return nil
}
