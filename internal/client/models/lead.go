package models

import "time"

// Lead is a prospective contact returned by the lead search API.
type Lead struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Phone       string `json:"phone"`
	LinkedIn    string `json:"linkedin"`
	Location    string `json:"location"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
	Revenue     string `json:"revenue,omitempty"`
}

// SavedContact is a lead kept in the user's contact book.
type SavedContact struct {
	Lead
	SavedAt time.Time `json:"savedAt"`
}

// SearchQuery holds the lead search filters. Empty fields do not filter.
type SearchQuery struct {
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
}

// SearchHistoryEntry is a past search with its time.
type SearchHistoryEntry struct {
	SearchQuery
	Timestamp time.Time `json:"timestamp"`
}

// SocialProfiles holds profile URLs found by enrichment.
type SocialProfiles struct {
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
}

// Enrichment is the contact enrichment API response.
type Enrichment struct {
	Email          string         `json:"email"`
	Verified       bool           `json:"verified"`
	SocialProfiles SocialProfiles `json:"socialProfiles"`
	LastActive     time.Time      `json:"lastActive"`
}

// DashboardStats are the counters shown on the dashboard.
type DashboardStats struct {
	TotalContacts int
	TotalSearches int
	CreditsUsed   int
}
