// Package models holds the data types shared by the LeadKeeper client layers.
package models

import "time"

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
)

// User is the signed-in account.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

// ProviderSession is the session handle issued by the identity provider.
type ProviderSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now. A zero
// ExpiresAt never expires.
func (s *ProviderSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Subscription is the user's plan and its billing status.
type Subscription struct {
	Plan            Plan               `json:"plan"`
	Status          SubscriptionStatus `json:"status"`
	NextBillingDate *time.Time         `json:"nextBillingDate,omitempty"`
}

// DefaultSubscription is assigned to every new session.
func DefaultSubscription() Subscription {
	return Subscription{Plan: PlanFree, Status: StatusActive}
}

// SessionState is a point-in-time copy of the Session Store.
type SessionState struct {
	User         *User
	Session      *ProviderSession
	Subscription *Subscription
	Credits      int
	Loading      bool
}

// LoggedIn reports whether a user is present.
func (s SessionState) LoggedIn() bool {
	return s.User != nil
}

// Snapshot is the persisted projection of the Session Store. Loading is
// deliberately absent.
type Snapshot struct {
	User         *User            `json:"user"`
	Session      *ProviderSession `json:"session"`
	Subscription *Subscription    `json:"subscription"`
	Credits      int              `json:"credits"`
}

// LoginData is what the provider event dispatcher hands to the store when a
// SignedIn event arrives.
type LoginData struct {
	User         User
	Session      *ProviderSession
	Subscription *Subscription
	Credits      int
}

// Profile is the extra metadata collected at sign-up.
type Profile struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}
