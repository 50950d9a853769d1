// Package users persists the accounts and sessions of the embedded local
// identity provider.
package users

import (
	"context"
	"time"
)

// LocalUser is an account known to the local provider. The password is
// never stored; Salt and Verifier are enough to check it.
type LocalUser struct {
	ID        string
	Email     string
	Name      string
	Company   string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

// LocalSession binds an opaque token to a user until ExpiresAt.
type LocalSession struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Repository defines the storage contract of the local provider.
//
// Lookups return common.ErrNotFound when nothing matches. Deleting an
// absent session is not an error.
type Repository interface {
	Create(ctx context.Context, user *LocalUser) error
	// CreateWithSession stores a new user together with its first session;
	// either both rows are written or neither is.
	CreateWithSession(ctx context.Context, user *LocalUser, s *LocalSession) error
	GetByEmail(ctx context.Context, email string) (*LocalUser, error)
	GetByID(ctx context.Context, id string) (*LocalUser, error)

	CreateSession(ctx context.Context, s *LocalSession) error
	FindSession(ctx context.Context, token string) (*LocalSession, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
