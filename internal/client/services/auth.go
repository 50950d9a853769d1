package services

import (
	"context"

	"github.com/dmitrijs2005/leadkeeper/internal/client/identity"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/session"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an account at the provider and start a session.
//   - Login: password sign-in.
//   - Logout: end the session; local state is cleared even if the provider
//     call fails.
//   - Ping: check provider liveness, used for the online/offline indicator.
//   - UpdateProfile: change the signed-in user's name and company.
//   - State: current session state.
//   - Close: release the provider.
type AuthService interface {
	Register(ctx context.Context, email, password string, profile models.Profile) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, profile models.Profile) (*models.User, error)
	Ping(ctx context.Context) error
	State() models.SessionState
	Close(ctx context.Context) error
}

type authService struct {
	store    *session.Store
	provider identity.Provider
}

// NewAuthService constructs an AuthService backed by the Session Store and
// the identity provider it wraps.
func NewAuthService(store *session.Store, provider identity.Provider) AuthService {
	return &authService{store: store, provider: provider}
}

// Register signs up through the Session Store.
func (a *authService) Register(ctx context.Context, email, password string, profile models.Profile) (*models.User, error) {
	return a.store.SignUp(ctx, email, password, profile)
}

// Login signs in and returns the signed-in user.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	s, err := a.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u := s.User
	return &u, nil
}

// Logout signs out through the Session Store.
func (a *authService) Logout(ctx context.Context) error {
	return a.store.SignOut(ctx)
}

// UpdateProfile updates the profile held by the Session Store.
func (a *authService) UpdateProfile(ctx context.Context, profile models.Profile) (*models.User, error) {
	return a.store.UpdateProfile(ctx, profile)
}

// Ping delegates to the provider.
func (a *authService) Ping(ctx context.Context) error {
	return a.provider.Ping(ctx)
}

// State returns the current session state.
func (a *authService) State() models.SessionState {
	return a.store.State()
}

// Close releases the provider.
func (a *authService) Close(ctx context.Context) error {
	return a.provider.Close()
}
