package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/cryptox"
	"github.com/google/uuid"
)

const (
	defaultLocalSessionTTL = 7 * 24 * time.Hour
	minPasswordLength      = 6
)

var (
	errInvalidCredentials = &ProviderError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	errUserExists         = &ProviderError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
)

// LocalProvider is a Provider that keeps accounts in the local database.
// Passwords are checked against an argon2id-derived verifier.
type LocalProvider struct {
	repo users.Repository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	session *models.ProviderSession
	events  *emitter
}

// LocalOption configures a LocalProvider.
type LocalOption func(*LocalProvider)

// WithSessionTTL sets how long a local session stays valid.
func WithSessionTTL(d time.Duration) LocalOption {
	return func(p *LocalProvider) { p.ttl = d }
}

// WithLocalClock overrides the provider clock.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) { p.now = now }
}

// NewLocalProvider constructs a LocalProvider storing users in repo.
func NewLocalProvider(repo users.Repository, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		repo:   repo,
		ttl:    defaultLocalSessionTTL,
		now:    time.Now,
		events: newEmitter(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SignUp registers a user and starts their first session in one
// transaction.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, *models.ProviderSession, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, &ProviderError{Status: http.StatusBadRequest, Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < minPasswordLength {
		return nil, nil, &ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Password should be at least %d characters", minPasswordLength),
		}
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	u := &users.LocalUser{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      profile.Name,
		Company:   profile.Company,
		Salt:      salt,
		Verifier:  cryptox.MakeVerifier(key),
		CreatedAt: p.now().UTC(),
	}

	ls := p.newLocalSession(u)
	if err := p.repo.CreateWithSession(ctx, u, ls); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return nil, nil, errUserExists
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s := p.activate(u, ls)
	user := s.User
	return &user, s, nil
}

// SignInWithPassword checks the password against the stored verifier
// and starts a new session.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.ProviderSession, error) {
	u, err := p.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !cryptox.CheckPassword([]byte(password), u.Salt, u.Verifier) {
		return nil, errInvalidCredentials
	}

	if _, err := p.repo.DeleteExpiredSessions(ctx, p.now()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return p.startSession(ctx, u)
}

// normalizeEmail makes sign-up and sign-in agree on one spelling of an
// address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) newLocalSession(u *users.LocalUser) *users.LocalSession {
	return &users.LocalSession{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: p.now().Add(p.ttl).UTC(),
	}
}

func (p *LocalProvider) startSession(ctx context.Context, u *users.LocalUser) (*models.ProviderSession, error) {
	ls := p.newLocalSession(u)
	if err := p.repo.CreateSession(ctx, ls); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return p.activate(u, ls), nil
}

// activate makes ls the current session and announces it.
func (p *LocalProvider) activate(u *users.LocalUser, ls *users.LocalSession) *models.ProviderSession {
	s := &models.ProviderSession{
		AccessToken: ls.Token,
		TokenType:   "bearer",
		ExpiresAt:   ls.ExpiresAt,
		User:        models.User{ID: u.ID, Email: u.Email, Name: u.Name, Company: u.Company},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = copySession(s)
	p.events.emit(signedInEvent(s))

	return s
}

func (p *LocalProvider) dropSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	ended := p.session
	p.session = nil
	p.events.emit(signedOutEvent(ended))
}

// GetSession looks the current token up in the database.
func (p *LocalProvider) GetSession(ctx context.Context) (*models.ProviderSession, error) {
	p.mu.Lock()
	s := copySession(p.session)
	p.mu.Unlock()

	if s == nil {
		return nil, common.ErrNoSession
	}

	ls, err := p.repo.FindSession(ctx, s.AccessToken)
	if errors.Is(err, common.ErrNotFound) {
		p.dropSession()
		return nil, common.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !p.now().Before(ls.ExpiresAt) {
		if err := p.repo.DeleteSession(ctx, ls.Token); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		p.dropSession()
		return nil, common.ErrNoSession
	}

	u, err := p.repo.GetByID(ctx, ls.UserID)
	if errors.Is(err, common.ErrNotFound) {
		p.dropSession()
		return nil, common.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.ExpiresAt = ls.ExpiresAt
	s.User = models.User{ID: u.ID, Email: u.Email, Name: u.Name, Company: u.Company}
	return s, nil
}

// SetSession adopts a restored session; GetSession validates it later.
func (p *LocalProvider) SetSession(_ context.Context, s *models.ProviderSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = copySession(s)
}

// SignOut deletes the current session. The in-memory session is dropped
// even when the delete fails.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	s := copySession(p.session)
	p.mu.Unlock()

	defer p.dropSession()

	if s == nil {
		return nil
	}
	if err := p.repo.DeleteSession(ctx, s.AccessToken); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Ping always succeeds unless ctx is done; the database is local.
func (p *LocalProvider) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Events returns the channel of auth state changes.
func (p *LocalProvider) Events() <-chan Event {
	return p.events.ch
}

// Close closes the event channel.
func (p *LocalProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events.close()
	return nil
}
