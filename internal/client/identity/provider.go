package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("identity provider unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ProviderError is a rejection reported by the provider itself, such as a
// wrong password or an already registered email.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// Unwrap lets 401 and 403 rejections match ErrUnauthorized.
func (e *ProviderError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// EventKind identifies an auth state change.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Event is an auth state change pushed by a provider. Session is set for
// SignedIn only. Token is the access token the event is about: the new one
// for SignedIn, the one being ended for SignedOut (empty if there was none).
type Event struct {
	Kind    EventKind
	Session *models.ProviderSession
	Token   string
}

// Provider is an external identity provider.
//
// GetSession returns common.ErrNoSession when the provider has no valid
// session and an error matching ErrUnavailable when it cannot be reached.
type Provider interface {
	GetSession(ctx context.Context) (*models.ProviderSession, error)
	SetSession(ctx context.Context, s *models.ProviderSession)
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, *models.ProviderSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.ProviderSession, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
	Events() <-chan Event
	Close() error
}

// eventBuffer is the capacity of a provider's event channel. Events beyond
// it are dropped rather than blocking the auth call.
const eventBuffer = 16

// emitter owns a provider's event channel.
type emitter struct {
	ch     chan Event
	closed bool
}

func newEmitter() *emitter {
	return &emitter{ch: make(chan Event, eventBuffer)}
}

// emit must be called with the owning provider's mutex held.
func (e *emitter) emit(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.ch <- ev:
	default:
	}
}

// close must be called with the owning provider's mutex held.
func (e *emitter) close() {
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

func signedInEvent(s *models.ProviderSession) Event {
	return Event{Kind: SignedIn, Session: copySession(s), Token: s.AccessToken}
}

func signedOutEvent(ended *models.ProviderSession) Event {
	ev := Event{Kind: SignedOut}
	if ended != nil {
		ev.Token = ended.AccessToken
	}
	return ev
}

func copySession(s *models.ProviderSession) *models.ProviderSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
