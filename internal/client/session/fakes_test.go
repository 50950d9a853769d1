package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/leadkeeper/internal/client/identity"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// fakeProvider is an in-memory identity.Provider with scripted answers.
type fakeProvider struct {
	mu sync.Mutex

	GetSessionRet *models.ProviderSession
	GetSessionErr error

	SignUpUser *models.User
	SignUpSess *models.ProviderSession
	SignUpErr  error

	SignInRet *models.ProviderSession
	SignInErr error

	SignOutErr error

	PanicOn string

	// When Gate is set, GetSession and SignInWithPassword report on Entered
	// and then block until Gate yields.
	Gate    chan struct{}
	Entered chan string

	SetSessionArg  *models.ProviderSession
	GetSessionHits int
	events         chan identity.Event
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{events: make(chan identity.Event, 8)}
}

func (f *fakeProvider) maybePanic(op string) {
	if f.PanicOn == op {
		panic(op + " exploded")
	}
}

func (f *fakeProvider) wait(op string) {
	if f.Gate == nil {
		return
	}
	f.Entered <- op
	<-f.Gate
}

func (f *fakeProvider) GetSession(ctx context.Context) (*models.ProviderSession, error) {
	f.wait("GetSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maybePanic("GetSession")
	f.GetSessionHits++
	return f.GetSessionRet, f.GetSessionErr
}

func (f *fakeProvider) SetSession(ctx context.Context, s *models.ProviderSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetSessionArg = s
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, *models.ProviderSession, error) {
	f.maybePanic("SignUp")
	return f.SignUpUser, f.SignUpSess, f.SignUpErr
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.ProviderSession, error) {
	f.wait("SignIn")
	f.maybePanic("SignIn")
	return f.SignInRet, f.SignInErr
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.maybePanic("SignOut")
	return f.SignOutErr
}

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }
func (f *fakeProvider) Events() <-chan identity.Event  { return f.events }
func (f *fakeProvider) Close() error                   { return nil }

// memSnapshots is an in-memory SnapshotStore.
type memSnapshots struct {
	mu      sync.Mutex
	snap    *models.Snapshot
	saves   int
	SaveErr error
}

func (m *memSnapshots) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	c := snapshotOf(stateFromSnapshot(*m.snap))
	return &c, nil
}

func (m *memSnapshots) Save(ctx context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves++
	m.snap = &snap
	return nil
}

func (m *memSnapshots) last() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return models.Snapshot{}
	}
	return *m.snap
}

var errBoom = errors.New("boom")
