package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/leadkeeper/internal/client/identity"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

const (
	// SignUpCredits is the balance granted to a freshly registered account.
	SignUpCredits = 10
	// SignInCredits is the balance granted on every password sign-in.
	SignInCredits = 50
	// DefaultCredits applies when a session appears without a known balance.
	DefaultCredits = 10
)

// knownTokensLimit bounds how many past access tokens the store remembers
// for discarding stale provider events.
const knownTokensLimit = 64

// Store is the Session Store: the signed-in user, their provider session,
// subscription and credit balance. Every mutation is written through to a
// SnapshotStore before it becomes visible. Safe for concurrent use.
type Store struct {
	provider  identity.Provider
	snapshots SnapshotStore
	log       logging.Logger

	mu       sync.Mutex
	state    models.SessionState
	inflight int
	subs     map[int]chan models.SessionState
	nextSub  int
	closed   bool

	// known holds access tokens that have been current at some point,
	// oldest first.
	known []string
}

// New constructs a Store. Call Restore and then Initialize before use, and
// Close when done.
func New(provider identity.Provider, snapshots SnapshotStore, log logging.Logger) *Store {
	return &Store{
		provider:  provider,
		snapshots: snapshots,
		log:       log,
		subs:      make(map[int]chan models.SessionState),
	}
}

// State returns a copy of the current state.
func (s *Store) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Subscribe returns a channel that receives a copy of the state after every
// change, starting with the current one. Slow readers only see the latest
// state. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan models.SessionState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.SessionState, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- cloneState(s.state)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close detaches all subscribers. The provider is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}

// Restore loads the last snapshot without talking to the provider and hands
// the restored provider session back to it.
func (s *Store) Restore(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	next := stateFromSnapshot(*snap)
	next.Loading = s.state.Loading
	s.state = next
	if next.Session != nil {
		s.rememberLocked(next.Session.AccessToken)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if next.Session != nil {
		_, err := guard("set session", func() (struct{}, error) {
			s.provider.SetSession(ctx, copySession(next.Session))
			return struct{}{}, nil
		})
		if err != nil {
			s.log.Warn(ctx, "provider rejected restored session", "error", err)
		}
	}

	s.log.Debug(ctx, "session restored", "logged_in", next.LoggedIn(), "credits", next.Credits)
	return nil
}

// Initialize reconciles the restored state with the provider. Provider
// failures are logged, never returned; only persistence errors are.
func (s *Store) Initialize(ctx context.Context) error {
	s.beginLoading()
	defer s.endLoading()

	sess, err := guard("get session", func() (*models.ProviderSession, error) {
		return s.provider.GetSession(ctx)
	})

	switch {
	case err == nil && sess != nil:
		s.mu.Lock()
		defer s.mu.Unlock()

		next := cloneState(s.state)
		sameUser := next.User != nil && next.User.ID == sess.User.ID
		user := sess.User
		next.User = &user
		next.Session = copySession(sess)
		if !sameUser || next.Subscription == nil {
			sub := models.DefaultSubscription()
			next.Subscription = &sub
			next.Credits = DefaultCredits
		}
		s.log.Info(ctx, "session resumed", "user", user.Email, "same_user", sameUser)
		return s.commitLocked(ctx, next)

	case err == nil, errors.Is(err, common.ErrNoSession), errors.Is(err, identity.ErrUnauthorized):
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state.LoggedIn() {
			s.log.Info(ctx, "provider has no session, signing out locally")
		}
		return s.resetLocked(ctx)

	default:
		s.log.Warn(ctx, "identity provider unavailable, keeping restored session", "error", err)
		return nil
	}
}

// SignUp registers a new account. On success the user starts on the free
// plan with SignUpCredits.
func (s *Store) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, error) {
	s.beginLoading()
	defer s.endLoading()

	type result struct {
		user *models.User
		sess *models.ProviderSession
	}
	res, err := guard("sign up", func() (result, error) {
		u, sess, err := s.provider.SignUp(ctx, email, password, profile)
		return result{u, sess}, err
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if res.user == nil {
		return nil, errors.New("sign up: provider returned no user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := *res.user
	sub := models.DefaultSubscription()
	next := models.SessionState{
		User:         &user,
		Session:      copySession(res.sess),
		Subscription: &sub,
		Credits:      SignUpCredits,
		Loading:      s.state.Loading,
	}
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "signed up", "user", user.Email)
	out := user
	return &out, nil
}

// SignIn authenticates with email and password. Every successful sign-in
// resets the user to the free plan with SignInCredits.
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.ProviderSession, error) {
	s.beginLoading()
	defer s.endLoading()

	sess, err := guard("sign in", func() (*models.ProviderSession, error) {
		return s.provider.SignInWithPassword(ctx, email, password)
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if sess == nil {
		return nil, errors.New("sign in: provider returned no session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := sess.User
	sub := models.DefaultSubscription()
	next := models.SessionState{
		User:         &user,
		Session:      copySession(sess),
		Subscription: &sub,
		Credits:      SignInCredits,
		Loading:      s.state.Loading,
	}
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "signed in", "user", user.Email, "credits", SignInCredits)
	return copySession(sess), nil
}

// SignOut signs out at the provider and clears local state no matter what
// the provider said. The provider error, if any, is still returned.
func (s *Store) SignOut(ctx context.Context) error {
	s.beginLoading()
	defer s.endLoading()

	_, perr := guard("sign out", func() (struct{}, error) {
		return struct{}{}, s.provider.SignOut(ctx)
	})

	s.mu.Lock()
	serr := s.resetLocked(ctx)
	s.mu.Unlock()

	if perr != nil {
		s.log.Warn(ctx, "provider sign out failed, local session cleared", "error", perr)
		return errors.Join(fmt.Errorf("sign out: %w", perr), serr)
	}
	s.log.Info(ctx, "signed out")
	return serr
}

// Login applies a session pushed by the provider. For the user who is
// already signed in only the provider session is replaced.
func (s *Store) Login(ctx context.Context, data models.LoginData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx, data)
}

func (s *Store) loginLocked(ctx context.Context, data models.LoginData) error {
	next := cloneState(s.state)
	if next.User != nil && next.User.ID == data.User.ID {
		next.Session = copySession(data.Session)
		return s.commitLocked(ctx, next)
	}

	user := data.User
	next.User = &user
	next.Session = copySession(data.Session)

	sub := models.DefaultSubscription()
	if data.Subscription != nil {
		sub = *data.Subscription
	}
	next.Subscription = cloneSubscription(&sub)

	next.Credits = data.Credits
	if next.Credits <= 0 {
		next.Credits = DefaultCredits
	}
	return s.commitLocked(ctx, next)
}

// Logout clears the session without calling the provider.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

// ApplySignedIn applies a provider SignedIn event. Events for a token the
// store already holds or has held are stale, typically the echo of a direct
// SignIn or SignUp, and are ignored. It reports whether state changed.
func (s *Store) ApplySignedIn(ctx context.Context, sess *models.ProviderSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isKnownLocked(sess.AccessToken) {
		return false, nil
	}
	if err := s.loginLocked(ctx, models.LoginData{User: sess.User, Session: sess}); err != nil {
		return false, err
	}
	return true, nil
}

// ApplySignedOut applies a provider SignedOut event for token. It only
// clears the state when token is the current session's access token, so a
// late event cannot end a newer session. It reports whether state changed.
func (s *Store) ApplySignedOut(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Session == nil || s.state.Session.AccessToken != token {
		return false, nil
	}
	return true, s.resetLocked(ctx)
}

// DeductCredit takes one credit if the balance allows it. It reports false
// and leaves the state untouched when the balance is zero.
func (s *Store) DeductCredit(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Credits <= 0 {
		return false, nil
	}

	next := cloneState(s.state)
	next.Credits--
	if err := s.commitLocked(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// AddCredits increases the balance by amount, which must be positive.
func (s *Store) AddCredits(ctx context.Context, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("add credits %d: %w", amount, common.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn() {
		return common.ErrNotLoggedIn
	}

	next := cloneState(s.state)
	next.Credits += amount
	return s.commitLocked(ctx, next)
}

// UpdateCredits sets the balance to credits, which must not be negative.
func (s *Store) UpdateCredits(ctx context.Context, credits int) error {
	if credits < 0 {
		return fmt.Errorf("set credits %d: %w", credits, common.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn() {
		return common.ErrNotLoggedIn
	}

	next := cloneState(s.state)
	next.Credits = credits
	return s.commitLocked(ctx, next)
}

// UpdateProfile sets the name and company of the signed-in user and
// returns the updated user. The name must not be blank. The change is local:
// the provider keeps the profile it was given at sign-up.
func (s *Store) UpdateProfile(ctx context.Context, profile models.Profile) (*models.User, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, fmt.Errorf("update profile: %w", common.ErrInvalidProfile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn() {
		return nil, common.ErrNotLoggedIn
	}

	next := cloneState(s.state)
	next.User.Name = name
	next.User.Company = strings.TrimSpace(profile.Company)
	if next.Session != nil {
		next.Session.User = *next.User
	}
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	u := *next.User
	return &u, nil
}

// UpdateSubscription replaces the subscription wholesale.
func (s *Store) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn() {
		return common.ErrNotLoggedIn
	}

	next := cloneState(s.state)
	next.Subscription = cloneSubscription(&sub)
	return s.commitLocked(ctx, next)
}

// commitLocked persists next and, only if that succeeds, makes it current.
func (s *Store) commitLocked(ctx context.Context, next models.SessionState) error {
	if err := s.snapshots.Save(ctx, snapshotOf(next)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	next.Loading = s.state.Loading
	s.state = next
	if next.Session != nil {
		s.rememberLocked(next.Session.AccessToken)
	}
	s.broadcastLocked()
	return nil
}

func (s *Store) rememberLocked(token string) {
	if token == "" || s.isKnownLocked(token) {
		return
	}
	if len(s.known) == knownTokensLimit {
		s.known = append(s.known[:0], s.known[1:]...)
	}
	s.known = append(s.known, token)
}

func (s *Store) isKnownLocked(token string) bool {
	for _, t := range s.known {
		if t == token {
			return true
		}
	}
	return false
}

// resetLocked clears the in-memory state even when persisting fails.
func (s *Store) resetLocked(ctx context.Context) error {
	s.state = models.SessionState{Loading: s.state.Loading}
	s.broadcastLocked()
	if err := s.snapshots.Save(ctx, models.Snapshot{}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Store) beginLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	if !s.state.Loading {
		s.state.Loading = true
		s.broadcastLocked()
	}
}

func (s *Store) endLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight > 0 {
		s.inflight--
	}
	if s.inflight == 0 && s.state.Loading {
		s.state.Loading = false
		s.broadcastLocked()
	}
}

func (s *Store) broadcastLocked() {
	for _, ch := range s.subs {
		st := cloneState(s.state)
		select {
		case ch <- st:
		default:
			// Replace the unread state with the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

// guard turns a provider panic into an error.
func guard[T any](op string, fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: provider panic: %v", op, r)
		}
	}()
	return fn()
}

func snapshotOf(st models.SessionState) models.Snapshot {
	c := cloneState(st)
	return models.Snapshot{
		User:         c.User,
		Session:      c.Session,
		Subscription: c.Subscription,
		Credits:      c.Credits,
	}
}

func stateFromSnapshot(snap models.Snapshot) models.SessionState {
	st := cloneState(models.SessionState{
		User:         snap.User,
		Session:      snap.Session,
		Subscription: snap.Subscription,
		Credits:      snap.Credits,
	})
	if st.User == nil {
		return models.SessionState{}
	}
	if st.Credits < 0 {
		st.Credits = 0
	}
	return st
}

func cloneState(st models.SessionState) models.SessionState {
	out := st
	if st.User != nil {
		u := *st.User
		out.User = &u
	}
	out.Session = copySession(st.Session)
	out.Subscription = cloneSubscription(st.Subscription)
	return out
}

func cloneSubscription(sub *models.Subscription) *models.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	if sub.NextBillingDate != nil {
		d := *sub.NextBillingDate
		c.NextBillingDate = &d
	}
	return &c
}

func copySession(s *models.ProviderSession) *models.ProviderSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
