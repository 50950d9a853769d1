package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

const defaultRequestTimeout = 10 * time.Second

// GoTrueClient is a Provider backed by a Supabase/GoTrue auth server.
type GoTrueClient struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	timeout   time.Duration
	inspector *TokenInspector
	now       func() time.Time

	mu      sync.Mutex
	session *models.ProviderSession
	events  *emitter
}

// GoTrueOption configures a GoTrueClient.
type GoTrueOption func(*GoTrueClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) GoTrueOption {
	return func(g *GoTrueClient) { g.http = c }
}

// WithRequestTimeout bounds every request, so a hung provider cannot block
// the caller indefinitely.
func WithRequestTimeout(d time.Duration) GoTrueOption {
	return func(g *GoTrueClient) { g.timeout = d }
}

// WithTokenInspector sets the inspector used to read access tokens.
func WithTokenInspector(i *TokenInspector) GoTrueOption {
	return func(g *GoTrueClient) { g.inspector = i }
}

// WithClock overrides the clock used for token expiry.
func WithClock(now func() time.Time) GoTrueOption {
	return func(g *GoTrueClient) { g.now = now }
}

// NewGoTrueClient builds a client for the auth server at baseURL (the
// project URL, without the /auth/v1 suffix). apiKey is sent as the apikey
// header on every request.
func NewGoTrueClient(baseURL, apiKey string, opts ...GoTrueOption) *GoTrueClient {
	c := &GoTrueClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		http:      http.DefaultClient,
		timeout:   defaultRequestTimeout,
		inspector: NewTokenInspector(),
		now:       time.Now,
		events:    newEmitter(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name    string `json:"name"`
		Company string `json:"company"`
	} `json:"user_metadata"`
}

func (u *gotrueUser) model() models.User {
	return models.User{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.UserMetadata.Name,
		Company: u.UserMetadata.Company,
	}
}

// gotrueSession also carries the top-level user fields, because signup
// answers with a bare user when email confirmation is required.
type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *gotrueUser `json:"user"`
	gotrueUser
}

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var ge gotrueError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		return &ProviderError{Status: resp.StatusCode, Message: ge.text()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *GoTrueClient) toSession(gs *gotrueSession) (*models.ProviderSession, error) {
	if gs.AccessToken == "" {
		return nil, nil
	}

	s := &models.ProviderSession{
		AccessToken:  gs.AccessToken,
		RefreshToken: gs.RefreshToken,
		TokenType:    gs.TokenType,
	}
	if gs.User != nil {
		s.User = gs.User.model()
	}

	switch {
	case gs.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(gs.ExpiresAt, 0).UTC()
	case gs.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(gs.ExpiresIn) * time.Second).UTC()
	}

	claims, err := c.inspector.Inspect(gs.AccessToken)
	if err != nil {
		if c.inspector.Verifying() {
			return nil, err
		}
		return s, nil
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
		s.User.Email = claims.Email
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = claims.ExpiresAt
	}
	return s, nil
}

func (c *GoTrueClient) setSignedIn(s *models.ProviderSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = copySession(s)
	c.events.emit(signedInEvent(s))
}

func (c *GoTrueClient) setSignedOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ended := c.session
	c.session = nil
	c.events.emit(signedOutEvent(ended))
}

func (c *GoTrueClient) current() *models.ProviderSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session)
}

// SignUp creates an account. The returned session is nil when the
// provider requires email confirmation first.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, *models.ProviderSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"name":    profile.Name,
			"company": profile.Company,
		},
	}

	var gs gotrueSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &gs); err != nil {
		return nil, nil, err
	}

	s, err := c.toSession(&gs)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	switch {
	case s != nil:
		user = s.User
	default:
		user = gs.gotrueUser.model()
	}
	if user.Name == "" {
		user.Name = profile.Name
	}
	if user.Company == "" {
		user.Company = profile.Company
	}

	if s != nil {
		s.User = user
		c.setSignedIn(s)
	}
	return &user, s, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*models.ProviderSession, error) {
	body := map[string]string{"email": email, "password": password}

	var gs gotrueSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &gs); err != nil {
		return nil, err
	}

	s, err := c.toSession(&gs)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &ProviderError{Status: http.StatusBadGateway, Message: "provider returned no session"}
	}

	c.setSignedIn(s)
	return copySession(s), nil
}

func (c *GoTrueClient) refresh(ctx context.Context, old *models.ProviderSession) (*models.ProviderSession, error) {
	if old.RefreshToken == "" {
		c.setSignedOut()
		return nil, common.ErrNoSession
	}

	body := map[string]string{"refresh_token": old.RefreshToken}

	var gs gotrueSession
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &gs)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			c.setSignedOut()
			return nil, fmt.Errorf("%w: %w", common.ErrNoSession, err)
		}
		return nil, err
	}

	s, err := c.toSession(&gs)
	if err != nil {
		return nil, err
	}
	if s == nil {
		c.setSignedOut()
		return nil, common.ErrNoSession
	}
	if s.User.ID == "" {
		s.User = old.User
	}

	c.setSignedIn(s)
	return copySession(s), nil
}

// GetSession returns the current session after checking it with the
// provider. An expired access token is refreshed first.
func (c *GoTrueClient) GetSession(ctx context.Context) (*models.ProviderSession, error) {
	s := c.current()
	if s == nil {
		return nil, common.ErrNoSession
	}

	if s.Expired(c.now()) {
		return c.refresh(ctx, s)
	}

	var u gotrueUser
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", s.AccessToken, nil, &u)
	switch {
	case err == nil:
		s.User = u.model()
		c.mu.Lock()
		c.session = copySession(s)
		c.mu.Unlock()
		return s, nil
	case errors.Is(err, ErrUnauthorized):
		return c.refresh(ctx, s)
	default:
		return nil, err
	}
}

// SetSession seeds the client with a session restored from local storage.
// No event is emitted.
func (c *GoTrueClient) SetSession(_ context.Context, s *models.ProviderSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = copySession(s)
}

// SignOut revokes the session server-side. The local session is dropped
// even when the call fails.
func (c *GoTrueClient) SignOut(ctx context.Context) error {
	s := c.current()
	defer c.setSignedOut()

	if s == nil {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", s.AccessToken, nil, nil)
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Ping checks the health endpoint.
func (c *GoTrueClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/v1/health", "", nil, nil)
}

// Events returns the channel of auth state changes.
func (c *GoTrueClient) Events() <-chan Event {
	return c.events.ch
}

// Close closes the event channel.
func (c *GoTrueClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.close()
	return nil
}
