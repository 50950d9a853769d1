package identity

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/leadkeeper/internal/client/storage"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLocal(t *testing.T) (*LocalProvider, *clock) {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := &clock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	p := NewLocalProvider(users.NewSQLiteRepository(db), WithLocalClock(clk.now), WithSessionTTL(time.Hour))
	t.Cleanup(func() { _ = p.Close() })
	return p, clk
}

func drain(ch <-chan Event) []EventKind {
	var out []EventKind
	for {
		select {
		case ev := <-ch:
			out = append(out, ev.Kind)
		default:
			return out
		}
	}
}

func TestLocal_SignUpThenSignIn(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	u, s, err := p.SignUp(ctx, "alice@example.com", "secret1", models.Profile{Name: "Alice", Company: "Acme"})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "Acme", u.Company)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, *u, s.User)

	require.NoError(t, p.SignOut(ctx))

	s2, err := p.SignInWithPassword(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s2.User.ID)
	assert.NotEqual(t, s.AccessToken, s2.AccessToken)

	assert.Equal(t, []EventKind{SignedIn, SignedOut, SignedIn}, drain(p.Events()))
}

func TestLocal_EventsCarryTokens(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	_, s1, err := p.SignUp(ctx, "alice@example.com", "secret1", models.Profile{})
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx))

	evs := []Event{<-p.Events(), <-p.Events(), <-p.Events()}
	assert.Equal(t, SignedIn, evs[0].Kind)
	assert.Equal(t, s1.AccessToken, evs[0].Token)
	assert.Equal(t, Event{Kind: SignedOut, Token: s1.AccessToken}, evs[1])
	assert.Equal(t, Event{Kind: SignedOut}, evs[2], "nothing to end")
}

func TestLocal_EmailIsNormalized(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	u, _, err := p.SignUp(ctx, "  Alice@Example.com ", "secret1", models.Profile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	require.NoError(t, p.SignOut(ctx))

	for _, email := range []string{"alice@example.com ", " ALICE@EXAMPLE.COM"} {
		s, err := p.SignInWithPassword(ctx, email, "secret1")
		require.NoError(t, err, email)
		assert.Equal(t, *u, s.User)
	}

	_, _, err = p.SignUp(ctx, "alice@example.com", "secret2", models.Profile{})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
}

func TestLocal_SignUpValidation(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "alice@example.com", "123", models.Profile{})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.Status)

	_, _, err = p.SignUp(ctx, "not-an-email", "secret1", models.Profile{})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadRequest, pe.Status)

	_, _, err = p.SignUp(ctx, "alice@example.com", "secret1", models.Profile{})
	require.NoError(t, err)
	_, _, err = p.SignUp(ctx, "alice@example.com", "secret2", models.Profile{})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "User already registered", pe.Message)
}

func TestLocal_SignInWrongPassword(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "alice@example.com", "secret1", models.Profile{})
	require.NoError(t, err)

	_, err = p.SignInWithPassword(ctx, "alice@example.com", "nope")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Invalid login credentials", pe.Message)

	_, err = p.SignInWithPassword(ctx, "ghost@example.com", "secret1")
	require.ErrorAs(t, err, &pe)
}

func TestLocal_GetSession(t *testing.T) {
	p, clk := newLocal(t)
	ctx := context.Background()

	_, err := p.GetSession(ctx)
	require.ErrorIs(t, err, common.ErrNoSession)

	_, s, err := p.SignUp(ctx, "alice@example.com", "secret1", models.Profile{Name: "Alice"})
	require.NoError(t, err)

	got, err := p.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.AccessToken, got.AccessToken)
	assert.Equal(t, "Alice", got.User.Name)

	clk.advance(2 * time.Hour)
	_, err = p.GetSession(ctx)
	require.ErrorIs(t, err, common.ErrNoSession)
}

func TestLocal_RestoredSessionSurvivesRestart(t *testing.T) {
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := users.NewSQLiteRepository(db)
	ctx := context.Background()

	first := NewLocalProvider(repo)
	_, s, err := first.SignUp(ctx, "alice@example.com", "secret1", models.Profile{})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := NewLocalProvider(repo)
	second.SetSession(ctx, s)
	got, err := second.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, got.User.ID)
	assert.Empty(t, drain(second.Events()), "SetSession emits nothing")
}

func TestLocal_PingHonorsContext(t *testing.T) {
	p, _ := newLocal(t)
	require.NoError(t, p.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Ping(ctx), context.Canceled)
}
