package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/leadkeeper/internal/client/storage"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteSnapshots(t *testing.T, path string) *MetadataSnapshotStore {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMetadataSnapshotStore(metadata.NewSQLiteRepository(db))
}

func TestMetadataSnapshotStore_RoundTrip(t *testing.T) {
	snaps := newSQLiteSnapshots(t, filepath.Join(t.TempDir(), "snap.db"))
	ctx := context.Background()

	got, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	next := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	u := alice
	want := models.Snapshot{
		User:    &u,
		Session: aliceSession("a1"),
		Subscription: &models.Subscription{
			Plan:            models.PlanEnterprise,
			Status:          models.StatusPastDue,
			NextBillingDate: &next,
		},
		Credits: 999,
	}
	require.NoError(t, snaps.Save(ctx, want))

	got, err = snaps.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestMetadataSnapshotStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	ctx := context.Background()

	p := newFakeProvider()
	p.SignInRet = aliceSession("a1")
	first := New(p, newSQLiteSnapshots(t, path), logging.Discard())
	_, err := first.SignIn(ctx, alice.Email, "secret1")
	require.NoError(t, err)
	ok, err := first.DeductCredit(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, first.Close())

	second := New(newFakeProvider(), newSQLiteSnapshots(t, path), logging.Discard())
	require.NoError(t, second.Restore(ctx))

	st := second.State()
	require.NotNil(t, st.User)
	assert.Equal(t, alice.Email, st.User.Email)
	assert.Equal(t, SignInCredits-1, st.Credits)
	assert.False(t, st.Loading)
}
