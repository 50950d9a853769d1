package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/billing"
	"github.com/dmitrijs2005/leadkeeper/internal/client/config"
	"github.com/dmitrijs2005/leadkeeper/internal/client/export"
	"github.com/dmitrijs2005/leadkeeper/internal/client/identity"
	"github.com/dmitrijs2005/leadkeeper/internal/client/leadapi"
	"github.com/dmitrijs2005/leadkeeper/internal/client/leads"
	"github.com/dmitrijs2005/leadkeeper/internal/client/payment"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/leadkeeper/internal/client/services"
	"github.com/dmitrijs2005/leadkeeper/internal/client/session"
	"github.com/dmitrijs2005/leadkeeper/internal/client/storage"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

// enrichCacheEntries caps the enrichment cache.
const enrichCacheEntries = 1000

// NewApp opens the local database, builds the identity provider and the
// services, restores the previous session and returns a ready App reading
// commands from stdin.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	return newApp(ctx, c, log, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (_ *App, err error) {
	a := &App{
		config:  c,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
		printer: newPrinter(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	provider, err := newProvider(ctx, c, db, log)
	if err != nil {
		return nil, err
	}

	store := session.New(provider, session.NewMetadataSnapshotStore(metadata.NewSQLiteRepository(db)), log)
	a.closers = append(a.closers, store.Close)

	auth := services.NewAuthService(store, provider)
	a.closers = append(a.closers, func() error { return auth.Close(context.Background()) })

	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize session: %w", err)
	}

	api, err := leadapi.NewCachedEnricher(
		leadapi.NewMockService(leadapi.WithLatency(c.SearchLatency, c.EnrichLatency)),
		enrichCacheEntries, c.EnrichCacheTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("enrichment cache: %w", err)
	}
	a.closers = append(a.closers, func() error { api.Close(); return nil })

	leadStore := leads.New()
	payments := payment.NewMockService(payment.WithLatency(c.PaymentLatency/2, c.PaymentLatency))

	a.auth = auth
	a.leads = leadStore
	if st := store.State(); st.LoggedIn() {
		a.leadsOwner = st.User.ID
	}
	a.sessions = store
	a.events = session.NewDispatcher(store, provider.Events(), log)
	a.leadSvc = services.NewLeadService(store, leadStore, api, log)
	a.billing = services.NewBillingService(store, billing.Default(), payments, log)

	if c.S3Bucket != "" {
		up, err := export.NewS3Uploader(ctx, export.S3Options{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 uploader: %w", err)
		}
		a.uploader = up
	}

	return a, nil
}

// newProvider builds the identity provider selected by c.ProviderKind.
func newProvider(ctx context.Context, c *config.Config, db *sql.DB, log logging.Logger) (identity.Provider, error) {
	switch c.ProviderKind {
	case config.ProviderLocal:
		repo := users.NewSQLiteRepository(db)
		if n, err := repo.DeleteExpiredSessions(ctx, time.Now()); err != nil {
			log.Warn(ctx, "expired session cleanup failed", "error", err)
		} else if n > 0 {
			log.Debug(ctx, "expired local sessions removed", "count", n)
		}
		return identity.NewLocalProvider(repo), nil

	case config.ProviderGoTrue:
		inspector := identity.NewTokenInspector()
		if c.ProviderJWKSURL != "" {
			var err error
			inspector, err = identity.NewJWKSTokenInspector(ctx, c.ProviderJWKSURL)
			if err != nil {
				return nil, fmt.Errorf("jwks: %w", err)
			}
		}
		return identity.NewGoTrueClient(c.ProviderURL, c.ProviderAnonKey,
			identity.WithRequestTimeout(c.RequestTimeout),
			identity.WithTokenInspector(inspector),
		), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", c.ProviderKind)
	}
}
