package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/config"
	"github.com/dmitrijs2005/leadkeeper/internal/client/leads"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/services"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Mode is the connectivity shown in the prompt.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single connectivity probe.
const pingTimeout = 3 * time.Second

// sessionSource delivers Session Store updates. *session.Store implements it.
type sessionSource interface {
	Subscribe() (<-chan models.SessionState, func())
}

// eventLoop consumes provider events until ctx is done.
// *session.Dispatcher implements it.
type eventLoop interface {
	Run(ctx context.Context) error
}

// uploader stores exported files remotely. *export.S3Uploader implements it.
type uploader interface {
	ObjectKey(userID, name string) string
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// App is the interactive LeadKeeper client.
type App struct {
	config   *config.Config
	log      logging.Logger
	auth     services.AuthService
	leadSvc  services.LeadService
	billing  services.BillingService
	leads    *leads.Store
	sessions sessionSource
	events   eventLoop
	uploader uploader
	reader   *bufio.Reader
	printer  *message.Printer

	outMu sync.Mutex
	out   io.Writer

	modeMu sync.Mutex
	mode   Mode

	// leadsOwner is the user the Leads Store content belongs to. Only the
	// REPL goroutine touches it.
	leadsOwner string

	closers []func() error
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// printf writes localized output; numbers get thousands separators.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	a.printer.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

// Mode returns the last observed connectivity.
func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
		a.println("Switched to", mode, "mode")
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().LoggedIn()
}

// requireLogin fails when nobody is signed in. When the signed-in user has
// changed since the Leads Store was last used, the store is emptied first.
func (a *App) requireLogin() error {
	st := a.auth.State()
	if !st.LoggedIn() {
		return common.ErrNotLoggedIn
	}
	a.claimLeads(st.User.ID)
	return nil
}

func (a *App) requireLogout() error {
	if st := a.auth.State(); st.LoggedIn() {
		return fmt.Errorf("already logged in as %s, type 'logout' first", st.User.Email)
	}
	return nil
}

func (a *App) claimLeads(userID string) {
	if a.leadsOwner == userID {
		return
	}
	if a.leadsOwner != "" {
		a.log.Debug(context.Background(), "account changed, clearing leads")
	}
	a.leads.Reset()
	a.leadsOwner = userID
}

// Run starts the background watchers and the REPL and blocks until the user
// exits or ctx is cancelled. Resources are released before it returns.
func (a *App) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
	})
	if a.events != nil {
		g.Go(func() error { return a.events.Run(gctx) })
	}
	if a.sessions != nil {
		g.Go(func() error { return a.StartLowCreditWatcher(gctx, a.config.LowCreditThreshold) })
	}

	// The REPL stays outside the group: a read from stdin cannot be
	// interrupted, so a signal must not wait for the next line.
	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		defer cancel()
		a.println("Welcome to LeadKeeper CLI (type 'help' for commands)")
		runREPL(gctx, a, a.getStatus, a.reader)
	}()

	err := g.Wait()
	select {
	case <-replDone:
	case <-parent.Done():
	}
	return errors.Join(err, a.Close())
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// StartOnlineStatusWatcher pings the identity provider every interval and
// switches between online and offline mode. It returns nil when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := a.auth.Ping(pctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			a.log.Debug(ctx, "provider ping failed", "error", err)
			a.setMode(ModeOffline)
			return
		}
		a.setMode(ModeOnline)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return nil
		}
	}
}

// StartLowCreditWatcher prints a warning each time a logged-in balance drops
// below threshold. It warns again only after the balance has recovered.
func (a *App) StartLowCreditWatcher(ctx context.Context, threshold int) error {
	if threshold <= 0 {
		return nil
	}

	ch, unsubscribe := a.sessions.Subscribe()
	defer unsubscribe()

	warned := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-ch:
			if !ok {
				return nil
			}
			low := st.LoggedIn() && st.Credits < threshold
			if low && !warned {
				a.printf("warning: only %d credits left, type 'packages' to top up\n", st.Credits)
			}
			warned = low
		}
	}
}
