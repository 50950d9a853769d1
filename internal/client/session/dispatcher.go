package session

import (
	"context"

	"github.com/dmitrijs2005/leadkeeper/internal/client/identity"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

// Dispatcher applies provider events to a Store, one at a time and in the
// order they were emitted. Events already overtaken by a direct call on the
// Store are skipped.
type Dispatcher struct {
	store  *Store
	events <-chan identity.Event
	log    logging.Logger
}

// NewDispatcher constructs a Dispatcher reading events and applying them
// to store.
func NewDispatcher(store *Store, events <-chan identity.Event, log logging.Logger) *Dispatcher {
	return &Dispatcher{store: store, events: events, log: log}
}

// Run consumes events until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-d.events:
			if !ok {
				return nil
			}
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev identity.Event) {
	d.log.Debug(ctx, "auth event", "kind", ev.Kind.String())

	var (
		applied bool
		err     error
	)
	switch ev.Kind {
	case identity.SignedIn:
		if ev.Session == nil {
			d.log.Warn(ctx, "signed-in event without session")
			return
		}
		applied, err = d.store.ApplySignedIn(ctx, ev.Session)
	case identity.SignedOut:
		applied, err = d.store.ApplySignedOut(ctx, ev.Token)
	default:
		d.log.Warn(ctx, "unknown auth event", "kind", int(ev.Kind))
		return
	}

	if err != nil {
		d.log.Error(ctx, "failed to apply auth event", "kind", ev.Kind.String(), "error", err)
		return
	}
	if !applied {
		d.log.Debug(ctx, "stale auth event skipped", "kind", ev.Kind.String())
	}
}
