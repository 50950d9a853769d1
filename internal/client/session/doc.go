// Package session holds the Session Store: who is signed in, their
// provider session, subscription and credit balance.
//
// A Store is created by the application and lives for its whole run:
//
//	store := session.New(provider, snapshots, log)
//	_ = store.Restore(ctx)    // last persisted state, no network
//	_ = store.Initialize(ctx) // reconcile with the provider
//	defer store.Close()
//
// All methods are safe for concurrent use. Each mutation is written through
// to the SnapshotStore before the mutex is released, so a crash never loses
// an acknowledged change. Observers call Subscribe to receive state copies.
//
// Provider events are applied by a Dispatcher running in its own goroutine.
package session
