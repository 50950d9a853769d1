// Package cli provides the interactive LeadKeeper command-line client.
//
// It wires configuration, local storage, the identity provider, the mocked
// lead and payment backends and an interactive REPL. Typical flow: restore
// the last session, start the background watchers (provider connectivity,
// provider events, low balance) and execute user commands until exit.
//
// Key features:
//   - Register / Login / Logout against GoTrue or the local provider
//   - Lead search, saved contacts, search history, enrichment
//   - Credit packages, subscription plans, payment history
//   - CSV export to disk with optional S3 upload
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and NewApp for details.
package cli
