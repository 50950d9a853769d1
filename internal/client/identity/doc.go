// Package identity talks to the identity provider that owns user accounts.
//
// Two implementations of Provider are available:
//   - GoTrueClient speaks the HTTP API of a Supabase/GoTrue auth server.
//   - LocalProvider keeps accounts in the local SQLite database, for
//     development and fully offline use.
//
// Both push SignedIn and SignedOut events on the channel returned by
// Events; the session package turns them into store transitions.
//
// Errors are matched with errors.Is: ErrUnavailable for transport failures
// and 5xx answers, ErrUnauthorized for rejected credentials, and
// common.ErrNoSession when there is nothing to resume. Other provider
// rejections are returned as *ProviderError.
package identity
