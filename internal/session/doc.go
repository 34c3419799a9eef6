// Package session holds the client's credential record.
//
// # Overview
//
// A Store owns three values that always change together: the access token,
// the refresh token, and a JSON copy of the signed-in user. Login writes all
// three, a silent refresh rewrites the access token, and logout or a failed
// refresh removes all three.
//
// # Storage
//
// The Store delegates persistence to a Storage:
//
//   - MemoryStorage: process memory, used by tests and one-shot commands
//   - FileStorage: ~/.local/state/veriaccess/session.toml, mode 0600
//
// Passing a nil Storage to NewStore models a context with no interactive
// session. Every read reports "no session" and every write is dropped, so
// callers never need to special-case it.
//
// # Concurrency
//
// Both storages guard their maps with a sync.RWMutex. Concurrent SetTokens
// calls follow last-writer-wins; there is no versioning.
package session
