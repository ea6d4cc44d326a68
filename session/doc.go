// Package session defines the validated-session model shared by the
// clientauth Provider and its collaborators, plus the optional
// short-lived session cache.
//
// # Model
//
// [Session] is the outcome of the most recent successful validation and
// is replaced wholesale on every validation cycle. [UserProfile] is owned
// by its enclosing Session and never constructed independently by the
// core. Both carry a fixed core schema plus an explicit Extra map for
// provider-specific fields.
//
// # Cache
//
// [Cache] stores one session alongside the time it was cached. Freshness
// is decided by [Fresh]: a cached session is discarded when stale, when
// it is not valid, or when its own expiry has passed.
//
// # What this package must NOT do
//
//   - Perform network I/O (the api package owns the transport).
//   - Decide authentication state (the Provider owns transitions).
package session
