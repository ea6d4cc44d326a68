package clientauth

import (
	"github.com/klyra-id/clientauth/session"
)

// Session is the validated session snapshot adopted by the Provider.
// Aliased from [session.Session] so collaborator packages and the public
// surface share one definition.
type Session = session.Session

// UserProfile is the authenticated principal's identity record.
// Aliased from [session.UserProfile].
type UserProfile = session.UserProfile

// AuthState is an immutable snapshot of the Provider's lifecycle state.
// Copies are handed to subscribers and returned by [Provider.State];
// mutating one never affects the Provider.
//
// Invariant: Authenticated implies Session != nil && Session.Valid.
type AuthState struct {
	Authenticated bool
	Loading       bool
	Session       *Session

	// Generation increments on every settled state transition. Consumers
	// that must act at most once per transition (the guard's redirect)
	// key off it rather than off repeated observations of the same state.
	Generation uint64
}

// User returns the authenticated principal, or nil when unauthenticated
// or still loading.
func (s AuthState) User() *UserProfile {
	if s.Session == nil {
		return nil
	}
	return s.Session.User
}

// Navigator is the browser-context capability surface. Hosts that render
// on behalf of a browser session implement it; a nil Navigator on the
// Builder models running outside any browser context, in which case
// navigation-dependent operations degrade per their documentation.
type Navigator interface {
	// CurrentURL returns the full current URL including query parameters.
	CurrentURL() (string, error)
	// Navigate performs a full navigation to url.
	Navigate(url string) error
	// ReplaceURL swaps the visible URL in place without triggering a
	// navigation or reload.
	ReplaceURL(url string) error
	// Reload re-renders the current URL from scratch.
	Reload() error
}

// StateChangeFunc receives state snapshots after every settled
// transition. Callbacks run synchronously outside the Provider lock;
// they must not block for long and may call Provider read methods
// freely.
type StateChangeFunc func(AuthState)
