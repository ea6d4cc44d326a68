// Package guard exposes an HTTP rendering gate over a clientauth
// Provider: a loading renderable while validation is in flight, a
// redirect to the login page when the state settles unauthenticated, and
// the protected content when authenticated.
//
// # Architecture boundaries
//
// This package translates Provider state into HTTP responses. It does
// NOT trigger validation, read credentials, or make authentication
// decisions itself — all state comes from the Provider.
//
// # What this package must NOT do
//
//   - Call the identity provider or touch the credential store.
//   - Redirect more than once per settled-unauthenticated transition
//     (the OnRedirect callback; the HTTP redirect response itself is
//     per-request rendering).
package guard
