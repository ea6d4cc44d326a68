// Package clientauth manages client-side authentication state against a
// redirect-based identity provider: token acquisition from the URL or a
// persisted credential, single-flight remote validation, and a settled
// authenticated/unauthenticated state that consumers subscribe to.
//
// The package is designed for concurrent host applications: Provider
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// clientauth is the public surface. It exposes [Provider], [Builder],
// [Config], and value types (AuthState, Session, UserProfile). HTTP
// endpoint mechanics live in the api package, credential persistence in
// the credential package, and the rendering gate in the guard package.
//
// # What this package must NOT do
//
//   - Verify token signatures or make trust decisions locally; validity
//     comes only from the identity provider's validate endpoint.
//   - Surface remote validation failures as errors: validation fails
//     closed into the unauthenticated state.
//   - Expose the HTTP client, credential store internals, or cache
//     encoding in its public API.
package clientauth
