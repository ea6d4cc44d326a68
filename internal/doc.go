// Package internal contains helper utilities that are intentionally
// private to clientauth, currently secure random generation for OAuth
// state values.
//
// # What this package must NOT do
//
//   - Export types that appear in the public clientauth API.
//   - Be imported by any package outside the clientauth module.
package internal
