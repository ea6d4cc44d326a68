package clientauth

import (
	"errors"
	"fmt"
)

// Error codes attached to [*Error] values returned by Provider flows.
// Codes ending in _FAILED mean the identity provider rejected the
// operation; codes ending in _ERROR mean the operation could not be
// carried out at all. Provider-returned OAuth codes pass through
// verbatim and are not listed here.
const (
	CodeNetworkError   = "NETWORK_ERROR"
	CodeLoginError     = "LOGIN_ERROR"
	CodeLoginFailed    = "LOGIN_FAILED"
	CodeCallbackError  = "CALLBACK_ERROR"
	CodeCallbackFailed = "CALLBACK_FAILED"
	CodeLogoutError    = "LOGOUT_ERROR"
	CodeLogoutFailed   = "LOGOUT_FAILED"
	CodeRefreshError   = "REFRESH_ERROR"
	CodeRefreshFailed  = "REFRESH_FAILED"
	CodeUserFetchFailed = "USER_FETCH_FAILED"
	CodeMissingCode    = "MISSING_CODE"
)

// Error is the structured failure type returned by Provider flows.
//
// Error instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clientauth: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("clientauth: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrNavigatorUnavailable is returned by operations that require a browser
	// context when the Provider was built without a Navigator.
	ErrNavigatorUnavailable = errors.New("navigator unavailable")
	// ErrNotAuthenticated is returned by operations that require a settled
	// authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrProviderClosed is returned by operations invoked after Close.
	ErrProviderClosed = errors.New("provider closed")
	// ErrMissingCode is returned by HandleCallback when the callback URL
	// carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")
)
