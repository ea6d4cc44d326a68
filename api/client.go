// Package api is the HTTP client for the identity provider's client-auth
// endpoints. Every call is stateless and attaches the ambient stored
// credential as a cookie; interpretation of results belongs to the
// Provider.
//
// # Architecture boundaries
//
// This package translates endpoint semantics into typed results and
// typed failures. It must not own authentication state, retry policy, or
// caching — those live above it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klyra-id/clientauth/credential"
	"github.com/klyra-id/clientauth/session"
)

// ErrNetwork marks transport-level failures: connection refused, DNS,
// timeouts, broken responses. It never wraps a well-formed non-2xx
// response; those become a [*StatusError].
var ErrNetwork = errors.New("network error")

// StatusError is a well-formed non-success response. OAuthCode carries a
// provider-returned error code verbatim when the body had one.
type StatusError struct {
	StatusCode int
	OAuthCode  string
	Message    string
}

func (e *StatusError) Error() string {
	if e.OAuthCode != "" {
		return fmt.Sprintf("api: status %d (%s): %s", e.StatusCode, e.OAuthCode, e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Config configures the client. BaseURL is the identity provider origin;
// paths are fixed by the protocol.
type Config struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
}

// Client issues the client-auth protocol calls. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	cookieName string
	httpClient *http.Client
	creds      credential.Store
}

// New creates a Client. A nil httpClient gets a default with the
// configured timeout; creds may be nil for hosts that only use the
// token-override validate path.
func New(cfg Config, creds credential.Store, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("api: base url must be absolute")
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "clientSession"
	}

	return &Client{
		baseURL:    base,
		cookieName: cookieName,
		httpClient: httpClient,
		creds:      creds,
	}, nil
}

// flexTime accepts the two expiry encodings seen in the wild: RFC 3339
// strings and unix seconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}

	var unix int64
	if err := json.Unmarshal(trimmed, &unix); err != nil {
		return err
	}
	t.Time = time.Unix(unix, 0).UTC()
	return nil
}

type validateResponse struct {
	Valid bool                 `json:"valid"`
	User  *session.UserProfile `json:"user"`
	// Both spellings appear depending on provider version.
	ExpiresAt      flexTime                   `json:"expiresAt"`
	ExpiresAtSnake flexTime                   `json:"expires_at"`
	Extra          map[string]json.RawMessage `json:"-"`
}

var validateCoreFields = map[string]bool{
	"valid":      true,
	"user":       true,
	"expiresAt":  true,
	"expires_at": true,
}

func (r *validateResponse) UnmarshalJSON(data []byte) error {
	type plain validateResponse
	var core plain
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = validateResponse(core)
	for key, value := range raw {
		if validateCoreFields[key] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = value
	}
	return nil
}

// ValidateSession asks the provider whether the current session is
// valid. When tokenOverride is non-empty it rides in the request body;
// otherwise the body is empty and the ambient credential alone decides.
// The returned Session preserves the invariant Valid=false => User=nil.
func (c *Client) ValidateSession(ctx context.Context, tokenOverride string) (*session.Session, error) {
	body := map[string]string{}
	if tokenOverride != "" {
		body["session_token"] = tokenOverride
	}

	var resp validateResponse
	if err := c.postJSON(ctx, "/api/client-auth/session/validate", body, &resp); err != nil {
		return nil, err
	}

	out := &session.Session{Valid: resp.Valid, RawToken: tokenOverride}
	if resp.Valid {
		out.User = resp.User
		out.ExpiresAt = resp.ExpiresAt.Time
		if out.ExpiresAt.IsZero() {
			out.ExpiresAt = resp.ExpiresAtSnake.Time
		}
	}
	if len(resp.Extra) > 0 {
		out.Extra = make(map[string]any, len(resp.Extra))
		for key, value := range resp.Extra {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err == nil {
				out.Extra[key] = decoded
			}
		}
	}
	return out, nil
}

// Logout asks the provider to clear the session server-side. With
// revokeAll the provider revokes every session for the principal.
func (c *Client) Logout(ctx context.Context, revokeAll bool) error {
	body := map[string]any{}
	if revokeAll {
		body["revoke_all"] = true
	}
	var resp struct {
		Success bool `json:"success"`
	}
	return c.postJSON(ctx, "/api/client-auth/logout", body, &resp)
}

// LoginResult is the success shape shared by the direct-credential login
// and the authorization-code exchange.
type LoginResult struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	RedirectURI  string
}

type loginResponse struct {
	SessionID    string   `json:"session_id"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    flexTime `json:"expires_at"`
	RedirectURI  string   `json:"redirect_uri"`
}

func (r *loginResponse) result() *LoginResult {
	return &LoginResult{
		SessionID:    r.SessionID,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt.Time,
		RedirectURI:  r.RedirectURI,
	}
}

// Login performs the direct-credential login.
func (c *Client) Login(ctx context.Context, clientID, clientSecret, redirectURI string) (*LoginResult, error) {
	body := map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"redirect_uri":  redirectURI,
	}
	var resp loginResponse
	if err := c.postJSON(ctx, "/api/client-auth/login", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// ExchangeCode trades an authorization code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, state, redirectURI string) (*LoginResult, error) {
	body := map[string]string{
		"code":         code,
		"redirect_uri": redirectURI,
	}
	if state != "" {
		body["state"] = state
	}
	var resp loginResponse
	if err := c.postJSON(ctx, "/api/client-auth/callback", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// Profile fetches the authenticated principal's profile.
func (c *Client) Profile(ctx context.Context) (*session.UserProfile, error) {
	var profile session.UserProfile
	if err := c.getJSON(ctx, "/api/client-auth/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RefreshResult is the success shape of a token refresh.
type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// RefreshToken rotates the access token using the ambient credential.
func (c *Client) RefreshToken(ctx context.Context) (*RefreshResult, error) {
	var resp struct {
		AccessToken string   `json:"access_token"`
		ExpiresAt   flexTime `json:"expires_at"`
	}
	if err := c.postJSON(ctx, "/api/client-auth/token/refresh", map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt.Time}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.attachCredential(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrNetwork, err)
	}
	return nil
}

func (c *Client) attachCredential(req *http.Request) {
	if c.creds == nil {
		return
	}
	token, ok, err := c.creds.Get(req.Context(), c.cookieName)
	if err != nil || !ok {
		return
	}
	req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			statusErr.OAuthCode = body.Error
		}
		switch {
		case body.ErrorDescription != "":
			statusErr.Message = body.ErrorDescription
		case body.Message != "":
			statusErr.Message = body.Message
		}
	}
	return statusErr
}
