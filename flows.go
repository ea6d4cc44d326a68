package clientauth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/klyra-id/clientauth/api"
	"github.com/klyra-id/clientauth/internal"
	"github.com/klyra-id/clientauth/jwtinfo"
	"github.com/klyra-id/clientauth/urlutil"
)

// LoginWithCredentials performs the direct client-credential login,
// persists the returned token, and runs a validation cycle. Unlike
// validation, login failures ARE returned, as a [*Error].
func (p *Provider) LoginWithCredentials(ctx context.Context) (*Session, error) {
	result, err := p.api.Login(ctx, p.config.OAuth.ClientID, p.config.OAuth.ClientSecret, p.config.OAuth.RedirectURI)
	if err != nil {
		p.metrics.Inc(MetricLoginFailure)
		flowErr := classifyFlowError(err, CodeLoginError, CodeLoginFailed, "login rejected")
		p.emitAudit(ctx, AuditEvent{EventType: AuditLogin, Success: false, Error: flowErr.Error()})
		return nil, flowErr
	}

	p.metrics.Inc(MetricLoginSuccess)
	p.emitAudit(ctx, AuditEvent{EventType: AuditLogin, Success: true, SessionID: result.SessionID})

	return p.adoptToken(ctx, result.AccessToken)
}

// HandleCallback completes the authorization-code flow from the callback
// URL the provider redirected to. A missing code yields the MISSING_CODE
// error; a provider error parameter passes through verbatim as the error
// code. On success the returned token is persisted, the code and state
// parameters are stripped from the visible URL, and a validation cycle
// adopts the session.
func (p *Provider) HandleCallback(ctx context.Context, callbackURL string) (*Session, error) {
	code := urlutil.ExtractParam(callbackURL, "code")
	if code == "" {
		p.metrics.Inc(MetricCallbackFailure)
		if providerCode := urlutil.ExtractParam(callbackURL, "error"); providerCode != "" {
			flowErr := &Error{
				Code:    providerCode,
				Message: urlutil.ExtractParam(callbackURL, "error_description"),
			}
			p.emitAudit(ctx, AuditEvent{EventType: AuditCallback, Success: false, Error: flowErr.Error()})
			return nil, flowErr
		}
		flowErr := &Error{Code: CodeMissingCode, Message: "callback URL carries no authorization code", Err: ErrMissingCode}
		p.emitAudit(ctx, AuditEvent{EventType: AuditCallback, Success: false, Error: flowErr.Error()})
		return nil, flowErr
	}

	state := urlutil.ExtractParam(callbackURL, "state")

	result, err := p.api.ExchangeCode(ctx, code, state, p.config.OAuth.RedirectURI)
	if err != nil {
		p.metrics.Inc(MetricCallbackFailure)
		flowErr := classifyFlowError(err, CodeCallbackError, CodeCallbackFailed, "code exchange rejected")
		p.emitAudit(ctx, AuditEvent{EventType: AuditCallback, Success: false, Error: flowErr.Error()})
		return nil, flowErr
	}

	p.metrics.Inc(MetricCallbackSuccess)
	p.emitAudit(ctx, AuditEvent{EventType: AuditCallback, Success: true, SessionID: result.SessionID})

	if p.nav != nil {
		if stripped, changed := urlutil.StripParams(callbackURL, "code", "state"); changed {
			if err := p.nav.ReplaceURL(stripped); err != nil {
				log.Printf("clientauth: callback url cleanup failed: %v", err)
			}
		}
	}

	return p.adoptToken(ctx, result.AccessToken)
}

// Refresh rotates the access token through the provider's refresh
// endpoint, persists the replacement, and revalidates.
func (p *Provider) Refresh(ctx context.Context) (*Session, error) {
	result, err := p.api.RefreshToken(ctx)
	if err != nil {
		p.metrics.Inc(MetricRefreshFailure)
		flowErr := classifyFlowError(err, CodeRefreshError, CodeRefreshFailed, "refresh rejected")
		p.emitAudit(ctx, AuditEvent{EventType: AuditRefresh, Success: false, Error: flowErr.Error()})
		return nil, flowErr
	}

	p.metrics.Inc(MetricRefreshSuccess)
	p.emitAudit(ctx, AuditEvent{EventType: AuditRefresh, Success: true})

	return p.adoptToken(ctx, result.AccessToken)
}

// Profile fetches the authenticated principal's profile from the
// provider. State is not modified; the settled session keeps whatever
// profile validation returned.
func (p *Provider) Profile(ctx context.Context) (*UserProfile, error) {
	profile, err := p.api.Profile(ctx)
	if err != nil {
		p.metrics.Inc(MetricProfileFailure)
		flowErr := classifyFlowError(err, CodeUserFetchFailed, CodeUserFetchFailed, "profile fetch failed")
		p.emitAudit(ctx, AuditEvent{EventType: AuditProfileFetch, Success: false, Error: flowErr.Error()})
		return nil, flowErr
	}

	p.metrics.Inc(MetricProfileFetch)
	p.emitAudit(ctx, AuditEvent{EventType: AuditProfileFetch, Success: true, UserID: profile.ID})
	return profile, nil
}

// adoptToken persists a freshly issued token and runs a validation cycle
// carrying it, then reports the settled session.
func (p *Provider) adoptToken(ctx context.Context, token string) (*Session, error) {
	if token != "" {
		if err := p.creds.Set(ctx, p.config.Cookie.Name, token, p.config.Cookie.MaxAge); err != nil {
			log.Printf("clientauth: credential persist failed: %v", err)
		} else {
			p.metrics.Inc(MetricTokenStored)
		}
	}

	p.validate(ctx, token)
	return p.State().Session, nil
}

// classifyFlowError maps an api-layer failure onto the error taxonomy:
// transport failures get NETWORK_ERROR, provider rejections carrying an
// OAuth error code pass that code through verbatim, and other rejections
// get the flow's failedCode.
func classifyFlowError(err error, errorCode, failedCode, message string) *Error {
	if errors.Is(err, api.ErrNetwork) {
		return &Error{Code: CodeNetworkError, Message: "identity provider unreachable", Err: err}
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		code := failedCode
		if statusErr.OAuthCode != "" {
			code = statusErr.OAuthCode
		}
		return &Error{Code: code, Message: statusErr.Message, Err: err}
	}

	return &Error{Code: errorCode, Message: message, Err: err}
}

// AuthorizeParams customizes the OAuth authorize redirect. A zero State
// lets [Provider.LoginWithRedirect] generate one.
type AuthorizeParams struct {
	State     string
	Prompt    string
	LoginHint string
	UILocales string
}

// AuthorizeURL builds the provider's /oauth/authorize URL for the
// authorization-code flow.
func (p *Provider) AuthorizeURL(params AuthorizeParams) (string, error) {
	if p.config.OAuth.ClientID == "" {
		return "", &Error{Code: CodeLoginError, Message: "OAuth ClientID not configured"}
	}

	conf := &oauth2.Config{
		ClientID:    p.config.OAuth.ClientID,
		RedirectURL: p.config.OAuth.RedirectURI,
		Scopes:      strings.Fields(p.config.OAuth.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL: strings.TrimRight(p.config.API.URL, "/") + "/oauth/authorize",
		},
	}

	state := params.State
	if state == "" {
		state = NewState()
	}

	opts := make([]oauth2.AuthCodeOption, 0, 3)
	if params.Prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", params.Prompt))
	}
	if params.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", params.LoginHint))
	}
	if params.UILocales != "" {
		opts = append(opts, oauth2.SetAuthURLParam("ui_locales", params.UILocales))
	}

	return conf.AuthCodeURL(state, opts...), nil
}

// LoginWithRedirect sends the Navigator to the OAuth authorize endpoint
// and returns the state value to verify on callback.
func (p *Provider) LoginWithRedirect(ctx context.Context, params AuthorizeParams) (string, error) {
	if p.nav == nil {
		log.Print("clientauth: redirect login requires a browser context; ignoring")
		return "", ErrNavigatorUnavailable
	}

	if params.State == "" {
		params.State = NewState()
	}

	target, err := p.AuthorizeURL(params)
	if err != nil {
		return "", err
	}

	p.metrics.Inc(MetricLoginRedirect)
	p.emitAudit(ctx, AuditEvent{EventType: AuditLoginRedirect, Success: true, Metadata: map[string]string{"flow": "authorization_code"}})

	if err := p.nav.Navigate(target); err != nil {
		return "", &Error{Code: CodeLoginError, Message: "navigation failed", Err: err}
	}
	return params.State, nil
}

// TokenInfo decodes the stored credential as a JWT, without signature
// verification, for display and diagnostics only.
func (p *Provider) TokenInfo(ctx context.Context) (*jwtinfo.Info, error) {
	token, ok, err := p.creds.Get(ctx, p.config.Cookie.Name)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, ErrNotAuthenticated
	}
	return jwtinfo.Decode(token)
}

// NewState generates an unguessable OAuth state value.
func NewState() string {
	if state, err := internal.NewStateToken(); err == nil {
		return state
	}
	// crypto/rand failing is effectively fatal elsewhere; uuid gives a
	// last-resort value rather than an empty state.
	return uuid.NewString()
}
