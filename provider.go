package clientauth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/klyra-id/clientauth/api"
	"github.com/klyra-id/clientauth/credential"
	"github.com/klyra-id/clientauth/session"
	"github.com/klyra-id/clientauth/urlutil"
)

// Provider is the session lifecycle state machine. It owns the settled
// authenticated/unauthenticated state, the one-shot initialization
// latch, and the single-flight guard around remote validation.
//
// All methods are safe for concurrent use after [Builder.Build].
type Provider struct {
	config  Config
	nav     Navigator
	creds   credential.Store
	cache   session.Cache
	api     *api.Client
	audit   *auditDispatcher
	metrics *Metrics

	mu          sync.Mutex
	state       AuthState
	subs        []subscription
	nextSubID   uint64
	initialized bool
	validating  bool
	closed      bool

	// logoutEpoch invalidates in-flight validations: a validation result
	// is adopted only if no logout happened after it started.
	logoutEpoch uint64
}

// Initialize performs the mount sequence exactly once per Provider:
// acquire a token from the URL carrier or the persisted credential,
// validate it remotely, and settle the state. Subsequent calls are
// no-ops. With neither a URL token nor a stored credential the state
// settles unauthenticated without any network call.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	if p.initialized {
		p.mu.Unlock()
		return nil
	}
	p.initialized = true
	epoch := p.logoutEpoch
	p.mu.Unlock()

	token := p.acquireURLToken(ctx)
	if token != "" {
		p.validate(ctx, token)
		p.emitAudit(ctx, AuditEvent{EventType: AuditInitialize, Success: true, Metadata: map[string]string{"source": "url"}})
		return nil
	}

	stored, ok, err := p.creds.Get(ctx, p.config.Cookie.Name)
	if err != nil {
		log.Printf("clientauth: credential read failed: %v", err)
	}
	if !ok || stored == "" {
		p.transition(ctx, epoch, nil, false)
		p.emitAudit(ctx, AuditEvent{EventType: AuditInitialize, Success: true, Metadata: map[string]string{"source": "none"}})
		return nil
	}

	if cached, ok := p.freshCachedSession(ctx); ok {
		p.metrics.Inc(MetricCacheHit)
		p.transition(ctx, epoch, cached, false)
		p.emitAudit(ctx, AuditEvent{EventType: AuditInitialize, Success: true, Metadata: map[string]string{"source": "cache"}})
		return nil
	}

	p.validate(ctx, "")
	p.emitAudit(ctx, AuditEvent{EventType: AuditInitialize, Success: true, Metadata: map[string]string{"source": "credential"}})
	return nil
}

// acquireURLToken pulls the token parameter out of the current URL,
// persists it, and strips the parameter in place. Stripping happens at
// most once; re-running against a clean URL is a no-op.
func (p *Provider) acquireURLToken(ctx context.Context) string {
	if p.nav == nil {
		return ""
	}

	current, err := p.nav.CurrentURL()
	if err != nil {
		log.Printf("clientauth: current url unavailable: %v", err)
		return ""
	}

	token := urlutil.ExtractParam(current, p.config.Token.Param)
	if token == "" {
		return ""
	}

	p.metrics.Inc(MetricTokenFromURL)

	if err := p.creds.Set(ctx, p.config.Cookie.Name, token, p.config.Cookie.MaxAge); err != nil {
		log.Printf("clientauth: credential persist failed: %v", err)
	} else {
		p.metrics.Inc(MetricTokenStored)
	}

	if stripped, changed := urlutil.StripParams(current, p.config.Token.Param); changed {
		if err := p.nav.ReplaceURL(stripped); err != nil {
			log.Printf("clientauth: url cleanup failed: %v", err)
		}
	}

	p.emitAudit(ctx, AuditEvent{EventType: AuditTokenFromURL, Success: true})
	return token
}

func (p *Provider) freshCachedSession(ctx context.Context) (*Session, bool) {
	if p.cache == nil || p.config.Cache.TTL <= 0 {
		return nil, false
	}

	cached, cachedAt, err := p.cache.Load(ctx)
	if err != nil {
		if p.config.Debug {
			log.Printf("clientauth: session cache read failed: %v", err)
		}
		return nil, false
	}
	if session.Fresh(cached, cachedAt, p.config.Cache.TTL, time.Now()) {
		return cached, true
	}
	if cached != nil {
		p.metrics.Inc(MetricCacheStale)
	}
	return nil, false
}

// ValidateSession triggers a remote validation cycle using the ambient
// stored credential. Concurrent calls coalesce: while a validation is in
// flight, further calls return immediately without a second network
// call. Remote failure is never returned; it settles the state
// unauthenticated (fail closed).
func (p *Provider) ValidateSession(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	p.mu.Unlock()

	p.validate(ctx, "")
	return nil
}

// validate is the single-flight validation cycle. tokenOverride, when
// non-empty, rides in the request body instead of relying on the
// ambient credential.
func (p *Provider) validate(ctx context.Context, tokenOverride string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.validating {
		p.metrics.Inc(MetricValidateSuppressed)
		p.mu.Unlock()
		return
	}
	p.validating = true
	p.state.Loading = true
	epoch := p.logoutEpoch
	p.mu.Unlock()

	start := time.Now()
	result, err := p.api.ValidateSession(ctx, tokenOverride)
	p.metrics.Observe(MetricValidateLatency, time.Since(start))

	var adopted *Session
	switch {
	case err != nil:
		// Fail closed: transport failure and an explicit valid:false land
		// in the same unauthenticated state. The metrics and audit trail
		// keep them distinguishable.
		p.metrics.Inc(MetricValidateNetworkError)
		if p.config.Debug {
			log.Printf("clientauth: validation request failed: %v", err)
		}
		p.emitAudit(ctx, AuditEvent{EventType: AuditValidate, Success: false, Error: err.Error()})
	case result.Valid:
		adopted = result
		p.metrics.Inc(MetricValidateSuccess)
		userID := ""
		if result.User != nil {
			userID = result.User.ID
		}
		p.emitAudit(ctx, AuditEvent{EventType: AuditValidate, Success: true, UserID: userID})
	default:
		p.metrics.Inc(MetricValidateInvalid)
		p.emitAudit(ctx, AuditEvent{EventType: AuditValidate, Success: false, Error: "session invalid"})
	}

	p.transition(ctx, epoch, adopted, true)
}

// transition settles the state and notifies subscribers. A non-nil sess
// settles authenticated; nil settles unauthenticated. Results from
// before a logout (stale epoch) are discarded so a late validation
// cannot resurrect a logged-out session.
func (p *Provider) transition(ctx context.Context, epoch uint64, sess *Session, fromValidate bool) {
	p.mu.Lock()
	if fromValidate {
		p.validating = false
	}
	if p.logoutEpoch != epoch {
		sess = nil
	}
	p.state.Loading = false
	if sess != nil {
		p.state.Authenticated = true
		p.state.Session = sess
	} else {
		p.state.Authenticated = false
		p.state.Session = nil
	}
	p.state.Generation++
	snapshot := p.state
	subs := append([]subscription(nil), p.subs...)
	p.mu.Unlock()

	if sess != nil && p.cache != nil && p.config.Cache.TTL > 0 {
		if err := p.cache.Store(ctx, sess); err != nil && p.config.Debug {
			log.Printf("clientauth: session cache write failed: %v", err)
		}
	}

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// Login sends the Navigator to the hosted login page with the current
// URL as the post-login return target. Provider state is untouched.
// Without a Navigator it logs a warning and returns
// [ErrNavigatorUnavailable].
func (p *Provider) Login(ctx context.Context) error {
	if p.nav == nil {
		log.Print("clientauth: login requires a browser context; ignoring")
		return ErrNavigatorUnavailable
	}

	current, err := p.nav.CurrentURL()
	if err != nil {
		return &Error{Code: CodeLoginError, Message: "current url unavailable", Err: err}
	}

	target := urlutil.BuildLoginURL(p.config.Login.URL, current)
	p.metrics.Inc(MetricLoginRedirect)
	p.emitAudit(ctx, AuditEvent{EventType: AuditLoginRedirect, Success: true, Metadata: map[string]string{"return_to": current}})

	if err := p.nav.Navigate(target); err != nil {
		return &Error{Code: CodeLoginError, Message: "navigation failed", Err: err}
	}
	return nil
}

// LoginURLFor builds the hosted login page URL with an explicit return
// target. Used by the guard package to render redirects without a
// Navigator.
func (p *Provider) LoginURLFor(returnTo string) string {
	return urlutil.BuildLoginURL(p.config.Login.URL, returnTo)
}

// Logout clears the session: best-effort remote revocation (failure is
// logged and swallowed), then unconditionally clear local state, delete
// the stored credential, invalidate the cache, and reload via the
// Navigator when present. Idempotent; calling it while already
// unauthenticated still runs the clears and returns nil.
func (p *Provider) Logout(ctx context.Context) error {
	return p.logout(ctx, false)
}

// LogoutAll is Logout with server-side revocation of every session
// belonging to the principal.
func (p *Provider) LogoutAll(ctx context.Context) error {
	return p.logout(ctx, true)
}

func (p *Provider) logout(ctx context.Context, revokeAll bool) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	p.logoutEpoch++
	epoch := p.logoutEpoch
	p.mu.Unlock()

	if err := p.api.Logout(ctx, revokeAll); err != nil {
		p.metrics.Inc(MetricLogoutRevocationFailure)
		log.Printf("clientauth: remote logout failed: %v", err)
	}

	var firstErr error
	if err := p.creds.Delete(ctx, p.config.Cookie.Name); err != nil {
		firstErr = &Error{Code: CodeLogoutError, Message: "credential delete failed", Err: err}
	}
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx); err != nil && p.config.Debug {
			log.Printf("clientauth: session cache invalidate failed: %v", err)
		}
	}

	p.transition(ctx, epoch, nil, false)
	p.metrics.Inc(MetricLogout)
	p.emitAudit(ctx, AuditEvent{EventType: AuditLogout, Success: firstErr == nil, Metadata: map[string]string{"revoke_all": boolString(revokeAll)}})

	if p.nav != nil {
		if err := p.nav.Reload(); err != nil {
			log.Printf("clientauth: reload after logout failed: %v", err)
		}
	}

	return firstErr
}

// State returns the current state snapshot.
func (p *Provider) State() AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsAuthenticated reports whether the state is settled authenticated.
func (p *Provider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Authenticated
}

// IsLoading reports whether a validation cycle is in flight.
func (p *Provider) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Loading
}

// CurrentUser returns the authenticated principal, or nil.
func (p *Provider) CurrentUser() *UserProfile {
	return p.State().User()
}

// HasPermission reports membership of perm in the authenticated
// principal's permission list. Unauthenticated providers report false
// for every permission.
func (p *Provider) HasPermission(perm string) bool {
	user := p.CurrentUser()
	if user == nil {
		return false
	}
	return user.HasPermission(perm)
}

type subscription struct {
	id uint64
	fn StateChangeFunc
}

// Subscribe registers a state-change subscriber and returns its remove
// function.
func (p *Provider) Subscribe(fn StateChangeFunc) func() {
	if fn == nil {
		return func() {}
	}

	p.mu.Lock()
	p.nextSubID++
	id := p.nextSubID
	p.subs = append(p.subs, subscription{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub.id == id {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// MetricsSnapshot exposes the current metric values for exporters.
func (p *Provider) MetricsSnapshot() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (p *Provider) AuditDropped() uint64 {
	return p.audit.Dropped()
}

// Close stops the audit dispatcher and rejects further operations.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.audit.Close()
	return nil
}

func (p *Provider) emitAudit(ctx context.Context, event AuditEvent) {
	if p.audit == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	event.Origin = originFromContext(ctx)
	event.RequestID = requestIDFromContext(ctx)
	p.audit.Emit(ctx, event)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
