package guard

import (
	"net/http"
	"sync"

	clientauth "github.com/klyra-id/clientauth"
)

// Provider is the subset of clientauth.Provider the guard reads.
type Provider interface {
	State() clientauth.AuthState
	LoginURLFor(returnTo string) string
}

// Options customize the gate's unauthenticated and loading renderings.
type Options struct {
	// LoginURL overrides the redirect target. Empty builds the Provider's
	// login URL with the request URL as the return target.
	LoginURL string

	// Loading renders while a validation cycle is in flight. Nil renders
	// a minimal placeholder page.
	Loading http.Handler

	// OnRedirect observes redirect targets. It fires at most once per
	// settled-unauthenticated state transition, not once per request.
	OnRedirect func(target string)
}

type gate struct {
	provider Provider
	content  http.Handler
	opts     Options

	mu       sync.Mutex
	firedGen uint64
	fired    bool
}

// Protect wraps content behind the Provider's authentication state.
func Protect(provider Provider, content http.Handler, opts Options) http.Handler {
	g := &gate{
		provider: provider,
		content:  content,
		opts:     opts,
	}
	return g
}

func (g *gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.provider == nil || g.content == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	state := g.provider.State()

	if state.Loading {
		g.renderLoading(w, r)
		return
	}

	if state.Authenticated {
		g.content.ServeHTTP(w, r)
		return
	}

	target := g.opts.LoginURL
	if target == "" {
		target = g.provider.LoginURLFor(requestURL(r))
	}

	g.fireOnRedirect(state.Generation, target)
	http.Redirect(w, r, target, http.StatusFound)
}

// fireOnRedirect invokes the callback once per state generation. Repeat
// requests against the same settled-unauthenticated state render the
// redirect without re-firing.
func (g *gate) fireOnRedirect(generation uint64, target string) {
	if g.opts.OnRedirect == nil {
		return
	}

	g.mu.Lock()
	if g.fired && g.firedGen == generation {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.firedGen = generation
	g.mu.Unlock()

	g.opts.OnRedirect(target)
}

func (g *gate) renderLoading(w http.ResponseWriter, r *http.Request) {
	if g.opts.Loading != nil {
		g.opts.Loading.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!doctype html><title>Signing in</title><p>Signing you in&hellip;</p>"))
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
