package guard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	clientauth "github.com/klyra-id/clientauth"
	"github.com/klyra-id/clientauth/session"
)

type stubProvider struct {
	state clientauth.AuthState
}

func (s *stubProvider) State() clientauth.AuthState { return s.state }

func (s *stubProvider) LoginURLFor(returnTo string) string {
	return "https://id.example/login?redirect=" + returnTo
}

func contentHandler(t *testing.T, body string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func TestContentWhenAuthenticated(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{
		Authenticated: true,
		Session:       &session.Session{Valid: true},
		Generation:    1,
	}}
	handler := Protect(provider, contentHandler(t, "secret"), Options{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/home", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if rec.Body.String() != "secret" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestLoadingRendersPlaceholder(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{Loading: true}}
	handler := Protect(provider, contentHandler(t, "secret"), Options{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/home", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatal("content leaked during loading")
	}
}

func TestLoadingCustomHandler(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{Loading: true}}
	handler := Protect(provider, contentHandler(t, "secret"), Options{
		Loading: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/home", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestUnauthenticatedRedirects(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{Generation: 2}}
	handler := Protect(provider, contentHandler(t, "secret"), Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://app.example/settings?tab=profile", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("code = %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://id.example/login?redirect=") {
		t.Fatalf("Location = %q", location)
	}
	if !strings.Contains(location, "/settings") {
		t.Fatalf("return target missing from %q", location)
	}
}

func TestOnRedirectFiresOncePerGeneration(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{Generation: 1}}
	var fired int
	handler := Protect(provider, contentHandler(t, "secret"), Options{
		LoginURL: "https://id.example/login",
		OnRedirect: func(string) {
			fired++
		},
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/", nil))
		if rec.Code != http.StatusFound {
			t.Fatalf("request %d: code = %d", i, rec.Code)
		}
	}
	if fired != 1 {
		t.Fatalf("OnRedirect fired %d times for one generation", fired)
	}

	// A new settled transition re-arms the callback.
	provider.state.Generation = 2
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/", nil))
	if fired != 2 {
		t.Fatalf("OnRedirect fired %d times after new generation", fired)
	}
}

func TestLoginURLOverride(t *testing.T) {
	provider := &stubProvider{state: clientauth.AuthState{}}
	handler := Protect(provider, contentHandler(t, "secret"), Options{LoginURL: "https://other.example/signin"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://app.example/", nil))

	if got := rec.Header().Get("Location"); got != "https://other.example/signin" {
		t.Fatalf("Location = %q", got)
	}
}
