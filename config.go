package clientauth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by clientauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API     APIConfig
	Login   LoginConfig
	Cookie  CookieConfig
	Token   TokenConfig
	OAuth   OAuthConfig
	Cache   CacheConfig
	Audit   AuditConfig
	Metrics MetricsConfig

	// Debug gates verbose log lines on otherwise silent paths.
	Debug bool
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the identity provider and bounds outbound calls.
type APIConfig struct {
	// URL is the identity provider origin, e.g. "https://id.example".
	// Required.
	URL string
	// Timeout bounds each HTTP call. Zero means 30s.
	Timeout time.Duration
}

// LoginConfig locates the hosted login page used by the redirect flow.
type LoginConfig struct {
	// URL is the login page the Navigator is sent to. Required.
	URL string
}

// CookieConfig names the persisted credential and bounds its lifetime.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
}

// TokenConfig names the URL query parameter the provider hands tokens
// back through.
type TokenConfig struct {
	Param string
}

// OAuthConfig carries the client registration for the direct-credential
// and authorization-code paths. Optional: hosts using only the
// redirect-and-cookie flow may leave it zero.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
}

// CacheConfig bounds the optional session cache.
type CacheConfig struct {
	// TTL is the freshness window for cached validation results. Zero
	// disables reuse (every Initialize revalidates remotely).
	TTL time.Duration
}

// AuditConfig defines a public type used by clientauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by clientauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Cookie: CookieConfig{
			Name:   "clientSession",
			MaxAge: 24 * time.Hour,
		},
		Token: TokenConfig{
			Param: "token",
		},
		OAuth: OAuthConfig{
			Scope: "openid profile email",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone point stays so future
	// reference-typed fields get copied in one place.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("API URL is required")
	}
	if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API URL must be absolute")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	// Login
	if strings.TrimSpace(c.Login.URL) == "" {
		return errors.New("Login URL is required")
	}
	if u, err := url.Parse(c.Login.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Login URL must be absolute")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.MaxAge <= 0 {
		return errors.New("Cookie MaxAge must be > 0")
	}

	// Token
	if strings.TrimSpace(c.Token.Param) == "" {
		return errors.New("Token Param must not be empty")
	}

	// Cache
	if c.Cache.TTL < 0 {
		return errors.New("Cache TTL must be >= 0")
	}

	// OAuth: all-or-nothing for the code-exchange registration.
	if c.OAuth.ClientID == "" && c.OAuth.ClientSecret != "" {
		return errors.New("OAuth ClientSecret requires ClientID")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
