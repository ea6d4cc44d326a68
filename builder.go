package clientauth

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/klyra-id/clientauth/api"
	"github.com/klyra-id/clientauth/credential"
	"github.com/klyra-id/clientauth/session"
)

// Builder defines a public type used by clientauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	navigator  Navigator
	creds      credential.Store
	cache      session.Cache
	httpClient *http.Client

	auditSink   AuditSink
	subscribers []StateChangeFunc

	built bool
}

// New returns a Builder seeded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithNavigator attaches the browser-context capability. Omitting it
// builds a headless Provider: Login and the reload-on-logout degrade to
// logged no-ops per their documentation.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithCredentialStore overrides the persisted-credential backend. The
// default is an in-memory store scoped to the process.
func (b *Builder) WithCredentialStore(store credential.Store) *Builder {
	b.creds = store
	return b
}

// WithSessionCache attaches an optional validation-result cache.
func (b *Builder) WithSessionCache(cache session.Cache) *Builder {
	b.cache = cache
	return b
}

// WithRedis backs both the credential store and the session cache with
// the given Redis client, unless either was set explicitly.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the HTTP client used against the identity
// provider.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink attaches an audit sink; events are dispatched on a
// background goroutine when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithStateChange registers a subscriber invoked on every settled state
// transition.
func (b *Builder) WithStateChange(fn StateChangeFunc) *Builder {
	if fn != nil {
		b.subscribers = append(b.subscribers, fn)
	}
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithDebug toggles verbose logging.
func (b *Builder) WithDebug(enabled bool) *Builder {
	b.config.Debug = enabled
	return b
}

// Build validates the configuration and assembles the Provider. A
// Builder can build at most once.
func (b *Builder) Build() (*Provider, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := b.creds
	if creds == nil && b.redis != nil {
		creds = credential.NewRedis(b.redis, "")
	}
	if creds == nil {
		creds = credential.NewMemory()
	}

	cache := b.cache
	if cache == nil && b.redis != nil && cfg.Cache.TTL > 0 {
		cache = session.NewRedisCache(b.redis, "", cfg.Cache.TTL)
	}

	apiClient, err := api.New(api.Config{
		BaseURL:    cfg.API.URL,
		CookieName: cfg.Cookie.Name,
		Timeout:    cfg.API.Timeout,
	}, creds, b.httpClient)
	if err != nil {
		return nil, err
	}

	provider := &Provider{
		config:  cfg,
		nav:     b.navigator,
		creds:   creds,
		cache:   cache,
		api:     apiClient,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}
	for _, fn := range b.subscribers {
		provider.nextSubID++
		provider.subs = append(provider.subs, subscription{id: provider.nextSubID, fn: fn})
	}

	b.built = true

	return provider, nil
}
