package clientauth

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by clientauth APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricValidateSuccess counts validations that settled authenticated.
	MetricValidateSuccess MetricID = iota
	// MetricValidateInvalid counts validations the provider answered valid:false.
	MetricValidateInvalid
	// MetricValidateNetworkError counts validations absorbed into the
	// unauthenticated state because of transport failure. Together with
	// MetricValidateInvalid it preserves the distinction the fail-closed
	// policy erases from the state machine.
	MetricValidateNetworkError
	// MetricValidateSuppressed counts validate calls coalesced into an
	// in-flight validation.
	MetricValidateSuppressed
	// MetricTokenFromURL counts tokens acquired from the URL carrier.
	MetricTokenFromURL
	// MetricTokenStored counts credential persist operations.
	MetricTokenStored
	// MetricCacheHit counts validations skipped for a fresh cached session.
	MetricCacheHit
	// MetricCacheStale counts cache entries rejected as stale or expired.
	MetricCacheStale
	// MetricLoginRedirect counts navigations to the hosted login page.
	MetricLoginRedirect
	// MetricLoginSuccess counts successful direct-credential logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed direct-credential logins.
	MetricLoginFailure
	// MetricCallbackSuccess counts successful authorization-code exchanges.
	MetricCallbackSuccess
	// MetricCallbackFailure counts failed authorization-code exchanges.
	MetricCallbackFailure
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricLogoutRevocationFailure counts best-effort remote revocations
	// that failed and were swallowed.
	MetricLogoutRevocationFailure
	// MetricRefreshSuccess counts successful token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed token refreshes.
	MetricRefreshFailure
	// MetricProfileFetch counts successful profile fetches.
	MetricProfileFetch
	// MetricProfileFailure counts failed profile fetches.
	MetricProfileFailure
	// MetricValidateLatency is the validate round-trip latency histogram.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by clientauth APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by clientauth APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded at all.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the validate latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. No-op when disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the validate histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms at one point in time.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
