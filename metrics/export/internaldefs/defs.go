package internaldefs

import (
	clientauth "github.com/klyra-id/clientauth"
)

// CounterDef pairs a metric identifier with its stable exported name.
type CounterDef struct {
	ID   clientauth.MetricID
	Name string
	Help string
}

// HistogramDef pairs a histogram identifier with its stable exported name.
type HistogramDef struct {
	ID   clientauth.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical counter list shared by all exporters.
var CounterDefs = []CounterDef{
	{ID: clientauth.MetricValidateSuccess, Name: "clientauth_validate_success_total", Help: "Validations settled authenticated."},
	{ID: clientauth.MetricValidateInvalid, Name: "clientauth_validate_invalid_total", Help: "Validations the provider answered valid:false."},
	{ID: clientauth.MetricValidateNetworkError, Name: "clientauth_validate_network_error_total", Help: "Validations absorbed into the unauthenticated state by transport failure."},
	{ID: clientauth.MetricValidateSuppressed, Name: "clientauth_validate_suppressed_total", Help: "Validate calls coalesced into an in-flight validation."},
	{ID: clientauth.MetricTokenFromURL, Name: "clientauth_token_from_url_total", Help: "Tokens acquired from the URL carrier."},
	{ID: clientauth.MetricTokenStored, Name: "clientauth_token_stored_total", Help: "Credential persist operations."},
	{ID: clientauth.MetricCacheHit, Name: "clientauth_cache_hit_total", Help: "Validations skipped for a fresh cached session."},
	{ID: clientauth.MetricCacheStale, Name: "clientauth_cache_stale_total", Help: "Cache entries rejected as stale or expired."},
	{ID: clientauth.MetricLoginRedirect, Name: "clientauth_login_redirect_total", Help: "Navigations to the hosted login page."},
	{ID: clientauth.MetricLoginSuccess, Name: "clientauth_login_success_total", Help: "Successful direct-credential logins."},
	{ID: clientauth.MetricLoginFailure, Name: "clientauth_login_failure_total", Help: "Failed direct-credential logins."},
	{ID: clientauth.MetricCallbackSuccess, Name: "clientauth_callback_success_total", Help: "Successful authorization-code exchanges."},
	{ID: clientauth.MetricCallbackFailure, Name: "clientauth_callback_failure_total", Help: "Failed authorization-code exchanges."},
	{ID: clientauth.MetricLogout, Name: "clientauth_logout_total", Help: "Logout operations."},
	{ID: clientauth.MetricLogoutRevocationFailure, Name: "clientauth_logout_revocation_failure_total", Help: "Best-effort remote revocations that failed and were swallowed."},
	{ID: clientauth.MetricRefreshSuccess, Name: "clientauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: clientauth.MetricRefreshFailure, Name: "clientauth_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: clientauth.MetricProfileFetch, Name: "clientauth_profile_fetch_total", Help: "Successful profile fetches."},
	{ID: clientauth.MetricProfileFailure, Name: "clientauth_profile_failure_total", Help: "Failed profile fetches."},
}

// HistogramDefs is the canonical histogram list shared by all exporters.
var HistogramDefs = []HistogramDef{
	{ID: clientauth.MetricValidateLatency, Name: "clientauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is the upper bound of each bucket in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is the bound list in metric-name-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into Prometheus-style
// cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
