// Package urlutil contains pure helpers over URL strings: query-parameter
// extraction, in-place parameter stripping, and login-redirect construction.
//
// # Architecture boundaries
//
// Functions here never touch storage, the network, or a Navigator. The
// Provider decides when a browser context exists; urlutil only transforms
// strings it is handed.
package urlutil

import (
	"net/url"
	"strings"
)

// RedirectParam is the query parameter carrying the "return here" URL on
// login redirects.
const RedirectParam = "redirect"

// ExtractParam returns the value of the named query parameter in rawURL,
// or "" when the parameter is absent or rawURL does not parse.
func ExtractParam(rawURL, name string) string {
	if rawURL == "" || name == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return u.Query().Get(name)
}

// StripParams removes the named query parameters from rawURL and reports
// whether anything changed. When none of the names are present the input
// is returned verbatim with changed=false, so callers can skip the
// history-API (or ReplaceURL) round-trip entirely.
func StripParams(rawURL string, names ...string) (string, bool) {
	if rawURL == "" || len(names) == 0 {
		return rawURL, false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false
	}

	q := u.Query()
	changed := false
	for _, name := range names {
		if q.Has(name) {
			q.Del(name)
			changed = true
		}
	}
	if !changed {
		return rawURL, false
	}

	u.RawQuery = q.Encode()
	return u.String(), true
}

// BuildLoginURL appends RedirectParam=returnTo to base. An empty returnTo
// leaves base unchanged: that is the headless case, where no current page
// exists to return to.
func BuildLoginURL(base, returnTo string) string {
	if returnTo == "" {
		return base
	}

	u, err := url.Parse(base)
	if err != nil {
		// Fall back to naive concatenation rather than dropping the
		// return target.
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + RedirectParam + "=" + url.QueryEscape(returnTo)
	}

	q := u.Query()
	q.Set(RedirectParam, returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}
