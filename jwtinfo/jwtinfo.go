// Package jwtinfo decodes JWT session tokens for display and diagnostics
// WITHOUT verifying their signatures. Nothing in this package establishes
// trust; authorization decisions must come from server-side validation.
package jwtinfo

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed reports a token that does not parse as a JWT at all.
var ErrMalformed = errors.New("jwtinfo: malformed token")

// Info is the unverified content of a session token. All fields are
// claims as the token presents them, not as the provider would attest.
type Info struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]any
}

// Decode parses a JWT without signature verification and returns its
// claims. Expired tokens still decode; callers deciding anything from
// the result must treat it as untrusted input.
func Decode(token string) (*Info, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	info := &Info{Claims: map[string]any(claims)}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if aud, err := claims.GetAudience(); err == nil {
		info.Audience = []string(aud)
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// Expired reports whether the token's own exp claim is in the past. A
// token with no exp claim never reports expired here.
func Expired(token string, now time.Time) bool {
	info, err := Decode(token)
	if err != nil {
		return true
	}
	if info.ExpiresAt.IsZero() {
		return false
	}
	return info.ExpiresAt.Before(now)
}
