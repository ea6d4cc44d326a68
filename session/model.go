package session

import (
	"encoding/json"
	"time"
)

// UserProfile describes the authenticated principal. ID and Email form
// the core identity; Name, Role, and Permissions are optional. Fields the
// identity provider returns beyond the core schema land in Extra.
type UserProfile struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name,omitempty"`
	Role        string         `json:"role,omitempty"`
	Permissions []string       `json:"permissions,omitempty"`
	Extra       map[string]any `json:"-"`
}

// HasPermission reports whether perm appears in the profile's permission
// list. This is a plain membership check, the only authorization
// primitive the client exposes.
func (u *UserProfile) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

var userProfileCoreFields = map[string]bool{
	"id":          true,
	"email":       true,
	"name":        true,
	"role":        true,
	"permissions": true,
}

// UnmarshalJSON decodes the core schema and collects unknown fields into
// Extra, so provider-specific payloads survive the round trip without an
// implicitly-typed catch-all.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var core plain
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = UserProfile(core)
	for key, value := range raw {
		if userProfileCoreFields[key] {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]any)
		}
		u.Extra[key] = decoded
	}
	return nil
}

// MarshalJSON emits the core schema with Extra fields inlined. Core
// fields win on collision.
func (u UserProfile) MarshalJSON() ([]byte, error) {
	type plain UserProfile
	core, err := json.Marshal(plain(u))
	if err != nil {
		return nil, err
	}
	if len(u.Extra) == 0 {
		return core, nil
	}

	merged := make(map[string]json.RawMessage, len(u.Extra)+len(userProfileCoreFields))
	for key, value := range u.Extra {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[key] = encoded
	}

	var coreMap map[string]json.RawMessage
	if err := json.Unmarshal(core, &coreMap); err != nil {
		return nil, err
	}
	for key, value := range coreMap {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Session is the validated record of an active authenticated principal.
// Invariant: Valid=false implies User=nil. A Session is immutable once
// built; validation cycles replace it wholesale.
type Session struct {
	Valid     bool           `json:"valid"`
	User      *UserProfile   `json:"user,omitempty"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
	RawToken  string         `json:"-"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Expired reports whether the session carries an expiry that has passed.
// Sessions without an expiry never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
