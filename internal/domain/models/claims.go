// Package models defines the domain entities of the auth core.
package models

import "time"

// Role is the authorization role carried in a token. Stored directly as a
// claim value rather than derived from a boolean flag.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a claim value to a Role, defaulting to RoleUser.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// Claims is the key/value payload of a bearer token. `sub`, `jti`, `iat`
// and `exp` are injected at issuance; `role` is optional.
type Claims map[string]any

// Subject returns the `sub` claim, or "".
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// JTI returns the unique token identifier, or "".
func (c Claims) JTI() string {
	s, _ := c["jti"].(string)
	return s
}

// Role returns the `role` claim, defaulting to RoleUser when absent.
func (c Claims) Role() Role {
	s, _ := c["role"].(string)
	return ParseRole(s)
}

// ExpiresAt returns the `exp` claim as a time. JSON decoding yields float64
// epoch seconds; issuance yields int64. Zero time when absent.
func (c Claims) ExpiresAt() time.Time {
	switch v := c["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	case int:
		return time.Unix(int64(v), 0)
	}
	return time.Time{}
}

// Clone returns a shallow copy, so issuance can inject registered claims
// without mutating the caller's map.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c)+3)
	for k, v := range c {
		out[k] = v
	}
	return out
}
