package entities

import "time"

// API key scopes. ScopeAdmin implies every other scope.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ValidScopes lists the scopes a key may carry.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

// DefaultScopes are granted when a key is created without explicit scopes.
var DefaultScopes = []string{ScopeRead, ScopeWrite}

// IsValidScope reports whether s is a known scope.
func IsValidScope(s string) bool {
	for _, v := range ValidScopes {
		if v == s {
			return true
		}
	}
	return false
}

// APIKey is a bearer credential. Only the SHA-256 hash of the raw key is kept.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_preview"`
	Scopes     StringList `json:"scopes"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsActive reports whether the key has not been revoked.
func (k *APIKey) IsActive() bool {
	return k.RevokedAt == nil
}

// HasScope reports whether the key grants scope, directly or through admin.
func (k *APIKey) HasScope(scope string) bool {
	return k.Scopes.Contains(scope) || k.Scopes.Contains(ScopeAdmin)
}
