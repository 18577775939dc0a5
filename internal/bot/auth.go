package bot

import "strings"

// Auth handles user authorization with O(1) lookup
type Auth struct {
	allowedUsers map[string]bool // lowercase usernames
}

// NewAuth creates a new Auth with case-insensitive username matching.
// An empty list lets everybody in: the storefront is public by default.
func NewAuth(allowedUsers []string) *Auth {
	allowed := make(map[string]bool)
	for _, u := range allowedUsers {
		if u = strings.TrimPrefix(strings.TrimSpace(u), "@"); u != "" {
			allowed[strings.ToLower(u)] = true
		}
	}
	return &Auth{allowedUsers: allowed}
}

// Restricted reports whether an allowlist is in effect.
func (a *Auth) Restricted() bool {
	return len(a.allowedUsers) > 0
}

// IsAuthorized checks if a username is authorized (case-insensitive).
// With an allowlist in effect, an empty username is never authorized.
func (a *Auth) IsAuthorized(username string) bool {
	if !a.Restricted() {
		return true
	}
	if username == "" {
		return false
	}
	return a.allowedUsers[strings.ToLower(username)]
}
