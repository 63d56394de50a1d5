package hsgate

import (
	"time"

	"github.com/hsgate/hsgate/jwt"
)

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Claims    jwt.Claims
}

// AuthResult is returned by [Engine.Validate]. Claims holds the full
// verified claim set; Subject and Role are lifted out for convenience.
type AuthResult struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    jwt.Claims
}

// HasRole reports whether the authenticated role is one of roles.
func (r *AuthResult) HasRole(roles ...string) bool {
	if r == nil {
		return false
	}
	for _, role := range roles {
		if role == r.Role {
			return true
		}
	}
	return false
}
