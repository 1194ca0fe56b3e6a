package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultReservedRoles are identity-provider roles that never name an operator
var DefaultReservedRoles = []string{"uma_authorization", "offline_access", "admin", "manage-account", "view-profile"}

// ErrNoOperatorRole means the token carries no operator role
var ErrNoOperatorRole = errors.New("no operator role on session")

// Roles is the per-client role list in a token
type Roles struct {
	Roles []string `json:"roles"`
}

// Claims is the access/refresh token payload
type Claims struct {
	TokenType         string           `json:"typ,omitempty"`
	PreferredUsername string           `json:"preferred_username,omitempty"`
	ResourceAccess    map[string]Roles `json:"resource_access,omitempty"`
	jwt.RegisteredClaims
}

// Token types
const (
	TypeAccess  = "Bearer"
	TypeRefresh = "Refresh"
)

// ParseUnverified decodes token claims without checking the signature.
// The console only reads its own token; the API verifies it.
func ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ResolveOperator returns the first non-reserved role granted for clientID.
// When clientID is empty every client's roles are considered.
func ResolveOperator(accessToken, clientID string, reserved []string) (string, error) {
	claims, err := ParseUnverified(accessToken)
	if err != nil {
		return "", fmt.Errorf("read session roles: %w", err)
	}
	return claims.Operator(clientID, reserved)
}

// Operator picks the operator role out of the claims
func (c *Claims) Operator(clientID string, reserved []string) (string, error) {
	var roles []string
	if clientID != "" {
		roles = c.ResourceAccess[clientID].Roles
	} else {
		clients := make([]string, 0, len(c.ResourceAccess))
		for name := range c.ResourceAccess {
			clients = append(clients, name)
		}
		slices.Sort(clients)
		for _, name := range clients {
			roles = append(roles, c.ResourceAccess[name].Roles...)
		}
	}
	for _, role := range roles {
		if !slices.Contains(reserved, role) {
			return role, nil
		}
	}
	return "", ErrNoOperatorRole
}

// ExpiryOf reads the exp claim of a JWT, zero when absent or unreadable
func ExpiryOf(token string) time.Time {
	claims, err := ParseUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
