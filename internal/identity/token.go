// Package identity bridges the external identity provider and the remote
// store's primary keys: it turns a provider subject into a stable owner
// identifier, minting and later migrating a local placeholder when the
// remote store cannot be reached.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the three identity-provider fields this system consumes.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

var ErrBadToken = errors.New("malformed identity token")

// ParseIDToken extracts subject, email and display name from a provider ID
// token. The token's signature is checked by the provider SDK before it
// reaches this process; here only the claim payload is consumed.
func ParseIDToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrBadToken)
	}
	return claims, nil
}
