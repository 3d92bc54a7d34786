package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, sub, email, name string) string {
	t.Helper()
	claims := jwt.MapClaims{"email": email, "name": name}
	if sub != "" {
		claims["sub"] = sub
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestParseIDToken(t *testing.T) {
	raw := makeToken(t, "auth0|abc", "ravi@example.com", "Ravi")

	claims, err := ParseIDToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", claims.Subject)
	assert.Equal(t, "ravi@example.com", claims.Email)
	assert.Equal(t, "Ravi", claims.Name)
}

func TestParseIDToken_MissingSubject(t *testing.T) {
	raw := makeToken(t, "", "ravi@example.com", "Ravi")

	_, err := ParseIDToken(raw)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseIDToken_Garbage(t *testing.T) {
	_, err := ParseIDToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrBadToken)
}
