package credential

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestDecodeIDTokenClaims(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-123",
		"email": "person@example.com",
	})
	signed, err := token.SignedString([]byte("unused-secret"))
	require.NoError(t, err)

	claims, err := DecodeIDTokenClaims(signed)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "person@example.com", claims.Email)
}

func TestDecodeIDTokenClaimsInvalidToken(t *testing.T) {
	_, err := DecodeIDTokenClaims("not-a-jwt")
	require.Error(t, err)
}
