package credential

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims is the subset of an id_token's claims the gateway reads
// to derive email and provider_account_id (spec.md §4.4: "decode the
// id_token claims without verifying signature (extraction only)").
type IDTokenClaims struct {
	Subject string
	Email   string
}

// DecodeIDTokenClaims parses an id_token's claims without verifying its
// signature — the gateway trusts the token because it just received it
// directly from the provider's token endpoint over TLS.
func DecodeIDTokenClaims(idToken string) (*IDTokenClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("credential: parse id_token: %w", err)
	}
	out := &IDTokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	return out, nil
}
